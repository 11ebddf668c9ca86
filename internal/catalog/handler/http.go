package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/service"
)

const healthTimeout = time.Second

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPHandler struct {
	service *service.CatalogService
	cache   Pinger
	metrics http.Handler
	logger  *zap.Logger
}

// NewHTTPHandler builds the catalog routes. metrics may be nil, in which
// case /metrics is not registered.
func NewHTTPHandler(service *service.CatalogService, cache Pinger,
	metrics http.Handler, logger *zap.Logger) *HTTPHandler {

	return &HTTPHandler{
		service: service,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	categories := router.Group("/categories")
	{
		categories.GET("/", h.ListCategories)
		categories.POST("/", h.CreateCategory)
		categories.GET("/:key/", h.GetCategory)
		categories.PUT("/:key/", h.UpdateCategory)
		categories.PATCH("/:key/", h.PatchCategory)
		categories.DELETE("/:key/", h.DeleteCategory)
	}

	products := router.Group("/products")
	{
		products.GET("/", h.ListProducts)
		products.POST("/", h.CreateProduct)
		products.GET("/:key/", h.GetProduct)
		products.PUT("/:key/", h.UpdateProduct)
		products.PATCH("/:key/", h.PatchProduct)
		products.DELETE("/:key/", h.DeleteProduct)
		products.GET("/:key/reviews/", h.ListReviews)
		products.POST("/:key/reviews/", h.CreateReview)
	}

	router.GET("/health", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}
}

func (h *HTTPHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to list categories")
		return
	}

	c.JSON(http.StatusOK, categories)
}

// GetCategory looks the category up by slug
func (h *HTTPHandler) GetCategory(c *gin.Context) {
	slug := c.Param("key")

	category, err := h.service.GetCategoryBySlug(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, err, "Failed to get category", zap.String("slug", slug))
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *HTTPHandler) CreateCategory(c *gin.Context) {
	var req domain.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *HTTPHandler) UpdateCategory(c *gin.Context) {
	h.updateCategory(c, false)
}

func (h *HTTPHandler) PatchCategory(c *gin.Context) {
	h.updateCategory(c, true)
}

func (h *HTTPHandler) updateCategory(c *gin.Context, partial bool) {
	id, ok := parseID(c, "Invalid category ID")
	if !ok {
		return
	}

	var req domain.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), id, &req, partial)
	if err != nil {
		h.fail(c, err, "Failed to update category", zap.Int64("category_id", id))
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *HTTPHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "Invalid category ID")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Failed to delete category", zap.Int64("category_id", id))
		return
	}

	c.Status(http.StatusNoContent)
}

// ListProducts returns every product, or with ?slug= the first product
// whose slug contains the fragment.
func (h *HTTPHandler) ListProducts(c *gin.Context) {
	if fragment, ok := c.GetQuery("slug"); ok {
		product, err := h.service.GetProductBySlug(c.Request.Context(), fragment)
		if err != nil {
			h.fail(c, err, "Failed to find product", zap.String("slug", fragment))
			return
		}
		c.JSON(http.StatusOK, product)
		return
	}

	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to get product", zap.Int64("product_id", id))
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req domain.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	h.updateProduct(c, false)
}

func (h *HTTPHandler) PatchProduct(c *gin.Context) {
	h.updateProduct(c, true)
}

func (h *HTTPHandler) updateProduct(c *gin.Context, partial bool) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	var req domain.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, &req, partial)
	if err != nil {
		h.fail(c, err, "Failed to update product", zap.Int64("product_id", id))
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Failed to delete product", zap.Int64("product_id", id))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListReviews(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to list reviews", zap.Int64("product_id", id))
		return
	}

	c.JSON(http.StatusOK, reviews)
}

func (h *HTTPHandler) CreateReview(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	var req domain.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err, "Failed to create review", zap.Int64("product_id", id))
		return
	}

	c.JSON(http.StatusCreated, review)
}

// Health stays 200 while the cache is down; reads fall back to the database.
func (h *HTTPHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	cacheStatus := "up"
	if err := h.cache.Ping(ctx); err != nil {
		h.logger.Warn("Cache health check failed", zap.Error(err))
		cacheStatus = "down"
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": cacheStatus})
}

func (h *HTTPHandler) fail(c *gin.Context, err error, msg string, fields ...zap.Field) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("key"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return 0, false
	}
	return id, true
}
