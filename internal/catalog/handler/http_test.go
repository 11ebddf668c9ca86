package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/cache"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/events"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/metrics"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/repository/repositorytest"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/service"
	"github.com/umanagarjuna/go-catalog-service/pkg/slug"
	"github.com/umanagarjuna/go-catalog-service/pkg/validator"
)

type testServer struct {
	router *gin.Engine
	repo   *repositorytest.MemoryRepository
	mr     *miniredis.Miniredis
	svc    *service.CatalogService
}

func newTestService(t *testing.T) (*service.CatalogService, *repositorytest.MemoryRepository,
	*miniredis.Miniredis, cache.Store, *metrics.PrometheusMetrics) {

	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	store := cache.NewRedisStore(client)
	m := metrics.NewPrometheusMetrics("catalog")
	repo := repositorytest.NewMemoryRepository()

	svc := service.NewCatalogService(
		repo,
		cache.NewReadThrough(store, logger, m, cache.Options{}),
		cache.NewInvalidator(store, logger, m, cache.InvalidatorOptions{}),
		events.NopPublisher{},
		slug.NewRandomSuffixGenerator(),
		validator.NewDefaultValidator(),
		logger,
	)
	return svc, repo, mr, store, m
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, repo, mr, store, m := newTestService(t)

	router := gin.New()
	router.Use(RequestLogger(zap.NewNop()))
	NewHTTPHandler(svc, store, m.Handler(), zap.NewNop()).RegisterRoutes(router)

	return &testServer{router: router, repo: repo, mr: mr, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHTTP_CategoryLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/categories/", gin.H{"name": "Shoes", "description": "Footwear"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Category](t, w)
	assert.Equal(t, "shoes", created.Slug)

	w = s.do(t, http.MethodGet, "/categories/shoes/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Body.String()
	assert.True(t, s.mr.Exists("category_shoes"))

	w = s.do(t, http.MethodGet, "/categories/shoes/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, w.Body.String())
	assert.Equal(t, 1, s.repo.Calls("GetCategoryBySlug"))

	w = s.do(t, http.MethodPatch, "/categories/1/", gin.H{"description": "All footwear"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, s.mr.Exists("category_shoes"))

	w = s.do(t, http.MethodGet, "/categories/shoes/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "All footwear", *decode[domain.Category](t, w).Description)

	w = s.do(t, http.MethodGet, "/categories/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Category](t, w), 1)

	w = s.do(t, http.MethodDelete, "/categories/1/", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/categories/shoes/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_ProductRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/categories/", gin.H{"name": "Shoes"})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decode[domain.Category](t, w)

	w = s.do(t, http.MethodPost, "/products/", gin.H{
		"name": "Running Shoes", "price": "59.99", "sell_price": "49.99",
		"stock": 3, "category": category.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[domain.Product](t, w)

	w = s.do(t, http.MethodGet, "/products/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Product](t, w), 1)
	assert.True(t, s.mr.Exists("product_list"))

	w = s.do(t, http.MethodGet, "/products/?slug=running", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product.ID, decode[domain.Product](t, w).ID)
	assert.True(t, s.mr.Exists("product_running"))

	w = s.do(t, http.MethodGet, "/products/?slug=boots", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/products/1/", gin.H{"stock": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, "PUT needs every required field")

	w = s.do(t, http.MethodPatch, "/products/2/", gin.H{"stock": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, s.mr.Exists("product_list"))

	w = s.do(t, http.MethodGet, "/products/2/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[domain.Product](t, w).Stock)

	w = s.do(t, http.MethodGet, "/products/abc/", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/products/2/reviews/", gin.H{"user": 7, "rating": 4, "comment": "Nice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/products/2/reviews/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Review](t, w), 1)

	w = s.do(t, http.MethodDelete, "/products/2/", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/products/2/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/categories/", gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/categories/", gin.H{"name": "Shoes", "slug": "shoes"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/categories/", gin.H{"name": "Shoes", "slug": "shoes"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/products/", gin.H{
		"name": "Ghost", "price": "1.00", "sell_price": "1.00", "stock": 1, "category": 404,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/products/1/reviews/", gin.H{"user": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code, "rating is required")
}

func TestHTTP_CacheOutage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/categories/", gin.H{"name": "Shoes"})
	require.Equal(t, http.StatusCreated, w.Code)
	s.mr.Close()

	w = s.do(t, http.MethodGet, "/categories/shoes/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "down", decode[map[string]string](t, w)["cache"])
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", decode[map[string]string](t, w)["cache"])

	s.do(t, http.MethodGet, "/categories/", nil)
	s.do(t, http.MethodGet, "/categories/", nil)

	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `catalog_cache_hit_total{resource="category"} 1`)
	assert.Contains(t, w.Body.String(), `catalog_cache_miss_total{resource="category"} 1`)
}

func TestRequestLogger_RequestID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrConflict))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidReference))
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.DeadlineExceeded))
}
