package handler

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/service"
)

const CatalogServiceName = "catalog.v1.CatalogService"

// CatalogServer is the read-only catalog RPC surface. Messages are
// well-known protobuf types carrying the same JSON shape as the HTTP API.
type CatalogServer interface {
	ListCategories(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	GetCategoryBySlug(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	GetProductBySlug(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListCategories", Handler: unary("ListCategories", CatalogServer.ListCategories)},
		{MethodName: "GetCategoryBySlug", Handler: unary("GetCategoryBySlug", CatalogServer.GetCategoryBySlug)},
		{MethodName: "ListProducts", Handler: unary("ListProducts", CatalogServer.ListProducts)},
		{MethodName: "GetProductBySlug", Handler: unary("GetProductBySlug", CatalogServer.GetProductBySlug)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.proto",
}

func unary[Req any, Resp any](method string,
	call func(CatalogServer, context.Context, *Req) (Resp, error),
) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {

	fullMethod := "/" + CatalogServiceName + "/" + method

	return func(srv interface{}, ctx context.Context, dec func(interface{}) error,
		interceptor grpc.UnaryServerInterceptor) (interface{}, error) {

		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CatalogServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type GRPCHandler struct {
	service *service.CatalogService
	health  *health.Server
}

func NewGRPCHandler(service *service.CatalogService) *GRPCHandler {
	return &GRPCHandler{
		service: service,
		health:  health.NewServer(),
	}
}

// Register adds the catalog and health services to s
func (h *GRPCHandler) Register(s *grpc.Server) {
	s.RegisterService(&CatalogServiceDesc, h)
	healthpb.RegisterHealthServer(s, h.health)
	h.health.SetServingStatus(CatalogServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown marks every service as not serving
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}

func (h *GRPCHandler) ListCategories(ctx context.Context,
	_ *emptypb.Empty) (*structpb.ListValue, error) {

	categories, err := h.service.ListCategories(ctx)
	if err != nil {
		return nil, toStatus(err, "failed to list categories")
	}
	return toList(categories)
}

func (h *GRPCHandler) GetCategoryBySlug(ctx context.Context,
	req *wrapperspb.StringValue) (*structpb.Struct, error) {

	category, err := h.service.GetCategoryBySlug(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err, "failed to get category")
	}
	return toStruct(category)
}

func (h *GRPCHandler) ListProducts(ctx context.Context,
	_ *emptypb.Empty) (*structpb.ListValue, error) {

	products, err := h.service.ListProducts(ctx)
	if err != nil {
		return nil, toStatus(err, "failed to list products")
	}
	return toList(products)
}

func (h *GRPCHandler) GetProductBySlug(ctx context.Context,
	req *wrapperspb.StringValue) (*structpb.Struct, error) {

	product, err := h.service.GetProductBySlug(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err, "failed to get product")
	}
	return toStruct(product)
}

func toStatus(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: %v", msg, err)
	case errors.Is(err, domain.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s: %v", msg, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", msg, err)
	}
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	var fields map[string]interface{}
	if err := roundTrip(v, &fields); err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}

func toList[T any](items []T) (*structpb.ListValue, error) {
	values := []interface{}{}
	if err := roundTrip(items, &values); err != nil {
		return nil, err
	}
	l, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return l, nil
}

// roundTrip converts domain values into the generic JSON shape structpb accepts
func roundTrip(v, out interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return nil
}

var _ CatalogServer = (*GRPCHandler)(nil)
