package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
)

func ptr[T any](v T) *T { return &v }

func newGRPCClient(t *testing.T, h *GRPCHandler) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	h.Register(server)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_CatalogReads(t *testing.T) {
	svc, repo, mr, _, _ := newTestService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, &domain.CategoryInput{Name: ptr("Shoes")})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, &domain.ProductInput{
		Name: ptr("Running Shoes"), Price: ptr("59.99"), SellPrice: ptr("49.99"),
		Stock: ptr(int64(2)), CategoryID: ptr(category.ID),
	})
	require.NoError(t, err)

	conn := newGRPCClient(t, NewGRPCHandler(svc))

	categories := &structpb.ListValue{}
	require.NoError(t, conn.Invoke(ctx, "/"+CatalogServiceName+"/ListCategories", &emptypb.Empty{}, categories))
	require.Len(t, categories.GetValues(), 1)
	assert.Equal(t, "shoes", categories.GetValues()[0].GetStructValue().GetFields()["slug"].GetStringValue())

	got := &structpb.Struct{}
	require.NoError(t, conn.Invoke(ctx, "/"+CatalogServiceName+"/GetCategoryBySlug",
		wrapperspb.String("shoes"), got))
	assert.Equal(t, "Shoes", got.GetFields()["name"].GetStringValue())
	assert.True(t, mr.Exists("category_shoes"))

	products := &structpb.ListValue{}
	require.NoError(t, conn.Invoke(ctx, "/"+CatalogServiceName+"/ListProducts", &emptypb.Empty{}, products))
	assert.Len(t, products.GetValues(), 1)

	product := &structpb.Struct{}
	require.NoError(t, conn.Invoke(ctx, "/"+CatalogServiceName+"/GetProductBySlug",
		wrapperspb.String("running"), product))
	assert.Equal(t, "59.99", product.GetFields()["price"].GetStringValue())

	require.NoError(t, conn.Invoke(ctx, "/"+CatalogServiceName+"/GetProductBySlug",
		wrapperspb.String("running"), product))
	assert.Equal(t, 1, repo.Calls("FindProductBySlugFragment"))
}

func TestGRPC_NotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	conn := newGRPCClient(t, NewGRPCHandler(svc))

	err := conn.Invoke(context.Background(), "/"+CatalogServiceName+"/GetCategoryBySlug",
		wrapperspb.String("ghost"), &structpb.Struct{})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	h := NewGRPCHandler(svc)
	conn := newGRPCClient(t, h)

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: CatalogServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	h.Shutdown()
	resp, err = client.Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: CatalogServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
