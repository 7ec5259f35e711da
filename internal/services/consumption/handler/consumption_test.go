package handler

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"mes-dashboard/internal/consumption"
	"mes-dashboard/internal/rpc"
)

type stubSource struct {
	rowsErr error
}

func strp(s string) *string { return &s }
func idp(i int64) *int64    { return &i }

func (s *stubSource) FetchOrderHeader(_ context.Context, orderNumber string) (consumption.ProductionOrderHeader, error) {
	if orderNumber != "PO-1" {
		return consumption.ProductionOrderHeader{}, consumption.ErrNotFound
	}
	return consumption.ProductionOrderHeader{ProductionOrderNumber: "PO-1", ProductQuantity: decimal.NewFromInt(100)}, nil
}

func (s *stubSource) FetchBatches(context.Context, string) ([]consumption.BatchRecord, error) {
	return []consumption.BatchRecord{{BatchNumber: strp("B1"), Quantity: decimal.NewFromInt(25)}}, nil
}

func (s *stubSource) FetchObservedBatches(context.Context, string) ([]consumption.BatchRecord, error) {
	return []consumption.BatchRecord{{BatchNumber: strp("B1")}, {BatchNumber: nil}}, nil
}

func (s *stubSource) FetchRecipeIngredientTotals(context.Context, string) (consumption.RecipeTotals, error) {
	return consumption.RecipeTotals{"SUGAR": {IngredientCode: "SUGAR", Total: decimal.NewFromInt(50), Unit: "kg"}}, nil
}

func (s *stubSource) FetchConsumptionRows(context.Context, string) ([]consumption.ConsumptionRecord, error) {
	if s.rowsErr != nil {
		return nil, s.rowsErr
	}
	return []consumption.ConsumptionRecord{
		{ID: idp(1), BatchCode: strp("B1"), IngredientCode: "SUGAR", Quantity: decimal.NewFromInt(3)},
		{ID: idp(2), BatchCode: strp("B1"), IngredientCode: "SUGAR", Quantity: decimal.NewFromInt(4)},
		{ID: nil, BatchCode: strp("B1"), IngredientCode: "SUGAR", Quantity: decimal.Zero},
	}, nil
}

func newTestClient(t *testing.T, src consumption.Source) rpc.ConsumptionServiceClient {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reconciler := consumption.NewReconciler(src, consumption.NewMemoryCache(), consumption.Config{Logger: logger})

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(logger)))
	rpc.RegisterConsumptionServiceServer(s, NewConsumptionHandler(reconciler, logger))
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial bufnet: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return rpc.NewConsumptionServiceClient(conn)
}

func TestConsumptionHandler_GetPage(t *testing.T) {
	client := newTestClient(t, &stubSource{})

	resp, err := client.GetPage(context.Background(), &rpc.GetPageRequest{OrderNumber: "PO-1", Page: 1, PageSize: 10, Filter: "all"})
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	result := resp.Result
	if result.TotalCount != 1 || len(result.Items) != 1 {
		t.Fatalf("Expected 1 group, got %d", result.TotalCount)
	}
	g := result.Items[0]
	if g.Planned.String() != "12.50" {
		t.Errorf("Expected planned 12.50 across the wire, got %s", g.Planned)
	}
	if !g.TotalQuantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected total 7, got %s", g.TotalQuantity)
	}
	if len(g.IDs) != 3 || g.IDs[2] != nil {
		t.Errorf("Expected nil placeholder id to survive encoding, got %v", g.IDs)
	}
}

func TestConsumptionHandler_GetPageConsumed(t *testing.T) {
	client := newTestClient(t, &stubSource{})

	resp, err := client.GetPage(context.Background(), &rpc.GetPageRequest{OrderNumber: "PO-1", Page: 1, PageSize: 10, Filter: "consumed"})
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if ids := resp.Result.Items[0].IDs; len(ids) != 2 {
		t.Errorf("Expected 2 ids, got %v", ids)
	}
}

func TestConsumptionHandler_ErrorCodes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		src      *stubSource
		req      *rpc.GetPageRequest
		expected codes.Code
	}{
		{"missing order", &stubSource{}, &rpc.GetPageRequest{Page: 1, PageSize: 10}, codes.InvalidArgument},
		{"bad filter", &stubSource{}, &rpc.GetPageRequest{OrderNumber: "PO-1", Page: 1, PageSize: 10, Filter: "half"}, codes.InvalidArgument},
		{"bad page", &stubSource{}, &rpc.GetPageRequest{OrderNumber: "PO-1", Page: 0, PageSize: 10}, codes.InvalidArgument},
		{"unknown order", &stubSource{}, &rpc.GetPageRequest{OrderNumber: "PO-404", Page: 1, PageSize: 10}, codes.NotFound},
		{"upstream failure", &stubSource{rowsErr: errors.New("timeout")}, &rpc.GetPageRequest{OrderNumber: "PO-1", Page: 1, PageSize: 10}, codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.src)
			_, err := client.GetPage(ctx, tt.req)
			if got := status.Code(err); got != tt.expected {
				t.Errorf("Expected %s, got %s (%v)", tt.expected, got, err)
			}
		})
	}
}

func TestConsumptionHandler_BatchFacetsAndPlanned(t *testing.T) {
	client := newTestClient(t, &stubSource{})
	ctx := context.Background()

	facets, err := client.GetBatchFacets(ctx, &rpc.GetBatchFacetsRequest{OrderNumber: "PO-1"})
	if err != nil {
		t.Fatalf("GetBatchFacets failed: %v", err)
	}
	if len(facets.Batches) != 2 || facets.Batches[1].BatchNumber != nil {
		t.Errorf("Expected [B1 nil], got %+v", facets.Batches)
	}

	planned, err := client.GetPlannedQuantity(ctx, &rpc.GetPlannedQuantityRequest{OrderNumber: "PO-1", IngredientCode: "SUGAR", BatchCode: strp("B1")})
	if err != nil {
		t.Fatalf("GetPlannedQuantity failed: %v", err)
	}
	if planned.Planned.String() != "12.50" {
		t.Errorf("Expected 12.50, got %s", planned.Planned)
	}

	missing, err := client.GetPlannedQuantity(ctx, &rpc.GetPlannedQuantityRequest{OrderNumber: "PO-1", IngredientCode: "SALT"})
	if err != nil {
		t.Fatalf("GetPlannedQuantity failed: %v", err)
	}
	if missing.Planned.Available() {
		t.Errorf("Expected N/A for an ingredient without recipe, got %s", missing.Planned)
	}

	inv, err := client.InvalidateRecipeTotals(ctx, &rpc.InvalidateRecipeTotalsRequest{OrderNumber: "PO-1"})
	if err != nil || !inv.Success {
		t.Errorf("Expected invalidation to succeed, got %v (%v)", inv, err)
	}
}

func TestConsumptionHandler_GetGroups(t *testing.T) {
	client := newTestClient(t, &stubSource{})

	resp, err := client.GetGroups(context.Background(), &rpc.GetGroupsRequest{OrderNumber: "PO-1", Filter: "unconsumed"})
	if err != nil {
		t.Fatalf("GetGroups failed: %v", err)
	}
	if len(resp.Groups) != 0 {
		t.Errorf("Expected SUGAR to be excluded from unconsumed, got %d groups", len(resp.Groups))
	}
}
