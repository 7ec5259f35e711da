package handler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mes-dashboard/internal/consumption"
	"mes-dashboard/internal/rpc"
)

// --- Handler ---

type ConsumptionHandler struct {
	reconciler *consumption.Reconciler
	log        *logrus.Entry
}

func NewConsumptionHandler(reconciler *consumption.Reconciler, logger *logrus.Logger) *ConsumptionHandler {
	return &ConsumptionHandler{
		reconciler: reconciler,
		log:        logger.WithField("module", "consumption-handler"),
	}
}

var _ rpc.ConsumptionServiceServer = (*ConsumptionHandler)(nil)

func (h *ConsumptionHandler) GetPage(ctx context.Context, req *rpc.GetPageRequest) (*rpc.GetPageResponse, error) {
	mode, err := consumption.ParseFilterMode(req.Filter)
	if err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	result, err := h.reconciler.GetPage(ctx, consumption.PageQuery{
		OrderNumber: req.OrderNumber,
		Page:        int(req.Page),
		PageSize:    int(req.PageSize),
		Mode:        mode,
		BatchFacet:  req.Batch,
	})
	if err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	return &rpc.GetPageResponse{Result: result}, nil
}

func (h *ConsumptionHandler) GetGroups(ctx context.Context, req *rpc.GetGroupsRequest) (*rpc.GetGroupsResponse, error) {
	mode, err := consumption.ParseFilterMode(req.Filter)
	if err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	groups, err := h.reconciler.GetGroups(ctx, req.OrderNumber, mode, req.Batch)
	if err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	return &rpc.GetGroupsResponse{Groups: groups}, nil
}

func (h *ConsumptionHandler) GetBatchFacets(ctx context.Context, req *rpc.GetBatchFacetsRequest) (*rpc.GetBatchFacetsResponse, error) {
	batches, err := h.reconciler.GetBatchFacets(ctx, req.OrderNumber)
	if err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	return &rpc.GetBatchFacetsResponse{Batches: batches}, nil
}

func (h *ConsumptionHandler) GetPlannedQuantity(ctx context.Context, req *rpc.GetPlannedQuantityRequest) (*rpc.GetPlannedQuantityResponse, error) {
	planned, err := h.reconciler.GetPlannedQuantity(ctx, consumption.PlannedQuery{
		OrderNumber:    req.OrderNumber,
		IngredientCode: req.IngredientCode,
		BatchCode:      req.BatchCode,
		NullBatch:      req.NullBatch,
	})
	if err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	return &rpc.GetPlannedQuantityResponse{Planned: planned}, nil
}

func (h *ConsumptionHandler) InvalidateRecipeTotals(ctx context.Context, req *rpc.InvalidateRecipeTotalsRequest) (*rpc.InvalidateRecipeTotalsResponse, error) {
	if err := h.reconciler.InvalidateRecipeTotals(ctx, req.OrderNumber); err != nil {
		return nil, h.toStatus(err, req.OrderNumber)
	}

	return &rpc.InvalidateRecipeTotalsResponse{Success: true}, nil
}

// toStatus maps engine errors onto gRPC codes.
func (h *ConsumptionHandler) toStatus(err error, orderNumber string) error {
	var validationErr *consumption.ValidationError
	var dependencyErr *consumption.DependencyError

	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, validationErr.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &dependencyErr):
		if errors.Is(err, consumption.ErrNotFound) {
			return status.Errorf(codes.NotFound, "Production order %s not found", orderNumber)
		}
		h.log.WithField("order", orderNumber).WithError(err).Error("upstream fetch failed")
		return status.Errorf(codes.Unavailable, "Failed to load %s data", dependencyErr.Source)
	default:
		h.log.WithField("order", orderNumber).WithError(err).Error("unexpected error")
		return status.Errorf(codes.Internal, "Internal error: %v", err)
	}
}

// LoggingInterceptor logs one line per unary call.
func LoggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		if err != nil {
			entry.Warn("grpc call failed")
		} else {
			entry.Info("grpc call")
		}
		return resp, err
	}
}
