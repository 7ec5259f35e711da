package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mes-dashboard/internal/consumption"
	"mes-dashboard/internal/rpc"
)

const (
	requestTimeout = 10 * time.Second
	exportTimeout  = 30 * time.Second
)

type ConsumptionHTTPHandler struct {
	consumptionClient rpc.ConsumptionServiceClient
	log               *logrus.Entry
}

func NewConsumptionHTTPHandler(consumptionClient rpc.ConsumptionServiceClient, logger *logrus.Logger) *ConsumptionHTTPHandler {
	return &ConsumptionHTTPHandler{
		consumptionClient: consumptionClient,
		log:               logger.WithField("module", "consumption-gateway"),
	}
}

// --- Query Structs for Binding ---

type ConsumptionPageQuery struct {
	Page     int32  `form:"page,default=1"`
	PageSize int32  `form:"page_size,default=20"`
	Filter   string `form:"filter"`
	Batch    string `form:"batch"`
}

type ConsumptionExportQuery struct {
	Filter string `form:"filter"`
	Batch  string `form:"batch"`
}

type PlannedQuantityQuery struct {
	Ingredient string `form:"ingredient" binding:"required"`
	Batch      string `form:"batch"`
}

// --- View Models ---

type ConsumptionItemView struct {
	ID                *int64     `json:"id"`
	BatchCode         *string    `json:"batch_code"`
	Lot               string     `json:"lot"`
	Quantity          string     `json:"quantity"`
	UnitOfMeasurement string     `json:"unit_of_measurement"`
	Datetime          *time.Time `json:"datetime"`
	OperatorName      string     `json:"operator_name"`
	EquipmentCode     string     `json:"equipment_code"`
	Result            string     `json:"result"`
	Planned           string     `json:"planned"`
}

type ConsumptionGroupView struct {
	IngredientCode    string                `json:"ingredient_code"`
	Lot               string                `json:"lot"`
	UnitOfMeasurement string                `json:"unit_of_measurement"`
	TotalQuantity     string                `json:"total_quantity"`
	IDs               []*int64              `json:"ids"`
	LatestDatetime    *time.Time            `json:"latest_datetime"`
	Status            string                `json:"status"`
	Planned           string                `json:"planned"`
	Items             []ConsumptionItemView `json:"items"`
}

type PaginationMeta struct {
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalCount int                     `json:"total_count"`
	TotalPages int                     `json:"total_pages"`
	Counts     consumption.FacetCounts `json:"counts"`
}

type BatchFacetView struct {
	BatchNumber       *string `json:"batch_number"`
	Facet             string  `json:"facet"`
	Label             string  `json:"label"`
	Quantity          string  `json:"quantity"`
	UnitOfMeasurement string  `json:"unit_of_measurement"`
}

type PlannedQuantityView struct {
	Available bool    `json:"available"`
	Value     *string `json:"value"`
	Display   string  `json:"display"`
}

func toGroupView(g consumption.ConsumptionGroup) ConsumptionGroupView {
	items := make([]ConsumptionItemView, len(g.Items))
	for i, rec := range g.Items {
		planned := consumption.NotAvailable
		if i < len(g.ItemPlanned) {
			planned = g.ItemPlanned[i].String()
		}
		items[i] = ConsumptionItemView{
			ID:                rec.ID,
			BatchCode:         rec.BatchCode,
			Lot:               rec.Lot,
			Quantity:          rec.Quantity.String(),
			UnitOfMeasurement: rec.UnitOfMeasurement,
			Datetime:          rec.Datetime,
			OperatorName:      rec.OperatorName,
			EquipmentCode:     rec.EquipmentCode,
			Result:            rec.Result,
			Planned:           planned,
		}
	}

	return ConsumptionGroupView{
		IngredientCode:    g.IngredientCode,
		Lot:               g.Lot,
		UnitOfMeasurement: g.UnitOfMeasurement,
		TotalQuantity:     g.TotalQuantity.String(),
		IDs:               g.IDs,
		LatestDatetime:    g.LatestDatetime,
		Status:            g.Status,
		Planned:           g.Planned.String(),
		Items:             items,
	}
}

func toBatchFacetView(b consumption.BatchRecord) BatchFacetView {
	view := BatchFacetView{
		BatchNumber:       b.BatchNumber,
		Facet:             consumption.NullBatchFacet,
		Label:             "No batch",
		Quantity:          b.Quantity.String(),
		UnitOfMeasurement: b.UnitOfMeasurement,
	}
	if b.BatchNumber != nil {
		view.Facet = *b.BatchNumber
		view.Label = *b.BatchNumber
	}
	return view
}

func toPlannedView(a consumption.Allocation) PlannedQuantityView {
	view := PlannedQuantityView{Available: a.Available(), Display: a.String()}
	if v, ok := a.Value(); ok {
		s := v.StringFixed(2)
		view.Value = &s
	}
	return view
}

// --- Consumption Handlers ---

func (h *ConsumptionHTTPHandler) GetConsumptionPage(c *gin.Context) {
	var query ConsumptionPageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters: "+err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.consumptionClient.GetPage(ctx, &rpc.GetPageRequest{
		OrderNumber: c.Param("order"),
		Page:        query.Page,
		PageSize:    query.PageSize,
		Filter:      query.Filter,
		Batch:       query.Batch,
	})
	if handleGRPCError(c, err) {
		return
	}

	result := resp.Result
	groups := make([]ConsumptionGroupView, len(result.Items))
	for i, g := range result.Items {
		groups[i] = toGroupView(g)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Consumption retrieved successfully", groups, PaginationMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		TotalPages: result.TotalPages,
		Counts:     result.Counts,
	}))
}

func (h *ConsumptionHTTPHandler) ListBatches(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.consumptionClient.GetBatchFacets(ctx, &rpc.GetBatchFacetsRequest{OrderNumber: c.Param("order")})
	if handleGRPCError(c, err) {
		return
	}

	batches := make([]BatchFacetView, len(resp.Batches))
	for i, b := range resp.Batches {
		batches[i] = toBatchFacetView(b)
	}

	c.JSON(http.StatusOK, successResponse("Batches retrieved successfully", batches))
}

func (h *ConsumptionHTTPHandler) GetPlannedQuantity(c *gin.Context) {
	var query PlannedQuantityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters: "+err.Error()))
		return
	}

	req := &rpc.GetPlannedQuantityRequest{
		OrderNumber:    c.Param("order"),
		IngredientCode: query.Ingredient,
	}
	switch batch := strings.TrimSpace(query.Batch); batch {
	case "":
	case consumption.NullBatchFacet:
		req.NullBatch = true
	default:
		req.BatchCode = &batch
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.consumptionClient.GetPlannedQuantity(ctx, req)
	if handleGRPCError(c, err) {
		return
	}

	c.JSON(http.StatusOK, successResponse("Planned quantity retrieved successfully", toPlannedView(resp.Planned)))
}

func (h *ConsumptionHTTPHandler) ExportConsumption(c *gin.Context) {
	var query ConsumptionExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters: "+err.Error()))
		return
	}

	order := c.Param("order")

	ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
	defer cancel()

	resp, err := h.consumptionClient.GetGroups(ctx, &rpc.GetGroupsRequest{
		OrderNumber: order,
		Filter:      query.Filter,
		Batch:       query.Batch,
	})
	if handleGRPCError(c, err) {
		return
	}

	f, err := buildConsumptionWorkbook(resp.Groups)
	if err != nil {
		h.log.WithField("order", order).WithError(err).Error("failed to build export")
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to build export"))
		return
	}
	defer f.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(order)))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.WithField("order", order).WithError(err).Error("failed to write export")
	}
}

func (h *ConsumptionHTTPHandler) InvalidateRecipeTotals(c *gin.Context) {
	order := c.Param("order")

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	_, err := h.consumptionClient.InvalidateRecipeTotals(ctx, &rpc.InvalidateRecipeTotalsRequest{OrderNumber: order})
	if handleGRPCError(c, err) {
		return
	}

	h.log.WithField("order", order).Info("recipe totals cache invalidated")
	c.JSON(http.StatusOK, successResponse("Recipe totals cache invalidated", nil))
}
