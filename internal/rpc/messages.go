package rpc

import "mes-dashboard/internal/consumption"

type GetPageRequest struct {
	OrderNumber string `json:"order_number"`
	Page        int32  `json:"page"`
	PageSize    int32  `json:"page_size"`
	Filter      string `json:"filter,omitempty"`
	Batch       string `json:"batch,omitempty"`
}

type GetPageResponse struct {
	Result consumption.PageResult `json:"result"`
}

type GetGroupsRequest struct {
	OrderNumber string `json:"order_number"`
	Filter      string `json:"filter,omitempty"`
	Batch       string `json:"batch,omitempty"`
}

type GetGroupsResponse struct {
	Groups []consumption.ConsumptionGroup `json:"groups"`
}

type GetBatchFacetsRequest struct {
	OrderNumber string `json:"order_number"`
}

type GetBatchFacetsResponse struct {
	Batches []consumption.BatchRecord `json:"batches"`
}

type GetPlannedQuantityRequest struct {
	OrderNumber    string  `json:"order_number"`
	IngredientCode string  `json:"ingredient_code"`
	BatchCode      *string `json:"batch_code,omitempty"`
	NullBatch      bool    `json:"null_batch,omitempty"`
}

type GetPlannedQuantityResponse struct {
	Planned consumption.Allocation `json:"planned"`
}

type InvalidateRecipeTotalsRequest struct {
	OrderNumber string `json:"order_number"`
}

type InvalidateRecipeTotalsResponse struct {
	Success bool `json:"success"`
}
