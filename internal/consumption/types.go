package consumption

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FilterMode selects which ingredient groups are returned.
type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterConsumed   FilterMode = "consumed"
	FilterUnconsumed FilterMode = "unconsumed"
)

// NullBatchFacet selects rows that carry no batch code.
const NullBatchFacet = "null"

// DefaultIngredientSeparator splits an ingredient code from its display name,
// e.g. "SUGAR - Refined white sugar".
const DefaultIngredientSeparator = " - "

// ProductionOrderHeader is loaded once per request.
type ProductionOrderHeader struct {
	ProductionOrderNumber string          `json:"production_order_number"`
	ProductQuantity       decimal.Decimal `json:"product_quantity"`
	UnitOfMeasurement     string          `json:"unit_of_measurement,omitempty"`
}

// BatchRecord is one batch of a production order. A nil BatchNumber stands
// for consumption that is not attributable to any batch.
type BatchRecord struct {
	BatchNumber       *string         `json:"batch_number"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitOfMeasurement string          `json:"unit_of_measurement,omitempty"`
}

// RecipeIngredientTotal is the full-order requirement for one ingredient,
// summed across all recipe steps.
type RecipeIngredientTotal struct {
	IngredientCode string          `json:"ingredient_code"`
	Total          decimal.Decimal `json:"total"`
	Unit           string          `json:"unit,omitempty"`
}

// RecipeTotals is keyed by ingredient code with the descriptive suffix removed.
type RecipeTotals map[string]RecipeIngredientTotal

// ConsumptionRecord is one raw consumption event. A nil ID marks a
// placeholder row for an ingredient that has not been consumed yet.
type ConsumptionRecord struct {
	ID                *int64          `json:"id"`
	BatchCode         *string         `json:"batch_code"`
	IngredientCode    string          `json:"ingredient_code"`
	Lot               string          `json:"lot,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitOfMeasurement string          `json:"unit_of_measurement,omitempty"`
	Datetime          *time.Time      `json:"datetime,omitempty"`
	OperatorName      string          `json:"operator_name,omitempty"`
	EquipmentCode     string          `json:"equipment_code,omitempty"`
	Result            string          `json:"result,omitempty"`
}

// identityKey covers every field of the record. Two records are duplicates
// only when all of them match.
func (r ConsumptionRecord) identityKey() string {
	parts := []string{
		optionalInt(r.ID),
		optionalString(r.BatchCode),
		r.IngredientCode,
		r.Lot,
		r.Quantity.String(),
		r.UnitOfMeasurement,
		optionalTime(r.Datetime),
		r.OperatorName,
		r.EquipmentCode,
		r.Result,
	}
	return strings.Join(parts, "\x1f")
}

// ConsumptionGroup aggregates all records that share an ingredient code.
// Items and IDs are parallel; IDs keeps nil entries for placeholder rows.
type ConsumptionGroup struct {
	IngredientCode    string              `json:"ingredient_code"`
	Lot               string              `json:"lot,omitempty"`
	UnitOfMeasurement string              `json:"unit_of_measurement,omitempty"`
	TotalQuantity     decimal.Decimal     `json:"total_quantity"`
	Items             []ConsumptionRecord `json:"items"`
	IDs               []*int64            `json:"ids"`
	LatestDatetime    *time.Time          `json:"latest_datetime,omitempty"`
	Status            string              `json:"status,omitempty"`

	// Filled in by the reconciler for returned groups only.
	Planned     Allocation   `json:"planned"`
	ItemPlanned []Allocation `json:"item_planned,omitempty"`
}

// PageQuery describes one request for a page of ingredient groups.
type PageQuery struct {
	OrderNumber string     `json:"order_number"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	Mode        FilterMode `json:"mode"`
	BatchFacet  string     `json:"batch_facet,omitempty"`
}

// FacetCounts holds the number of groups under each filter mode for the
// selected batch facet.
type FacetCounts struct {
	All        int `json:"all"`
	Consumed   int `json:"consumed"`
	Unconsumed int `json:"unconsumed"`
}

// PageResult is one page of grouped, filtered consumption.
type PageResult struct {
	Items      []ConsumptionGroup `json:"items"`
	TotalCount int                `json:"total_count"`
	TotalPages int                `json:"total_pages"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Counts     FacetCounts        `json:"counts"`
}

// PlannedQuery asks for the planned quantity of one ingredient. A nil
// BatchCode sums the allocation over every batch of the order unless
// NullBatch is set, which selects the unattributed batch.
type PlannedQuery struct {
	OrderNumber    string  `json:"order_number"`
	IngredientCode string  `json:"ingredient_code"`
	BatchCode      *string `json:"batch_code,omitempty"`
	NullBatch      bool    `json:"null_batch,omitempty"`
}

func optionalInt(v *int64) string {
	if v == nil {
		return "<nil>"
	}
	return strconv.FormatInt(*v, 10)
}

func optionalString(v *string) string {
	if v == nil {
		return "<nil>"
	}
	return "=" + *v
}

func optionalTime(v *time.Time) string {
	if v == nil {
		return "<nil>"
	}
	return v.UTC().Format(time.RFC3339Nano)
}
