package consumption

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is the display form of an unavailable allocation.
const NotAvailable = "N/A"

var (
	one       = decimal.NewFromInt(1)
	nullBytes = []byte("null")
)

// Allocation is a planned quantity, or the absence of one when there is not
// enough data to compute it. The zero value is unavailable.
type Allocation struct {
	value decimal.Decimal
	ok    bool
}

func Allocated(v decimal.Decimal) Allocation {
	return Allocation{value: v, ok: true}
}

func Unavailable() Allocation {
	return Allocation{}
}

func (a Allocation) Value() (decimal.Decimal, bool) {
	return a.value, a.ok
}

func (a Allocation) Available() bool {
	return a.ok
}

// String renders the allocation with two decimals, or "N/A".
func (a Allocation) String() string {
	if !a.ok {
		return NotAvailable
	}
	return a.value.StringFixed(2)
}

func (a Allocation) MarshalJSON() ([]byte, error) {
	if !a.ok {
		return nullBytes, nil
	}
	return a.value.MarshalJSON()
}

func (a *Allocation) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), nullBytes) {
		*a = Unavailable()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = Allocated(v)
	return nil
}

// Allocate computes the planned quantity of one ingredient for one batch:
// recipeTotal / orderQuantity * batchQuantity, rounded to two decimals.
// A zero recipe total or batch quantity yields Unavailable. A zero order
// quantity is treated as 1.
func Allocate(recipeTotal, orderQuantity, batchQuantity decimal.Decimal) Allocation {
	if recipeTotal.IsZero() || batchQuantity.IsZero() {
		return Unavailable()
	}
	if orderQuantity.IsZero() {
		orderQuantity = one
	}
	planned := recipeTotal.Div(orderQuantity).Mul(batchQuantity).Round(2)
	return Allocated(planned)
}

// SumAllocations adds the available allocations. It is unavailable only
// when none of the inputs is available.
func SumAllocations(allocs ...Allocation) Allocation {
	total := decimal.Zero
	found := false
	for _, a := range allocs {
		if v, ok := a.Value(); ok {
			total = total.Add(v)
			found = true
		}
	}
	if !found {
		return Unavailable()
	}
	return Allocated(total)
}

// IngredientKey strips the descriptive suffix that follows the first
// separator in an ingredient code.
func IngredientKey(code, separator string) string {
	if separator != "" {
		if head, _, found := strings.Cut(code, separator); found {
			code = head
		}
	}
	return strings.TrimSpace(code)
}

// BatchIndex resolves batch quantities from a merged batch list.
type BatchIndex struct {
	quantities map[string]decimal.Decimal
	order      []string
	null       *BatchRecord
}

func NewBatchIndex(batches []BatchRecord) BatchIndex {
	idx := BatchIndex{quantities: make(map[string]decimal.Decimal, len(batches))}
	for i := range batches {
		b := batches[i]
		if b.BatchNumber == nil {
			if idx.null == nil {
				idx.null = &b
			}
			continue
		}
		if _, exists := idx.quantities[*b.BatchNumber]; exists {
			continue
		}
		idx.quantities[*b.BatchNumber] = b.Quantity
		idx.order = append(idx.order, *b.BatchNumber)
	}
	return idx
}

// Quantity returns the batch quantity, or zero for an unknown batch.
func (idx BatchIndex) Quantity(batchCode *string) decimal.Decimal {
	if batchCode == nil {
		if idx.null == nil {
			return decimal.Zero
		}
		return idx.null.Quantity
	}
	return idx.quantities[*batchCode]
}

// AllocationContext carries everything needed to plan quantities for one
// production order.
type AllocationContext struct {
	OrderQuantity decimal.Decimal
	Totals        RecipeTotals
	Batches       BatchIndex
	Separator     string
}

func (c AllocationContext) recipeTotal(ingredientCode string) decimal.Decimal {
	total, ok := c.Totals[IngredientKey(ingredientCode, c.Separator)]
	if !ok {
		return decimal.Zero
	}
	return total.Total
}

// PlanBatch allocates an ingredient to a single batch.
func (c AllocationContext) PlanBatch(ingredientCode string, batchCode *string) Allocation {
	return Allocate(c.recipeTotal(ingredientCode), c.OrderQuantity, c.Batches.Quantity(batchCode))
}

// PlanItem allocates the ingredient of one record to that record's batch.
func (c AllocationContext) PlanItem(rec ConsumptionRecord) Allocation {
	return c.PlanBatch(rec.IngredientCode, rec.BatchCode)
}

// PlanGroup sums the allocation over each distinct batch referenced by the
// group's items.
func (c AllocationContext) PlanGroup(g ConsumptionGroup) Allocation {
	seen := make(map[string]struct{}, len(g.Items))
	allocs := make([]Allocation, 0, len(g.Items))
	for _, item := range g.Items {
		key := optionalString(item.BatchCode)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		allocs = append(allocs, c.PlanBatch(g.IngredientCode, item.BatchCode))
	}
	return SumAllocations(allocs...)
}

// PlanOrder sums the allocation of an ingredient over every batch of the
// order, the unattributed batch included.
func (c AllocationContext) PlanOrder(ingredientCode string) Allocation {
	allocs := make([]Allocation, 0, len(c.Batches.order)+1)
	for i := range c.Batches.order {
		allocs = append(allocs, c.PlanBatch(ingredientCode, &c.Batches.order[i]))
	}
	if c.Batches.null != nil {
		allocs = append(allocs, c.PlanBatch(ingredientCode, nil))
	}
	return SumAllocations(allocs...)
}
