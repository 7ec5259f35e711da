package consumption

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGroup_InsertionOrderAndTotals(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	records := []ConsumptionRecord{
		{ID: idp(1), BatchCode: strp("B1"), IngredientCode: "SUGAR", Lot: "L-1", Quantity: d("3"), UnitOfMeasurement: "kg", Datetime: &t1, Result: "success"},
		{ID: idp(2), BatchCode: strp("B1"), IngredientCode: "FLOUR", Lot: "L-9", Quantity: d("10"), Datetime: &t1},
		{ID: idp(3), BatchCode: strp("B1"), IngredientCode: "SUGAR", Lot: "L-2", Quantity: d("4"), Datetime: &t2, Result: "failure"},
		{ID: nil, BatchCode: strp("B1"), IngredientCode: "SUGAR", Quantity: decimal.Zero},
	}

	groups := Group(records)

	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if groups[0].IngredientCode != "SUGAR" || groups[1].IngredientCode != "FLOUR" {
		t.Errorf("Expected first-seen order SUGAR, FLOUR, got %s, %s", groups[0].IngredientCode, groups[1].IngredientCode)
	}

	sugar := groups[0]
	if !sugar.TotalQuantity.Equal(d("7")) {
		t.Errorf("Expected total 7, got %s", sugar.TotalQuantity)
	}
	if len(sugar.Items) != 3 || len(sugar.IDs) != 3 {
		t.Fatalf("Expected 3 items and ids, got %d and %d", len(sugar.Items), len(sugar.IDs))
	}
	if *sugar.IDs[0] != 1 || *sugar.IDs[1] != 3 || sugar.IDs[2] != nil {
		t.Errorf("Expected ids [1 3 nil], got %v", sugar.IDs)
	}
	if sugar.Lot != "L-1" {
		t.Errorf("Expected representative lot L-1, got %s", sugar.Lot)
	}
	if sugar.UnitOfMeasurement != "kg" {
		t.Errorf("Expected unit kg, got %s", sugar.UnitOfMeasurement)
	}
	if sugar.LatestDatetime == nil || !sugar.LatestDatetime.Equal(t2) {
		t.Errorf("Expected latest datetime %v, got %v", t2, sugar.LatestDatetime)
	}
	if sugar.Status != "success" {
		t.Errorf("Expected representative status success, got %s", sugar.Status)
	}
}

func TestGroup_DuplicateSuppression(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	base := ConsumptionRecord{ID: idp(1), BatchCode: strp("B1"), IngredientCode: "SUGAR", Lot: "L-1", Quantity: d("3"), Datetime: &ts}

	sameBody := base
	sameBody.BatchCode = strp("B1")
	sameBody.Quantity = d("3.000")
	sameTime := ts
	sameBody.Datetime = &sameTime

	differentQty := base
	differentQty.Quantity = d("5")

	groups := Group([]ConsumptionRecord{base, sameBody, differentQty})

	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if len(g.Items) != 2 {
		t.Errorf("Expected 2 items after dropping the duplicate, got %d", len(g.Items))
	}
	if !g.TotalQuantity.Equal(d("8")) {
		t.Errorf("Expected total 8, got %s", g.TotalQuantity)
	}
}

func TestGroup_DuplicateOfFirstMemberDoesNotAddQuantity(t *testing.T) {
	rec := ConsumptionRecord{ID: idp(1), IngredientCode: "SALT", Quantity: d("2")}
	groups := Group([]ConsumptionRecord{rec, rec, rec})

	if len(groups[0].Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(groups[0].Items))
	}
	if !groups[0].TotalQuantity.Equal(d("2")) {
		t.Errorf("Expected total 2, got %s", groups[0].TotalQuantity)
	}
}

func TestGroup_CodesAreNotNormalized(t *testing.T) {
	groups := Group([]ConsumptionRecord{
		{ID: idp(1), IngredientCode: "SUGAR", Quantity: d("1")},
		{ID: idp(2), IngredientCode: "SUGAR - Refined", Quantity: d("1")},
		{ID: idp(3), IngredientCode: "sugar", Quantity: d("1")},
	})
	if len(groups) != 3 {
		t.Errorf("Expected 3 groups, got %d", len(groups))
	}
}

func TestGroup_ParallelItemsAndIDs(t *testing.T) {
	var records []ConsumptionRecord
	codes := []string{"A", "B", "C", "A", "B", "A"}
	for i, code := range codes {
		var id *int64
		if i%2 == 0 {
			id = idp(int64(i))
		}
		records = append(records, ConsumptionRecord{ID: id, IngredientCode: code, Quantity: d("1"), Lot: code})
	}

	groups := Group(records)

	distinct := map[string]bool{}
	for _, c := range codes {
		distinct[c] = true
	}
	if len(groups) != len(distinct) {
		t.Errorf("Expected %d groups, got %d", len(distinct), len(groups))
	}
	for _, g := range groups {
		if len(g.Items) != len(g.IDs) {
			t.Errorf("Group %s: %d items but %d ids", g.IngredientCode, len(g.Items), len(g.IDs))
		}
		for i := range g.Items {
			if g.Items[i].ID != g.IDs[i] {
				t.Errorf("Group %s: id %d out of step with its item", g.IngredientCode, i)
			}
		}
	}
}

func TestGroup_Empty(t *testing.T) {
	if groups := Group(nil); len(groups) != 0 {
		t.Errorf("Expected no groups, got %d", len(groups))
	}
}

func TestFilterByBatch(t *testing.T) {
	rows := []ConsumptionRecord{
		{ID: idp(1), BatchCode: strp("B1"), IngredientCode: "A"},
		{ID: idp(2), BatchCode: strp("B2"), IngredientCode: "A"},
		{ID: idp(3), BatchCode: nil, IngredientCode: "A"},
	}

	if got := FilterByBatch(rows, ""); len(got) != 3 {
		t.Errorf("Expected empty facet to keep 3 rows, got %d", len(got))
	}
	if got := FilterByBatch(rows, "B2"); len(got) != 1 || *got[0].ID != 2 {
		t.Errorf("Expected only row 2 for facet B2, got %v", got)
	}
	if got := FilterByBatch(rows, NullBatchFacet); len(got) != 1 || *got[0].ID != 3 {
		t.Errorf("Expected only row 3 for null facet, got %v", got)
	}
	if got := FilterByBatch(rows, "B9"); len(got) != 0 {
		t.Errorf("Expected no rows for unknown facet, got %d", len(got))
	}
}
