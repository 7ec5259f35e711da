package store

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strp(s string) *string {
	return &s
}

func TestToConsumptionRecord(t *testing.T) {
	id := int64(42)
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	row := consumptionRow{
		ID:             &id,
		BatchCode:      strp("B1"),
		IngredientCode: "SUGAR - Refined",
		Lot:            strp("L-1"),
		Quantity:       decimal.NewNullDecimal(decimal.RequireFromString("3.5")),
		Datetime:       &ts,
		OperatorName:   strp("ana"),
		EquipmentCode:  strp("MIXER-2"),
		Result:         strp("success"),
	}

	rec := toConsumptionRecord(row)

	if rec.ID == nil || *rec.ID != 42 {
		t.Errorf("Expected id 42, got %v", rec.ID)
	}
	if rec.Lot != "L-1" || rec.OperatorName != "ana" || rec.EquipmentCode != "MIXER-2" || rec.Result != "success" {
		t.Errorf("Unexpected metadata %+v", rec)
	}
	if !rec.Quantity.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("Expected quantity 3.5, got %s", rec.Quantity)
	}
	if rec.UnitOfMeasurement != "" {
		t.Errorf("Expected empty unit, got %q", rec.UnitOfMeasurement)
	}
}

func TestToConsumptionRecord_Placeholder(t *testing.T) {
	rec := toConsumptionRecord(consumptionRow{IngredientCode: "SALT", UnitOfMeasurement: strp("kg")})

	if rec.ID != nil || rec.BatchCode != nil {
		t.Errorf("Expected nil id and batch, got %v and %v", rec.ID, rec.BatchCode)
	}
	if !rec.Quantity.IsZero() {
		t.Errorf("Expected missing quantity to read as 0, got %s", rec.Quantity)
	}
	if rec.UnitOfMeasurement != "kg" {
		t.Errorf("Expected unit kg, got %q", rec.UnitOfMeasurement)
	}
}

func TestToRecipeTotal_NullSum(t *testing.T) {
	total := toRecipeTotal(recipeTotalRow{IngredientCode: "SALT"})
	if !total.Total.IsZero() {
		t.Errorf("Expected 0 for a null sum, got %s", total.Total)
	}
}

func TestToBatchRecord(t *testing.T) {
	rec := toBatchRecord(batchRow{BatchNumber: "B1", Quantity: decimal.NewFromInt(25), UnitOfMeasurement: "kg"})
	if rec.BatchNumber == nil || *rec.BatchNumber != "B1" {
		t.Errorf("Expected batch B1, got %v", rec.BatchNumber)
	}
}

func TestStore_ValidRejectsMalformedRows(t *testing.T) {
	s := New(nil, quietLogger())

	if !s.valid(consumptionRow{IngredientCode: "SUGAR"}, "PO-1", "consumption") {
		t.Error("Expected row with an ingredient code to be valid")
	}
	if s.valid(consumptionRow{}, "PO-1", "consumption") {
		t.Error("Expected row without ingredient code to be rejected")
	}
	if s.valid(batchRow{}, "PO-1", "batch") {
		t.Error("Expected batch without number to be rejected")
	}
	if s.valid(recipeTotalRow{IngredientCode: string(make([]byte, 300))}, "PO-1", "recipe ingredient") {
		t.Error("Expected overlong ingredient code to be rejected")
	}
}
