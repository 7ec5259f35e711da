package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductionOrder struct {
	ID                    int64           `gorm:"primaryKey;autoIncrement"`
	ProductionOrderNumber string          `gorm:"size:100;uniqueIndex;not null"`
	ProductCode           string          `gorm:"size:100;index"`
	RecipeCode            string          `gorm:"size:100;index:idx_po_recipe"`
	RecipeVersion         string          `gorm:"size:50;index:idx_po_recipe"`
	ProductQuantity       decimal.Decimal `gorm:"type:numeric(18,4)"`
	UnitOfMeasurement     string          `gorm:"size:50"`
	Status                string          `gorm:"size:50"`
	PlannedStart          *time.Time
	PlannedEnd            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Batches []Batch `gorm:"foreignKey:ProductionOrderNumber;references:ProductionOrderNumber"`
}

type Batch struct {
	ID                    int64           `gorm:"primaryKey;autoIncrement"`
	ProductionOrderNumber string          `gorm:"size:100;index;not null"`
	BatchNumber           string          `gorm:"size:100;index;not null"`
	Quantity              decimal.Decimal `gorm:"type:numeric(18,4)"`
	UnitOfMeasurement     string          `gorm:"size:50"`
	Status                string          `gorm:"size:50"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RecipeIngredient is one ingredient line of one recipe step.
type RecipeIngredient struct {
	ID                int64           `gorm:"primaryKey;autoIncrement"`
	RecipeCode        string          `gorm:"size:100;index:idx_recipe_version;not null"`
	RecipeVersion     string          `gorm:"size:50;index:idx_recipe_version"`
	StepNumber        int32           `gorm:"not null"`
	IngredientCode    string          `gorm:"size:255;not null"`
	Quantity          decimal.Decimal `gorm:"type:numeric(18,4)"`
	UnitOfMeasurement string          `gorm:"size:50"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MaterialConsumption is written by the shop-floor integration and is
// read-only for the dashboard.
type MaterialConsumption struct {
	ID                    int64               `gorm:"primaryKey;autoIncrement"`
	ProductionOrderNumber string              `gorm:"size:100;index;not null"`
	BatchCode             *string             `gorm:"size:100;index"`
	IngredientCode        string              `gorm:"size:255;not null"`
	Lot                   *string             `gorm:"size:100"`
	Quantity              decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	UnitOfMeasurement     *string             `gorm:"size:50"`
	Datetime              *time.Time          `gorm:"index"`
	OperatorName          *string             `gorm:"size:100"`
	EquipmentCode         *string             `gorm:"size:100"`
	Result                *string             `gorm:"size:50"`
	CreatedAt             time.Time
}
