package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mes-dashboard/internal/consumption"
	"mes-dashboard/internal/database/models"
)

// consumptionRowsSQL returns real consumption events followed by one
// placeholder per recipe ingredient and batch that has no event yet.
const consumptionRowsSQL = `
SELECT mc.id, mc.batch_code, mc.ingredient_code, mc.lot, mc.quantity, mc.unit_of_measurement,
       mc.datetime, mc.operator_name, mc.equipment_code, mc.result, 0 AS placeholder
FROM material_consumptions mc
WHERE mc.production_order_number = @order
UNION ALL
SELECT NULL, b.batch_number, ri.ingredient_code, NULL, NULL, ri.unit_of_measurement,
       NULL, NULL, NULL, NULL, 1 AS placeholder
FROM production_orders po
JOIN recipe_ingredients ri
  ON ri.recipe_code = po.recipe_code AND ri.recipe_version = po.recipe_version
LEFT JOIN batches b
  ON b.production_order_number = po.production_order_number
WHERE po.production_order_number = @order
  AND NOT EXISTS (
    SELECT 1 FROM material_consumptions mc2
    WHERE mc2.production_order_number = po.production_order_number
      AND mc2.ingredient_code = ri.ingredient_code
      AND mc2.batch_code IS NOT DISTINCT FROM b.batch_number
  )
GROUP BY b.batch_number, ri.ingredient_code, ri.unit_of_measurement
ORDER BY placeholder, datetime NULLS LAST, id NULLS LAST, ingredient_code`

type consumptionRow struct {
	ID                *int64
	BatchCode         *string
	IngredientCode    string `validate:"required,max=255"`
	Lot               *string
	Quantity          decimal.NullDecimal
	UnitOfMeasurement *string
	Datetime          *time.Time
	OperatorName      *string
	EquipmentCode     *string
	Result            *string
}

type batchRow struct {
	BatchNumber       string `validate:"required,max=100"`
	Quantity          decimal.Decimal
	UnitOfMeasurement string
}

type recipeTotalRow struct {
	IngredientCode string `validate:"required,max=255"`
	Total          decimal.NullDecimal
	Unit           string
}

// Store reads consumption data for the reconciler from the MES database.
type Store struct {
	db       *gorm.DB
	validate *validator.Validate
	log      *logrus.Entry
}

func New(db *gorm.DB, logger *logrus.Logger) *Store {
	return &Store{
		db:       db,
		validate: validator.New(),
		log:      logger.WithField("module", "consumption-store"),
	}
}

func (s *Store) FetchOrderHeader(ctx context.Context, orderNumber string) (consumption.ProductionOrderHeader, error) {
	var order models.ProductionOrder
	err := s.db.WithContext(ctx).
		Select("production_order_number", "product_quantity", "unit_of_measurement").
		Where("production_order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return consumption.ProductionOrderHeader{}, fmt.Errorf("production order %s: %w", orderNumber, consumption.ErrNotFound)
		}
		return consumption.ProductionOrderHeader{}, err
	}

	return consumption.ProductionOrderHeader{
		ProductionOrderNumber: order.ProductionOrderNumber,
		ProductQuantity:       order.ProductQuantity,
		UnitOfMeasurement:     order.UnitOfMeasurement,
	}, nil
}

func (s *Store) FetchBatches(ctx context.Context, orderNumber string) ([]consumption.BatchRecord, error) {
	var rows []batchRow
	err := s.db.WithContext(ctx).
		Model(&models.Batch{}).
		Select("batch_number", "quantity", "unit_of_measurement").
		Where("production_order_number = ?", orderNumber).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	batches := make([]consumption.BatchRecord, 0, len(rows))
	for _, row := range rows {
		if !s.valid(row, orderNumber, "batch") {
			continue
		}
		batches = append(batches, toBatchRecord(row))
	}
	return batches, nil
}

// FetchObservedBatches lists the distinct batch codes seen in consumption
// events, the null batch included. Observed batches carry no quantity.
func (s *Store) FetchObservedBatches(ctx context.Context, orderNumber string) ([]consumption.BatchRecord, error) {
	var codes []*string
	err := s.db.WithContext(ctx).
		Model(&models.MaterialConsumption{}).
		Where("production_order_number = ?", orderNumber).
		Distinct("batch_code").
		Order("batch_code").
		Pluck("batch_code", &codes).Error
	if err != nil {
		return nil, err
	}

	batches := make([]consumption.BatchRecord, 0, len(codes))
	for _, code := range codes {
		batches = append(batches, consumption.BatchRecord{BatchNumber: code})
	}
	return batches, nil
}

// FetchRecipeIngredientTotals sums each ingredient over every step of the
// order's recipe.
func (s *Store) FetchRecipeIngredientTotals(ctx context.Context, orderNumber string) (consumption.RecipeTotals, error) {
	var rows []recipeTotalRow
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("ri.ingredient_code, SUM(ri.quantity) AS total, MAX(ri.unit_of_measurement) AS unit").
		Joins("JOIN production_orders po ON po.recipe_code = ri.recipe_code AND po.recipe_version = ri.recipe_version").
		Where("po.production_order_number = ?", orderNumber).
		Group("ri.ingredient_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(consumption.RecipeTotals, len(rows))
	for _, row := range rows {
		if !s.valid(row, orderNumber, "recipe ingredient") {
			continue
		}
		totals[row.IngredientCode] = toRecipeTotal(row)
	}
	return totals, nil
}

func (s *Store) FetchConsumptionRows(ctx context.Context, orderNumber string) ([]consumption.ConsumptionRecord, error) {
	var rows []consumptionRow
	if err := consumptionRowsQuery(s.db.WithContext(ctx), orderNumber).Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]consumption.ConsumptionRecord, 0, len(rows))
	for _, row := range rows {
		if !s.valid(row, orderNumber, "consumption") {
			continue
		}
		records = append(records, toConsumptionRecord(row))
	}
	return records, nil
}

func consumptionRowsQuery(db *gorm.DB, orderNumber string) *gorm.DB {
	return db.Raw(consumptionRowsSQL, sql.Named("order", orderNumber))
}

// valid logs and rejects malformed rows so one bad row does not hide the
// rest of the order.
func (s *Store) valid(row any, orderNumber, kind string) bool {
	if err := s.validate.Struct(row); err != nil {
		s.log.WithFields(logrus.Fields{
			"order": orderNumber,
			"kind":  kind,
		}).WithError(err).Warn("skipping malformed row")
		return false
	}
	return true
}

func toBatchRecord(row batchRow) consumption.BatchRecord {
	number := row.BatchNumber
	return consumption.BatchRecord{
		BatchNumber:       &number,
		Quantity:          row.Quantity,
		UnitOfMeasurement: row.UnitOfMeasurement,
	}
}

func toRecipeTotal(row recipeTotalRow) consumption.RecipeIngredientTotal {
	total := decimal.Zero
	if row.Total.Valid {
		total = row.Total.Decimal
	}
	return consumption.RecipeIngredientTotal{
		IngredientCode: row.IngredientCode,
		Total:          total,
		Unit:           row.Unit,
	}
}

func toConsumptionRecord(row consumptionRow) consumption.ConsumptionRecord {
	quantity := decimal.Zero
	if row.Quantity.Valid {
		quantity = row.Quantity.Decimal
	}
	return consumption.ConsumptionRecord{
		ID:                row.ID,
		BatchCode:         row.BatchCode,
		IngredientCode:    row.IngredientCode,
		Lot:               deref(row.Lot),
		Quantity:          quantity,
		UnitOfMeasurement: deref(row.UnitOfMeasurement),
		Datetime:          row.Datetime,
		OperatorName:      deref(row.OperatorName),
		EquipmentCode:     deref(row.EquipmentCode),
		Result:            deref(row.Result),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
