package handlers

import (
	"regexp"
	"time"

	"github.com/xuri/excelize/v2"

	"mes-dashboard/internal/consumption"
)

const (
	exportSheet     = "Consumption"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeadings = []string{"Ingredient", "Lot", "Unit", "Total", "Planned", "Latest", "Status"}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func exportFilename(order string) string {
	return "consumption-" + unsafeFilenameChars.ReplaceAllString(order, "_") + ".xlsx"
}

// buildConsumptionWorkbook writes one row per group under a heading row.
// Totals go in as numbers; planned stays a string so "N/A" survives.
func buildConsumptionWorkbook(groups []consumption.ConsumptionGroup) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	for col, heading := range exportHeadings {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, heading); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, g := range groups {
		total, _ := g.TotalQuantity.Float64()

		latest := ""
		if g.LatestDatetime != nil {
			latest = g.LatestDatetime.Format(time.DateTime)
		}

		values := []interface{}{
			g.IngredientCode,
			g.Lot,
			g.UnitOfMeasurement,
			total,
			g.Planned.String(),
			latest,
			g.Status,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	return f, nil
}
