package report

import (
	"context"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"decaylab/domain/result"
	"decaylab/internal/errors"
)

// ExcelRenderer exports the comparison matrix as a workbook with the same
// color scale the terminal table uses, as cell fills.
type ExcelRenderer struct {
	path string
}

// NewExcelRenderer writes the workbook to the given path on Render.
func NewExcelRenderer(path string) *ExcelRenderer {
	return &ExcelRenderer{path: path}
}

// Render implements ports.ReportRendererPort.
func (r *ExcelRenderer) Render(ctx context.Context, summary result.Summary) error {
	f := excelize.NewFile()
	const sheet = "Comparison"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return errors.Wrap(err, "creating comparison sheet")
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SetCellValue(sheet, "A1", "Method"); err != nil {
		return errors.Wrap(err, "writing workbook header")
	}
	for j, p := range summary.Params {
		cell, _ := excelize.CoordinatesToCellName(j+2, 1)
		if err := f.SetCellValue(sheet, cell, "z("+string(p)+")"); err != nil {
			return errors.Wrap(err, "writing workbook header")
		}
	}

	for i, m := range summary.Methods {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, string(m)); err != nil {
			return errors.Wrap(err, "writing method label")
		}

		for j, p := range summary.Params {
			min, max, _ := summary.ColumnRange(p)
			best, _ := summary.BestPerParam(p)
			z := summary.ZScore[m][p]

			cell, _ := excelize.CoordinatesToCellName(j+2, row)
			if math.IsNaN(z) {
				if err := f.SetCellValue(sheet, cell, "n/a"); err != nil {
					return errors.Wrap(err, "writing z-score cell")
				}
			} else {
				if err := f.SetCellValue(sheet, cell, z); err != nil {
					return errors.Wrap(err, "writing z-score cell")
				}
			}

			styleID, err := f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{
					Type:    "pattern",
					Pattern: 1,
					Color:   []string{ScaleColor(math.Abs(z), min, max)},
				},
				Font: &excelize.Font{Bold: m == best},
			})
			if err != nil {
				return errors.Wrap(err, "building cell style")
			}
			if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
				return errors.Wrap(err, "applying cell style")
			}
		}
	}

	if err := f.SaveAs(r.path); err != nil {
		return errors.IOError(fmt.Sprintf("saving workbook %s", r.path), err)
	}
	return nil
}
