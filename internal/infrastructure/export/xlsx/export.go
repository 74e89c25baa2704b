// Package xlsx writes stored haikus to an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

const sheet = "Haikus"

var columns = []struct {
	title string
	width float64
}{
	{"ID", 8},
	{"Word", 18},
	{"Language", 10},
	{"Haiku", 48},
	{"Image", 10},
	{"Created At", 22},
}

// Write renders items as one row each under a bold header row. Image bytes
// are not embedded; the Image column only says whether one was stored.
func Write(w io.Writer, items []domain.StoredArtifact) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("create wrap style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col.title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, item := range items {
		row := r + 2
		values := []any{
			item.ID,
			item.InputWord,
			string(item.Language),
			item.HaikuText,
			imageLabel(item.ImageData),
			item.CreatedAt.UTC().Format(time.RFC3339),
		}
		for c, value := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
		haikuCell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(sheet, haikuCell, haikuCell, wrap); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func imageLabel(data string) string {
	if data == "" {
		return "no"
	}
	return "yes"
}
