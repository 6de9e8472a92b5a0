// Package export renders the live preview of a price form as a spreadsheet
// operators can keep next to the submitted record.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/aizah-price-admin/internal/model"
)

const sheetName = "Prices"

// PreviewWorkbook builds a one-sheet workbook: the room name on top, then one
// row per month with its buffer or the "Not set" placeholder.
func PreviewWorkbook(p model.Preview) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	rows := [][]any{
		{"Room Name", p.RoomName},
		{},
		{"Month", "Price"},
	}
	for _, m := range p.Months {
		rows = append(rows, []any{m.Label, m.Value})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", bold)
		_ = f.SetCellStyle(sheetName, "A3", "B3", bold)
	}
	_ = f.SetColWidth(sheetName, "A", "B", 18)
	return f, nil
}

// WritePreview streams the preview workbook to w.
func WritePreview(w io.Writer, p model.Preview) error {
	f, err := PreviewWorkbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}
