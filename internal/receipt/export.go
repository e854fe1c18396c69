package receipt

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

const exportSheet = "Receipts"

// WriteWorkbook writes receipts to w as an xlsx workbook with one header row
// and one row per receipt
func WriteWorkbook(w io.Writer, receipts []*Receipt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, 0, len(extraction.Fields)+3)
	header = append(header, "id", "object_key")
	for _, field := range extraction.Fields {
		header = append(header, string(field))
	}
	header = append(header, "created_at")

	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range receipts {
		row := make([]interface{}, 0, len(header))
		row = append(row, r.ID, r.ObjectKey)
		for _, field := range extraction.Fields {
			value := ""
			if r.Record != nil {
				value = r.Record.Get(field)
			}
			row = append(row, value)
		}
		row = append(row, r.CreatedAt.UTC().Format(time.RFC3339))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locating row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "B", 40)
	_ = f.SetColWidth(exportSheet, "C", "K", 22)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
