package excel

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Table is the read-only view the writers serialize.
type Table interface {
	Columns() []string
	Records() [][]string
}

// RecordTable adapts raw header-plus-rows records to Table.
type RecordTable struct {
	records [][]string
}

// NewRecordTable wraps records; the first row is the header.
func NewRecordTable(records [][]string) RecordTable {
	return RecordTable{records: records}
}

func (t RecordTable) Columns() []string {
	if len(t.records) == 0 {
		return nil
	}
	return t.records[0]
}

func (t RecordTable) Records() [][]string {
	if len(t.records) < 2 {
		return nil
	}
	return t.records[1:]
}

// DefaultSheet is the worksheet name used for XLSX exports.
const DefaultSheet = "Sheet1"

// WriteCSV serializes the table as UTF-8 CSV with a header row and no index
// column. Missing cells are written empty.
func WriteCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(table.Records()); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// WriteXLSX serializes the table into a single-sheet workbook.
func WriteXLSX(w io.Writer, table Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetRow(f, 1, table.Columns()); err != nil {
		return err
	}
	for i, record := range table.Records() {
		if err := writeSheetRow(f, i+2, record); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(DefaultSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
