// Package dataset loads the HR attrition table and keeps it read-only for
// the lifetime of a process.
package dataset

import (
	"time"

	"hrattrition/domain/attrition"
	"hrattrition/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
)

// Dataset is an immutable, loaded attrition table. Every row carries an
// integer flag column consistent with its label.
type Dataset struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Schema   attrition.Schema

	frame dataframe.DataFrame
}

// IsEmpty is true for a nil dataset or one without rows.
func (d *Dataset) IsEmpty() bool {
	return d == nil || d.frame.Nrow() == 0
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.frame.Nrow()
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	return d.frame.Names()
}

// HasColumn reports whether name is a column.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.Columns() {
		if n == name {
			return true
		}
	}
	return false
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) (series.Series, error) {
	if !d.HasColumn(name) {
		return series.Series{}, errors.MissingColumn(name)
	}
	return d.frame.Col(name), nil
}

// Flags returns the attrition flag of every row as 0 or 1.
func (d *Dataset) Flags() []float64 {
	if d.IsEmpty() {
		return nil
	}
	return d.frame.Col(d.Schema.FlagColumn).Float()
}

// Records returns the data rows as strings; missing cells are empty.
func (d *Dataset) Records() [][]string {
	if d.IsEmpty() {
		return nil
	}

	names := d.frame.Names()
	rows := make([][]string, d.frame.Nrow())
	for i := range rows {
		rows[i] = make([]string, len(names))
	}
	for j, name := range names {
		col := d.frame.Col(name)
		for i := range rows {
			elem := col.Elem(i)
			if elem.IsNA() {
				continue
			}
			rows[i][j] = elem.String()
		}
	}
	return rows
}
