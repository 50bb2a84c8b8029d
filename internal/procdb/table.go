package procdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is returned when a table lacks a required column
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyTable is returned when a table has no header or no data rows
	ErrEmptyTable = errors.New("reference table is empty")
)

// Table is reference data as a header plus rows of cells, the shape every
// reference-data source produces.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Row is one reference row with its fields already picked out by column.
type Row struct {
	EffectiveDate string
	Name          string
	FullCode      string
	ServedGroup   string
	Transition    string
	RoutePoints   string
}

// cleanCell strips quotes and surrounding whitespace
func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// RowsFromTable maps table onto rows using schema. Header cells are matched
// after stripping quotes, trimming and uppercasing. The full code, served
// group and route points columns are required; the rest are optional. A
// table without data rows is rejected with ErrEmptyTable.
func RowsFromTable(table Table, schema Schema) ([]Row, error) {
	if len(table.Columns) == 0 {
		return nil, ErrEmptyTable
	}

	index := make(map[string]int, len(table.Columns))
	for i, col := range table.Columns {
		name := strings.ToUpper(cleanCell(col))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	column := func(name string, required bool) (int, error) {
		if i, ok := index[name]; ok && name != "" {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		return -1, nil
	}

	var errs []error
	idxFullCode, err := column(schema.FullCode, true)
	errs = append(errs, err)
	idxGroup, err := column(schema.ServedGroup, true)
	errs = append(errs, err)
	idxPoints, err := column(schema.RoutePoints, true)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	idxDate, _ := column(schema.EffectiveDate, false)
	idxName, _ := column(schema.Name, false)
	idxTransition, _ := column(schema.Transition, false)

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return cleanCell(row[i])
	}

	rows := make([]Row, 0, len(table.Rows))
	for _, r := range table.Rows {
		if len(r) == 0 {
			continue
		}
		rows = append(rows, Row{
			EffectiveDate: cell(r, idxDate),
			Name:          cell(r, idxName),
			FullCode:      cell(r, idxFullCode),
			ServedGroup:   cell(r, idxGroup),
			Transition:    cell(r, idxTransition),
			RoutePoints:   cell(r, idxPoints),
		})
	}

	// A header alone is most likely a file caught mid-write
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return rows, nil
}
