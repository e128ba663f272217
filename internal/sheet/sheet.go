// Package sheet reads xlsx workbooks into tabular previews.
package sheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Workbook is an ordered list of sheet previews.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// Sheet is one tab of a workbook. The first source row becomes Columns;
// every entry of Rows has exactly len(Columns) cells.
type Sheet struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Read parses an xlsx stream. Sheet order matches the workbook.
func Read(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, FromRows(name, rows))
	}
	return wb, nil
}

// FromRows builds a sheet preview from raw rows, header first. Rows with
// no non-empty cell are dropped before the header is picked.
func FromRows(name string, rows [][]string) Sheet {
	s := Sheet{Name: name, Columns: []string{}, Rows: [][]string{}}
	rows = dropBlank(rows)
	if len(rows) == 0 {
		return s
	}

	// GetRows trims trailing empty cells, so the widest row decides the width.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	s.Columns = headerNames(rows[0], width)

	for _, row := range rows[1:] {
		cells := make([]string, width)
		copy(cells, row)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

func dropBlank(rows [][]string) [][]string {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if cell != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

// Lookup returns the sheet with the given name.
func (w *Workbook) Lookup(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// headerNames names blank header cells "Unnamed: <i>" and suffixes
// repeated names with ".1", ".2", ...
func headerNames(header []string, width int) []string {
	cols := make([]string, width)
	seen := make(map[string]int, width)
	for i := range cols {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] > 0 {
			base := name
			for n := seen[base]; ; n++ {
				candidate := base + "." + strconv.Itoa(n)
				if seen[candidate] == 0 {
					name = candidate
					seen[base] = n + 1
					break
				}
			}
		}
		seen[name]++
		cols[i] = name
	}
	return cols
}
