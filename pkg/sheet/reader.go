// Package sheet turns uploaded spreadsheets into validated dashboard rows.
// Parsing is pure: nothing here touches storage.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet is returned when the selected sheet has no header row.
var ErrEmptySheet = errors.New("sheet is empty")

// Row is one data row with its 1-based line number in the sheet.
type Row struct {
	Line  int
	Cells []string
}

// Table is the header plus non-blank data rows of one sheet.
type Table struct {
	Sheet    string
	Header   []string
	Rows     []Row
	Date1904 bool
}

// Format is the container type of an upload.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from the file extension, falling back to
// the zip signature every xlsx file starts with.
func DetectFormat(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return FormatXLSX
	}
	return FormatCSV
}

// Read loads one sheet of an upload. For workbooks the first sheet whose
// name matches one of preferred (case-insensitive) is used, otherwise the
// first sheet. CSV input has a single unnamed sheet.
func Read(filename string, data []byte, preferred ...string) (*Table, error) {
	var (
		records [][]string
		table   = &Table{}
		err     error
	)
	switch DetectFormat(filename, data) {
	case FormatCSV:
		records, err = readCSV(data)
	default:
		records, err = readXLSX(data, table, preferred)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	table.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		table.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		table.Rows = append(table.Rows, Row{Line: i + 2, Cells: rec})
	}
	return table, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func readXLSX(data []byte, table *Table, preferred []string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	table.Sheet = sheets[0]
	for _, want := range preferred {
		if name, ok := findSheet(sheets, want); ok {
			table.Sheet = name
			break
		}
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		table.Date1904 = *props.Date1904
	}
	rows, err := f.GetRows(table.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", table.Sheet, err)
	}
	return rows, nil
}

func findSheet(sheets []string, want string) (string, bool) {
	want = strings.TrimSpace(want)
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return name, true
		}
	}
	return "", false
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Column describes one expected header.
type Column struct {
	Name     string
	Aliases  []string
	Required bool
}

// Index maps column names to header positions.
type Index map[string]int

// Resolve matches columns against the header ignoring case, surrounding
// whitespace and '_' versus ' '. It returns "Missing column: <name>" for
// every required column that is absent.
func (t *Table) Resolve(columns []Column) (Index, []string) {
	byKey := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := headerKey(h)
		if _, dup := byKey[key]; !dup {
			byKey[key] = i
		}
	}
	idx := make(Index, len(columns))
	var errs []string
	for _, col := range columns {
		found := false
		for _, name := range append([]string{col.Name}, col.Aliases...) {
			if pos, ok := byKey[headerKey(name)]; ok {
				idx[col.Name] = pos
				found = true
				break
			}
		}
		if !found && col.Required {
			errs = append(errs, "Missing column: "+col.Name)
		}
	}
	return idx, errs
}

// Has reports whether the column was found.
func (idx Index) Has(name string) bool {
	_, ok := idx[name]
	return ok
}

// Value returns the trimmed cell for the named column, or "" when either
// the column or the cell is absent.
func (idx Index) Value(row Row, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[pos])
}

func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}
