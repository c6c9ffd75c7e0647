package sheet

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"upload.csv", nil, FormatCSV},
		{"upload.XLSX", nil, FormatXLSX},
		{"upload", []byte("PK\x03\x04rest"), FormatXLSX},
		{"upload", []byte("a,b\n1,2\n"), FormatCSV},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.name, tc.data); got != tc.want {
			t.Fatalf("DetectFormat(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestReadCSVTrimsHeadersAndSkipsBlankRows(t *testing.T) {
	data := []byte("\ufeff Associate ID ,Geo\nA1,NA\n,\nA2,India\n")
	table, err := Read("upload.csv", data)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if table.Header[0] != "Associate ID" || table.Header[1] != "Geo" {
		t.Fatalf("unexpected header: %q", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Line != 2 || table.Rows[1].Line != 4 {
		t.Fatalf("line numbers not preserved: %d, %d", table.Rows[0].Line, table.Rows[1].Line)
	}
}

func TestReadEmptyInput(t *testing.T) {
	if _, err := Read("upload.csv", nil); err != ErrEmptySheet {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
}

func TestReadWorkbookPrefersNamedSheet(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Summary": {{"Ignored"}, {"x"}},
		"Global":  {{"Metric", "Total"}, {"Certifications", 12}},
	}, "Summary", "Global")

	table, err := Read("book.xlsx", data, "global")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if table.Sheet != "Global" {
		t.Fatalf("expected Global sheet, got %q", table.Sheet)
	}
	if len(table.Rows) != 1 || table.Rows[0].Cells[1] != "12" {
		t.Fatalf("unexpected rows: %+v", table.Rows)
	}

	first, err := Read("book.xlsx", data, "Missing")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Sheet != "Summary" {
		t.Fatalf("expected fallback to first sheet, got %q", first.Sheet)
	}
}

func TestResolveMatchesLooselyAndReportsMissing(t *testing.T) {
	table := &Table{Header: []string{"associate_id", "  BU  ", "Completion   Date"}}
	idx, errs := table.Resolve([]Column{
		{Name: "Associate ID", Required: true},
		{Name: "Business Unit", Aliases: []string{"BU"}, Required: true},
		{Name: "Completion Date", Required: true},
		{Name: "Geo", Required: true},
		{Name: "Feedback"},
	})
	if idx["Associate ID"] != 0 || idx["Business Unit"] != 1 || idx["Completion Date"] != 2 {
		t.Fatalf("unexpected index: %v", idx)
	}
	if len(errs) != 1 || errs[0] != "Missing column: Geo" {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if idx.Has("Feedback") {
		t.Fatalf("optional column should be absent")
	}
	if got := idx.Value(Row{Cells: []string{"A1"}}, "Completion Date"); got != "" {
		t.Fatalf("short row should yield empty value, got %q", got)
	}
}
