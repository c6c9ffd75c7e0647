package sheet

import (
	"bytes"
	"testing"

	"alliancedash/pkg/domain"
)

func sampleRecords() []domain.PerformanceRecord {
	return []domain.PerformanceRecord{
		{AssociateID: "A1", AssociateName: "Jane Doe", AllianceType: "Tech", BusinessUnit: "Sales", Geo: "NA", CertificationName: "Cert X", CompletionDate: "2025-05-01", ActivityCode: "ACT-1"},
		{AssociateID: "A2", AssociateName: "Roe, John", AllianceType: "Cloud", BusinessUnit: "Ops", Geo: "India", CertificationName: "Cert Y", CompletionDate: "2025-05-02", Feedback: "fine"},
	}
}

func TestExportCSVCanBeUploadedAgain(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, PerformanceGrid(sampleRecords())); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	got, err := ParsePerformance("export.csv", buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", got.Errors)
	}
	want := sampleRecords()
	for i := range want {
		if got.Records[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, got.Records[i], want[i])
		}
	}
}

func TestExportXLSXCanBeUploadedAgain(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, PerformanceGrid(sampleRecords())); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	table, err := Read("export.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if table.Sheet != "Performance" {
		t.Fatalf("unexpected sheet %q", table.Sheet)
	}
	got := ParsePerformanceTable(table)
	if len(got.Errors) != 0 || len(got.Records) != 2 {
		t.Fatalf("unexpected parse: %+v", got)
	}
	if got.Records[1].AssociateName != "Roe, John" || got.Records[1].Feedback != "fine" {
		t.Fatalf("unexpected record: %+v", got.Records[1])
	}
}

func TestCountGrid(t *testing.T) {
	g := CountGrid("geo", []domain.Count{{Label: "NA", Total: 3}})
	if len(g.Rows) != 1 || g.Rows[0][0] != "NA" || g.Rows[0][1] != "3" {
		t.Fatalf("unexpected grid: %+v", g)
	}
}
