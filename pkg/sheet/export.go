package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"alliancedash/pkg/domain"
)

// Grid is a tabular result ready for export.
type Grid struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// PerformanceGrid renders records with headers the upload parser accepts,
// so an export can be uploaded again unchanged.
func PerformanceGrid(records []domain.PerformanceRecord) Grid {
	g := Grid{
		Sheet: "Performance",
		Header: []string{
			ColAssociateID, ColAssociateName, ColActivityCode, ColAllianceType,
			"BU", ColGeo, "Activity Name", ColCompletionDate, ColFeedback,
		},
	}
	for _, r := range records {
		g.Rows = append(g.Rows, []string{
			r.AssociateID, r.AssociateName, r.ActivityCode, r.AllianceType,
			r.BusinessUnit, r.Geo, r.CertificationName, r.CompletionDate, r.Feedback,
		})
	}
	return g
}

// CountGrid renders a breakdown.
func CountGrid(label string, counts []domain.Count) Grid {
	g := Grid{Sheet: label, Header: []string{label, "Certifications"}}
	for _, c := range counts {
		g.Rows = append(g.Rows, []string{c.Label, strconv.FormatInt(c.Total, 10)})
	}
	return g
}

// WriteCSV writes the header followed by every row.
func WriteCSV(w io.Writer, g Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(g.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(g.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook.
func WriteXLSX(w io.Writer, g Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := g.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}
	rows := append([][]string{g.Header}, g.Rows...)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
