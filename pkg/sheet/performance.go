package sheet

import (
	"fmt"
	"strings"

	"alliancedash/pkg/domain"
)

const (
	ColAssociateID       = "Associate ID"
	ColAssociateName     = "Associate Name"
	ColAllianceType      = "Alliance Type"
	ColBusinessUnit      = "Business Unit"
	ColGeo               = "Geo"
	ColCertificationName = "Certification Name"
	ColCompletionDate    = "Completion Date"
	ColFeedback          = "Feedback"
	ColActivityCode      = "Activity Code"
)

// PerformanceColumns is the expected layout of a performance upload.
// Exports label the business unit "BU" and the certification "Activity Name".
var PerformanceColumns = []Column{
	{Name: ColAssociateID, Required: true},
	{Name: ColAssociateName, Required: true},
	{Name: ColAllianceType, Required: true},
	{Name: ColBusinessUnit, Aliases: []string{"BU"}, Required: true},
	{Name: ColGeo, Aliases: []string{"Geography", "Region"}, Required: true},
	{Name: ColCertificationName, Aliases: []string{"Activity Name", "Certification"}, Required: true},
	{Name: ColCompletionDate, Aliases: []string{"Date of Completion"}, Required: true},
	{Name: ColFeedback},
	{Name: ColActivityCode},
}

// PerformanceSheet is the parsed content of a performance upload.
type PerformanceSheet struct {
	Records []domain.PerformanceRecord
	// Lines holds the sheet row number of each record.
	Lines  []int
	Errors []string
}

// ParsePerformance reads a performance upload from the first sheet.
func ParsePerformance(filename string, data []byte) (PerformanceSheet, error) {
	t, err := Read(filename, data)
	if err != nil {
		return PerformanceSheet{}, err
	}
	return ParsePerformanceTable(t), nil
}

// ParsePerformanceTable validates headers and completion dates. Every
// problem is collected; a bad row is reported, never dropped silently.
func ParsePerformanceTable(t *Table) PerformanceSheet {
	idx, errs := t.Resolve(PerformanceColumns)
	out := PerformanceSheet{Errors: errs}
	checkDates := idx.Has(ColCompletionDate)
	for _, row := range t.Rows {
		rec := domain.PerformanceRecord{
			AssociateID:       idx.Value(row, ColAssociateID),
			AssociateName:     idx.Value(row, ColAssociateName),
			AllianceType:      idx.Value(row, ColAllianceType),
			BusinessUnit:      idx.Value(row, ColBusinessUnit),
			Geo:               idx.Value(row, ColGeo),
			CertificationName: idx.Value(row, ColCertificationName),
			Feedback:          idx.Value(row, ColFeedback),
			ActivityCode:      idx.Value(row, ColActivityCode),
		}
		if checkDates {
			date, ok := NormalizeDate(idx.Value(row, ColCompletionDate), t.Date1904)
			if !ok {
				out.Errors = append(out.Errors, fmt.Sprintf("Row %d: invalid date in '%s'", row.Line, ColCompletionDate))
			}
			rec.CompletionDate = date
		}
		out.Records = append(out.Records, rec)
		out.Lines = append(out.Lines, row.Line)
	}
	return out
}

// MissingFields lists the required record fields that are blank.
func MissingFields(rec domain.PerformanceRecord) []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check(ColAssociateID, rec.AssociateID)
	check(ColAssociateName, rec.AssociateName)
	check(ColAllianceType, rec.AllianceType)
	check(ColBusinessUnit, rec.BusinessUnit)
	check(ColGeo, rec.Geo)
	check(ColCertificationName, rec.CertificationName)
	check(ColCompletionDate, rec.CompletionDate)
	return missing
}
