package app

import (
	"fmt"
	"strings"

	"alliancedash/pkg/domain"
	"alliancedash/pkg/sheet"
)

// NormalizeFilter trims the filter and converts from/to to ISO dates.
func NormalizeFilter(f domain.PerformanceFilter) (domain.PerformanceFilter, error) {
	f.AllianceType = strings.TrimSpace(f.AllianceType)
	f.BusinessUnit = strings.TrimSpace(f.BusinessUnit)
	f.Geo = strings.TrimSpace(f.Geo)
	var errs []string
	for _, bound := range []struct {
		name string
		val  *string
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(*bound.val)
		if raw == "" {
			*bound.val = ""
			continue
		}
		date, ok := sheet.NormalizeDate(raw, false)
		if !ok {
			errs = append(errs, fmt.Sprintf("invalid date in '%s'", bound.name))
			continue
		}
		*bound.val = date
	}
	if len(errs) > 0 {
		return f, &ValidationError{Message: "Invalid filter", Errors: errs}
	}
	return f, nil
}

// ListPerformance returns records in upload order.
func (a *App) ListPerformance(session domain.Session, filter domain.PerformanceFilter) ([]domain.PerformanceRecord, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return a.store.ListPerformance(filter)
}

// checkRecord trims a record and normalizes its completion date.
func checkRecord(rec domain.PerformanceRecord) (domain.PerformanceRecord, error) {
	rec.AssociateID = strings.TrimSpace(rec.AssociateID)
	rec.AssociateName = strings.TrimSpace(rec.AssociateName)
	rec.AllianceType = strings.TrimSpace(rec.AllianceType)
	rec.BusinessUnit = strings.TrimSpace(rec.BusinessUnit)
	rec.Geo = strings.TrimSpace(rec.Geo)
	rec.CertificationName = strings.TrimSpace(rec.CertificationName)
	rec.Feedback = strings.TrimSpace(rec.Feedback)
	rec.ActivityCode = strings.TrimSpace(rec.ActivityCode)

	var errs []string
	for _, name := range sheet.MissingFields(rec) {
		errs = append(errs, fmt.Sprintf("'%s' is required", name))
	}
	if rec.CompletionDate != "" {
		date, ok := sheet.NormalizeDate(rec.CompletionDate, false)
		if !ok {
			errs = append(errs, fmt.Sprintf("invalid date in '%s'", sheet.ColCompletionDate))
		}
		rec.CompletionDate = date
	}
	if len(errs) > 0 {
		return rec, &ValidationError{Message: "Invalid record", Errors: errs}
	}
	return rec, nil
}

// AddPerformanceRecord inserts one record.
func (a *App) AddPerformanceRecord(session domain.Session, rec domain.PerformanceRecord) (domain.PerformanceRecord, string, error) {
	if err := requireAdmin(session); err != nil {
		return domain.PerformanceRecord{}, "", err
	}
	rec, err := checkRecord(rec)
	if err != nil {
		return domain.PerformanceRecord{}, "", err
	}
	rec.ID = 0
	saved, err := a.store.AddPerformanceRecord(rec)
	if err != nil {
		return domain.PerformanceRecord{}, "", err
	}
	return saved, "Record added successfully.", nil
}

// UpdatePerformanceRecord replaces every field of the record with id.
func (a *App) UpdatePerformanceRecord(session domain.Session, id uint, rec domain.PerformanceRecord) (string, error) {
	if err := requireAdmin(session); err != nil {
		return "", err
	}
	rec, err := checkRecord(rec)
	if err != nil {
		return "", err
	}
	rec.ID = id
	if err := a.store.UpdatePerformanceRecord(rec); err != nil {
		return "", err
	}
	return "Record updated successfully.", nil
}

// DeletePerformanceRecord removes the record with id.
func (a *App) DeletePerformanceRecord(session domain.Session, id uint) (string, error) {
	if err := requireAdmin(session); err != nil {
		return "", err
	}
	if err := a.store.DeletePerformanceRecord(id); err != nil {
		return "", err
	}
	return "Record deleted successfully.", nil
}

// DeleteAllPerformance empties performance_data.
func (a *App) DeleteAllPerformance(session domain.Session) (int64, string, error) {
	if err := requireAdmin(session); err != nil {
		return 0, "", err
	}
	n, err := a.store.DeleteAllPerformance()
	if err != nil {
		return 0, "", err
	}
	return n, "All performance records deleted.", nil
}

// ListMetrics returns the current snapshot of a metric table.
func (a *App) ListMetrics(session domain.Session, table domain.Table) (any, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	switch table {
	case domain.TableGlobal:
		return a.store.ListGlobalMetrics()
	case domain.TableBU:
		return a.store.ListBUMetrics()
	case domain.TableAlliance:
		return a.store.ListAllianceMetrics()
	case domain.TableCostSavings:
		return a.store.ListCostSavings()
	default:
		return nil, ErrUnsupportedTable
	}
}
