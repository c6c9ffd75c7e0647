package app

import (
	"bytes"
	"fmt"
	"strings"

	"alliancedash/pkg/domain"
	"alliancedash/pkg/sheet"
)

// Summary returns the headline tiles for the filtered records.
func (a *App) Summary(session domain.Session, filter domain.PerformanceFilter) (domain.Summary, error) {
	if err := requireSession(session); err != nil {
		return domain.Summary{}, err
	}
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return domain.Summary{}, err
	}
	return a.store.SummarizePerformance(filter)
}

// ParseDimension accepts alliance, bu, geo and month.
func ParseDimension(raw string) (domain.Dimension, error) {
	switch d := domain.Dimension(strings.ToLower(strings.TrimSpace(raw))); d {
	case domain.DimensionAlliance, domain.DimensionBU, domain.DimensionGeo, domain.DimensionMonth:
		return d, nil
	default:
		return "", ErrUnsupportedDimension
	}
}

// Breakdown counts certifications per dimension value. Months come back in
// calendar order, other dimensions largest first.
func (a *App) Breakdown(session domain.Session, dim domain.Dimension, filter domain.PerformanceFilter) ([]domain.Count, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if _, err := ParseDimension(string(dim)); err != nil {
		return nil, err
	}
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return a.store.CountPerformanceBy(dim, filter)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportPerformance renders the filtered records as csv or xlsx.
func (a *App) ExportPerformance(session domain.Session, filter domain.PerformanceFilter, format string) (ExportFile, error) {
	records, err := a.ListPerformance(session, filter)
	if err != nil {
		return ExportFile{}, err
	}
	return a.render("performance_data", sheet.PerformanceGrid(records), format)
}

// ExportBreakdown renders a breakdown as csv or xlsx.
func (a *App) ExportBreakdown(session domain.Session, dim domain.Dimension, filter domain.PerformanceFilter, format string) (ExportFile, error) {
	counts, err := a.Breakdown(session, dim, filter)
	if err != nil {
		return ExportFile{}, err
	}
	return a.render("breakdown_"+string(dim), sheet.CountGrid(string(dim), counts), format)
}

func (a *App) render(base string, grid sheet.Grid, format string) (ExportFile, error) {
	var buf bytes.Buffer
	stamp := a.now().Format("20060102_150405")
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		if err := sheet.WriteCSV(&buf, grid); err != nil {
			return ExportFile{}, fmt.Errorf("render csv: %w", err)
		}
		return ExportFile{Name: fmt.Sprintf("%s_%s.csv", base, stamp), ContentType: contentTypeCSV, Data: buf.Bytes()}, nil
	case "xlsx":
		if err := sheet.WriteXLSX(&buf, grid); err != nil {
			return ExportFile{}, fmt.Errorf("render xlsx: %w", err)
		}
		return ExportFile{Name: fmt.Sprintf("%s_%s.xlsx", base, stamp), ContentType: contentTypeXLSX, Data: buf.Bytes()}, nil
	default:
		return ExportFile{}, ErrUnsupportedFormat
	}
}
