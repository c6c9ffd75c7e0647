package sheet

import (
	"fmt"
	"math"

	"alliancedash/pkg/domain"
)

// GlobalSheet is the workbook sheet holding the headline metrics.
const GlobalSheet = "Global"

// GlobalGeos are the value columns of the Global sheet. Each becomes one
// stored metric row keyed by geo.
var GlobalGeos = []string{"Total", "India", "NA", "GGM"}

// MetricSheet is the parsed content of a metric upload.
type MetricSheet[T any] struct {
	Rows   []T
	Errors []string
}

type numberParser struct {
	idx    Index
	errors []string
}

// float records an error for a bad cell. Absent columns were already
// reported by Resolve.
func (p *numberParser) float(row Row, col string) float64 {
	if !p.idx.Has(col) {
		return 0
	}
	v, ok := CleanNumber(p.idx.Value(row, col))
	if !ok {
		p.errors = append(p.errors, fmt.Sprintf("Row %d: Invalid number in '%s'", row.Line, col))
	}
	return v
}

func (p *numberParser) integer(row Row, col string) int {
	return int(math.Round(p.float(row, col)))
}

// ParseGlobalMetrics reads the Global sheet (or the first sheet) and
// flattens each metric row into one entry per geo column.
func ParseGlobalMetrics(filename string, data []byte) (MetricSheet[domain.GlobalMetric], error) {
	t, err := Read(filename, data, GlobalSheet)
	if err != nil {
		return MetricSheet[domain.GlobalMetric]{}, err
	}
	columns := []Column{{Name: "Metric", Aliases: []string{"Metric Name", "Metrics"}}}
	for _, geo := range GlobalGeos {
		columns = append(columns, Column{Name: geo, Required: true})
	}
	idx, errs := t.Resolve(columns)
	if !idx.Has("Metric") && len(t.Header) > 0 {
		idx["Metric"] = 0
	}
	p := &numberParser{idx: idx, errors: errs}
	var out []domain.GlobalMetric
	for _, row := range t.Rows {
		name := idx.Value(row, "Metric")
		for _, geo := range GlobalGeos {
			if !idx.Has(geo) {
				continue
			}
			out = append(out, domain.GlobalMetric{MetricName: name, Geo: geo, Value: p.float(row, geo)})
		}
	}
	return MetricSheet[domain.GlobalMetric]{Rows: out, Errors: p.errors}, nil
}

// ParseBUMetrics reads business unit targets. A missing or blank
// achievement column is derived from completed/target.
func ParseBUMetrics(filename string, data []byte) (MetricSheet[domain.BUMetric], error) {
	t, err := Read(filename, data, "BU", "Business Unit", "BU Metrics")
	if err != nil {
		return MetricSheet[domain.BUMetric]{}, err
	}
	idx, errs := t.Resolve([]Column{
		{Name: ColBusinessUnit, Aliases: []string{"BU"}, Required: true},
		{Name: "Target", Required: true},
		{Name: "Completed", Required: true},
		{Name: "Achievement %", Aliases: []string{"Achievement Percent", "Achievement", "% Achievement"}},
	})
	p := &numberParser{idx: idx, errors: errs}
	var out []domain.BUMetric
	for _, row := range t.Rows {
		m := domain.BUMetric{
			BusinessUnit: idx.Value(row, ColBusinessUnit),
			Target:       p.integer(row, "Target"),
			Completed:    p.integer(row, "Completed"),
		}
		if idx.Value(row, "Achievement %") != "" {
			m.AchievementPercent = p.float(row, "Achievement %")
		} else {
			m.AchievementPercent = AchievementPercent(m.Target, m.Completed)
		}
		out = append(out, m)
	}
	return MetricSheet[domain.BUMetric]{Rows: out, Errors: p.errors}, nil
}

// AchievementPercent is completed/target as a percentage rounded to two
// decimals, or 0 when there is no target.
func AchievementPercent(target, completed int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(target)*10000) / 100
}

// ParseAllianceMetrics reads partner targets per business unit.
func ParseAllianceMetrics(filename string, data []byte) (MetricSheet[domain.AllianceMetric], error) {
	t, err := Read(filename, data, "Alliance", "Alliances", "Alliance Metrics")
	if err != nil {
		return MetricSheet[domain.AllianceMetric]{}, err
	}
	idx, errs := t.Resolve([]Column{
		{Name: "Partner Name", Aliases: []string{"Partner", "Alliance", "Alliance Type"}, Required: true},
		{Name: ColBusinessUnit, Aliases: []string{"BU"}, Required: true},
		{Name: "Target", Required: true},
		{Name: "Completed", Required: true},
	})
	p := &numberParser{idx: idx, errors: errs}
	var out []domain.AllianceMetric
	for _, row := range t.Rows {
		out = append(out, domain.AllianceMetric{
			PartnerName:  idx.Value(row, "Partner Name"),
			BusinessUnit: idx.Value(row, ColBusinessUnit),
			Target:       p.integer(row, "Target"),
			Completed:    p.integer(row, "Completed"),
		})
	}
	return MetricSheet[domain.AllianceMetric]{Rows: out, Errors: p.errors}, nil
}

// ParseCostSavings reads savings per partner. A missing or blank total is
// the sum of the two saving columns.
func ParseCostSavings(filename string, data []byte) (MetricSheet[domain.CostSaving], error) {
	t, err := Read(filename, data, "Cost Savings", "Cost Saving", "Savings")
	if err != nil {
		return MetricSheet[domain.CostSaving]{}, err
	}
	idx, errs := t.Resolve([]Column{
		{Name: "Partner Name", Aliases: []string{"Partner", "Alliance"}, Required: true},
		{Name: "Enablement Saving", Aliases: []string{"Enablement Savings", "Enablement"}, Required: true},
		{Name: "Certification Saving", Aliases: []string{"Certification Savings", "Certification"}, Required: true},
		{Name: "Total", Aliases: []string{"Total Saving", "Total Savings"}},
	})
	p := &numberParser{idx: idx, errors: errs}
	var out []domain.CostSaving
	for _, row := range t.Rows {
		c := domain.CostSaving{
			PartnerName:         idx.Value(row, "Partner Name"),
			EnablementSaving:    p.float(row, "Enablement Saving"),
			CertificationSaving: p.float(row, "Certification Saving"),
		}
		if idx.Value(row, "Total") != "" {
			c.Total = p.float(row, "Total")
		} else {
			c.Total = c.EnablementSaving + c.CertificationSaving
		}
		out = append(out, c)
	}
	return MetricSheet[domain.CostSaving]{Rows: out, Errors: p.errors}, nil
}
