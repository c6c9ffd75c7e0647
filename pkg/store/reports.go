package store

import (
	"fmt"

	"gorm.io/gorm"

	"alliancedash/pkg/domain"
)

func dimensionExpr(dim domain.Dimension) (string, error) {
	switch dim {
	case domain.DimensionAlliance:
		return "alliance_type", nil
	case domain.DimensionBU:
		return "business_unit", nil
	case domain.DimensionGeo:
		return "geo", nil
	case domain.DimensionMonth:
		return "substr(completion_date, 1, 7)", nil
	default:
		return "", fmt.Errorf("unknown dimension %q", dim)
	}
}

// CountPerformanceBy groups matching rows by dim.
// Months come back chronologically, other dimensions by descending count.
func (s *GormStore) CountPerformanceBy(dim domain.Dimension, filter domain.PerformanceFilter) ([]domain.Count, error) {
	expr, err := dimensionExpr(dim)
	if err != nil {
		return nil, err
	}
	order := "total DESC, label ASC"
	if dim == domain.DimensionMonth {
		order = "label ASC"
	}
	counts, err := s.groupCount(expr, filter, order, 0)
	if err != nil {
		return nil, s.fail("count performance by "+string(dim), err)
	}
	return counts, nil
}

// SummarizePerformance computes the headline tiles over matching rows.
func (s *GormStore) SummarizePerformance(filter domain.PerformanceFilter) (domain.Summary, error) {
	var out domain.Summary
	base := func() *gorm.DB {
		return applyFilter(s.db.Model(&PerformanceModel{}), filter)
	}
	if err := base().Count(&out.TotalCertifications).Error; err != nil {
		return out, s.fail("summary total", err)
	}
	if out.TotalCertifications == 0 {
		return out, nil
	}
	if err := base().Distinct("associate_id").Count(&out.UniqueAssociates).Error; err != nil {
		return out, s.fail("summary associates", err)
	}
	if err := base().Where("activity_code <> ''").Distinct("activity_code").Count(&out.UniqueActivities).Error; err != nil {
		return out, s.fail("summary activities", err)
	}
	if err := base().Distinct("alliance_type").Count(&out.UniqueAlliances).Error; err != nil {
		return out, s.fail("summary alliances", err)
	}

	best := []struct {
		expr   string
		label  *string
		amount *int64
	}{
		{expr: "alliance_type", label: &out.BestAlliance},
		{expr: "business_unit", label: &out.BestBusinessUnit},
		{expr: "geo", label: &out.BestGeo},
		{expr: "associate_name", label: &out.TopAssociate, amount: &out.TopAssociateCount},
	}
	for _, b := range best {
		top, err := s.groupCount(b.expr, filter, "total DESC, label ASC", 1)
		if err != nil {
			return out, s.fail("summary best "+b.expr, err)
		}
		if len(top) == 0 {
			continue
		}
		*b.label = top[0].Label
		if b.amount != nil {
			*b.amount = top[0].Total
		}
	}
	return out, nil
}

func (s *GormStore) groupCount(expr string, filter domain.PerformanceFilter, order string, limit int) ([]domain.Count, error) {
	var counts []domain.Count
	q := applyFilter(s.db.Model(&PerformanceModel{}), filter).
		Select(expr + " AS label, COUNT(*) AS total").
		Group(expr).
		Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
