package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alliancedash/internal/metrics"
	"alliancedash/internal/util"
	"alliancedash/pkg/domain"
	"alliancedash/pkg/sheet"
)

// Upload is one raw spreadsheet submitted for a table.
type Upload struct {
	Table       domain.Table
	Filename    string
	ContentType string
	Data        []byte
	DryRun      bool
}

// batch is a parsed upload waiting to be committed.
type batch struct {
	parsed   int
	kept     int
	errors   []string
	commit   func() error
	doneNote string
}

var archiveNames = map[domain.Table]string{
	domain.TablePerformance: "performance",
	domain.TableGlobal:      "global",
	domain.TableBU:          "bu",
	domain.TableAlliance:    "alliance",
	domain.TableCostSavings: "cost_savings",
}

// Ingest runs an upload through validation, archiving and the transactional
// replace of the target table. A rejected upload returns a
// *ValidationError and touches neither the archive nor the table. A dry run
// stops after validation.
func (a *App) Ingest(ctx context.Context, session domain.Session, up Upload) (domain.IngestReport, error) {
	report := domain.IngestReport{RunID: uuid.NewString(), Table: up.Table, State: domain.IngestIdle, DryRun: up.DryRun}
	if err := requireAdmin(session); err != nil {
		return report, err
	}
	if _, ok := archiveNames[up.Table]; !ok {
		return report, ErrUnsupportedTable
	}
	if len(up.Data) == 0 {
		return report, ErrEmptyUpload
	}
	logger := util.LoggerFromContext(ctx).With("run_id", report.RunID, "table", string(up.Table), "file", up.Filename)

	report.State = domain.IngestValidating
	b, err := a.parseUpload(up)
	if err != nil {
		b = batch{errors: []string{uploadReadError(err)}}
	}
	report.RowsParsed = b.parsed
	report.RowsExcluded = b.parsed - b.kept
	if len(b.errors) > 0 {
		report.State = domain.IngestRejected
		report.Errors = b.errors
		report.Message = fmt.Sprintf("Upload rejected: %d problem(s) found.", len(b.errors))
		logger.Info("upload rejected", "errors", len(b.errors))
		a.observe(report)
		return report, &ValidationError{Message: report.Message, Errors: b.errors}
	}

	report.State = domain.IngestStaged
	if up.DryRun {
		report.Message = fmt.Sprintf("Validation passed: %d row(s) would be loaded, %d excluded.", b.kept, report.RowsExcluded)
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.ArchiveKey = a.archiveKey(up)
	if err := a.archive.Put(ctx, report.ArchiveKey, bytes.NewReader(up.Data), int64(len(up.Data)), up.ContentType); err != nil {
		report.State = domain.IngestFailed
		report.Message = ErrArchiveFailed.Error()
		logger.Error("archive upload failed", "key", report.ArchiveKey, "err", err)
		a.observe(report)
		return report, fmt.Errorf("%w: %v", ErrArchiveFailed, err)
	}

	report.State = domain.IngestCommitting
	if err := b.commit(); err != nil {
		report.State = domain.IngestFailed
		report.Message = ErrCommitFailed.Error()
		logger.Error("commit upload failed", "key", report.ArchiveKey, "err", err)
		a.observe(report)
		return report, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	report.State = domain.IngestDone
	report.RowsCommitted = b.kept
	report.Message = b.doneNote
	logger.Info("upload committed", "key", report.ArchiveKey, "rows", report.RowsCommitted, "excluded", report.RowsExcluded)
	a.observe(report)
	return report, nil
}

func (a *App) observe(r domain.IngestReport) {
	metrics.ObserveIngest(string(r.Table), string(r.State), r.RowsCommitted, r.RowsExcluded)
}

func uploadReadError(err error) string {
	if errors.Is(err, sheet.ErrEmptySheet) {
		return "The uploaded sheet is empty."
	}
	return "Could not read the uploaded file as a spreadsheet."
}

// archiveKey is <table>_backup_<YYYYmmdd_HHMMSS>_<shortid>.<ext>. The
// short id keeps two uploads in the same second apart.
func (a *App) archiveKey(up Upload) string {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext == "" {
		ext = "." + string(sheet.DetectFormat(up.Filename, up.Data))
	}
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_backup_%s_%s%s", archiveNames[up.Table], a.now().Format("20060102_150405"), short, ext)
}

func (a *App) parseUpload(up Upload) (batch, error) {
	switch up.Table {
	case domain.TablePerformance:
		ps, err := sheet.ParsePerformance(up.Filename, up.Data)
		if err != nil {
			return batch{}, err
		}
		rows := keep(ps.Records, func(r domain.PerformanceRecord) bool { return len(sheet.MissingFields(r)) == 0 })
		return batch{
			parsed:   len(ps.Records),
			kept:     len(rows),
			errors:   ps.Errors,
			commit:   func() error { return a.store.ReplacePerformance(rows) },
			doneNote: "Performance data loaded and old data cleared.",
		}, nil
	case domain.TableGlobal:
		ms, err := sheet.ParseGlobalMetrics(up.Filename, up.Data)
		if err != nil {
			return batch{}, err
		}
		rows := keep(ms.Rows, func(r domain.GlobalMetric) bool { return strings.TrimSpace(r.MetricName) != "" })
		return batch{
			parsed:   len(ms.Rows),
			kept:     len(rows),
			errors:   ms.Errors,
			commit:   func() error { return a.store.ReplaceGlobalMetrics(rows) },
			doneNote: "Global metrics updated.",
		}, nil
	case domain.TableBU:
		ms, err := sheet.ParseBUMetrics(up.Filename, up.Data)
		if err != nil {
			return batch{}, err
		}
		rows := keep(ms.Rows, func(r domain.BUMetric) bool { return strings.TrimSpace(r.BusinessUnit) != "" })
		return batch{
			parsed:   len(ms.Rows),
			kept:     len(rows),
			errors:   ms.Errors,
			commit:   func() error { return a.store.ReplaceBUMetrics(rows) },
			doneNote: "BU metrics updated.",
		}, nil
	case domain.TableAlliance:
		ms, err := sheet.ParseAllianceMetrics(up.Filename, up.Data)
		if err != nil {
			return batch{}, err
		}
		rows := keep(ms.Rows, func(r domain.AllianceMetric) bool {
			return strings.TrimSpace(r.PartnerName) != "" && strings.TrimSpace(r.BusinessUnit) != ""
		})
		return batch{
			parsed:   len(ms.Rows),
			kept:     len(rows),
			errors:   ms.Errors,
			commit:   func() error { return a.store.ReplaceAllianceMetrics(rows) },
			doneNote: "Alliance metrics updated.",
		}, nil
	case domain.TableCostSavings:
		ms, err := sheet.ParseCostSavings(up.Filename, up.Data)
		if err != nil {
			return batch{}, err
		}
		rows := keep(ms.Rows, func(r domain.CostSaving) bool { return strings.TrimSpace(r.PartnerName) != "" })
		return batch{
			parsed:   len(ms.Rows),
			kept:     len(rows),
			errors:   ms.Errors,
			commit:   func() error { return a.store.ReplaceCostSavings(rows) },
			doneNote: "Cost savings updated.",
		}, nil
	default:
		return batch{}, ErrUnsupportedTable
	}
}

// keep is the second, row-level pass: rows failing ok are left out of the
// insert without an individual error.
func keep[T any](rows []T, ok func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if ok(r) {
			out = append(out, r)
		}
	}
	return out
}
