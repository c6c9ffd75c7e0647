package store

import (
	"errors"
	"time"

	"alliancedash/pkg/domain"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("Record not found.")

// Store defines persistence operations for credentials and dashboard tables.
type Store interface {
	// users
	EnsureUser(user domain.User) (bool, error)
	FindPasswordHash(username string, role domain.Role) (string, bool, error)
	UpdatePassword(username, newHash string) (bool, error)

	// performance
	ListPerformance(filter domain.PerformanceFilter) ([]domain.PerformanceRecord, error)
	AddPerformanceRecord(rec domain.PerformanceRecord) (domain.PerformanceRecord, error)
	UpdatePerformanceRecord(rec domain.PerformanceRecord) error
	DeletePerformanceRecord(id uint) error
	DeleteAllPerformance() (int64, error)
	ReplacePerformance(rows []domain.PerformanceRecord) error

	// metrics
	ListGlobalMetrics() ([]domain.GlobalMetric, error)
	ReplaceGlobalMetrics(rows []domain.GlobalMetric) error
	ListBUMetrics() ([]domain.BUMetric, error)
	ReplaceBUMetrics(rows []domain.BUMetric) error
	ListAllianceMetrics() ([]domain.AllianceMetric, error)
	ReplaceAllianceMetrics(rows []domain.AllianceMetric) error
	ListCostSavings() ([]domain.CostSaving, error)
	ReplaceCostSavings(rows []domain.CostSaving) error

	// reports
	CountPerformanceBy(dim domain.Dimension, filter domain.PerformanceFilter) ([]domain.Count, error)
	SummarizePerformance(filter domain.PerformanceFilter) (domain.Summary, error)
}

// SessionStore issues and resolves signed session tokens.
type SessionStore interface {
	NewSession(session domain.Session) (string, error)
	SessionFromToken(token string) (domain.Session, error)
	DeleteSession(token string) error
}

// UserSessionRevoker is an optional capability that revokes all sessions
// issued for a user up to a cutoff time.
type UserSessionRevoker interface {
	RevokeUserSessions(username string, since time.Time) error
}
