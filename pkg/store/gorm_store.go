package store

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"alliancedash/pkg/domain"
)

const (
	// DefaultSQLitePath is used when no database URL is configured.
	DefaultSQLitePath = "data/dashboard.db"
	insertBatchSize   = 200
)

// GormStore implements Store using GORM over SQLite or Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and creates missing tables.
// postgres:// URLs (or key=value DSNs with host=) select Postgres,
// anything else is treated as a SQLite path with an optional sqlite: prefix.
func NewGormStore(dsn string) (*GormStore, error) {
	dialector, isSQLite, err := openDialector(dsn)
	if err != nil {
		return nil, err
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// one writer; also keeps :memory: databases alive across calls
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func openDialector(dsn string) (gorm.Dialector, bool, error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return postgres.Open(dsn), false, nil
	}
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "sqlite:")
	if path == "" {
		path = DefaultSQLitePath
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, false, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	return sqlite.Open(path), true, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// fail logs a store error with its operation and returns it wrapped.
func (s *GormStore) fail(op string, err error) error {
	slog.Error("store operation failed", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

// EnsureUser inserts the user unless the username already exists.
// It reports whether a row was created; existing rows are never modified.
func (s *GormStore) EnsureUser(u domain.User) (bool, error) {
	model := userToModel(u)
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return false, s.fail("ensure user", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindPasswordHash returns the stored hash for a username/role pair.
func (s *GormStore) FindPasswordHash(username string, role domain.Role) (string, bool, error) {
	var model UserModel
	err := s.db.Where("username = ? AND role = ?", username, string(role)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, s.fail("find user", err)
	}
	return model.PasswordHash, true, nil
}

// UpdatePassword sets a new hash for an admin row.
// It returns false when no admin with that username exists.
func (s *GormStore) UpdatePassword(username, newHash string) (bool, error) {
	res := s.db.Model(&UserModel{}).
		Where("username = ? AND role = ?", username, string(domain.RoleAdmin)).
		Update("password_hash", newHash)
	if res.Error != nil {
		return false, s.fail("update password", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListPerformance returns matching rows in upload order.
func (s *GormStore) ListPerformance(filter domain.PerformanceFilter) ([]domain.PerformanceRecord, error) {
	var models []PerformanceModel
	if err := applyFilter(s.db, filter).Order("id ASC").Find(&models).Error; err != nil {
		return nil, s.fail("list performance", err)
	}
	out := make([]domain.PerformanceRecord, 0, len(models))
	for _, m := range models {
		out = append(out, performanceFromModel(m))
	}
	return out, nil
}

// AddPerformanceRecord inserts one row and returns it with id and created_at set.
func (s *GormStore) AddPerformanceRecord(rec domain.PerformanceRecord) (domain.PerformanceRecord, error) {
	model := performanceToModel(rec)
	model.ID = 0
	if err := s.db.Create(&model).Error; err != nil {
		return domain.PerformanceRecord{}, s.fail("add performance record", err)
	}
	return performanceFromModel(model), nil
}

// UpdatePerformanceRecord overwrites the editable fields of one row.
func (s *GormStore) UpdatePerformanceRecord(rec domain.PerformanceRecord) error {
	model := performanceToModel(rec)
	res := s.db.Model(&PerformanceModel{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"associate_id":       model.AssociateID,
		"associate_name":     model.AssociateName,
		"alliance_type":      model.AllianceType,
		"business_unit":      model.BusinessUnit,
		"geo":                model.Geo,
		"certification_name": model.CertificationName,
		"completion_date":    model.CompletionDate,
		"feedback":           model.Feedback,
		"activity_code":      model.ActivityCode,
	})
	if res.Error != nil {
		return s.fail("update performance record", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePerformanceRecord removes one row by id.
func (s *GormStore) DeletePerformanceRecord(id uint) error {
	res := s.db.Delete(&PerformanceModel{}, id)
	if res.Error != nil {
		return s.fail("delete performance record", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllPerformance empties performance_data and returns the removed count.
func (s *GormStore) DeleteAllPerformance() (int64, error) {
	res := s.db.Where("1 = 1").Delete(&PerformanceModel{})
	if res.Error != nil {
		return 0, s.fail("delete all performance", res.Error)
	}
	return res.RowsAffected, nil
}

// ReplacePerformance swaps the whole performance snapshot in one transaction.
func (s *GormStore) ReplacePerformance(rows []domain.PerformanceRecord) error {
	models := make([]PerformanceModel, 0, len(rows))
	for _, r := range rows {
		m := performanceToModel(r)
		m.ID = 0
		models = append(models, m)
	}
	if err := replaceAll(s.db, models); err != nil {
		return s.fail("replace performance", err)
	}
	return nil
}

func (s *GormStore) ListGlobalMetrics() ([]domain.GlobalMetric, error) {
	var models []GlobalMetricModel
	if err := s.db.Order("id ASC").Find(&models).Error; err != nil {
		return nil, s.fail("list global metrics", err)
	}
	out := make([]domain.GlobalMetric, 0, len(models))
	for _, m := range models {
		out = append(out, domain.GlobalMetric{ID: m.ID, MetricName: m.MetricName, Value: m.Value, Geo: m.Geo, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func (s *GormStore) ReplaceGlobalMetrics(rows []domain.GlobalMetric) error {
	models := make([]GlobalMetricModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, GlobalMetricModel{MetricName: r.MetricName, Value: r.Value, Geo: r.Geo})
	}
	if err := replaceAll(s.db, models); err != nil {
		return s.fail("replace global metrics", err)
	}
	return nil
}

func (s *GormStore) ListBUMetrics() ([]domain.BUMetric, error) {
	var models []BUMetricModel
	if err := s.db.Order("id ASC").Find(&models).Error; err != nil {
		return nil, s.fail("list bu metrics", err)
	}
	out := make([]domain.BUMetric, 0, len(models))
	for _, m := range models {
		out = append(out, domain.BUMetric{
			ID:                 m.ID,
			BusinessUnit:       m.BusinessUnit,
			Target:             m.Target,
			Completed:          m.Completed,
			AchievementPercent: m.AchievementPercent,
			CreatedAt:          m.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) ReplaceBUMetrics(rows []domain.BUMetric) error {
	models := make([]BUMetricModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, BUMetricModel{
			BusinessUnit:       r.BusinessUnit,
			Target:             r.Target,
			Completed:          r.Completed,
			AchievementPercent: r.AchievementPercent,
		})
	}
	if err := replaceAll(s.db, models); err != nil {
		return s.fail("replace bu metrics", err)
	}
	return nil
}

func (s *GormStore) ListAllianceMetrics() ([]domain.AllianceMetric, error) {
	var models []AllianceMetricModel
	if err := s.db.Order("id ASC").Find(&models).Error; err != nil {
		return nil, s.fail("list alliance metrics", err)
	}
	out := make([]domain.AllianceMetric, 0, len(models))
	for _, m := range models {
		out = append(out, domain.AllianceMetric{
			ID:           m.ID,
			PartnerName:  m.PartnerName,
			BusinessUnit: m.BusinessUnit,
			Target:       m.Target,
			Completed:    m.Completed,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) ReplaceAllianceMetrics(rows []domain.AllianceMetric) error {
	models := make([]AllianceMetricModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, AllianceMetricModel{
			PartnerName:  r.PartnerName,
			BusinessUnit: r.BusinessUnit,
			Target:       r.Target,
			Completed:    r.Completed,
		})
	}
	if err := replaceAll(s.db, models); err != nil {
		return s.fail("replace alliance metrics", err)
	}
	return nil
}

func (s *GormStore) ListCostSavings() ([]domain.CostSaving, error) {
	var models []CostSavingModel
	if err := s.db.Order("id ASC").Find(&models).Error; err != nil {
		return nil, s.fail("list cost savings", err)
	}
	out := make([]domain.CostSaving, 0, len(models))
	for _, m := range models {
		out = append(out, domain.CostSaving{
			ID:                  m.ID,
			PartnerName:         m.PartnerName,
			EnablementSaving:    m.EnablementSaving,
			CertificationSaving: m.CertificationSaving,
			Total:               m.Total,
			CreatedAt:           m.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) ReplaceCostSavings(rows []domain.CostSaving) error {
	models := make([]CostSavingModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, CostSavingModel{
			PartnerName:         r.PartnerName,
			EnablementSaving:    r.EnablementSaving,
			CertificationSaving: r.CertificationSaving,
			Total:               r.Total,
		})
	}
	if err := replaceAll(s.db, models); err != nil {
		return s.fail("replace cost savings", err)
	}
	return nil
}

// replaceAll deletes every row of M's table and inserts models in order.
// Any failure rolls back, leaving the previous snapshot in place.
func replaceAll[M any](db *gorm.DB, models []M) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var zero M
		if err := tx.Where("1 = 1").Delete(&zero).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(&models, insertBatchSize).Error
	})
}

func applyFilter(tx *gorm.DB, f domain.PerformanceFilter) *gorm.DB {
	if v := strings.TrimSpace(f.AllianceType); v != "" {
		tx = tx.Where("alliance_type = ?", v)
	}
	if v := strings.TrimSpace(f.BusinessUnit); v != "" {
		tx = tx.Where("business_unit = ?", v)
	}
	if v := strings.TrimSpace(f.Geo); v != "" {
		tx = tx.Where("geo = ?", v)
	}
	if v := strings.TrimSpace(f.From); v != "" {
		tx = tx.Where("completion_date >= ?", v)
	}
	if v := strings.TrimSpace(f.To); v != "" {
		tx = tx.Where("completion_date <= ?", v)
	}
	return tx
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
	}
}

func performanceToModel(r domain.PerformanceRecord) PerformanceModel {
	var feedback *string
	if v := strings.TrimSpace(r.Feedback); v != "" {
		feedback = &v
	}
	return PerformanceModel{
		ID:                r.ID,
		AssociateID:       strings.TrimSpace(r.AssociateID),
		AssociateName:     strings.TrimSpace(r.AssociateName),
		AllianceType:      strings.TrimSpace(r.AllianceType),
		BusinessUnit:      strings.TrimSpace(r.BusinessUnit),
		Geo:               strings.TrimSpace(r.Geo),
		CertificationName: strings.TrimSpace(r.CertificationName),
		CompletionDate:    strings.TrimSpace(r.CompletionDate),
		Feedback:          feedback,
		ActivityCode:      strings.TrimSpace(r.ActivityCode),
		CreatedAt:         r.CreatedAt,
	}
}

func performanceFromModel(m PerformanceModel) domain.PerformanceRecord {
	rec := domain.PerformanceRecord{
		ID:                m.ID,
		AssociateID:       m.AssociateID,
		AssociateName:     m.AssociateName,
		AllianceType:      m.AllianceType,
		BusinessUnit:      m.BusinessUnit,
		Geo:               m.Geo,
		CertificationName: m.CertificationName,
		CompletionDate:    m.CompletionDate,
		ActivityCode:      m.ActivityCode,
		CreatedAt:         m.CreatedAt,
	}
	if m.Feedback != nil {
		rec.Feedback = *m.Feedback
	}
	return rec
}
