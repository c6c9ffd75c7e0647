package store

import "time"

// GORM models used for persistence. Table names follow the dashboard schema.
type UserModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type PerformanceModel struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	AssociateID       string `gorm:"not null;index"`
	AssociateName     string `gorm:"not null"`
	AllianceType      string `gorm:"not null;index"`
	BusinessUnit      string `gorm:"not null;index"`
	Geo               string `gorm:"not null;index"`
	CertificationName string `gorm:"not null"`
	CompletionDate    string `gorm:"not null;index"`
	Feedback          *string
	ActivityCode      string
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (PerformanceModel) TableName() string { return "performance_data" }

type GlobalMetricModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	MetricName string `gorm:"not null"`
	Value      float64
	Geo        string
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (GlobalMetricModel) TableName() string { return "global_metrics" }

type BUMetricModel struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	BusinessUnit       string `gorm:"not null"`
	Target             int
	Completed          int
	AchievementPercent float64
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

func (BUMetricModel) TableName() string { return "bu_metrics" }

type AllianceMetricModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	PartnerName  string `gorm:"not null"`
	BusinessUnit string
	Target       int
	Completed    int
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (AllianceMetricModel) TableName() string { return "alliance_metrics" }

type CostSavingModel struct {
	ID                  uint   `gorm:"primaryKey;autoIncrement"`
	PartnerName         string `gorm:"not null"`
	EnablementSaving    float64
	CertificationSaving float64
	Total               float64
	CreatedAt           time.Time `gorm:"autoCreateTime"`
}

func (CostSavingModel) TableName() string { return "cost_savings" }

func allModels() []any {
	return []any{
		&UserModel{},
		&PerformanceModel{},
		&GlobalMetricModel{},
		&BUMetricModel{},
		&AllianceMetricModel{},
		&CostSavingModel{},
	}
}
