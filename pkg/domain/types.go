package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// DefaultAdminUsername is the account bootstrapped on first startup.
const DefaultAdminUsername = "admin"

// User is a persisted login identity. Only admin rows are stored.
type User struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

// Session is the per-request authorization state.
// It is only ever produced by the authenticator.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Role          Role   `json:"role"`
	Username      string `json:"username,omitempty"`
}

// IsAdmin reports whether the session may mutate data.
func (s Session) IsAdmin() bool {
	return s.Authenticated && s.Role == RoleAdmin
}

type PerformanceRecord struct {
	ID                uint      `json:"id"`
	AssociateID       string    `json:"associateId"`
	AssociateName     string    `json:"associateName"`
	AllianceType      string    `json:"allianceType"`
	BusinessUnit      string    `json:"businessUnit"`
	Geo               string    `json:"geo"`
	CertificationName string    `json:"certificationName"`
	CompletionDate    string    `json:"completionDate"`
	Feedback          string    `json:"feedback,omitempty"`
	ActivityCode      string    `json:"activityCode,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type GlobalMetric struct {
	ID         uint      `json:"id"`
	MetricName string    `json:"metricName"`
	Value      float64   `json:"value"`
	Geo        string    `json:"geo"`
	CreatedAt  time.Time `json:"createdAt"`
}

type BUMetric struct {
	ID                 uint      `json:"id"`
	BusinessUnit       string    `json:"businessUnit"`
	Target             int       `json:"target"`
	Completed          int       `json:"completed"`
	AchievementPercent float64   `json:"achievementPercent"`
	CreatedAt          time.Time `json:"createdAt"`
}

type AllianceMetric struct {
	ID           uint      `json:"id"`
	PartnerName  string    `json:"partnerName"`
	BusinessUnit string    `json:"businessUnit"`
	Target       int       `json:"target"`
	Completed    int       `json:"completed"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CostSaving struct {
	ID                  uint      `json:"id"`
	PartnerName         string    `json:"partnerName"`
	EnablementSaving    float64   `json:"enablementSaving"`
	CertificationSaving float64   `json:"certificationSaving"`
	Total               float64   `json:"total"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Table names a replaceable snapshot table.
type Table string

const (
	TablePerformance Table = "performance_data"
	TableGlobal      Table = "global_metrics"
	TableBU          Table = "bu_metrics"
	TableAlliance    Table = "alliance_metrics"
	TableCostSavings Table = "cost_savings"
)

// ParseTable accepts either the table name or its short alias.
func ParseTable(raw string) (Table, bool) {
	switch raw {
	case "performance", string(TablePerformance):
		return TablePerformance, true
	case "global", string(TableGlobal):
		return TableGlobal, true
	case "bu", string(TableBU):
		return TableBU, true
	case "alliance", string(TableAlliance):
		return TableAlliance, true
	case "cost-savings", "cost_savings":
		return TableCostSavings, true
	default:
		return "", false
	}
}

// PerformanceFilter narrows performance listings and reports.
// Zero values mean "any".
type PerformanceFilter struct {
	AllianceType string
	BusinessUnit string
	Geo          string
	From         string
	To           string
}

// IngestState is a step of the upload pipeline.
type IngestState string

const (
	IngestIdle       IngestState = "idle"
	IngestValidating IngestState = "validating"
	IngestRejected   IngestState = "rejected"
	IngestStaged     IngestState = "staged"
	IngestCommitting IngestState = "committing"
	IngestDone       IngestState = "done"
	IngestFailed     IngestState = "failed"
)

// IngestReport summarizes one pipeline run.
type IngestReport struct {
	RunID         string      `json:"runId"`
	Table         Table       `json:"table"`
	State         IngestState `json:"state"`
	DryRun        bool        `json:"dryRun,omitempty"`
	ArchiveKey    string      `json:"archiveKey,omitempty"`
	RowsParsed    int         `json:"rowsParsed"`
	RowsCommitted int         `json:"rowsCommitted"`
	RowsExcluded  int         `json:"rowsExcluded"`
	Errors        []string    `json:"errors,omitempty"`
	Message       string      `json:"message"`
}

// Dimension is a grouping axis for certification breakdowns.
type Dimension string

const (
	DimensionAlliance Dimension = "alliance"
	DimensionBU       Dimension = "bu"
	DimensionGeo      Dimension = "geo"
	DimensionMonth    Dimension = "month"
)

// Count is one bucket of a breakdown.
type Count struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

// Summary holds the headline tiles of the dashboard.
type Summary struct {
	TotalCertifications int64  `json:"totalCertifications"`
	UniqueAssociates    int64  `json:"uniqueAssociates"`
	UniqueActivities    int64  `json:"uniqueActivities"`
	UniqueAlliances     int64  `json:"uniqueAlliances"`
	BestAlliance        string `json:"bestAlliance"`
	BestBusinessUnit    string `json:"bestBusinessUnit"`
	BestGeo             string `json:"bestGeo"`
	TopAssociate        string `json:"topAssociate"`
	TopAssociateCount   int64  `json:"topAssociateCount"`
}
