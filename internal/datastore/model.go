// model.go this code defines the data model for the application
package datastore

import "time"

// Project is the top-level grouping; projects contain repositories.
type Project struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"index:idx_projects_name;not null"`
	Description  string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Repositories []Repository `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// Repository is a named grouping ("squad") of suites within a project.
// Distinct from a source-control repository.
type Repository struct {
	ID          uint `gorm:"primaryKey"`
	ProjectID   uint `gorm:"index;not null"`
	Name        string
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Suites      []Suite    `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	TestPlans   []TestPlan `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	TestRuns    []TestRun  `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
}

// Suite is a named grouping node in a per-repository hierarchy. ParentID is
// nil for root suites; the parent graph must stay acyclic, which the move
// planner enforces before any write. Order is the sibling position, nil
// meaning "append".
type Suite struct {
	ID           uint  `gorm:"primaryKey"`
	RepositoryID uint  `gorm:"index;not null"`
	ParentID     *uint `gorm:"index"`
	Title        string
	Order        *int `gorm:"column:sort_order"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TestCases    []TestCase `gorm:"foreignKey:SuiteID;constraint:OnDelete:CASCADE"`

	// Computed on read, not stored
	ChildSuiteCount int64 `gorm:"-"`
	TestCaseCount   int64 `gorm:"-"`
}

// TestCase is a leaf work item owned by exactly one suite.
type TestCase struct {
	ID             uint   `gorm:"primaryKey"`
	SuiteID        uint   `gorm:"index;not null"`
	Title          string `gorm:"index:idx_test_cases_title"`
	Description    string `gorm:"type:text"`
	Automated      bool
	Priority       int    // ordinal 1-4: Low/Medium/High/Critical
	Severity       string `gorm:"type:varchar(32)"`
	Labels         string // comma-joined tag set
	Regression     bool
	EpicLink       string
	LinkedIssue    string
	ReleaseVersion string
	Platform       string `gorm:"type:text"` // JSON array text, e.g. ["web","ios"]
	Data           string `gorm:"type:text"` // JSON blob: preconditions variant + BDD scenario
	Order          *int   `gorm:"column:sort_order"`
	CreatedBy      string
	UpdatedBy      string
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

// TestPlan is a named, ordered subset of test cases selected for a release
// or cycle.
type TestPlan struct {
	ID           uint `gorm:"primaryKey"`
	RepositoryID uint `gorm:"index;not null"`
	Title        string
	Description  string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Cases        []TestPlanCase `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// TestPlanCase is the ordered membership row of a case in a plan.
type TestPlanCase struct {
	ID       uint `gorm:"primaryKey"`
	PlanID   uint `gorm:"index:idx_plan_case,unique;not null"`
	CaseID   uint `gorm:"index:idx_plan_case,unique;not null"`
	Position int
}

// TestRun tracks execution of a plan's cases.
type TestRun struct {
	ID           uint `gorm:"primaryKey"`
	RepositoryID uint `gorm:"index;not null"`
	PlanID       uint `gorm:"index;not null"`
	Title        string
	Status       string `gorm:"type:varchar(20)"` // "open" or "closed"
	StartedAt    time.Time
	ClosedAt     *time.Time
	Results      []TestRunResult `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// Test run result statuses.
const (
	RunStatusOpen   = "open"
	RunStatusClosed = "closed"

	ResultPass    = "pass"
	ResultFail    = "fail"
	ResultBlocked = "blocked"
	ResultSkipped = "skipped"
)

// TestRunResult is the outcome of one case within a run.
type TestRunResult struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      uint   `gorm:"index:idx_run_case,unique;not null"`
	CaseID     uint   `gorm:"index:idx_run_case,unique;not null"`
	Status     string `gorm:"type:varchar(20)"` // pass, fail, blocked, skipped
	Notes      string `gorm:"type:text"`
	ExecutedBy string
	ExecutedAt time.Time
}
