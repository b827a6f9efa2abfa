// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qahub/qa-hub/internal/conf"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Interface abstracts the underlying database implementation and defines
// the operations the rest of the application performs against it.
type Interface interface {
	Open() error
	Close() error

	// Projects and repositories
	CreateProject(project *Project) error
	GetProject(id uint) (Project, error)
	GetAllProjects() ([]Project, error)
	UpdateProject(project *Project) error
	DeleteProject(id uint) error
	CreateRepository(repo *Repository) error
	GetRepository(id uint) (Repository, error)
	GetRepositories(projectID uint) ([]Repository, error)
	UpdateRepository(repo *Repository) error
	DeleteRepository(id uint) error

	// Suites
	CreateSuite(suite *Suite) error
	GetSuite(id uint) (Suite, error)
	GetAllSuites(repositoryID uint) ([]Suite, error)
	RenameSuite(id uint, title string) error
	UpdateSuitePlacement(id uint, parentID *uint, order int) error
	DeleteSuite(id uint) error

	// Test cases
	CreateTestCase(tc *TestCase) error
	GetTestCase(id uint) (TestCase, error)
	GetTestCasesBySuite(suiteID uint) ([]TestCase, error)
	ListTestCases(suiteID uint, limit, offset int) ([]TestCase, int64, error)
	UpdateTestCase(tc *TestCase) error
	DeleteTestCase(id uint) error
	MoveTestCase(id, suiteID uint) error

	// Plans and runs
	CreateTestPlan(plan *TestPlan) error
	GetTestPlan(id uint) (TestPlan, error)
	GetTestPlans(repositoryID uint) ([]TestPlan, error)
	DeleteTestPlan(id uint) error
	AddCaseToPlan(planID, caseID uint, position int) error
	RemoveCaseFromPlan(planID, caseID uint) error
	ReorderPlanCases(planID uint, caseIDs []uint) error
	CreateTestRun(run *TestRun) error
	GetTestRun(id uint) (TestRun, error)
	GetTestRuns(repositoryID uint) ([]TestRun, error)
	RecordRunResult(result *TestRunResult) error
	CloseTestRun(id uint) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// createGormLogger configures the GORM logger. Queries slower than the
// threshold are logged at warn level.
func createGormLogger() gormlogger.Interface {
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// performAutoMigration runs gorm AutoMigrate for every model.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&Project{},
		&Repository{},
		&Suite{},
		&TestCase{},
		&TestPlan{},
		&TestPlanCase{},
		&TestRun{},
		&TestRunResult{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		fmt.Printf("%s database connection initialized: %s\n", dbType, connectionInfo)
	}
	return nil
}

// notFound maps gorm's record-not-found to the package sentinel so callers
// can translate it to a 404 without importing gorm.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// now is the single clock used for audit timestamps, swappable in tests.
var now = time.Now
