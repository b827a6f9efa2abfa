package datastore

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateTestPlan inserts a new test plan.
func (ds *DataStore) CreateTestPlan(plan *TestPlan) error {
	return ds.DB.Create(plan).Error
}

// GetTestPlan retrieves a plan with its ordered case memberships.
func (ds *DataStore) GetTestPlan(id uint) (TestPlan, error) {
	var plan TestPlan
	err := ds.DB.Preload("Cases", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&plan, id).Error
	return plan, notFound(err)
}

// GetTestPlans retrieves the plans of a repository.
func (ds *DataStore) GetTestPlans(repositoryID uint) ([]TestPlan, error) {
	var plans []TestPlan
	err := ds.DB.Where("repository_id = ?", repositoryID).Order("id").Find(&plans).Error
	return plans, err
}

// DeleteTestPlan removes a plan and its membership rows.
func (ds *DataStore) DeleteTestPlan(id uint) error {
	return ds.DB.Delete(&TestPlan{}, id).Error
}

// AddCaseToPlan appends a case to a plan at the given position.
func (ds *DataStore) AddCaseToPlan(planID, caseID uint, position int) error {
	return ds.DB.Create(&TestPlanCase{PlanID: planID, CaseID: caseID, Position: position}).Error
}

// RemoveCaseFromPlan removes a case's membership row.
func (ds *DataStore) RemoveCaseFromPlan(planID, caseID uint) error {
	return ds.DB.Where("plan_id = ? AND case_id = ?", planID, caseID).Delete(&TestPlanCase{}).Error
}

// ReorderPlanCases rewrites the positions of a plan's memberships to match
// the given case order. Every listed case must already be in the plan.
func (ds *DataStore) ReorderPlanCases(planID uint, caseIDs []uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		for i, caseID := range caseIDs {
			result := tx.Model(&TestPlanCase{}).
				Where("plan_id = ? AND case_id = ?", planID, caseID).
				Update("position", i+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("case %d is not in plan %d: %w", caseID, planID, ErrNotFound)
			}
		}
		return nil
	})
}

// CreateTestRun inserts a new run in the open state.
func (ds *DataStore) CreateTestRun(run *TestRun) error {
	if run.Status == "" {
		run.Status = RunStatusOpen
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = now()
	}
	return ds.DB.Create(run).Error
}

// GetTestRun retrieves a run with its recorded results.
func (ds *DataStore) GetTestRun(id uint) (TestRun, error) {
	var run TestRun
	err := ds.DB.Preload("Results").First(&run, id).Error
	return run, notFound(err)
}

// GetTestRuns retrieves the runs of a repository, newest first.
func (ds *DataStore) GetTestRuns(repositoryID uint) ([]TestRun, error) {
	var runs []TestRun
	err := ds.DB.Where("repository_id = ?", repositoryID).Order("started_at DESC").Find(&runs).Error
	return runs, err
}

// RecordRunResult records or replaces the outcome of one case in a run.
func (ds *DataStore) RecordRunResult(result *TestRunResult) error {
	if result.ExecutedAt.IsZero() {
		result.ExecutedAt = now()
	}
	var existing TestRunResult
	err := ds.DB.Where("run_id = ? AND case_id = ?", result.RunID, result.CaseID).
		First(&existing).Error
	if err == nil {
		result.ID = existing.ID
		return ds.DB.Save(result).Error
	}
	return ds.DB.Create(result).Error
}

// CloseTestRun marks a run closed with the close timestamp.
func (ds *DataStore) CloseTestRun(id uint) error {
	closedAt := now()
	result := ds.DB.Model(&TestRun{}).Where("id = ?", id).
		Updates(map[string]any{"status": RunStatusClosed, "closed_at": closedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
