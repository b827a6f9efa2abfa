// internal/api/v2/runs.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

// initRunRoutes registers test run endpoints
func (c *Controller) initRunRoutes() {
	c.Group.GET("/repositories/:id/runs", c.GetTestRuns)
	c.Group.POST("/repositories/:id/runs", c.CreateTestRun, c.AuthMiddleware)
	c.Group.GET("/runs/:id", c.GetTestRun)
	c.Group.GET("/runs/:id/summary", c.GetRunSummary)
	c.Group.POST("/runs/:id/results", c.RecordRunResult, c.AuthMiddleware)
	c.Group.POST("/runs/:id/close", c.CloseTestRun, c.AuthMiddleware)
}

// TestRunRequest is the payload for starting a run of a plan.
type TestRunRequest struct {
	PlanID uint   `json:"planId"`
	Title  string `json:"title"`
}

// RunResultRequest records the outcome of one case in a run.
type RunResultRequest struct {
	CaseID uint   `json:"caseId"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// RunSummary aggregates the result counts of a run by status.
type RunSummary struct {
	RunID   uint   `json:"runId"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Pass    int    `json:"pass"`
	Fail    int    `json:"fail"`
	Blocked int    `json:"blocked"`
	Skipped int    `json:"skipped"`
	Total   int    `json:"total"`
}

// GetTestRuns returns the runs of a repository, newest first.
func (c *Controller) GetTestRuns(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	runs, err := c.DS.GetTestRuns(repoID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list test runs", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, runs)
}

// GetTestRun returns a run with its recorded results.
func (c *Controller) GetTestRun(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid run ID", http.StatusBadRequest)
	}

	run, err := c.DS.GetTestRun(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test run not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test run", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, run)
}

// GetRunSummary returns the per-status result counts of a run.
func (c *Controller) GetRunSummary(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid run ID", http.StatusBadRequest)
	}

	run, err := c.DS.GetTestRun(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test run not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test run", http.StatusInternalServerError)
	}

	summary := RunSummary{RunID: run.ID, Title: run.Title, Status: run.Status}
	for _, result := range run.Results {
		switch result.Status {
		case datastore.ResultPass:
			summary.Pass++
		case datastore.ResultFail:
			summary.Fail++
		case datastore.ResultBlocked:
			summary.Blocked++
		case datastore.ResultSkipped:
			summary.Skipped++
		}
		summary.Total++
	}
	return ctx.JSON(http.StatusOK, summary)
}

// CreateTestRun starts a run of a plan.
func (c *Controller) CreateTestRun(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	var req TestRunRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	plan, err := c.DS.GetTestPlan(req.PlanID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test plan not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test plan", http.StatusInternalServerError)
	}

	title := req.Title
	if title == "" {
		title = plan.Title
	}

	run := datastore.TestRun{RepositoryID: repoID, PlanID: plan.ID, Title: title}
	if err := c.DS.CreateTestRun(&run); err != nil {
		return c.HandleError(ctx, err, "Failed to create test run", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, run)
}

// RecordRunResult records or replaces the outcome of one case in a run.
func (c *Controller) RecordRunResult(ctx echo.Context) error {
	runID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid run ID", http.StatusBadRequest)
	}

	var req RunResultRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if !validRunResultStatus(req.Status) {
		return c.HandleError(ctx, nil, "Invalid result status", http.StatusBadRequest)
	}

	run, err := c.DS.GetTestRun(runID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test run not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test run", http.StatusInternalServerError)
	}
	if run.Status == datastore.RunStatusClosed {
		return c.HandleError(ctx, nil, "Test run is closed", http.StatusConflict)
	}

	result := datastore.TestRunResult{
		RunID:      runID,
		CaseID:     req.CaseID,
		Status:     req.Status,
		Notes:      req.Notes,
		ExecutedBy: actorFromRequest(ctx),
	}
	if err := c.DS.RecordRunResult(&result); err != nil {
		return c.HandleError(ctx, err, "Failed to record run result", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, result)
}

// CloseTestRun marks a run closed; results can no longer be recorded.
func (c *Controller) CloseTestRun(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid run ID", http.StatusBadRequest)
	}

	if err := c.DS.CloseTestRun(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test run not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to close test run", http.StatusInternalServerError)
	}

	run, err := c.DS.GetTestRun(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get test run", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, run)
}

func validRunResultStatus(status string) bool {
	switch status {
	case datastore.ResultPass, datastore.ResultFail, datastore.ResultBlocked, datastore.ResultSkipped:
		return true
	}
	return false
}
