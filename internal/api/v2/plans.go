// internal/api/v2/plans.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

// initPlanRoutes registers test plan endpoints
func (c *Controller) initPlanRoutes() {
	c.Group.GET("/repositories/:id/plans", c.GetTestPlans)
	c.Group.POST("/repositories/:id/plans", c.CreateTestPlan, c.AuthMiddleware)
	c.Group.GET("/plans/:id", c.GetTestPlan)
	c.Group.DELETE("/plans/:id", c.DeleteTestPlan, c.AuthMiddleware)
	c.Group.POST("/plans/:id/cases", c.AddCaseToPlan, c.AuthMiddleware)
	c.Group.DELETE("/plans/:id/cases/:caseId", c.RemoveCaseFromPlan, c.AuthMiddleware)
	c.Group.PUT("/plans/:id/cases/order", c.ReorderPlanCases, c.AuthMiddleware)
}

// TestPlanRequest is the payload for creating a test plan.
type TestPlanRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PlanCaseRequest adds one case to a plan at a position.
type PlanCaseRequest struct {
	CaseID   uint `json:"caseId"`
	Position int  `json:"position"`
}

// PlanOrderRequest replaces the order of a plan's cases.
type PlanOrderRequest struct {
	CaseIDs []uint `json:"caseIds"`
}

// GetTestPlans returns the plans of a repository.
func (c *Controller) GetTestPlans(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	plans, err := c.DS.GetTestPlans(repoID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list test plans", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, plans)
}

// GetTestPlan returns a plan with its ordered case memberships.
func (c *Controller) GetTestPlan(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid plan ID", http.StatusBadRequest)
	}

	plan, err := c.DS.GetTestPlan(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test plan not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test plan", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, plan)
}

// CreateTestPlan creates a plan in a repository.
func (c *Controller) CreateTestPlan(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	var req TestPlanRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Title == "" {
		return c.HandleError(ctx, nil, "Plan title is required", http.StatusBadRequest)
	}

	plan := datastore.TestPlan{RepositoryID: repoID, Title: req.Title, Description: req.Description}
	if err := c.DS.CreateTestPlan(&plan); err != nil {
		return c.HandleError(ctx, err, "Failed to create test plan", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, plan)
}

// DeleteTestPlan removes a plan and its membership rows.
func (c *Controller) DeleteTestPlan(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid plan ID", http.StatusBadRequest)
	}

	if err := c.DS.DeleteTestPlan(id); err != nil {
		return c.HandleError(ctx, err, "Failed to delete test plan", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// AddCaseToPlan appends a case to a plan.
func (c *Controller) AddCaseToPlan(ctx echo.Context) error {
	planID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid plan ID", http.StatusBadRequest)
	}

	var req PlanCaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	if _, err := c.DS.GetTestCase(req.CaseID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test case not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test case", http.StatusInternalServerError)
	}

	if err := c.DS.AddCaseToPlan(planID, req.CaseID, req.Position); err != nil {
		return c.HandleError(ctx, err, "Failed to add case to plan", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RemoveCaseFromPlan removes a case's membership from a plan.
func (c *Controller) RemoveCaseFromPlan(ctx echo.Context) error {
	planID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid plan ID", http.StatusBadRequest)
	}
	caseID, err := idParam(ctx, "caseId")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid case ID", http.StatusBadRequest)
	}

	if err := c.DS.RemoveCaseFromPlan(planID, caseID); err != nil {
		return c.HandleError(ctx, err, "Failed to remove case from plan", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ReorderPlanCases rewrites the plan's case order to match the request.
func (c *Controller) ReorderPlanCases(ctx echo.Context) error {
	planID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid plan ID", http.StatusBadRequest)
	}

	var req PlanOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if len(req.CaseIDs) == 0 {
		return c.HandleError(ctx, nil, "Case order is required", http.StatusBadRequest)
	}

	if err := c.DS.ReorderPlanCases(planID, req.CaseIDs); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Case is not in the plan", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to reorder plan cases", http.StatusInternalServerError)
	}

	plan, err := c.DS.GetTestPlan(planID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get test plan", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, plan)
}
