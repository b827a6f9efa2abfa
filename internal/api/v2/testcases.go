// internal/api/v2/testcases.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/testcase"
)

// initTestCaseRoutes registers test case endpoints
func (c *Controller) initTestCaseRoutes() {
	c.Group.GET("/suites/:id/cases", c.GetTestCases)
	c.Group.POST("/suites/:id/cases", c.CreateTestCase, c.AuthMiddleware)
	c.Group.GET("/cases/:id", c.GetTestCase)
	c.Group.PUT("/cases/:id", c.UpdateTestCase, c.AuthMiddleware)
	c.Group.DELETE("/cases/:id", c.DeleteTestCase, c.AuthMiddleware)
	c.Group.POST("/cases/bulk/move", c.BulkMoveTestCases, c.AuthMiddleware)
	c.Group.POST("/cases/bulk/delete", c.BulkDeleteTestCases, c.AuthMiddleware)
}

// TestCaseRequest is the payload for creating or updating a test case.
// Platform carries the platform names; they are stored as JSON array text.
type TestCaseRequest struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Automated      bool           `json:"automated"`
	Priority       int            `json:"priority"`
	Severity       string         `json:"severity"`
	Labels         string         `json:"labels"`
	Regression     bool           `json:"regression"`
	EpicLink       string         `json:"epicLink"`
	LinkedIssue    string         `json:"linkedIssue"`
	ReleaseVersion string         `json:"releaseVersion"`
	Platform       []string       `json:"platform"`
	Data           *testcase.Data `json:"data"`
}

// BulkCaseRequest names the cases a bulk operation applies to.
type BulkCaseRequest struct {
	CaseIDs []uint `json:"caseIds"`
	SuiteID uint   `json:"suiteId"` // move target, unused for delete
}

// BulkCaseResponse reports per-id outcomes of a bulk operation.
type BulkCaseResponse struct {
	Succeeded []uint   `json:"succeeded"`
	Failed    []uint   `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// GetTestCases returns a paginated case list of a suite.
func (c *Controller) GetTestCases(ctx echo.Context) error {
	suiteID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	limit := queryInt(ctx, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := queryInt(ctx, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	cases, total, err := c.DS.ListTestCases(suiteID, limit, offset)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list test cases", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, NewPaginatedResponse(cases, total, limit, offset))
}

// GetTestCase returns a single test case by id.
func (c *Controller) GetTestCase(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid test case ID", http.StatusBadRequest)
	}

	tc, err := c.DS.GetTestCase(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test case not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test case", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, tc)
}

// CreateTestCase creates a test case in a suite.
func (c *Controller) CreateTestCase(ctx echo.Context) error {
	suiteID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	var req TestCaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Title == "" {
		return c.HandleError(ctx, nil, "Test case title is required", http.StatusBadRequest)
	}

	if _, err := c.DS.GetSuite(suiteID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Suite not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get suite", http.StatusInternalServerError)
	}

	tc := datastore.TestCase{SuiteID: suiteID}
	if err := c.applyCaseRequest(&tc, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid test case payload", http.StatusBadRequest)
	}

	if err := c.DS.CreateTestCase(&tc); err != nil {
		return c.HandleError(ctx, err, "Failed to create test case", http.StatusInternalServerError)
	}

	c.invalidateSuiteTree(suiteID)
	return ctx.JSON(http.StatusCreated, tc)
}

// UpdateTestCase replaces the editable fields of a test case.
func (c *Controller) UpdateTestCase(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid test case ID", http.StatusBadRequest)
	}

	var req TestCaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Title == "" {
		return c.HandleError(ctx, nil, "Test case title is required", http.StatusBadRequest)
	}

	tc, err := c.DS.GetTestCase(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test case not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test case", http.StatusInternalServerError)
	}

	if err := c.applyCaseRequest(&tc, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid test case payload", http.StatusBadRequest)
	}

	if err := c.DS.UpdateTestCase(&tc); err != nil {
		return c.HandleError(ctx, err, "Failed to update test case", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, tc)
}

// DeleteTestCase removes a test case.
func (c *Controller) DeleteTestCase(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid test case ID", http.StatusBadRequest)
	}

	tc, err := c.DS.GetTestCase(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Test case not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test case", http.StatusInternalServerError)
	}

	if err := c.DS.DeleteTestCase(id); err != nil {
		return c.HandleError(ctx, err, "Failed to delete test case", http.StatusInternalServerError)
	}

	c.invalidateSuiteTree(tc.SuiteID)
	return ctx.NoContent(http.StatusNoContent)
}

// BulkMoveTestCases moves the named cases into another suite. Cases are
// processed independently; a failing id never stops the rest.
func (c *Controller) BulkMoveTestCases(ctx echo.Context) error {
	var req BulkCaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if len(req.CaseIDs) == 0 {
		return c.HandleError(ctx, nil, "No case IDs provided", http.StatusBadRequest)
	}

	if _, err := c.DS.GetSuite(req.SuiteID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Target suite not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get target suite", http.StatusInternalServerError)
	}

	resp := BulkCaseResponse{}
	for _, id := range req.CaseIDs {
		if err := c.DS.MoveTestCase(id, req.SuiteID); err != nil {
			resp.Failed = append(resp.Failed, id)
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Succeeded = append(resp.Succeeded, id)
	}

	// Source suites may span repositories, so drop all cached trees.
	if len(resp.Succeeded) > 0 {
		c.treeCache.Flush()
	}
	return ctx.JSON(http.StatusOK, resp)
}

// BulkDeleteTestCases deletes the named cases, independently per id.
func (c *Controller) BulkDeleteTestCases(ctx echo.Context) error {
	var req BulkCaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if len(req.CaseIDs) == 0 {
		return c.HandleError(ctx, nil, "No case IDs provided", http.StatusBadRequest)
	}

	resp := BulkCaseResponse{}
	for _, id := range req.CaseIDs {
		if err := c.DS.DeleteTestCase(id); err != nil {
			resp.Failed = append(resp.Failed, id)
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Succeeded = append(resp.Succeeded, id)
	}

	if len(resp.Succeeded) > 0 {
		c.treeCache.Flush()
	}
	return ctx.JSON(http.StatusOK, resp)
}

// applyCaseRequest copies the request payload onto a test case record.
func (c *Controller) applyCaseRequest(tc *datastore.TestCase, req *TestCaseRequest) error {
	tc.Title = req.Title
	tc.Description = req.Description
	tc.Automated = req.Automated
	tc.Regression = req.Regression
	tc.Labels = req.Labels
	tc.EpicLink = req.EpicLink
	tc.LinkedIssue = req.LinkedIssue
	tc.ReleaseVersion = req.ReleaseVersion

	tc.Priority = req.Priority
	if tc.Priority < testcase.PriorityLow || tc.Priority > testcase.PriorityCritical {
		tc.Priority = testcase.PriorityMedium
	}
	tc.Severity = req.Severity
	if tc.Severity == "" {
		tc.Severity = c.Settings.Import.DefaultSeverity
	}

	tc.Platform = testcase.MarshalPlatforms(req.Platform)
	if req.Data != nil && !req.Data.IsZero() {
		blob, err := testcase.MarshalData(req.Data)
		if err != nil {
			return err
		}
		tc.Data = blob
	} else {
		tc.Data = ""
	}
	return nil
}
