// internal/api/v2/duplicates.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/merge"
	"github.com/qahub/qa-hub/internal/similarity"
)

// initDuplicateRoutes registers duplicate detection and merge endpoints
func (c *Controller) initDuplicateRoutes() {
	c.Group.GET("/suites/:id/duplicates", c.ScanDuplicates)
	c.Group.POST("/cases/merge", c.MergeTestCases, c.AuthMiddleware)
	c.Group.POST("/suites/:id/duplicates/merge-all", c.MergeAllDuplicates, c.AuthMiddleware)
}

// DuplicateGroup is one cluster of likely-duplicate cases, strongest first.
type DuplicateGroup struct {
	Cases []datastore.TestCase `json:"cases"`
	Score float64              `json:"score"`
}

// MergeRequest names the surviving and the folded case of a two-way merge.
type MergeRequest struct {
	KeepID uint `json:"keepId"`
	AwayID uint `json:"awayId"`
}

// ScanDuplicates groups a suite's cases by title similarity.
func (c *Controller) ScanDuplicates(ctx echo.Context) error {
	suiteID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	cases, err := c.DS.GetTestCasesBySuite(suiteID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list test cases", http.StatusInternalServerError)
	}

	byID := make(map[uint]datastore.TestCase, len(cases))
	records := make([]similarity.Record, 0, len(cases))
	for _, tc := range cases {
		byID[tc.ID] = tc
		records = append(records, similarity.Record{ID: tc.ID, Title: tc.Title})
	}

	groups := similarity.GroupDuplicates(records)
	out := make([]DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		// Display cut only; grouping itself stays at the engine threshold.
		if g.Score < c.Settings.Dedupe.Threshold {
			continue
		}
		dg := DuplicateGroup{Score: g.Score}
		for _, r := range g.Records {
			dg.Cases = append(dg.Cases, byID[r.ID])
		}
		out = append(out, dg)
	}

	c.logAPIRequest(ctx, slog.LevelInfo, "Duplicate scan completed",
		"suite_id", suiteID, "cases", len(cases), "groups", len(out))
	return ctx.JSON(http.StatusOK, out)
}

// MergeTestCases folds one case into another and deletes the folded case.
func (c *Controller) MergeTestCases(ctx echo.Context) error {
	var req MergeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.KeepID == req.AwayID {
		return c.HandleError(ctx, nil, "Cannot merge a test case into itself", http.StatusBadRequest)
	}

	keep, err := c.DS.GetTestCase(req.KeepID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Surviving test case not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test case", http.StatusInternalServerError)
	}
	away, err := c.DS.GetTestCase(req.AwayID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Folded test case not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get test case", http.StatusInternalServerError)
	}

	engine := merge.NewEngine(c.DS)
	merged, err := engine.Merge(&keep, &away)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to merge test cases", http.StatusInternalServerError)
	}

	// The folded case is gone, so its suite's case count changed.
	c.invalidateSuiteTree(away.SuiteID)
	return ctx.JSON(http.StatusOK, merged)
}

// MergeAllDuplicates scans a suite and merges every duplicate group in one
// pass. The newest case of each group survives. Group failures are isolated;
// the response reports merged, failed, and deleted counts.
func (c *Controller) MergeAllDuplicates(ctx echo.Context) error {
	suiteID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	cases, err := c.DS.GetTestCasesBySuite(suiteID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list test cases", http.StatusInternalServerError)
	}

	byID := make(map[uint]datastore.TestCase, len(cases))
	records := make([]similarity.Record, 0, len(cases))
	for _, tc := range cases {
		byID[tc.ID] = tc
		records = append(records, similarity.Record{ID: tc.ID, Title: tc.Title})
	}

	groups := similarity.GroupDuplicates(records)
	batches := make([][]datastore.TestCase, 0, len(groups))
	for _, g := range groups {
		batch := make([]datastore.TestCase, 0, len(g.Records))
		for _, r := range g.Records {
			batch = append(batch, byID[r.ID])
		}
		batches = append(batches, batch)
	}

	engine := merge.NewEngine(c.DS)
	result, err := engine.MergeAll(ctx.Request().Context(), batches)
	if result != nil && result.Deleted > 0 {
		c.invalidateSuiteTree(suiteID)
	}
	if err != nil {
		return c.HandleError(ctx, err, "Merge-all cancelled", http.StatusRequestTimeout)
	}

	if result.Failed > 0 {
		c.logAPIRequest(ctx, slog.LevelWarn, "Merge-all finished with failures",
			"suite_id", suiteID, "merged", result.Merged, "failed", result.Failed)
		return ctx.JSON(http.StatusMultiStatus, result)
	}

	c.logAPIRequest(ctx, slog.LevelInfo, "Merge-all completed",
		"suite_id", suiteID, "merged", result.Merged, "deleted", result.Deleted)
	return ctx.JSON(http.StatusOK, result)
}
