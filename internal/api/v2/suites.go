// internal/api/v2/suites.go
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/suitetree"
)

// initSuiteRoutes registers suite endpoints
func (c *Controller) initSuiteRoutes() {
	c.Group.GET("/repositories/:id/suites", c.GetSuites)
	c.Group.GET("/repositories/:id/suites/tree", c.GetSuiteTree)
	c.Group.POST("/repositories/:id/suites", c.CreateSuite, c.AuthMiddleware)
	c.Group.GET("/suites/:id", c.GetSuite)
	c.Group.PUT("/suites/:id", c.RenameSuite, c.AuthMiddleware)
	c.Group.POST("/suites/:id/move", c.MoveSuite, c.AuthMiddleware)
	c.Group.DELETE("/suites/:id", c.DeleteSuite, c.AuthMiddleware)
}

// SuiteRequest is the payload for creating or renaming a suite.
type SuiteRequest struct {
	Title    string `json:"title"`
	ParentID *uint  `json:"parentId"`
	Order    *int   `json:"order"`
}

// MoveSuiteRequest describes a drag-and-drop placement of one suite.
type MoveSuiteRequest struct {
	TargetID uint   `json:"targetId"`
	Intent   string `json:"intent"`
}

// GetSuites returns the flat suite list of a repository.
func (c *Controller) GetSuites(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	suites, err := c.DS.GetAllSuites(repoID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list suites", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, suites)
}

// GetSuiteTree returns the repository's suites as a nested forest, ordered
// by sibling position. Responses are cached briefly; suite and test case
// writes invalidate the cache.
func (c *Controller) GetSuiteTree(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	cacheKey := treeCacheKey(repoID)
	if cached, found := c.treeCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	tree, err := c.loadTree(repoID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build suite tree", http.StatusInternalServerError)
	}

	nodes := tree.Nodes()
	c.treeCache.SetDefault(cacheKey, nodes)
	return ctx.JSON(http.StatusOK, nodes)
}

// GetSuite returns a single suite by id.
func (c *Controller) GetSuite(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	suite, err := c.DS.GetSuite(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Suite not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get suite", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, suite)
}

// CreateSuite creates a suite in a repository. A nil order appends the suite
// after its last sibling.
func (c *Controller) CreateSuite(ctx echo.Context) error {
	repoID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	var req SuiteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Title == "" {
		return c.HandleError(ctx, nil, "Suite title is required", http.StatusBadRequest)
	}

	if req.ParentID != nil {
		parent, err := c.DS.GetSuite(*req.ParentID)
		if err != nil {
			if errors.Is(err, datastore.ErrNotFound) {
				return c.HandleError(ctx, err, "Parent suite not found", http.StatusNotFound)
			}
			return c.HandleError(ctx, err, "Failed to get parent suite", http.StatusInternalServerError)
		}
		if parent.RepositoryID != repoID {
			return c.HandleError(ctx, nil, "Parent suite belongs to another repository", http.StatusBadRequest)
		}
	}

	suite := datastore.Suite{
		RepositoryID: repoID,
		ParentID:     req.ParentID,
		Title:        req.Title,
		Order:        req.Order,
	}
	if err := c.DS.CreateSuite(&suite); err != nil {
		return c.HandleError(ctx, err, "Failed to create suite", http.StatusInternalServerError)
	}

	c.treeCache.Delete(treeCacheKey(repoID))
	return ctx.JSON(http.StatusCreated, suite)
}

// RenameSuite updates a suite's title.
func (c *Controller) RenameSuite(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	var req SuiteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Title == "" {
		return c.HandleError(ctx, nil, "Suite title is required", http.StatusBadRequest)
	}

	suite, err := c.DS.GetSuite(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Suite not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get suite", http.StatusInternalServerError)
	}

	if err := c.DS.RenameSuite(id, req.Title); err != nil {
		return c.HandleError(ctx, err, "Failed to rename suite", http.StatusInternalServerError)
	}
	suite.Title = req.Title

	c.treeCache.Delete(treeCacheKey(suite.RepositoryID))
	return ctx.JSON(http.StatusOK, suite)
}

// MoveSuite applies a drag-and-drop placement. The move is validated and
// planned against the current tree; the sibling order shifts are written
// before the dragged suite's own placement.
func (c *Controller) MoveSuite(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	var req MoveSuiteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	suite, err := c.DS.GetSuite(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Suite not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get suite", http.StatusInternalServerError)
	}

	tree, err := c.loadTree(suite.RepositoryID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build suite tree", http.StatusInternalServerError)
	}

	plan, err := tree.PlanMove(id, req.TargetID, suitetree.Intent(req.Intent))
	if err != nil {
		switch {
		case errors.Is(err, suitetree.ErrUnknownSuite):
			return c.HandleError(ctx, err, "Suite not found", http.StatusNotFound)
		case errors.Is(err, suitetree.ErrCycle),
			errors.Is(err, suitetree.ErrSameSuite),
			errors.Is(err, suitetree.ErrInvalidPromote):
			return c.HandleError(ctx, err, "Invalid suite placement", http.StatusConflict)
		case errors.Is(err, suitetree.ErrUnknownIntent):
			return c.HandleError(ctx, err, "Unknown drop intent", http.StatusBadRequest)
		default:
			return c.HandleError(ctx, err, "Failed to plan suite move", http.StatusInternalServerError)
		}
	}

	// Shifts first, then the dragged suite. On failure the client re-fetches
	// the authoritative tree; there is no rollback.
	for _, shift := range plan.Shifts {
		shifted, err := c.DS.GetSuite(shift.SuiteID)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to apply sibling shift", http.StatusInternalServerError)
		}
		if err := c.DS.UpdateSuitePlacement(shift.SuiteID, shifted.ParentID, shift.NewOrder); err != nil {
			return c.HandleError(ctx, err, "Failed to apply sibling shift", http.StatusInternalServerError)
		}
	}
	if err := c.DS.UpdateSuitePlacement(plan.SuiteID, plan.NewParent, plan.NewOrder); err != nil {
		return c.HandleError(ctx, err, "Failed to move suite", http.StatusInternalServerError)
	}

	c.treeCache.Delete(treeCacheKey(suite.RepositoryID))
	c.logAPIRequest(ctx, slog.LevelInfo, "Suite moved",
		"suite_id", id, "target_id", req.TargetID, "intent", req.Intent)

	moved, err := c.DS.GetSuite(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get moved suite", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, moved)
}

// DeleteSuite removes a suite, its descendant suites, and their test cases.
func (c *Controller) DeleteSuite(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	suite, err := c.DS.GetSuite(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Suite not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get suite", http.StatusInternalServerError)
	}

	if err := c.DS.DeleteSuite(id); err != nil {
		return c.HandleError(ctx, err, "Failed to delete suite", http.StatusInternalServerError)
	}

	c.treeCache.Delete(treeCacheKey(suite.RepositoryID))
	return ctx.NoContent(http.StatusNoContent)
}

// loadTree fetches a repository's suites and builds the in-memory tree.
func (c *Controller) loadTree(repoID uint) (*suitetree.Tree, error) {
	suites, err := c.DS.GetAllSuites(repoID)
	if err != nil {
		return nil, err
	}
	return suitetree.Build(suites), nil
}

func treeCacheKey(repoID uint) string {
	return fmt.Sprintf("suite-tree:%d", repoID)
}

// invalidateSuiteTree drops the cached tree of the repository owning the
// suite. Tree nodes embed per-suite case counts, so test case writes must
// invalidate the tree just as suite writes do.
func (c *Controller) invalidateSuiteTree(suiteID uint) {
	suite, err := c.DS.GetSuite(suiteID)
	if err != nil {
		c.treeCache.Flush()
		return
	}
	c.treeCache.Delete(treeCacheKey(suite.RepositoryID))
}
