// internal/api/v2/projects.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

// initProjectRoutes registers project and repository endpoints
func (c *Controller) initProjectRoutes() {
	c.Group.GET("/projects", c.GetProjects)
	c.Group.GET("/projects/:id", c.GetProject)
	c.Group.POST("/projects", c.CreateProject, c.AuthMiddleware)
	c.Group.PUT("/projects/:id", c.UpdateProject, c.AuthMiddleware)
	c.Group.DELETE("/projects/:id", c.DeleteProject, c.AuthMiddleware)

	c.Group.GET("/projects/:id/repositories", c.GetRepositories)
	c.Group.POST("/projects/:id/repositories", c.CreateRepository, c.AuthMiddleware)
	c.Group.PUT("/repositories/:id", c.UpdateRepository, c.AuthMiddleware)
	c.Group.DELETE("/repositories/:id", c.DeleteRepository, c.AuthMiddleware)
}

// ProjectRequest is the payload for creating or updating a project.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RepositoryRequest is the payload for creating or updating a repository.
type RepositoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GetProjects returns all projects.
func (c *Controller) GetProjects(ctx echo.Context) error {
	projects, err := c.DS.GetAllProjects()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list projects", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, projects)
}

// GetProject returns a single project by id.
func (c *Controller) GetProject(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid project ID", http.StatusBadRequest)
	}

	project, err := c.DS.GetProject(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Project not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get project", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, project)
}

// CreateProject creates a new project.
func (c *Controller) CreateProject(ctx echo.Context) error {
	var req ProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Name == "" {
		return c.HandleError(ctx, nil, "Project name is required", http.StatusBadRequest)
	}

	project := datastore.Project{Name: req.Name, Description: req.Description}
	if err := c.DS.CreateProject(&project); err != nil {
		return c.HandleError(ctx, err, "Failed to create project", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, project)
}

// UpdateProject updates a project's name and description.
func (c *Controller) UpdateProject(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid project ID", http.StatusBadRequest)
	}

	var req ProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	project, err := c.DS.GetProject(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Project not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get project", http.StatusInternalServerError)
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	project.Description = req.Description
	if err := c.DS.UpdateProject(&project); err != nil {
		return c.HandleError(ctx, err, "Failed to update project", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, project)
}

// DeleteProject removes a project and everything under it.
func (c *Controller) DeleteProject(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid project ID", http.StatusBadRequest)
	}

	if err := c.DS.DeleteProject(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Project not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to delete project", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetRepositories returns the repositories of a project.
func (c *Controller) GetRepositories(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid project ID", http.StatusBadRequest)
	}

	repos, err := c.DS.GetRepositories(id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list repositories", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, repos)
}

// CreateRepository creates a repository under a project.
func (c *Controller) CreateRepository(ctx echo.Context) error {
	projectID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid project ID", http.StatusBadRequest)
	}

	var req RepositoryRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Name == "" {
		return c.HandleError(ctx, nil, "Repository name is required", http.StatusBadRequest)
	}

	if _, err := c.DS.GetProject(projectID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Project not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get project", http.StatusInternalServerError)
	}

	repo := datastore.Repository{ProjectID: projectID, Name: req.Name, Description: req.Description}
	if err := c.DS.CreateRepository(&repo); err != nil {
		return c.HandleError(ctx, err, "Failed to create repository", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, repo)
}

// UpdateRepository updates a repository's name and description.
func (c *Controller) UpdateRepository(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	var req RepositoryRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	repo, err := c.DS.GetRepository(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Repository not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get repository", http.StatusInternalServerError)
	}

	if req.Name != "" {
		repo.Name = req.Name
	}
	repo.Description = req.Description
	if err := c.DS.UpdateRepository(&repo); err != nil {
		return c.HandleError(ctx, err, "Failed to update repository", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, repo)
}

// DeleteRepository removes a repository and everything under it.
func (c *Controller) DeleteRepository(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid repository ID", http.StatusBadRequest)
	}

	if err := c.DS.DeleteRepository(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return c.HandleError(ctx, err, "Repository not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to delete repository", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}
