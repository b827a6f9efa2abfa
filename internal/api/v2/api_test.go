package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/qahub/qa-hub/internal/conf"
	"github.com/qahub/qa-hub/internal/datastore"
)

// testEnv wires a controller against a throwaway SQLite store.
type testEnv struct {
	controller *Controller
	echo       *echo.Echo
	ds         datastore.Interface
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	settings := &conf.Settings{}
	settings.Main.Name = "Qa-Hub Test"
	settings.Main.Log.Rotation = conf.RotationDaily
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	settings.Import.DefaultSeverity = "Moderate"
	conf.SetTestSettings(settings)

	ds := datastore.New(settings)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	e := echo.New()
	controller := NewWithOptions(e, ds, settings, nil, false)
	t.Cleanup(controller.Shutdown)

	return &testEnv{controller: controller, echo: e, ds: ds}
}

// newRequest builds an echo context around a JSON request.
func (env *testEnv) newRequest(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return env.echo.NewContext(req, rec), rec
}

// seedRepository creates a project and repository for suite tests.
func (env *testEnv) seedRepository(t *testing.T) uint {
	t.Helper()
	project := &datastore.Project{Name: "Payments"}
	require.NoError(t, env.ds.CreateProject(project))
	repo := &datastore.Repository{ProjectID: project.ID, Name: "Checkout Squad"}
	require.NoError(t, env.ds.CreateRepository(repo))
	return repo.ID
}

// seedSuite creates a suite in the repository.
func (env *testEnv) seedSuite(t *testing.T, repoID uint, title string) uint {
	t.Helper()
	suite := &datastore.Suite{RepositoryID: repoID, Title: title}
	require.NoError(t, env.ds.CreateSuite(suite))
	return suite.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnvironment(t)

	ctx, rec := env.newRequest(http.MethodGet, "/api/v2/health", "")
	require.NoError(t, env.controller.HealthCheck(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "connected", body["database_status"])
}

func TestErrorResponseCarriesCorrelationID(t *testing.T) {
	env := setupTestEnvironment(t)

	ctx, rec := env.newRequest(http.MethodGet, "/api/v2/projects/abc", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues("abc")

	require.NoError(t, env.controller.GetProject(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.CorrelationID, 8)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := setupTestEnvironment(t)
	env.controller.Settings.WebServer.AuthToken = "sekrit"

	handler := env.controller.AuthMiddleware(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusOK)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects", "")
		require.NoError(t, handler(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects", "")
		ctx.Request().Header.Set("Authorization", "Basic sekrit")
		require.NoError(t, handler(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects", "")
		ctx.Request().Header.Set("Authorization", "Bearer wrong")
		require.NoError(t, handler(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts valid token", func(t *testing.T) {
		ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects", "")
		ctx.Request().Header.Set("Authorization", "Bearer sekrit")
		require.NoError(t, handler(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled when no token configured", func(t *testing.T) {
		env.controller.Settings.WebServer.AuthToken = ""
		ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects", "")
		require.NoError(t, handler(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestProjectLifecycle(t *testing.T) {
	env := setupTestEnvironment(t)

	ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects",
		`{"name":"Payments","description":"Core payment flows"}`)
	require.NoError(t, env.controller.CreateProject(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)

	var project datastore.Project
	decodeBody(t, rec, &project)
	require.Equal(t, "Payments", project.Name)

	ctx, rec = env.newRequest(http.MethodGet, "/api/v2/projects", "")
	require.NoError(t, env.controller.GetProjects(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var projects []datastore.Project
	decodeBody(t, rec, &projects)
	require.Len(t, projects, 1)
}

func TestCreateProjectRequiresName(t *testing.T) {
	env := setupTestEnvironment(t)

	ctx, rec := env.newRequest(http.MethodPost, "/api/v2/projects", `{"description":"no name"}`)
	require.NoError(t, env.controller.CreateProject(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
