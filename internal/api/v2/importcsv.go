// internal/api/v2/importcsv.go
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qahub/qa-hub/internal/csvfile"
	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/importer"
)

// initImportRoutes registers CSV import endpoints
func (c *Controller) initImportRoutes() {
	c.Group.GET("/import/template", c.GetImportTemplate)
	c.Group.POST("/suites/:id/import", c.ImportTestCases, c.AuthMiddleware)
}

// GetImportTemplate serves the downloadable CSV template with the expected
// header and two example rows.
func (c *Controller) GetImportTemplate(ctx echo.Context) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="test-case-template.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(csvfile.Template()))
}

// ImportTestCases parses an uploaded CSV/TSV file and reconciles its rows
// into the target suite. The file is read from the "file" multipart field,
// falling back to the raw request body.
func (c *Controller) ImportTestCases(ctx echo.Context) error {
	suiteID, err := idParam(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid suite ID", http.StatusBadRequest)
	}

	text, err := readUpload(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusBadRequest)
	}
	if text == "" {
		return c.HandleError(ctx, nil, "Uploaded file is empty", http.StatusBadRequest)
	}

	parser := csvfile.NewParser()
	parser.DefaultSeverity = c.Settings.Import.DefaultSeverity
	if c.Settings.Import.ListSeparator != "" {
		parser.ListSeparator = c.Settings.Import.ListSeparator
	}
	rows, err := parser.Parse(text)
	if err != nil {
		var enhanced *errors.EnhancedError
		if errors.As(err, &enhanced) && enhanced.GetCategory() == string(errors.CategoryCSVParsing) {
			return c.HandleError(ctx, err, "Could not parse uploaded file", http.StatusUnprocessableEntity)
		}
		return c.HandleError(ctx, err, "Failed to parse uploaded file", http.StatusInternalServerError)
	}
	if len(rows) == 0 {
		return c.HandleError(ctx, nil, "Uploaded file contains no importable rows", http.StatusUnprocessableEntity)
	}

	rec := importer.NewReconciler(c.DS, actorFromRequest(ctx))
	result, err := rec.Import(ctx.Request().Context(), suiteID, nil, rows)
	if err != nil {
		return c.HandleError(ctx, err, "Import failed", http.StatusInternalServerError)
	}
	c.invalidateSuiteTree(result.SuiteID)

	c.logAPIRequest(ctx, slog.LevelInfo, "CSV import completed",
		"import_id", result.ImportID,
		"suite_id", result.SuiteID,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
	)

	if result.Failed > 0 {
		return ctx.JSON(http.StatusMultiStatus, result)
	}
	return ctx.JSON(http.StatusOK, result)
}

// readUpload extracts the uploaded file text from a multipart form or the
// raw body.
func readUpload(ctx echo.Context) (string, error) {
	if file, err := ctx.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = src.Close() }()

		data, err := io.ReadAll(src)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// actorFromRequest derives the audit identity of the caller.
func actorFromRequest(ctx echo.Context) string {
	if actor := ctx.Request().Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
