package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/merge"
)

func TestScanDuplicates(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Login")

	env.seedCase(t, suiteID, "Login with valid credentials")
	env.seedCase(t, suiteID, "login  with   valid credentials")
	env.seedCase(t, suiteID, "Reset password via email")

	ctx, rec := env.newRequest(http.MethodGet, "/api/v2/suites/1/duplicates", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprint(suiteID))

	require.NoError(t, env.controller.ScanDuplicates(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var groups []DuplicateGroup
	decodeBody(t, rec, &groups)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Cases, 2)
	assert.InDelta(t, 95.0, groups[0].Score, 0.01)
}

func TestScanDuplicatesDisplayThreshold(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Login")

	// One exact pair at 100 and one whitespace variant pair at 95.
	env.seedCase(t, suiteID, "Login with valid credentials")
	env.seedCase(t, suiteID, "login  with   valid credentials")
	env.seedCase(t, suiteID, "Reset password via email")
	env.seedCase(t, suiteID, "Reset password via email")

	env.controller.Settings.Dedupe.Threshold = 96

	ctx, rec := env.newRequest(http.MethodGet, "/api/v2/suites/1/duplicates", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprint(suiteID))

	require.NoError(t, env.controller.ScanDuplicates(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var groups []DuplicateGroup
	decodeBody(t, rec, &groups)
	require.Len(t, groups, 1, "below-threshold group is not shown")
	assert.InDelta(t, 100.0, groups[0].Score, 0.01)
}

func TestMergeTestCases(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Login")

	keep := &datastore.TestCase{SuiteID: suiteID, Title: "Login works", Priority: 2, Severity: "Moderate"}
	require.NoError(t, env.ds.CreateTestCase(keep))
	away := &datastore.TestCase{
		SuiteID: suiteID, Title: "Login works!", Priority: 3, Severity: "Moderate",
		Description: "Covers the happy path", Automated: true,
	}
	require.NoError(t, env.ds.CreateTestCase(away))

	body := fmt.Sprintf(`{"keepId":%d,"awayId":%d}`, keep.ID, away.ID)
	ctx, rec := env.newRequest(http.MethodPost, "/api/v2/cases/merge", body)

	require.NoError(t, env.controller.MergeTestCases(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var merged datastore.TestCase
	decodeBody(t, rec, &merged)
	assert.Equal(t, "Login works", merged.Title)
	assert.Equal(t, 3, merged.Priority)
	assert.True(t, merged.Automated)
	assert.Equal(t, "Covers the happy path", merged.Description)

	_, err := env.ds.GetTestCase(away.ID)
	require.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestMergeTestCaseIntoItself(t *testing.T) {
	env := setupTestEnvironment(t)

	ctx, rec := env.newRequest(http.MethodPost, "/api/v2/cases/merge", `{"keepId":7,"awayId":7}`)
	require.NoError(t, env.controller.MergeTestCases(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMergeAllDuplicates(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Login")

	env.seedCase(t, suiteID, "Login with valid credentials")
	env.seedCase(t, suiteID, "Login with valid credentials")
	env.seedCase(t, suiteID, "Reset password via email")

	ctx, rec := env.newRequest(http.MethodPost, "/api/v2/suites/1/duplicates/merge-all", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprint(suiteID))

	require.NoError(t, env.controller.MergeAllDuplicates(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var result merge.BatchResult
	decodeBody(t, rec, &result)
	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 0, result.Failed)

	remaining, err := env.ds.GetTestCasesBySuite(suiteID)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
