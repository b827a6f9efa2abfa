package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qahub/qa-hub/internal/datastore"
)

// seedPlan creates a plan with the given cases already in it, in order.
func (env *testEnv) seedPlan(t *testing.T, repoID uint, caseIDs ...uint) uint {
	t.Helper()
	plan := &datastore.TestPlan{RepositoryID: repoID, Title: "Release 2.4"}
	require.NoError(t, env.ds.CreateTestPlan(plan))
	for i, id := range caseIDs {
		require.NoError(t, env.ds.AddCaseToPlan(plan.ID, id, i+1))
	}
	return plan.ID
}

func TestReorderPlanCases(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Checkout")
	first := env.seedCase(t, suiteID, "Pay with card")
	second := env.seedCase(t, suiteID, "Pay with voucher")
	planID := env.seedPlan(t, repoID, first, second)

	body := fmt.Sprintf(`{"caseIds":[%d,%d]}`, second, first)
	ctx, rec := env.newRequest(http.MethodPut, "/api/v2/plans/1/cases/order", body)
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprintf("%d", planID))

	require.NoError(t, env.controller.ReorderPlanCases(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var plan datastore.TestPlan
	decodeBody(t, rec, &plan)
	require.Len(t, plan.Cases, 2)
	require.Equal(t, second, plan.Cases[0].CaseID)
	require.Equal(t, first, plan.Cases[1].CaseID)
}

func TestReorderPlanCasesRejectsForeignCase(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Checkout")
	member := env.seedCase(t, suiteID, "Pay with card")
	outsider := env.seedCase(t, suiteID, "Refund")
	planID := env.seedPlan(t, repoID, member)

	body := fmt.Sprintf(`{"caseIds":[%d,%d]}`, member, outsider)
	ctx, rec := env.newRequest(http.MethodPut, "/api/v2/plans/1/cases/order", body)
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprintf("%d", planID))

	require.NoError(t, env.controller.ReorderPlanCases(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// The transaction rolls back, so the member keeps its position.
	plan, err := env.ds.GetTestPlan(planID)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Cases[0].Position)
}

func TestRunSummaryCountsByStatus(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Checkout")
	caseIDs := []uint{
		env.seedCase(t, suiteID, "Pay with card"),
		env.seedCase(t, suiteID, "Pay with voucher"),
		env.seedCase(t, suiteID, "Refund"),
	}
	planID := env.seedPlan(t, repoID, caseIDs...)

	run := &datastore.TestRun{RepositoryID: repoID, PlanID: planID, Title: "Nightly"}
	require.NoError(t, env.ds.CreateTestRun(run))
	statuses := []string{datastore.ResultPass, datastore.ResultPass, datastore.ResultFail}
	for i, status := range statuses {
		result := &datastore.TestRunResult{RunID: run.ID, CaseID: caseIDs[i], Status: status}
		require.NoError(t, env.ds.RecordRunResult(result))
	}

	ctx, rec := env.newRequest(http.MethodGet, "/api/v2/runs/1/summary", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprintf("%d", run.ID))

	require.NoError(t, env.controller.GetRunSummary(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary RunSummary
	decodeBody(t, rec, &summary)
	require.Equal(t, 2, summary.Pass)
	require.Equal(t, 1, summary.Fail)
	require.Equal(t, 0, summary.Blocked)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, datastore.RunStatusOpen, summary.Status)
}

func TestRecordResultOnClosedRunConflicts(t *testing.T) {
	env := setupTestEnvironment(t)
	repoID := env.seedRepository(t)
	suiteID := env.seedSuite(t, repoID, "Checkout")
	caseID := env.seedCase(t, suiteID, "Pay with card")
	planID := env.seedPlan(t, repoID, caseID)

	run := &datastore.TestRun{RepositoryID: repoID, PlanID: planID, Title: "Nightly"}
	require.NoError(t, env.ds.CreateTestRun(run))
	require.NoError(t, env.ds.CloseTestRun(run.ID))

	body := fmt.Sprintf(`{"caseId":%d,"status":"pass"}`, caseID)
	ctx, rec := env.newRequest(http.MethodPost, "/api/v2/runs/1/results", body)
	ctx.SetParamNames("id")
	ctx.SetParamValues(fmt.Sprintf("%d", run.ID))

	require.NoError(t, env.controller.RecordRunResult(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)
}
