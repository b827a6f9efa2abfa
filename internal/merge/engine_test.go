package merge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

// fakeStore records calls and fails on request.
type fakeStore struct {
	updated      []datastore.TestCase
	deleted      []uint
	failUpdate   bool
	failDeleteID uint
}

func (f *fakeStore) UpdateTestCase(tc *datastore.TestCase) error {
	if f.failUpdate {
		return errors.NewStd("update rejected")
	}
	f.updated = append(f.updated, *tc)
	return nil
}

func (f *fakeStore) DeleteTestCase(id uint) error {
	if id == f.failDeleteID {
		return errors.NewStd("delete rejected")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestMergeFieldPrecedence(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	engine := NewEngine(store)

	keep := &datastore.TestCase{
		ID:       1,
		Title:    "Login works",
		Priority: 2,
		Severity: "Minor",
	}
	away := &datastore.TestCase{
		ID:          2,
		Title:       "login works (copy)",
		Description: "checks the happy path",
		Automated:   true,
		Priority:    3,
		Severity:    "Critical",
		Labels:      "smoke",
		EpicLink:    "EPIC-9",
	}

	merged, err := engine.Merge(keep, away)
	require.NoError(t, err)

	assert.Equal(t, "Login works", merged.Title, "keep title wins unconditionally")
	assert.True(t, merged.Automated, "booleans are OR'd")
	assert.Equal(t, 3, merged.Priority, "numeric maximum")
	assert.Equal(t, "Minor", merged.Severity, "keep's non-empty value wins")
	assert.Equal(t, "checks the happy path", merged.Description, "empty fields backfill")
	assert.Equal(t, "smoke", merged.Labels)
	assert.Equal(t, "EPIC-9", merged.EpicLink)

	require.Len(t, store.updated, 1)
	assert.Equal(t, []uint{2}, store.deleted)
}

func TestMergeUpdateFailureIssuesNoDelete(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failUpdate: true}
	engine := NewEngine(store)

	_, err := engine.Merge(&datastore.TestCase{ID: 1}, &datastore.TestCase{ID: 2})
	require.Error(t, err)
	assert.Empty(t, store.deleted)
}

func TestMergePartialFailureLeavesMergedState(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failDeleteID: 2}
	engine := NewEngine(store)

	merged, err := engine.Merge(
		&datastore.TestCase{ID: 1, Title: "keep"},
		&datastore.TestCase{ID: 2, Title: "away", Description: "leftover"},
	)
	require.Error(t, err, "delete failure is surfaced")
	require.NotNil(t, merged, "update already landed, merged state is returned")
	assert.Equal(t, "leftover", merged.Description)
	assert.Len(t, store.updated, 1, "no rollback of the update")
}

func TestMergeAllKeepsNewestAndBackfillsByRecency(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	engine := NewEngine(store)

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	group := []datastore.TestCase{
		{ID: 1, Title: "a", Description: "oldest description", Labels: "old", CreatedAt: t1},
		{ID: 2, Title: "b", Description: "middle description", Automated: true, CreatedAt: t2},
		{ID: 3, Title: "c", Priority: 1, CreatedAt: t3},
	}

	result, err := engine.MergeAll(context.Background(), [][]datastore.TestCase{group})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, result.Deleted)
	assert.ElementsMatch(t, []uint{1, 2}, store.deleted, "older records are deleted")

	require.Len(t, store.updated, 1)
	merged := store.updated[0]
	assert.Equal(t, uint(3), merged.ID, "newest record survives")
	assert.Equal(t, "c", merged.Title)
	assert.Equal(t, "middle description", merged.Description,
		"t2 backfills before t1 gets a chance")
	assert.Equal(t, "old", merged.Labels, "t1 fills fields t3 and t2 left empty")
	assert.True(t, merged.Automated)
}

func TestMergeAllIsolatesGroupFailures(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failDeleteID: 2}
	engine := NewEngine(store)

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bad := []datastore.TestCase{
		{ID: 1, Title: "bad", CreatedAt: t1},
		{ID: 2, Title: "bad copy", CreatedAt: t1.Add(-time.Hour)},
	}
	good := []datastore.TestCase{
		{ID: 3, Title: "good", CreatedAt: t1},
		{ID: 4, Title: "good copy", CreatedAt: t1.Add(-time.Hour)},
	}

	result, err := engine.MergeAll(context.Background(), [][]datastore.TestCase{bad, good})
	require.NoError(t, err, "per-group failures do not abort the batch")

	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "deleting case 2")
	assert.Contains(t, store.deleted, uint(4), "the good group still merged")
}

func TestMergeAllSkipsUndersizedGroups(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	engine := NewEngine(store)

	result, err := engine.MergeAll(context.Background(), [][]datastore.TestCase{
		{{ID: 1, Title: "solo"}},
	})
	require.NoError(t, err)
	assert.Zero(t, result.Merged)
	assert.Empty(t, store.updated)
}

func TestMergeAllHonorsCancellation(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	engine := NewEngine(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	group := []datastore.TestCase{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}
	result, err := engine.MergeAll(ctx, [][]datastore.TestCase{group})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Merged)
	assert.Empty(t, store.updated)
}
