package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qahub/qa-hub/internal/csvfile"
	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

type fakeStore struct {
	suites   map[uint]datastore.Suite
	cases    map[uint]datastore.TestCase
	nextID   uint
	failRows map[string]bool // titles whose create/update should fail
	created  []string
	updated  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		suites:   make(map[uint]datastore.Suite),
		cases:    make(map[uint]datastore.TestCase),
		nextID:   100,
		failRows: make(map[string]bool),
	}
}

func (f *fakeStore) GetSuite(id uint) (datastore.Suite, error) {
	s, ok := f.suites[id]
	if !ok {
		return datastore.Suite{}, datastore.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) CreateSuite(suite *datastore.Suite) error {
	f.nextID++
	suite.ID = f.nextID
	f.suites[suite.ID] = *suite
	return nil
}

func (f *fakeStore) GetTestCasesBySuite(suiteID uint) ([]datastore.TestCase, error) {
	var out []datastore.TestCase
	for _, tc := range f.cases {
		if tc.SuiteID == suiteID {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTestCase(tc *datastore.TestCase) error {
	if f.failRows[tc.Title] {
		return errors.NewStd("create rejected")
	}
	f.nextID++
	tc.ID = f.nextID
	f.cases[tc.ID] = *tc
	f.created = append(f.created, tc.Title)
	return nil
}

func (f *fakeStore) UpdateTestCase(tc *datastore.TestCase) error {
	if f.failRows[tc.Title] {
		return errors.NewStd("update rejected")
	}
	f.cases[tc.ID] = *tc
	f.updated = append(f.updated, tc.Title)
	return nil
}

func (f *fakeStore) seedSuite(id uint) {
	f.suites[id] = datastore.Suite{ID: id, RepositoryID: 1, Title: "Seeded"}
}

func (f *fakeStore) seedCase(suiteID uint, title string) uint {
	f.nextID++
	f.cases[f.nextID] = datastore.TestCase{ID: f.nextID, SuiteID: suiteID, Title: title}
	return f.nextID
}

func rows(titles ...string) []csvfile.ParsedRow {
	out := make([]csvfile.ParsedRow, 0, len(titles))
	for _, t := range titles {
		out = append(out, csvfile.ParsedRow{Title: t, Priority: 2, Severity: "Moderate"})
	}
	return out
}

func TestImportCreatesAndUpdatesByNormalizedTitle(t *testing.T) {
	store := newFakeStore()
	store.seedSuite(5)
	existingID := store.seedCase(5, "Login works")

	rec := NewReconciler(store, "importer@qa")
	desc := "refreshed"
	in := []csvfile.ParsedRow{
		{Title: "  LOGIN WORKS ", Description: &desc, Priority: 3, Severity: "Major"},
		{Title: "Logout works", Priority: 2, Severity: "Moderate"},
	}

	result, err := rec.Import(context.Background(), 5, nil, in)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ImportID)
	assert.Equal(t, uint(5), result.SuiteID)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Failed)

	updated := store.cases[existingID]
	assert.Equal(t, "  LOGIN WORKS ", updated.Title)
	assert.Equal(t, "refreshed", updated.Description)
	assert.Equal(t, 3, updated.Priority)
	assert.Equal(t, "importer@qa", updated.UpdatedBy)

	require.Len(t, store.created, 1)
	assert.Equal(t, "Logout works", store.created[0])
}

func TestImportRecordsFailuresAndContinues(t *testing.T) {
	store := newFakeStore()
	store.seedSuite(5)
	store.failRows["Broken row"] = true

	rec := NewReconciler(store, "qa")
	result, err := rec.Import(context.Background(), 5, nil, rows("First", "Broken row", "Last"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, "Broken row", result.Failures[0].Title)
	assert.Contains(t, result.Failures[0].Message, "create rejected")
	assert.Equal(t, []string{"First", "Last"}, store.created)
}

func TestImportReportsProgressAfterEveryRow(t *testing.T) {
	store := newFakeStore()
	store.seedSuite(5)

	rec := NewReconciler(store, "qa")
	var seen []Progress
	rec.OnProgress(func(p Progress) { seen = append(seen, p) })

	_, err := rec.Import(context.Background(), 5, nil, rows("a", "b", "c"))
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, Progress{Current: 1, Total: 3}, seen[0])
	assert.Equal(t, Progress{Current: 3, Total: 3}, seen[2])
}

func TestImportRestoresMissingSuiteFromLocalList(t *testing.T) {
	store := newFakeStore()
	order := 2
	local := []datastore.Suite{
		{ID: 9, RepositoryID: 1, Title: "Checkout", Order: &order},
	}

	rec := NewReconciler(store, "qa")
	result, err := rec.Import(context.Background(), 9, local, rows("Pay with card"))
	require.NoError(t, err)

	restored, ok := store.suites[result.SuiteID]
	require.True(t, ok)
	assert.Equal(t, "Checkout", restored.Title)
	assert.Equal(t, uint(1), restored.RepositoryID)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, result.SuiteID, store.cases[store.nextID].SuiteID)
}

func TestImportFallsBackToTimestampSuite(t *testing.T) {
	store := newFakeStore()

	rec := NewReconciler(store, "qa")
	result, err := rec.Import(context.Background(), 42, nil, rows("Orphan row"))
	require.NoError(t, err)

	fallback, ok := store.suites[result.SuiteID]
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(fallback.Title, "Imported "))
	assert.Equal(t, 1, result.Created)
}

func TestImportStopsBetweenRowsOnCancellation(t *testing.T) {
	store := newFakeStore()
	store.seedSuite(5)

	ctx, cancel := context.WithCancel(context.Background())
	rec := NewReconciler(store, "qa")
	rec.OnProgress(func(p Progress) {
		if p.Current == 1 {
			cancel()
		}
	})

	result, err := rec.Import(ctx, 5, nil, rows("a", "b", "c"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Created)
	assert.Len(t, store.created, 1)
}
