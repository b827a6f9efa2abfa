// Package importer reconciles parsed CSV/TSV rows against a suite's
// existing test cases, deciding create-vs-update by normalized title and
// driving the store calls one row at a time.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qahub/qa-hub/internal/csvfile"
	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/testcase"
)

// Store is the slice of the datastore the reconciler needs.
type Store interface {
	GetSuite(id uint) (datastore.Suite, error)
	CreateSuite(suite *datastore.Suite) error
	GetTestCasesBySuite(suiteID uint) ([]datastore.TestCase, error)
	CreateTestCase(tc *datastore.TestCase) error
	UpdateTestCase(tc *datastore.TestCase) error
}

// Progress reports how far an import has come, after every row.
type Progress struct {
	Current int
	Total   int
}

// ProgressFunc receives progress updates; may be nil.
type ProgressFunc func(Progress)

// RowFailure records one row the reconciler could not apply.
type RowFailure struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Result is the outcome of an import: created and updated both count as
// success, failures carry enough detail to point at the offending row.
// ImportID identifies the batch in logs and responses.
type Result struct {
	ImportID string       `json:"importId"`
	SuiteID  uint         `json:"suiteId"`
	Created  int          `json:"created"`
	Updated  int          `json:"updated"`
	Failed   int          `json:"failed"`
	Failures []RowFailure `json:"failures,omitempty"`
}

// Reconciler imports parsed rows into a suite.
type Reconciler struct {
	store    Store
	actor    string
	progress ProgressFunc
}

// NewReconciler returns a Reconciler writing through the given store.
// actor is recorded on the audit fields of created and updated cases.
func NewReconciler(store Store, actor string) *Reconciler {
	return &Reconciler{store: store, actor: actor}
}

// OnProgress registers a callback invoked after every processed row.
func (r *Reconciler) OnProgress(fn ProgressFunc) {
	r.progress = fn
}

// Import processes rows in order against the target suite. Rows whose
// normalized title matches an existing case become updates, the rest become
// creates. A failing row is recorded and skipped; the batch always runs to
// the end unless the context is cancelled between rows.
//
// localSuites covers the race between suite creation and upload in the
// surrounding workflow: when the target suite is missing server-side it is
// restored from this list, or replaced with a fresh timestamp-named suite.
func (r *Reconciler) Import(ctx context.Context, suiteID uint, localSuites []datastore.Suite, rows []csvfile.ParsedRow) (*Result, error) {
	suite, err := r.resolveSuite(suiteID, localSuites)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.GetTestCasesBySuite(suite.ID)
	if err != nil {
		return nil, errors.New(fmt.Errorf("listing existing cases: %w", err)).
			Component("importer").
			Category(errors.CategoryImport).
			Context("suite_id", suite.ID).
			Build()
	}

	byTitle := make(map[string]datastore.TestCase, len(existing))
	for _, tc := range existing {
		byTitle[normalizeTitle(tc.Title)] = tc
	}

	result := &Result{ImportID: uuid.NewString(), SuiteID: suite.ID}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := r.applyRow(suite.ID, row, byTitle); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, RowFailure{
				Index:   i,
				Title:   row.Title,
				Message: err.Error(),
			})
		} else if _, existed := byTitle[normalizeTitle(row.Title)]; existed {
			result.Updated++
		} else {
			result.Created++
		}

		if r.progress != nil {
			r.progress(Progress{Current: i + 1, Total: len(rows)})
		}
	}

	return result, nil
}

// resolveSuite returns the target suite, restoring or replacing it when it
// does not exist server-side.
func (r *Reconciler) resolveSuite(suiteID uint, localSuites []datastore.Suite) (datastore.Suite, error) {
	suite, err := r.store.GetSuite(suiteID)
	if err == nil {
		return suite, nil
	}
	if !errors.Is(err, datastore.ErrNotFound) {
		return datastore.Suite{}, errors.New(fmt.Errorf("resolving target suite: %w", err)).
			Component("importer").
			Category(errors.CategoryImport).
			Context("suite_id", suiteID).
			Build()
	}

	for _, local := range localSuites {
		if local.ID == suiteID {
			restored := datastore.Suite{
				RepositoryID: local.RepositoryID,
				ParentID:     local.ParentID,
				Title:        local.Title,
				Order:        local.Order,
			}
			if err := r.store.CreateSuite(&restored); err != nil {
				return datastore.Suite{}, errors.New(fmt.Errorf("restoring suite: %w", err)).
					Component("importer").
					Category(errors.CategoryImport).
					Build()
			}
			return restored, nil
		}
	}

	fresh := datastore.Suite{
		Title: "Imported " + time.Now().Format("2006-01-02 15:04:05"),
	}
	if err := r.store.CreateSuite(&fresh); err != nil {
		return datastore.Suite{}, errors.New(fmt.Errorf("creating fallback suite: %w", err)).
			Component("importer").
			Category(errors.CategoryImport).
			Build()
	}
	return fresh, nil
}

func (r *Reconciler) applyRow(suiteID uint, row csvfile.ParsedRow, byTitle map[string]datastore.TestCase) error {
	if existing, ok := byTitle[normalizeTitle(row.Title)]; ok {
		r.populate(&existing, row)
		existing.UpdatedBy = r.actor
		return r.store.UpdateTestCase(&existing)
	}

	tc := datastore.TestCase{SuiteID: suiteID}
	r.populate(&tc, row)
	tc.CreatedBy = r.actor
	tc.UpdatedBy = r.actor
	return r.store.CreateTestCase(&tc)
}

func (r *Reconciler) populate(tc *datastore.TestCase, row csvfile.ParsedRow) {
	tc.Title = row.Title
	tc.Automated = row.Automated
	tc.Regression = row.Regression
	tc.Priority = row.Priority
	tc.Severity = row.Severity

	if row.Description != nil {
		tc.Description = *row.Description
	}
	if row.Labels != nil {
		tc.Labels = *row.Labels
	}
	if row.EpicLink != nil {
		tc.EpicLink = *row.EpicLink
	}
	if row.LinkedIssue != nil {
		tc.LinkedIssue = *row.LinkedIssue
	}
	if row.ReleaseVersion != nil {
		tc.ReleaseVersion = *row.ReleaseVersion
	}
	if row.Platform != nil {
		tc.Platform = *row.Platform
	}
	if row.Data != nil {
		if blob, err := testcase.MarshalData(row.Data); err == nil {
			tc.Data = blob
		}
	}
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
