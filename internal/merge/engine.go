// Package merge consolidates duplicate test cases: a two-way merge folding
// one record into another, and a batch mode that collapses whole duplicate
// groups automatically.
package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

// CaseStore is the slice of the datastore the engine needs.
type CaseStore interface {
	UpdateTestCase(tc *datastore.TestCase) error
	DeleteTestCase(id uint) error
}

// Engine merges duplicate test cases against a backing store.
type Engine struct {
	store CaseStore
}

// NewEngine returns an Engine backed by the given store.
func NewEngine(store CaseStore) *Engine {
	return &Engine{store: store}
}

// Merge folds away into keep, updates keep and deletes away. The two calls
// are not transactional: when the update lands but the delete fails, both
// records remain with merged data and the error is surfaced for the user to
// retry; nothing is rolled back.
func (e *Engine) Merge(keep, away *datastore.TestCase) (*datastore.TestCase, error) {
	merged := fold(*keep, *away)

	if err := e.store.UpdateTestCase(&merged); err != nil {
		return nil, errors.New(fmt.Errorf("updating surviving case: %w", err)).
			Component("merge").
			Category(errors.CategoryMerge).
			Context("keep_id", keep.ID).
			Build()
	}

	if err := e.store.DeleteTestCase(away.ID); err != nil {
		return &merged, errors.New(fmt.Errorf("deleting merged-away case: %w", err)).
			Component("merge").
			Category(errors.CategoryMerge).
			Context("keep_id", keep.ID).
			Context("away_id", away.ID).
			Context("partial", true).
			Build()
	}

	return &merged, nil
}

// fold applies the field precedence rules. The keep record's title always
// wins; boolean flags are OR'd; priority takes the numeric maximum; every
// other optional text field keeps the keep record's value unless it is
// empty, in which case the away record's value backfills it.
func fold(keep, away datastore.TestCase) datastore.TestCase {
	merged := keep

	merged.Automated = keep.Automated || away.Automated
	merged.Regression = keep.Regression || away.Regression
	if away.Priority > merged.Priority {
		merged.Priority = away.Priority
	}

	backfill(&merged.Description, away.Description)
	backfill(&merged.Severity, away.Severity)
	backfill(&merged.Labels, away.Labels)
	backfill(&merged.EpicLink, away.EpicLink)
	backfill(&merged.LinkedIssue, away.LinkedIssue)
	backfill(&merged.ReleaseVersion, away.ReleaseVersion)
	backfill(&merged.Platform, away.Platform)
	backfill(&merged.Data, away.Data)

	return merged
}

func backfill(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

// BatchResult is the user-visible outcome of a merge-all run.
type BatchResult struct {
	Merged  int      `json:"merged"`  // groups collapsed successfully
	Failed  int      `json:"failed"`  // groups that hit an error
	Deleted int      `json:"deleted"` // individual records removed
	Errors  []string `json:"errors,omitempty"`
}

// MergeAll collapses every group in a batch. Within a group the newest
// record (by creation time) survives and each older record backfills only
// fields still empty after the records newer than it have been folded in.
// One group's failure never blocks the rest; failures are accumulated into
// the result. The context is checked between groups so a long batch can be
// cancelled cooperatively.
func (e *Engine) MergeAll(ctx context.Context, groups [][]datastore.TestCase) (*BatchResult, error) {
	result := &BatchResult{}

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if len(group) < 2 {
			continue
		}

		if err := e.mergeGroup(group, result); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Merged++
	}

	return result, nil
}

func (e *Engine) mergeGroup(group []datastore.TestCase, result *BatchResult) error {
	members := make([]datastore.TestCase, len(group))
	copy(members, group)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})

	merged := members[0]
	for _, older := range members[1:] {
		merged = fold(merged, older)
	}

	if err := e.store.UpdateTestCase(&merged); err != nil {
		return fmt.Errorf("group for %q: updating surviving case %d: %w", merged.Title, merged.ID, err)
	}

	for _, older := range members[1:] {
		if err := e.store.DeleteTestCase(older.ID); err != nil {
			return fmt.Errorf("group for %q: deleting case %d: %w", merged.Title, older.ID, err)
		}
		result.Deleted++
	}

	return nil
}
