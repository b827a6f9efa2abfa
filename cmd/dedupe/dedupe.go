// Package dedupe implements the duplicate scan and merge subcommand.
package dedupe

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qahub/qa-hub/internal/conf"
	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/merge"
	"github.com/qahub/qa-hub/internal/similarity"
)

// Command creates the dedupe subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var suiteID uint
	var doMerge bool

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Find duplicate test cases in a suite",
		Long: "Group a suite's test cases by title similarity. With --merge, collapse " +
			"every group into its newest case; older cases backfill empty fields and are deleted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(cmd.Context(), settings, suiteID, doMerge)
		},
	}

	cmd.Flags().UintVar(&suiteID, "suite", 0, "ID of the suite to scan")
	_ = cmd.MarkFlagRequired("suite")
	cmd.Flags().BoolVar(&doMerge, "merge", false, "Merge each duplicate group into its newest case")

	return cmd
}

func runDedupe(ctx context.Context, settings *conf.Settings, suiteID uint, doMerge bool) error {
	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = ds.Close() }()

	cases, err := ds.GetTestCasesBySuite(suiteID)
	if err != nil {
		return fmt.Errorf("listing cases of suite %d: %w", suiteID, err)
	}

	byID := make(map[uint]datastore.TestCase, len(cases))
	records := make([]similarity.Record, 0, len(cases))
	for _, tc := range cases {
		byID[tc.ID] = tc
		records = append(records, similarity.Record{ID: tc.ID, Title: tc.Title})
	}

	groups := similarity.GroupDuplicates(records)
	if len(groups) == 0 {
		fmt.Printf("No duplicates found among %d cases\n", len(cases))
		return nil
	}

	// The configured threshold trims the listing only; --merge still
	// collapses every engine group.
	visible := make([]similarity.Group, 0, len(groups))
	for _, g := range groups {
		if g.Score >= settings.Dedupe.Threshold {
			visible = append(visible, g)
		}
	}
	for i, g := range visible {
		fmt.Printf("Group %d (score %.1f):\n", i+1, g.Score)
		for _, r := range g.Records {
			fmt.Printf("  #%d %s\n", r.ID, r.Title)
		}
	}

	if !doMerge {
		fmt.Printf("%d duplicate groups; re-run with --merge to collapse them\n", len(visible))
		return nil
	}

	batches := make([][]datastore.TestCase, 0, len(groups))
	for _, g := range groups {
		batch := make([]datastore.TestCase, 0, len(g.Records))
		for _, r := range g.Records {
			batch = append(batch, byID[r.ID])
		}
		batches = append(batches, batch)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := merge.NewEngine(ds)
	result, err := engine.MergeAll(ctx, batches)
	if err != nil {
		return fmt.Errorf("merge interrupted after %d groups: %w", result.Merged, err)
	}

	fmt.Printf("Merged %d groups, deleted %d cases, %d groups failed\n",
		result.Merged, result.Deleted, result.Failed)
	for _, msg := range result.Errors {
		fmt.Printf("  %s\n", msg)
	}
	return nil
}
