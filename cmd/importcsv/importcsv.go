// Package importcsv implements the CSV/TSV import subcommand.
package importcsv

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qahub/qa-hub/internal/conf"
	"github.com/qahub/qa-hub/internal/csvfile"
	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/importer"
)

// Command creates the import subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var suiteID uint

	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Import test cases from a CSV/TSV file",
		Long: "Parse an exported CSV or TSV file and reconcile its rows into a suite: " +
			"rows matching an existing case title update that case, the rest create new cases.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), settings, args[0], suiteID)
		},
	}

	cmd.Flags().UintVar(&suiteID, "suite", 0, "ID of the target suite")
	_ = cmd.MarkFlagRequired("suite")
	cmd.Flags().StringVar(&settings.Import.DefaultSeverity, "severity", viper.GetString("import.defaultseverity"), "Severity assigned to rows with a blank severity cell")
	cmd.Flags().StringVar(&settings.Import.ListSeparator, "separator", viper.GetString("import.listseparator"), "Multi-value separator inside label cells")

	if err := viper.BindPFlag("import.defaultseverity", cmd.Flags().Lookup("severity")); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("import.listseparator", cmd.Flags().Lookup("separator")); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runImport(ctx context.Context, settings *conf.Settings, path string, suiteID uint) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	parser := csvfile.NewParser()
	parser.DefaultSeverity = settings.Import.DefaultSeverity
	if settings.Import.ListSeparator != "" {
		parser.ListSeparator = settings.Import.ListSeparator
	}
	rows, err := parser.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	fmt.Printf("Parsed %d rows from %s\n", len(rows), path)

	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = ds.Close() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := importer.NewReconciler(ds, currentUser())
	rec.OnProgress(func(p importer.Progress) {
		fmt.Printf("\rImporting %d/%d", p.Current, p.Total)
	})

	result, err := rec.Import(ctx, suiteID, nil, rows)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("import interrupted: %w", err)
	}

	fmt.Printf("Done: %d created, %d updated, %d failed (suite %d)\n",
		result.Created, result.Updated, result.Failed, result.SuiteID)
	for _, failure := range result.Failures {
		fmt.Printf("  row %d (%s): %s\n", failure.Index+1, failure.Title, failure.Message)
	}
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
