// Package template implements the CSV template subcommand.
package template

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qahub/qa-hub/internal/conf"
	"github.com/qahub/qa-hub/internal/csvfile"
)

// Command creates the template subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the CSV import template",
		Long:  "Print the semicolon-delimited import template with example rows, or write it to a file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := csvfile.Template()
			if output == "" {
				fmt.Print(text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("writing template: %w", err)
			}
			fmt.Printf("Template written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write the template to (default stdout)")

	return cmd
}
