package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/internal/export"
)

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export PROJECT_ID",
		Short: "Write a project's responses as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withData(ctx, func(_ *config.Config, d *data) error {
				p, err := d.projects.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("project %s: %w", args[0], err)
				}
				list, err := d.feedback.ListByProject(ctx, p.ID)
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := export.WriteCSV(w, p, list); err != nil {
					return err
				}
				if output != "" && output != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(list), output)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}
