package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/internal/summary"
)

func newSummarizeCmd() *cobra.Command {
	var save, asJSON bool
	cmd := &cobra.Command{
		Use:   "summarize PROJECT_ID",
		Short: "Summarize every response of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withData(ctx, func(cfg *config.Config, d *data) error {
				p, err := d.projects.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("project %s: %w", args[0], err)
				}
				list, err := d.feedback.ListByProject(ctx, p.ID)
				if err != nil {
					return err
				}
				gen, model, err := newGenerator(ctx, cfg)
				if err != nil {
					return err
				}
				rec, err := summary.NewSummarizer(gen, model).WithTimeout(cfg.Summarizer.Timeout).Summarize(ctx, p, list)
				if err != nil {
					return err
				}
				if save {
					if err := d.summaries.Save(ctx, rec); err != nil {
						return fmt.Errorf("save summary: %w", err)
					}
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(rec)
				}
				fmt.Fprintf(out, "%s (%d responses)\n\nTL;DR: %s\n", p.Name, rec.Responses, rec.Summary.TLDR)
				if len(rec.Summary.KeyFeatures) > 0 {
					fmt.Fprintln(out, "\nKey features:")
					for _, f := range rec.Summary.KeyFeatures {
						fmt.Fprintf(out, "  - %s\n", f)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the summary as the project's latest")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored record as JSON")
	return cmd
}
