package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/internal/widget"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check YAML form definitions and preview their steps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, path := range args {
				if err := validateFile(cmd.OutOrStdout(), path); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d definitions invalid", bad, len(args))
			}
			return nil
		},
	}
}

func validateFile(w io.Writer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var d form.Draft
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	p, warnings, err := form.Build(d, "feedbackctl")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: ok, %q with %d steps (%s theme)\n", path, p.Name, len(p.Fields), p.Theme)
	for i, f := range p.Fields {
		ctl, err := widget.Render(f, p.Theme, nil, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, describe(ctl))
	}
	for _, wn := range warnings {
		fmt.Fprintf(w, "  warning: %s\n", wn.Message)
	}
	return nil
}

func describe(ctl widget.Control) string {
	f := ctl.Field()
	label := f.Label
	if f.Required {
		label += " *"
	}
	switch c := ctl.(type) {
	case *widget.TextControl:
		return fmt.Sprintf("%s [%s input]", label, c.InputType())
	case *widget.TextAreaControl:
		return label + " [multi-line]"
	case *widget.ChoiceControl:
		vals := make([]string, len(c.Choices))
		for i, ch := range c.Choices {
			vals[i] = ch.Label
		}
		return fmt.Sprintf("%s [one of: %s]", label, strings.Join(vals, ", "))
	case *widget.SliderControl:
		return fmt.Sprintf("%s [%s..%s step %s]", label, form.Text(c.Min), form.Text(c.Max), form.Text(c.Step))
	}
	return label
}
