package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tast-lang/tast/internal/report"
)

func newVisualizeCmd(buildApp func() (*AppContext, error)) *cobra.Command {
	opts := &planOptions{format: "dot"}

	cmd := &cobra.Command{
		Use:   "visualize <file>",
		Short: "Render a compiled plan as a graph diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			if opts.format != "dot" && opts.format != "mermaid" {
				return fmt.Errorf("visualize supports --format dot or mermaid, got %q", opts.format)
			}

			plan, err := compilePlan(args[0], opts)
			if err != nil {
				return err
			}

			var text string
			switch opts.format {
			case "mermaid":
				text = report.WritePlanMermaid(plan)
			default:
				text = report.WritePlanDOT(plan)
			}

			if opts.output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			return os.WriteFile(opts.output, []byte(text), 0o644)
		},
	}

	addPlanFlags(cmd, opts)
	// addPlanFlags registers --format with the plan command's yaml default;
	// visualize renders DOT unless --format says otherwise.
	opts.format = "dot"
	formatFlag := cmd.Flags().Lookup("format")
	formatFlag.DefValue = "dot"
	formatFlag.Usage = "output format: dot|mermaid"
	return cmd
}
