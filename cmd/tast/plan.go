package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/planner"
	"github.com/tast-lang/tast/internal/report"
)

type planOptions struct {
	graph    string
	strategy string
	filter   string
	from     string
	to       string
	format   string
	output   string
}

func (o planOptions) validate() error {
	if (o.from == "") != (o.to == "") {
		return fmt.Errorf("--from and --to must both be given or both omitted")
	}
	return nil
}

func newPlanCmd(buildApp func() (*AppContext, error)) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Compile a scenario file into a linear test plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			plan, err := compilePlan(args[0], opts)
			if err != nil {
				return err
			}
			return writePlan(cmd, plan, opts.format, opts.output)
		},
	}

	addPlanFlags(cmd, opts)
	return cmd
}

func addPlanFlags(cmd *cobra.Command, opts *planOptions) {
	cmd.Flags().StringVar(&opts.graph, "graph", "", "graph name to select, if the file declares more than one")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "topological", "traversal strategy: topological|dfs|bfs")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "tag filter predicate")
	cmd.Flags().StringVar(&opts.from, "from", "", "restrict the plan to the shortest path starting at this node")
	cmd.Flags().StringVar(&opts.to, "to", "", "restrict the plan to the shortest path ending at this node")
	cmd.Flags().StringVar(&opts.format, "format", "yaml", "output format: yaml|json|dot|mermaid|markdown")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to this file instead of stdout")
}

func compilePlan(path string, opts *planOptions) (*model.Plan, error) {
	g, err := loadGraph(path, opts.graph)
	if err != nil {
		return nil, err
	}

	if opts.from != "" {
		indices, err := g.ShortestPath(opts.from, opts.to)
		if err != nil {
			return nil, err
		}
		g = g.InducedSubgraph(indices)
	}

	plan, err := planner.Compile(g, opts.strategy)
	if err != nil {
		return nil, err
	}

	if opts.filter != "" {
		plan = planner.Filter(plan, planner.ParseFilter(opts.filter))
	}

	return plan, nil
}

func writePlan(cmd *cobra.Command, plan *model.Plan, format, output string) error {
	var data []byte
	var text string
	var err error

	switch format {
	case "json":
		data, err = report.WritePlanJSON(plan)
	case "dot":
		text = report.WritePlanDOT(plan)
	case "mermaid":
		text = report.WritePlanMermaid(plan)
	case "markdown":
		text = report.WritePlanMarkdown(plan)
	default:
		data, err = report.WritePlanYAML(plan)
	}
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte(text)
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o644)
}
