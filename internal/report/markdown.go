package report

import (
	"fmt"
	"strings"

	"github.com/tast-lang/tast/internal/model"
)

// WritePlanMarkdown renders a human-readable table of plan's steps.
func WritePlanMarkdown(plan *model.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", plan.Meta.Name)
	fmt.Fprintf(&b, "Traversal: %s · Nodes: %d · Edges: %d\n\n", plan.Meta.Traversal, plan.Meta.NodesTotal, plan.Meta.EdgesTotal)

	b.WriteString("| Order | Node | Depends On | Tags |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			step.Order, step.Node, strings.Join(step.DependsOn, ", "), strings.Join(step.Tags, ", "))
	}
	return b.String()
}

// WriteRunReportMarkdown renders a human-readable summary of report.
func WriteRunReportMarkdown(report *model.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s run report\n\n", report.Plan.Name)
	fmt.Fprintf(&b, "Backend: %s · Duration: %dms\n\n", report.Run.Backend, report.Run.DurationMs)
	fmt.Fprintf(&b, "Results: %d passed, %d failed, %d skipped, %d errors (total %d)\n\n",
		report.Summary.Passed, report.Summary.Failed, report.Summary.Skipped, report.Summary.Errors, report.Summary.Total)

	b.WriteString("| Order | Node | Status | Duration (ms) |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, res := range report.Results {
		fmt.Fprintf(&b, "| %d | %s | %s | %d |\n", res.Order, res.Node, res.Status, res.DurationMs)
		if res.Error != nil {
			fmt.Fprintf(&b, "|  |  | → %s: %s |  |\n", res.Error.Kind, res.Error.Message)
		}
	}
	return b.String()
}
