package report

import (
	"fmt"
	"strings"

	"github.com/tast-lang/tast/internal/model"
)

// WritePlanDOT renders plan as a Graphviz digraph: one node per plan step,
// one edge per DependsOn relationship.
func WritePlanDOT(plan *model.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quoteIdent(plan.Meta.Name))
	b.WriteString("  rankdir=LR;\n")

	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "  %s [label=%q];\n", quoteIdent(step.Node), step.Node)
	}
	for _, step := range plan.Steps {
		for _, dep := range step.DependsOn {
			fmt.Fprintf(&b, "  %s -> %s;\n", quoteIdent(dep), quoteIdent(step.Node))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func quoteIdent(name string) string {
	return fmt.Sprintf("%q", name)
}
