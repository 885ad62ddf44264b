package report

import (
	"fmt"
	"strings"

	"github.com/tast-lang/tast/internal/model"
)

// WritePlanMermaid renders plan as a Mermaid flowchart, top to bottom.
func WritePlanMermaid(plan *model.Plan) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "  %s[%q]\n", mermaidID(step.Node), step.Node)
	}
	for _, step := range plan.Steps {
		for _, dep := range step.DependsOn {
			fmt.Fprintf(&b, "  %s --> %s\n", mermaidID(dep), mermaidID(step.Node))
		}
	}

	return b.String()
}

func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
}
