package report_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/report"
)

func samplePlan() *model.Plan {
	return &model.Plan{
		Meta: model.PlanMeta{Name: "Checkout", Traversal: "topological", NodesTotal: 2, EdgesTotal: 1},
		Steps: []model.PlanStep{
			{Order: 1, Node: "CreateCart", Tags: []string{"smoke"}},
			{Order: 2, Node: "AddItem", DependsOn: []string{"CreateCart"}, Inputs: []model.Input{{Field: "cart_id", From: "CreateCart"}}},
		},
	}
}

func TestPlanYAMLRoundTrip(t *testing.T) {
	plan := samplePlan()
	data, err := report.WritePlanYAML(plan)
	require.NoError(t, err)

	got, err := report.ReadPlanYAML(data)
	require.NoError(t, err)
	if diff := cmp.Diff(plan, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanJSONRoundTrip(t *testing.T) {
	plan := samplePlan()
	data, err := report.WritePlanJSON(plan)
	require.NoError(t, err)

	got, err := report.ReadPlanJSON(data)
	require.NoError(t, err)
	if diff := cmp.Diff(plan, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePlanDOTContainsEdges(t *testing.T) {
	out := report.WritePlanDOT(samplePlan())
	assert.Contains(t, out, `"CreateCart" -> "AddItem"`)
}

func TestWritePlanMermaidContainsEdges(t *testing.T) {
	out := report.WritePlanMermaid(samplePlan())
	assert.Contains(t, out, "CreateCart --> AddItem")
}

func TestWritePlanMarkdownListsSteps(t *testing.T) {
	out := report.WritePlanMarkdown(samplePlan())
	assert.Contains(t, out, "CreateCart")
	assert.Contains(t, out, "AddItem")
}

func TestWriteRunReportJUnit(t *testing.T) {
	rr := &model.RunReport{
		Plan: model.PlanMeta{Name: "Checkout"},
		Run:  model.RunMeta{Backend: "mock", DurationMs: 1200},
		Results: []model.StepResult{
			{Order: 1, Node: "CreateCart", Status: model.StatusPassed, DurationMs: 500},
			{Order: 2, Node: "AddItem", Status: model.StatusFailed, DurationMs: 700,
				Error: &model.ErrorInfo{Kind: "assertion-failed", Message: "cart not found"}},
		},
		Summary: model.Summary{Total: 2, Passed: 1, Failed: 1},
	}

	data, err := report.WriteRunReportJUnit(rr)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `name="Checkout"`)
	assert.Contains(t, body, `name="AddItem"`)
	assert.Contains(t, body, "cart not found")
}

func TestWriteRunReportMarkdownSummary(t *testing.T) {
	rr := &model.RunReport{
		Plan:    model.PlanMeta{Name: "Checkout"},
		Run:     model.RunMeta{Backend: "mock"},
		Summary: model.Summary{Total: 1, Passed: 1},
	}
	out := report.WriteRunReportMarkdown(rr)
	assert.Contains(t, out, "1 passed")
}
