// Package planner compiles a built graph.Graph into a linear model.Plan
// and filters a compiled plan by a tag predicate.
package planner

import (
	"github.com/tast-lang/tast/internal/graph"
	"github.com/tast-lang/tast/internal/ir"
	"github.com/tast-lang/tast/internal/lang/ast"
	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/pkg/errors"
)

// Compile runs the chosen traversal strategy over g and produces a linear
// Plan: ordinal-numbered steps with predecessor names, input/output data
// wiring, and step categorisation. strategy is one of model.StrategyTopological
// (default), model.StrategyDFS, model.StrategyBFS.
func Compile(g *graph.Graph, strategy string) (*model.Plan, error) {
	if strategy == "" {
		strategy = model.StrategyTopological
	}

	var order []int
	switch strategy {
	case model.StrategyTopological:
		o, err := g.Topological()
		if err != nil {
			return nil, err
		}
		order = o
	case model.StrategyDFS:
		order = g.DFS()
	case model.StrategyBFS:
		order = g.BFS()
	default:
		return nil, errors.NewPlanError("unknown traversal strategy " + strategy)
	}

	plan := &model.Plan{
		Meta: model.PlanMeta{
			Name:       g.Name,
			Traversal:  strategy,
			NodesTotal: len(g.Nodes),
			EdgesTotal: len(g.Edges),
		},
	}

	for ord, nodeIdx := range order {
		node := g.Nodes[nodeIdx]
		incoming := g.Incoming(nodeIdx)

		step := model.PlanStep{
			Order:       ord + 1,
			Node:        node.Name,
			Description: node.Description,
			Tags:        append([]string(nil), node.Tags...),
		}

		seenPred := make(map[string]bool, len(incoming))
		for _, e := range incoming {
			producer := g.Nodes[e.Source].Name
			if !seenPred[producer] {
				seenPred[producer] = true
				step.DependsOn = append(step.DependsOn, producer)
			}
			for _, field := range e.Payload.Passes {
				step.Inputs = append(step.Inputs, model.Input{Field: field, From: producer})
			}
		}

		outgoing := g.Outgoing(nodeIdx)
		seenOut := make(map[string]bool)
		for _, e := range outgoing {
			for _, field := range e.Payload.Passes {
				if !seenOut[field] {
					seenOut[field] = true
					step.Outputs = append(step.Outputs, field)
				}
			}
		}

		categorize(&step, node.Steps)
		plan.Steps = append(plan.Steps, step)
	}

	return plan, nil
}

// categorize walks a node's steps left to right, tracking a current
// category that given/when/then set and and/but inherit, and appends each
// step's StepEntry to the corresponding list on the plan step. The initial
// current category is precondition, so a node beginning with and/but
// behaves as a precondition continuation.
func categorize(step *model.PlanStep, steps []ir.Step) {
	current := ast.CategoryPrecondition
	for _, s := range steps {
		switch s.Category {
		case ast.CategoryPrecondition, ast.CategoryAction, ast.CategoryAssertion:
			current = s.Category
		}
		entry := toStepEntry(s)
		switch current {
		case ast.CategoryPrecondition:
			step.Preconditions = append(step.Preconditions, entry)
		case ast.CategoryAction:
			step.Actions = append(step.Actions, entry)
		case ast.CategoryAssertion:
			step.Assertions = append(step.Assertions, entry)
		}
	}
}

func toStepEntry(s ir.Step) model.StepEntry {
	entry := model.StepEntry{Type: s.Keyword, Text: s.OriginalText}
	for _, d := range s.Data {
		entry.Data = append(entry.Data, model.DataPair{d.Key, d.Value})
	}
	for _, b := range s.Bindings {
		p := model.ParamEntry{Name: b.Name, Source: b.Provenance}
		if b.HasValue {
			p.Value = b.Value
		}
		entry.Parameters = append(entry.Parameters, p)
	}
	return entry
}
