package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tast-lang/tast/internal/graph"
)

func newListCmd(buildApp func() (*AppContext, error)) *cobra.Command {
	var graphName string

	cmd := &cobra.Command{
		Use:   "list <nodes|edges|tags|fixtures> <file>",
		Short: "List a scenario graph's nodes, edges, tags, or fixtures",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, path := args[0], args[1]

			g, err := loadGraph(path, graphName)
			if err != nil {
				return err
			}

			switch target {
			case "nodes":
				return listNodes(cmd, g)
			case "edges":
				return listEdges(cmd, g)
			case "tags":
				return listTags(cmd, g)
			case "fixtures":
				return listFixtures(cmd, path, graphName)
			default:
				return fmt.Errorf("unknown list target %q: want nodes, edges, tags, or fixtures", target)
			}
		},
	}

	cmd.Flags().StringVar(&graphName, "graph", "", "graph name to select, if the file declares more than one")
	return cmd
}

func listNodes(cmd *cobra.Command, g *graph.Graph) error {
	for _, n := range g.Nodes {
		fmt.Fprintln(cmd.OutOrStdout(), n.Name)
	}
	return nil
}

func listEdges(cmd *cobra.Command, g *graph.Graph) error {
	for _, e := range g.Edges {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", g.Nodes[e.Source].Name, g.Nodes[e.Target].Name)
	}
	return nil
}

func listTags(cmd *cobra.Command, g *graph.Graph) error {
	seen := make(map[string]bool)
	var tags []string
	for _, n := range g.Nodes {
		for _, t := range n.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	for _, t := range tags {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}

func listFixtures(cmd *cobra.Command, path, graphName string) error {
	ag, err := parseGraphFile(path, graphName)
	if err != nil {
		return err
	}
	for _, f := range ag.Fixtures {
		fmt.Fprintln(cmd.OutOrStdout(), f.Name)
	}
	return nil
}
