package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tast-lang/tast/internal/ir"
)

func newValidateCmd(buildApp func() (*AppContext, error)) *cobra.Command {
	var graphName string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and validate a scenario file, reporting every violation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			errs, err := validateFile(args[0], graphName)
			if err != nil {
				return err
			}
			if len(errs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("%d validation error(s)", len(errs))
		},
	}

	cmd.Flags().StringVar(&graphName, "graph", "", "graph name to select, if the file declares more than one")
	return cmd
}

func validateFile(path, graphName string) ([]error, error) {
	ag, err := parseGraphFile(path, graphName)
	if err != nil {
		return nil, err
	}

	irGraph, err := ir.Lower(path, ag)
	if err != nil {
		return nil, err
	}
	if err := rewireImports(path, ag, irGraph); err != nil {
		return nil, err
	}

	return ir.ValidateAll(path, irGraph), nil
}
