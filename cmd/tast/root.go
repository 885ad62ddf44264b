package main

import (
	"github.com/spf13/cobra"

	"github.com/tast-lang/tast/internal/logger"
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "tast",
		Short:         "tast compiles and runs scenario-graph test files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	buildApp := func() (*AppContext, error) {
		level := "info"
		if flags.verbose {
			level = "debug"
		}
		log, err := logger.New(logger.Options{Level: level, HumanReadable: true, Component: "cli"})
		if err != nil {
			return nil, err
		}
		return newAppContext(log), nil
	}

	cmd.AddCommand(newPlanCmd(buildApp))
	cmd.AddCommand(newValidateCmd(buildApp))
	cmd.AddCommand(newListCmd(buildApp))
	cmd.AddCommand(newVisualizeCmd(buildApp))
	cmd.AddCommand(newRunCmd(buildApp))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
