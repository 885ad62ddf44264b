package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tast-lang/tast/internal/backend"
	"github.com/tast-lang/tast/internal/executor"
	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/report"
)

type runOptions struct {
	planOptions
	backendName  string
	timeout      time.Duration
	parallel     int
	failFast     bool
	keepHarness  bool
	httpBaseURL  string
	shellPath    string
	nativeMarker string
	nativeSrc    []string
	nativeTest   []string
}

func newRunCmd(buildApp func() (*AppContext, error)) *cobra.Command {
	opts := &runOptions{planOptions: planOptions{strategy: "topological", format: "yaml"}}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a scenario graph's plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.planOptions.validate(); err != nil {
				return err
			}
			if opts.parallel < 0 {
				return fmt.Errorf("--parallel must be >= 0, got %d", opts.parallel)
			}

			app, err := buildApp()
			if err != nil {
				return err
			}
			registerBackends(app.Registry, opts)

			plan, err := compilePlan(args[0], &opts.planOptions)
			if err != nil {
				return err
			}
			// --parallel is accepted and validated but does not change
			// execution order in this revision: Levels still groups the
			// plan by dependency depth for a future parallel executor.
			if opts.parallel > 0 {
				executor.Levels(plan)
			}

			interactive := term.IsTerminal(int(os.Stdout.Fd()))
			progress := newProgressReporter(cmd, len(plan.Steps), interactive)

			execCfg := executor.Config{
				Backend:      opts.backendName,
				WorkingDir:   ".",
				StepTimeout:  opts.timeout,
				FailFast:     opts.failFast,
				CleanupAfter: !opts.keepHarness,
				OnStepResult: progress.report,
			}

			runReport, err := app.Executor.Run(execCfg, plan)
			if err != nil {
				return err
			}
			progress.finish(runReport.Summary)

			if err := writeRunReport(cmd, runReport, opts.format, opts.output); err != nil {
				return err
			}
			if !runReport.Summary.Success {
				return fmt.Errorf("run did not pass: %d failed, %d errored", runReport.Summary.Failed, runReport.Summary.Errors)
			}
			return nil
		},
	}

	addPlanFlags(cmd, &opts.planOptions)
	cmd.Flags().Lookup("format").Usage = "output format: yaml|json|markdown|junit"
	cmd.Flags().StringVar(&opts.backendName, "backend", "", "backend to use: http|shell|native (auto-detected if omitted)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-step timeout (0 disables)")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "reserved: accepted and validated, has no effect on execution order in this revision")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop after the first failed or errored step")
	cmd.Flags().BoolVar(&opts.keepHarness, "keep-harness", false, "do not clean up the generated harness after the run")
	cmd.Flags().StringVar(&opts.httpBaseURL, "http-base-url", "", "base URL for the HTTP backend")
	cmd.Flags().StringVar(&opts.shellPath, "shell", "", "shell binary for the shell backend (default /bin/sh)")
	cmd.Flags().StringVar(&opts.nativeMarker, "native-marker", "", "project marker file for the native backend")
	cmd.Flags().StringSliceVar(&opts.nativeSrc, "native-source", nil, "source file(s) to scan for the native backend")
	cmd.Flags().StringSliceVar(&opts.nativeTest, "native-test-cmd", nil, "test command for the native backend")

	return cmd
}

func registerBackends(reg *backend.Registry, opts *runOptions) {
	if opts.httpBaseURL != "" {
		if b, err := backend.NewHTTPBackend(backend.HTTPConfig{BaseURL: opts.httpBaseURL}); err == nil {
			reg.Register(b)
		}
	}
	if b, err := backend.NewShellBackend(backend.ShellConfig{Shell: opts.shellPath}); err == nil {
		reg.Register(b)
	}
	if opts.nativeMarker != "" && len(opts.nativeSrc) > 0 && len(opts.nativeTest) > 0 {
		if b, err := backend.NewNativeBackend(backend.NativeConfig{
			MarkerFile:  opts.nativeMarker,
			SourceFiles: opts.nativeSrc,
			TestCommand: opts.nativeTest,
		}); err == nil {
			reg.Register(b)
		}
	}
}

func writeRunReport(cmd *cobra.Command, rr *model.RunReport, format, output string) error {
	var data []byte
	var text string
	var err error

	switch format {
	case "json":
		data, err = report.WriteRunReportJSON(rr)
	case "markdown":
		text = report.WriteRunReportMarkdown(rr)
	case "junit":
		data, err = report.WriteRunReportJUnit(rr)
	default:
		data, err = report.WriteRunReportYAML(rr)
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
