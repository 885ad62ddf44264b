package main

import (
	"github.com/tast-lang/tast/internal/backend"
	"github.com/tast-lang/tast/internal/executor"
	"github.com/tast-lang/tast/internal/logger"
)

// AppContext bundles the long-lived services shared by every subcommand.
type AppContext struct {
	Logger   *logger.Logger
	Registry *backend.Registry
	Executor *executor.Executor
}

// newAppContext constructs an AppContext with an empty backend registry;
// run.go registers whichever backends its flags configure.
func newAppContext(log *logger.Logger) *AppContext {
	reg := backend.NewRegistry()
	ex := executor.New(reg, log)
	return &AppContext{Logger: log, Registry: reg, Executor: ex}
}
