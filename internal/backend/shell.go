package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
	tasterrors "github.com/tast-lang/tast/pkg/errors"
)

// ShellConfig configures the shell backend policy.
type ShellConfig struct {
	Shell   string        `validate:"omitempty"`
	Timeout time.Duration `validate:"gte=0"`
}

// ShellBackend runs each plan step as a generated shell script, passing
// resolved inputs as TAST_INPUT_<FIELD> environment variables and scanning
// captured stdout for TAST_OUTPUT: markers.
type ShellBackend struct {
	cfg ShellConfig
	dir string
}

// NewShellBackend validates cfg and constructs a ShellBackend. Shell
// defaults to /bin/sh.
func NewShellBackend(cfg ShellConfig) (*ShellBackend, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, tasterrors.NewBackendError("shell", tasterrors.BackendHarnessGenerationError, "invalid shell backend configuration", err)
	}
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	return &ShellBackend{cfg: cfg}, nil
}

// Name implements backend.Backend.
func (b *ShellBackend) Name() string { return "shell" }

// Detect implements backend.Backend: the shell backend has no project
// marker of its own; it is only ever selected explicitly.
func (b *ShellBackend) Detect(string) bool { return false }

// GenerateHarness writes one script per plan step into a fresh, uuid-suffixed
// temporary directory.
func (b *ShellBackend) GenerateHarness(plan *model.Plan, _ *runctx.Context) (*Harness, error) {
	dir, err := os.MkdirTemp("", "tast-shell-"+uuid.NewString())
	if err != nil {
		return nil, tasterrors.NewBackendError("shell", tasterrors.BackendHarnessGenerationError, "failed to create harness directory", err)
	}
	b.dir = dir

	h := &Harness{Metadata: map[string]string{"dir": dir}}
	for _, step := range plan.Steps {
		path := filepath.Join(dir, scriptName(step.Node))
		script := renderScript(step)
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			return nil, tasterrors.NewBackendError("shell", tasterrors.BackendHarnessGenerationError, "failed to write step script", err)
		}
		h.Files = append(h.Files, path)
		h.Metadata["script:"+step.Node] = path
	}
	if len(h.Files) > 0 {
		h.EntryPoint = h.Files[0]
	}
	return h, nil
}

func scriptName(node string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, node)
	return safe + ".sh"
}

func renderScript(step model.PlanStep) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\n# generated harness script for node %q\nset -e\n\n", step.Node)

	writeSection := func(title string, entries []model.StepEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&b, "# %s\n", title)
		for _, e := range entries {
			fmt.Fprintf(&b, "# %s %s\n", e.Type, e.Text)
		}
	}
	writeSection("preconditions", step.Preconditions)
	writeSection("actions", step.Actions)
	writeSection("assertions", step.Assertions)

	b.WriteString("\ntrue\n")

	if len(step.Outputs) > 0 {
		b.WriteString("\n# declared outputs; replace the empty values\n")
		fmt.Fprintf(&b, "printf '%%s\\n' '%s'\n", outputMarkerLine(step.Outputs))
	}
	return b.String()
}

// outputMarkerLine renders the TAST_OUTPUT marker announcing every declared
// output field with an empty value, in declaration order.
func outputMarkerLine(fields []string) string {
	var b strings.Builder
	b.WriteString("TAST_OUTPUT:{")
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%q", f, "")
	}
	b.WriteByte('}')
	return b.String()
}

// ExecuteStep implements backend.Backend.
func (b *ShellBackend) ExecuteStep(step model.PlanStep, harness *Harness, rc *runctx.Context) (model.StepResult, error) {
	result := model.StepResult{Order: step.Order, Node: step.Node}

	scriptPath := harness.Metadata["script:"+step.Node]
	if scriptPath == "" {
		return model.StepResult{}, tasterrors.NewBackendError("shell", tasterrors.BackendExecutionFailed,
			"no generated script for node "+step.Node, nil)
	}

	resolved, unresolved := rc.ResolveInputs(step.Inputs)
	if len(unresolved) > 0 {
		result.Status = model.StatusFailed
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepMissingInput), Message: "unresolved step inputs",
			Detail: strings.Join(unresolved, "; ")}
		return result, nil
	}

	timeout := b.cfg.Timeout
	if timeout <= 0 {
		timeout = rc.Config.DefaultTimeout
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, b.cfg.Shell, scriptPath)
	cmd.Dir = rc.Config.WorkingDir
	env := os.Environ()
	for field, value := range resolved {
		env = append(env, runctx.EnvName(field)+"="+value)
	}
	cmd.Env = env

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	runErr := cmd.Run()
	result.Elapsed = time.Since(start)
	result.DurationMs = result.Elapsed.Milliseconds()
	result.Stdout = strings.TrimSpace(stdoutBuf.String())
	result.Stderr = strings.TrimSpace(stderrBuf.String())

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Status = model.StatusErrored
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepTimeout), Message: "step exceeded configured timeout"}
		return result, nil
	}

	if runErr != nil {
		result.Status = model.StatusFailed
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepActionFailed), Message: runErr.Error(), Detail: result.Stderr}
		return result, nil
	}

	outputs := runctx.ParseOutputMarkers(result.Stdout)
	result.Outputs = outputs
	rc.RecordOutputs(step.Node, outputs)
	result.Status = model.StatusPassed
	return result, nil
}

// Cleanup removes the harness's temporary directory.
func (b *ShellBackend) Cleanup(harness *Harness) error {
	dir := harness.Metadata["dir"]
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return tasterrors.NewBackendError("shell", tasterrors.BackendCleanupFailed, "failed to remove harness directory", err)
	}
	return nil
}
