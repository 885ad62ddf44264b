package backend

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
	tasterrors "github.com/tast-lang/tast/pkg/errors"
)

// NativeConfig configures the native-project backend policy.
type NativeConfig struct {
	MarkerFile  string   `validate:"required"`
	SourceFiles []string `validate:"required,min=1,dive,required"`
	TestCommand []string `validate:"required,min=1"`
}

type functionBinding struct {
	Name        string
	TakesData   bool
	ReturnsData bool
}

// NativeBackend resolves plan steps to given_/when_/then_-prefixed
// functions discovered in a configurable set of Go source files, wires
// them into a generated harness, and drives them via the project's own
// test command.
type NativeBackend struct {
	cfg      NativeConfig
	bindings map[string]functionBinding
}

// NewNativeBackend validates cfg and constructs a NativeBackend.
func NewNativeBackend(cfg NativeConfig) (*NativeBackend, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, tasterrors.NewBackendError("native", tasterrors.BackendHarnessGenerationError, "invalid native backend configuration", err)
	}
	return &NativeBackend{cfg: cfg}, nil
}

// Name implements backend.Backend.
func (b *NativeBackend) Name() string { return "native" }

// Detect looks for the configured project-marker file in projectDir. If
// found, it additionally opens projectDir as a git worktree (detecting
// .git upward) purely as a confidence probe; a missing or unreadable .git
// does not by itself defeat detection, since plenty of real projects
// under test are not git worktrees.
func (b *NativeBackend) Detect(projectDir string) bool {
	if _, err := os.Stat(filepath.Join(projectDir, b.cfg.MarkerFile)); err != nil {
		return false
	}
	_, _ = git.PlainOpenWithOptions(projectDir, &git.PlainOpenOptions{DetectDotGit: true})
	return true
}

// GenerateHarness scans the configured source files for given_/when_/then_
// prefixed functions, resolves every plan step's entries to the
// longest-prefix matching binding, and writes a harness _test.go file into
// the project directory itself, in the project's own package, so the
// generated tests can call the discovered bindings unqualified and the
// project's native test command can compile them.
func (b *NativeBackend) GenerateHarness(plan *model.Plan, rc *runctx.Context) (*Harness, error) {
	bindings, pkg, err := b.scanBindings()
	if err != nil {
		return nil, err
	}
	b.bindings = bindings

	path := filepath.Join(rc.Config.WorkingDir, "tast_harness_test.go")
	src := b.renderHarness(pkg, plan)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return nil, tasterrors.NewBackendError("native", tasterrors.BackendHarnessGenerationError, "failed to write harness file", err)
	}

	return &Harness{
		Files:      []string{path},
		EntryPoint: path,
		Metadata:   map[string]string{"file": path},
	}, nil
}

// scanBindings parses every configured source file, collecting step-prefixed
// function bindings and the package name the harness file must declare.
func (b *NativeBackend) scanBindings() (map[string]functionBinding, string, error) {
	bindings := make(map[string]functionBinding)
	pkg := ""
	fset := token.NewFileSet()
	for _, path := range b.cfg.SourceFiles {
		file, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return nil, "", tasterrors.NewBackendError("native", tasterrors.BackendHarnessGenerationError,
				"failed to parse source file "+path, err)
		}
		if pkg == "" {
			pkg = file.Name.Name
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil {
				continue
			}
			name := fn.Name.Name
			if !hasStepPrefix(name) {
				continue
			}
			bindings[name] = functionBinding{
				Name:        name,
				TakesData:   len(fn.Type.Params.List) > 0,
				ReturnsData: fn.Type.Results != nil && len(fn.Type.Results.List) > 0,
			}
		}
	}
	return bindings, pkg, nil
}

func hasStepPrefix(name string) bool {
	for _, p := range []string{"given_", "when_", "then_"} {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
var quotedSubstring = regexp.MustCompile(`"[^"]*"`)

// canonicalFunctionName derives the function name a step entry would bind
// to: prefix + step-type + underscore-separated lowercased text, quoted
// substrings stripped, non-alphanumeric runs mapped to a single
// underscore, capped at 80 characters.
func canonicalFunctionName(prefix, text string) string {
	stripped := quotedSubstring.ReplaceAllString(text, "")
	lowered := strings.ToLower(stripped)
	slug := strings.Trim(nonAlnum.ReplaceAllString(lowered, "_"), "_")
	full := prefix + "_" + slug
	if len(full) > 80 {
		full = full[:80]
	}
	return strings.TrimRight(full, "_")
}

// resolveBinding finds the longest registered function name that is a
// prefix of canonical at a word (underscore) boundary.
func resolveBinding(bindings map[string]functionBinding, canonical string) (functionBinding, bool) {
	var best functionBinding
	bestLen := -1
	for name, binding := range bindings {
		if !strings.HasPrefix(canonical, name) {
			continue
		}
		if len(name) != len(canonical) && canonical[len(name)] != '_' {
			continue
		}
		if len(name) > bestLen {
			best = binding
			bestLen = len(name)
		}
	}
	return best, bestLen >= 0
}

func prefixFor(bucket string) string {
	switch bucket {
	case "precondition":
		return "given"
	case "action":
		return "when"
	default:
		return "then"
	}
}

const harnessHelpers = `func tastHarnessInputs() map[string]string {
	data := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "TAST_INPUT_") {
			continue
		}
		data[strings.ToLower(strings.TrimPrefix(name, "TAST_INPUT_"))] = value
	}
	return data
}

func tastHarnessMerge(data, out map[string]string) map[string]string {
	for k, v := range out {
		data[k] = v
	}
	return data
}

func tastHarnessEmit(data map[string]string) {
	if len(data) == 0 {
		return
	}
	if payload, err := json.Marshal(data); err == nil {
		fmt.Printf("TAST_OUTPUT:%s\n", payload)
	}
}
`

func (b *NativeBackend) renderHarness(pkg string, plan *model.Plan) string {
	if pkg == "" {
		pkg = "main"
	}
	var out strings.Builder
	out.WriteString("// Code generated by tast's native backend. DO NOT EDIT.\n")
	fmt.Fprintf(&out, "package %s\n\n", pkg)
	imports := []string{"encoding/json", "fmt", "os", "strings"}
	if len(plan.Steps) > 0 {
		imports = append(imports, "testing")
	}
	out.WriteString("import (\n")
	for _, imp := range imports {
		fmt.Fprintf(&out, "\t%q\n", imp)
	}
	out.WriteString(")\n\n")
	out.WriteString(harnessHelpers)
	out.WriteString("\n")

	for _, step := range plan.Steps {
		fmt.Fprintf(&out, "func Test%s(t *testing.T) {\n", sanitizeIdent(step.Node))
		out.WriteString("\tdata := tastHarnessInputs()\n")
		b.renderBucket(&out, "precondition", step.Preconditions)
		b.renderBucket(&out, "action", step.Actions)
		b.renderBucket(&out, "assertion", step.Assertions)
		out.WriteString("\ttastHarnessEmit(data)\n")
		out.WriteString("}\n\n")
	}
	return out.String()
}

func (b *NativeBackend) renderBucket(out *strings.Builder, bucket string, entries []model.StepEntry) {
	prefix := prefixFor(bucket)
	for _, entry := range entries {
		canonical := canonicalFunctionName(prefix, entry.Text)
		binding, ok := resolveBinding(b.bindings, canonical)
		if !ok {
			fmt.Fprintf(out, "\t// unresolved: %s %q\n", prefix, entry.Text)
			continue
		}
		switch {
		case binding.TakesData && binding.ReturnsData:
			fmt.Fprintf(out, "\tdata = tastHarnessMerge(data, %s(data))\n", binding.Name)
		case binding.TakesData:
			fmt.Fprintf(out, "\t%s(data)\n", binding.Name)
		case binding.ReturnsData:
			fmt.Fprintf(out, "\tdata = tastHarnessMerge(data, %s())\n", binding.Name)
		default:
			fmt.Fprintf(out, "\t%s()\n", binding.Name)
		}
	}
}

func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

var (
	patPass  = regexp.MustCompile(`(?m)^--- PASS: Test(\S+)`)
	patFail  = regexp.MustCompile(`(?m)^--- FAIL: Test(\S+)`)
	patPanic = regexp.MustCompile(`(?m)^panic: (.+)$`)
)

// ExecuteStep implements backend.Backend: invokes the project's native
// test command scoped to this step's generated test function and parses
// its pass/fail output.
func (b *NativeBackend) ExecuteStep(step model.PlanStep, harness *Harness, rc *runctx.Context) (model.StepResult, error) {
	result := model.StepResult{Order: step.Order, Node: step.Node}

	resolved, unresolved := rc.ResolveInputs(step.Inputs)
	if len(unresolved) > 0 {
		result.Status = model.StatusFailed
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepMissingInput), Message: "unresolved step inputs",
			Detail: strings.Join(unresolved, "; ")}
		return result, nil
	}

	testName := "Test" + sanitizeIdent(step.Node)

	ctx := context.Background()
	var cancel context.CancelFunc
	if rc.Config.DefaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, rc.Config.DefaultTimeout)
		defer cancel()
	}

	args := append(append([]string(nil), b.cfg.TestCommand[1:]...), "-run", "^"+testName+"$")
	cmd := exec.CommandContext(ctx, b.cfg.TestCommand[0], args...)
	cmd.Dir = rc.Config.WorkingDir
	cmd.Env = os.Environ()
	for field, value := range resolved {
		cmd.Env = append(cmd.Env, runctx.EnvName(field)+"="+value)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	runErr := cmd.Run()
	result.Elapsed = time.Since(start)
	result.DurationMs = result.Elapsed.Milliseconds()
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if ctx.Err() == context.DeadlineExceeded {
		result.Status = model.StatusErrored
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepTimeout), Message: "native test command exceeded timeout"}
		return result, nil
	}

	outputs := runctx.ParseOutputMarkers(result.Stdout)
	result.Outputs = outputs
	rc.RecordOutputs(step.Node, outputs)

	if patPass.MatchString(result.Stdout) {
		result.Status = model.StatusPassed
		return result, nil
	}

	result.Status = model.StatusFailed
	detail := strings.TrimSpace(result.Stdout + "\n" + result.Stderr)
	if m := patPanic.FindStringSubmatch(detail); m != nil {
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepRuntimeError), Message: "panic: " + m[1]}
	} else if patFail.MatchString(result.Stdout) {
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepActionFailed), Message: "native test reported failure", Detail: detail}
	} else if runErr != nil {
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepCompilationError), Message: runErr.Error(), Detail: detail}
	} else {
		result.Error = &model.ErrorInfo{Kind: string(tasterrors.StepActionFailed), Message: "no matching test result found", Detail: detail}
	}
	return result, nil
}

// Cleanup removes the harness file generated into the project directory.
func (b *NativeBackend) Cleanup(harness *Harness) error {
	path := harness.Metadata["file"]
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return tasterrors.NewBackendError("native", tasterrors.BackendCleanupFailed, "failed to remove harness file", err)
	}
	return nil
}
