package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
	"github.com/tast-lang/tast/pkg/errors"
)

// HTTPConfig configures the HTTP backend policy.
type HTTPConfig struct {
	BaseURL         string            `validate:"required,url"`
	DefaultHeaders  map[string]string `validate:"omitempty"`
	Timeout         time.Duration     `validate:"gte=0"`
	FollowRedirects bool
}

// HTTPBackend drives action steps that declare an HTTP request pattern
// ("GET|POST|PUT|PATCH|DELETE /path") against a configured base URL.
type HTTPBackend struct {
	cfg    HTTPConfig
	client *http.Client
}

var httpRequestPattern = regexp.MustCompile(`(?i)^(GET|POST|PUT|PATCH|DELETE)\s+(\S+)`)
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var (
	patStatus    = regexp.MustCompile(`(?i)^(?:status is|returns)\s+(\d{3})$`)
	patContains  = regexp.MustCompile(`(?i)^contains\s+"(.*)"$`)
	patBodyEmpty = regexp.MustCompile(`(?i)^body is empty$`)
	patJSONField = regexp.MustCompile(`(?i)^JSON field\s+"([^"]+)"\s+is\s+"(.*)"$`)
)

// NewHTTPBackend validates cfg with go-playground/validator and constructs
// an HTTPBackend.
func NewHTTPBackend(cfg HTTPConfig) (*HTTPBackend, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.NewBackendError("http", errors.BackendHarnessGenerationError, "invalid HTTP backend configuration", err)
	}
	client := &http.Client{Timeout: cfg.Timeout}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &HTTPBackend{cfg: cfg, client: client}, nil
}

// Name implements backend.Backend.
func (b *HTTPBackend) Name() string { return "http" }

// Detect implements backend.Backend. The HTTP backend has no notion of a
// project directory to auto-detect; it is only ever selected explicitly
// with --backend http.
func (b *HTTPBackend) Detect(string) bool { return false }

// GenerateHarness implements backend.Backend: a no-op, since HTTP steps
// need no generated artefacts.
func (b *HTTPBackend) GenerateHarness(*model.Plan, *runctx.Context) (*Harness, error) {
	return &Harness{}, nil
}

// Cleanup implements backend.Backend: nothing to release.
func (b *HTTPBackend) Cleanup(*Harness) error { return nil }

// ExecuteStep implements backend.Backend.
func (b *HTTPBackend) ExecuteStep(step model.PlanStep, _ *Harness, rc *runctx.Context) (model.StepResult, error) {
	result := model.StepResult{Order: step.Order, Node: step.Node}

	method, path, found := findRequestPattern(step.Actions)
	if !found {
		result.Status = model.StatusSkipped
		return result, nil
	}

	resolved, unresolved := rc.ResolveInputs(step.Inputs)
	if len(unresolved) > 0 {
		result.Status = model.StatusFailed
		result.Error = &model.ErrorInfo{
			Kind:    string(errors.StepMissingInput),
			Message: "unresolved step inputs",
			Detail:  strings.Join(unresolved, "; "),
		}
		return result, nil
	}

	path = substitute(path, resolved)

	bodyFields := map[string]any{}
	for _, entry := range step.Preconditions {
		for _, d := range entry.Data {
			bodyFields[d.Key()] = substitute(d.Value(), resolved)
		}
	}
	for _, entry := range step.Actions {
		for _, d := range entry.Data {
			bodyFields[d.Key()] = substitute(d.Value(), resolved)
		}
	}

	start := time.Now()
	var bodyReader io.Reader
	hasBody := methodCarriesBody(method)
	if hasBody {
		payload, err := json.Marshal(bodyFields)
		if err != nil {
			return model.StepResult{}, errors.NewBackendError("http", errors.BackendExecutionFailed, "failed to marshal request body", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(strings.ToUpper(method), b.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return model.StepResult{}, errors.NewBackendError("http", errors.BackendExecutionFailed, "failed to build request", err)
	}
	for k, v := range b.cfg.DefaultHeaders {
		req.Header.Set(k, v)
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		result.Status = model.StatusErrored
		result.Error = &model.ErrorInfo{Kind: string(errors.StepRuntimeError), Message: err.Error()}
		result.Elapsed = time.Since(start)
		result.DurationMs = result.Elapsed.Milliseconds()
		return result, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	result.Elapsed = time.Since(start)
	result.DurationMs = result.Elapsed.Milliseconds()

	var parsed map[string]any
	_ = json.Unmarshal(respBody, &parsed)

	allPassed := true
	for _, entry := range step.Assertions {
		outcome := b.evaluateAssertion(entry.Text, resp, string(respBody), parsed)
		result.Assertions = append(result.Assertions, outcome)
		if !outcome.Passed {
			allPassed = false
		}
	}

	if allPassed {
		result.Status = model.StatusPassed
	} else {
		result.Status = model.StatusFailed
		result.Error = &model.ErrorInfo{Kind: string(errors.StepAssertionFailed), Message: "one or more assertions failed"}
	}

	outputs := make(map[string]string, len(step.Outputs))
	for _, field := range step.Outputs {
		if v, ok := parsed[field]; ok {
			outputs[field] = fmt.Sprintf("%v", v)
		}
	}
	result.Outputs = outputs
	rc.RecordOutputs(step.Node, outputs)

	return result, nil
}

func (b *HTTPBackend) evaluateAssertion(text string, resp *http.Response, body string, parsed map[string]any) model.AssertionOutcome {
	outcome := model.AssertionOutcome{Text: text}

	switch {
	case patStatus.MatchString(text):
		m := patStatus.FindStringSubmatch(text)
		want, _ := strconv.Atoi(m[1])
		outcome.Passed = resp.StatusCode == want
		if !outcome.Passed {
			outcome.Message = fmt.Sprintf("expected status %d, got %d", want, resp.StatusCode)
		}
	case patContains.MatchString(text):
		m := patContains.FindStringSubmatch(text)
		outcome.Passed = strings.Contains(body, m[1])
		if !outcome.Passed {
			outcome.Message = fmt.Sprintf("body does not contain %q", m[1])
		}
	case patBodyEmpty.MatchString(text):
		outcome.Passed = strings.TrimSpace(body) == ""
		if !outcome.Passed {
			outcome.Message = "body is not empty"
		}
	case patJSONField.MatchString(text):
		m := patJSONField.FindStringSubmatch(text)
		field, want := m[1], m[2]
		got, ok := parsed[field]
		gotStr := fmt.Sprintf("%v", got)
		outcome.Passed = ok && gotStr == want
		if !outcome.Passed {
			outcome.Message = fmt.Sprintf("expected JSON field %q to be %q, got %q", field, want, gotStr)
		}
	default:
		outcome.Passed = false
		outcome.Message = fmt.Sprintf("unrecognised assertion pattern: %q", text)
	}
	return outcome
}

func findRequestPattern(actions []model.StepEntry) (method, path string, found bool) {
	for _, entry := range actions {
		if m := httpRequestPattern.FindStringSubmatch(entry.Text); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

func substitute(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

func methodCarriesBody(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}
