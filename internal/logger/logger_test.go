package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, Component: "executor"})
	require.NoError(t, err)

	log.Info("step completed", "step_id", "RegisterUser")

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(line), &payload))
	require.Equal(t, "executor", payload["component"])
	require.Equal(t, "RegisterUser", payload["step_id"])
	require.Equal(t, "step completed", payload["msg"])
}

func TestLoggerWithFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	child := log.WithFields(map[string]any{"b": 2, "a": 1})
	child.Warn("drift detected")

	line := strings.TrimSpace(buf.String())
	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(line), &payload))
	require.Equal(t, float64(1), payload["a"])
	require.Equal(t, float64(2), payload["b"])
}

func TestNoopLoggerDiscards(t *testing.T) {
	log := Noop()
	log.Info("should not appear")
	log.Error(nil, "neither should this")
}
