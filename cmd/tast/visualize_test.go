package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisualizeCommandDOT(t *testing.T) {
	path := writeSampleGraph(t)

	out, err := executeRoot("visualize", path)
	require.NoError(t, err)
	require.Contains(t, out, "digraph")
	require.Contains(t, out, "\"A\"")
	require.Contains(t, out, "\"B\"")
}

func TestVisualizeCommandMermaid(t *testing.T) {
	path := writeSampleGraph(t)

	out, err := executeRoot("visualize", path, "--format", "mermaid")
	require.NoError(t, err)
	require.Contains(t, out, "flowchart")
}

func TestVisualizeCommandRejectsUnsupportedFormat(t *testing.T) {
	path := writeSampleGraph(t)

	_, err := executeRoot("visualize", path, "--format", "json")
	require.Error(t, err)
}
