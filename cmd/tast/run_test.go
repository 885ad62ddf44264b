package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommandShellBackendAllPass(t *testing.T) {
	path := writeSampleGraph(t)

	out, err := executeRoot("run", path, "--backend", "shell")
	require.NoError(t, err)
	require.Contains(t, out, "node: A")
	require.Contains(t, out, "status: passed")
}

func TestRunCommandUnknownBackend(t *testing.T) {
	path := writeSampleGraph(t)

	_, err := executeRoot("run", path, "--backend", "bogus")
	require.Error(t, err)
}

func TestRunCommandRejectsNegativeParallel(t *testing.T) {
	path := writeSampleGraph(t)

	_, err := executeRoot("run", path, "--parallel", "-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--parallel")
}
