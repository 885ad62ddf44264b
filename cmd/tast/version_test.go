package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	t.Cleanup(func() { version, commit, date = originalVersion, originalCommit, originalDate })

	version, commit, date = "1.2.3", "abcdef1", "2025-10-03"

	out, err := executeRoot("version")
	require.NoError(t, err)
	require.Contains(t, out, "1.2.3")
	require.Contains(t, out, "abcdef1")
	require.Contains(t, out, "2025-10-03")
}
