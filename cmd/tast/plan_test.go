package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleGraphSource = `
graph Checkout {
  node A {
    when a user submits the order
  }
  node B {
    requires { order_id }
    then the order is confirmed
  }
  A -> B {
    passes { order_id }
  }
}
`

func writeSampleGraph(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "checkout.tast")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraphSource), 0o644))
	return path
}

func executeRoot(args ...string) (string, error) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestPlanCommandYAML(t *testing.T) {
	path := writeSampleGraph(t)

	out, err := executeRoot("plan", path)
	require.NoError(t, err)
	require.Contains(t, out, "name: Checkout")
	require.Contains(t, out, "traversal: topological")
	require.Contains(t, out, "node: A")
	require.Contains(t, out, "node: B")
}

func TestPlanCommandJSON(t *testing.T) {
	path := writeSampleGraph(t)

	out, err := executeRoot("plan", path, "--format", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"node": "A"`)
	require.Contains(t, out, `"node": "B"`)
}

func TestPlanCommandRejectsFromWithoutTo(t *testing.T) {
	path := writeSampleGraph(t)

	_, err := executeRoot("plan", path, "--from", "A")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--from and --to")
}

func TestPlanCommandOutputFile(t *testing.T) {
	path := writeSampleGraph(t)
	outPath := filepath.Join(t.TempDir(), "plan.yaml")

	_, err := executeRoot("plan", path, "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "name: Checkout")
}

func TestPlanCommandCrossGraphImport(t *testing.T) {
	dir := t.TempDir()
	authSrc := `
graph Auth {
  node Login {
    when a user logs in
  }
}
`
	shopSrc := `
import Auth from "auth.tast"
graph Shop {
  node PlaceOrder {
    requires { auth_token }
    when the user places the order
  }
  Auth.Login -> PlaceOrder {
    passes { auth_token }
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.tast"), []byte(authSrc), 0o644))
	shopPath := filepath.Join(dir, "shop.tast")
	require.NoError(t, os.WriteFile(shopPath, []byte(shopSrc), 0o644))

	out, err := executeRoot("plan", shopPath)
	require.NoError(t, err)
	require.Contains(t, out, "node: Auth.Login")
	require.Contains(t, out, "node: PlaceOrder")
	require.Contains(t, out, "field: auth_token")
	require.Contains(t, out, "from: Auth.Login")
	require.Less(t, strings.Index(out, "node: Auth.Login"), strings.Index(out, "node: PlaceOrder"))
}
