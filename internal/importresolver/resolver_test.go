package importresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/ir"
	"github.com/tast-lang/tast/internal/lang/ast"
)

func fakeFS(files map[string]string) ReadFileFunc {
	return func(path string) ([]byte, error) {
		if src, ok := files[path]; ok {
			return []byte(src), nil
		}
		return nil, &fileNotFoundError{path}
	}
}

type fileNotFoundError struct{ path string }

func (e *fileNotFoundError) Error() string { return "no such file: " + e.path }

func TestResolveLoadsAndLowersImportedGraphs(t *testing.T) {
	authSrc := `
graph Auth {
  node Login {
    when a user logs in
  }
}
`
	files := map[string]string{"/base/auth.tast": authSrc}
	r := New("/base", fakeFS(files))

	resolved, err := r.Resolve([]ast.Import{{Alias: "Auth", Path: "auth.tast"}})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "Auth", resolved[0].Alias)
	require.Len(t, resolved[0].Graphs, 1)
	assert.Equal(t, "Auth", resolved[0].Graphs[0].Name)
}

func TestResolveCachesByCanonicalPath(t *testing.T) {
	calls := 0
	files := map[string]string{"/base/auth.tast": "graph Auth {\n  node Login {\n    when x\n  }\n}\n"}
	r := New("/base", func(path string) ([]byte, error) {
		calls++
		src, ok := files[path]
		if !ok {
			return nil, &fileNotFoundError{path}
		}
		return []byte(src), nil
	})

	_, err := r.Resolve([]ast.Import{
		{Alias: "A", Path: "auth.tast"},
		{Alias: "B", Path: "auth.tast"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestResolveMissingFileIsImportError(t *testing.T) {
	r := New("/base", fakeFS(map[string]string{}))
	_, err := r.Resolve([]ast.Import{{Alias: "Auth", Path: "missing.tast"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import error")
}

func TestRewireClonesNodeAndUpdatesIndex(t *testing.T) {
	authGraph := &ir.Graph{
		Name:  "Auth",
		Nodes: []ir.Node{{Name: "Login"}},
	}
	target := &ir.Graph{
		Name:  "Checkout",
		Nodes: []ir.Node{{Name: "PlaceOrder"}},
		Edges: []ir.Edge{
			{From: "Auth.Login", To: "PlaceOrder", FromIndex: -1, ToIndex: 0, CrossGraph: true, Passes: []string{"auth_token"}},
		},
	}

	err := Rewire(target, map[string][]*ir.Graph{"Auth": {authGraph}})
	require.NoError(t, err)

	require.Len(t, target.Nodes, 2)
	assert.Equal(t, "Auth.Login", target.Nodes[1].Name)
	assert.Equal(t, 1, target.Edges[0].FromIndex)
}

func TestRewireUnknownAliasErrors(t *testing.T) {
	target := &ir.Graph{
		Name:  "Checkout",
		Nodes: []ir.Node{{Name: "PlaceOrder"}},
		Edges: []ir.Edge{
			{From: "Missing.Login", To: "PlaceOrder", FromIndex: -1, ToIndex: 0, CrossGraph: true},
		},
	}
	err := Rewire(target, map[string][]*ir.Graph{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown import alias")
}
