// Package importresolver loads and caches the graphs referenced by import
// statements and rewires cross-graph edges after lowering. Only the
// importing file's own imports are loaded: imports declared inside an
// imported file are not followed.
package importresolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tast-lang/tast/internal/ir"
	"github.com/tast-lang/tast/internal/lang/ast"
	"github.com/tast-lang/tast/internal/lang/lexer"
	"github.com/tast-lang/tast/internal/lang/parser"
	"github.com/tast-lang/tast/pkg/errors"
)

// ReadFileFunc abstracts file reading so callers can stub the filesystem in
// tests without touching disk.
type ReadFileFunc func(path string) ([]byte, error)

// Resolved pairs an import alias with the graphs defined in the file it
// points to.
type Resolved struct {
	Alias  string
	Path   string
	Graphs []*ir.Graph
}

// Resolver loads import targets relative to a base directory, caching
// parsed-and-lowered graphs by canonical path. A path that is requested
// while it is still loading is rejected as a circular import; because
// nested imports are not followed, a single Resolve call never reaches that
// case.
type Resolver struct {
	baseDir    string
	readFile   ReadFileFunc
	cache      map[string][]*ir.Graph
	inProgress map[string]bool
}

// New constructs a Resolver rooted at baseDir. A nil readFile defaults to
// os.ReadFile.
func New(baseDir string, readFile ReadFileFunc) *Resolver {
	if readFile == nil {
		readFile = os.ReadFile
	}
	return &Resolver{
		baseDir:    baseDir,
		readFile:   readFile,
		cache:      make(map[string][]*ir.Graph),
		inProgress: make(map[string]bool),
	}
}

// Resolve loads every import in imports, relative to the resolver's base
// directory, and returns one Resolved entry per import in order.
func (r *Resolver) Resolve(imports []ast.Import) ([]Resolved, error) {
	out := make([]Resolved, 0, len(imports))
	for _, imp := range imports {
		graphs, canonical, err := r.load(imp.Path)
		if err != nil {
			return nil, errors.NewImportError(imp.Path, imp.Alias, err.Error(), err)
		}
		out = append(out, Resolved{Alias: imp.Alias, Path: canonical, Graphs: graphs})
	}
	return out, nil
}

func (r *Resolver) load(path string) ([]*ir.Graph, string, error) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(r.baseDir, resolved)
	}
	canonical, err := canonicalize(resolved)
	if err != nil {
		return nil, "", err
	}

	if r.inProgress[canonical] {
		return nil, canonical, errors.NewImportError(canonical, "", "circular import", nil)
	}
	if cached, ok := r.cache[canonical]; ok {
		return cached, canonical, nil
	}

	r.inProgress[canonical] = true
	defer delete(r.inProgress, canonical)

	src, err := r.readFile(canonical)
	if err != nil {
		return nil, canonical, err
	}

	toks, err := lexer.Tokenize(canonical, string(src))
	if err != nil {
		return nil, canonical, err
	}
	file, err := parser.Parse(canonical, toks)
	if err != nil {
		return nil, canonical, err
	}

	graphs := make([]*ir.Graph, 0, len(file.Graphs))
	for _, ag := range file.Graphs {
		g, err := ir.Lower(canonical, ag)
		if err != nil {
			return nil, canonical, err
		}
		graphs = append(graphs, g)
	}

	r.cache[canonical] = graphs
	return graphs, canonical, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return filepath.Clean(abs), nil
}

// Rewire resolves every cross-graph ('.') edge endpoint in target by
// cloning the referenced node out of the aliased import's graphs and
// updating the edge's index. The alias->graphs map should contain every
// import the target's file declared.
func Rewire(target *ir.Graph, byAlias map[string][]*ir.Graph) error {
	copied := make(map[string]int) // "alias.node" -> index in target.Nodes

	resolveEndpoint := func(name string) (int, error) {
		if idx := target.IndexOf(name); idx >= 0 {
			return idx, nil
		}
		if idx, ok := copied[name]; ok {
			return idx, nil
		}
		alias, nodeName, ok := splitDotted(name)
		if !ok {
			return -1, errors.NewImportError(name, "", "edge refers to undeclared node", nil)
		}
		graphs, ok := byAlias[alias]
		if !ok {
			return -1, errors.NewImportError(name, alias, "unknown import alias", nil)
		}
		for _, g := range graphs {
			if srcIdx := g.IndexOf(nodeName); srcIdx >= 0 {
				clone := g.Nodes[srcIdx]
				clone.Name = name
				target.Nodes = append(target.Nodes, clone)
				idx := len(target.Nodes) - 1
				copied[name] = idx
				return idx, nil
			}
		}
		return -1, errors.NewImportError(name, alias, "node not found in imported graph", nil)
	}

	for i := range target.Edges {
		e := &target.Edges[i]
		if !e.CrossGraph {
			continue
		}
		if e.FromIndex < 0 {
			idx, err := resolveEndpoint(e.From)
			if err != nil {
				return err
			}
			e.FromIndex = idx
		}
		if e.ToIndex < 0 {
			idx, err := resolveEndpoint(e.To)
			if err != nil {
				return err
			}
			e.ToIndex = idx
		}
	}
	return nil
}

func splitDotted(name string) (alias, rest string, ok bool) {
	idx := strings.IndexByte(name, '.')
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}
