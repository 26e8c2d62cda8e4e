package mdhavers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader resolves `fetch` paths to canonical files, caches each module's
// exported top-level bindings, and detects import cycles. Grounded on
// kati's DepGraph (depgraph.go), which also keys a cache by normalized
// path and walks a recursion stack to find cycles — generalized here from
// Makefile dependency edges to source-module exports.
type Loader struct {
	RootDir string // base directory for the root program's own fetch paths

	cache   map[string]*Environment // canonical path -> exported bindings frame
	loading []string                // canonical paths currently being loaded, in order
}

// NewLoader creates a Loader rooted at rootDir (the directory containing
// the program being run).
func NewLoader(rootDir string) *Loader {
	return &Loader{RootDir: rootDir, cache: make(map[string]*Environment)}
}

// resolve turns a fetch path into an absolute canonical path, appending
// .braw if the path has no extension, and resolving relative paths against
// baseDir (the importing file's directory).
func resolve(path, baseDir string) (string, error) {
	p := path
	if filepath.Ext(p) == "" {
		p += ".braw"
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Import implements spec.md §4.5's algorithm: normalize, check the loading
// stack for a cycle, check the cache, or else push/parse/execute/snapshot/
// pop/cache. Relative paths resolve against the importing file's own
// directory: the root program's fetches resolve against l.RootDir, and a
// fetch running inside module M (M is always on top of l.loading while its
// body executes) resolves against M's own directory, not the root's.
func (l *Loader) Import(ev *Evaluator, path, alias string, callerEnv *Environment, sp Span) error {
	traceImport(path)
	baseDir := l.RootDir
	if n := len(l.loading); n > 0 {
		baseDir = filepath.Dir(l.loading[n-1])
	}
	canon, err := resolve(path, baseDir)
	if err != nil {
		return newRuntimeError(sp, "cannot resolve import %q: %s", path, err)
	}

	for i, p := range l.loading {
		if p == canon {
			chain := append(append([]string{}, l.loading[i:]...), canon)
			return &CircularImport{Path: strings.Join(chain, " -> ")}
		}
	}

	if exports, ok := l.cache[canon]; ok {
		return mergeExports(exports, alias, callerEnv)
	}

	src, err := os.ReadFile(canon)
	if err != nil {
		return newRuntimeError(sp, "cannot read module %q: %s", canon, err)
	}
	prog, err := Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", canon, err)
	}

	l.loading = append(l.loading, canon)
	moduleEnv := ev.Global.Child()
	runErr := ev.RunIn(prog, moduleEnv)
	l.loading = l.loading[:len(l.loading)-1]
	if runErr != nil {
		return runErr
	}

	l.cache[canon] = moduleEnv
	return mergeExports(moduleEnv, alias, callerEnv)
}

// mergeExports either merges a module's top-level bindings directly into
// the caller frame (no alias) or binds them as a single dict under alias.
func mergeExports(exports *Environment, alias string, callerEnv *Environment) error {
	names := exports.LocalNames()
	if alias == "" {
		for _, n := range names {
			v, _ := exports.Lookup(n)
			callerEnv.Declare(n, v)
		}
		return nil
	}
	d := NewDict()
	do := d.Dict()
	for _, n := range sortStrings(names) {
		v, _ := exports.Lookup(n)
		do.Set(n, v)
	}
	callerEnv.Declare(alias, d)
	return nil
}
