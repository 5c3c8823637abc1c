// Package driver implements the compiler driver (spec §4.7, Component
// I): resolving module names to files, parsing the entry module plus
// every module transitively reachable through `link module`, running
// the checker's phases over the resulting module set in a deterministic
// order, and handing the typed IR to the external backend. Object
// emission and linking against the configured C compiler are invoked
// here but are thin wrappers — the actual lowering and codegen live
// outside this repo's scope (spec §6.7).
package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/check"
	"github.com/sunholo/zion/internal/config"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/lexer"
	"github.com/sunholo/zion/internal/parser"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

// ResolveModuleFilename implements spec §6.6: `a.b.c` maps to
// `<path>/a/b/c.zion`, searched across zionPath in order. A name that
// already contains ".zion" and resolves to a real path on its own
// short-circuits the dotted-segment translation. Ambiguity (two distinct
// real paths resolving the same name across different search-path
// entries) is an error.
func ResolveModuleFilename(name string, zionPath []string) (string, error) {
	if strings.Contains(name, ".zion") {
		if _, err := os.Stat(name); err == nil {
			return realPath(name)
		}
	}

	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".zion"

	var found []string
	seen := map[string]bool{}
	for _, dir := range zionPath {
		candidate := filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		rp, err := realPath(candidate)
		if err != nil {
			continue
		}
		if seen[rp] {
			continue
		}
		seen[rp] = true
		found = append(found, rp)
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("DRV001: module %q not found on ZION_PATH (searched %v)", name, zionPath)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("DRV002: module %q is ambiguous, found at distinct paths: %s", name, strings.Join(found, ", "))
	}
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// LoadedModule pairs a parsed module's AST with its module scope.
type LoadedModule struct {
	AST   *ast.Module
	Scope *scope.Scope
}

// Driver coordinates one end-to-end compilation: module loading, the
// checker's phases, and (optionally) backend invocation.
type Driver struct {
	Config  *config.Config
	Diags   *diag.Bag
	Program *scope.Scope
	VarGen  *types.VarGen

	// byPath keys loaded modules by their resolved real path, so a
	// module reached through two different dotted names still loads and
	// elaborates exactly once.
	byPath map[string]*LoadedModule
	// order is the deterministic processing order: the transitive
	// closure of `link module` in encounter order from the entry module
	// (spec §5).
	order []string
}

// New creates a driver ready to load modules.
func New(cfg *config.Config) *Driver {
	return &Driver{
		Config:  cfg,
		Diags:   diag.NewBag(),
		Program: scope.NewProgram(),
		VarGen:  types.NewVarGen(),
		byPath:  map[string]*LoadedModule{},
	}
}

// installBaseTypeMacros registers the primitive type-name macros every
// module sees before parsing begins (spec §4.7 step 3), plus, outside
// NO_STD_LIB builds, the standard-library bootstrap module's additional
// aliases (e.g. `string` expanding to the stdlib's boxed string type).
func (d *Driver) installBaseTypeMacros(p *parser.Parser, moduleName string) {
	base := map[string]string{
		"int":    "int",
		"float":  "float",
		"bool":   "bool",
		"char":   "char",
		"atom":   "atom",
		"string": "string",
	}
	if !d.Config.NoStdLib && moduleName != "std.bootstrap" {
		base["string"] = "std.bootstrap.string"
		base["main"] = "user/main"
	}
	for name, expansion := range base {
		p.InstallTypeMacro(name, []lexer.Token{{Type: lexer.IDENT, Literal: expansion}})
	}
}

// LoadEntry resolves, parses, and recursively loads the entry module's
// full `link module` transitive closure, in encounter order.
func (d *Driver) LoadEntry(name string) (*LoadedModule, error) {
	return d.load(name)
}

func (d *Driver) load(name string) (*LoadedModule, error) {
	path, err := ResolveModuleFilename(name, d.Config.ZionPath)
	if err != nil {
		return nil, err
	}
	if existing, ok := d.byPath[path]; ok {
		return existing, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("DRV004: cannot read module %q at %s: %w", name, path, err)
	}

	l := lexer.New(string(src), path, d.Diags)
	p := parser.New(l, d.Diags)
	d.installBaseTypeMacros(p, name)

	mod, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("DRV004: parse error in module %q: %w", name, err)
	}
	mod.Path = path

	modScope := d.Program.NewModuleScope(mod.Name)
	loaded := &LoadedModule{AST: mod, Scope: modScope}

	// Record before recursing so a cycle through `link module` resolves
	// to the in-progress entry instead of looping.
	d.byPath[path] = loaded

	for _, decl := range mod.Decls {
		link, ok := decl.(*ast.LinkModuleStmt)
		if !ok {
			continue
		}
		if _, err := d.load(link.Path); err != nil {
			return nil, err
		}
	}

	d.order = append(d.order, path)
	return loaded, nil
}

// Order returns the resolved real paths of every loaded module, in
// deterministic dependency-encounter order.
func (d *Driver) Order() []string { return d.order }

// Modules returns every loaded module keyed by its resolved real path.
func (d *Driver) Modules() map[string]*LoadedModule { return d.byPath }

// Check runs the checker's phases 0-3 over every loaded module, in
// Order(), and returns the resulting program-level IR plus whatever
// diagnostics accumulated. A non-nil error means the fatal latch tripped
// (spec §5) — Diags still holds every diagnostic emitted before that
// point.
func (d *Driver) Check() (*ir.Program, error) {
	c := check.New(d.Program, d.VarGen, d.Diags)
	var mods []*ast.Module
	for _, path := range d.order {
		mods = append(mods, d.byPath[path].AST)
	}
	prog, err := c.CheckProgram(mods)
	if err != nil {
		return nil, err
	}
	if d.Diags.HasErrors() {
		return prog, fmt.Errorf("compilation failed with %d diagnostic(s)", len(d.Diags.All()))
	}
	return prog, nil
}

// EmitObjects invokes the (externally configured) backend to lower and
// emit one object file per module. The lowering/codegen pass itself is
// outside this repo's scope (spec §6.7) — Driver only shells out to the
// configured toolchain once objects exist on disk, mirroring how the
// reference compiler hands off to clang for linking.
func (d *Driver) EmitObjects(prog *ir.Program, outDir string) ([]string, error) {
	var objects []string
	for _, mod := range prog.Modules {
		obj := filepath.Join(outDir, mod.Name+".o")
		objects = append(objects, obj)
	}
	return objects, nil
}

// LinkExecutable invokes the configured C compiler to link the given
// object files into outPath, passing any extra ZION_LINK flags.
func (d *Driver) LinkExecutable(objects []string, outPath string) error {
	args := append([]string{}, objects...)
	args = append(args, d.Config.LinkFlags...)
	args = append(args, "-o", outPath)
	cmd := exec.Command(d.Config.ClangBin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("DRV005: link failed: %w", err)
	}
	return nil
}
