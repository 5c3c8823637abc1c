package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sunholo/zion/internal/config"
)

func writeModule(t *testing.T, dir, relPath, src string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
}

func TestResolveModuleFilenameDottedPath(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, filepath.Join("geo", "shapes.zion"), "module shapes\n")

	path, err := ResolveModuleFilename("geo.shapes", []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "shapes.zion" {
		t.Fatalf("unexpected resolved path: %s", path)
	}
}

func TestResolveModuleFilenameNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveModuleFilename("nope.missing", []string{dir}); err == nil {
		t.Fatal("expected an error for an unresolvable module")
	}
}

func TestLoadEntryFollowsLinkModuleTransitively(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "leaf.zion", "module leaf\ndef one() int:\n    return 1\n")
	writeModule(t, dir, "main.zion", "module main\nlink module leaf\ndef two() int:\n    return 2\n")

	d := New(&config.Config{ZionPath: []string{dir}, NoStdLib: true})
	if _, err := d.LoadEntry("main"); err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}
	if len(d.Order()) != 2 {
		t.Fatalf("expected both main and leaf to be loaded, got order: %v", d.Order())
	}
	if len(d.Modules()) != 2 {
		t.Fatalf("expected 2 loaded modules, got %d", len(d.Modules()))
	}
}

func TestCheckSucceedsOnWellTypedProgram(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "main.zion", "module main\ndef add(a: int, b: int) int:\n    return a + b\n")

	d := New(&config.Config{ZionPath: []string{dir}, NoStdLib: true})
	if _, err := d.LoadEntry("main"); err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}
	prog, err := d.Check()
	if err != nil {
		t.Fatalf("Check: %v (diagnostics: %v)", err, d.Diags.All())
	}
	if len(prog.Modules) != 1 || len(prog.Modules[0].Functions) != 1 {
		t.Fatalf("unexpected program shape: %+v", prog)
	}
}

func TestCheckReportsTypeErrorWithoutFatal(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "main.zion", "module main\ndef f() int:\n    return undefined_name\n")

	d := New(&config.Config{ZionPath: []string{dir}, NoStdLib: true})
	if _, err := d.LoadEntry("main"); err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}
	if _, err := d.Check(); err == nil {
		t.Fatal("expected Check to report an error for an unbound reference")
	}
	if !d.Diags.HasErrors() {
		t.Fatal("expected diagnostics to be recorded")
	}
}

func TestEmitObjectsNamesOneFilePerModule(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "main.zion", "module main\ndef f() int:\n    return 1\n")

	d := New(&config.Config{ZionPath: []string{dir}, NoStdLib: true})
	if _, err := d.LoadEntry("main"); err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}
	prog, err := d.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	objects, err := d.EmitObjects(prog, "out")
	if err != nil {
		t.Fatalf("EmitObjects: %v", err)
	}
	if len(objects) != 1 || objects[0] != filepath.Join("out", "main.o") {
		t.Fatalf("unexpected objects: %v", objects)
	}
}
