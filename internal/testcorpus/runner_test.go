package testcorpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sunholo/zion/internal/config"
)

func writeFixture(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
}

func TestRunPassesWorkingFixture(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "ok.zion", "module ok\ndef f() int:\n    return 1\n")

	m := New()
	m.Fixtures = []Fixture{{Path: "ok.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}}}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	report, err := Run(config.Load(), manifestPath, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected all fixtures to pass, got: %+v", report.Results)
	}
	if report.Passed() != 1 {
		t.Fatalf("expected 1 passed, got %d", report.Passed())
	}
}

func TestRunPassesBrokenFixtureWithMatchingErrorCode(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "bad.zion", "module bad\ndef f() int:\n    return undef_call(1)\n")

	m := New()
	m.Fixtures = []Fixture{{
		Path:   "bad.zion",
		Status: StatusBroken,
		Broken: &BrokenInfo{Reason: "calls an undefined function", ErrorCode: "TYP009"},
	}}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	report, err := Run(config.Load(), manifestPath, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected broken fixture with matching error code to pass, got: %+v", report.Results)
	}
}

func TestRunFailsBrokenFixtureThatCompilesCleanly(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "actually_ok.zion", "module actually_ok\ndef f() int:\n    return 1\n")

	m := New()
	m.Fixtures = []Fixture{{
		Path:   "actually_ok.zion",
		Status: StatusBroken,
		Broken: &BrokenInfo{Reason: "should have failed but doesn't anymore", ErrorCode: "TYP009"},
	}}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	report, err := Run(config.Load(), manifestPath, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.OK() {
		t.Fatalf("expected a cleanly-compiling broken fixture to fail the run")
	}
}

func TestRunSkipsExperimentalWithoutAllTests(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "exp.zion", "module exp\ndef f() int:\n    return 1\n")

	m := New()
	m.Fixtures = []Fixture{{Path: "exp.zion", Status: StatusExperimental}}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg := config.Load()
	cfg.AllTests = false
	report, err := Run(cfg, manifestPath, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Results) != 1 || !report.Results[0].Skipped {
		t.Fatalf("expected the experimental fixture to be skipped, got: %+v", report.Results)
	}
}

func TestRunFiltersByFilterSubstring(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "match.zion", "module match\ndef f() int:\n    return 1\n")
	writeFixture(t, dir, "other.zion", "module other\ndef f() int:\n    return 1\n")

	m := New()
	m.Fixtures = []Fixture{
		{Path: "match.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
		{Path: "other.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := m.Save(manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	report, err := Run(config.Load(), manifestPath, "match")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Fixture.Path != "match.zion" {
		t.Fatalf("expected only match.zion to be selected, got: %+v", report.Results)
	}
}
