package testcorpus

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sunholo/zion/internal/config"
	"github.com/sunholo/zion/internal/driver"
)

// Result is the outcome of running one fixture.
type Result struct {
	Fixture Fixture
	Passed  bool
	Skipped bool
	Detail  string
}

// Report aggregates the outcome of one `zion test` invocation.
type Report struct {
	Results []Result
}

func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed && !res.Skipped {
			n++
		}
	}
	return n
}

// OK reports whether every non-skipped fixture passed, the exit-code
// condition for `zion test` (spec §6.1: "0 iff all pass").
func (r *Report) OK() bool {
	return r.Failed() == 0
}

// Run walks the manifest at manifestPath, filters fixtures per filter and
// the EXCLUDE/MAIN_ONLY/ALL_TESTS switches already captured on cfg, and
// type-checks each selected fixture through the driver, comparing the
// outcome against its Expected record.
func Run(cfg *config.Config, manifestPath, filter string) (*Report, error) {
	m, err := Load(manifestPath)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(manifestPath)

	report := &Report{}
	for _, fx := range m.Fixtures {
		if filter != "" && !strings.Contains(fx.Path, filter) {
			continue
		}
		if cfg.Exclude != "" && strings.Contains(fx.Path, cfg.Exclude) {
			report.Results = append(report.Results, Result{Fixture: fx, Skipped: true, Detail: "excluded"})
			continue
		}
		if cfg.MainOnly && !strings.Contains(fx.Path, "main") {
			report.Results = append(report.Results, Result{Fixture: fx, Skipped: true, Detail: "not main"})
			continue
		}
		if fx.Status == StatusExperimental && !cfg.AllTests {
			report.Results = append(report.Results, Result{Fixture: fx, Skipped: true, Detail: "experimental"})
			continue
		}
		report.Results = append(report.Results, runFixture(cfg, base, fx))
	}
	return report, nil
}

func runFixture(cfg *config.Config, base string, fx Fixture) Result {
	path := filepath.Join(base, fx.Path)
	fxCfg := *cfg
	fxCfg.ZionPath = append([]string{filepath.Dir(path)}, cfg.ZionPath...)

	d := driver.New(&fxCfg)
	moduleName := strings.TrimSuffix(filepath.Base(fx.Path), ".zion")
	_, err := d.LoadEntry(moduleName)
	if err == nil {
		_, err = d.Check()
	}

	switch fx.Status {
	case StatusBroken:
		if err == nil {
			return Result{Fixture: fx, Passed: false, Detail: "expected failure but compiled cleanly"}
		}
		if fx.Broken != nil && fx.Broken.ErrorCode != "" && !diagContains(d, fx.Broken.ErrorCode) {
			return Result{Fixture: fx, Passed: false, Detail: fmt.Sprintf("wrong error code, wanted %s: %v", fx.Broken.ErrorCode, err)}
		}
		return Result{Fixture: fx, Passed: true}

	default: // working, experimental
		if err != nil {
			return Result{Fixture: fx, Passed: false, Detail: err.Error()}
		}
		if fx.Expected != nil && fx.Expected.ErrorCode != "" && !diagContains(d, fx.Expected.ErrorCode) {
			return Result{Fixture: fx, Passed: false, Detail: fmt.Sprintf("expected diagnostic %s not found", fx.Expected.ErrorCode)}
		}
		return Result{Fixture: fx, Passed: true}
	}
}

// diagContains reports whether any recorded diagnostic is tagged with
// code, checking both the Diagnostic's own Code field and its Message
// text. A checker phase sometimes wraps a lower-level failure (e.g. a
// resolveCall error already carrying its own code in the error string)
// under the phase's own outer code rather than re-tagging the
// Diagnostic, so the precise code a fixture's manifest names can surface
// in either place.
func diagContains(d *driver.Driver, code string) bool {
	for _, diagnostic := range d.Diags.All() {
		if diagnostic.Code == code || strings.Contains(diagnostic.Message, code) {
			return true
		}
	}
	return false
}

// PrintSummary writes a one-line-per-fixture report plus totals, matching
// the teacher's eval-suite pass/fail tally idiom (cmd/ailang/eval_suite.go).
func PrintSummary(w io.Writer, report *Report) {
	for _, res := range report.Results {
		switch {
		case res.Skipped:
			fmt.Fprintf(w, "SKIP  %s (%s)\n", res.Fixture.Path, res.Detail)
		case res.Passed:
			fmt.Fprintf(w, "PASS  %s\n", res.Fixture.Path)
		default:
			fmt.Fprintf(w, "FAIL  %s: %s\n", res.Fixture.Path, res.Detail)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", report.Passed(), report.Failed(), len(report.Results))
}
