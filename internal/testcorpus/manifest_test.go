package testcorpus

import (
	"path/filepath"
	"testing"
)

func TestManifestValidateAndStatistics(t *testing.T) {
	m := New()
	m.Fixtures = []Fixture{
		{Path: "fizzbuzz.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
		{Path: "bad_indent.zion", Status: StatusBroken, Broken: &BrokenInfo{Reason: "lexer rejects mixed tabs", ErrorCode: "LEX005"}},
		{Path: "generics_deep.zion", Status: StatusExperimental},
	}
	m.UpdateStatistics()
	m.UpdateSchemaDigest()

	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if m.Statistics.Total != 3 || m.Statistics.Working != 1 || m.Statistics.Broken != 1 || m.Statistics.Experimental != 1 {
		t.Fatalf("unexpected statistics: %+v", m.Statistics)
	}
}

func TestManifestRejectsNonZionExtension(t *testing.T) {
	m := New()
	m.Fixtures = []Fixture{{Path: "foo.txt", Status: StatusWorking, Expected: &Expected{ExitCode: 0}}}
	m.UpdateStatistics()
	m.UpdateSchemaDigest()
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for non-.zion fixture path")
	}
}

func TestManifestRejectsDuplicatePaths(t *testing.T) {
	m := New()
	m.Fixtures = []Fixture{
		{Path: "a.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
		{Path: "a.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
	}
	m.UpdateStatistics()
	m.UpdateSchemaDigest()
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for duplicate fixture path")
	}
}

func TestManifestSaveLoadRoundTrip(t *testing.T) {
	m := New()
	m.Fixtures = []Fixture{
		{Path: "fizzbuzz.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Fixtures) != 1 || loaded.Fixtures[0].Path != "fizzbuzz.zion" {
		t.Fatalf("round-trip mismatch: %+v", loaded.Fixtures)
	}
}

func TestFindWorkingAndBroken(t *testing.T) {
	m := New()
	m.Fixtures = []Fixture{
		{Path: "a.zion", Status: StatusWorking, Expected: &Expected{ExitCode: 0}},
		{Path: "b.zion", Status: StatusBroken, Broken: &BrokenInfo{Reason: "x", ErrorCode: "TYP001"}},
	}
	if _, ok := m.FindFixture("a.zion"); !ok {
		t.Fatal("expected to find a.zion")
	}
	if len(m.Working()) != 1 || len(m.Broken()) != 1 {
		t.Fatalf("expected 1 working and 1 broken, got %d/%d", len(m.Working()), len(m.Broken()))
	}
}
