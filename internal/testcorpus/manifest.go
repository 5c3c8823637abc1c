// Package testcorpus implements the `zion test [filter]` subcommand: it
// walks a directory of `.zion` fixtures, consults a manifest tracking each
// fixture's expected status, and runs the reachable ones in-process through
// the driver, honoring the EXCLUDE/MAIN_ONLY/ALL_TESTS env switches.
package testcorpus

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sunholo/zion/internal/schema"
)

// SchemaVersion is the current manifest schema version.
const SchemaVersion = schema.CorpusV1

// Status represents the expected status of a corpus fixture.
type Status string

const (
	StatusWorking      Status = "working"
	StatusBroken       Status = "broken"
	StatusExperimental Status = "experimental"
)

// Expected captures the expected outcome of running a fixture.
type Expected struct {
	ExitCode     int    `json:"exit_code"`
	ErrorCode    string `json:"error_code,omitempty"`
	OutputSubstr string `json:"output_substr,omitempty"`
}

// BrokenInfo records why a fixture is known-broken, so CI can track it
// without failing the build.
type BrokenInfo struct {
	Reason       string   `json:"reason"`
	ErrorCode    string   `json:"error_code"`
	Requires     []string `json:"requires,omitempty"`
	TrackedIssue string   `json:"tracked_issue,omitempty"`
}

// Fixture is a single `.zion` file tracked by the corpus manifest.
type Fixture struct {
	Path        string      `json:"path"`
	Status      Status      `json:"status"`
	Tags        []string    `json:"tags,omitempty"`
	Description string      `json:"description,omitempty"`
	Expected    *Expected   `json:"expected,omitempty"`
	Broken      *BrokenInfo `json:"broken,omitempty"`
}

// Statistics aggregates fixture counts.
type Statistics struct {
	Total        int     `json:"total"`
	Working      int     `json:"working"`
	Broken       int     `json:"broken"`
	Experimental int     `json:"experimental"`
	Coverage     float64 `json:"coverage"`
}

// Manifest is the complete corpus manifest.
type Manifest struct {
	Schema        string     `json:"schema"`
	SchemaVersion string     `json:"schema_version"`
	SchemaDigest  string     `json:"schema_digest"`
	GeneratedAt   time.Time  `json:"generated_at"`
	Generator     string     `json:"generator"`
	Fixtures      []Fixture  `json:"fixtures"`
	Statistics    Statistics `json:"statistics"`
}

// New creates an empty manifest with defaults.
func New() *Manifest {
	return &Manifest{
		Schema:        SchemaVersion,
		SchemaVersion: "1.0.0",
		GeneratedAt:   time.Now().UTC(),
		Generator:     "zion test",
		Fixtures:      []Fixture{},
	}
}

// Load reads and validates a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}
	return &m, nil
}

// Save writes the manifest to path as deterministic, pretty-printed JSON.
func (m *Manifest) Save(path string) error {
	m.UpdateStatistics()
	m.UpdateSchemaDigest()
	sort.Slice(m.Fixtures, func(i, j int) bool {
		return m.Fixtures[i].Path < m.Fixtures[j].Path
	})

	data, err := schema.MarshalDeterministic(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	return os.WriteFile(path, append(buf.Bytes(), '\n'), 0644)
}

// Validate checks internal consistency of the manifest.
func (m *Manifest) Validate() error {
	if !schema.Accepts(m.Schema, SchemaVersion) {
		return fmt.Errorf("unsupported schema version: %s (expected %s)", m.Schema, SchemaVersion)
	}
	if m.SchemaDigest != "" {
		if expected := m.calculateSchemaDigest(); m.SchemaDigest != expected {
			return fmt.Errorf("schema digest mismatch: got %s, expected %s", m.SchemaDigest, expected)
		}
	}

	seen := make(map[string]bool)
	for _, f := range m.Fixtures {
		if seen[f.Path] {
			return fmt.Errorf("duplicate fixture path: %s", f.Path)
		}
		seen[f.Path] = true
		if err := m.validateFixture(f); err != nil {
			return fmt.Errorf("invalid fixture %s: %w", f.Path, err)
		}
	}

	if stats := m.calculateStatistics(); m.Statistics != stats {
		return fmt.Errorf("statistics mismatch: recorded %+v, calculated %+v", m.Statistics, stats)
	}
	return nil
}

func (m *Manifest) validateFixture(f Fixture) error {
	if f.Path == "" {
		return fmt.Errorf("missing path")
	}
	if !strings.HasSuffix(f.Path, ".zion") {
		return fmt.Errorf("fixture must have .zion extension")
	}
	switch f.Status {
	case StatusWorking:
		if f.Expected == nil {
			return fmt.Errorf("working fixture missing expected outcome")
		}
		if f.Broken != nil {
			return fmt.Errorf("working fixture should not have broken info")
		}
	case StatusBroken:
		if f.Broken == nil {
			return fmt.Errorf("broken fixture missing broken info")
		}
		if f.Broken.ErrorCode == "" {
			return fmt.Errorf("broken fixture missing error code")
		}
	case StatusExperimental:
		// no additional requirements
	default:
		return fmt.Errorf("invalid status: %s", f.Status)
	}
	return nil
}

// UpdateStatistics recomputes m.Statistics from m.Fixtures.
func (m *Manifest) UpdateStatistics() {
	m.Statistics = m.calculateStatistics()
}

func (m *Manifest) calculateStatistics() Statistics {
	stats := Statistics{Total: len(m.Fixtures)}
	for _, f := range m.Fixtures {
		switch f.Status {
		case StatusWorking:
			stats.Working++
		case StatusBroken:
			stats.Broken++
		case StatusExperimental:
			stats.Experimental++
		}
	}
	if stats.Total > 0 {
		stats.Coverage = float64(stats.Working) / float64(stats.Total)
	}
	return stats
}

// UpdateSchemaDigest recomputes m.SchemaDigest.
func (m *Manifest) UpdateSchemaDigest() {
	m.SchemaDigest = m.calculateSchemaDigest()
}

func (m *Manifest) calculateSchemaDigest() string {
	data := fmt.Sprintf("%s:%s", m.Schema, m.SchemaVersion)
	hash := sha256.Sum256([]byte(data))
	return "sha256:" + hex.EncodeToString(hash[:])[:16]
}

// FindFixture locates a fixture by path.
func (m *Manifest) FindFixture(path string) (*Fixture, bool) {
	for i := range m.Fixtures {
		if m.Fixtures[i].Path == path {
			return &m.Fixtures[i], true
		}
	}
	return nil, false
}

// Working returns every fixture with StatusWorking.
func (m *Manifest) Working() []Fixture {
	var out []Fixture
	for _, f := range m.Fixtures {
		if f.Status == StatusWorking {
			out = append(out, f)
		}
	}
	return out
}

// Broken returns every fixture with StatusBroken.
func (m *Manifest) Broken() []Fixture {
	var out []Fixture
	for _, f := range m.Fixtures {
		if f.Status == StatusBroken {
			out = append(out, f)
		}
	}
	return out
}
