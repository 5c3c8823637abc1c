package errors

import (
	"encoding/json"
	"errors"

	"github.com/sunholo/zion/internal/diag"
)

// Report is the canonical structured, JSON-serializable error type for the
// Zion compiler, used by `zion compile`/`zion run`/etc. when a caller wants
// machine-readable diagnostics rather than (or in addition to) the
// terminal-rendered form produced by internal/diag.Renderer.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *diag.Span     `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// Fix represents a suggested fix with a confidence score.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// SchemaV1 is the JSON schema version for Report.
const SchemaV1 = "zion.error/v1"

// ReportError wraps a Report as an error so structured reports survive
// errors.As() unwrapping through ordinary Go error-handling code paths.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if one is present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps r as an error.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// FromDiagnostic converts an internal/diag.Diagnostic into a Report, for
// callers (the driver's `compile`/`run` commands) that want JSON output.
func FromDiagnostic(d diag.Diagnostic) *Report {
	r := &Report{
		Schema:  SchemaV1,
		Code:    d.Code,
		Phase:   d.Phase,
		Message: d.Message,
		Span:    &diag.Span{Start: d.Pos, End: d.Pos},
	}
	if d.Fix != "" {
		r.Fix = &Fix{Suggestion: d.Fix, Confidence: d.Confidence}
	}
	return r
}

// ToJSON renders r as JSON, indented unless compact is set.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewGeneric creates a generic error report for an unstructured error,
// e.g. an I/O failure from the driver.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  SchemaV1,
		Code:    DRV004,
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}
