// Package diag implements source locations and the compiler's diagnostic
// accumulator: a fatal-latch error bag shared by every phase.
package diag

import "fmt"

// Pos is a (file, line, col) value plus the byte offset used for stable-id
// hashing (see internal/sid). Line and Column are 1-based.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsZero reports whether p was never set.
func (p Pos) IsZero() bool {
	return p.File == "" && p.Line == 0 && p.Column == 0
}

// Span is a half-open range [Start, End) in source text.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	if s.Start.File == s.End.File {
		return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.File, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
