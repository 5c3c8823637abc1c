// Package atom implements process-wide string interning: identifiers, type
// names and tags are interned into small integer ids so that downstream
// comparisons (bound-variable names, typename-environment keys, scope
// lookups) are int comparisons rather than string comparisons.
package atom

import "sync"

// Atom is a process-interned string, compared by id.
type Atom int

// Table is an append-only string<->id table. The zero value is usable.
type Table struct {
	mu      sync.RWMutex
	byText  map[string]Atom
	byAtom  []string
}

// global is the process-wide table. Production code should prefer a Table
// owned by the driver/compiler instance; New() below is the per-instance
// constructor, and Global() exists only for call sites (e.g. lexer keyword
// tables) that are legitimately process-wide constants.
var global = New()

// New creates an empty, independent intern table.
func New() *Table {
	return &Table{byText: make(map[string]Atom)}
}

// Global returns the default process-wide table.
func Global() *Table { return global }

// Intern returns the Atom for s, allocating a new id if s has not been seen
// by this table before. Intern is safe for concurrent use.
func (t *Table) Intern(s string) Atom {
	t.mu.RLock()
	if a, ok := t.byText[s]; ok {
		t.mu.RUnlock()
		return a
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.byText[s]; ok {
		return a
	}
	a := Atom(len(t.byAtom))
	t.byAtom = append(t.byAtom, s)
	t.byText[s] = a
	return a
}

// Text returns the string a was interned from. Panics if a is out of range,
// which can only happen for an Atom minted by a different Table.
func (t *Table) Text(a Atom) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byAtom[a]
}

// Len reports how many distinct strings have been interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byAtom)
}

// Intern is sugar for Global().Intern.
func Intern(s string) Atom { return global.Intern(s) }

// Text is sugar for Global().Text.
func Text(a Atom) string { return global.Text(a) }
