// Package errors provides centralized error-code definitions for the Zion
// compiler: lex, parse, name, type, semantic, and driver errors, each in
// its own code family.
package errors

// Error code constants organized by phase.
const (
	// ============================================================================
	// Lex errors (LEX###) — bad character, unterminated literal, indentation
	// ============================================================================

	LEX001 = "LEX001" // illegal character
	LEX002 = "LEX002" // unterminated string literal
	LEX003 = "LEX003" // unterminated char literal
	LEX004 = "LEX004" // inconsistent indentation (no matching stack depth)
	LEX005 = "LEX005" // mixed tabs and spaces in one line's leading whitespace
	LEX006 = "LEX006" // malformed numeric literal

	// ============================================================================
	// Parse errors (PAR###) — unexpected token, malformed declaration
	// ============================================================================

	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // unexpected end of file
	PAR003 = "PAR003" // malformed function declaration
	PAR004 = "PAR004" // malformed module declaration
	PAR005 = "PAR005" // malformed link declaration
	PAR006 = "PAR006" // malformed type declaration
	PAR007 = "PAR007" // malformed when/pattern block
	PAR008 = "PAR008" // malformed var declaration
	PAR009 = "PAR009" // malformed type expression
	PAR010 = "PAR010" // missing closing delimiter

	// ============================================================================
	// Name errors (NAM###) — undefined symbol, redefinition, ambiguity
	// ============================================================================

	NAM001 = "NAM001" // undefined symbol
	NAM002 = "NAM002" // redefinition with conflicting signature
	NAM003 = "NAM003" // ambiguous overload (more than one candidate unifies)
	NAM004 = "NAM004" // no overload unifies
	NAM005 = "NAM005" // name not exported from module (inbound/outbound context)

	// ============================================================================
	// Type errors (TYP###) — unification, occurs-check, return-path analysis
	// ============================================================================

	TYP001 = "TYP001" // unification failure
	TYP002 = "TYP002" // occurs check failed (recursive unification)
	TYP003 = "TYP003" // incompatible return type
	TYP004 = "TYP004" // not all paths return
	TYP005 = "TYP005" // unreachable pattern in when-block
	TYP006 = "TYP006" // non-exhaustive when-block (informational; no runtime check required)
	TYP007 = "TYP007" // kind/arity mismatch in type operator application
	TYP008 = "TYP008" // invalid sum-type construction (duplicate/nested option)

	// ============================================================================
	// Semantic errors (SEM###) — mutation, unboxing, callability
	// ============================================================================

	SEM001 = "SEM001" // mutation of a non-ref value
	SEM002 = "SEM002" // unboxing a non-Maybe value
	SEM003 = "SEM003" // calling a non-callable value
	SEM004 = "SEM004" // managed value escapes its tracked life without release
	SEM005 = "SEM005" // invalid coercion (no rule in §4.6.9 applies)

	// ============================================================================
	// Driver errors (DRV###) — module resolution, I/O, backend handoff
	// ============================================================================

	DRV001 = "DRV001" // module not found on ZION_PATH
	DRV002 = "DRV002" // ambiguous module resolution (two distinct real paths)
	DRV003 = "DRV003" // circular link-module dependency
	DRV004 = "DRV004" // I/O failure reading a source file
	DRV005 = "DRV005" // backend invocation failure
)

// ErrorInfo provides structured information about an error code.
type ErrorInfo struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// Registry maps every defined error code to its structured info.
var Registry = map[string]ErrorInfo{
	LEX001: {LEX001, "lex", "character", "Illegal character"},
	LEX002: {LEX002, "lex", "literal", "Unterminated string literal"},
	LEX003: {LEX003, "lex", "literal", "Unterminated char literal"},
	LEX004: {LEX004, "lex", "indentation", "Inconsistent indentation"},
	LEX005: {LEX005, "lex", "indentation", "Mixed tabs and spaces"},
	LEX006: {LEX006, "lex", "literal", "Malformed numeric literal"},

	PAR001: {PAR001, "parse", "syntax", "Unexpected token"},
	PAR002: {PAR002, "parse", "syntax", "Unexpected end of file"},
	PAR003: {PAR003, "parse", "syntax", "Malformed function declaration"},
	PAR004: {PAR004, "parse", "syntax", "Malformed module declaration"},
	PAR005: {PAR005, "parse", "syntax", "Malformed link declaration"},
	PAR006: {PAR006, "parse", "syntax", "Malformed type declaration"},
	PAR007: {PAR007, "parse", "syntax", "Malformed when/pattern block"},
	PAR008: {PAR008, "parse", "syntax", "Malformed var declaration"},
	PAR009: {PAR009, "parse", "syntax", "Malformed type expression"},
	PAR010: {PAR010, "parse", "syntax", "Missing closing delimiter"},

	NAM001: {NAM001, "name", "scope", "Undefined symbol"},
	NAM002: {NAM002, "name", "scope", "Redefinition with conflicting signature"},
	NAM003: {NAM003, "name", "overload", "Ambiguous overload"},
	NAM004: {NAM004, "name", "overload", "No overload unifies"},
	NAM005: {NAM005, "name", "visibility", "Name not exported from module"},

	TYP001: {TYP001, "type", "unification", "Unification failure"},
	TYP002: {TYP002, "type", "unification", "Occurs check failed"},
	TYP003: {TYP003, "type", "return", "Incompatible return type"},
	TYP004: {TYP004, "type", "return", "Not all paths return"},
	TYP005: {TYP005, "type", "pattern", "Unreachable pattern"},
	TYP006: {TYP006, "type", "pattern", "Non-exhaustive when-block"},
	TYP007: {TYP007, "type", "kind", "Kind/arity mismatch"},
	TYP008: {TYP008, "type", "construction", "Invalid sum-type construction"},

	SEM001: {SEM001, "semantic", "mutation", "Mutation of non-ref value"},
	SEM002: {SEM002, "semantic", "maybe", "Unboxing a non-Maybe value"},
	SEM003: {SEM003, "semantic", "call", "Calling a non-callable value"},
	SEM004: {SEM004, "semantic", "lifetime", "Managed value escapes its life unreleased"},
	SEM005: {SEM005, "semantic", "coercion", "Invalid coercion"},

	DRV001: {DRV001, "driver", "resolution", "Module not found"},
	DRV002: {DRV002, "driver", "resolution", "Ambiguous module resolution"},
	DRV003: {DRV003, "driver", "dependency", "Circular link-module dependency"},
	DRV004: {DRV004, "driver", "io", "I/O failure"},
	DRV005: {DRV005, "driver", "backend", "Backend invocation failure"},
}

// Info returns the structured info for code, if known.
func Info(code string) (ErrorInfo, bool) {
	info, ok := Registry[code]
	return info, ok
}

// IsLexError reports whether code belongs to the LEX### family.
func IsLexError(code string) bool { return phaseIs(code, "lex") }

// IsParseError reports whether code belongs to the PAR### family.
func IsParseError(code string) bool { return phaseIs(code, "parse") }

// IsNameError reports whether code belongs to the NAM### family.
func IsNameError(code string) bool { return phaseIs(code, "name") }

// IsTypeError reports whether code belongs to the TYP### family.
func IsTypeError(code string) bool { return phaseIs(code, "type") }

// IsSemanticError reports whether code belongs to the SEM### family.
func IsSemanticError(code string) bool { return phaseIs(code, "semantic") }

// IsDriverError reports whether code belongs to the DRV### family.
func IsDriverError(code string) bool { return phaseIs(code, "driver") }

func phaseIs(code, phase string) bool {
	info, ok := Info(code)
	return ok && info.Phase == phase
}
