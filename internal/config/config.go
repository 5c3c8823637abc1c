// Package config reads the ambient environment variables that govern a
// compiler run (spec §6.2). Nothing here does validation beyond parsing
// scalars — callers treat a zero Config as "all defaults" so commands
// that don't care about a given knob never need to construct one by
// hand.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the ambient environment snapshot for one compiler
// invocation. Load reads it once at process start; nothing in this
// package re-reads the environment afterward.
type Config struct {
	// ZionPath is the colon-separated module search path (spec §6.6).
	ZionPath []string
	// NoStdLib skips the standard-library bootstrap and the main/__main__
	// aliasing of spec §6.4.
	NoStdLib bool
	// Debug is an integer verbosity level, 0-12.
	Debug int
	// StatusBreak aborts the run on the first diagnostic error instead of
	// continuing to accumulate more under the fatal latch.
	StatusBreak bool
	// ClangBin is the C compiler used to link produced object files.
	ClangBin string
	// LinkFlags are extra flags appended to the link invocation.
	LinkFlags []string

	// Test harness switches (spec §6.2).
	TestFilter string
	Exclude    string
	MainOnly   bool
	AllTests   bool
}

// Load reads the current process environment into a Config.
func Load() *Config {
	return &Config{
		ZionPath:    splitPath(os.Getenv("ZION_PATH")),
		NoStdLib:    boolEnv("NO_STD_LIB"),
		Debug:       intEnv("DEBUG", 0),
		StatusBreak: boolEnv("STATUS_BREAK"),
		ClangBin:    envOr("LLVM_CLANG_BIN", "cc"),
		LinkFlags:   splitFields(os.Getenv("ZION_LINK")),
		TestFilter:  os.Getenv("T"),
		Exclude:     os.Getenv("EXCLUDE"),
		MainOnly:    boolEnv("MAIN_ONLY"),
		AllTests:    boolEnv("ALL_TESTS"),
	}
}

func splitPath(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitFields(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

func boolEnv(key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	return v != "0"
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
