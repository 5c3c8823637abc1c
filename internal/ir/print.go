package ir

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes prog's textual IR form to w: one `func` block per
// function, preceded by one `module` header per source module, in the
// style `read-ir`/`fmt` (spec §6.1) read back. This is a debugging/
// round-trip format, not the wire format the external backend consumes
// (spec §6.7 treats that as out of scope).
func Fprint(w io.Writer, prog *Program) error {
	for _, mod := range prog.Modules {
		if err := fprintModule(w, mod); err != nil {
			return err
		}
	}
	if prog.InitFunction != nil {
		if err := fprintFunction(w, prog.InitFunction); err != nil {
			return err
		}
	}
	return nil
}

func fprintModule(w io.Writer, mod *Module) error {
	if _, err := fmt.Fprintf(w, "module %s\n", mod.Name); err != nil {
		return err
	}
	for _, g := range mod.Globals {
		if _, err := fmt.Fprintf(w, "  global %s: %s\n", g.Name, g.Typ.Signature()); err != nil {
			return err
		}
	}
	for _, fn := range mod.Functions {
		if err := fprintFunction(w, fn); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "end")
	return err
}

func fprintFunction(w io.Writer, fn *Function) error {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s: %s", p.Name, p.Typ.Signature())
	}
	ret := ""
	if fn.ReturnType != nil {
		ret = " -> " + fn.ReturnType.Signature()
	}
	if _, err := fmt.Fprintf(w, "func %s(%s)%s\n", fn.Name, strings.Join(params, ", "), ret); err != nil {
		return err
	}
	if fn.Body != nil {
		for _, line := range strings.Split(fn.Body.String(), "\n") {
			if line == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "end")
	return err
}

// Sprint is the string-returning form of Fprint.
func Sprint(prog *Program) string {
	var b strings.Builder
	_ = Fprint(&b, prog)
	return b.String()
}
