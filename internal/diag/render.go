package diag

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/width"
)

// Renderer writes diagnostics to an io.Writer with ANSI coloring when the
// writer is a TTY, plain text otherwise.
type Renderer struct {
	w       io.Writer
	colored bool
}

// NewRenderer creates a Renderer for w. If w is *os.File and refers to a
// terminal (checked via mattn/go-isatty, already a teacher indirect
// dependency), output is colorized.
func NewRenderer(w io.Writer) *Renderer {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{w: w, colored: colored}
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	locColor  = color.New(color.Bold)
	codeColor = color.New(color.Faint)
)

func (r *Renderer) paint(c *color.Color, s string) string {
	if !r.colored {
		return s
	}
	return c.Sprint(s)
}

// RenderAll writes every diagnostic in the bag to the renderer's writer,
// sorted by file then line then column for deterministic output.
func (r *Renderer) RenderAll(b *Bag) {
	ds := append([]Diagnostic(nil), b.All()...)
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Pos.File != ds[j].Pos.File {
			return ds[i].Pos.File < ds[j].Pos.File
		}
		if ds[i].Pos.Line != ds[j].Pos.Line {
			return ds[i].Pos.Line < ds[j].Pos.Line
		}
		return ds[i].Pos.Column < ds[j].Pos.Column
	})
	for _, d := range ds {
		r.Render(d)
	}
}

// Render writes a single diagnostic line, e.g.:
//
//	error[TYP004]: foo.zion:12:5: cannot unify int with str
//	  previously declared here: foo.zion:3:1
func (r *Renderer) Render(d Diagnostic) {
	sevColor := infoColor
	label := "info"
	switch d.Severity {
	case SevError:
		sevColor, label = errColor, "error"
	case SevWarning:
		sevColor, label = warnColor, "warning"
	}

	fmt.Fprintf(r.w, "%s%s %s: %s\n",
		r.paint(sevColor, label),
		r.paint(codeColor, "["+d.Code+"]"),
		r.paint(locColor, d.Pos.String()),
		d.Message,
	)
	for _, sec := range d.Secondary {
		fmt.Fprintf(r.w, "  %s %s: %s\n", r.paint(infoColor, "note:"), r.paint(locColor, sec.Pos.String()), sec.Message)
	}
	if d.Fix != "" {
		fmt.Fprintf(r.w, "  %s %s\n", r.paint(infoColor, "fix:"), d.Fix)
	}
}

// CaretColumn computes the display column of a byte offset within line,
// accounting for wide/combining runes via golang.org/x/text/width, so a
// caret pointer under a diagnostic lines up even with multi-byte
// identifiers. Columns are 1-based.
func CaretColumn(line string, byteOffset int) int {
	col := 1
	for i, r := range line {
		if i >= byteOffset {
			break
		}
		p := width.LookupRune(r)
		switch p.Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			col += 2
		default:
			col++
		}
	}
	return col
}
