// Package yul is the orchestration layer: it strings the lexer,
// parser, and the two pass drivers into a single programmatic entry
// point: an options-in, result-out function with no persistent
// assembler-instance state escaping the call.
package yul

import (
	"fmt"
	"io"

	"github.com/agc-assembler/yulasm/card"
	"github.com/agc-assembler/yulasm/cellstore"
	"github.com/agc-assembler/yulasm/cuss"
	"github.com/agc-assembler/yulasm/memory"
	"github.com/agc-assembler/yulasm/ops"
	"github.com/agc-assembler/yulasm/parser"
	"github.com/agc-assembler/yulasm/pass1"
	"github.com/agc-assembler/yulasm/pass2"
)

// SourceDialect selects the memory model and operations catalog a run
// assembles against.
type SourceDialect string

const (
	SourceRAY   SourceDialect = "RAY"
	SourceAGC4  SourceDialect = "AGC4"
	SourceB1965 SourceDialect = "B1965"
	SourceB1966 SourceDialect = "B1966"
	SourceA1966 SourceDialect = "A1966"
	SourceA1967 SourceDialect = "A1967"
	SourceAGC   SourceDialect = "AGC"
)

// AssemblerDialect selects output conventions and the default set of
// listing sections. Since the printer is an external collaborator,
// this module only carries the value through to Result for a
// downstream formatter to consult.
type AssemblerDialect string

const (
	AssemblerRAY        AssemblerDialect = "RAY"
	AssemblerY1965      AssemblerDialect = "Y1965"
	AssemblerY1966Early AssemblerDialect = "Y1966-EARLY"
	AssemblerY1966Late  AssemblerDialect = "Y1966-LATE"
	AssemblerY1967      AssemblerDialect = "Y1967"
	AssemblerGAP        AssemblerDialect = "GAP"
)

// Options is the programmatic entry point's options record. File/Open
// are the caller's source-fetch collaborator rather than a path the
// core resolves itself: URL/file retrieval belongs to the caller, so
// Options carries an Open function that Assemble calls to fetch the
// root file, plus an optional FileOpener for $<path> insertions (when
// nil, insertions are fetched through Open as well).
type Options struct {
	File   string
	Open   func(file string) (io.Reader, error)
	Opener card.FileOpener

	Source    SourceDialect
	Assembler AssemblerDialect

	// EOL is the ordered list of listing-section identifiers the
	// caller wants emitted, each optionally stderr-bound. The printer
	// that actually honors this is out of scope here; Assemble does not
	// read it and does not copy it into Result.
	EOL []string

	Formatted bool
}

// Result is the state the core exposes to a printer: the assembled
// cards in source order, the resolved symbol table, the cell store,
// and the fatal/non-fatal tally that gates exit status.
type Result struct {
	Source    SourceDialect
	Assembler AssemblerDialect

	Cards   []pass1.Annotated
	Symbols *pass1.Result
	Cells   *cellstore.Store
	BnkSums []pass2.BnkSum
	Tally   cuss.Tally
}

// OK reports whether the run completed with zero fatal diagnostics;
// it is the exit-status gate for the CLI wrappers.
func (r *Result) OK() bool { return r.Tally.OK() }

type fileOpenerFunc struct {
	open func(file string) (io.Reader, error)
}

func (f fileOpenerFunc) Open(path string) (io.Reader, error) { return f.open(path) }

// modelAndDialect maps a SourceDialect to the memory model and
// operations catalog that implement it. AGC4, B1965, B1966, A1966, and
// A1967 are successive assembler generations over the same two memory
// architectures, so every Block-1-family dialect resolves to
// ops.NewBlock1 and every Block-2-family dialect to one of the two
// Block 2 catalogs rather than failing closed. The fixed-bank count
// does follow the generation (23, 35, and 43 are the three machine
// sizes); DESIGN.md records why each dialect group gets the one it
// does.
func modelAndDialect(source SourceDialect) (memory.Model, ops.Dialect, error) {
	switch source {
	case SourceRAY, SourceAGC4:
		return memory.NewBlock1(23), ops.NewBlock1(), nil
	case SourceB1965, SourceB1966:
		return memory.NewBlock2(35, nil), ops.NewBlock2Early(), nil
	case SourceA1966, SourceA1967, SourceAGC:
		return memory.NewBlock2(43, nil), ops.NewBlock2AGC(), nil
	default:
		return nil, nil, fmt.Errorf("yul: unknown source dialect %q", source)
	}
}

// Assemble runs the full two-pass pipeline over opts.File: lex the
// source stream (inlining $<path> insertions), parse every card
// against the selected dialect's operations catalog, run pass 1
// (location counter and symbol table) and pass 2 (word building and
// BNKSUM), and return the accumulated result. It never returns an
// error for assembly-time problems; those are cusses attached to
// Result.Cards and folded into Result.Tally, where fatal counts gate
// the caller's exit status without ever aborting the run. Assemble
// only returns an error for a malformed Options or a failure reading
// the source stream: fetching the root file or an inserted file, or a
// recursive $<path> insertion.
func Assemble(opts Options) (*Result, error) {
	if opts.Open == nil {
		return nil, fmt.Errorf("yul: Options.Open must fetch the root source file")
	}

	model, dialect, err := modelAndDialect(opts.Source)
	if err != nil {
		return nil, err
	}

	root, err := opts.Open(opts.File)
	if err != nil {
		return nil, cuss.Wrap(cuss.IOReadFailed, err, opts.File)
	}

	opener := opts.Opener
	if opener == nil {
		opener = fileOpenerFunc{open: opts.Open}
	}

	raws, err := card.LexStream(opts.File, root, opener)
	if err != nil {
		return nil, cuss.Wrap(cuss.IOReadFailed, err, opts.File)
	}

	cards := make([]parser.Card, 0, len(raws))
	parseDiags := make([][]cuss.Instance, len(raws))
	var allParseDiags []cuss.Instance
	for i, raw := range raws {
		c, diags := parser.Parse(dialect, raw)
		parseDiags[i] = diags
		allParseDiags = append(allParseDiags, diags...)
		cards = append(cards, c)
	}

	p1 := pass1.Run(model, dialect, cards)
	p1.Tally.Add(allParseDiags...)

	p2 := pass2.Run(model, dialect, p1)
	for i := range p2.Cards {
		if len(parseDiags[i]) > 0 {
			p2.Cards[i].Diagnostics = append(parseDiags[i], p2.Cards[i].Diagnostics...)
		}
	}

	return &Result{
		Source:    opts.Source,
		Assembler: opts.Assembler,
		Cards:     p2.Cards,
		Symbols:   &p1,
		Cells:     p2.Cells,
		BnkSums:   p2.BnkSums,
		Tally:     p2.Tally,
	}, nil
}
