// Package pass1 implements the first assembler pass: it walks the
// parsed card stream, maintains the location counter, reserves cells,
// and builds the unresolved symbol table. Dispatch is split into
// single-purpose handlers over one driver struct rather than one
// large switch body.
package pass1

import (
	"strconv"
	"strings"

	"github.com/agc-assembler/yulasm/addrfield"
	"github.com/agc-assembler/yulasm/cellstore"
	"github.com/agc-assembler/yulasm/cuss"
	"github.com/agc-assembler/yulasm/memory"
	"github.com/agc-assembler/yulasm/ops"
	"github.com/agc-assembler/yulasm/parser"
	"github.com/agc-assembler/yulasm/symtab"
)

// Annotated is a parsed card enriched with the fields pass 1 computes
// (RefAddress, Extent) and, later, the banking context pass 2 observed
// while building the card's words.
type Annotated struct {
	Card        parser.Card
	Ref         cellstore.CardRef
	RefAddress  *int
	Extent      int
	Diagnostics []cuss.Instance

	// Filled by pass 2: the erasable/superbank context in effect when
	// the card was built, and the COUNT section it tallies under.
	EBank int
	SBank int
	Count string
}

// Result is pass 1's full output: the annotated card stream, the
// (still unresolved) symbol table, the cell store with definitions
// only, and the resolved table once EQUALS/=PLUS/=MINUS chains are
// walked.
type Result struct {
	Cards    []Annotated
	Symbols  *symtab.Table
	Resolved *symtab.Resolved
	Cells    *cellstore.Store
	Tally    cuss.Tally
}

type driver struct {
	model    memory.Model
	dialect  ops.Dialect
	symbols  *symtab.Table
	cells    *cellstore.Store
	lc       *int
	bankFull bool

	// pendingLowAddr holds the address of an interpretive card awaiting
	// its pair (two non-store interpretive operations share one word).
	// Non-nil between the low half's reservation and either its high
	// half or the next flush point.
	pendingLowAddr *int

	// out holds every card dispatched so far, indexed by CardRef, so a
	// conflict discovered on a later card can reach back and annotate
	// the card that originally claimed the address (a conflict is two
	// distinct diagnostics, one on each offender). Preallocated with its
	// final capacity in Run so appends never reallocate the backing
	// array out from under earlier indices.
	out []Annotated

	tally cuss.Tally
}

// Run executes pass 1 over cards.
func Run(model memory.Model, dialect ops.Dialect, cards []parser.Card) Result {
	d := &driver{
		model:   model,
		dialect: dialect,
		symbols: symtab.New(),
		cells:   cellstore.New(),
		out:     make([]Annotated, 0, len(cards)),
	}

	for i, c := range cards {
		a := d.dispatch(cellstore.CardRef(i), c)
		d.out = append(d.out, a)
	}

	resolved, errs := d.symbols.Resolve()
	for _, err := range errs {
		var serial cuss.Serial
		switch err.(type) {
		case *symtab.CycleError:
			serial = cuss.Pass1SymbolCycle
		default:
			serial = cuss.Pass1UndefinedSymbol
		}
		d.tally.Add(cuss.Wrap(serial, err))
	}

	return Result{Cards: d.out, Symbols: d.symbols, Resolved: resolved, Cells: d.cells, Tally: d.tally}
}

// addDiag appends a diagnostic to a card and folds it into the running
// tally. Every card-attached pass 1 cuss is created through this one
// choke point so prior- and current-card diagnostics are counted alike;
// symbol-resolution cusses belong to no card and Run adds them to the
// tally directly.
func (d *driver) addDiag(a *Annotated, inst cuss.Instance) {
	a.Diagnostics = append(a.Diagnostics, inst)
	d.tally.Add(inst)
}

// recordConflicts raises the paired conflict diagnostics: one on the
// current card and a matching one on the address's original definer,
// found by the CardRef ReserveRange hands back, so the listing shows
// both offenders.
func (d *driver) recordConflicts(conflicts map[int]cellstore.CardRef, a *Annotated) {
	for at, prior := range conflicts {
		d.addDiag(a, cuss.New(cuss.Pass1Conflict, strconv.Itoa(at), strconv.Itoa(int(prior))))
		if int(prior) < len(d.out) {
			d.addDiag(&d.out[prior], cuss.New(cuss.Pass1Conflict, strconv.Itoa(at), strconv.Itoa(int(a.Ref))))
		}
	}
}

func (d *driver) dispatch(ref cellstore.CardRef, c parser.Card) Annotated {
	a := Annotated{Card: c, Ref: ref}

	switch c.Kind {
	case parser.KindRemark, parser.KindPagination:
		return a

	case parser.KindClerical:
		d.dispatchClerical(ref, c, &a)
		return a

	case parser.KindInterpretive:
		if !d.dialect.IsStore(c.Operation.Op) {
			d.reserveInterpretive(ref, c, &a)
			return a
		}
		d.flushPendingInterp()
		d.reserveMemoryProducing(ref, c, &a)
		return a

	case parser.KindBasic, parser.KindAddressConstant, parser.KindNumericConstant:
		d.flushPendingInterp()
		d.reserveMemoryProducing(ref, c, &a)
		return a
	}
	return a
}

// reserveInterpretive implements the two-per-word packing of non-store
// interpretive operations: the first card of a pair reserves the word
// and advances the location counter; the second shares its address and
// reserves nothing further (pass 2 detects the pairing by RefAddress
// equality and Extent 0 on lookahead).
func (d *driver) reserveInterpretive(ref cellstore.CardRef, c parser.Card, a *Annotated) {
	if d.pendingLowAddr != nil {
		addr := *d.pendingLowAddr
		a.RefAddress = &addr
		a.Extent = 0
		if c.Location != "" {
			d.symbols.Define(c.Location, addr)
		}
		d.pendingLowAddr = nil
		return
	}

	if d.bankFull {
		d.addDiag(a, cuss.New(cuss.Pass1BankFull))
		return
	}
	if d.lc == nil {
		d.addDiag(a, cuss.New(cuss.Pass1LocationNotSet))
		return
	}

	addr := *d.lc
	a.RefAddress = &addr
	a.Extent = 1
	if c.Location != "" {
		d.symbols.Define(c.Location, addr)
	}
	conflicts := d.cells.ReserveRange(addr, 1, ref)
	d.recordConflicts(conflicts, a)
	newLC := addr + 1
	d.lc = &newLC

	pending := addr
	d.pendingLowAddr = &pending
}

// flushPendingInterp drops an unpaired interpretive card's pending
// state once a non-pairing card has consumed the next word; the solo
// card keeps the word it already reserved.
func (d *driver) flushPendingInterp() {
	d.pendingLowAddr = nil
}

func (d *driver) reserveMemoryProducing(ref cellstore.CardRef, c parser.Card, a *Annotated) {
	if d.bankFull {
		d.addDiag(a, cuss.New(cuss.Pass1BankFull))
		return
	}
	if d.lc == nil {
		d.addDiag(a, cuss.New(cuss.Pass1LocationNotSet))
		return
	}
	addr := *d.lc
	extent := c.Operation.Op.WordCount
	a.RefAddress = &addr
	a.Extent = extent

	if c.Location != "" {
		d.symbols.Define(c.Location, addr)
	}

	if extent > 0 {
		conflicts := d.cells.ReserveRange(addr, extent, ref)
		d.recordConflicts(conflicts, a)
	}
	newLC := addr + extent
	d.lc = &newLC
}

func (d *driver) dispatchClerical(ref cellstore.CardRef, c parser.Card, a *Annotated) {
	d.flushPendingInterp()
	op := c.Operation.Op
	field := c.Operation.AddressField

	switch op.Symbol {
	case "SETLOC":
		addr, ok := d.resolveLocation(field)
		if !ok {
			d.addDiag(a, cuss.New(cuss.Pass1AddressUndefined, c.Raw.AddressField))
			d.lc = nil
			return
		}
		d.lc = &addr
		d.bankFull = false

	case "BANK", "BLOCK":
		bankNum := 0
		if field != nil {
			if field.Form != addrfield.FormNumber {
				d.addDiag(a, cuss.New(cuss.Pass1NoSuchBankOrBlock, c.Raw.AddressField))
				d.lc = nil
				return
			}
			bankNum = field.Offset
		}
		rng, ok := d.model.FixedBankRange(bankNum)
		if !ok {
			d.addDiag(a, cuss.New(cuss.Pass1NoSuchBankOrBlock, strconv.Itoa(bankNum)))
			d.lc = nil
			return
		}
		addr, ok := d.firstFreeInRange(rng)
		if !ok {
			d.lc = nil
			d.bankFull = true
			return
		}
		d.lc = &addr
		d.bankFull = false

	case "ERASE":
		d.dispatchErase(ref, c, a)

	case "EQUALS", "=", "=ECADR":
		if c.Location != "" && field != nil {
			switch field.Form {
			case addrfield.FormNumber:
				v := field.Offset
				if field.Negative {
					v = -v
				}
				d.symbols.Define(c.Location, v)
			case addrfield.FormSymbolOffset:
				off := field.Offset
				if field.Negative {
					off = -off
				}
				d.symbols.DefineOffset(c.Location, field.Symbol, off)
			default:
				d.symbols.DefineEquals(c.Location, field.Symbol)
			}
		}

	case "=PLUS", "=MINUS":
		if c.Location == "" || field == nil {
			return
		}
		switch field.Form {
		case addrfield.FormSymbolOffset:
			off := field.Offset
			if (field.Negative) != (op.Symbol == "=MINUS") {
				off = -off
			}
			d.symbols.DefineOffset(c.Location, field.Symbol, off)
		case addrfield.FormSymbolSymbol:
			// The second term's sign is the field's sign flipped once
			// more by =MINUS, so "=MINUS A - B" adds B back in.
			subtract := field.Negative != (op.Symbol == "=MINUS")
			d.symbols.DefineSum(c.Location, field.Symbol, field.OffsetSymbol, subtract)
		default:
			d.addDiag(a, cuss.New(cuss.Pass1AddressUndefined, c.Raw.AddressField))
		}

	case "BNKSUM":
		// BnkSum reservation is pass 2's concern; pass 1 only needs to
		// not choke on the card.
	}
}

// dispatchErase implements the three ERASE forms: bare
// (one word), "X +N" (inclusive range, N an end offset not a count),
// and "=N" (N+1 words at the current counter). Every reserved word
// must lie in erasable memory.
func (d *driver) dispatchErase(ref cellstore.CardRef, c parser.Card, a *Annotated) {
	raw := strings.TrimSpace(c.Raw.AddressField)
	field := c.Operation.AddressField

	// The counter-relative forms need a live location counter; the
	// absolute forms place themselves.
	if d.lc == nil && (raw == "" || strings.HasPrefix(raw, "=")) {
		d.addDiag(a, cuss.New(cuss.Pass1LocationNotSet))
		return
	}

	var low, high int
	switch {
	case raw == "":
		low, high = *d.lc, *d.lc
	case strings.HasPrefix(raw, "="):
		n, err := strconv.ParseInt(strings.TrimSpace(raw[1:]), 8, 32)
		if err != nil {
			d.addDiag(a, cuss.Wrap(cuss.Pass1AddressUndefined, err))
			return
		}
		low, high = *d.lc, *d.lc+int(n)
	case field != nil && field.Form == addrfield.FormNumber:
		base := field.Offset
		if field.Negative {
			base = -base
		}
		low, high = base, base
	case field != nil && field.Form == addrfield.FormSymbolOffset:
		base, ok := d.resolveLocation(&addrfield.Field{Form: addrfield.FormSymbol, Symbol: field.Symbol})
		if !ok {
			d.addDiag(a, cuss.New(cuss.Pass1AddressUndefined, field.Symbol))
			return
		}
		n := field.Offset
		if field.Negative {
			n = -n
		}
		low = base
		high = base + n
	default:
		d.addDiag(a, cuss.New(cuss.Pass1AddressUndefined, raw))
		return
	}

	if !isErasable(d.model.Area(low)) || !isErasable(d.model.Area(high)) {
		d.addDiag(a, cuss.New(cuss.Pass1EraseNotErasable, strconv.Itoa(low), strconv.Itoa(high)))
		return
	}

	extent := high - low + 1
	a.RefAddress = &low
	a.Extent = extent
	if c.Location != "" {
		d.symbols.Define(c.Location, low)
	}
	conflicts := d.cells.ReserveRange(low, extent, ref)
	d.recordConflicts(conflicts, a)
	newLC := high + 1
	d.lc = &newLC
}

func isErasable(a memory.Area) bool {
	switch a {
	case memory.Hardware, memory.SpecialErasable, memory.UnswitchedBankedErasable, memory.SwitchedErasable:
		return true
	default:
		return false
	}
}

// resolveLocation evaluates a SETLOC-style address field against the
// symbols defined so far: a number is a true address; a symbol must
// already carry a concrete address (forward references cannot place
// the location counter).
func (d *driver) resolveLocation(field *addrfield.Field) (int, bool) {
	if field == nil {
		return 0, false
	}
	switch field.Form {
	case addrfield.FormNumber:
		addr := field.Offset
		if field.Negative {
			addr = -addr
		}
		return addr, true
	case addrfield.FormSymbol, addrfield.FormSymbolOffset:
		var addr int
		u, ok := d.symbols.Lookup(field.Symbol)
		switch {
		case ok && u.Kind == symtab.KindAddress:
			addr = u.Addr
		case !ok:
			// A digits-only base ("ERASE 61 +2") is an octal address,
			// not a symbol reference.
			n, err := strconv.ParseInt(field.Symbol, 8, 32)
			if err != nil {
				return 0, false
			}
			addr = int(n)
		default:
			return 0, false
		}
		if field.Form == addrfield.FormSymbolOffset {
			off := field.Offset
			if field.Negative {
				off = -off
			}
			addr += off
		}
		return addr, true
	default:
		return 0, false
	}
}

func (d *driver) firstFreeInRange(rng memory.Range) (int, bool) {
	for a := rng.Low; a <= rng.High; a++ {
		if _, ok := d.cells.Get(a); !ok {
			return a, true
		}
	}
	return 0, false
}
