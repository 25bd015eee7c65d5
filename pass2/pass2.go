// Package pass2 implements the assembler's second pass: given pass
// 1's annotated card stream and resolved symbol table, it builds every
// card's word(s) and writes them into the cell store, tracks the
// running erasable/superbank context and one-shot banks, packs the
// interpretive sub-language's two-operations-per-word encoding, and
// closes out BNKSUM's bank checksums.
package pass2

import (
	"strconv"
	"strings"

	"github.com/agc-assembler/yulasm/addrfield"
	"github.com/agc-assembler/yulasm/cellstore"
	"github.com/agc-assembler/yulasm/cuss"
	"github.com/agc-assembler/yulasm/memory"
	"github.com/agc-assembler/yulasm/numeric"
	"github.com/agc-assembler/yulasm/ops"
	"github.com/agc-assembler/yulasm/parser"
	"github.com/agc-assembler/yulasm/pass1"
	"github.com/agc-assembler/yulasm/symtab"
)

const wordMask = 0x7FFF

// BnkSum is one queued bank-checksum reservation: the TC-to-checksum
// and checksum words are reserved as soon as the BNKSUM card is seen,
// but the checksum's value can only be computed once every other word
// in the bank has been built.
type BnkSum struct {
	Definition   cellstore.CardRef
	Bank         int
	StartAddress int
	SumAddress   int
}

// Result is pass 2's output.
type Result struct {
	Cells   *cellstore.Store
	Cards   []pass1.Annotated
	BnkSums []BnkSum
	Tally   cuss.Tally
}

type driver struct {
	model   memory.Model
	dialect ops.Dialect
	symbols *symtab.Resolved
	cells   *cellstore.Store
	cards   []pass1.Annotated

	indexMode    bool
	eBank        int
	sBank        int
	oneShotEBank *int
	oneShotSBank *int
	count        string

	lastInterpOp *ops.Operation
	lastWasStadr bool

	bnkSums []BnkSum
}

// Run executes pass 2 over pass 1's output, mutating p1.Cards in place
// with pass 2's own diagnostics and returning the completed cells.
func Run(model memory.Model, dialect ops.Dialect, p1 pass1.Result) Result {
	d := &driver{model: model, dialect: dialect, symbols: p1.Resolved, cells: p1.Cells, cards: p1.Cards}

	tally := p1.Tally

	for i := range d.cards {
		diags := d.dispatch(i)
		tally.Add(diags...)
		d.cards[i].Diagnostics = append(d.cards[i].Diagnostics, diags...)
		d.cards[i].EBank = d.eBank
		d.cards[i].SBank = d.sBank
		d.cards[i].Count = d.count
	}

	tally.Add(d.finalizeBnkSums()...)

	return Result{Cells: d.cells, Cards: d.cards, BnkSums: d.bnkSums, Tally: tally}
}

func (d *driver) dispatch(i int) []cuss.Instance {
	c := d.cards[i].Card
	switch c.Kind {
	case parser.KindRemark, parser.KindPagination:
		return nil
	case parser.KindClerical:
		return d.dispatchClerical(i)
	case parser.KindBasic:
		return d.buildBasic(i)
	case parser.KindInterpretive:
		return d.buildInterpretive(i)
	case parser.KindAddressConstant:
		return d.buildAddressConstant(i)
	case parser.KindNumericConstant:
		return d.buildNumeric(i)
	}
	return nil
}

// consumeOneShots advances eBank/sBank from an armed EBANK=/SBANK=
// card and clears it; a one-shot applies to exactly one following
// memory-producing card. requires is set for BBCON/2CADR/2FCADR,
// which additionally need oneShotEBank to have been armed immediately
// before them.
func (d *driver) consumeOneShots(requires bool) []cuss.Instance {
	var diags []cuss.Instance
	if requires && d.oneShotEBank == nil {
		diags = append(diags, cuss.New(cuss.Pass2BBCONRequiresEBank))
	}
	if d.oneShotEBank != nil {
		d.eBank = *d.oneShotEBank
		d.oneShotEBank = nil
	}
	if d.oneShotSBank != nil {
		d.sBank = *d.oneShotSBank
		d.oneShotSBank = nil
	}
	return diags
}

func (d *driver) resolveOperand(field *addrfield.Field) (int, bool, []cuss.Instance) {
	if field == nil {
		return 0, false, []cuss.Instance{cuss.New(cuss.Pass2UndefinedSymbol)}
	}
	switch field.Form {
	case addrfield.FormNumber:
		v := field.Offset
		if field.Negative {
			v = -v
		}
		return v, true, nil
	case addrfield.FormSymbol:
		v, ok := d.symbols.Lookup(field.Symbol)
		if !ok {
			return 0, false, []cuss.Instance{cuss.New(cuss.Pass2UndefinedSymbol, field.Symbol)}
		}
		return v, true, nil
	case addrfield.FormSymbolOffset:
		base, ok := d.symbols.Lookup(field.Symbol)
		if !ok {
			return 0, false, []cuss.Instance{cuss.New(cuss.Pass2UndefinedSymbol, field.Symbol)}
		}
		off := field.Offset
		if field.Negative {
			off = -off
		}
		return base + off, true, nil
	default:
		return 0, false, []cuss.Instance{cuss.New(cuss.Pass2UndefinedSymbol)}
	}
}

func isErasableArea(a memory.Area) bool {
	switch a {
	case memory.Hardware, memory.SpecialErasable, memory.UnswitchedBankedErasable, memory.SwitchedErasable:
		return true
	default:
		return false
	}
}

// checkReachability decomposes trueAddr into its within-bank slot and,
// when enforce is true, validates that an erasable operand lies in the
// current eBank and a fixed operand lies in the location counter's own
// fixed bank pair (suppressed for one instruction after a basic
// INDEX, whose operand is computed at run time).
func (d *driver) checkReachability(lc, trueAddr int, addrRange ops.AddressRange, enforce bool) (int, []cuss.Instance) {
	var diags []cuss.Instance
	ba, ok := d.model.AsBankAndAddress(trueAddr)
	if !ok {
		return 0, []cuss.Instance{cuss.New(cuss.Pass2NotInFixedMemory, strconv.Itoa(trueAddr))}
	}
	erasable := isErasableArea(d.model.Area(trueAddr))
	if addrRange == ops.AddressErasable && !erasable {
		diags = append(diags, cuss.New(cuss.Pass2ExpectedErasable))
	}
	if addrRange == ops.AddressFixed && erasable {
		diags = append(diags, cuss.New(cuss.Pass2ExpectedFixed))
	}
	if enforce {
		if erasable {
			if ba.EBank == nil || *ba.EBank != d.eBank {
				diags = append(diags, cuss.New(cuss.Pass2WrongBank))
			}
		} else if ba.FBank != nil {
			if lcBA, lcOK := d.model.AsBankAndAddress(lc); lcOK && lcBA.FBank != nil {
				if memory.AdjustedFixedBank(*ba.FBank, ba.SBank) != memory.AdjustedFixedBank(*lcBA.FBank, lcBA.SBank) {
					diags = append(diags, cuss.New(cuss.Pass2WrongBank))
				}
			}
		}
	}
	return ba.Address, diags
}

// buildBasic assembles a basic (or extended) instruction's word:
// opCode<<12 | qc<<10 | slot (10-bit slot) or opCode<<12 | slot
// (12-bit slot) for opcodes without a quarter code, one's-complemented
// when the card's operation field carried a leading '-'.
func (d *driver) buildBasic(i int) []cuss.Instance {
	a := &d.cards[i]
	op := a.Card.Operation.Op
	basic := op.Basic
	diags := d.consumeOneShots(false)

	if a.RefAddress == nil {
		d.indexMode = d.dialect.IsIndex(op)
		d.lastInterpOp = nil
		d.lastWasStadr = false
		return diags
	}
	lc := *a.RefAddress
	suppress := d.indexMode

	var slot int
	if basic.SpecialAddr != nil {
		slot = *basic.SpecialAddr
	} else {
		trueAddr, ok, fdiags := d.resolveOperand(a.Card.Operation.AddressField)
		diags = append(diags, fdiags...)
		if !ok {
			d.indexMode = d.dialect.IsIndex(op)
			d.lastInterpOp = nil
			d.lastWasStadr = false
			return diags
		}
		trueAddr += basic.AddressBias

		if basic.AddressRange == ops.AddressIOChannel {
			slot = trueAddr & ((1 << uint(basic.IOChannelBits)) - 1)
		} else {
			s, rdiags := d.checkReachability(lc, trueAddr, basic.AddressRange, !suppress)
			diags = append(diags, rdiags...)
			slot = s
		}
	}

	word := basic.OpCode << 12
	switch {
	case basic.AddressRange == ops.AddressIOChannel && basic.SpecialAddr == nil:
		word |= slot & 0x1FF
		if basic.PCode != nil {
			word |= *basic.PCode << 9
		}
	case basic.QC != nil:
		word |= (*basic.QC << 10) | (slot & 0x3FF)
	default:
		word |= slot & 0xFFF
	}
	if a.Card.Operation.Complement {
		word ^= wordMask
	}
	if !d.cells.SetValue(lc, word&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}

	d.indexMode = d.dialect.IsIndex(op)
	d.lastInterpOp = nil
	d.lastWasStadr = false
	return diags
}

// interpHalf computes one operation's contribution to the packed
// two-per-word interpretive encoding: (opCode + 1) + (indexed ? 2 :
// 0), the bit-field offsets the interpreter's dispatch table expects.
func interpHalf(op *ops.Operation, indexed bool) int {
	code := 0
	if op.Interpretive != nil && op.Interpretive.OpCode != nil {
		code = *op.Interpretive.OpCode
	}
	half := code + 1
	if indexed {
		half += 2
	}
	return half
}

func fieldIndexed(field *addrfield.Field) bool {
	return field != nil && field.Index != addrfield.IndexNone
}

// buildInterpretive handles every interpretive card, handing the store
// sub-type to buildStore. Non-store cards pack two-per-word:
// the low half (the first card of the pair, executed second) supplies
// bits 0-6, the high half (executed first) bits 7-13; an unpaired
// trailing card gets an implicit zero high half. Pairing is detected
// by pass 1's RefAddress/Extent annotation rather than any new state
// here.
func (d *driver) buildInterpretive(i int) []cuss.Instance {
	a := &d.cards[i]
	op := a.Card.Operation.Op

	if d.dialect.IsStore(op) {
		diags := d.consumeOneShots(false)
		diags = append(diags, d.buildStore(i)...)
		d.lastInterpOp = op
		d.lastWasStadr = false
		return diags
	}

	if a.RefAddress == nil {
		d.lastInterpOp = op
		d.lastWasStadr = d.dialect.IsStadr(op)
		return nil
	}

	if a.Extent == 0 {
		// High half: its word was already written alongside the low
		// half below.
		d.lastInterpOp = op
		d.lastWasStadr = d.dialect.IsStadr(op)
		return nil
	}

	diags := d.consumeOneShots(false)

	lowHalf := interpHalf(op, fieldIndexed(a.Card.Operation.AddressField))
	highHalf := 0
	if i+1 < len(d.cards) {
		nc := d.cards[i+1]
		if nc.Card.Kind == parser.KindInterpretive && nc.RefAddress != nil &&
			*nc.RefAddress == *a.RefAddress && nc.Extent == 0 {
			highHalf = interpHalf(nc.Card.Operation.Op, fieldIndexed(nc.Card.Operation.AddressField))
		}
	}

	word := (((highHalf & 0x7F) << 7) | (lowHalf & 0x7F)) ^ wordMask
	if !d.cells.SetValue(*a.RefAddress, word&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}

	d.lastInterpOp = op
	d.lastWasStadr = d.dialect.IsStadr(op)
	return diags
}

// buildStore assembles a store card's single word: (code<<11) |
// (address+1), one's-complemented iff the immediately preceding
// interpretive card was STADR. STODL/STOVL/STCALL name two
// interpretive address words in the historical assembler; this card
// model carries one address field per card, so ts-code selection here
// classifies only the card's own operand; a second IAW's indexing is
// never seen.
func (d *driver) buildStore(i int) []cuss.Instance {
	a := &d.cards[i]
	if a.RefAddress == nil {
		return nil
	}
	op := a.Card.Operation.Op
	field := a.Card.Operation.AddressField

	trueAddr, ok, diags := d.resolveOperand(field)
	if !ok {
		return diags
	}
	addr := trueAddr
	if ba, baOK := d.model.AsBankAndAddress(trueAddr); baOK {
		addr = ba.Address
	}

	indexedMask := ops.IndexedNone
	storeReg := ops.StoreIndexNone
	if field != nil {
		switch field.Index {
		case addrfield.Index1:
			indexedMask = ops.IndexedIAW1X1
			storeReg = ops.StoreIndex1
		case addrfield.Index2:
			indexedMask = ops.IndexedIAW1X2
			storeReg = ops.StoreIndex2
		}
	}
	code := ops.SelectStoreTsCode(d.dialect, op, indexedMask, storeReg)

	word := (code << 11) | ((addr + 1) & 0x7FF)
	if d.lastWasStadr {
		word ^= wordMask
	}
	if !d.cells.SetValue(*a.RefAddress, word&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

// buildAddressConstant dispatches the address-constant card set:
// each symbol has its own bit layout, built by the helpers below.
func (d *driver) buildAddressConstant(i int) []cuss.Instance {
	a := &d.cards[i]
	op := a.Card.Operation.Op
	field := a.Card.Operation.AddressField

	requiresOneShot := op.Symbol == "BBCON" || op.Symbol == "2CADR" || op.Symbol == "2FCADR"
	diags := d.consumeOneShots(requiresOneShot)

	if a.RefAddress == nil {
		d.lastInterpOp = nil
		d.lastWasStadr = false
		return diags
	}
	refAddr := *a.RefAddress

	switch op.Symbol {
	case "P":
		diags = append(diags, d.buildP(refAddr, field)...)
	case "BBCON":
		diags = append(diags, d.buildBBCON(refAddr, field)...)
	case "2CADR", "2FCADR":
		diags = append(diags, d.build2CADR(refAddr, field)...)
	case "DNCHAN":
		diags = append(diags, d.buildDNCHAN(refAddr, field)...)
	case "DNPTR":
		diags = append(diags, d.buildDNPTR(refAddr, field)...)
	case "1DNADR", "2DNADR", "3DNADR", "4DNADR", "5DNADR", "6DNADR":
		diags = append(diags, d.buildNDNADR(refAddr, field, int(op.Symbol[0]-'0'))...)
	default: // ADRES, CADR, ECADR, GENADR, REMADR
		diags = append(diags, d.buildSimpleAddress(refAddr, field)...)
	}

	d.lastInterpOp = nil
	d.lastWasStadr = false
	return diags
}

// buildSimpleAddress covers the plain address constants (ADRES,
// CADR, ECADR, GENADR, REMADR): each packs the target's within-bank
// ("S-register") address alone.
func (d *driver) buildSimpleAddress(refAddr int, field *addrfield.Field) []cuss.Instance {
	trueAddr, ok, diags := d.resolveOperand(field)
	if !ok {
		return diags
	}
	addr := trueAddr
	if ba, baOK := d.model.AsBankAndAddress(trueAddr); baOK {
		addr = ba.Address
	}
	if !d.cells.SetValue(refAddr, addr&0xFFF) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

// buildBBCON packs (fBank<<10)|(sBank<<4)|eBank: the target's fixed
// bank and superbank plus the currently-armed erasable bank, for the
// bank-switching routine that jumps there.
func (d *driver) buildBBCON(refAddr int, field *addrfield.Field) []cuss.Instance {
	trueAddr, ok, diags := d.resolveOperand(field)
	if !ok {
		return diags
	}
	ba, baOK := d.model.AsBankAndAddress(trueAddr)
	fBank, sBank := 0, 0
	if baOK && ba.FBank != nil {
		fBank = *ba.FBank
	}
	if baOK && ba.SBank != nil {
		sBank = *ba.SBank
	}
	word := (fBank << 10) | (sBank << 4) | d.eBank
	if !d.cells.SetValue(refAddr, word&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

// build2CADR/2FCADR write two words: the target's within-bank address,
// then its erasable bank (for an erasable target) or a BBCON-style
// bank composition (for a fixed target).
func (d *driver) build2CADR(refAddr int, field *addrfield.Field) []cuss.Instance {
	trueAddr, ok, diags := d.resolveOperand(field)
	if !ok {
		return diags
	}
	ba, baOK := d.model.AsBankAndAddress(trueAddr)
	addr := trueAddr
	if baOK {
		addr = ba.Address
	}
	var low int
	if baOK && ba.EBank != nil {
		low = *ba.EBank
	} else {
		fBank, sBank := 0, 0
		if baOK && ba.FBank != nil {
			fBank = *ba.FBank
		}
		if baOK && ba.SBank != nil {
			sBank = *ba.SBank
		}
		low = (fBank << 10) | (sBank << 4) | d.eBank
	}
	if !d.cells.SetValue(refAddr, (addr&0xFFF)&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	if !d.cells.SetValue(refAddr+1, low&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

func (d *driver) buildDNCHAN(refAddr int, field *addrfield.Field) []cuss.Instance {
	var diags []cuss.Instance
	channel := 0
	if field != nil && field.Form == addrfield.FormNumber {
		channel = field.Offset
		if field.Negative {
			channel = -channel
		}
	}
	if channel < 0 || channel >= 0x20 {
		diags = append(diags, cuss.New(cuss.Pass2OffsetNotAllowed, "DNCHAN channel out of range"))
	}
	word := 0x3800 | (channel & 0x1F)
	if !d.cells.SetValue(refAddr, word) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

func (d *driver) buildDNPTR(refAddr int, field *addrfield.Field) []cuss.Instance {
	trueAddr, ok, diags := d.resolveOperand(field)
	if !ok {
		return diags
	}
	if d.model.Area(trueAddr) != memory.VariableFixed {
		diags = append(diags, cuss.New(cuss.Pass2NotInFixedMemory))
	}
	pack, _ := d.model.AsFixedCompleteAddress(trueAddr)
	word := 0x3000 | (pack & 0x7FF)
	if !d.cells.SetValue(refAddr, word) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

func (d *driver) buildNDNADR(refAddr int, field *addrfield.Field, n int) []cuss.Instance {
	trueAddr, ok, diags := d.resolveOperand(field)
	if !ok {
		return diags
	}
	if !isErasableArea(d.model.Area(trueAddr)) {
		diags = append(diags, cuss.New(cuss.Pass2ExpectedErasable))
	}
	word := ((n - 1) << 11) | (trueAddr & 0x7FF)
	if !d.cells.SetValue(refAddr, word) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

// buildP implements the P address constant's three sub-cases, keyed
// off the immediately preceding interpretive card: a logical op packs
// a flag split into quotient/remainder mod 15, a shift op packs its
// magnitude biased by 129, and anything else falls to "other", a
// plain translated address. The +1 for an indexable operand slot is
// keyed off the preceding interpretive op's first operand descriptor
// (see the Open Question decisions in DESIGN.md).
func (d *driver) buildP(refAddr int, field *addrfield.Field) []cuss.Instance {
	var diags []cuss.Instance
	prev := d.lastInterpOp
	indexed := field != nil && field.Index == addrfield.Index2

	if prev != nil && prev.Interpretive != nil && prev.Interpretive.SubType == ops.SubTypeLogical {
		flag := 0
		if field != nil && field.Form == addrfield.FormNumber {
			flag = field.Offset
			if field.Negative {
				flag = -flag
			}
		}
		if flag < 0 {
			diags = append(diags, cuss.New(cuss.Pass2OffsetNotAllowed, "P logical flag must be non-negative"))
		}
		code := 0
		if prev.Interpretive.Code != nil {
			code = *prev.Interpretive.Code
		}
		word := ((flag / 15) << 8) | (code << 4) | (flag % 15)
		if !d.cells.SetValue(refAddr, word&wordMask) {
			diags = append(diags, cuss.New(cuss.Pass1Conflict))
		}
		return diags
	}

	if prev != nil && prev.Interpretive != nil && prev.Interpretive.SubType == ops.SubTypeShift {
		shift := 0
		if prev.Interpretive.Code != nil {
			shift = *prev.Interpretive.Code
		}
		if shift < -125 || shift > 125 {
			diags = append(diags, cuss.New(cuss.Pass2OffsetNotAllowed, "P shift magnitude out of range"))
		}
		word := 0x2000 | (shift + 129)
		if indexed {
			word ^= wordMask
		}
		if !d.cells.SetValue(refAddr, word&wordMask) {
			diags = append(diags, cuss.New(cuss.Pass1Conflict))
		}
		return diags
	}

	// "Other": translate the address field directly.
	trueAddr, ok, fdiags := d.resolveOperand(field)
	diags = append(diags, fdiags...)
	if !ok {
		return diags
	}

	var word int
	if isErasableArea(d.model.Area(trueAddr)) {
		ba, _ := d.model.AsBankAndAddress(trueAddr)
		word = ba.Address
	} else if fieldIndexed(field) {
		if packed, packOK := d.model.AsInterpretiveFixedAddress(refAddr, trueAddr); packOK {
			word = packed
		} else {
			diags = append(diags, cuss.New(cuss.Pass2NotInFixedMemory))
		}
	} else {
		packed, packOK := d.model.AsFixedCompleteAddress(trueAddr)
		if !packOK {
			diags = append(diags, cuss.New(cuss.Pass2NotInFixedMemory))
		}
		word = packed
	}
	if prev != nil && prev.Interpretive != nil && prev.Interpretive.Operand1 != nil && prev.Interpretive.Operand1.Indexable {
		word++
	}
	if indexed {
		word ^= wordMask
	}
	if !d.cells.SetValue(refAddr, word&wordMask) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

// buildNumeric encodes a DEC/2DEC/OCT/2OCT card via numeric.Lex and
// writes its one or two words.
func (d *driver) buildNumeric(i int) []cuss.Instance {
	a := &d.cards[i]
	diags := d.consumeOneShots(false)
	d.lastInterpOp = nil
	d.lastWasStadr = false

	if a.RefAddress == nil {
		return diags
	}

	var op numeric.Op
	switch a.Card.Operation.Op.Symbol {
	case "DEC":
		op = numeric.OpDEC
	case "2DEC":
		op = numeric.Op2DEC
	case "OCT":
		op = numeric.OpOCT
	case "2OCT":
		op = numeric.Op2OCT
	}
	res, ndiags := numeric.Lex(op, a.Card.Raw.AddressField)
	diags = append(diags, ndiags...)

	refAddr := *a.RefAddress
	if res.HighWord != nil {
		if !d.cells.SetValue(refAddr, *res.HighWord) {
			diags = append(diags, cuss.New(cuss.Pass1Conflict))
		}
		if !d.cells.SetValue(refAddr+1, res.LowWord) {
			diags = append(diags, cuss.New(cuss.Pass1Conflict))
		}
	} else if !d.cells.SetValue(refAddr, res.LowWord) {
		diags = append(diags, cuss.New(cuss.Pass1Conflict))
	}
	return diags
}

// dispatchClerical handles the clerical cards pass 2 still cares
// about: EBANK=/SBANK= arm the one-shot banks, BNKSUM reserves its
// checksum words, COUNT opens the section the following cards tally
// under.
func (d *driver) dispatchClerical(i int) []cuss.Instance {
	a := &d.cards[i]
	op := a.Card.Operation.Op
	field := a.Card.Operation.AddressField
	var diags []cuss.Instance

	switch op.Symbol {
	case "EBANK=":
		if field != nil {
			v, ok, _ := d.resolveOperand(field)
			if ok {
				if ba, baOK := d.model.AsBankAndAddress(v); baOK && ba.EBank != nil {
					bank := *ba.EBank
					d.oneShotEBank = &bank
				}
			}
		}
	case "SBANK=":
		if field != nil && field.Form == addrfield.FormNumber {
			v := field.Offset
			if field.Negative {
				v = -v
			}
			d.oneShotSBank = &v
		}
	case "COUNT":
		d.count = strings.TrimSpace(a.Card.Raw.AddressField)
	case "BNKSUM":
		diags = append(diags, d.reserveBnkSum(cellstore.CardRef(i), field)...)
	}

	d.lastInterpOp = nil
	d.lastWasStadr = false
	return diags
}

// reserveBnkSum claims the last one or two words of the named bank:
// the checksum itself, and (space permitting) a TC to it. An
// already-full bank is recorded with a "0 WORDS LEFT" hint rather than
// refusing the card outright.
func (d *driver) reserveBnkSum(ref cellstore.CardRef, field *addrfield.Field) []cuss.Instance {
	var diags []cuss.Instance
	bank := 0
	if field != nil && field.Form == addrfield.FormNumber {
		bank = field.Offset
		if field.Negative {
			bank = -bank
		}
	}
	rng, ok := d.model.FixedBankRange(bank)
	if !ok {
		return append(diags, cuss.New(cuss.Pass1NoSuchBankOrBlock, strconv.Itoa(bank)))
	}

	sumAddr := rng.High
	if _, taken := d.cells.Get(sumAddr); taken {
		return append(diags, cuss.New(cuss.Pass2BnkSumBankFull, strconv.Itoa(bank)))
	}
	d.cells.Reserve(sumAddr, ref)
	d.bnkSums = append(d.bnkSums, BnkSum{Definition: ref, Bank: bank, StartAddress: rng.Low, SumAddress: sumAddr})

	tcAddr := sumAddr - 1
	if tcAddr < rng.Low {
		diags = append(diags, cuss.New(cuss.Pass2BnkSumBankFull, strconv.Itoa(bank)))
		return diags
	}
	if _, taken := d.cells.Get(tcAddr); taken {
		diags = append(diags, cuss.New(cuss.Pass2BnkSumBankFull, strconv.Itoa(bank)))
		return diags
	}
	d.cells.Reserve(tcAddr, ref)
	if tc, tcOK := d.dialect.Lookup("TC"); tcOK {
		ba, _ := d.model.AsBankAndAddress(sumAddr)
		word := (tc.Basic.OpCode << 12) | (ba.Address & 0xFFF)
		d.cells.SetValue(tcAddr, word)
	}
	return diags
}

// finalizeBnkSums runs once every card has been built: for each queued
// BnkSum it walks the bank's content words with a one's-complement
// running sum, then derives the checksum so that sum+checksum ≡ bank
// (mod 2^15-1) and the checksum's sign matches the sum's.
func (d *driver) finalizeBnkSums() []cuss.Instance {
	var diags []cuss.Instance
	for _, b := range d.bnkSums {
		sum := 0
		for addr := b.StartAddress; addr < b.SumAddress-1; addr++ {
			cell, ok := d.cells.Get(addr)
			if !ok || !cell.HasValue {
				continue
			}
			if cell.Value&0x4000 != 0 {
				sum -= (cell.Value ^ wordMask) & wordMask
			} else {
				sum += cell.Value & 0x3FFF
			}
			for sum > 0x3FFF {
				sum -= 0x3FFF
			}
			for sum < -0x3FFF {
				sum += 0x3FFF
			}
		}

		var checksum int
		if sum < 0 {
			checksum = -b.Bank - sum
		} else {
			checksum = b.Bank - sum
		}
		if checksum < 0 {
			checksum = (-checksum) ^ wordMask
		}
		if !d.cells.SetValue(b.SumAddress, checksum&wordMask) {
			diags = append(diags, cuss.New(cuss.Pass1Conflict))
		}
	}
	return diags
}
