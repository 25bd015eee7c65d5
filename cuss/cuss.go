// Package cuss is the diagnostic catalog ("cusses" in the historical
// assembler's own vocabulary): a flat, fixed list of diagnostics keyed
// by serial number, each carrying its own fatal/non-fatal
// classification. This replaces exception-based control flow: a card
// that fails to assemble still produces a cell, but the diagnostic is
// recorded and counted against the final pass/fail verdict.
package cuss

import "fmt"

// Serial identifies one catalog entry. Values are stable across runs
// so a listing can reference a cuss by number.
type Serial int

const (
	ParseQueerColumn17 Serial = iota + 1
	ParseLocationFieldNotBlank
	ParseIllegalOperation
	Pass1Conflict
	Pass1NoSuchBankOrBlock
	Pass1BankFull
	Pass1AddressUndefined
	Pass1LocationNotSet
	Pass1UndefinedSymbol
	Pass1SymbolCycle
	Pass2WrongBank
	Pass2ExpectedErasable
	Pass2ExpectedFixed
	Pass2OffsetNotAllowed
	Pass2BBCONRequiresEBank
	Pass2NotInFixedMemory
	Pass2UndefinedSymbol
	Pass2BnkSumBankFull
	Pass1EraseNotErasable
	Pass2NumericTooManyDigits
	IOReadFailed
)

// entry is a catalog row: whether the diagnostic is fatal, and its
// fixed message template.
type entry struct {
	fatal   bool
	message string
}

var catalog = map[Serial]entry{
	ParseQueerColumn17:         {fatal: false, message: "queer information in column 17"},
	ParseLocationFieldNotBlank: {fatal: false, message: "location field should be blank"},
	ParseIllegalOperation:      {fatal: true, message: "illegal or mis-spelled operation field"},
	Pass1Conflict:              {fatal: true, message: "conflict with earlier use of this address"},
	Pass1NoSuchBankOrBlock:     {fatal: true, message: "no such bank or block number"},
	Pass1BankFull:              {fatal: true, message: "this bank or block is full"},
	Pass1AddressUndefined:      {fatal: true, message: "address field is undefined"},
	Pass1LocationNotSet:        {fatal: true, message: "location not set"},
	Pass1UndefinedSymbol:       {fatal: true, message: "undefined in pass 1"},
	Pass1SymbolCycle:           {fatal: true, message: "symbol definition cycle"},
	Pass2WrongBank:             {fatal: true, message: "address is in wrong bank"},
	Pass2ExpectedErasable:      {fatal: true, message: "expected erasable but got fixed"},
	Pass2ExpectedFixed:         {fatal: true, message: "expected fixed but got erasable"},
	Pass2OffsetNotAllowed:      {fatal: false, message: "offset not allowed"},
	Pass2BBCONRequiresEBank:    {fatal: true, message: "BBCON type constants require preceding EBANK="},
	Pass2NotInFixedMemory:      {fatal: true, message: "not in fixed memory"},
	Pass2UndefinedSymbol:       {fatal: true, message: "address field is undefined"},
	Pass2BnkSumBankFull:        {fatal: false, message: "0 WORDS LEFT"},
	Pass1EraseNotErasable:      {fatal: true, message: "erase range not in erasable memory"},
	Pass2NumericTooManyDigits:  {fatal: false, message: "too many significant digits"},
	IOReadFailed:               {fatal: true, message: "no match found for card number or acceptor text"},
}

// Fatal reports whether a serial is an intrinsically fatal diagnostic.
// This is a property of the catalog entry, never of the call site.
func Fatal(s Serial) bool {
	e, ok := catalog[s]
	if !ok {
		return true // an unknown serial is a programmer error, treat as fatal
	}
	return e.fatal
}

func (s Serial) String() string {
	if e, ok := catalog[s]; ok {
		return e.message
	}
	return fmt.Sprintf("cuss #%d", int(s))
}

// Instance is one occurrence of a diagnostic attached to a card.
// Context carries extra values for message formatting (e.g. the
// offending symbol, or the index of a conflicting prior card).
type Instance struct {
	Cuss    Serial
	Err     error
	Context []string
}

func New(s Serial, context ...string) Instance {
	return Instance{Cuss: s, Context: context}
}

func Wrap(s Serial, err error, context ...string) Instance {
	return Instance{Cuss: s, Err: err, Context: context}
}

func (i Instance) Fatal() bool { return Fatal(i.Cuss) }

func (i Instance) Error() string {
	if i.Err != nil {
		return fmt.Sprintf("%s: %v", i.Cuss, i.Err)
	}
	if len(i.Context) > 0 {
		return fmt.Sprintf("%s (%v)", i.Cuss, i.Context)
	}
	return i.Cuss.String()
}

// Tally accumulates fatal and non-fatal counts across a run: a
// counter that gates the final success verdict without ever aborting
// assembly partway.
type Tally struct {
	Fatal    int
	NonFatal int
}

func (t *Tally) Add(instances ...Instance) {
	for _, i := range instances {
		if i.Fatal() {
			t.Fatal++
		} else {
			t.NonFatal++
		}
	}
}

// OK reports whether the run succeeded: zero fatal diagnostics.
func (t Tally) OK() bool { return t.Fatal == 0 }
