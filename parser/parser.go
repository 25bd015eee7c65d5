// Package parser turns lexed card.RawCard values into typed cards.
// Go has no sum types, so Card follows ops.Operation's tagged-union
// shape: a common header plus exactly one populated variant-specific
// payload, selected by Kind, which every downstream handler
// dispatches on exhaustively.
package parser

import (
	"fmt"
	"strings"

	"github.com/agc-assembler/yulasm/addrfield"
	"github.com/agc-assembler/yulasm/card"
	"github.com/agc-assembler/yulasm/cuss"
	"github.com/agc-assembler/yulasm/ops"
)

// Kind is the Card discriminant.
type Kind int

const (
	KindRemark Kind = iota
	KindPagination
	KindBasic
	KindInterpretive
	KindAddressConstant
	KindNumericConstant
	KindClerical
)

func (k Kind) String() string {
	switch k {
	case KindRemark:
		return "remark"
	case KindPagination:
		return "pagination"
	case KindBasic:
		return "basic"
	case KindInterpretive:
		return "interpretive"
	case KindAddressConstant:
		return "address-constant"
	case KindNumericConstant:
		return "numeric-constant"
	case KindClerical:
		return "clerical"
	default:
		return "unknown"
	}
}

// OperationCard is the payload shared by every card that names an
// operation symbol (basic, interpretive, address-constant, numeric-
// constant, clerical): the resolved ops.Operation plus the parsed
// address field.
type OperationCard struct {
	Op           *ops.Operation
	Complement   bool
	Extended     bool
	AddressField *addrfield.Field // nil when the address field was empty
}

// Card is one fully parsed source line.
type Card struct {
	Raw      card.RawCard
	Kind     Kind
	Location string // location-field symbol, if any

	Operation *OperationCard // set for every Kind except Remark/Pagination
}

// Parse interprets one RawCard against dialect d.
func Parse(d ops.Dialect, raw card.RawCard) (Card, []cuss.Instance) {
	c := Card{Raw: raw, Location: raw.Location}

	switch raw.Marker {
	case 'R':
		c.Kind = KindRemark
		return c, nil
	case 'P', '#':
		c.Kind = KindPagination
		return c, nil
	}

	if raw.Operation == "" {
		c.Kind = KindRemark
		return c, nil
	}

	op, ok := d.Lookup(raw.Operation)
	if !ok {
		return c, []cuss.Instance{cuss.New(cuss.ParseIllegalOperation, raw.Operation)}
	}

	switch op.Kind {
	case ops.KindBasic:
		c.Kind = KindBasic
	case ops.KindInterpretive:
		c.Kind = KindInterpretive
	case ops.KindAddressConstant:
		c.Kind = KindAddressConstant
	case ops.KindNumeric:
		c.Kind = KindNumericConstant
	case ops.KindClerical:
		c.Kind = KindClerical
	}

	oc := &OperationCard{Op: op, Complement: raw.Complement, Extended: raw.Extended}

	var diags []cuss.Instance
	if raw.AddressField != "" && usesAddressGrammar(op, raw.AddressField) {
		f, err := addrfield.Parse(raw.AddressField)
		if err != nil {
			diags = append(diags, cuss.Wrap(cuss.ParseQueerColumn17, err, raw.AddressField))
		} else {
			oc.AddressField = &f
		}
	}

	if diags == nil {
		if d := clericalFieldDiagnostics(op, raw); d != nil {
			diags = append(diags, d...)
		}
	}

	c.Operation = oc
	return c, diags
}

// usesAddressGrammar reports whether a card's address field follows
// the symbol/number grammar. Numeric-constant cards carry a mantissa-
// exponent-scaling token instead (the numeric lexer's business), and
// ERASE's "=N" form has its own shape read directly from the raw
// field by pass 1.
func usesAddressGrammar(op *ops.Operation, field string) bool {
	if op.Kind == ops.KindNumeric {
		return false
	}
	if op.Kind == ops.KindClerical && op.Symbol == "ERASE" &&
		strings.HasPrefix(strings.TrimSpace(field), "=") {
		return false
	}
	// COUNT names a listing section ("02/PINBALL"), not an address.
	if op.Kind == ops.KindClerical && op.Symbol == "COUNT" {
		return false
	}
	return true
}

// clericalFieldDiagnostics checks a clerical card's location/address
// necessity against what was actually present.
func clericalFieldDiagnostics(op *ops.Operation, raw card.RawCard) []cuss.Instance {
	if op.Kind != ops.KindClerical {
		return nil
	}
	var diags []cuss.Instance
	if op.Clerical.Location == ops.Forbidden && raw.Location != "" {
		diags = append(diags, cuss.New(cuss.ParseLocationFieldNotBlank, raw.Location))
	}
	if op.Clerical.Address == ops.Required && strings.TrimSpace(raw.AddressField) == "" {
		diags = append(diags, cuss.New(cuss.Pass1AddressUndefined, fmt.Sprintf("%s requires an address field", op.Symbol)))
	}
	return diags
}
