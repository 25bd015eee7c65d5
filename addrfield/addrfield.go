// Package addrfield parses a card's address field (source columns
// 17-40): a symbol, a symbol with a signed offset, a bare
// signed or unsigned number, a symbol-symbol pair (for =PLUS/=MINUS),
// and an optional trailing index-register suffix (,1 or ,2).
//
// Numeric subfields are octal, the historical assemblers' default
// radix for address arithmetic; a trailing D marks a decimal number
// ("170D").
package addrfield

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agc-assembler/yulasm/charset"
)

// Form discriminates the address-field shapes.
type Form int

const (
	FormSymbol       Form = iota // symbol
	FormSymbolOffset             // symbol +/- number
	FormNumber                   // +/- number
	FormSymbolSymbol             // symbol +/- symbol (=PLUS/=MINUS)
)

// IndexRegister names the optional trailing ",1"/",2" suffix.
type IndexRegister int

const (
	IndexNone IndexRegister = iota
	Index1
	Index2
)

// Field is a parsed address field.
type Field struct {
	Form Form

	Symbol       string
	OffsetSymbol string // set when Form == FormSymbolSymbol
	Offset       int    // set when Form == FormSymbolOffset or FormNumber
	Negative     bool   // sign attached to Offset/OffsetSymbol

	Index IndexRegister
}

// Parse splits raw into its address-field shape. raw has already had
// column framing and the trailing remark stripped by the card lexer.
func Parse(raw string) (Field, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Field{}, fmt.Errorf("empty address field")
	}

	var f Field
	if i := strings.LastIndexByte(s, ','); i >= 0 && i == len(s)-2 {
		switch s[i+1] {
		case '1':
			f.Index = Index1
		case '2':
			f.Index = Index2
		default:
			return Field{}, fmt.Errorf("unrecognized index register suffix: %q", s[i:])
		}
		s = strings.TrimSpace(s[:i])
	}

	if s == "" {
		return Field{}, fmt.Errorf("empty address field before index suffix")
	}

	if n, neg, ok := parseNumber(s); ok {
		f.Form = FormNumber
		f.Negative = neg
		f.Offset = n
		return f, nil
	}

	if s[0] == '+' || s[0] == '-' {
		return Field{}, fmt.Errorf("bad numeric address field %q", s)
	}

	if i := strings.IndexAny(s, "+-"); i > 0 {
		symbol := strings.TrimSpace(s[:i])
		sign, rest := s[i], strings.TrimSpace(s[i+1:])
		if !isSymbol(symbol) {
			return Field{}, fmt.Errorf("invalid symbol %q", symbol)
		}
		if n, _, ok := parseNumber(rest); ok {
			f.Form = FormSymbolOffset
			f.Symbol = symbol
			f.Negative = sign == '-'
			f.Offset = n
			return f, nil
		}
		if isSymbol(rest) {
			f.Form = FormSymbolSymbol
			f.Symbol = symbol
			f.OffsetSymbol = rest
			f.Negative = sign == '-'
			return f, nil
		}
		return Field{}, fmt.Errorf("unrecognized address field %q", s)
	}

	if !isSymbol(s) {
		return Field{}, fmt.Errorf("invalid symbol %q", s)
	}
	f.Form = FormSymbol
	f.Symbol = s
	return f, nil
}

// parseNumber reads an optionally-signed numeric token: octal by
// default, decimal with a trailing D. A token with any non-digit
// character (a symbol, a symbol±offset pair) reports ok == false.
func parseNumber(s string) (value int, negative bool, ok bool) {
	if s == "" {
		return 0, false, false
	}
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}
	base := 8
	if strings.HasSuffix(s, "D") {
		base = 10
		s = s[:len(s)-1]
	}
	if s == "" {
		return 0, false, false
	}
	n, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0, false, false
	}
	return int(n), negative, true
}

func isSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !charset.IsSymbolChar(s[i]) {
			return false
		}
	}
	return true
}
