// Package numeric implements the DEC/2DEC/OCT/2OCT mantissa-exponent-
// scaling lexer. The mantissa is carried as an exact rational
// (math/big.Rat) until the final rounding: double-precision constants
// scale across a wider dynamic range than a machine word holds
// (mantissa * 10^exp * 2^scale before any rounding), and the
// historical listings only reproduce bit-for-bit if no intermediate
// rounding creeps in.
package numeric

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/agc-assembler/yulasm/cuss"
)

// Op names the four numeric-constant operations; it fixes both radix
// and precision, which the assembler otherwise passes in separately.
type Op int

const (
	OpDEC Op = iota
	Op2DEC
	OpOCT
	Op2OCT
)

func (o Op) radix() int {
	if o == OpOCT || o == Op2OCT {
		return 8
	}
	return 10
}

func (o Op) double() bool { return o == Op2DEC || o == Op2OCT }

// Result is the encoded constant: one word for single precision, two
// for double (HighWord set).
type Result struct {
	HighWord *int
	LowWord  int
}

// spFractionBits is the number of fractional magnitude bits an AGC
// single-precision word carries.
const spFractionBits = 14

// dpFractionBits is the full double-precision fraction width, split
// 14-high/14-low across the two words.
const dpFractionBits = 28

const wordMask = 0x7FFF // a full AGC word is 15 bits

// parsed is the token split into its grammar pieces.
type parsed struct {
	negative bool
	whole    string
	frac     string
	exp      int
	scale    int
}

func parseToken(token string) (parsed, error) {
	p := parsed{}
	// The address field separates mantissa, exponent and scaling with
	// blanks ("1.0 E-2 B14"); the grammar itself is blank-free.
	s := strings.Join(strings.Fields(token), "")
	if s == "" {
		return p, fmt.Errorf("empty numeric token")
	}
	if s[0] == '+' || s[0] == '-' {
		p.negative = s[0] == '-'
		s = s[1:]
	}

	mantissa := s
	if i := strings.IndexAny(s, "Ee"); i >= 0 {
		mantissa = s[:i]
		rest := s[i+1:]
		expStr := rest
		if j := strings.IndexAny(rest, "Bb"); j >= 0 {
			expStr = rest[:j]
			scaleStr := rest[j+1:]
			n, err := strconv.Atoi(scaleStr)
			if err != nil {
				return p, fmt.Errorf("bad scale: %w", err)
			}
			p.scale = n
		}
		n, err := strconv.Atoi(expStr)
		if err != nil {
			return p, fmt.Errorf("bad exponent: %w", err)
		}
		if n < -100 || n > 100 {
			return p, fmt.Errorf("exponent out of bounds: %d", n)
		}
		p.exp = n
	} else if i := strings.IndexAny(s, "Bb"); i >= 0 {
		mantissa = s[:i]
		n, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return p, fmt.Errorf("bad scale: %w", err)
		}
		p.scale = n
	}
	if p.scale < -1000 || p.scale > 1000 {
		return p, fmt.Errorf("scale out of bounds: %d", p.scale)
	}

	if dot := strings.IndexByte(mantissa, '.'); dot >= 0 {
		p.whole, p.frac = mantissa[:dot], mantissa[dot+1:]
	} else {
		p.whole = mantissa
	}
	if p.whole == "" {
		p.whole = "0"
	}
	return p, nil
}

// Lex encodes token under op's rules, returning the built word(s) and
// any diagnostics raised along the way (range violations and
// exponent/fraction truncation warnings are non-fatal: they still
// produce a word).
func Lex(op Op, token string) (Result, []cuss.Instance) {
	p, err := parseToken(token)
	if err != nil {
		return Result{}, []cuss.Instance{cuss.Wrap(cuss.ParseQueerColumn17, err, token)}
	}

	if op.radix() == 10 {
		return lexDecimal(op, p)
	}
	return lexOctal(op, p)
}

// maxDecimalDigits and maxOctalDigits bound the mantissa. The
// original assembler documentation gives smaller limits, but real
// flight source exceeds them and must still assemble, so the cuss is
// non-fatal.
const (
	maxDecimalDigits = 20
	maxOctalDigits   = 24
)

func lexDecimal(op Op, p parsed) (Result, []cuss.Instance) {
	var diags []cuss.Instance

	digits := p.whole + p.frac
	if len(strings.TrimLeft(digits, "0")) > maxDecimalDigits {
		diags = append(diags, cuss.New(cuss.Pass2NumericTooManyDigits, digits))
	}
	mant := new(big.Int)
	if _, ok := mant.SetString(digits, 10); !ok {
		mant.SetInt64(0)
	}
	// value = mantissa * 10^(exp - fracLen) * 2^scale
	value := new(big.Rat).SetInt(mant)
	tenExp := p.exp - len(p.frac)
	pow10 := new(big.Rat).SetInt(pow(big.NewInt(10), abs(tenExp)))
	if tenExp >= 0 {
		value.Mul(value, pow10)
	} else {
		value.Quo(value, pow10)
	}
	pow2 := new(big.Rat).SetInt(pow(big.NewInt(2), abs(p.scale)))
	if p.scale >= 0 {
		value.Mul(value, pow2)
	} else {
		value.Quo(value, pow2)
	}

	bits := spFractionBits
	if op.double() {
		bits = dpFractionBits
	}

	one := big.NewRat(1, 1)
	if value.Cmp(one) < 0 {
		scaled := new(big.Rat).Mul(value, new(big.Rat).SetInt(pow(big.NewInt(2), bits)))
		rounded := roundHalfAwayFromZero(scaled)
		max := int64(1)<<uint(bits) - 1
		if rounded > max {
			// Rounding pushed an almost-1.0 value (e.g. ABOUTONE) up to
			// 2^bits; clamp to 2^bits-1 instead of overflowing into the
			// next bit.
			rounded = max
		}
		return encode(op, p.negative, rounded), diags
	}

	// value >= 1: an integer constant. Representable directly up to the
	// word's magnitude; past that the lexer raises a non-fatal range
	// cuss and still emits the truncated word rather than refusing
	// output.
	rounded := roundHalfAwayFromZero(value)
	max := int64(1)<<uint(bits) - 1
	if rounded > max {
		diags = append(diags, cuss.New(cuss.Pass2OffsetNotAllowed, "numeric constant out of range"))
	}
	return encode(op, p.negative, rounded), diags
}

func lexOctal(op Op, p parsed) (Result, []cuss.Instance) {
	var diags []cuss.Instance
	if p.exp != 0 {
		diags = append(diags, cuss.New(cuss.ParseQueerColumn17, "exponent illegal for octal constant"))
	}
	if p.frac != "" {
		diags = append(diags, cuss.New(cuss.ParseQueerColumn17, "fractional digits truncated"))
	}
	if len(strings.TrimLeft(p.whole, "0")) > maxOctalDigits {
		diags = append(diags, cuss.New(cuss.Pass2NumericTooManyDigits, p.whole))
	}

	mant := new(big.Int)
	if _, ok := mant.SetString(p.whole, 8); !ok {
		mant.SetInt64(0)
	}
	value := new(big.Int).Mul(mant, pow(big.NewInt(2), abs(p.scale)))
	if p.scale < 0 {
		value.Div(mant, pow(big.NewInt(2), -p.scale))
	}

	max := big.NewInt(int64(wordMask))
	if op.double() {
		max = big.NewInt((1 << 30) - 1)
	}
	if value.Cmp(max) > 0 {
		diags = append(diags, cuss.New(cuss.Pass2OffsetNotAllowed, "octal constant clamped to maximum"))
		value.Set(max)
	}

	return encode(op, p.negative, value.Int64()), diags
}

func encode(op Op, negative bool, magnitude int64) Result {
	if !op.double() {
		word := int(magnitude) & wordMask
		if negative {
			word = (^word) & wordMask
		}
		return Result{LowWord: word}
	}

	if op.radix() == 8 && !negative {
		// Logical-octal (2OCT with no explicit sign): the raw bits
		// split across two full 15-bit halves, no reserved sign bit.
		high := int((magnitude >> 15) & wordMask)
		low := int(magnitude & wordMask)
		return Result{HighWord: &high, LowWord: low}
	}

	// Signed double precision (2DEC, or 2OCT with an explicit sign):
	// two 14-bit magnitude halves, each one's-complemented by the
	// shared sign.
	highMag := int((magnitude >> 14) & 0x3FFF)
	lowMag := int(magnitude & 0x3FFF)
	high, low := highMag, lowMag
	if negative {
		high = (^high) & 0x7FFF
		low = (^low) & 0x7FFF
	}
	return Result{HighWord: &high, LowWord: low}
}

func pow(base *big.Int, exp int) *big.Int {
	return new(big.Int).Exp(base, big.NewInt(int64(exp)), nil)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func roundHalfAwayFromZero(r *big.Rat) int64 {
	half := big.NewRat(1, 2)
	shifted := new(big.Rat).Add(r, half)
	q := new(big.Int).Quo(shifted.Num(), shifted.Denom())
	return q.Int64()
}
