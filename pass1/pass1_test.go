package pass1

import (
	"testing"

	"github.com/agc-assembler/yulasm/card"
	"github.com/agc-assembler/yulasm/memory"
	"github.com/agc-assembler/yulasm/ops"
	"github.com/agc-assembler/yulasm/parser"
)

// src lays out one source line in the lexer's fixed columns (card.go:
// marker, then a 7-wide location field starting at column 1, an
// 8-wide operation field, then the address field verbatim) so test
// literals don't have to be hand-spaced.
func src(location, operation, address string) string {
	return " " + pad(location, 7) + pad(operation, 8) + address
}

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

func parseLines(t *testing.T, d ops.Dialect, lines ...string) []parser.Card {
	t.Helper()
	var cards []parser.Card
	for i, line := range lines {
		raw := card.Lex("m.agc", i+1, line)
		c, diags := parser.Parse(d, raw)
		if len(diags) != 0 {
			t.Fatalf("line %d: unexpected parse diagnostics: %v", i+1, diags)
		}
		cards = append(cards, c)
	}
	return cards
}

func TestBasicCardsReserveOneWordEach(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("LOOP", "TC", "LOOP"),
		src("", "CA", "LOOP"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if *res.Cards[1].RefAddress != 0x1000 || res.Cards[1].Extent != 1 {
		t.Errorf("TC card = addr %v extent %d, want 0x1000/1", res.Cards[1].RefAddress, res.Cards[1].Extent)
	}
	if *res.Cards[2].RefAddress != 0x1001 || res.Cards[2].Extent != 1 {
		t.Errorf("CA card = addr %v extent %d, want 0x1001/1", res.Cards[2].RefAddress, res.Cards[2].Extent)
	}
}

func TestInterpretivePairSharesOneWord(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("", "DLOAD", "FOO"),
		src("", "DAD", "BAR"),
		src("FOO", "EQUALS", "+0"),
		src("BAR", "EQUALS", "+1"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	low, high := res.Cards[1], res.Cards[2]
	if low.RefAddress == nil || high.RefAddress == nil {
		t.Fatalf("both halves should reserve a RefAddress: %+v %+v", low, high)
	}
	if *low.RefAddress != *high.RefAddress {
		t.Errorf("paired interpretive cards should share an address: %d vs %d", *low.RefAddress, *high.RefAddress)
	}
	if low.Extent != 1 {
		t.Errorf("low half Extent = %d, want 1", low.Extent)
	}
	if high.Extent != 0 {
		t.Errorf("high half Extent = %d, want 0 (shares the low half's word)", high.Extent)
	}
	if *low.RefAddress != 0x1000 {
		t.Errorf("pair address = 0x%X, want 0x1000", *low.RefAddress)
	}
}

func TestInterpretiveSoloCardGetsOwnWord(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("", "DLOAD", "FOO"),
		src("", "TC", "FOO"),
		src("FOO", "EQUALS", "+0"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if *res.Cards[1].RefAddress != 0x1000 || res.Cards[1].Extent != 1 {
		t.Errorf("solo interpretive card = addr %v extent %d, want 0x1000/1", res.Cards[1].RefAddress, res.Cards[1].Extent)
	}
	if *res.Cards[2].RefAddress != 0x1001 {
		t.Errorf("basic card after solo interpretive should get the next word, got 0x%X", *res.Cards[2].RefAddress)
	}
}

func TestReserveConflictDiagnosesBothCards(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("", "TC", "FOO"),
		src("", "SETLOC", "+10000"),
		src("", "TC", "FOO"),
		src("FOO", "EQUALS", "+0"),
	}...)

	res := Run(m, d, cards)
	if len(res.Cards[1].Diagnostics) == 0 {
		t.Fatalf("expected a conflict diagnostic on the first card that claimed 0x1000")
	}
	if len(res.Cards[3].Diagnostics) == 0 {
		t.Fatalf("expected a conflict diagnostic on the second card that claimed 0x1000")
	}
	if res.Tally.Fatal != 2 {
		t.Errorf("Tally.Fatal = %d, want 2 (one fatal per offending card)", res.Tally.Fatal)
	}
}

func TestStoreCardDoesNotPairWithInterpretive(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("", "DLOAD", "FOO"),
		src("", "STORE", "BAR"),
		src("FOO", "EQUALS", "+0"),
		src("BAR", "EQUALS", "+1"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if *res.Cards[1].RefAddress == *res.Cards[2].RefAddress {
		t.Errorf("STORE must not pair with a preceding non-store interpretive card")
	}
	if res.Cards[1].Extent != 1 {
		t.Errorf("unpaired DLOAD Extent = %d, want 1", res.Cards[1].Extent)
	}
}

func TestEraseForms(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+100"),
		src("A", "ERASE", ""),
		src("B", "ERASE", "=2"),
		src("C", "ERASE", "200 +3"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	// Bare ERASE: one word at the counter (0o100).
	if *res.Cards[1].RefAddress != 0o100 || res.Cards[1].Extent != 1 {
		t.Errorf("bare ERASE = addr %v extent %d, want 0o100/1", res.Cards[1].RefAddress, res.Cards[1].Extent)
	}
	// ERASE =N: N+1 words at the counter.
	if *res.Cards[2].RefAddress != 0o101 || res.Cards[2].Extent != 3 {
		t.Errorf("ERASE =2 = addr %v extent %d, want 0o101/3", res.Cards[2].RefAddress, res.Cards[2].Extent)
	}
	// ERASE X +N: X..X+N inclusive (the operand is an end offset, not
	// a count).
	if *res.Cards[3].RefAddress != 0o200 || res.Cards[3].Extent != 4 {
		t.Errorf("ERASE 200 +3 = addr %v extent %d, want 0o200/4", res.Cards[3].RefAddress, res.Cards[3].Extent)
	}
	if v, ok := res.Resolved.Lookup("B"); !ok || v != 0o101 {
		t.Errorf("B = %d,%v want 0o101", v, ok)
	}
}

func TestEraseOutsideErasableCusses(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("", "ERASE", ""),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal == 0 {
		t.Fatal("ERASE in fixed memory should raise a fatal cuss")
	}
	if res.Cards[1].RefAddress != nil {
		t.Error("a rejected ERASE must not reserve cells")
	}
}

func TestSetlocSymbolicAddress(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("", "SETLOC", "+10000"),
		src("BASE", "TC", "BASE"),
		src("", "SETLOC", "BASE +10"),
		src("", "TC", "BASE"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if *res.Cards[3].RefAddress != 0x1000+0o10 {
		t.Errorf("TC after symbolic SETLOC = 0x%X, want 0x%X", *res.Cards[3].RefAddress, 0x1000+0o10)
	}
}

func TestEqualsPlusSymbolPair(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)
	cards := parseLines(t, d, []string{
		src("A", "EQUALS", "+100"),
		src("B", "EQUALS", "+20"),
		src("SUM", "=PLUS", "A +B"),
		src("DIFF", "=MINUS", "A +B"),
	}...)

	res := Run(m, d, cards)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if v, ok := res.Resolved.Lookup("SUM"); !ok || v != 0o100+0o20 {
		t.Errorf("SUM = %d,%v want %d", v, ok, 0o100+0o20)
	}
	if v, ok := res.Resolved.Lookup("DIFF"); !ok || v != 0o100-0o20 {
		t.Errorf("DIFF = %d,%v want %d", v, ok, 0o100-0o20)
	}
}
