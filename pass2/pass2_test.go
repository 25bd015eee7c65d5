package pass2

import (
	"testing"

	"github.com/agc-assembler/yulasm/card"
	"github.com/agc-assembler/yulasm/memory"
	"github.com/agc-assembler/yulasm/numeric"
	"github.com/agc-assembler/yulasm/ops"
	"github.com/agc-assembler/yulasm/parser"
	"github.com/agc-assembler/yulasm/pass1"
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
			t.Fatalf("line %d (%q): unexpected parse diagnostics: %v", i+1, line, diags)
		}
		cards = append(cards, c)
	}
	return cards
}

func assemble(t *testing.T, m memory.Model, d ops.Dialect, lines ...string) Result {
	t.Helper()
	cards := parseLines(t, d, lines...)
	p1 := pass1.Run(m, d, cards)
	return Run(m, d, p1)
}

func TestBuildBasicWordFormula(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"), // 0x800, fBank 2 (fixed-fixed)
		src("LOOP", "TC", "LOOP"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards[1].Diagnostics)
	}

	tc, _ := d.Lookup("TC")
	ba, ok := m.AsBankAndAddress(0x800)
	if !ok {
		t.Fatal("AsBankAndAddress(0x800) not ok")
	}
	want := (tc.Basic.OpCode << 12) | (ba.Address & 0xFFF)

	cell, ok := res.Cells.Get(0x800)
	if !ok || !cell.HasValue {
		t.Fatalf("cell 0x800 not built: %+v", cell)
	}
	if cell.Value != want {
		t.Errorf("TC word = 0x%X, want 0x%X", cell.Value, want)
	}
}

func TestBuildBasicWordComplement(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("LOOP", "-TC", "LOOP"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards[1].Diagnostics)
	}
	plain := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("LOOP", "TC", "LOOP"),
	)
	gotComp, _ := res.Cells.Get(0x800)
	gotPlain, _ := plain.Cells.Get(0x800)
	if gotComp.Value != (gotPlain.Value^0x7FFF) {
		t.Errorf("complemented word = 0x%X, want 0x%X", gotComp.Value, gotPlain.Value^0x7FFF)
	}
}

func TestInterpretivePairWordPacking(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "DLOAD", "FOO"),
		src("", "DAD", "BAR"),
		src("FOO", "EQUALS", "+0"),
		src("BAR", "EQUALS", "+1"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v %+v", res.Cards[1].Diagnostics, res.Cards[2].Diagnostics)
	}

	dload, _ := d.Lookup("DLOAD")
	dad, _ := d.Lookup("DAD")
	low := interpHalf(dload, false)
	high := interpHalf(dad, false)
	want := (((high & 0x7F) << 7) | (low & 0x7F)) ^ 0x7FFF

	cell, ok := res.Cells.Get(0x800)
	if !ok || !cell.HasValue {
		t.Fatalf("paired word not built")
	}
	if cell.Value != want&0x7FFF {
		t.Errorf("paired word = 0x%X, want 0x%X", cell.Value, want&0x7FFF)
	}
	if _, ok := res.Cells.Get(0x801); ok {
		t.Errorf("high-half card should not reserve its own cell")
	}
}

func TestStoreWordIndexedTsCode(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "STORE", "FOO,1"),
		src("FOO", "EQUALS", "+5"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards[1].Diagnostics)
	}

	store, _ := d.Lookup("STORE")
	code := ops.SelectStoreTsCode(d, store, ops.IndexedIAW1X1, ops.StoreIndex1)
	ba, _ := m.AsBankAndAddress(5)
	want := ((code << 11) | ((ba.Address + 1) & 0x7FF)) & 0x7FFF

	cell, ok := res.Cells.Get(0x800)
	if !ok || !cell.HasValue {
		t.Fatalf("store word not built")
	}
	if cell.Value != want {
		t.Errorf("store word = 0x%X, want 0x%X", cell.Value, want)
	}
}

func TestStoreWordComplementedAfterStadr(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "STADR", ""),
		src("", "STORE", "FOO"),
		src("FOO", "EQUALS", "+5"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}

	// STADR occupies the low half of a pair; STORE follows immediately
	// and must see lastWasStadr true regardless of pairing.
	cell, ok := res.Cells.Get(0x800)
	if !ok || !cell.HasValue {
		t.Fatalf("STADR word not built")
	}
	storeCell, ok := res.Cells.Get(0x801)
	if !ok || !storeCell.HasValue {
		t.Fatalf("store word not built")
	}

	store, _ := d.Lookup("STORE")
	code := ops.SelectStoreTsCode(d, store, ops.IndexedNone, ops.StoreIndexNone)
	ba, _ := m.AsBankAndAddress(5)
	plain := ((code << 11) | ((ba.Address + 1) & 0x7FF)) & 0x7FFF
	want := plain ^ 0x7FFF
	if storeCell.Value != want {
		t.Errorf("store word after STADR = 0x%X, want 0x%X (complemented)", storeCell.Value, want)
	}
}

func TestNumericConstantsRoundTripNumericLexer(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "OCT", "77777"),
		src("", "DEC", "1B14"),
		src("", "2DEC", ".5"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}

	octWant, _ := numeric.Lex(numeric.OpOCT, "77777")
	cell, _ := res.Cells.Get(0x800)
	if cell.Value != octWant.LowWord {
		t.Errorf("OCT word = 0x%X, want 0x%X", cell.Value, octWant.LowWord)
	}

	decWant, _ := numeric.Lex(numeric.OpDEC, "1B14")
	decCell, _ := res.Cells.Get(0x801)
	if decCell.Value != decWant.LowWord {
		t.Errorf("DEC word = 0x%X, want 0x%X", decCell.Value, decWant.LowWord)
	}

	twoDecWant, _ := numeric.Lex(numeric.Op2DEC, ".5")
	highCell, _ := res.Cells.Get(0x802)
	lowCell, _ := res.Cells.Get(0x803)
	if twoDecWant.HighWord == nil || highCell.Value != *twoDecWant.HighWord || lowCell.Value != twoDecWant.LowWord {
		t.Errorf("2DEC words = (0x%X, 0x%X), want (0x%X, 0x%X)", highCell.Value, lowCell.Value, *twoDecWant.HighWord, twoDecWant.LowWord)
	}
}

func TestBnkSumInvariant(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "OCT", "1234"),
		src("", "OCT", "-77"),
		src("", "BNKSUM", "+2"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if len(res.BnkSums) != 1 {
		t.Fatalf("BnkSums = %v, want 1 entry", res.BnkSums)
	}
	b := res.BnkSums[0]

	sum := 0
	for addr := b.StartAddress; addr < b.SumAddress-1; addr++ {
		cell, ok := res.Cells.Get(addr)
		if !ok || !cell.HasValue {
			continue
		}
		if cell.Value&0x4000 != 0 {
			sum -= (cell.Value ^ 0x7FFF) & 0x7FFF
		} else {
			sum += cell.Value & 0x3FFF
		}
	}

	checksumCell, ok := res.Cells.Get(b.SumAddress)
	if !ok || !checksumCell.HasValue {
		t.Fatalf("checksum word not built")
	}
	checksum := checksumCell.Value

	// A one's-complement word: the top bit marks a negative value whose
	// magnitude is the bitwise complement (within 15 bits) of the
	// stored word.
	signedChecksum := checksum & 0x3FFF
	if checksum&0x4000 != 0 {
		signedChecksum = -((checksum ^ 0x7FFF) & 0x7FFF)
	}

	const modulus = 0x7FFF
	got := ((sum+signedChecksum)%modulus + modulus) % modulus
	want := ((b.Bank % modulus) + modulus) % modulus
	if got != want {
		t.Errorf("sum(%d) + checksum(%d) = %d (mod 0x7FFF), want bank %d", sum, signedChecksum, got, want)
	}

	tcCell, ok := res.Cells.Get(b.SumAddress - 1)
	if !ok || !tcCell.HasValue {
		t.Fatalf("TC-to-checksum word not built")
	}
	tc, _ := d.Lookup("TC")
	if tcCell.Value>>12 != tc.Basic.OpCode {
		t.Errorf("TC-to-checksum opcode = %d, want %d", tcCell.Value>>12, tc.Basic.OpCode)
	}
}

func TestBBCONRequiresArmedEBank(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "BBCON", "TARGET"),
		src("TARGET", "EQUALS", "+10000"),
	)
	if res.Tally.Fatal == 0 {
		t.Fatal("BBCON without a preceding EBANK= should raise a fatal cuss")
	}
}

func TestBBCONPacksBankBits(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "EBANK=", "+1400"), // an address in erasable bank 3
		src("", "BBCON", "TARGET"),
		src("TARGET", "EQUALS", "+10000"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}

	// TARGET = 0o10000 = 0x1000, fixed bank 0, no superbank.
	ba, ok := m.AsBankAndAddress(0x1000)
	if !ok || ba.FBank == nil {
		t.Fatalf("AsBankAndAddress(0x1000) = %+v, %v", ba, ok)
	}
	want := (*ba.FBank << 10) | (0 << 4) | 3
	cell, ok := res.Cells.Get(0x800)
	if !ok || !cell.HasValue {
		t.Fatalf("BBCON word not built")
	}
	if cell.Value != want {
		t.Errorf("BBCON word = 0x%X, want 0x%X", cell.Value, want)
	}
	if res.Cards[2].EBank != 3 {
		t.Errorf("BBCON card EBank = %d, want 3 (consumed one-shot)", res.Cards[2].EBank)
	}
}

func TestChannelInstructionWordLayout(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "EXTEND", ""),
		src("", "WRITE", "15"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}

	write, _ := d.Lookup("WRITE")
	want := (write.Basic.OpCode << 12) | (*write.Basic.PCode << 9) | 0o15
	cell, ok := res.Cells.Get(0x801)
	if !ok || !cell.HasValue {
		t.Fatalf("WRITE word not built")
	}
	if cell.Value != want {
		t.Errorf("WRITE word = 0x%X, want 0x%X", cell.Value, want)
	}
}

func TestCountSectionAnnotation(t *testing.T) {
	d := ops.NewBlock2AGC()
	m := memory.NewBlock2(35, nil)

	res := assemble(t, m, d,
		src("", "SETLOC", "+4000"),
		src("", "COUNT", "02/YULTST"),
		src("LOOP", "TC", "LOOP"),
	)
	if res.Tally.Fatal != 0 {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Cards)
	}
	if res.Cards[2].Count != "02/YULTST" {
		t.Errorf("Count = %q, want 02/YULTST", res.Cards[2].Count)
	}
}
