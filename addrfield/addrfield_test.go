package addrfield

import "testing"

func TestParseSymbol(t *testing.T) {
	f, err := Parse("FOO")
	if err != nil {
		t.Fatal(err)
	}
	if f.Form != FormSymbol || f.Symbol != "FOO" {
		t.Errorf("Parse(FOO) = %+v", f)
	}
}

func TestParseSymbolOffset(t *testing.T) {
	f, err := Parse("FOO +3")
	if err != nil {
		t.Fatal(err)
	}
	if f.Form != FormSymbolOffset || f.Symbol != "FOO" || f.Offset != 3 || f.Negative {
		t.Errorf("Parse(FOO +3) = %+v", f)
	}
}

func TestParseBareNumber(t *testing.T) {
	f, err := Parse("-17")
	if err != nil {
		t.Fatal(err)
	}
	if f.Form != FormNumber || !f.Negative || f.Offset != 0o17 {
		t.Errorf("Parse(-17) = %+v", f)
	}
}

func TestParseUnsignedNumberIsOctal(t *testing.T) {
	f, err := Parse("24")
	if err != nil {
		t.Fatal(err)
	}
	if f.Form != FormNumber || f.Negative || f.Offset != 0o24 {
		t.Errorf("Parse(24) = %+v", f)
	}
}

func TestParseDecimalSuffix(t *testing.T) {
	f, err := Parse("+170D")
	if err != nil {
		t.Fatal(err)
	}
	if f.Form != FormNumber || f.Negative || f.Offset != 170 {
		t.Errorf("Parse(+170D) = %+v", f)
	}
}

func TestParseSymbolSymbol(t *testing.T) {
	f, err := Parse("FOO-BAR")
	if err != nil {
		t.Fatal(err)
	}
	if f.Form != FormSymbolSymbol || f.Symbol != "FOO" || f.OffsetSymbol != "BAR" || !f.Negative {
		t.Errorf("Parse(FOO-BAR) = %+v", f)
	}
}

func TestParseIndexSuffix(t *testing.T) {
	f, err := Parse("FOO,1")
	if err != nil {
		t.Fatal(err)
	}
	if f.Index != Index1 || f.Symbol != "FOO" {
		t.Errorf("Parse(FOO,1) = %+v", f)
	}
	f2, err := Parse("FOO +3,2")
	if err != nil {
		t.Fatal(err)
	}
	if f2.Index != Index2 || f2.Form != FormSymbolOffset {
		t.Errorf("Parse(FOO +3,2) = %+v", f2)
	}
}

func TestParseEmptyIsError(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("Parse(\"\") should error")
	}
}
