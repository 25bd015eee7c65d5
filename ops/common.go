package ops

// The helpers in this file build up the parts of the catalog shared by
// every Block 2 dialect (early/BLK2 and the later AGC/GAP port). Block 1
// builds its own, much smaller, catalog directly in block1.go since the
// source notes it "lacks most clerical cards and uses single-word
// interpretives".

// addCommonBasic registers the Block 2 machine instructions with their
// historical encodings. TCF/BZF/BZMF occupy quarter codes 1-3 of their
// opcode, which the assembler expresses as a 12-bit fixed-memory slot:
// any fixed S-register address already carries the right upper bits.
func addCommonBasic(c *catalog) {
	qc0, qc1, qc2, qc3 := 0, 1, 2, 3
	three, four, six, fifteen := 3, 4, 6, 0o17

	c.add(&Operation{Symbol: "TC", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 0, AddressRange: AddressAny,
	}}, "TCR")
	c.add(&Operation{Symbol: "RELINT", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 0, SpecialAddr: &three,
	}})
	c.add(&Operation{Symbol: "INHINT", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 0, SpecialAddr: &four,
	}})
	c.extend = c.add(&Operation{Symbol: "EXTEND", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 0, SpecialAddr: &six,
	}})
	c.add(&Operation{Symbol: "CCS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 1, QC: &qc0, AddressRange: AddressErasable,
	}})
	c.add(&Operation{Symbol: "TCF", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 1, AddressRange: AddressFixed,
	}})
	c.add(&Operation{Symbol: "DAS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc0, AddressRange: AddressErasable, AddressBias: 1,
	}})
	one := 1
	c.add(&Operation{Symbol: "DDOUBL", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc0, SpecialAddr: &one,
	}})
	c.add(&Operation{Symbol: "LXCH", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc1, AddressRange: AddressErasable,
	}})
	c.add(&Operation{Symbol: "INCR", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc2, AddressRange: AddressErasable,
	}})
	c.add(&Operation{Symbol: "ADS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc3, AddressRange: AddressErasable,
	}})
	c.add(&Operation{Symbol: "CA", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 3, AddressRange: AddressAny,
	}}, "CAF", "CAE")
	c.add(&Operation{Symbol: "CS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 4, AddressRange: AddressAny,
	}})
	c.index = c.add(&Operation{Symbol: "INDEX", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 5, QC: &qc0, AddressRange: AddressErasable,
	}}, "NDX")
	c.add(&Operation{Symbol: "RESUME", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 5, QC: &qc0, SpecialAddr: &fifteen,
	}})
	c.add(&Operation{Symbol: "DXCH", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 5, QC: &qc1, AddressRange: AddressErasable, AddressBias: 1,
	}})
	c.add(&Operation{Symbol: "TS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 5, QC: &qc2, AddressRange: AddressErasable,
	}})
	c.add(&Operation{Symbol: "XCH", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 5, QC: &qc3, AddressRange: AddressErasable,
	}})
	c.add(&Operation{Symbol: "AD", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 6, AddressRange: AddressAny,
	}})
	c.add(&Operation{Symbol: "MASK", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 7, AddressRange: AddressAny,
	}}, "MSK")
}

// addCommonExtended registers the extracode instructions (preceded by
// EXTEND at run time). The channel instructions share opcode 0 and
// select by a 3-bit peripheral code over a 9-bit channel number.
func addCommonExtended(c *catalog) {
	qc0, qc1, qc2, qc3 := 0, 1, 2, 3

	for pc, name := range []string{"READ", "WRITE", "RAND", "WAND", "ROR", "WOR", "RXOR", "EDRUPT"} {
		pcode := pc
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
			OpCode: 0, AddressRange: AddressIOChannel, PCode: &pcode, IOChannelBits: 9, IsExtended: true,
		}})
	}
	c.add(&Operation{Symbol: "DV", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 1, QC: &qc0, AddressRange: AddressErasable, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "BZF", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 1, AddressRange: AddressFixed, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "MSU", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc0, AddressRange: AddressErasable, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "QXCH", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc1, AddressRange: AddressErasable, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "AUG", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc2, AddressRange: AddressErasable, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "DIM", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, QC: &qc3, AddressRange: AddressErasable, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "DCA", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 3, AddressRange: AddressAny, AddressBias: 1, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "DCS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 4, AddressRange: AddressAny, AddressBias: 1, IsExtended: true,
	}})
	one := 1
	c.add(&Operation{Symbol: "DCOM", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 4, SpecialAddr: &one, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "SU", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 6, QC: &qc0, AddressRange: AddressErasable, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "BZMF", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 6, AddressRange: AddressFixed, IsExtended: true,
	}})
	zero := 0
	c.add(&Operation{Symbol: "MP", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 7, AddressRange: AddressAny, IsExtended: true,
	}})
	c.add(&Operation{Symbol: "SQUARE", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 7, SpecialAddr: &zero, IsExtended: true,
	}})
}

func addCommonClerical(c *catalog) {
	c.add(&Operation{Symbol: "SETLOC", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}}, "LOC")
	c.add(&Operation{Symbol: "BANK", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Optional, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "BLOCK", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "ERASE", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Optional, Address: Optional, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "EQUALS", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Required, Address: Required, Complement: Forbidden, Index: Forbidden,
	}}, "=")
	c.add(&Operation{Symbol: "=PLUS", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Required, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "=MINUS", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Required, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "=ECADR", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Required, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "EBANK=", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Optional, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "SBANK=", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "COUNT", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}}, "COUNT*")
	c.bnksum = c.add(&Operation{Symbol: "BNKSUM", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Optional, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "MEMORY", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Optional, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "SUBRO", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Required, Address: Optional, Complement: Forbidden, Index: Forbidden,
	}})
}

func addCommonAddressConstant(c *catalog) {
	c.add(&Operation{Symbol: "2CADR", WordCount: 2, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "2FCADR", WordCount: 2, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "ADRES", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "BBCON", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "CADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "ECADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "GENADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.p = c.add(&Operation{Symbol: "P", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Optional}})
	c.add(&Operation{Symbol: "REMADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "DNCHAN", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "DNPTR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	for n := 1; n <= 6; n++ {
		sym := []string{"1DNADR", "2DNADR", "3DNADR", "4DNADR", "5DNADR", "6DNADR"}[n-1]
		c.add(&Operation{Symbol: sym, WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	}
}

func addCommonNumeric(c *catalog) {
	c.add(&Operation{Symbol: "DEC", WordCount: 1, Kind: KindNumeric})
	c.add(&Operation{Symbol: "2DEC", WordCount: 2, Kind: KindNumeric})
	c.add(&Operation{Symbol: "OCT", WordCount: 1, Kind: KindNumeric})
	c.add(&Operation{Symbol: "2OCT", WordCount: 2, Kind: KindNumeric})
}

func operand(isConstant bool) *OperandDescriptor {
	return &OperandDescriptor{IsConstant: isConstant, ErasableAllowed: true, FixedAllowed: true}
}

// addCommonInterpretive populates the interpretive sub-language shared
// by both Block 2 dialects. miscCodes supplies the dialect-specific
// opcodes for the misc-jump group (CALL/ITA/RTB/BHIZ), which the
// source notes are "swapped in BLK2" relative to later AGCs.
func addCommonInterpretive(c *catalog, miscCodes map[string]int) {
	addr, addrIndexable := operand(false), &OperandDescriptor{IsConstant: false, Indexable: true, ErasableAllowed: true, FixedAllowed: true}

	// opCodeSeq assigns the dispatch-table index each interpretive
	// operator occupies in the packed two-per-word interpretive
	// encoding. Real YUL's interpreter dispatch table is much larger
	// than this catalog's representative mnemonic set (see the
	// non-exhaustiveness note in DESIGN.md); the sequence below is
	// internally consistent across a single dialect, which is what
	// pass 2's word building and its round-trip tests require, without
	// claiming to reproduce the historical table byte-for-byte.
	opCodeSeq := 0
	nextOpCode := func() *int { n := opCodeSeq; opCodeSeq++; return &n }

	c.stadr = c.add(&Operation{Symbol: "STADR", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeUnary, RHSOnly: true, OpCode: nextOpCode(),
	}})
	for _, name := range []string{"SIGN", "ABS", "SQRT", "SIN", "COS", "ATAN"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeUnary, OpCode: nextOpCode(),
		}})
	}

	for _, name := range []string{"DLOAD", "SLOAD", "VLOAD"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeIndexable, Operand1: addrIndexable, OpCode: nextOpCode(),
		}})
	}
	for _, name := range []string{"DAD", "DSU", "DMP", "DDV", "VAD", "VSU"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeIndexable, Operand1: addrIndexable, OpCode: nextOpCode(),
		}})
	}

	for _, code := range []int{1, 2, 3, 4} {
		name := map[int]string{1: "SL1", 2: "SL2", 3: "SL3", 4: "SL4"}[code]
		n := code
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeShift, Code: &n, OpCode: nextOpCode(),
		}})
	}
	for _, code := range []int{1, 2, 3, 4} {
		name := map[int]string{1: "SR1", 2: "SR2", 3: "SR3", 4: "SR4"}[code]
		n := -code
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeShift, Code: &n, OpCode: nextOpCode(),
		}})
	}
	zero := 0
	c.add(&Operation{Symbol: "ZL", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{SubType: SubTypeShift, Code: &zero, OpCode: nextOpCode()}})

	storeCode := 0
	c.store = c.add(&Operation{Symbol: "STORE", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeStore, Code: &storeCode, Operand1: addr,
	}})
	stodlCode := 1
	c.stodl = c.add(&Operation{Symbol: "STODL", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeStore, Code: &stodlCode, Operand1: addr, Operand2: addr,
	}})
	stovlCode := 2
	c.stovl = c.add(&Operation{Symbol: "STOVL", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeStore, Code: &stovlCode, Operand1: addr, Operand2: addr,
	}})
	stcallCode := 3
	c.stcall = c.add(&Operation{Symbol: "STCALL", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeStore, Code: &stcallCode, Operand1: addr, Operand2: addr,
	}})

	for name, code := range miscCodes {
		n := code
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeMisc, OpCode: &n, Operand1: addr,
		}})
	}
	for _, name := range []string{"GOTO", "BPL", "BMN", "BOV", "BOVB", "CLEAR", "SET"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeMisc, Operand1: addr, OpCode: nextOpCode(),
		}})
	}

	logicalCode1, logicalCode2 := 0, 1
	c.add(&Operation{Symbol: "SETPD", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeLogical, Code: &logicalCode1, Operand1: operand(true), OpCode: nextOpCode(),
	}})
	c.add(&Operation{Symbol: "CLRGO", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
		SubType: SubTypeLogical, Code: &logicalCode2, Operand1: operand(true), OpCode: nextOpCode(),
	}})
}
