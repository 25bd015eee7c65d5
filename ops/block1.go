package ops

// NewBlock1 builds the operation catalog for the Block 1 assembler
// dialect. Block 1 source lacks most of Block 2's clerical cards (no
// BANK, EBANK=, SBANK=, =PLUS/=MINUS/=ECADR chains) and has no
// superbank register, so its address-constant set drops 2CADR/2FCADR/
// BBCON/REMADR/nDNADR. Its interpretive operations are single-word:
// the store sub-type and STADR right-hand slot do not exist here.
func NewBlock1() Dialect {
	c := newCatalog()

	// Block 1's eight opcodes carry no quarter codes; the extracodes
	// (MP/DV/SU) reuse opcodes 4-6 behind an INDEX 5777 prefix the
	// machine executes, which the assembler does not need to model.
	c.add(&Operation{Symbol: "TC", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 0, AddressRange: AddressAny}}, "TCR")
	c.add(&Operation{Symbol: "CCS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 1, AddressRange: AddressErasable}})
	c.add(&Operation{Symbol: "XCH", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 3, AddressRange: AddressErasable}})
	c.add(&Operation{Symbol: "CS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 4, AddressRange: AddressAny}}, "CAF")
	c.add(&Operation{Symbol: "TS", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 5, AddressRange: AddressErasable}})
	c.add(&Operation{Symbol: "AD", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 6, AddressRange: AddressErasable}})
	c.add(&Operation{Symbol: "MASK", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 7, AddressRange: AddressAny}}, "MSK")
	c.add(&Operation{Symbol: "MP", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 4, AddressRange: AddressAny, IsExtended: true}})
	c.add(&Operation{Symbol: "DV", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 5, AddressRange: AddressErasable, IsExtended: true}})
	c.add(&Operation{Symbol: "SU", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{OpCode: 6, AddressRange: AddressErasable, IsExtended: true}})

	// Block 1 never distinguishes a basic/extended INDEX: the source
	// notes this is "collapsed relative to Block 2's separate basic and
	// extended forms". One entry, reaching any memory, no EXTEND
	// predecessor required.
	c.index = c.add(&Operation{Symbol: "INDEX", WordCount: 1, Kind: KindBasic, Basic: &BasicInfo{
		OpCode: 2, AddressRange: AddressAny,
	}}, "NDX")
	// Block 1 has no EXTEND instruction; c.extend stays nil so
	// IsExtend never matches and pass1/pass2 never require an EXTEND
	// predecessor for this dialect's opcodes.

	c.add(&Operation{Symbol: "SETLOC", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}}, "LOC")
	c.add(&Operation{Symbol: "BLOCK", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "ERASE", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Optional, Address: Optional, Complement: Forbidden, Index: Forbidden,
	}})
	c.add(&Operation{Symbol: "EQUALS", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Required, Address: Required, Complement: Forbidden, Index: Forbidden,
	}}, "=")
	c.add(&Operation{Symbol: "COUNT", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Required, Complement: Forbidden, Index: Forbidden,
	}}, "COUNT*")
	c.bnksum = c.add(&Operation{Symbol: "BNKSUM", WordCount: 0, Kind: KindClerical, Clerical: &ClericalInfo{
		Location: Forbidden, Address: Optional, Complement: Forbidden, Index: Forbidden,
	}})

	c.add(&Operation{Symbol: "ADRES", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "CADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "ECADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.add(&Operation{Symbol: "GENADR", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Required}})
	c.p = c.add(&Operation{Symbol: "P", WordCount: 1, Kind: KindAddressConstant, AddressConstant: &AddressConstantInfo{AddressField: Optional}})

	addCommonNumeric(c)

	addr := operand(false)
	opCodeSeq := 0
	nextOpCode := func() *int { n := opCodeSeq; opCodeSeq++; return &n }
	for _, name := range []string{"SIGN", "ABS", "SQRT", "SIN", "COS", "ATAN"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{SubType: SubTypeUnary, OpCode: nextOpCode()}})
	}
	for _, name := range []string{"DLOAD", "SLOAD", "VLOAD", "DAD", "DSU", "VAD", "VSU"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeIndexable, Operand1: &OperandDescriptor{Indexable: true, ErasableAllowed: true, FixedAllowed: true}, OpCode: nextOpCode(),
		}})
	}
	for _, name := range []string{"GOTO", "BPL", "BMN"} {
		c.add(&Operation{Symbol: name, WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{
			SubType: SubTypeMisc, Operand1: addr, OpCode: nextOpCode(),
		}})
	}
	zero := 0
	c.add(&Operation{Symbol: "SL1", WordCount: 1, Kind: KindInterpretive, Interpretive: &InterpretiveInfo{SubType: SubTypeShift, Code: &zero, OpCode: nextOpCode()}})

	return c
}
