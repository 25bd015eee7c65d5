package ops

// NewBlock2Early builds the operation catalog for the early Block 2
// "BLK2" assembler dialect (1965/1966). The misc-jump interpretive
// opcodes (CALL/ITA/RTB/BHIZ) are swapped relative to the later AGC
// dialect, and STORE/STODL/STOVL/STCALL select from the fuller
// six-entry ts-code table (see store.go, isBLK2).
func NewBlock2Early() Dialect {
	c := newCatalog()
	c.isBLK2 = true
	addCommonBasic(c)
	addCommonExtended(c)
	addCommonClerical(c)
	addCommonAddressConstant(c)
	addCommonNumeric(c)
	addCommonInterpretive(c, map[string]int{
		"CALL": 3,
		"ITA":  2,
		"RTB":  1,
		"BHIZ": 0,
	})
	return c
}
