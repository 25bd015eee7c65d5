package ops

// NewBlock2AGC builds the operation catalog for the later ("AGC"/GAP)
// Block 2 assembler dialect, as used from Colossus/Luminary onward.
// Relative to the earlier BLK2 dialect (see NewBlock2Early) the misc-
// jump interpretive group swaps its opcodes and the store ts-code
// table collapses to a single alternate form (see store.go).
func NewBlock2AGC() Dialect {
	c := newCatalog()
	addCommonBasic(c)
	addCommonExtended(c)
	addCommonClerical(c)
	addCommonAddressConstant(c)
	addCommonNumeric(c)
	addCommonInterpretive(c, map[string]int{
		"CALL": 0,
		"ITA":  1,
		"RTB":  2,
		"BHIZ": 3,
	})
	return c
}
