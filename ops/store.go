package ops

// Interpretive store selection. Once a store card's arguments are
// classified as indexed or not, SelectStoreTsCode picks the ts-code
// used to build the store word instead of the operation's base code.

// IndexedMask bits describe which interpretive address words (IAWs)
// of a store card carry an index register.
const (
	IndexedNone   = 0
	IndexedIAW1X1 = 1
	IndexedIAW1X2 = 2
	IndexedIAW2   = 4
)

// sixEntryStoreTable is the BLK2 dialect's full table: [not-indexed,
// X1, X2, IAW2-only, X1+IAW2, X2+IAW2], keyed by the bitmask of which
// IAWs are indexed.
var sixEntryStoreTable = map[int]int{
	IndexedNone:                 0,
	IndexedIAW1X1:               1,
	IndexedIAW1X2:               2,
	IndexedIAW2:                 3,
	IndexedIAW1X1 | IndexedIAW2: 4,
	IndexedIAW1X2 | IndexedIAW2: 5,
}

// checkIndexedStore returns the alternate ts-code for a store op whose
// first interpretive address word is indexed. AGC dialects have a
// single alternate form; BLK2 dialects instead consult the six-entry
// table via SelectStoreTsCode.
func checkIndexedStore(op *Operation, indexedOnIAW1 bool) int {
	base := *op.Interpretive.Code
	if !indexedOnIAW1 {
		return base
	}
	return base + 1
}

// StoreIndexRegister distinguishes which index register a plain STORE
// card's address was indexed by, selecting between the two ts-codes
// the base STORE code can resolve to.
type StoreIndexRegister int

const (
	StoreIndexNone StoreIndexRegister = iota
	StoreIndex1
	StoreIndex2
)

// storeFirstWordIndexed implements STORE's special case: its ts-code
// depends on which index register (not merely whether one) indexed
// the operand.
func storeFirstWordIndexed(op *Operation, reg StoreIndexRegister) int {
	base := *op.Interpretive.Code
	switch reg {
	case StoreIndex1:
		return base + 1 // STORE_INDEX_1
	case StoreIndex2:
		return base + 2 // STORE_INDEX_2
	default:
		return base
	}
}

// SelectStoreTsCode is the full store dispatch: given the dialect,
// the base store operation, and the classification of its
// interpretive address words, it returns the ts-code to pack into the
// store word.
func SelectStoreTsCode(d Dialect, op *Operation, indexedMask int, storeReg StoreIndexRegister) int {
	if op == nil || op.Interpretive == nil || op.Interpretive.Code == nil {
		return 0
	}
	if d.UsesSixEntryStoreTable() {
		return *op.Interpretive.Code + sixEntryStoreTable[indexedMask]
	}
	if d.IsStore(op) && storeReg != StoreIndexNone {
		return storeFirstWordIndexed(op, storeReg)
	}
	return checkIndexedStore(op, indexedMask != IndexedNone)
}
