package party

import "strings"

// Party flag identifiers as they appear in a trainer's .partyFlags.
const (
	FlagHasItem     = "PARTY_FLAG_HAS_ITEM"
	FlagCustomMoves = "PARTY_FLAG_CUSTOM_MOVES"
)

// Variant names the union member and the element struct type used for a
// trainer's party, which together declare the layout of each entry.
type Variant struct {
	Selector   string
	StructType string
}

var variants = [2][2]Variant{
	// [hasItem][customMoves]
	{
		{Selector: "NoItemDefaultMoves", StructType: "TrainerMonNoItemDefaultMoves"},
		{Selector: "NoItemCustomMoves", StructType: "TrainerMonNoItemCustomMoves"},
	},
	{
		{Selector: "ItemDefaultMoves", StructType: "TrainerMonItemDefaultMoves"},
		{Selector: "ItemCustomMoves", StructType: "TrainerMonItemCustomMoves"},
	},
}

// FlagsToVariant maps a raw party flags expression to its Variant. Flag
// membership is substring containment of the flag identifiers, so a flag
// name must never be a substring of an unrelated identifier.
func FlagsToVariant(flags string) Variant {
	return VariantOf(strings.Contains(flags, FlagHasItem), strings.Contains(flags, FlagCustomMoves))
}

// VariantOf returns the Variant for a pair of capability flags.
func VariantOf(hasItem, customMoves bool) Variant {
	return variants[b2i(hasItem)][b2i(customMoves)]
}

// VariantForStruct looks a Variant up by struct type name.
func VariantForStruct(structType string) (Variant, bool) {
	for _, row := range variants {
		for _, v := range row {
			if v.StructType == structType {
				return v, true
			}
		}
	}
	return Variant{}, false
}

// HasItem reports whether entries of this variant carry a held item.
func (v Variant) HasItem() bool { return strings.HasPrefix(v.Selector, "Item") }

// CustomMoves reports whether entries of this variant carry a move list.
func (v Variant) CustomMoves() bool { return strings.HasSuffix(v.Selector, "CustomMoves") }

// FlagsExpr builds the canonical flags expression for a pair of flags.
func FlagsExpr(hasItem, customMoves bool) string {
	switch {
	case hasItem && customMoves:
		return FlagHasItem + " | " + FlagCustomMoves
	case hasItem:
		return FlagHasItem
	case customMoves:
		return FlagCustomMoves
	}
	return "0"
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
