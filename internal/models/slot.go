package models

// Slot types correspond to the physical fixtures a banner can be rendered
// onto inside the virtual store. They also drive creative sizing and pricing.
var SlotTypes = []string{"rack", "table", "roof", "checkout", "fridge", "wall"}

// SlotSize returns the creative size multiplier for a slot type. Checkout
// counters take a double-width creative and walls a triple.
func SlotSize(slotType string) int {
	switch slotType {
	case "checkout":
		return 2
	case "wall":
		return 3
	default:
		return 1
	}
}

// BannerSlot is a named physical position in the store (e.g. "wall1") that
// shows exactly one banner per request. Many banners across campaigns compete
// for the same slot name.
type BannerSlot struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Type is the slot family (rack, table, roof, checkout, fridge, wall);
	// only banners produced for this type compete for the slot.
	Type string `json:"type"`
	Size int    `json:"size"`
	// Thumbnail is the static fallback image served when no banner is
	// eligible for the slot.
	Thumbnail string `json:"thumbnail"`
}
