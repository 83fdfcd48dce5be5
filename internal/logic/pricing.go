package logic

import "github.com/sadaatalikazmi/backend-meta-mart/internal/models"

// Pricing constants. A campaign pays a flat CPM over its impression quota
// plus a surcharge for every slot type beyond the first.
const (
	// BasicAdAmount is the price per thousand contracted impressions.
	BasicAdAmount = 15.0
	// SlotFieldSurcharge is charged per additional slot type in the order.
	SlotFieldSurcharge = 5.0
	// MinImpressionsLimit is the floor for any contracted impression quota.
	MinImpressionsLimit = 200
)

// Quote is a price computed for a campaign order.
type Quote struct {
	ImpressionsLimit int     `json:"impressions_limit"`
	FieldsAmount     float64 `json:"fields_amount"`
	Amount           float64 `json:"amount"`
}

// EditQuote extends Quote with the balance after re-pricing an existing
// campaign: what was already paid, what remains due, and whether the new
// price is covered.
type EditQuote struct {
	Quote
	PreviousAmount  float64 `json:"previous_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	IsPaid          bool    `json:"is_paid"`
}

// ImpressionQuota derives the contracted impression limit from the store's
// active audience: one hundred impressions per active viewer, floored at
// MinImpressionsLimit for small audiences.
func ImpressionQuota(activeViewers int) int {
	if activeViewers > 2 {
		return activeViewers * 100
	}
	return MinImpressionsLimit
}

// PriceQuote prices a new campaign over the given slot types and audience.
// basicAmount is the configured per-thousand rate; a non-positive value
// falls back to BasicAdAmount.
func PriceQuote(slotTypes, activeViewers int, basicAmount float64) Quote {
	if basicAmount <= 0 {
		basicAmount = BasicAdAmount
	}
	fields := 0.0
	if slotTypes > 1 {
		fields = float64(slotTypes-1) * SlotFieldSurcharge
	}
	limit := ImpressionQuota(activeViewers)
	return Quote{
		ImpressionsLimit: limit,
		FieldsAmount:     fields,
		Amount:           float64(limit)/1000*basicAmount + fields,
	}
}

// RepriceCampaign recomputes the balance after a campaign edit. The amount
// already paid counts against the new price; a non-positive remainder means
// the edit is covered by the previous payment.
func RepriceCampaign(c *models.Campaign, slotTypes, activeViewers int, basicAmount float64) EditQuote {
	q := PriceQuote(slotTypes, activeViewers, basicAmount)
	previous := c.Amount
	remaining := q.Amount - previous
	if remaining < 0 {
		remaining = 0
	}
	return EditQuote{
		Quote:           q,
		PreviousAmount:  previous,
		RemainingAmount: remaining,
		IsPaid:          remaining <= 0,
	}
}

// StatusAfterEdit decides where an edited, non-expired campaign lands: a
// covered balance goes straight back into the approval queue, an
// outstanding balance parks it as pending until payment clears.
func StatusAfterEdit(remaining float64) string {
	if remaining <= 0 {
		return models.StatusActive
	}
	return models.StatusPending
}
