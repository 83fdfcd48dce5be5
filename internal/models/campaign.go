package models

import "time"

// Campaign represents one advertiser purchase. It groups the per-slot-type
// banner variants bought in a single order and carries the shared budget and
// lifecycle status. A campaign's status is a rollup of its banners' statuses:
// it becomes expired only when every banner under it is expired.
type Campaign struct {
	ID      int    `json:"id"`
	OwnerID int    `json:"owner_id"` // advertiser user id
	Name    string `json:"name"`
	// Category mirrors the banners' category (target or awareness); all
	// banners in one campaign share it.
	Category string `json:"category"`

	// Monetary fields, recomputed whenever the banner set or budget is
	// edited (see internal/logic pricing).
	Amount          float64 `json:"amount"`
	PreviousAmount  float64 `json:"previous_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	IsPaid          bool    `json:"is_paid"`
	// TransactionID is the payment processor reference, set on payment
	// confirmation.
	TransactionID string `json:"transaction_id,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Terminal reports whether the campaign can no longer leave its status
// through admin action. Expiry is the only terminal state.
func (c *Campaign) Terminal() bool { return c.Status == StatusExpired }
