package models

import "time"

// Banner categories determine which targeting and delivery-limit fields are
// evaluated for a banner. A banner is in exactly one category.
const (
	// CategoryTarget is a precision campaign: the advertiser narrows the
	// audience by OS and device and buys a hard impression quota.
	CategoryTarget = "target"
	// CategoryAwareness is a visibility campaign: delivery is bounded by
	// per-viewer frequency caps, calendar life events, share of voice, or
	// gender reach, instead of a plain impression count.
	CategoryAwareness = "awareness"
)

// Banner statuses. A banner (and, by rollup, its campaign) moves through
// these states; see the lifecycle rules in internal/logic.
const (
	// StatusDraft is an advertiser-side work in progress. Never served.
	StatusDraft = "draft"
	// StatusPending is submitted but awaiting payment confirmation.
	StatusPending = "pending"
	// StatusActive is submitted and paid, awaiting admin approval.
	StatusActive = "active"
	// StatusApproved is the only status eligible for delivery.
	StatusApproved = "approved"
	// StatusSuspended is an admin freeze; the banner keeps its usage counters.
	StatusSuspended = "suspended"
	// StatusRejected is an admin refusal.
	StatusRejected = "rejected"
	// StatusExpired is terminal: contracted delivery is exhausted or the
	// time limit has passed. Only the expiry sweeper sets this.
	StatusExpired = "expired"
)

// Banner is one advertisement creative bound to one campaign and one physical
// slot type, carrying its own targeting predicate and usage limits.
//
// Targeting fields are optional: a nil/empty field is a wildcard and its
// predicate passes vacuously. Numeric bounds use pointers because zero is a
// meaningful age and a meaningful hour.
type Banner struct {
	ID         int    `json:"id"`
	CampaignID int    `json:"campaign_id"`
	Name       string `json:"name"`
	// SlotType is the physical slot family this creative was produced for
	// (rack, table, roof, checkout, fridge, wall).
	SlotType string `json:"slot_type"`
	// BannerURL is the creative asset reference (object-storage URL).
	BannerURL string `json:"banner_url"`
	Format    string `json:"format,omitempty"`
	// Category is CategoryTarget or CategoryAwareness.
	Category string `json:"category"`
	Status   string `json:"status"`
	IsPaid   bool   `json:"is_paid"`

	// Shared targeting predicate. Empty means "any".
	Locations         []string `json:"locations,omitempty"`
	Genders           []string `json:"genders,omitempty"`
	FromAge           *int     `json:"from_age,omitempty"`
	ToAge             *int     `json:"to_age,omitempty"`
	ProductCategory   string   `json:"product_category,omitempty"`
	FromHour          *int     `json:"from_hour,omitempty"`
	ToHour            *int     `json:"to_hour,omitempty"`
	DaysOfWeek        []string `json:"days_of_week,omitempty"`

	// Target-category fields. Matching is case-insensitive substring
	// containment against the viewer's resolved OS/device.
	OS     string `json:"os,omitempty"`
	Device string `json:"device,omitempty"`

	// Awareness-category fields.
	FrequencyCap *int `json:"frequency_cap,omitempty"`
	// LifeEvent names a calendar occasion (see internal/logic lifeevents);
	// "Ramadan" is resolved through the Hijri calendar. Mutually exclusive
	// with TimeLimit.
	LifeEvent   string     `json:"life_event,omitempty"`
	ReachNumber *int       `json:"reach_number,omitempty"`
	ReachGender []string   `json:"reach_gender,omitempty"`
	// ShareOfVoice is the contracted percentage of ImpressionsLimit this
	// banner may consume before retiring.
	ShareOfVoice *int       `json:"share_of_voice,omitempty"`
	TimeLimit    *time.Time `json:"time_limit,omitempty"`

	// ImpressionsLimit is the hard impression quota. For target banners it
	// is the sole exhaustion trigger; for awareness banners it is the
	// share-of-voice denominator. Zero means unset.
	ImpressionsLimit int `json:"impressions_limit"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsAwareness reports whether awareness-category delivery limits apply.
func (b *Banner) IsAwareness() bool { return b.Category == CategoryAwareness }

// IsTarget reports whether target-category fields apply.
func (b *Banner) IsTarget() bool { return b.Category == CategoryTarget }

// SlotFill is the per-placement serving result: the chosen banner's id and
// creative URL. When no banner is eligible the filler returns ID 0 and the
// placement's fallback thumbnail instead.
type SlotFill struct {
	ID        int    `json:"id"`
	BannerURL string `json:"bannerUrl"`
	// Token authenticates follow-up impression and interaction calls for
	// this fill. Fallback fills carry no token.
	Token string `json:"token,omitempty"`
	// CampaignID is carried for event attribution, not serialized.
	CampaignID int `json:"-"`
}

// FillResponse maps placement name to its fill. Placements with no banners
// configured are omitted entirely.
type FillResponse map[string]struct {
	Banner SlotFill `json:"banner"`
}
