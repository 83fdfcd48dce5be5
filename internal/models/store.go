package models

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an entity is not found in the store.
var ErrNotFound = errors.New("entity not found")

// ExpireDecision decides, from a banner and its freshly re-aggregated usage,
// whether the banner's contracted delivery is exhausted. The store calls it
// inside the same transaction that recorded the triggering impression, so the
// aggregate it sees includes that impression.
type ExpireDecision func(b *Banner, agg ImpressionAggregate) bool

// BannerStore is the persistence interface for the banner engine. Every
// component receives it by injection; there is no module-level shared handle.
// Implementations: db.Postgres (production) and db.Memory (tests, dev mode).
type BannerStore interface {
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Serving path.
	ListBannerSlots(ctx context.Context) ([]BannerSlot, error)
	GetBannersForPlacement(ctx context.Context, placement string) ([]Banner, error)
	// GetViewerFrequencies returns the viewer's prior impression count per
	// banner id, fetched in one query for the whole request.
	GetViewerFrequencies(ctx context.Context, viewerID int) (map[int]int, error)
	GetPriorImpressionCount(ctx context.Context, bannerID, viewerID int) (int, error)
	GetPurchasedCategories(ctx context.Context, viewerID int) ([]string, error)
	GetViewerGender(ctx context.Context, viewerID int) (string, error)

	// Impression path. RecordImpression appends the impression, re-aggregates
	// the banner's usage and, when decide reports exhaustion, expires the
	// banner and rolls the expiry up to the campaign if every sibling banner
	// is already expired. All of it runs in a single transaction; the
	// expiry write is idempotent.
	InsertImpression(ctx context.Context, imp *Impression) (int, error)
	RecordImpression(ctx context.Context, imp *Impression, decide ExpireDecision) (expired bool, err error)
	AggregateImpressions(ctx context.Context, bannerID int) (ImpressionAggregate, error)
	AggregateCampaignImpressions(ctx context.Context, campaignID int) (ImpressionAggregate, error)

	// Lifecycle path.
	GetBanner(ctx context.Context, id int) (*Banner, error)
	GetCampaign(ctx context.Context, id int) (*Campaign, error)
	// ListCampaigns returns campaigns filtered by status; an empty status
	// returns all of them.
	ListCampaigns(ctx context.Context, status string) ([]Campaign, error)
	ListCampaignBanners(ctx context.Context, campaignID int) ([]Banner, error)
	SetBannerStatus(ctx context.Context, bannerID int, status string) error
	SetCampaignStatus(ctx context.Context, campaignID int, status string) error
	// SetCampaignBannersStatus moves every banner of a campaign to status in
	// one statement (admin transitions apply campaign-wide).
	SetCampaignBannersStatus(ctx context.Context, campaignID int, status string) error

	// Scheduled sweep path.
	ListNonExpiredAwarenessBannersPastTimeLimit(ctx context.Context, now time.Time) ([]Banner, error)

	// Campaign management.
	InsertCampaign(ctx context.Context, c *Campaign) error
	UpdateCampaign(ctx context.Context, c *Campaign) error
	InsertBanner(ctx context.Context, b *Banner) error
	MarkCampaignPaid(ctx context.Context, campaignID int, transactionID string) error
	// CountActiveViewers feeds the pricing quote (impression quota scales
	// with the store's active audience).
	CountActiveViewers(ctx context.Context) (int, error)

	// Notifications.
	InsertNotification(ctx context.Context, n *Notification) error
	ListDeviceTokens(ctx context.Context, receiverID int) ([]string, error)
	ListAllDeviceTokens(ctx context.Context) ([]string, error)
}
