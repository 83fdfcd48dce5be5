package logic

import (
	"context"
	"fmt"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"

	"go.uber.org/zap"
)

// Recorder durably records shopper interactions with delivered banners and
// triggers the inline expiry check for the touched banner before returning.
type Recorder struct {
	store  models.BannerStore
	redis  *db.RedisStore
	logger *zap.Logger
}

// NewRecorder wires an impression recorder. redis may be nil; frequency
// counters then come solely from the relational store.
func NewRecorder(store models.BannerStore, redis *db.RedisStore, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, redis: redis, logger: logger}
}

// Record appends one impression for the viewer on the banner. The insert,
// the usage re-aggregate and the conditional expiry cascade run in a single
// store transaction, closing the read-then-write race between concurrent
// impressions on the same banner. Returns whether the banner expired as a
// result of this impression.
//
// Fails with models.ErrNotFound when the banner does not exist or the
// viewer has no gender attribute (gender is mandatory for bucketing).
func (r *Recorder) Record(ctx context.Context, bannerID, viewerID int, os, device string) (expired bool, err error) {
	b, err := r.store.GetBanner(ctx, bannerID)
	if err != nil {
		return false, fmt.Errorf("banner %d: %w", bannerID, err)
	}
	gender, err := r.store.GetViewerGender(ctx, viewerID)
	if err != nil {
		return false, fmt.Errorf("viewer %d gender: %w", viewerID, err)
	}

	imp := models.NewImpression(b.ID, b.CampaignID, viewerID, gender, os, device)
	expired, err = r.store.RecordImpression(ctx, imp, ShouldExpire)
	if err != nil {
		return false, fmt.Errorf("record impression: %w", err)
	}

	// Best-effort fast-path counter for the frequency-cap predicate; the
	// relational aggregate remains the source of truth.
	if err := IncrementBannerFrequency(r.redis, viewerID, bannerID); err != nil && err != ErrNilRedisStore {
		r.logger.Warn("increment banner frequency", zap.Error(err), zap.Int("banner_id", bannerID))
	}
	return expired, nil
}
