package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"

	"go.uber.org/zap"
)

// reachMinImpressions is the minimum sample size before gender-reach
// percentages are trusted; below it a couple of impressions would hit any
// cutoff instantly.
const reachMinImpressions = 5

// ShouldExpire is the exhaustion test for one banner given its freshly
// aggregated usage. It is pure so the store can run it inside the impression
// transaction and the sweeper can run it standalone.
//
// Target banners expire on the hard quota. Awareness banners expire when any
// contracted limit is met: share of voice over the impression budget, or a
// gender-reach cutoff once past the minimum sample.
func ShouldExpire(b *models.Banner, agg models.ImpressionAggregate) bool {
	if b.IsTarget() {
		return b.ImpressionsLimit > 0 && agg.Total >= b.ImpressionsLimit
	}
	if !b.IsAwareness() {
		return false
	}
	if b.ShareOfVoice != nil && b.ImpressionsLimit > 0 {
		sov := float64(agg.Total) / float64(b.ImpressionsLimit) * 100
		if sov >= float64(*b.ShareOfVoice) {
			return true
		}
	}
	if b.ReachNumber != nil && len(b.ReachGender) > 0 && agg.Total > reachMinImpressions {
		for _, g := range b.ReachGender {
			var count int
			switch g {
			case models.GenderMale:
				count = agg.Male
			case models.GenderFemale:
				count = agg.Female
			default:
				continue
			}
			pct := float64(count) / float64(agg.Total) * 100
			if pct >= float64(*b.ReachNumber) {
				return true
			}
		}
	}
	return false
}

// SweepLocker guards the scheduled sweep so only one pass runs at a time.
// db.RedisStore implements it; a nil locker falls back to trusting the
// single in-process timer.
type SweepLocker interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

// Sweeper retires banners whose contracted delivery is exhausted and rolls
// the expiry up to campaigns whose banners are all expired.
type Sweeper struct {
	store   models.BannerStore
	locker  SweepLocker
	logger  *zap.Logger
	metrics observability.MetricsRegistry

	// LockTTL bounds how long one scheduled pass may hold the sweep lock.
	LockTTL time.Duration
}

// NewSweeper wires a sweeper. locker may be nil.
func NewSweeper(store models.BannerStore, locker SweepLocker, logger *zap.Logger, metrics observability.MetricsRegistry) *Sweeper {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Sweeper{store: store, locker: locker, logger: logger, metrics: metrics, LockTTL: time.Hour}
}

// CheckBanner is the inline path re-entry point: re-aggregate one banner and
// expire it if exhausted. Calling it on an already expired banner is a no-op.
func (s *Sweeper) CheckBanner(ctx context.Context, bannerID int) error {
	b, err := s.store.GetBanner(ctx, bannerID)
	if err != nil {
		return fmt.Errorf("load banner: %w", err)
	}
	if b.Status == models.StatusExpired {
		return nil
	}
	agg, err := s.store.AggregateImpressions(ctx, bannerID)
	if err != nil {
		return fmt.Errorf("aggregate impressions: %w", err)
	}
	if !ShouldExpire(b, agg) {
		return nil
	}
	return s.ExpireBanner(ctx, b)
}

// ExpireBanner flips one banner to expired, then expires the parent campaign
// when every sibling banner is already expired. The campaign status is a
// derived rollup on this path, never set independently.
func (s *Sweeper) ExpireBanner(ctx context.Context, b *models.Banner) error {
	if b.Status == models.StatusExpired {
		return nil
	}
	if err := s.store.SetBannerStatus(ctx, b.ID, models.StatusExpired); err != nil {
		return fmt.Errorf("expire banner %d: %w", b.ID, err)
	}
	s.metrics.IncrementEvent("banner_expired")
	s.logger.Info("banner expired",
		zap.Int("banner_id", b.ID),
		zap.Int("campaign_id", b.CampaignID),
		zap.String("category", b.Category))

	siblings, err := s.store.ListCampaignBanners(ctx, b.CampaignID)
	if err != nil {
		return fmt.Errorf("list campaign banners: %w", err)
	}
	for i := range siblings {
		if siblings[i].ID != b.ID && siblings[i].Status != models.StatusExpired {
			return nil
		}
	}
	if err := s.store.SetCampaignStatus(ctx, b.CampaignID, models.StatusExpired); err != nil {
		return fmt.Errorf("expire campaign %d: %w", b.CampaignID, err)
	}
	s.metrics.IncrementEvent("campaign_expired")
	s.logger.Info("campaign expired", zap.Int("campaign_id", b.CampaignID))
	return nil
}

// RunDaily is the scheduled path: expire every non-expired awareness banner
// whose time limit has passed. One banner's failure is logged and skipped,
// never aborting the pass. Returns ErrSweepInProgress when another pass
// still holds the lock.
func (s *Sweeper) RunDaily(ctx context.Context, now time.Time) error {
	if s.locker != nil {
		ok, err := s.locker.AcquireSweepLock(ctx, s.LockTTL)
		if err != nil {
			return fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return ErrSweepInProgress
		}
		defer func() {
			if err := s.locker.ReleaseSweepLock(ctx); err != nil {
				s.logger.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	banners, err := s.store.ListNonExpiredAwarenessBannersPastTimeLimit(ctx, now)
	if err != nil {
		return fmt.Errorf("list banners past time limit: %w", err)
	}

	var expired, failed int
	for i := range banners {
		if err := s.ExpireBanner(ctx, &banners[i]); err != nil {
			failed++
			s.metrics.IncrementSweepFailures()
			s.logger.Error("sweep banner", zap.Int("banner_id", banners[i].ID), zap.Error(err))
			continue
		}
		expired++
	}
	s.metrics.RecordSweepDuration(time.Since(start))
	s.logger.Info("daily expiry sweep complete",
		zap.Int("expired", expired),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)))
	return nil
}
