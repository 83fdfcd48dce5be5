package logic

import (
	"strconv"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"

	"go.uber.org/zap"
)

// BannerFrequencies returns the viewer's per-banner impression counts from
// the Redis fast path. A Redis failure is logged and reported as a miss so
// callers can fall back to the relational aggregate — serving never fails
// because the counter cache is down.
func BannerFrequencies(store *db.RedisStore, viewerID int) (map[int]int, bool) {
	if store == nil || store.Client == nil {
		return nil, false
	}
	raw, err := store.ViewerFrequencies(viewerID)
	if err != nil {
		zap.L().Error("redis banner frequencies", zap.Error(err), zap.Int("viewer_id", viewerID))
		return nil, false
	}
	freqs := make(map[int]int, len(raw))
	for field, val := range raw {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		freqs[id] = n
	}
	return freqs, true
}

// IncrementBannerFrequency bumps the viewer's counter for a banner. Called
// after a successful impression write, never during filtering.
func IncrementBannerFrequency(store *db.RedisStore, viewerID, bannerID int) error {
	if store == nil || store.Client == nil {
		return ErrNilRedisStore
	}
	return store.IncrementViewerFrequency(viewerID, bannerID)
}
