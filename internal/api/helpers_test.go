package api

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/config"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"
)

const testTokenSecret = "test-secret-key-that-is-long-enough"

// newTestServer wires a Server against the in-memory store with mock
// analytics and no Redis or GeoIP.
func newTestServer(t *testing.T) (*Server, *db.Memory, *analytics.MockAnalytics) {
	t.Helper()
	store := db.NewMemory()
	mockAnalytics := analytics.NewMockAnalytics()
	logger := zaptest.NewLogger(t)

	cfg := config.Config{
		TokenSecret:         testTokenSecret,
		TokenTTL:            time.Hour,
		MinImpressionsLimit: 200,
	}

	filler := logic.NewFiller(store)
	recorder := logic.NewRecorder(store, nil, logger)
	sweeper := logic.NewSweeper(store, nil, logger, &observability.MockMetricsRegistry{})
	lifecycle := logic.NewLifecycle(store, nil, logger)

	srv := NewServer(logger, store, nil, mockAnalytics, nil,
		filler, recorder, sweeper, lifecycle, &observability.MockMetricsRegistry{}, cfg)
	return srv, store, mockAnalytics
}

func seedServingFixture(t *testing.T, store *db.Memory) (campaignID, bannerID int) {
	t.Helper()
	ctx := context.Background()
	store.AddSlot(models.BannerSlot{ID: 1, Name: "rack1", Type: "rack", Size: 1, Thumbnail: "https://cdn.example.com/thumbs/rack.png"})
	store.AddSlot(models.BannerSlot{ID: 2, Name: "fridge1", Type: "fridge", Size: 1, Thumbnail: "https://cdn.example.com/thumbs/fridge.png"})
	store.AddViewer(7, models.GenderFemale)

	c := &models.Campaign{OwnerID: 1, Name: "c", Category: models.CategoryTarget, Status: models.StatusApproved}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatalf("insert campaign: %v", err)
	}
	b := &models.Banner{CampaignID: c.ID, Name: "rack ad", SlotType: "rack",
		BannerURL: "https://cdn.example.com/rack.png", Category: models.CategoryTarget,
		Status: models.StatusApproved, ImpressionsLimit: 1000}
	if err := store.InsertBanner(ctx, b); err != nil {
		t.Fatalf("insert banner: %v", err)
	}
	return c.ID, b.ID
}
