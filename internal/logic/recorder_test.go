package logic

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func TestRecordBucketsGender(t *testing.T) {
	store := db.NewMemory()
	store.AddViewer(1, models.GenderMale)
	store.AddViewer(2, models.GenderFemale)
	b := &models.Banner{Name: "b", SlotType: "rack", Category: models.CategoryAwareness}
	seedCampaignWithBanners(t, store, b)
	rec := NewRecorder(store, nil, zap.NewNop())
	ctx := context.Background()

	if _, err := rec.Record(ctx, b.ID, 1, "android", "mobile"); err != nil {
		t.Fatalf("record male: %v", err)
	}
	if _, err := rec.Record(ctx, b.ID, 2, "ios", "tablet"); err != nil {
		t.Fatalf("record female: %v", err)
	}

	agg, err := store.AggregateImpressions(ctx, b.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Total != 2 || agg.Male != 1 || agg.Female != 1 {
		t.Errorf("agg = %+v, want total 2, male 1, female 1", agg)
	}
}

func TestRecordTriggersInlineExpiry(t *testing.T) {
	store := db.NewMemory()
	store.AddViewer(1, models.GenderFemale)
	b := &models.Banner{Name: "b", SlotType: "rack", Category: models.CategoryTarget, ImpressionsLimit: 3}
	campaignID := seedCampaignWithBanners(t, store, b)
	rec := NewRecorder(store, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		expired, err := rec.Record(ctx, b.ID, 1, "", "")
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if expired {
			t.Fatalf("impression %d under the quota reported expiry", i+1)
		}
	}

	expired, err := rec.Record(ctx, b.ID, 1, "", "")
	if err != nil {
		t.Fatalf("record at quota: %v", err)
	}
	if !expired {
		t.Fatal("the quota-reaching impression must report expiry")
	}

	got, _ := store.GetBanner(ctx, b.ID)
	if got.Status != models.StatusExpired {
		t.Errorf("banner status = %q, want expired", got.Status)
	}
	c, _ := store.GetCampaign(ctx, campaignID)
	if c.Status != models.StatusExpired {
		t.Errorf("campaign status = %q, want expired (sole banner)", c.Status)
	}
}

func TestRecordUnknownBannerOrViewer(t *testing.T) {
	store := db.NewMemory()
	store.AddViewer(1, models.GenderMale)
	b := &models.Banner{Name: "b", SlotType: "rack", Category: models.CategoryTarget}
	seedCampaignWithBanners(t, store, b)
	rec := NewRecorder(store, nil, zap.NewNop())
	ctx := context.Background()

	if _, err := rec.Record(ctx, 999, 1, "", ""); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown banner: err = %v, want ErrNotFound", err)
	}
	// A viewer with no gender attribute cannot be bucketed.
	if _, err := rec.Record(ctx, b.ID, 999, "", ""); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown viewer: err = %v, want ErrNotFound", err)
	}
}
