package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func seedReportFixture(t *testing.T) (*db.Memory, int, []int) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemory()
	store.AddViewer(1, models.GenderMale)
	store.AddViewer(2, models.GenderFemale)

	c := &models.Campaign{OwnerID: 1, Name: "launch", Category: models.CategoryTarget,
		Status: models.StatusApproved, Amount: 8, IsPaid: true}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}
	var bannerIDs []int
	for _, slot := range []string{"rack", "fridge"} {
		b := &models.Banner{CampaignID: c.ID, Name: slot + " ad", SlotType: slot,
			Category: models.CategoryTarget, Status: models.StatusApproved, ImpressionsLimit: 1000}
		if err := store.InsertBanner(ctx, b); err != nil {
			t.Fatal(err)
		}
		bannerIDs = append(bannerIDs, b.ID)
	}
	return store, c.ID, bannerIDs
}

func record(t *testing.T, store *db.Memory, campaignID, bannerID, viewerID int) {
	t.Helper()
	gender, err := store.GetViewerGender(context.Background(), viewerID)
	if err != nil {
		t.Fatal(err)
	}
	imp := &models.Impression{BannerID: bannerID, CampaignID: campaignID, ViewerID: viewerID,
		Impressions: 1, CreatedAt: time.Now()}
	switch gender {
	case models.GenderMale:
		imp.Male = 1
	case models.GenderFemale:
		imp.Female = 1
	}
	if _, err := store.RecordImpression(context.Background(), imp, nil); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateCampaignReportTotals(t *testing.T) {
	store, campaignID, bannerIDs := seedReportFixture(t)
	record(t, store, campaignID, bannerIDs[0], 1)
	record(t, store, campaignID, bannerIDs[0], 2)
	record(t, store, campaignID, bannerIDs[1], 2)

	summary, err := GenerateCampaignReport(context.Background(), store, nil, campaignID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if summary.CampaignID != campaignID || summary.Name != "launch" {
		t.Errorf("summary header = %+v", summary)
	}
	if summary.Impressions != 3 || summary.Male != 1 || summary.Female != 2 {
		t.Errorf("totals = %d/%d/%d, want 3 total, 1 male, 2 female",
			summary.Impressions, summary.Male, summary.Female)
	}
	if len(summary.Banners) != 2 {
		t.Fatalf("banner rows = %d, want 2", len(summary.Banners))
	}
	first := summary.Banners[0]
	if first.Impressions != 2 || first.MalePct != 50 || first.FemalePct != 50 {
		t.Errorf("first banner = %+v, want 2 impressions split evenly", first)
	}
	// No analytics store: totals stand on their own, no daily series.
	if summary.Daily != nil {
		t.Errorf("daily series = %v, want none without analytics", summary.Daily)
	}
}

func TestGenerateCampaignReportDailySeries(t *testing.T) {
	store, campaignID, bannerIDs := seedReportFixture(t)
	record(t, store, campaignID, bannerIDs[0], 1)

	mock := analytics.NewMockAnalytics()
	mock.RecordEvent(context.Background(), analytics.EventRecord{
		EventType:  analytics.EventImpression,
		RequestID:  "r1",
		BannerID:   analytics.Int32Ptr(bannerIDs[0]),
		CampaignID: analytics.Int32Ptr(campaignID),
	})

	summary, err := GenerateCampaignReport(context.Background(), store, mock, campaignID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Daily) != 1 || summary.Daily[0].Total != 1 {
		t.Errorf("daily = %+v, want one day with one impression", summary.Daily)
	}
}

func TestGenerateCampaignReportUnknownCampaign(t *testing.T) {
	store := db.NewMemory()
	if _, err := GenerateCampaignReport(context.Background(), store, nil, 42, 7); err == nil {
		t.Fatal("expected an error for an unknown campaign")
	}
}

func TestGenerateCampaignReportZeroImpressions(t *testing.T) {
	store, campaignID, _ := seedReportFixture(t)
	summary, err := GenerateCampaignReport(context.Background(), store, nil, campaignID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Impressions != 0 {
		t.Errorf("impressions = %d, want 0", summary.Impressions)
	}
	for _, b := range summary.Banners {
		if b.MalePct != 0 || b.FemalePct != 0 {
			t.Errorf("banner %d percentages = %v/%v, want zero on no delivery", b.BannerID, b.MalePct, b.FemalePct)
		}
	}
}
