package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func seedMemory(t *testing.T) (*Memory, *models.Campaign, *models.Banner) {
	t.Helper()
	m := NewMemory()
	ctx := context.Background()
	c := &models.Campaign{OwnerID: 1, Name: "c", Category: models.CategoryTarget, Status: models.StatusApproved}
	if err := m.InsertCampaign(ctx, c); err != nil {
		t.Fatalf("insert campaign: %v", err)
	}
	b := &models.Banner{CampaignID: c.ID, Name: "b", SlotType: "rack", BannerURL: "u",
		Category: models.CategoryTarget, Status: models.StatusApproved, ImpressionsLimit: 2}
	if err := m.InsertBanner(ctx, b); err != nil {
		t.Fatalf("insert banner: %v", err)
	}
	return m, c, b
}

func TestMemoryRecordImpressionExpiryCascade(t *testing.T) {
	m, c, b := seedMemory(t)
	ctx := context.Background()
	decide := func(banner *models.Banner, agg models.ImpressionAggregate) bool {
		return agg.Total >= banner.ImpressionsLimit
	}

	expired, err := m.RecordImpression(ctx, models.NewImpression(b.ID, c.ID, 7, models.GenderMale, "", ""), decide)
	if err != nil || expired {
		t.Fatalf("first impression: expired=%v err=%v", expired, err)
	}
	expired, err = m.RecordImpression(ctx, models.NewImpression(b.ID, c.ID, 7, models.GenderFemale, "", ""), decide)
	if err != nil {
		t.Fatalf("second impression: %v", err)
	}
	if !expired {
		t.Fatal("second impression must trip the two-impression quota")
	}

	got, _ := m.GetBanner(ctx, b.ID)
	if got.Status != models.StatusExpired {
		t.Errorf("banner status = %q, want expired", got.Status)
	}
	campaign, _ := m.GetCampaign(ctx, c.ID)
	if campaign.Status != models.StatusExpired {
		t.Errorf("campaign status = %q, want expired", campaign.Status)
	}

	// The append is never blocked, even on an expired banner, and the
	// expiry write stays idempotent.
	expired, err = m.RecordImpression(ctx, models.NewImpression(b.ID, c.ID, 7, models.GenderMale, "", ""), decide)
	if err != nil {
		t.Fatalf("impression on expired banner: %v", err)
	}
	if expired {
		t.Error("an already expired banner must not report expiry again")
	}
	agg, _ := m.AggregateImpressions(ctx, b.ID)
	if agg.Total != 3 || agg.Male != 2 || agg.Female != 1 {
		t.Errorf("agg = %+v, want total 3, male 2, female 1", agg)
	}
}

func TestMemoryRecordImpressionUnknownBanner(t *testing.T) {
	m := NewMemory()
	_, err := m.RecordImpression(context.Background(), models.NewImpression(99, 1, 7, models.GenderMale, "", ""), nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryMarkCampaignPaid(t *testing.T) {
	m, c, b := seedMemory(t)
	ctx := context.Background()
	if err := m.SetCampaignStatus(ctx, c.ID, models.StatusPending); err != nil {
		t.Fatal(err)
	}
	if err := m.SetCampaignBannersStatus(ctx, c.ID, models.StatusPending); err != nil {
		t.Fatal(err)
	}

	if err := m.MarkCampaignPaid(ctx, c.ID, "txn-1001"); err != nil {
		t.Fatalf("MarkCampaignPaid: %v", err)
	}
	got, _ := m.GetCampaign(ctx, c.ID)
	if !got.IsPaid || got.TransactionID != "txn-1001" || got.Status != models.StatusActive {
		t.Errorf("campaign after payment = %+v, want paid/active with transaction id", got)
	}
	if got.RemainingAmount != 0 {
		t.Errorf("remaining amount = %v, want 0", got.RemainingAmount)
	}
	banner, _ := m.GetBanner(ctx, b.ID)
	if !banner.IsPaid || banner.Status != models.StatusActive {
		t.Errorf("banner after payment = %+v, want paid/active", banner)
	}

	if err := m.MarkCampaignPaid(ctx, 999, "txn-x"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown campaign: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryListCampaigns(t *testing.T) {
	m, c, _ := seedMemory(t)
	ctx := context.Background()
	second := &models.Campaign{OwnerID: 2, Name: "d", Category: models.CategoryAwareness, Status: models.StatusDraft}
	if err := m.InsertCampaign(ctx, second); err != nil {
		t.Fatal(err)
	}

	all, err := m.ListCampaigns(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != c.ID || all[1].ID != second.ID {
		t.Errorf("ListCampaigns(all) = %+v, want both in id order", all)
	}

	drafts, err := m.ListCampaigns(ctx, models.StatusDraft)
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 1 || drafts[0].ID != second.ID {
		t.Errorf("ListCampaigns(draft) = %+v, want only the draft", drafts)
	}
}

func TestMemoryGetBannersForPlacement(t *testing.T) {
	m, c, b := seedMemory(t)
	ctx := context.Background()
	m.AddSlot(models.BannerSlot{ID: 1, Name: "rack1", Type: "rack", Thumbnail: "thumb"})

	// Unapproved banners are still candidates; status is filtered downstream.
	draft := &models.Banner{CampaignID: c.ID, Name: "draft", SlotType: "rack", Category: models.CategoryTarget, Status: models.StatusDraft}
	if err := m.InsertBanner(ctx, draft); err != nil {
		t.Fatal(err)
	}
	other := &models.Banner{CampaignID: c.ID, Name: "wall", SlotType: "wall", Category: models.CategoryTarget, Status: models.StatusApproved}
	if err := m.InsertBanner(ctx, other); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetBannersForPlacement(ctx, "rack1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("placement candidates = %+v, want the approved and draft rack banners", got)
	}
	for _, cand := range got {
		if cand.SlotType != "rack" {
			t.Errorf("candidate %q has slot type %q, want rack", cand.Name, cand.SlotType)
		}
	}
	ids := map[int]bool{got[0].ID: true, got[1].ID: true}
	if !ids[b.ID] || !ids[draft.ID] {
		t.Errorf("candidate ids = %v, want %d and %d", ids, b.ID, draft.ID)
	}
}

func TestMemoryViewerLookups(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.AddViewer(7, models.GenderFemale)
	m.AddViewer(8, "")
	m.AddPurchase(7, "dairy")
	m.AddPurchase(7, "dairy")
	m.AddPurchase(7, "snacks")

	g, err := m.GetViewerGender(ctx, 7)
	if err != nil || g != models.GenderFemale {
		t.Errorf("gender = %q err = %v", g, err)
	}
	if _, err := m.GetViewerGender(ctx, 8); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("empty gender must be ErrNotFound, got %v", err)
	}

	cats, err := m.GetPurchasedCategories(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Errorf("categories = %v, want the deduplicated pair", cats)
	}
}

func TestMemoryPastTimeLimitListing(t *testing.T) {
	m, c, _ := seedMemory(t)
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Hour)

	overdue := &models.Banner{CampaignID: c.ID, Name: "overdue", SlotType: "rack",
		Category: models.CategoryAwareness, Status: models.StatusApproved, TimeLimit: &past}
	if err := m.InsertBanner(ctx, overdue); err != nil {
		t.Fatal(err)
	}
	// Target banners never appear on the scheduled path.
	targetPast := &models.Banner{CampaignID: c.ID, Name: "target", SlotType: "rack",
		Category: models.CategoryTarget, Status: models.StatusApproved, TimeLimit: &past}
	if err := m.InsertBanner(ctx, targetPast); err != nil {
		t.Fatal(err)
	}

	got, err := m.ListNonExpiredAwarenessBannersPastTimeLimit(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != overdue.ID {
		t.Errorf("sweep candidates = %+v, want only the overdue awareness banner", got)
	}
}
