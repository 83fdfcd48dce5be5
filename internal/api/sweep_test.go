package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func TestSweepHandler(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	c := &models.Campaign{OwnerID: 1, Name: "c", Category: models.CategoryAwareness, Status: models.StatusApproved}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-24 * time.Hour)
	b := &models.Banner{CampaignID: c.ID, Name: "b", SlotType: "rack", BannerURL: "u",
		Category: models.CategoryAwareness, Status: models.StatusApproved, TimeLimit: &past}
	if err := store.InsertBanner(ctx, b); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/sweep", nil)
	rr := httptest.NewRecorder()
	srv.SweepHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	got, _ := store.GetBanner(ctx, b.ID)
	if got.Status != models.StatusExpired {
		t.Errorf("banner status = %q, want expired after sweep", got.Status)
	}
	gc, _ := store.GetCampaign(ctx, c.ID)
	if gc.Status != models.StatusExpired {
		t.Errorf("campaign status = %q, want expired after its only banner expired", gc.Status)
	}
}
