package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/token"
)

func doSlotsRequest(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 12; Pixel 6) AppleWebKit/537.36 Chrome/114.0 Mobile Safari/537.36")
	rr := httptest.NewRecorder()
	srv.SlotsHandler(rr, req)
	return rr
}

func TestSlotsHandlerRequiresViewerID(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if rr := doSlotsRequest(t, srv, "/slots"); rr.Code != http.StatusBadRequest {
		t.Errorf("missing viewer_id: status = %d, want 400", rr.Code)
	}
	if rr := doSlotsRequest(t, srv, "/slots?viewer_id=abc"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad viewer_id: status = %d, want 400", rr.Code)
	}
	if rr := doSlotsRequest(t, srv, "/slots?viewer_id=0"); rr.Code != http.StatusBadRequest {
		t.Errorf("zero viewer_id: status = %d, want 400", rr.Code)
	}
}

func TestSlotsHandlerServesBannerWithToken(t *testing.T) {
	srv, store, mock := newTestServer(t)
	seedServingFixture(t, store)

	rr := doSlotsRequest(t, srv, "/slots?viewer_id=7")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var fills map[string]struct {
		Banner models.SlotFill `json:"banner"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fills); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := fills["fridge1"]; ok {
		t.Error("slot with no banners must be omitted")
	}
	fill, ok := fills["rack1"]
	if !ok {
		t.Fatal("rack1 missing from response")
	}
	if fill.Banner.ID == 0 {
		t.Fatal("expected a served banner, got the fallback")
	}
	if fill.Banner.Token == "" {
		t.Fatal("served fill must carry an interaction token")
	}

	claims, err := token.Verify(fill.Banner.Token, []byte(testTokenSecret), 0)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.BannerID != fill.Banner.ID || claims.ViewerID != 7 || claims.SlotName != "rack1" {
		t.Errorf("claims = %+v, want banner %d, viewer 7, slot rack1", claims, fill.Banner.ID)
	}

	if n := len(mock.EventsOfType(analytics.EventSlotRequest)); n != 1 {
		t.Errorf("slot_request events = %d, want 1", n)
	}
	if n := len(mock.EventsOfType(analytics.EventBannerServed)); n != 1 {
		t.Errorf("banner_served events = %d, want 1", n)
	}
}

func TestSlotsHandlerFallbackCarriesNoToken(t *testing.T) {
	srv, store, mock := newTestServer(t)
	ctx := context.Background()
	store.AddSlot(models.BannerSlot{ID: 1, Name: "rack1", Type: "rack", Thumbnail: "https://cdn.example.com/thumbs/rack.png"})
	store.AddViewer(9, models.GenderMale)
	c := &models.Campaign{OwnerID: 1, Name: "c", Category: models.CategoryTarget, Status: models.StatusApproved}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}
	// The only rack banner targets women; a male viewer gets the fallback.
	b := &models.Banner{CampaignID: c.ID, Name: "women only", SlotType: "rack",
		BannerURL: "https://cdn.example.com/rack.png", Category: models.CategoryTarget,
		Status: models.StatusApproved, Genders: []string{models.GenderFemale}}
	if err := store.InsertBanner(ctx, b); err != nil {
		t.Fatal(err)
	}

	rr := doSlotsRequest(t, srv, "/slots?viewer_id=9")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var fills map[string]struct {
		Banner models.SlotFill `json:"banner"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fills); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	fill := fills["rack1"]
	if fill.Banner.ID != 0 {
		t.Fatalf("fill id = %d, want fallback 0", fill.Banner.ID)
	}
	if fill.Banner.Token != "" {
		t.Error("fallback fill must not carry a token")
	}
	if fill.Banner.BannerURL != "https://cdn.example.com/thumbs/rack.png" {
		t.Errorf("fallback url = %q, want slot thumbnail", fill.Banner.BannerURL)
	}
	if n := len(mock.EventsOfType(analytics.EventSlotFallback)); n != 1 {
		t.Errorf("slot_fallback events = %d, want 1", n)
	}
}
