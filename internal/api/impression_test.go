package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/token"
)

func issueToken(t *testing.T, bannerID, campaignID, viewerID int, slot string) string {
	t.Helper()
	tok, err := token.Generate("req-1", bannerID, campaignID, viewerID, slot, []byte(testTokenSecret))
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func postImpression(srv *Server, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/impression?t="+url.QueryEscape(tok), nil)
	rr := httptest.NewRecorder()
	srv.ImpressionHandler(rr, req)
	return rr
}

func TestImpressionHandlerRecords(t *testing.T) {
	srv, store, mock := newTestServer(t)
	campaignID, bannerID := seedServingFixture(t, store)

	rr := postImpression(srv, issueToken(t, bannerID, campaignID, 7, "rack1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Status  string `json:"status"`
		Expired bool   `json:"expired"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "recorded" || resp.Expired {
		t.Errorf("resp = %+v, want recorded and not expired", resp)
	}

	agg, err := store.AggregateImpressions(context.Background(), bannerID)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Total != 1 || agg.Female != 1 {
		t.Errorf("agg = %+v, want one female impression", agg)
	}
	if n := len(mock.EventsOfType(analytics.EventImpression)); n != 1 {
		t.Errorf("impression events = %d, want 1", n)
	}
	if n := len(mock.EventsOfType(analytics.EventBannerExpired)); n != 0 {
		t.Errorf("banner_expired events = %d, want 0", n)
	}
}

func TestImpressionHandlerReportsExpiry(t *testing.T) {
	srv, store, mock := newTestServer(t)
	ctx := context.Background()
	store.AddViewer(7, models.GenderFemale)
	c := &models.Campaign{OwnerID: 1, Name: "c", Category: models.CategoryTarget, Status: models.StatusApproved}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}
	b := &models.Banner{CampaignID: c.ID, Name: "b", SlotType: "rack", Category: models.CategoryTarget,
		Status: models.StatusApproved, ImpressionsLimit: 1}
	if err := store.InsertBanner(ctx, b); err != nil {
		t.Fatal(err)
	}

	rr := postImpression(srv, issueToken(t, b.ID, c.ID, 7, "rack1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Expired bool `json:"expired"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Expired {
		t.Error("quota of one must expire on the first impression")
	}
	got, _ := store.GetBanner(ctx, b.ID)
	if got.Status != models.StatusExpired {
		t.Errorf("banner status = %q, want expired", got.Status)
	}
	if n := len(mock.EventsOfType(analytics.EventBannerExpired)); n != 1 {
		t.Errorf("banner_expired events = %d, want 1", n)
	}
}

func TestImpressionHandlerRejectsBadTokens(t *testing.T) {
	srv, store, _ := newTestServer(t)
	campaignID, bannerID := seedServingFixture(t, store)

	if rr := postImpression(srv, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rr.Code)
	}
	if rr := postImpression(srv, "not-a-token"); rr.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rr.Code)
	}

	// Tokens signed with another secret are rejected.
	other, err := token.Generate("req-1", bannerID, campaignID, 7, "rack1", []byte("different-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if rr := postImpression(srv, other); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status = %d, want 401", rr.Code)
	}

	// A fallback token (banner id 0) is valid but records nothing.
	fallback := issueToken(t, 0, 0, 7, "rack1")
	if rr := postImpression(srv, fallback); rr.Code != http.StatusBadRequest {
		t.Errorf("fallback token: status = %d, want 400", rr.Code)
	}

	// Unknown banner under a valid token.
	if rr := postImpression(srv, issueToken(t, 9999, campaignID, 7, "rack1")); rr.Code != http.StatusNotFound {
		t.Errorf("unknown banner: status = %d, want 404", rr.Code)
	}
}

func TestInteractionHandler(t *testing.T) {
	srv, store, mock := newTestServer(t)
	campaignID, bannerID := seedServingFixture(t, store)

	tok := issueToken(t, bannerID, campaignID, 7, "rack1")
	req := httptest.NewRequest(http.MethodPost, "/interaction?t="+url.QueryEscape(tok), nil)
	rr := httptest.NewRecorder()
	srv.InteractionHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if n := len(mock.EventsOfType(analytics.EventInteraction)); n != 1 {
		t.Errorf("interaction events = %d, want 1", n)
	}
	// Interactions never count against exposure limits.
	agg, _ := store.AggregateImpressions(context.Background(), bannerID)
	if agg.Total != 0 {
		t.Errorf("interaction recorded %d impressions, want 0", agg.Total)
	}

	req = httptest.NewRequest(http.MethodPost, "/interaction", nil)
	rr = httptest.NewRecorder()
	srv.InteractionHandler(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rr.Code)
	}
}
