package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func doStatusRequest(srv *Server, id string, body any, t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/campaigns/"+id+"/status", jsonBody(t, body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rr := httptest.NewRecorder()
	srv.CampaignStatusHandler(rr, req)
	return rr
}

func TestCampaignStatusHandlerApproval(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	c := &models.Campaign{OwnerID: 5, Name: "c", Category: models.CategoryTarget, Status: models.StatusPending}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}
	b := &models.Banner{CampaignID: c.ID, Name: "b", SlotType: "rack", BannerURL: "u",
		Category: models.CategoryTarget, Status: models.StatusPending, ImpressionsLimit: 200}
	if err := store.InsertBanner(ctx, b); err != nil {
		t.Fatal(err)
	}

	rr := doStatusRequest(srv, "1", statusRequest{Status: models.StatusApproved, SenderID: 99}, t)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decodeCampaignResponse(t, rr)
	if resp.Campaign.Status != models.StatusApproved {
		t.Errorf("campaign status = %q, want approved", resp.Campaign.Status)
	}
	got, _ := store.GetBanner(ctx, b.ID)
	if got.Status != models.StatusApproved {
		t.Errorf("banner status = %q, want approved", got.Status)
	}
}

func TestCampaignStatusHandlerRejections(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	c := &models.Campaign{OwnerID: 5, Name: "c", Category: models.CategoryTarget, Status: models.StatusDraft}
	if err := store.InsertCampaign(ctx, c); err != nil {
		t.Fatal(err)
	}

	// Drafts cannot jump straight to approved.
	if rr := doStatusRequest(srv, "1", statusRequest{Status: models.StatusApproved}, t); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("draft to approved: status = %d, want 422", rr.Code)
	}
	if rr := doStatusRequest(srv, "99", statusRequest{Status: models.StatusApproved}, t); rr.Code != http.StatusNotFound {
		t.Errorf("unknown campaign: status = %d, want 404", rr.Code)
	}
	if rr := doStatusRequest(srv, "1", statusRequest{}, t); rr.Code != http.StatusBadRequest {
		t.Errorf("missing status: status = %d, want 400", rr.Code)
	}
	if rr := doStatusRequest(srv, "abc", statusRequest{Status: models.StatusApproved}, t); rr.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: status = %d, want 400", rr.Code)
	}
}
