package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// bannerRequest is the submitted shape of one banner within a campaign.
type bannerRequest struct {
	Name             string     `json:"name"`
	SlotType         string     `json:"slotType"`
	BannerURL        string     `json:"bannerUrl"`
	Format           string     `json:"format"`
	Locations        []string   `json:"locations"`
	Genders          []string   `json:"genders"`
	FromAge          *int       `json:"fromAge"`
	ToAge            *int       `json:"toAge"`
	ProductCategory  string     `json:"productCategory"`
	FromHour         *int       `json:"fromHour"`
	ToHour           *int       `json:"toHour"`
	DaysOfWeek       []string   `json:"daysOfWeek"`
	OS               string     `json:"os"`
	Device           string     `json:"device"`
	FrequencyCap     *int       `json:"frequencyCap"`
	LifeEvent        string     `json:"lifeEvent"`
	ReachNumber      *int       `json:"reachNumber"`
	ReachGender      []string   `json:"reachGender"`
	ShareOfVoice     *int       `json:"shareOfVoice"`
	TimeLimit        *time.Time `json:"timeLimit"`
	ImpressionsLimit int        `json:"impressionsLimit"`
}

type createCampaignRequest struct {
	OwnerID  int             `json:"ownerId"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Banners  []bannerRequest `json:"banners"`
	// Draft saves the order without submitting it. Submitted campaigns land
	// in pending until payment clears.
	Draft bool `json:"draft"`
}

type campaignResponse struct {
	Campaign *models.Campaign `json:"campaign"`
	Banners  []models.Banner  `json:"banners,omitempty"`
	Quote    *logic.Quote     `json:"quote,omitempty"`
	Edit     *logic.EditQuote `json:"edit,omitempty"`
}

func (br bannerRequest) toBanner(category string) models.Banner {
	return models.Banner{
		Name:             br.Name,
		SlotType:         br.SlotType,
		BannerURL:        br.BannerURL,
		Format:           br.Format,
		Category:         category,
		Locations:        br.Locations,
		Genders:          br.Genders,
		FromAge:          br.FromAge,
		ToAge:            br.ToAge,
		ProductCategory:  br.ProductCategory,
		FromHour:         br.FromHour,
		ToHour:           br.ToHour,
		DaysOfWeek:       br.DaysOfWeek,
		OS:               br.OS,
		Device:           br.Device,
		FrequencyCap:     br.FrequencyCap,
		LifeEvent:        br.LifeEvent,
		ReachNumber:      br.ReachNumber,
		ReachGender:      br.ReachGender,
		ShareOfVoice:     br.ShareOfVoice,
		TimeLimit:        br.TimeLimit,
		ImpressionsLimit: br.ImpressionsLimit,
	}
}

// distinctSlotTypes counts how many different placement types a banner set
// spans. The count drives the per-field surcharge in pricing.
func distinctSlotTypes(banners []models.Banner) int {
	seen := make(map[string]bool, len(banners))
	for _, b := range banners {
		seen[b.SlotType] = true
	}
	return len(seen)
}

// CreateCampaignHandler handles POST /campaigns. Submissions land in
// pending with a price quote attached and move to active on payment
// confirmation; the draft flag saves the order without submitting it.
func (s *Server) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CreateCampaignHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/campaigns"),
		))
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "campaigns"
	const method = "POST"

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req createCampaignRequest
	if err := dec.Decode(&req); err != nil {
		logger.Warn("decode request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.OwnerID <= 0 || len(req.Banners) == 0 {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "name, ownerId and at least one banner required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	banners := make([]models.Banner, 0, len(req.Banners))
	for _, br := range req.Banners {
		b := br.toBanner(req.Category)
		if err := logic.ValidateBanner(&b, now, s.Config.MinImpressionsLimit); err != nil {
			logger.Warn("banner validation", zap.Error(err), zap.String("banner", b.Name))
			s.Metrics.IncrementRequests(endpoint, method, "422")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		banners = append(banners, b)
	}

	activeViewers, err := s.Store.CountActiveViewers(ctx)
	if err != nil {
		logger.Error("count active viewers", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "pricing failed", http.StatusInternalServerError)
		return
	}
	quote := logic.PriceQuote(distinctSlotTypes(banners), activeViewers, s.Config.BasicAdAmount)

	// A saved draft stays out of the queue; a submission waits in pending
	// until the payment endpoint confirms and moves it to active.
	status := models.StatusPending
	if req.Draft {
		status = models.StatusDraft
	}
	campaign := &models.Campaign{
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		Category:        req.Category,
		Amount:          quote.Amount,
		RemainingAmount: quote.Amount,
		Status:          status,
	}
	if err := s.Store.InsertCampaign(ctx, campaign); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert campaign")
		logger.Error("insert campaign", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign not created", http.StatusInternalServerError)
		return
	}

	for i := range banners {
		banners[i].CampaignID = campaign.ID
		banners[i].Status = status
		if banners[i].IsTarget() && banners[i].ImpressionsLimit == 0 {
			banners[i].ImpressionsLimit = quote.ImpressionsLimit
		}
		if err := s.Store.InsertBanner(ctx, &banners[i]); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert banner")
			logger.Error("insert banner", zap.Error(err), zap.Int("campaign_id", campaign.ID))
			s.Metrics.IncrementRequests(endpoint, method, "500")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "banner not created", http.StatusInternalServerError)
			return
		}
	}

	span.SetAttributes(
		attribute.Int("campaign_id", campaign.ID),
		attribute.Int("banners", len(banners)),
		attribute.Float64("amount", quote.Amount),
	)
	logger.Info("campaign created",
		zap.Int("campaign_id", campaign.ID),
		zap.Int("owner_id", req.OwnerID),
		zap.Int("banners", len(banners)),
		zap.Float64("amount", quote.Amount))

	s.Metrics.IncrementRequests(endpoint, method, "201")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusCreated, campaignResponse{Campaign: campaign, Banners: banners, Quote: &quote})
}

// QuoteHandler handles GET /campaigns/quote: price a prospective campaign
// before anything is persisted.
func (s *Server) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "QuoteHandler")
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "quote"
	const method = "GET"

	slotTypes, err := strconv.Atoi(r.URL.Query().Get("slot_types"))
	if err != nil || slotTypes <= 0 {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "slot_types required", http.StatusBadRequest)
		return
	}

	activeViewers, err := s.Store.CountActiveViewers(ctx)
	if err != nil {
		logger.Error("count active viewers", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "pricing failed", http.StatusInternalServerError)
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, logic.PriceQuote(slotTypes, activeViewers, s.Config.BasicAdAmount))
}

// UpdateCampaignHandler handles PUT /campaigns/{id}. Edits reprice the
// campaign against what was already paid: a covered edit keeps the campaign
// active, an uncovered one drops it back to pending until the difference is
// paid.
func (s *Server) UpdateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "UpdateCampaignHandler")
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "campaigns"
	const method = "PUT"

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req createCampaignRequest
	if err := dec.Decode(&req); err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := s.Store.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.Metrics.IncrementRequests(endpoint, method, "404")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		logger.Error("get campaign", zap.Error(err), zap.Int("campaign_id", id))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign lookup failed", http.StatusInternalServerError)
		return
	}
	if campaign.Terminal() {
		s.Metrics.IncrementRequests(endpoint, method, "409")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "expired campaigns cannot be edited", http.StatusConflict)
		return
	}

	now := time.Now()
	var added []models.Banner
	for _, br := range req.Banners {
		b := br.toBanner(campaign.Category)
		if err := logic.ValidateBanner(&b, now, s.Config.MinImpressionsLimit); err != nil {
			s.Metrics.IncrementRequests(endpoint, method, "422")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		added = append(added, b)
	}

	existing, err := s.Store.ListCampaignBanners(ctx, id)
	if err != nil {
		logger.Error("list campaign banners", zap.Error(err), zap.Int("campaign_id", id))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign lookup failed", http.StatusInternalServerError)
		return
	}

	activeViewers, err := s.Store.CountActiveViewers(ctx)
	if err != nil {
		logger.Error("count active viewers", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "pricing failed", http.StatusInternalServerError)
		return
	}

	all := append(append([]models.Banner{}, existing...), added...)
	edit := logic.RepriceCampaign(campaign, distinctSlotTypes(all), activeViewers, s.Config.BasicAdAmount)

	if req.Name != "" {
		campaign.Name = req.Name
	}
	campaign.PreviousAmount = edit.PreviousAmount
	campaign.Amount = edit.Amount
	campaign.RemainingAmount = edit.RemainingAmount
	campaign.IsPaid = edit.IsPaid
	if campaign.Status != models.StatusDraft {
		campaign.Status = logic.StatusAfterEdit(edit.RemainingAmount)
	}

	if err := s.Store.UpdateCampaign(ctx, campaign); err != nil {
		span.RecordError(err)
		logger.Error("update campaign", zap.Error(err), zap.Int("campaign_id", id))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign not updated", http.StatusInternalServerError)
		return
	}

	for i := range added {
		added[i].CampaignID = campaign.ID
		added[i].Status = campaign.Status
		if added[i].IsTarget() && added[i].ImpressionsLimit == 0 {
			added[i].ImpressionsLimit = edit.ImpressionsLimit
		}
		if err := s.Store.InsertBanner(ctx, &added[i]); err != nil {
			logger.Error("insert banner", zap.Error(err), zap.Int("campaign_id", campaign.ID))
			s.Metrics.IncrementRequests(endpoint, method, "500")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "banner not created", http.StatusInternalServerError)
			return
		}
	}

	logger.Info("campaign updated",
		zap.Int("campaign_id", campaign.ID),
		zap.Float64("amount", edit.Amount),
		zap.Float64("remaining", edit.RemainingAmount),
		zap.String("status", campaign.Status))

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, campaignResponse{Campaign: campaign, Banners: added, Edit: &edit})
}

type paymentRequest struct {
	TransactionID string `json:"transactionId"`
}

// PaymentHandler handles POST /campaigns/{id}/payment: payment confirmation
// settles the balance and moves the campaign and its banners to active,
// where they wait for admin approval.
func (s *Server) PaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "PaymentHandler")
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "payment"
	const method = "POST"

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "transactionId required", http.StatusBadRequest)
		return
	}

	if err := s.Store.MarkCampaignPaid(ctx, id, req.TransactionID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.Metrics.IncrementRequests(endpoint, method, "404")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark paid")
		logger.Error("mark campaign paid", zap.Error(err), zap.Int("campaign_id", id))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "payment not recorded", http.StatusInternalServerError)
		return
	}

	campaign, err := s.Store.GetCampaign(ctx, id)
	if err != nil {
		logger.Error("get campaign after payment", zap.Error(err), zap.Int("campaign_id", id))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign lookup failed", http.StatusInternalServerError)
		return
	}

	logger.Info("campaign payment confirmed",
		zap.Int("campaign_id", id),
		zap.String("transaction_id", req.TransactionID))

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, campaignResponse{Campaign: campaign})
}
