package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// Memory is an in-memory models.BannerStore used by tests and by dev mode
// when no Postgres DSN is configured. A single mutex covers every operation,
// which also gives RecordImpression the same insert+aggregate+expire
// atomicity the Postgres implementation gets from a transaction.
type Memory struct {
	mu sync.Mutex

	slots         []models.BannerSlot
	banners       map[int]*models.Banner
	campaigns     map[int]*models.Campaign
	impressions   []models.Impression
	genders       map[int]string
	purchases     map[int][]string
	deviceTokens  map[int][]string
	notifications []models.Notification
	activeViewers int

	nextBannerID     int
	nextCampaignID   int
	nextImpressionID int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		banners:      make(map[int]*models.Banner),
		campaigns:    make(map[int]*models.Campaign),
		genders:      make(map[int]string),
		purchases:    make(map[int][]string),
		deviceTokens: make(map[int][]string),
	}
}

// Seed helpers, used by tests and the fake data tool.

// AddSlot registers a banner slot.
func (m *Memory) AddSlot(s models.BannerSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = append(m.slots, s)
}

// AddViewer registers a viewer with a gender attribute (empty for unset).
func (m *Memory) AddViewer(id int, gender string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genders[id] = gender
}

// AddPurchase records a past purchase category for a viewer.
func (m *Memory) AddPurchase(viewerID int, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[viewerID] = append(m.purchases[viewerID], category)
}

// AddDeviceToken registers a push token for a viewer.
func (m *Memory) AddDeviceToken(viewerID int, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceTokens[viewerID] = append(m.deviceTokens[viewerID], token)
}

// SetActiveViewers pins the active audience count used by pricing.
func (m *Memory) SetActiveViewers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeViewers = n
}

// Notifications returns a copy of the persisted notifications.
func (m *Memory) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// BannerStore implementation.

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) ListBannerSlots(ctx context.Context) ([]models.BannerSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.BannerSlot, len(m.slots))
	copy(out, m.slots)
	return out, nil
}

func (m *Memory) GetBannersForPlacement(ctx context.Context, placement string) ([]models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var slotType string
	for _, s := range m.slots {
		if s.Name == placement {
			slotType = s.Type
			break
		}
	}
	var out []models.Banner
	for _, b := range m.banners {
		if b.SlotType == slotType {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *Memory) GetViewerFrequencies(ctx context.Context, viewerID int) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	freqs := make(map[int]int)
	for _, imp := range m.impressions {
		if imp.ViewerID == viewerID {
			freqs[imp.BannerID] += imp.Impressions
		}
	}
	return freqs, nil
}

func (m *Memory) GetPriorImpressionCount(ctx context.Context, bannerID, viewerID int) (int, error) {
	freqs, _ := m.GetViewerFrequencies(ctx, viewerID)
	return freqs[bannerID], nil
}

func (m *Memory) GetPurchasedCategories(ctx context.Context, viewerID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, c := range m.purchases[viewerID] {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) GetViewerGender(ctx context.Context, viewerID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.genders[viewerID]
	if !ok || g == "" {
		return "", models.ErrNotFound
	}
	return g, nil
}

func (m *Memory) InsertImpression(ctx context.Context, imp *models.Impression) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertImpressionLocked(imp), nil
}

func (m *Memory) insertImpressionLocked(imp *models.Impression) int {
	m.nextImpressionID++
	imp.ID = m.nextImpressionID
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now()
	}
	m.impressions = append(m.impressions, *imp)
	return imp.ID
}

func (m *Memory) aggregateLocked(bannerID int) models.ImpressionAggregate {
	var agg models.ImpressionAggregate
	for _, imp := range m.impressions {
		if imp.BannerID == bannerID {
			agg.Total += imp.Impressions
			agg.Male += imp.Male
			agg.Female += imp.Female
		}
	}
	return agg
}

func (m *Memory) RecordImpression(ctx context.Context, imp *models.Impression, decide models.ExpireDecision) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banners[imp.BannerID]
	if !ok {
		return false, models.ErrNotFound
	}
	m.insertImpressionLocked(imp)
	agg := m.aggregateLocked(imp.BannerID)

	if decide == nil || b.Status == models.StatusExpired || !decide(b, agg) {
		return false, nil
	}
	b.Status = models.StatusExpired
	allExpired := true
	for _, sibling := range m.banners {
		if sibling.CampaignID == b.CampaignID && sibling.Status != models.StatusExpired {
			allExpired = false
			break
		}
	}
	if allExpired {
		if c, ok := m.campaigns[b.CampaignID]; ok {
			c.Status = models.StatusExpired
		}
	}
	return true, nil
}

func (m *Memory) AggregateImpressions(ctx context.Context, bannerID int) (models.ImpressionAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aggregateLocked(bannerID), nil
}

func (m *Memory) AggregateCampaignImpressions(ctx context.Context, campaignID int) (models.ImpressionAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var agg models.ImpressionAggregate
	for _, imp := range m.impressions {
		if imp.CampaignID == campaignID {
			agg.Total += imp.Impressions
			agg.Male += imp.Male
			agg.Female += imp.Female
		}
	}
	return agg, nil
}

func (m *Memory) GetBanner(ctx context.Context, id int) (*models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banners[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *Memory) GetCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *Memory) ListCampaigns(ctx context.Context, status string) ([]models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Campaign
	for _, c := range m.campaigns {
		if status == "" || c.Status == status {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListCampaignBanners(ctx context.Context, campaignID int) ([]models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Banner
	for _, b := range m.banners {
		if b.CampaignID == campaignID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *Memory) SetBannerStatus(ctx context.Context, bannerID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banners[bannerID]
	if !ok {
		return models.ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *Memory) SetCampaignStatus(ctx context.Context, campaignID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return models.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *Memory) SetCampaignBannersStatus(ctx context.Context, campaignID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.banners {
		if b.CampaignID == campaignID {
			b.Status = status
		}
	}
	return nil
}

func (m *Memory) ListNonExpiredAwarenessBannersPastTimeLimit(ctx context.Context, now time.Time) ([]models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Banner
	for _, b := range m.banners {
		if b.Status != models.StatusExpired && b.Category == models.CategoryAwareness &&
			b.TimeLimit != nil && b.TimeLimit.Before(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *Memory) InsertCampaign(ctx context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCampaignID++
	c.ID = m.nextCampaignID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	copied := *c
	m.campaigns[c.ID] = &copied
	return nil
}

func (m *Memory) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return models.ErrNotFound
	}
	copied := *c
	m.campaigns[c.ID] = &copied
	return nil
}

func (m *Memory) InsertBanner(ctx context.Context, b *models.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBannerID++
	b.ID = m.nextBannerID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	copied := *b
	m.banners[b.ID] = &copied
	return nil
}

func (m *Memory) MarkCampaignPaid(ctx context.Context, campaignID int, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok || c.Status == models.StatusExpired {
		return models.ErrNotFound
	}
	c.IsPaid = true
	c.RemainingAmount = 0
	c.TransactionID = transactionID
	c.Status = models.StatusActive
	for _, b := range m.banners {
		if b.CampaignID == campaignID && b.Status != models.StatusExpired {
			b.IsPaid = true
			b.Status = models.StatusActive
		}
	}
	return nil
}

func (m *Memory) CountActiveViewers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeViewers > 0 {
		return m.activeViewers, nil
	}
	return len(m.genders), nil
}

func (m *Memory) InsertNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = len(m.notifications) + 1
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *Memory) ListDeviceTokens(ctx context.Context, receiverID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deviceTokens[receiverID]))
	copy(out, m.deviceTokens[receiverID])
	return out, nil
}

func (m *Memory) ListAllDeviceTokens(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, tokens := range m.deviceTokens {
		out = append(out, tokens...)
	}
	return out, nil
}
