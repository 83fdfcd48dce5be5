// Package reporting assembles campaign delivery reports. Authoritative
// impression counts come from the relational store; the ClickHouse event
// stream contributes the day-by-day breakdown.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// BannerMetrics is the delivery breakdown for one banner in a campaign.
type BannerMetrics struct {
	BannerID    int     `json:"banner_id"`
	Name        string  `json:"name"`
	SlotType    string  `json:"slot_type"`
	Status      string  `json:"status"`
	Impressions int     `json:"impressions"`
	Male        int     `json:"male"`
	Female      int     `json:"female"`
	MalePct     float64 `json:"male_pct"`   // share of impressions from male viewers (0-100)
	FemalePct   float64 `json:"female_pct"` // share of impressions from female viewers (0-100)
}

// CampaignSummary contains a campaign's lifecycle state, delivery totals,
// per-banner breakdowns and a daily delivery series.
type CampaignSummary struct {
	CampaignID  int                    `json:"campaign_id"`
	Name        string                 `json:"name"`
	Category    string                 `json:"category"`
	Status      string                 `json:"status"`
	Amount      float64                `json:"amount"`
	IsPaid      bool                   `json:"is_paid"`
	Impressions int                    `json:"impressions"`
	Male        int                    `json:"male"`
	Female      int                    `json:"female"`
	Banners     []BannerMetrics        `json:"banners"`
	Daily       []analytics.DailyTotal `json:"daily,omitempty"`
}

// GenerateCampaignReport builds a CampaignSummary for one campaign covering
// the last `days` days of event history. The daily series is best-effort:
// when the analytics store is unavailable the report still carries the
// authoritative totals and the Daily field stays empty.
func GenerateCampaignReport(ctx context.Context, store models.BannerStore, an analytics.Service, campaignID, days int) (*CampaignSummary, error) {
	c, err := store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get campaign %d: %w", campaignID, err)
	}

	summary := &CampaignSummary{
		CampaignID: c.ID,
		Name:       c.Name,
		Category:   c.Category,
		Status:     c.Status,
		Amount:     c.Amount,
		IsPaid:     c.IsPaid,
	}

	banners, err := store.ListCampaignBanners(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign banners: %w", err)
	}
	for _, b := range banners {
		agg, err := store.AggregateImpressions(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("aggregate impressions for banner %d: %w", b.ID, err)
		}
		bm := BannerMetrics{
			BannerID:    b.ID,
			Name:        b.Name,
			SlotType:    b.SlotType,
			Status:      b.Status,
			Impressions: agg.Total,
			Male:        agg.Male,
			Female:      agg.Female,
		}
		if agg.Total > 0 {
			bm.MalePct = float64(agg.Male) / float64(agg.Total) * 100
			bm.FemalePct = float64(agg.Female) / float64(agg.Total) * 100
		}
		summary.Banners = append(summary.Banners, bm)
		summary.Impressions += agg.Total
		summary.Male += agg.Male
		summary.Female += agg.Female
	}

	if an != nil {
		since := time.Now().AddDate(0, 0, -days)
		daily, err := an.CampaignDailyTotals(ctx, campaignID, since)
		if err != nil && !errors.Is(err, analytics.ErrUnavailable) {
			return nil, fmt.Errorf("daily totals: %w", err)
		}
		summary.Daily = daily
	}

	return summary, nil
}
