package models

import "time"

// Viewer genders as bucketed on impression records. Any value other than
// male/female is recorded as unknown.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// Impression is one immutable delivery event: a viewer saw (or tapped) a
// banner. The running sums over these records are the sole source of truth
// for frequency caps, share of voice, and reach; there is no denormalized
// counter, so every expiry check re-aggregates.
type Impression struct {
	ID         int    `json:"id"`
	BannerID   int    `json:"banner_id"`
	CampaignID int    `json:"campaign_id"`
	ViewerID   int    `json:"viewer_id"`
	// Impressions is always 1 on insert; Male and Female bucket the
	// viewer's gender so reach can be aggregated with plain SUMs.
	Impressions int    `json:"impressions"`
	Male        int    `json:"male"`
	Female      int    `json:"female"`
	OS          string `json:"os,omitempty"`
	Device      string `json:"device,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NewImpression builds a single impression record with the viewer's gender
// bucketed into exactly one of the male/female/unknown columns.
func NewImpression(bannerID, campaignID, viewerID int, gender, os, device string) *Impression {
	imp := &Impression{
		BannerID:    bannerID,
		CampaignID:  campaignID,
		ViewerID:    viewerID,
		Impressions: 1,
		OS:          os,
		Device:      device,
	}
	switch gender {
	case GenderMale:
		imp.Male = 1
	case GenderFemale:
		imp.Female = 1
	}
	return imp
}

// ImpressionAggregate is the re-aggregated usage of one banner (or one
// campaign): total impressions plus the gender breakdown.
type ImpressionAggregate struct {
	Total  int `json:"total"`
	Male   int `json:"male"`
	Female int `json:"female"`
}
