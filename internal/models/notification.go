package models

import "time"

// Notification is a persisted message to a campaign owner about a status
// transition on one of their banners (approved, suspended, rejected).
type Notification struct {
	ID         int       `json:"id"`
	CampaignID int       `json:"campaign_id"`
	BannerName string    `json:"banner_name"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
