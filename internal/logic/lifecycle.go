package logic

import (
	"context"
	"fmt"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/notifications"

	"go.uber.org/zap"
)

// adminStatuses are the statuses an admin action may set. Expiry is reserved
// for the sweeper.
var adminStatuses = map[string]bool{
	models.StatusApproved:  true,
	models.StatusSuspended: true,
	models.StatusRejected:  true,
	models.StatusPending:   true,
	models.StatusActive:    true,
}

// CanTransition reports whether a campaign may move from one status to
// another. Draft leaves only through submission; approval requires a
// submitted campaign; suspension and rejection apply to any non-terminal
// status; expiry is never reachable through this table.
func CanTransition(from, to string) bool {
	if from == models.StatusExpired {
		return false
	}
	switch to {
	case models.StatusPending, models.StatusActive:
		return from == models.StatusDraft || from == models.StatusSuspended ||
			from == models.StatusPending || from == models.StatusActive
	case models.StatusApproved:
		return from == models.StatusPending || from == models.StatusActive
	case models.StatusSuspended, models.StatusRejected:
		return true
	default:
		return false
	}
}

// Lifecycle applies admin-driven status transitions to campaigns and their
// banners, persisting a notification for the owner and fanning out a push
// notification on approval.
type Lifecycle struct {
	store    models.BannerStore
	notifier notifications.Notifier
	logger   *zap.Logger
}

// NewLifecycle wires the state machine. notifier may be nil to disable the
// side effects (tests).
func NewLifecycle(store models.BannerStore, notifier notifications.Notifier, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{store: store, notifier: notifier, logger: logger}
}

// SetCampaignStatus moves a campaign and all of its banners to the given
// status on behalf of an admin. message is included in the owner's
// notification for suspensions and rejections.
func (l *Lifecycle) SetCampaignStatus(ctx context.Context, campaignID int, status, message string, senderID int) (*models.Campaign, error) {
	if !adminStatuses[status] {
		return nil, Validationf("status", "%q is not an assignable status", status)
	}
	c, err := l.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign %d: %w", campaignID, err)
	}
	if !CanTransition(c.Status, status) {
		return nil, Validationf("status", "cannot move campaign from %s to %s", c.Status, status)
	}

	if err := l.store.SetCampaignBannersStatus(ctx, campaignID, status); err != nil {
		return nil, fmt.Errorf("update banners: %w", err)
	}
	if err := l.store.SetCampaignStatus(ctx, campaignID, status); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	c.Status = status
	l.logger.Info("campaign status changed",
		zap.Int("campaign_id", campaignID),
		zap.String("status", status),
		zap.Int("admin_id", senderID))

	switch status {
	case models.StatusApproved, models.StatusSuspended, models.StatusRejected:
		n := &models.Notification{
			CampaignID: c.ID,
			BannerName: c.Name,
			Status:     status,
			Message:    message,
			SenderID:   senderID,
			ReceiverID: c.OwnerID,
		}
		if err := l.store.InsertNotification(ctx, n); err != nil {
			// The transition already committed; the missing notification
			// is logged, not rolled back.
			l.logger.Error("insert notification", zap.Error(err), zap.Int("campaign_id", c.ID))
		}
		if l.notifier != nil {
			l.notifier.NotifyStatus(ctx, c, status, message)
			if status == models.StatusApproved {
				l.notifier.PushFanOut(ctx, c)
			}
		}
	}
	return c, nil
}
