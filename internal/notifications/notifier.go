package notifications

import (
	"context"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"

	"go.uber.org/zap"
)

// Notifier delivers campaign status notifications to advertisers. Delivery
// transports (email, mobile push) are external collaborators behind this
// interface; the engine only decides when to notify and whom.
type Notifier interface {
	// NotifyStatus tells the campaign owner about a status transition.
	NotifyStatus(ctx context.Context, c *models.Campaign, status, message string)
	// PushFanOut broadcasts a campaign approval to every registered
	// device, announcing the new campaign to the whole audience.
	PushFanOut(ctx context.Context, c *models.Campaign)
}

// LogNotifier is the default transport: it resolves the recipient devices
// from the store and logs the outbound messages. Production deployments
// swap in a real email/push gateway.
type LogNotifier struct {
	store  models.BannerStore
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(store models.BannerStore, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{store: store, logger: logger}
}

func (n *LogNotifier) NotifyStatus(ctx context.Context, c *models.Campaign, status, message string) {
	n.logger.Info("campaign status notification",
		zap.Int("campaign_id", c.ID),
		zap.Int("owner_id", c.OwnerID),
		zap.String("status", status),
		zap.String("message", message))
}

func (n *LogNotifier) PushFanOut(ctx context.Context, c *models.Campaign) {
	tokens, err := n.store.ListAllDeviceTokens(ctx)
	if err != nil {
		n.logger.Error("list device tokens", zap.Error(err), zap.Int("campaign_id", c.ID))
		return
	}
	n.logger.Info("campaign approval push fan-out",
		zap.Int("campaign_id", c.ID),
		zap.Int("owner_id", c.OwnerID),
		zap.Int("devices", len(tokens)))
}
