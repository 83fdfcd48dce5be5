package notifications

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func TestPushFanOutReachesAllDevices(t *testing.T) {
	store := db.NewMemory()
	store.AddDeviceToken(5, "owner-phone")
	store.AddDeviceToken(8, "shopper-phone")
	store.AddDeviceToken(8, "shopper-tablet")

	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(store, zap.New(core))

	n.PushFanOut(context.Background(), &models.Campaign{ID: 3, OwnerID: 5})

	entries := logs.FilterMessage("campaign approval push fan-out").All()
	if len(entries) != 1 {
		t.Fatalf("fan-out log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["devices"]; got != int64(3) {
		t.Errorf("devices = %v, want 3 (every registered device, not just the owner's)", got)
	}
}
