package logic

import (
	"testing"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func TestImpressionQuota(t *testing.T) {
	testCases := []struct {
		activeViewers int
		expected      int
	}{
		{0, MinImpressionsLimit},
		{1, MinImpressionsLimit},
		{2, MinImpressionsLimit},
		{3, 300},
		{50, 5000},
	}
	for _, tc := range testCases {
		if got := ImpressionQuota(tc.activeViewers); got != tc.expected {
			t.Errorf("ImpressionQuota(%d) = %d, want %d", tc.activeViewers, got, tc.expected)
		}
	}
}

func TestPriceQuote(t *testing.T) {
	q := PriceQuote(1, 0, 0)
	if q.ImpressionsLimit != MinImpressionsLimit {
		t.Errorf("limit = %d, want %d", q.ImpressionsLimit, MinImpressionsLimit)
	}
	if q.FieldsAmount != 0 {
		t.Errorf("single slot type must carry no surcharge, got %v", q.FieldsAmount)
	}
	// 200 impressions at the default 15 per thousand.
	if q.Amount != 3.0 {
		t.Errorf("amount = %v, want 3.0", q.Amount)
	}

	q = PriceQuote(3, 10, BasicAdAmount)
	if q.FieldsAmount != 2*SlotFieldSurcharge {
		t.Errorf("fields amount = %v, want %v", q.FieldsAmount, 2*SlotFieldSurcharge)
	}
	want := float64(1000)/1000*BasicAdAmount + 2*SlotFieldSurcharge
	if q.Amount != want {
		t.Errorf("amount = %v, want %v", q.Amount, want)
	}
}

func TestPriceQuoteConfiguredRate(t *testing.T) {
	// The per-thousand rate is a deployment knob, not a constant.
	q := PriceQuote(1, 0, 30)
	if q.Amount != 6.0 {
		t.Errorf("amount at 30 per thousand = %v, want 6.0", q.Amount)
	}
	eq := RepriceCampaign(&models.Campaign{Amount: 2}, 1, 0, 30)
	if eq.RemainingAmount != 4.0 {
		t.Errorf("remaining at 30 per thousand = %v, want 4.0", eq.RemainingAmount)
	}
}

func TestRepriceCampaign(t *testing.T) {
	c := &models.Campaign{Amount: 10}

	eq := RepriceCampaign(c, 3, 10, BasicAdAmount) // new price 25
	if eq.PreviousAmount != 10 {
		t.Errorf("previous = %v, want 10", eq.PreviousAmount)
	}
	if eq.RemainingAmount != 15 {
		t.Errorf("remaining = %v, want 15", eq.RemainingAmount)
	}
	if eq.IsPaid {
		t.Error("outstanding balance must not be marked paid")
	}

	// A large earlier payment covers the cheaper edit; the remainder floors
	// at zero rather than going into credit.
	c.Amount = 100
	eq = RepriceCampaign(c, 1, 0, BasicAdAmount)
	if eq.RemainingAmount != 0 {
		t.Errorf("remaining = %v, want 0", eq.RemainingAmount)
	}
	if !eq.IsPaid {
		t.Error("covered edit must be marked paid")
	}
}

func TestStatusAfterEdit(t *testing.T) {
	if got := StatusAfterEdit(0); got != models.StatusActive {
		t.Errorf("covered edit status = %q, want active", got)
	}
	if got := StatusAfterEdit(12.5); got != models.StatusPending {
		t.Errorf("outstanding edit status = %q, want pending", got)
	}
}
