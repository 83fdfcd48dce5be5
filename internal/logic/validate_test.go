package logic

import (
	"errors"
	"testing"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func validTargetBanner() models.Banner {
	return models.Banner{
		Name:      "rack creative",
		SlotType:  "rack",
		BannerURL: "https://cdn.example.com/b.png",
		Category:  models.CategoryTarget,
	}
}

func validAwarenessBanner(now time.Time) models.Banner {
	limit := now.AddDate(0, 1, 0)
	b := validTargetBanner()
	b.Category = models.CategoryAwareness
	b.TimeLimit = &limit
	return b
}

func TestValidateBanner(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 30)

	testCases := []struct {
		name      string
		mutate    func(b *models.Banner)
		wantField string
	}{
		{"valid target", func(b *models.Banner) {}, ""},
		{"missing name", func(b *models.Banner) { b.Name = "" }, "name"},
		{"missing url", func(b *models.Banner) { b.BannerURL = "" }, "bannerUrl"},
		{"unknown slot type", func(b *models.Banner) { b.SlotType = "ceiling" }, "slotType"},
		{"unknown category", func(b *models.Banner) { b.Category = "premium" }, "category"},
		{"negative age", func(b *models.Banner) { b.FromAge = intPtr(-1) }, "fromAge"},
		{"inverted ages", func(b *models.Banner) { b.FromAge, b.ToAge = intPtr(40), intPtr(20) }, "fromAge"},
		{"hour out of range", func(b *models.Banner) { b.ToHour = intPtr(24) }, "toHour"},
		{"inverted hours", func(b *models.Banner) { b.FromHour, b.ToHour = intPtr(20), intPtr(8) }, "fromHour"},
		{"quota below floor", func(b *models.Banner) { b.ImpressionsLimit = 50 }, "impressionsLimit"},
		{"quota at floor", func(b *models.Banner) { b.ImpressionsLimit = 200 }, ""},
		{"zero quota is unset", func(b *models.Banner) { b.ImpressionsLimit = 0 }, ""},
		{"time limit in the past", func(b *models.Banner) {
			b.Category = models.CategoryAwareness
			b.TimeLimit = &past
		}, "timeLimit"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := validTargetBanner()
			tc.mutate(&b)
			checkValidation(t, ValidateBanner(&b, now, 200), tc.wantField)
		})
	}

	awarenessCases := []struct {
		name      string
		mutate    func(b *models.Banner)
		wantField string
	}{
		{"time limit alone is valid", func(b *models.Banner) {}, ""},
		{"life event alone is valid", func(b *models.Banner) {
			b.TimeLimit = nil
			b.LifeEvent = LifeEventRamadan
		}, ""},
		{"both triggers", func(b *models.Banner) { b.LifeEvent = LifeEventRamadan }, "lifeEvent"},
		{"neither trigger", func(b *models.Banner) { b.TimeLimit = nil }, "lifeEvent"},
		{"zero frequency cap", func(b *models.Banner) { b.FrequencyCap = intPtr(0) }, "frequencyCap"},
		{"share of voice over 100", func(b *models.Banner) { b.ShareOfVoice = intPtr(120) }, "shareOfVoice"},
		{"reach percentage zero", func(b *models.Banner) { b.ReachNumber = intPtr(0) }, "reachNumber"},
		{"full awareness config", func(b *models.Banner) {
			b.FrequencyCap = intPtr(3)
			b.ShareOfVoice = intPtr(50)
			b.ReachNumber = intPtr(60)
			b.ReachGender = []string{models.GenderFemale}
			b.ImpressionsLimit = 1000
			b.TimeLimit = &future
		}, ""},
	}

	for _, tc := range awarenessCases {
		t.Run("awareness "+tc.name, func(t *testing.T) {
			b := validAwarenessBanner(now)
			tc.mutate(&b)
			checkValidation(t, ValidateBanner(&b, now, 200), tc.wantField)
		})
	}
}

func checkValidation(t *testing.T, err error, wantField string) {
	t.Helper()
	if wantField == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError on %q", err, wantField)
	}
	if ve.Field != wantField {
		t.Errorf("error field = %q, want %q", ve.Field, wantField)
	}
}
