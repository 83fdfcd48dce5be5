package logic

import (
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// ValidateBanner checks a submitted banner before it is persisted. The rules
// reject configurations the evaluator and expiry checks could never satisfy:
// inverted age or hour ranges, time limits already in the past, and awareness
// banners without exactly one trigger (life event or time limit).
func ValidateBanner(b *models.Banner, now time.Time, minImpressions int) error {
	if b.Name == "" {
		return Validationf("name", "banner name is required")
	}
	if b.BannerURL == "" {
		return Validationf("bannerUrl", "banner url is required")
	}
	if !validSlotType(b.SlotType) {
		return Validationf("slotType", "unknown slot type %q", b.SlotType)
	}
	if b.Category != models.CategoryTarget && b.Category != models.CategoryAwareness {
		return Validationf("category", "category must be %q or %q", models.CategoryTarget, models.CategoryAwareness)
	}

	if b.FromAge != nil && *b.FromAge < 0 {
		return Validationf("fromAge", "ages must be non-negative")
	}
	if b.ToAge != nil && *b.ToAge < 0 {
		return Validationf("toAge", "ages must be non-negative")
	}
	if b.FromAge != nil && b.ToAge != nil && *b.FromAge > *b.ToAge {
		return Validationf("fromAge", "fromAge %d exceeds toAge %d", *b.FromAge, *b.ToAge)
	}

	if b.FromHour != nil && (*b.FromHour < 0 || *b.FromHour > 23) {
		return Validationf("fromHour", "hours must be within 0-23")
	}
	if b.ToHour != nil && (*b.ToHour < 0 || *b.ToHour > 23) {
		return Validationf("toHour", "hours must be within 0-23")
	}
	if b.FromHour != nil && b.ToHour != nil && *b.FromHour > *b.ToHour {
		return Validationf("fromHour", "fromHour %d exceeds toHour %d", *b.FromHour, *b.ToHour)
	}

	if b.ImpressionsLimit != 0 && b.ImpressionsLimit < minImpressions {
		return Validationf("impressionsLimit", "impressions limit must be at least %d", minImpressions)
	}
	if b.TimeLimit != nil && !b.TimeLimit.After(now) {
		return Validationf("timeLimit", "time limit must be in the future")
	}

	if b.IsAwareness() {
		hasEvent := b.LifeEvent != ""
		hasLimit := b.TimeLimit != nil
		if hasEvent == hasLimit {
			return Validationf("lifeEvent", "awareness banners need exactly one of lifeEvent or timeLimit")
		}
		if b.FrequencyCap != nil && *b.FrequencyCap <= 0 {
			return Validationf("frequencyCap", "frequency cap must be positive")
		}
		if b.ShareOfVoice != nil && (*b.ShareOfVoice <= 0 || *b.ShareOfVoice > 100) {
			return Validationf("shareOfVoice", "share of voice must be within 1-100")
		}
		if b.ReachNumber != nil && (*b.ReachNumber <= 0 || *b.ReachNumber > 100) {
			return Validationf("reachNumber", "reach percentage must be within 1-100")
		}
	}

	return nil
}

func validSlotType(t string) bool {
	for _, s := range models.SlotTypes {
		if s == t {
			return true
		}
	}
	return false
}
