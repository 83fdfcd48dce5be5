package logic

import (
	"strings"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// Eligible reports whether a single banner may be shown to the viewer right
// now. Every predicate passes vacuously when its banner field is unset, so a
// banner with no targeting at all is eligible for any viewer — provided it is
// approved.
func Eligible(b *models.Banner, v *models.ViewerContext) bool {
	if b.Status != models.StatusApproved {
		return false
	}
	if !matchesLocation(b, v) {
		return false
	}
	if !matchesGender(b, v) {
		return false
	}
	if !matchesAge(b, v) {
		return false
	}
	if !matchesProductCategory(b, v) {
		return false
	}
	if !matchesHour(b, v) {
		return false
	}
	if !matchesDay(b, v) {
		return false
	}
	if b.IsTarget() {
		return matchesPlatform(b, v)
	}
	if b.IsAwareness() {
		return matchesFrequencyCap(b, v) && matchesLifeEvent(b, v)
	}
	return true
}

// EligibleBanners filters a slot's candidates in a single pass.
func EligibleBanners(banners []models.Banner, v *models.ViewerContext) []models.Banner {
	if len(banners) == 0 {
		return nil
	}
	eligible := make([]models.Banner, 0, len(banners))
	for i := range banners {
		if Eligible(&banners[i], v) {
			eligible = append(eligible, banners[i])
		}
	}
	return eligible
}

func matchesLocation(b *models.Banner, v *models.ViewerContext) bool {
	if len(b.Locations) == 0 {
		return true
	}
	if v.Location == "" {
		return false
	}
	for _, loc := range b.Locations {
		if strings.EqualFold(loc, v.Location) {
			return true
		}
	}
	return false
}

func matchesGender(b *models.Banner, v *models.ViewerContext) bool {
	if len(b.Genders) == 0 {
		return true
	}
	for _, g := range b.Genders {
		if g == v.Gender {
			return true
		}
	}
	return false
}

func matchesAge(b *models.Banner, v *models.ViewerContext) bool {
	if b.FromAge == nil || b.ToAge == nil || v.Age == nil {
		return true
	}
	return *b.FromAge <= *v.Age && *v.Age <= *b.ToAge
}

// matchesProductCategory skips the check entirely for viewers with no
// purchase history, so new shoppers still see category-targeted banners.
func matchesProductCategory(b *models.Banner, v *models.ViewerContext) bool {
	if b.ProductCategory == "" || len(v.PurchasedCategories) == 0 {
		return true
	}
	return v.PurchasedCategory(b.ProductCategory)
}

func matchesHour(b *models.Banner, v *models.ViewerContext) bool {
	if b.FromHour == nil || b.ToHour == nil {
		return true
	}
	return *b.FromHour <= v.Hour && v.Hour <= *b.ToHour
}

func matchesDay(b *models.Banner, v *models.ViewerContext) bool {
	if len(b.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range b.DaysOfWeek {
		if strings.EqualFold(d, v.Day) {
			return true
		}
	}
	return false
}

// matchesPlatform applies the target-category OS/device match: the banner
// field must contain the viewer's value, case-insensitively, so a banner
// targeting "Android" matches a viewer reporting "android 14".
func matchesPlatform(b *models.Banner, v *models.ViewerContext) bool {
	if b.OS != "" {
		if v.OS == "" || !strings.Contains(strings.ToLower(b.OS), strings.ToLower(v.OS)) {
			return false
		}
	}
	if b.Device != "" {
		if v.Device == "" || !strings.Contains(strings.ToLower(b.Device), strings.ToLower(v.Device)) {
			return false
		}
	}
	return true
}

// matchesFrequencyCap disqualifies the banner once the viewer has already
// received the capped number of impressions for it.
func matchesFrequencyCap(b *models.Banner, v *models.ViewerContext) bool {
	if b.FrequencyCap == nil {
		return true
	}
	return v.FrequencyFor(b.ID) < *b.FrequencyCap
}

func matchesLifeEvent(b *models.Banner, v *models.ViewerContext) bool {
	if b.LifeEvent == "" {
		return true
	}
	return LifeEventActive(b.LifeEvent, v.Date)
}
