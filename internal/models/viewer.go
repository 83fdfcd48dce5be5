package models

import "time"

// ViewerContext is everything the eligibility evaluator knows about the
// shopper making a slot-fill request. Location, OS and device are resolved
// once per request (GeoIP + user agent); purchase categories and per-banner
// frequencies are prefetched in bulk by the slot filler.
type ViewerContext struct {
	ViewerID int    `json:"viewer_id"`
	Location string `json:"location,omitempty"`
	Gender   string `json:"gender,omitempty"`
	// Age is nil when the viewer's profile has no birth date; age
	// predicates then pass vacuously.
	Age *int `json:"age,omitempty"`
	// PurchasedCategories is the distinct set of product categories the
	// viewer has ordered before. An empty set disables product-category
	// targeting for this request.
	PurchasedCategories []string `json:"purchased_categories,omitempty"`
	OS                  string   `json:"os,omitempty"`
	Device              string   `json:"device,omitempty"`

	// Time context, captured once at the start of the request.
	Hour int       `json:"hour"`
	Day  string    `json:"day"` // weekday name, e.g. "Friday"
	Date time.Time `json:"date"`

	// Frequencies maps banner id to this viewer's prior impression count,
	// used by the awareness frequency-cap predicate.
	Frequencies map[int]int `json:"-"`
}

// FrequencyFor returns the viewer's prior impression count for a banner.
func (v *ViewerContext) FrequencyFor(bannerID int) int {
	if v.Frequencies == nil {
		return 0
	}
	return v.Frequencies[bannerID]
}

// PurchasedCategory reports whether the viewer has previously bought from
// the given product category.
func (v *ViewerContext) PurchasedCategory(category string) bool {
	for _, c := range v.PurchasedCategories {
		if c == category {
			return true
		}
	}
	return false
}
