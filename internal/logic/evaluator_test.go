package logic

import (
	"testing"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

func TestEligibleStatus(t *testing.T) {
	viewer := testViewer()
	for _, status := range []string{"draft", "pending", "active", "suspended", "rejected", "expired"} {
		b := approvedBanner()
		b.Status = status
		if Eligible(&b, viewer) {
			t.Errorf("status %q must never be eligible", status)
		}
	}
	b := approvedBanner()
	if !Eligible(&b, viewer) {
		t.Error("approved banner with no targeting should be eligible for any viewer")
	}
}

func TestEligibleTargeting(t *testing.T) {
	age25 := 25
	from18, to30 := 18, 30
	from40, to60 := 40, 60
	hour9, hour17 := 9, 17
	hour0, hour5 := 0, 5
	cap2 := 2

	testCases := []struct {
		name     string
		mutate   func(b *bannerBuilder)
		expected bool
	}{
		{
			name:     "no targeting matches anyone",
			mutate:   func(b *bannerBuilder) {},
			expected: true,
		},
		{
			name:     "location match is case-insensitive",
			mutate:   func(b *bannerBuilder) { b.b.Locations = []string{"riyadh"} },
			expected: true,
		},
		{
			name:     "location mismatch",
			mutate:   func(b *bannerBuilder) { b.b.Locations = []string{"Jeddah"} },
			expected: false,
		},
		{
			name:     "gender match",
			mutate:   func(b *bannerBuilder) { b.b.Genders = []string{"female"} },
			expected: true,
		},
		{
			name:     "gender mismatch",
			mutate:   func(b *bannerBuilder) { b.b.Genders = []string{"male"} },
			expected: false,
		},
		{
			name:     "age range is inclusive at both bounds",
			mutate:   func(b *bannerBuilder) { b.b.FromAge, b.b.ToAge = &age25, &age25 },
			expected: true,
		},
		{
			name:     "age inside range",
			mutate:   func(b *bannerBuilder) { b.b.FromAge, b.b.ToAge = &from18, &to30 },
			expected: true,
		},
		{
			name:     "age outside range",
			mutate:   func(b *bannerBuilder) { b.b.FromAge, b.b.ToAge = &from40, &to60 },
			expected: false,
		},
		{
			name:     "product category match",
			mutate:   func(b *bannerBuilder) { b.b.ProductCategory = "beverages" },
			expected: true,
		},
		{
			name:     "product category mismatch",
			mutate:   func(b *bannerBuilder) { b.b.ProductCategory = "frozen" },
			expected: false,
		},
		{
			name:     "hour inside window",
			mutate:   func(b *bannerBuilder) { b.b.FromHour, b.b.ToHour = &hour9, &hour17 },
			expected: true,
		},
		{
			name:     "hour outside window",
			mutate:   func(b *bannerBuilder) { b.b.FromHour, b.b.ToHour = &hour0, &hour5 },
			expected: false,
		},
		{
			name:     "day match is case-insensitive",
			mutate:   func(b *bannerBuilder) { b.b.DaysOfWeek = []string{"friday"} },
			expected: true,
		},
		{
			name:     "day mismatch",
			mutate:   func(b *bannerBuilder) { b.b.DaysOfWeek = []string{"Monday", "Tuesday"} },
			expected: false,
		},
		{
			name: "target os: banner value contains viewer os",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "target"
				b.b.OS = "Android and iOS"
			},
			expected: true,
		},
		{
			name: "target os mismatch",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "target"
				b.b.OS = "windows"
			},
			expected: false,
		},
		{
			name: "target device match",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "target"
				b.b.Device = "Mobile"
			},
			expected: true,
		},
		{
			name: "target os set but viewer os unresolved",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "target"
				b.b.OS = "android"
				b.viewerOS = ""
			},
			expected: false,
		},
		{
			name: "awareness frequency cap not reached",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "awareness"
				b.b.FrequencyCap = &cap2
				b.frequency = 1
			},
			expected: true,
		},
		{
			name: "awareness frequency cap reached",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "awareness"
				b.b.FrequencyCap = &cap2
				b.frequency = 2
			},
			expected: false,
		},
		{
			name: "awareness unknown life event never matches",
			mutate: func(b *bannerBuilder) {
				b.b.Category = "awareness"
				b.b.LifeEvent = "International Sandwich Day"
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			builder := &bannerBuilder{b: approvedBanner(), viewerOS: "android"}
			tc.mutate(builder)

			viewer := testViewer()
			viewer.OS = builder.viewerOS
			if builder.frequency > 0 {
				viewer.Frequencies = map[int]int{builder.b.ID: builder.frequency}
			}
			if got := Eligible(&builder.b, viewer); got != tc.expected {
				t.Errorf("Eligible() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestEligibleVacuousPasses(t *testing.T) {
	// A viewer with no profile data still matches banners whose predicates
	// depend on that data being present.
	viewer := testViewer()
	viewer.Age = nil
	viewer.PurchasedCategories = nil

	from, to := 18, 30
	b := approvedBanner()
	b.FromAge, b.ToAge = &from, &to
	b.ProductCategory = "frozen"
	if !Eligible(&b, viewer) {
		t.Error("age and purchase predicates must pass vacuously for an empty profile")
	}

	// An unresolved location, by contrast, makes location targeting fail.
	viewer.Location = ""
	b2 := approvedBanner()
	b2.Locations = []string{"Riyadh"}
	if Eligible(&b2, viewer) {
		t.Error("location targeting must fail when the viewer location is unknown")
	}
}

func TestEligibleBanners(t *testing.T) {
	viewer := testViewer()
	ok := approvedBanner()
	ok.ID = 1
	draft := approvedBanner()
	draft.ID = 2
	draft.Status = "draft"
	wrongGender := approvedBanner()
	wrongGender.ID = 3
	wrongGender.Genders = []string{"male"}

	got := EligibleBanners([]models.Banner{ok, draft, wrongGender}, viewer)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("EligibleBanners returned %d banners, want exactly banner 1", len(got))
	}
	if EligibleBanners(nil, viewer) != nil {
		t.Error("no candidates should yield nil")
	}
}

// bannerBuilder carries the per-case knobs the table mutates.
type bannerBuilder struct {
	b         models.Banner
	viewerOS  string
	frequency int
}

func testViewer() *models.ViewerContext {
	age := 25
	return &models.ViewerContext{
		ViewerID:            7,
		Location:            "Riyadh",
		Gender:              "female",
		Age:                 &age,
		PurchasedCategories: []string{"beverages", "dairy"},
		OS:                  "android",
		Device:              "mobile",
		Hour:                12,
		Day:                 "Friday",
		Date:                time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC),
	}
}

func approvedBanner() models.Banner {
	return models.Banner{
		ID:        1,
		Name:      "banner",
		SlotType:  "rack",
		BannerURL: "https://cdn.example.com/b.png",
		Category:  "target",
		Status:    "approved",
	}
}
