package logic

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// RandFn returns a random index in [0,n). It is a package-level variable so
// tests can pin the tie-break deterministically.
var RandFn = rand.Intn

// Filler fills every banner slot in the store for one viewer request. It is
// read-only and side-effect-free, so it is safe for unlimited concurrency.
type Filler struct {
	store models.BannerStore
}

// NewFiller creates a slot filler backed by the given store.
func NewFiller(store models.BannerStore) *Filler {
	return &Filler{store: store}
}

// FillSlots resolves one banner per configured slot. The viewer's purchase
// categories and per-banner frequencies are fetched once for the whole
// request, not per banner. Slots with no banners configured are omitted;
// slots whose candidates are all ineligible get the slot's fallback
// thumbnail with banner id 0.
func (f *Filler) FillSlots(ctx context.Context, viewer *models.ViewerContext) (models.FillResponse, error) {
	slots, err := f.store.ListBannerSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list banner slots: %w", err)
	}

	if viewer.PurchasedCategories == nil {
		cats, err := f.store.GetPurchasedCategories(ctx, viewer.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("purchased categories: %w", err)
		}
		viewer.PurchasedCategories = cats
	}
	if viewer.Frequencies == nil {
		freqs, err := f.store.GetViewerFrequencies(ctx, viewer.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("viewer frequencies: %w", err)
		}
		viewer.Frequencies = freqs
	}

	resp := make(models.FillResponse, len(slots))
	for _, slot := range slots {
		fill, err := f.FillSlot(ctx, &slot, viewer)
		if err == ErrNoEligibleBanner {
			continue // no banners configured for this slot
		}
		if err != nil {
			return nil, fmt.Errorf("fill slot %q: %w", slot.Name, err)
		}
		resp[slot.Name] = struct {
			Banner models.SlotFill `json:"banner"`
		}{Banner: *fill}
	}
	return resp, nil
}

// FillSlot picks the banner for a single slot: evaluate all candidates, then
// break ties uniformly at random with one draw. When candidates exist but
// none is eligible, the result is the sentinel fill (id 0, slot thumbnail).
// ErrNoEligibleBanner is returned only when the slot has no banners at all.
func (f *Filler) FillSlot(ctx context.Context, slot *models.BannerSlot, viewer *models.ViewerContext) (*models.SlotFill, error) {
	candidates, err := f.store.GetBannersForPlacement(ctx, slot.Name)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleBanner
	}

	eligible := EligibleBanners(candidates, viewer)
	if len(eligible) == 0 {
		return &models.SlotFill{ID: 0, BannerURL: slot.Thumbnail}, nil
	}
	chosen := eligible[RandFn(len(eligible))]
	return &models.SlotFill{ID: chosen.ID, BannerURL: chosen.BannerURL, CampaignID: chosen.CampaignID}, nil
}
