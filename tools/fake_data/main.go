// Fake Data Tool seeds the store with demo viewers, slots, campaigns and
// banners so the serving path has something to deliver in a dev environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/config"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"
)

var (
	viewerCount   = flag.Int("viewers", 50, "number of viewers")
	campaignCount = flag.Int("campaigns", 10, "number of campaigns")
	bannersPer    = flag.Int("banners", 3, "banners per campaign")
	seed          = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
)

var (
	locations  = []string{"Riyadh", "Jeddah", "Dammam", "Dubai", "Abu Dhabi"}
	categories = []string{"beverages", "snacks", "dairy", "bakery", "frozen"}
	genders    = []string{models.GenderMale, models.GenderFemale}
	devices    = []string{"mobile", "tablet", "desktop"}
	oses       = []string{"android", "ios"}
)

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx := context.Background()
	r := rand.New(rand.NewSource(*seed))

	if err := seedSlots(ctx, pg); err != nil {
		logger.Fatal("seed slots", zap.Error(err))
	}

	viewerIDs, err := seedViewers(ctx, pg, r, *viewerCount)
	if err != nil {
		logger.Fatal("seed viewers", zap.Error(err))
	}
	logger.Info("seeded viewers", zap.Int("count", len(viewerIDs)))

	activeViewers, err := pg.CountActiveViewers(ctx)
	if err != nil {
		logger.Fatal("count active viewers", zap.Error(err))
	}

	for c := 0; c < *campaignCount; c++ {
		category := models.CategoryTarget
		if r.Intn(2) == 0 {
			category = models.CategoryAwareness
		}
		quote := logic.PriceQuote(*bannersPer, activeViewers, cfg.BasicAdAmount)

		campaign := &models.Campaign{
			OwnerID:         viewerIDs[r.Intn(len(viewerIDs))],
			Name:            fmt.Sprintf("Demo Campaign %d", c+1),
			Category:        category,
			Amount:          quote.Amount,
			RemainingAmount: quote.Amount,
			IsPaid:          true,
			Status:          models.StatusApproved,
		}
		if err := pg.InsertCampaign(ctx, campaign); err != nil {
			logger.Fatal("insert campaign", zap.Error(err))
		}

		for b := 0; b < *bannersPer; b++ {
			banner := randomBanner(r, campaign, b, quote.ImpressionsLimit)
			if err := pg.InsertBanner(ctx, &banner); err != nil {
				logger.Fatal("insert banner", zap.Error(err))
			}
		}
	}
	logger.Info("seeded campaigns", zap.Int("count", *campaignCount), zap.Int("banners_each", *bannersPer))
}

func seedSlots(ctx context.Context, pg *db.Postgres) error {
	for i, slotType := range models.SlotTypes {
		name := fmt.Sprintf("%s-%d", slotType, 1)
		_, err := pg.DB.ExecContext(ctx, `INSERT INTO banner_slots (name, type, size, thumbnail)
            VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`,
			name, slotType, models.SlotSize(slotType), fmt.Sprintf("https://cdn.example.com/thumbnails/%s.png", slotType))
		if err != nil {
			return fmt.Errorf("insert slot %d: %w", i, err)
		}
	}
	return nil
}

func seedViewers(ctx context.Context, pg *db.Postgres, r *rand.Rand, n int) ([]int, error) {
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		age := 16 + r.Intn(50)
		var id int
		err := pg.DB.QueryRowContext(ctx, `INSERT INTO users (name, gender, age, last_seen)
            VALUES ($1, $2, $3, NOW()) RETURNING id`,
			fmt.Sprintf("Demo Viewer %d", i+1),
			genders[r.Intn(len(genders))],
			age,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert viewer: %w", err)
		}
		ids = append(ids, id)

		if _, err := pg.DB.ExecContext(ctx, `INSERT INTO user_devices (user_id, fcm_token)
            VALUES ($1, $2)`, id, fmt.Sprintf("fake-fcm-token-%d", id)); err != nil {
			return nil, fmt.Errorf("insert device: %w", err)
		}

		for _, cat := range randomSubset(r, categories, 2) {
			if _, err := pg.DB.ExecContext(ctx, `INSERT INTO purchases (user_id, product_category, created_at)
                VALUES ($1, $2, NOW())`, id, cat); err != nil {
				return nil, fmt.Errorf("insert purchase: %w", err)
			}
		}
	}
	return ids, nil
}

func randomBanner(r *rand.Rand, campaign *models.Campaign, idx, impressionsLimit int) models.Banner {
	slotType := models.SlotTypes[r.Intn(len(models.SlotTypes))]
	b := models.Banner{
		CampaignID: campaign.ID,
		Name:       fmt.Sprintf("%s banner %d", campaign.Name, idx+1),
		SlotType:   slotType,
		BannerURL:  fmt.Sprintf("https://cdn.example.com/banners/%d-%d.png", campaign.ID, idx+1),
		Format:     "image/png",
		Category:   campaign.Category,
		Status:     models.StatusApproved,
		IsPaid:     true,
	}

	// Sprinkle targeting predicates so fills differ per viewer.
	if r.Intn(2) == 0 {
		b.Locations = randomSubset(r, locations, 2)
	}
	if r.Intn(3) == 0 {
		b.Genders = []string{genders[r.Intn(len(genders))]}
	}
	if r.Intn(3) == 0 {
		from, to := 18, 40
		b.FromAge, b.ToAge = &from, &to
	}
	if r.Intn(3) == 0 {
		b.ProductCategory = categories[r.Intn(len(categories))]
	}
	if r.Intn(4) == 0 {
		b.OS = oses[r.Intn(len(oses))]
	}
	if r.Intn(4) == 0 {
		b.Device = devices[r.Intn(len(devices))]
	}

	if campaign.Category == models.CategoryTarget {
		b.ImpressionsLimit = impressionsLimit
	} else {
		freq := 3 + r.Intn(5)
		b.FrequencyCap = &freq
		if r.Intn(2) == 0 {
			limit := time.Now().AddDate(0, 1, 0)
			b.TimeLimit = &limit
			sov := 25 * (1 + r.Intn(4))
			b.ShareOfVoice = &sov
			b.ImpressionsLimit = impressionsLimit
		} else {
			b.LifeEvent = logic.LifeEventRamadan
		}
	}
	return b
}

func randomSubset(r *rand.Rand, items []string, max int) []string {
	n := 1 + r.Intn(max)
	picked := make([]string, 0, n)
	for _, i := range r.Perm(len(items))[:n] {
		picked = append(picked, items[i])
	}
	return picked
}
