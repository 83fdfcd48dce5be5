package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

// Postgres wraps a postgres DB connection and implements models.BannerStore.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    name TEXT,
    gender TEXT,
    age INT,
    last_seen TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_devices (
    id SERIAL PRIMARY KEY,
    user_id INT REFERENCES users(id),
    fcm_token TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS purchases (
    id SERIAL PRIMARY KEY,
    user_id INT REFERENCES users(id),
    product_category TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS campaigns (
    id SERIAL PRIMARY KEY,
    owner_id INT REFERENCES users(id),
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    previous_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    remaining_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    transaction_id TEXT,
    status TEXT NOT NULL DEFAULT 'draft',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS banner_slots (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    size INT NOT NULL DEFAULT 1,
    thumbnail TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS banners (
    id SERIAL PRIMARY KEY,
    campaign_id INT NOT NULL REFERENCES campaigns(id),
    name TEXT NOT NULL,
    slot_type TEXT NOT NULL,
    banner_url TEXT NOT NULL,
    format TEXT,
    category TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    locations TEXT[],
    genders TEXT[],
    from_age INT,
    to_age INT,
    product_category TEXT,
    from_hour INT,
    to_hour INT,
    days_of_week TEXT[],
    os TEXT,
    device TEXT,
    frequency_cap INT,
    life_event TEXT,
    reach_number INT,
    reach_gender TEXT[],
    share_of_voice INT,
    time_limit DATE,
    impressions_limit INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS banner_users (
    id SERIAL PRIMARY KEY,
    banner_id INT NOT NULL REFERENCES banners(id),
    campaign_id INT NOT NULL REFERENCES campaigns(id),
    user_id INT NOT NULL REFERENCES users(id),
    impressions INT NOT NULL DEFAULT 1,
    male INT NOT NULL DEFAULT 0,
    female INT NOT NULL DEFAULT 0,
    os TEXT,
    device TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS banner_notifications (
    id SERIAL PRIMARY KEY,
    campaign_id INT NOT NULL REFERENCES campaigns(id),
    banner_name TEXT NOT NULL,
    status TEXT NOT NULL,
    message TEXT,
    sender_id INT,
    receiver_id INT REFERENCES users(id),
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Serving-path indexes
CREATE INDEX IF NOT EXISTS idx_banners_slot_type_status ON banners (slot_type, status);
CREATE INDEX IF NOT EXISTS idx_banners_campaign_id ON banners (campaign_id);
CREATE INDEX IF NOT EXISTS idx_banner_users_banner_id ON banner_users (banner_id);
CREATE INDEX IF NOT EXISTS idx_banner_users_user_banner ON banner_users (user_id, banner_id);
CREATE INDEX IF NOT EXISTS idx_banner_users_campaign_id ON banner_users (campaign_id);
CREATE INDEX IF NOT EXISTS idx_purchases_user_id ON purchases (user_id);
CREATE INDEX IF NOT EXISTS idx_banner_notifications_receiver ON banner_notifications (receiver_id, is_read);
`

// bannerColumns is the scan order shared by every banner query.
const bannerColumns = `id, campaign_id, name, slot_type, banner_url, format, category, status, is_paid,
    locations, genders, from_age, to_age, product_category, from_hour, to_hour, days_of_week,
    os, device, frequency_cap, life_event, reach_number, reach_gender, share_of_voice,
    time_limit, impressions_limit, created_at`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.connection_string", dsn),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema() error {
	if _, err := p.DB.ExecContext(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBanner reads one banner row in bannerColumns order, folding the
// nullable columns into the model's optional fields.
func scanBanner(row rowScanner) (*models.Banner, error) {
	var b models.Banner
	var format, productCategory, osVal, device, lifeEvent sql.NullString
	var fromAge, toAge, fromHour, toHour, freqCap, reachNumber, sov sql.NullInt64
	var timeLimit, createdAt sql.NullTime
	var locations, genders, days, reachGender []string

	if err := row.Scan(&b.ID, &b.CampaignID, &b.Name, &b.SlotType, &b.BannerURL, &format,
		&b.Category, &b.Status, &b.IsPaid,
		pq.Array(&locations), pq.Array(&genders), &fromAge, &toAge, &productCategory,
		&fromHour, &toHour, pq.Array(&days),
		&osVal, &device, &freqCap, &lifeEvent, &reachNumber, pq.Array(&reachGender), &sov,
		&timeLimit, &b.ImpressionsLimit, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("scan banner: %w", err)
	}

	b.Locations = locations
	b.Genders = genders
	b.DaysOfWeek = days
	b.ReachGender = reachGender
	if format.Valid {
		b.Format = format.String
	}
	if productCategory.Valid {
		b.ProductCategory = productCategory.String
	}
	if osVal.Valid {
		b.OS = osVal.String
	}
	if device.Valid {
		b.Device = device.String
	}
	if lifeEvent.Valid {
		b.LifeEvent = lifeEvent.String
	}
	if fromAge.Valid {
		v := int(fromAge.Int64)
		b.FromAge = &v
	}
	if toAge.Valid {
		v := int(toAge.Int64)
		b.ToAge = &v
	}
	if fromHour.Valid {
		v := int(fromHour.Int64)
		b.FromHour = &v
	}
	if toHour.Valid {
		v := int(toHour.Int64)
		b.ToHour = &v
	}
	if freqCap.Valid {
		v := int(freqCap.Int64)
		b.FrequencyCap = &v
	}
	if reachNumber.Valid {
		v := int(reachNumber.Int64)
		b.ReachNumber = &v
	}
	if sov.Valid {
		v := int(sov.Int64)
		b.ShareOfVoice = &v
	}
	if timeLimit.Valid {
		t := timeLimit.Time
		b.TimeLimit = &t
	}
	if createdAt.Valid {
		b.CreatedAt = createdAt.Time
	}
	return &b, nil
}

func collectBanners(rows *sql.Rows) ([]models.Banner, error) {
	defer func() {
		_ = rows.Close()
	}()
	var banners []models.Banner
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		banners = append(banners, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return banners, nil
}

// Ping reports whether the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// ListBannerSlots returns every configured slot.
func (p *Postgres) ListBannerSlots(ctx context.Context) ([]models.BannerSlot, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, name, type, size, thumbnail FROM banner_slots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query banner slots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var slots []models.BannerSlot
	for rows.Next() {
		var s models.BannerSlot
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Size, &s.Thumbnail); err != nil {
			return nil, fmt.Errorf("scan banner slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return slots, nil
}

// GetBannersForPlacement returns every banner configured for one named
// slot, regardless of status. Eligibility, including the approved-status
// gate, is the evaluator's job; returning all candidates lets the filler
// tell an unconfigured slot apart from one whose banners are all ineligible.
func (p *Postgres) GetBannersForPlacement(ctx context.Context, placement string) ([]models.Banner, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT `+bannerColumns+` FROM banners
        WHERE slot_type = (SELECT type FROM banner_slots WHERE name = $1)`, placement)
	if err != nil {
		return nil, fmt.Errorf("query placement banners: %w", err)
	}
	return collectBanners(rows)
}

// GetViewerFrequencies returns the viewer's prior impression count per banner.
func (p *Postgres) GetViewerFrequencies(ctx context.Context, viewerID int) (map[int]int, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT banner_id, COALESCE(SUM(impressions),0)
        FROM banner_users WHERE user_id = $1 GROUP BY banner_id`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query viewer frequencies: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	freqs := make(map[int]int)
	for rows.Next() {
		var bannerID, count int
		if err := rows.Scan(&bannerID, &count); err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		freqs[bannerID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return freqs, nil
}

// GetPriorImpressionCount returns one viewer's impression count on one banner.
func (p *Postgres) GetPriorImpressionCount(ctx context.Context, bannerID, viewerID int) (int, error) {
	var count int
	err := p.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(impressions),0)
        FROM banner_users WHERE banner_id = $1 AND user_id = $2`, bannerID, viewerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query prior impressions: %w", err)
	}
	return count, nil
}

// GetPurchasedCategories returns the distinct product categories the viewer
// has ordered before.
func (p *Postgres) GetPurchasedCategories(ctx context.Context, viewerID int) ([]string, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT DISTINCT product_category FROM purchases WHERE user_id = $1`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query purchased categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return cats, nil
}

// GetViewerGender returns the viewer's gender attribute. A missing viewer or
// an unset gender both surface models.ErrNotFound: gender is mandatory for
// impression bucketing.
func (p *Postgres) GetViewerGender(ctx context.Context, viewerID int) (string, error) {
	var gender sql.NullString
	err := p.DB.QueryRowContext(ctx, `SELECT gender FROM users WHERE id = $1`, viewerID).Scan(&gender)
	if err == sql.ErrNoRows {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query viewer gender: %w", err)
	}
	if !gender.Valid || gender.String == "" {
		return "", models.ErrNotFound
	}
	return gender.String, nil
}

// InsertImpression appends one impression record and returns its id.
func (p *Postgres) InsertImpression(ctx context.Context, imp *models.Impression) (int, error) {
	err := p.DB.QueryRowContext(ctx, `INSERT INTO banner_users
        (banner_id, campaign_id, user_id, impressions, male, female, os, device)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		imp.BannerID, imp.CampaignID, imp.ViewerID, imp.Impressions, imp.Male, imp.Female, imp.OS, imp.Device).Scan(&imp.ID)
	if err != nil {
		return 0, fmt.Errorf("insert impression: %w", err)
	}
	return imp.ID, nil
}

// RecordImpression appends the impression, re-aggregates the banner's usage
// and runs the expiry cascade, all in one transaction. The expiry writes are
// idempotent (status <> 'expired' guards), so a concurrent decision on the
// same banner is absorbed as a no-op.
func (p *Postgres) RecordImpression(ctx context.Context, imp *models.Impression, decide models.ExpireDecision) (bool, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := tx.QueryRowContext(ctx, `INSERT INTO banner_users
        (banner_id, campaign_id, user_id, impressions, male, female, os, device)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		imp.BannerID, imp.CampaignID, imp.ViewerID, imp.Impressions, imp.Male, imp.Female, imp.OS, imp.Device).Scan(&imp.ID); err != nil {
		return false, fmt.Errorf("insert impression: %w", err)
	}

	b, err := scanBanner(tx.QueryRowContext(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, imp.BannerID))
	if err != nil {
		return false, fmt.Errorf("load banner: %w", err)
	}

	var agg models.ImpressionAggregate
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(impressions),0), COALESCE(SUM(male),0), COALESCE(SUM(female),0)
        FROM banner_users WHERE banner_id = $1`, imp.BannerID).Scan(&agg.Total, &agg.Male, &agg.Female); err != nil {
		return false, fmt.Errorf("aggregate impressions: %w", err)
	}

	expired := false
	if decide != nil && b.Status != models.StatusExpired && decide(b, agg) {
		if _, err := tx.ExecContext(ctx, `UPDATE banners SET status = 'expired' WHERE id = $1 AND status <> 'expired'`, b.ID); err != nil {
			return false, fmt.Errorf("expire banner: %w", err)
		}
		expired = true

		var live int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM banners
            WHERE campaign_id = $1 AND status <> 'expired'`, b.CampaignID).Scan(&live); err != nil {
			return false, fmt.Errorf("count live banners: %w", err)
		}
		if live == 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE campaigns SET status = 'expired' WHERE id = $1 AND status <> 'expired'`, b.CampaignID); err != nil {
				return false, fmt.Errorf("expire campaign: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return expired, nil
}

// AggregateImpressions re-sums one banner's usage.
func (p *Postgres) AggregateImpressions(ctx context.Context, bannerID int) (models.ImpressionAggregate, error) {
	var agg models.ImpressionAggregate
	err := p.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(impressions),0), COALESCE(SUM(male),0), COALESCE(SUM(female),0)
        FROM banner_users WHERE banner_id = $1`, bannerID).Scan(&agg.Total, &agg.Male, &agg.Female)
	if err != nil {
		return agg, fmt.Errorf("aggregate impressions: %w", err)
	}
	return agg, nil
}

// AggregateCampaignImpressions re-sums a whole campaign's usage.
func (p *Postgres) AggregateCampaignImpressions(ctx context.Context, campaignID int) (models.ImpressionAggregate, error) {
	var agg models.ImpressionAggregate
	err := p.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(impressions),0), COALESCE(SUM(male),0), COALESCE(SUM(female),0)
        FROM banner_users WHERE campaign_id = $1`, campaignID).Scan(&agg.Total, &agg.Male, &agg.Female)
	if err != nil {
		return agg, fmt.Errorf("aggregate campaign impressions: %w", err)
	}
	return agg, nil
}

// GetBanner returns one banner by id.
func (p *Postgres) GetBanner(ctx context.Context, id int) (*models.Banner, error) {
	return scanBanner(p.DB.QueryRowContext(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id))
}

// GetCampaign returns one campaign by id.
func (p *Postgres) GetCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	var c models.Campaign
	var txID sql.NullString
	var createdAt sql.NullTime
	err := p.DB.QueryRowContext(ctx, `SELECT id, owner_id, name, category, amount, previous_amount,
        remaining_amount, is_paid, transaction_id, status, created_at FROM campaigns WHERE id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Category, &c.Amount, &c.PreviousAmount,
			&c.RemainingAmount, &c.IsPaid, &txID, &c.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query campaign: %w", err)
	}
	if txID.Valid {
		c.TransactionID = txID.String
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	return &c, nil
}

// ListCampaignBanners returns every banner owned by a campaign.
func (p *Postgres) ListCampaigns(ctx context.Context, status string) ([]models.Campaign, error) {
	query := `SELECT id, owner_id, name, category, amount, previous_amount,
        remaining_amount, is_paid, transaction_id, status, created_at FROM campaigns`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY id`
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		var txID sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Category, &c.Amount, &c.PreviousAmount,
			&c.RemainingAmount, &c.IsPaid, &txID, &c.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if txID.Valid {
			c.TransactionID = txID.String
		}
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (p *Postgres) ListCampaignBanners(ctx context.Context, campaignID int) ([]models.Banner, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT `+bannerColumns+` FROM banners WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query campaign banners: %w", err)
	}
	return collectBanners(rows)
}

// SetBannerStatus updates one banner's status. Setting an already expired
// banner to expired is a no-op, not an error.
func (p *Postgres) SetBannerStatus(ctx context.Context, bannerID int, status string) error {
	res, err := p.DB.ExecContext(ctx, `UPDATE banners SET status = $1 WHERE id = $2 AND status <> $1`, status, bannerID)
	if err != nil {
		return fmt.Errorf("update banner status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := p.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM banners WHERE id = $1)`, bannerID).Scan(&exists); err != nil {
			return fmt.Errorf("check banner: %w", err)
		}
		if !exists {
			return models.ErrNotFound
		}
	}
	return nil
}

// SetCampaignStatus updates one campaign's status with the same idempotence
// as SetBannerStatus.
func (p *Postgres) SetCampaignStatus(ctx context.Context, campaignID int, status string) error {
	res, err := p.DB.ExecContext(ctx, `UPDATE campaigns SET status = $1 WHERE id = $2 AND status <> $1`, status, campaignID)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := p.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`, campaignID).Scan(&exists); err != nil {
			return fmt.Errorf("check campaign: %w", err)
		}
		if !exists {
			return models.ErrNotFound
		}
	}
	return nil
}

// SetCampaignBannersStatus moves every banner of a campaign in one statement.
func (p *Postgres) SetCampaignBannersStatus(ctx context.Context, campaignID int, status string) error {
	_, err := p.DB.ExecContext(ctx, `UPDATE banners SET status = $1 WHERE campaign_id = $2`, status, campaignID)
	if err != nil {
		return fmt.Errorf("update campaign banners status: %w", err)
	}
	return nil
}

// ListNonExpiredAwarenessBannersPastTimeLimit feeds the daily sweep.
func (p *Postgres) ListNonExpiredAwarenessBannersPastTimeLimit(ctx context.Context, now time.Time) ([]models.Banner, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT `+bannerColumns+` FROM banners
        WHERE status <> 'expired' AND category = 'awareness'
          AND time_limit IS NOT NULL AND time_limit < $1`, now)
	if err != nil {
		return nil, fmt.Errorf("query banners past time limit: %w", err)
	}
	return collectBanners(rows)
}

// InsertCampaign inserts a new campaign and returns the generated ID.
func (p *Postgres) InsertCampaign(ctx context.Context, c *models.Campaign) error {
	err := p.DB.QueryRowContext(ctx, `INSERT INTO campaigns
        (owner_id, name, category, amount, previous_amount, remaining_amount, is_paid, transaction_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		c.OwnerID, c.Name, c.Category, c.Amount, c.PreviousAmount, c.RemainingAmount,
		c.IsPaid, nullString(c.TransactionID), c.Status).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// UpdateCampaign updates an existing campaign's budget and status fields.
func (p *Postgres) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	res, err := p.DB.ExecContext(ctx, `UPDATE campaigns SET name=$1, amount=$2, previous_amount=$3,
        remaining_amount=$4, is_paid=$5, transaction_id=$6, status=$7 WHERE id=$8`,
		c.Name, c.Amount, c.PreviousAmount, c.RemainingAmount, c.IsPaid, nullString(c.TransactionID), c.Status, c.ID)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertBanner inserts a new banner and returns the generated ID.
func (p *Postgres) InsertBanner(ctx context.Context, b *models.Banner) error {
	err := p.DB.QueryRowContext(ctx, `INSERT INTO banners
        (campaign_id, name, slot_type, banner_url, format, category, status, is_paid,
         locations, genders, from_age, to_age, product_category, from_hour, to_hour, days_of_week,
         os, device, frequency_cap, life_event, reach_number, reach_gender, share_of_voice,
         time_limit, impressions_limit)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
        RETURNING id`,
		b.CampaignID, b.Name, b.SlotType, b.BannerURL, nullString(b.Format), b.Category, b.Status, b.IsPaid,
		pq.Array(b.Locations), pq.Array(b.Genders), b.FromAge, b.ToAge, nullString(b.ProductCategory),
		b.FromHour, b.ToHour, pq.Array(b.DaysOfWeek),
		nullString(b.OS), nullString(b.Device), b.FrequencyCap, nullString(b.LifeEvent),
		b.ReachNumber, pq.Array(b.ReachGender), b.ShareOfVoice,
		b.TimeLimit, b.ImpressionsLimit).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

// MarkCampaignPaid records a confirmed payment: the campaign and its banners
// become paid, the balance clears, and the order enters the approval queue.
func (p *Postgres) MarkCampaignPaid(ctx context.Context, campaignID int, transactionID string) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `UPDATE campaigns SET is_paid = TRUE, remaining_amount = 0,
        transaction_id = $1, status = 'active' WHERE id = $2 AND status <> 'expired'`, transactionID, campaignID)
	if err != nil {
		return fmt.Errorf("mark campaign paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE banners SET is_paid = TRUE, status = 'active'
        WHERE campaign_id = $1 AND status <> 'expired'`, campaignID); err != nil {
		return fmt.Errorf("mark banners paid: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CountActiveViewers counts users seen in the store over the last 30 days;
// it feeds the pricing quote.
func (p *Postgres) CountActiveViewers(ctx context.Context) (int, error) {
	var count int
	err := p.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users
        WHERE last_seen IS NOT NULL AND last_seen > NOW() - INTERVAL '30 days'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active viewers: %w", err)
	}
	return count, nil
}

// InsertNotification persists a status notification for a campaign owner.
func (p *Postgres) InsertNotification(ctx context.Context, n *models.Notification) error {
	err := p.DB.QueryRowContext(ctx, `INSERT INTO banner_notifications
        (campaign_id, banner_name, status, message, sender_id, receiver_id, is_read)
        VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		n.CampaignID, n.BannerName, n.Status, nullString(n.Message), n.SenderID, n.ReceiverID, n.IsRead).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListDeviceTokens returns the push tokens registered by one user.
func (p *Postgres) ListDeviceTokens(ctx context.Context, receiverID int) ([]string, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT fcm_token FROM user_devices WHERE user_id = $1`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tokens, nil
}

// ListAllDeviceTokens returns every registered push token. Approval
// announcements broadcast to the whole installed base, not just the owner.
func (p *Postgres) ListAllDeviceTokens(ctx context.Context) ([]string, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT fcm_token FROM user_devices`)
	if err != nil {
		return nil, fmt.Errorf("query all device tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tokens, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
