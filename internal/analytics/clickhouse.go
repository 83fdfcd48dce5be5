package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Event types written to the analytics stream.
const (
	EventSlotRequest     = "slot_request"
	EventBannerServed    = "banner_served"
	EventSlotFallback    = "slot_fallback"
	EventImpression      = "impression"
	EventInteraction     = "interaction"
	EventBannerExpired   = "banner_expired"
	EventCampaignExpired = "campaign_expired"
)

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// Service defines the interface for analytics operations. Implementations
// should return ErrUnavailable when the underlying storage is not configured.
type Service interface {
	// RecordEvent appends one event row to the analytics stream.
	RecordEvent(ctx context.Context, ev EventRecord) error
	// CampaignDailyTotals aggregates impressions per day for one campaign.
	CampaignDailyTotals(ctx context.Context, campaignID int, since time.Time) ([]DailyTotal, error)
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB *sql.DB
}

// EventRecord mirrors a row in the events table. Optional dimensions are
// pointers so unset values land as ClickHouse NULLs.
type EventRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	BannerID   *int32    `json:"banner_id"`
	CampaignID *int32    `json:"campaign_id"`
	ViewerID   *int32    `json:"viewer_id"`
	SlotName   *string   `json:"slot_name"`
	Gender     *string   `json:"gender"`
	OS         *string   `json:"os"`
	Device     *string   `json:"device"`
	Location   *string   `json:"location"`
}

// DailyTotal is one day of delivered impressions for a campaign.
type DailyTotal struct {
	Day   time.Time `json:"day"`
	Total int64     `json:"total"`
}

// InitClickHouse connects to ClickHouse and ensures the events table exists.
func InitClickHouse(dsn string) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS banner_events (
       timestamp   DateTime,
       event_type  String,
       request_id  String,
       banner_id   Nullable(Int32),
       campaign_id Nullable(Int32),
       viewer_id   Nullable(Int32),
       slot_name   Nullable(String),
       gender      Nullable(String),
       os          Nullable(String),
       device      Nullable(String),
       location    Nullable(String)
   ) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db}, nil
}

// RecordEvent inserts a single event row into the banner_events table.
func (a *Analytics) RecordEvent(ctx context.Context, ev EventRecord) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	stmt := `INSERT INTO banner_events (timestamp, event_type, request_id, banner_id, campaign_id, viewer_id, slot_name, gender, os, device, location) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt, ev.Timestamp, ev.EventType, ev.RequestID,
		ev.BannerID, ev.CampaignID, ev.ViewerID, ev.SlotName, ev.Gender, ev.OS, ev.Device, ev.Location); err != nil {
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("event_type", ev.EventType))
		return fmt.Errorf("insert %s event: %w", ev.EventType, err)
	}
	return nil
}

// CampaignDailyTotals aggregates impression events per day for one campaign
// since the given time.
func (a *Analytics) CampaignDailyTotals(ctx context.Context, campaignID int, since time.Time) ([]DailyTotal, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT toStartOfDay(timestamp) AS day, count() AS total
        FROM banner_events
        WHERE event_type = ? AND campaign_id = ? AND timestamp >= ?
        GROUP BY day ORDER BY day`
	rows, err := a.DB.QueryContext(ctx, query, EventImpression, campaignID, since)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var totals []DailyTotal
	for rows.Next() {
		var dt DailyTotal
		if err := rows.Scan(&dt.Day, &dt.Total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return totals, nil
}

// EventsByRequestID returns all events for a given request ID ordered by
// timestamp; used by the query_events tool.
func (a *Analytics) EventsByRequestID(ctx context.Context, id string) ([]EventRecord, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT timestamp, event_type, request_id, banner_id, campaign_id, viewer_id, slot_name, gender, os, device, location FROM banner_events WHERE request_id=? ORDER BY timestamp`
	rows, err := a.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var events []EventRecord
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.Timestamp, &ev.EventType, &ev.RequestID, &ev.BannerID, &ev.CampaignID, &ev.ViewerID, &ev.SlotName, &ev.Gender, &ev.OS, &ev.Device, &ev.Location); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}

// Close terminates the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}

// Int32Ptr, StrPtr build optional event dimensions.
func Int32Ptr(v int) *int32 {
	i := int32(v)
	return &i
}

func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
