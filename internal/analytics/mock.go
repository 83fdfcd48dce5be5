package analytics

import (
	"context"
	"sync"
	"time"
)

var _ Service = (*MockAnalytics)(nil)

// MockAnalytics is an in-memory Service implementation for testing. It
// captures recorded events so tests can assert on them.
type MockAnalytics struct {
	mu     sync.Mutex
	Events []EventRecord
}

// NewMockAnalytics creates a new mock analytics instance
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordEvent captures the event in memory.
func (m *MockAnalytics) RecordEvent(ctx context.Context, ev EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.Events = append(m.Events, ev)
	return nil
}

// CampaignDailyTotals aggregates the captured impression events per day.
func (m *MockAnalytics) CampaignDailyTotals(ctx context.Context, campaignID int, since time.Time) ([]DailyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay := make(map[time.Time]int64)
	for _, ev := range m.Events {
		if ev.EventType != EventImpression || ev.CampaignID == nil || int(*ev.CampaignID) != campaignID {
			continue
		}
		if ev.Timestamp.Before(since) {
			continue
		}
		day := time.Date(ev.Timestamp.Year(), ev.Timestamp.Month(), ev.Timestamp.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day]++
	}
	var totals []DailyTotal
	for day, total := range byDay {
		totals = append(totals, DailyTotal{Day: day, Total: total})
	}
	return totals, nil
}

// EventsOfType returns captured events matching the given type.
func (m *MockAnalytics) EventsOfType(eventType string) []EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EventRecord
	for _, ev := range m.Events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}
