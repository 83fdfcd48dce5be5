package observability

import "time"

// MockMetricsRegistry is a mock implementation of MetricsRegistry for testing
type MockMetricsRegistry struct{}

// HTTP request metrics
func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

// Slot-fill metrics
func (m *MockMetricsRegistry) IncrementFallbacks(slot string) {}

// Event tracking metrics
func (m *MockMetricsRegistry) IncrementImpressions(status string) {}
func (m *MockMetricsRegistry) IncrementEvent(eventType string)    {}

// Delivery tracking metrics
func (m *MockMetricsRegistry) SetCampaignImpressions(campaign string, count float64) {}
func (m *MockMetricsRegistry) IncrementImpressionPersistErrors()                     {}

// Rate limiting metrics
func (m *MockMetricsRegistry) IncrementRateLimitRequests(endpoint string) {}
func (m *MockMetricsRegistry) IncrementRateLimitHits(endpoint string)     {}

// Report metrics
func (m *MockMetricsRegistry) IncrementReports() {}

// Expiry sweep metrics
func (m *MockMetricsRegistry) RecordSweepDuration(duration time.Duration) {}
func (m *MockMetricsRegistry) IncrementSweepFailures()                    {}
