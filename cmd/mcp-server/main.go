package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/notifications"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/reporting"
)

// AdminServer exposes campaign administration over MCP: listing campaigns,
// pulling delivery reports, driving lifecycle transitions and running the
// expiry sweep on demand.
type AdminServer struct {
	store     models.BannerStore
	analytics analytics.Service
	lifecycle *logic.Lifecycle
	sweeper   *logic.Sweeper
	logger    *zap.Logger
}

type ListCampaignsInput struct {
	Status string `json:"status,omitempty"`
}

type ListCampaignsOutput struct {
	Campaigns []models.Campaign `json:"campaigns"`
}

func (s *AdminServer) ListCampaigns(ctx context.Context, req *mcp.CallToolRequest, input ListCampaignsInput) (*mcp.CallToolResult, ListCampaignsOutput, error) {
	campaigns, err := s.store.ListCampaigns(ctx, input.Status)
	if err != nil {
		return nil, ListCampaignsOutput{}, fmt.Errorf("list campaigns: %w", err)
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	return nil, ListCampaignsOutput{Campaigns: campaigns}, nil
}

type CampaignReportInput struct {
	CampaignID int `json:"campaign_id"`
	Days       int `json:"days,omitempty"`
}

func (s *AdminServer) CampaignReport(ctx context.Context, req *mcp.CallToolRequest, input CampaignReportInput) (*mcp.CallToolResult, *reporting.CampaignSummary, error) {
	days := input.Days
	if days <= 0 {
		days = 30
	}
	summary, err := reporting.GenerateCampaignReport(ctx, s.store, s.analytics, input.CampaignID, days)
	if err != nil {
		return nil, nil, fmt.Errorf("campaign report: %w", err)
	}
	return nil, summary, nil
}

type SetStatusInput struct {
	CampaignID int    `json:"campaign_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	SenderID   int    `json:"sender_id,omitempty"`
}

type SetStatusOutput struct {
	Campaign *models.Campaign `json:"campaign"`
}

func (s *AdminServer) SetCampaignStatus(ctx context.Context, req *mcp.CallToolRequest, input SetStatusInput) (*mcp.CallToolResult, SetStatusOutput, error) {
	c, err := s.lifecycle.SetCampaignStatus(ctx, input.CampaignID, input.Status, input.Message, input.SenderID)
	if err != nil {
		return nil, SetStatusOutput{}, fmt.Errorf("set campaign status: %w", err)
	}
	return nil, SetStatusOutput{Campaign: c}, nil
}

type RunSweepInput struct{}

type RunSweepOutput struct {
	Status string `json:"status"`
}

func (s *AdminServer) RunSweep(ctx context.Context, req *mcp.CallToolRequest, input RunSweepInput) (*mcp.CallToolResult, RunSweepOutput, error) {
	if err := s.sweeper.RunDaily(ctx, time.Now()); err != nil {
		return nil, RunSweepOutput{}, fmt.Errorf("expiry sweep: %w", err)
	}
	return nil, RunSweepOutput{Status: "completed"}, nil
}

func main() {
	// Use stderr for logs to keep stdout free for the MCP stdio transport.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("metamart-banners-mcp").With(zap.String("service", "metamart-banners-mcp"))

	logger.Info("Starting banner admin MCP server")

	postgresDSN := os.Getenv("POSTGRES_DSN")
	if postgresDSN == "" {
		logger.Fatal("POSTGRES_DSN environment variable is required")
	}
	pg, err := db.InitPostgres(postgresDSN, 10, 5, 30*time.Minute, time.Minute)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	logger.Info("Connected to PostgreSQL")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisStore, err := db.InitRedis(redisAddr)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisStore.Close()

	// The report tool degrades to store totals when ClickHouse is down.
	var analyticsSvc analytics.Service
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	if clickhouseDSN == "" {
		clickhouseDSN = "clickhouse://default:@localhost:9000/default"
	}
	if ch, err := analytics.InitClickHouse(clickhouseDSN); err != nil {
		logger.Warn("ClickHouse unavailable, reports will omit daily series", zap.Error(err))
	} else {
		analyticsSvc = ch
		defer ch.Close()
	}

	notifier := notifications.NewLogNotifier(pg, logger)
	admin := &AdminServer{
		store:     pg,
		analytics: analyticsSvc,
		lifecycle: logic.NewLifecycle(pg, notifier, logger),
		sweeper:   logic.NewSweeper(pg, redisStore, logger, nil),
		logger:    logger,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "metamart-banners",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_campaigns",
		Description: "List banner campaigns, optionally filtered by lifecycle status",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"draft", "pending", "active", "approved", "suspended", "rejected", "expired"},
					"description": "Lifecycle status to filter by (optional)",
				},
			},
		},
	}, admin.ListCampaigns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "campaign_report",
		Description: "Delivery report for one campaign: totals, per-banner and per-gender breakdowns, daily series",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "integer",
					"description": "Campaign ID to report on",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Days of event history for the daily series (optional, defaults to 30)",
				},
			},
			"required": []string{"campaign_id"},
		},
	}, admin.CampaignReport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_campaign_status",
		Description: "Move a campaign through its lifecycle (approve, suspend, reject); owners are notified",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "integer",
					"description": "Campaign ID",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"pending", "active", "approved", "suspended", "rejected"},
					"description": "Target status",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Reason shown to the campaign owner (optional)",
				},
				"sender_id": map[string]interface{}{
					"type":        "integer",
					"description": "Admin user ID performing the transition (optional)",
				},
			},
			"required": []string{"campaign_id", "status"},
		},
	}, admin.SetCampaignStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_expiry_sweep",
		Description: "Run the banner expiry sweep immediately instead of waiting for the schedule",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, admin.RunSweep)

	logger.Info("MCP server running via stdio")

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
