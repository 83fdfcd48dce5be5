// Campaign Report Tool prints a delivery report for one banner campaign.
//
// Authoritative impression totals come from Postgres; the daily series comes
// from the ClickHouse event stream when it is reachable.
//
// Usage:
//
//	go run ./tools/campaign_report -campaign-id=123 -days=30
//
// Configuration:
//
//	-campaign-id: Required. The campaign ID to generate a report for
//	-days: Optional. Days of event history for the daily series (default: 7)
//	-clickhouse-dsn: Optional. ClickHouse connection string
//	-postgres-dsn: Optional. Postgres connection string
//
// Environment Variables:
//
//	CLICKHOUSE_DSN, POSTGRES_DSN: connection strings (overridden by flags)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/reporting"
)

func main() {
	var (
		campaignID = flag.Int("campaign-id", 0, "Campaign ID to generate report for")
		days       = flag.Int("days", 7, "Number of days to include in report")
		chDSN      = flag.String("clickhouse-dsn", getEnv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default"), "ClickHouse DSN")
		pgDSN      = flag.String("postgres-dsn", getEnv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable"), "Postgres DSN")
	)
	flag.Parse()

	if *campaignID == 0 {
		fmt.Fprintf(os.Stderr, "Error: campaign-id is required\n")
		flag.Usage()
		os.Exit(1)
	}

	pg, err := db.InitPostgres(*pgDSN, 5, 2, 5*time.Minute, time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	var an analytics.Service
	if ch, err := analytics.InitClickHouse(*chDSN); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ClickHouse unavailable, daily series omitted: %v\n", err)
	} else {
		an = ch
		defer ch.Close()
	}

	summary, err := reporting.GenerateCampaignReport(context.Background(), pg, an, *campaignID, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	printCampaignReport(summary, *days)
}

// printCampaignReport outputs a formatted delivery report to stdout: campaign
// state, totals, per-banner breakdown, daily series and a few insights.
func printCampaignReport(summary *reporting.CampaignSummary, days int) {
	fmt.Printf("═══════════════════════════════════════════════════════════════════════════════════\n")
	fmt.Printf("                              CAMPAIGN DELIVERY REPORT                             \n")
	fmt.Printf("═══════════════════════════════════════════════════════════════════════════════════\n")
	fmt.Printf("Campaign:    %s (ID %d)\n", summary.Name, summary.CampaignID)
	fmt.Printf("Category:    %s\n", summary.Category)
	fmt.Printf("Status:      %s\n", summary.Status)
	fmt.Printf("Amount:      $%.2f (paid: %v)\n", summary.Amount, summary.IsPaid)
	fmt.Printf("Report Period: %d days (ending %s)\n", days, time.Now().Format("2006-01-02"))
	fmt.Printf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Printf("📊 OVERALL DELIVERY\n")
	fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
	fmt.Printf("Total Impressions:  %s\n", formatNumber(int64(summary.Impressions)))
	fmt.Printf("Male Viewers:       %s\n", formatNumber(int64(summary.Male)))
	fmt.Printf("Female Viewers:     %s\n", formatNumber(int64(summary.Female)))
	fmt.Printf("\n")

	if len(summary.Banners) > 0 {
		fmt.Printf("🖼  BANNER BREAKDOWN\n")
		fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
		fmt.Printf("Banner ID | Slot      | Status    | Impressions |  Male%%  | Female%% \n")
		fmt.Printf("----------|-----------|-----------|-------------|---------|----------\n")
		for _, b := range summary.Banners {
			fmt.Printf("%9d | %-9s | %-9s | %11s | %6.2f%% | %6.2f%%\n",
				b.BannerID,
				b.SlotType,
				b.Status,
				formatNumber(int64(b.Impressions)),
				b.MalePct,
				b.FemalePct,
			)
		}
		fmt.Printf("\n")
	}

	if len(summary.Daily) > 0 {
		fmt.Printf("📅 DAILY BREAKDOWN\n")
		fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")
		fmt.Printf("Date        | Impressions\n")
		fmt.Printf("------------|------------\n")
		for _, d := range summary.Daily {
			fmt.Printf("%-10s  | %11s\n", d.Day.Format("2006-01-02"), formatNumber(d.Total))
		}
		fmt.Printf("\n")
	}

	fmt.Printf("💡 INSIGHTS\n")
	fmt.Printf("───────────────────────────────────────────────────────────────────────────────────\n")

	if summary.Impressions == 0 {
		fmt.Printf("⚠️  No impressions recorded - check banner approval status and targeting\n")
	} else {
		expired := 0
		for _, b := range summary.Banners {
			if b.Status == "expired" {
				expired++
			}
		}
		if expired == len(summary.Banners) {
			fmt.Printf("🏁 All banners have exhausted their delivery - campaign is complete\n")
		} else if expired > 0 {
			fmt.Printf("🏁 %d of %d banners have exhausted their delivery\n", expired, len(summary.Banners))
		} else {
			fmt.Printf("✅ Campaign delivering normally\n")
		}
	}

	fmt.Printf("═══════════════════════════════════════════════════════════════════════════════════\n")
}

// formatNumber formats large integers with comma separators for improved readability.
// Example: 1234567 becomes "1,234,567"
func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(digit)
	}
	return result
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
