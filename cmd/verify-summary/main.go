// verify-summary sends one fixed set of facts to the configured model and
// prints the returned narrative, so the API key, base URL and model can be
// checked without running the server.
//
// Usage: go run ./cmd/verify-summary
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sales-reports/internal/ai"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	log := logrus.New()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(ai.AgentConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	})

	facts := ai.SummaryFacts{
		TotalUnits:   172,
		TotalRevenue: decimal.RequireFromString("396.18"),
		TopSKU:       "DOUBLE",
		TopBranch:    "SanIsidro",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("FACTS: units=%d revenue=%s top_sku=%s top_branch=%s\n",
		facts.TotalUnits, facts.TotalRevenue.StringFixed(2), facts.TopSKU, facts.TopBranch)

	start := time.Now()
	summary, err := agent.GenerateSummary(ctx, facts)
	if err != nil {
		fmt.Printf("\n--- GENERATION FAILED (%s) ---\n%v\n", time.Since(start).Round(time.Millisecond), err)
		fmt.Printf("\n--- FALLBACK ---\n%s\n", ai.FallbackSummary(facts))
		os.Exit(1)
	}

	fmt.Printf("\n--- SUMMARY (%s) ---\n%s\n", time.Since(start).Round(time.Millisecond), summary)
}
