package main

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tripfolio/tripbudget-go/pkg/tripbudget"
)

func main() {
	// Base currency for the trip; defaults to USD
	base := os.Getenv("TRIPBUDGET_BASE_CURRENCY")

	engine, err := tripbudget.NewEngine(&tripbudget.Options{
		BaseCurrency: base,
	})
	if err != nil {
		log.Fatalf("failed to initialize trip budget engine: %v", err)
	}
	defer engine.Close()

	impl := &mcp.Implementation{
		Name:    "tripbudget",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	// Register all tools
	registerTools(server, engine)

	// Run server over stdio transport (for a research assistant)
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func registerTools(server *mcp.Server, engine *tripbudget.Engine) {
	tools := newBudgetTools(engine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Reconcile the current budget against all recorded costs. Returns total spent, remaining, percentage used, per-category and per-country breakdowns, and any budget alerts.",
	}, tools.GetStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_researched_cost",
		Description: "Submit a researched cost candidate. The engine normalizes it: resolves the currency, converts to the base currency, assigns an ID and records it with status 'researched'.",
	}, tools.AddResearchedCost)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_currency",
		Description: "Convert an amount between two currency codes via the engine's rate table. Flags the result as approximate when a rate is missing.",
	}, tools.ConvertCurrency)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_budget",
		Description: "Replace the trip budget: total amount, contingency percentage and optional per-category allocations.",
	}, tools.SetBudget)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_budget",
		Description: "Generate a default budget from the currently recorded costs plus a contingency buffer, allocated proportionally per category and country.",
	}, tools.GenerateBudget)
}
