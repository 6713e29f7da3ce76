package tools

import (
	"context"
	"fmt"
	"log/slog"

	"shopmate/internal/agent"
	"shopmate/internal/catalog"
	"shopmate/internal/chat"
)

// GetSpendingSummary aggregates the calling user's spending per month and
// attaches a bar chart payload for the client.
type GetSpendingSummary struct {
	store *catalog.Store
}

func NewGetSpendingSummary(store *catalog.Store) *GetSpendingSummary {
	return &GetSpendingSummary{store: store}
}

func (g *GetSpendingSummary) Name() string { return "get_spending_summary" }
func (g *GetSpendingSummary) Description() string {
	return "Summarize the current user's spending per month over a trailing window."
}
func (g *GetSpendingSummary) AdminOnly() bool { return false }

func (g *GetSpendingSummary) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"months": {
			Type:        "number",
			Description: "How many months back to aggregate (default 6)",
		},
	})
}

func (g *GetSpendingSummary) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	userID := agent.UserFromContext(ctx)
	if userID == 0 {
		return nil, fmt.Errorf("no user in request")
	}

	totals, err := g.store.SpendingByMonth(ctx, userID, int(intArg(args, "months")))
	if err != nil {
		return nil, err
	}

	content, err := jsonContent(map[string]any{"months": totals})
	if err != nil {
		return nil, err
	}

	chartPayload, err := agent.Chart("bar", map[string]any{
		"title":  "Spending by month",
		"series": totals,
	})
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content, Chart: chartPayload}, nil
}

// GetSalesDashboard aggregates store-wide revenue. Admin only; the registry
// filters it from non-admin tool lists and blocks direct calls, and the
// handler re-checks the role in case it is ever wired up differently.
type GetSalesDashboard struct {
	store *catalog.Store
}

func NewGetSalesDashboard(store *catalog.Store) *GetSalesDashboard {
	return &GetSalesDashboard{store: store}
}

func (g *GetSalesDashboard) Name() string { return "get_sales_dashboard" }
func (g *GetSalesDashboard) Description() string {
	return "Store-wide sales dashboard: order volume, revenue and top-selling products."
}
func (g *GetSalesDashboard) AdminOnly() bool { return true }

func (g *GetSalesDashboard) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"days": {
			Type:        "number",
			Description: "How many days back to aggregate (default 30)",
		},
	})
}

func (g *GetSalesDashboard) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	if !agent.RoleFromContext(ctx).Admin() {
		return nil, fmt.Errorf("Admin only: get_sales_dashboard requires the admin role")
	}

	summary, err := g.store.Sales(ctx, int(intArg(args, "days")))
	if err != nil {
		return nil, err
	}
	slog.Debug("tools: sales dashboard", "days", summary.Days, "orders", summary.Orders)

	content, err := jsonContent(summary)
	if err != nil {
		return nil, err
	}

	chartPayload, err := agent.Chart("bar", map[string]any{
		"title":  fmt.Sprintf("Top products, last %d days", summary.Days),
		"series": summary.TopProducts,
	})
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content, Chart: chartPayload}, nil
}
