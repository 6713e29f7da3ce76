package tools

import (
	"context"
	"fmt"

	"shopmate/internal/agent"
	"shopmate/internal/catalog"
	"shopmate/internal/chat"
)

// GetOrders lists the calling user's orders.
type GetOrders struct {
	store *catalog.Store
}

func NewGetOrders(store *catalog.Store) *GetOrders {
	return &GetOrders{store: store}
}

func (g *GetOrders) Name() string { return "get_orders" }
func (g *GetOrders) Description() string {
	return "List the current user's orders, newest first, optionally filtered by status."
}
func (g *GetOrders) AdminOnly() bool { return false }

func (g *GetOrders) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"status": {
			Type:        "string",
			Description: "Optional status filter",
			Enum:        []string{"pending", "shipped", "delivered", "cancelled"},
		},
	})
}

func (g *GetOrders) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	userID := agent.UserFromContext(ctx)
	if userID == 0 {
		return nil, fmt.Errorf("no user in request")
	}

	orders, err := g.store.OrdersByUser(ctx, userID, stringArg(args, "status"))
	if err != nil {
		return nil, err
	}

	content, err := jsonContent(map[string]any{"orders": orders, "count": len(orders)})
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content}, nil
}

// GetOrder looks up one order with its line items. The order must belong to
// the calling user unless the caller is an admin.
type GetOrder struct {
	store *catalog.Store
}

func NewGetOrder(store *catalog.Store) *GetOrder {
	return &GetOrder{store: store}
}

func (g *GetOrder) Name() string { return "get_order" }
func (g *GetOrder) Description() string {
	return "Get one order with its line items, status and total."
}
func (g *GetOrder) AdminOnly() bool { return false }

func (g *GetOrder) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"order_id": {
			Type:        "number",
			Description: "Order id to look up",
		},
	}, "order_id")
}

func (g *GetOrder) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	id := intArg(args, "order_id")
	if id == 0 {
		return nil, fmt.Errorf("order_id is required")
	}

	order, err := g.store.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != agent.UserFromContext(ctx) && !agent.RoleFromContext(ctx).Admin() {
		return nil, fmt.Errorf("order not found: %d", id)
	}

	content, err := jsonContent(order)
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content}, nil
}

// GetCart returns the calling user's cart with line totals.
type GetCart struct {
	store *catalog.Store
}

func NewGetCart(store *catalog.Store) *GetCart {
	return &GetCart{store: store}
}

func (g *GetCart) Name() string { return "get_cart" }
func (g *GetCart) Description() string {
	return "Show the current user's shopping cart with quantities and line totals."
}
func (g *GetCart) AdminOnly() bool { return false }

func (g *GetCart) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{})
}

func (g *GetCart) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	userID := agent.UserFromContext(ctx)
	if userID == 0 {
		return nil, fmt.Errorf("no user in request")
	}

	items, err := g.store.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, it := range items {
		total += it.LineTotal
	}

	content, err := jsonContent(map[string]any{"items": items, "total": total})
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content}, nil
}
