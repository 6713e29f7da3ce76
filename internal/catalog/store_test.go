package catalog

import (
	"context"
	"testing"

	"shopmate/internal/db"
)

func seededStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := Seed(context.Background(), database); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Seeding twice must be a no-op.
	if err := Seed(context.Background(), database); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	return NewStore(database)
}

func TestProduct(t *testing.T) {
	store := seededStore(t)

	p, err := store.Product(context.Background(), 1)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if p.Name != "Trail Runner 5" || p.Category != "footwear" {
		t.Errorf("got %+v", p)
	}

	if _, err := store.Product(context.Background(), 999); err == nil {
		t.Error("expected error for missing product")
	}
}

func TestProducts(t *testing.T) {
	store := seededStore(t)

	products, err := store.Products(context.Background())
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != len(seedProducts) {
		t.Errorf("got %d products, want %d", len(products), len(seedProducts))
	}
}

func TestOrdersByUser(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	orders, err := store.OrdersByUser(ctx, 1, "")
	if err != nil {
		t.Fatalf("OrdersByUser: %v", err)
	}
	if len(orders) != 4 {
		t.Fatalf("got %d orders, want 4", len(orders))
	}

	// Newest first.
	for i := 1; i < len(orders); i++ {
		if orders[i].CreatedAt.After(orders[i-1].CreatedAt) {
			t.Error("orders not sorted newest first")
		}
	}
	if len(orders[0].Items) == 0 {
		t.Error("order items not loaded")
	}

	shipped, err := store.OrdersByUser(ctx, 1, "shipped")
	if err != nil {
		t.Fatalf("OrdersByUser shipped: %v", err)
	}
	if len(shipped) != 1 || shipped[0].Status != "shipped" {
		t.Errorf("shipped filter returned %+v", shipped)
	}

	none, err := store.OrdersByUser(ctx, 2, "")
	if err != nil {
		t.Fatalf("OrdersByUser user 2: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("user 2 has %d orders, want 0", len(none))
	}
}

func TestOrderTotalsMatchItems(t *testing.T) {
	store := seededStore(t)

	order, err := store.Order(context.Background(), 1)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}

	var sum float64
	for _, it := range order.Items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	if order.Total != sum {
		t.Errorf("order total %v, items sum to %v", order.Total, sum)
	}
}

func TestCart(t *testing.T) {
	store := seededStore(t)

	items, err := store.Cart(context.Background(), 1)
	if err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d cart items, want 2", len(items))
	}
	for _, it := range items {
		if it.LineTotal != float64(it.Quantity)*it.UnitPrice {
			t.Errorf("line total %v for %+v", it.LineTotal, it)
		}
	}
}

func TestSpendingByMonth(t *testing.T) {
	store := seededStore(t)

	totals, err := store.SpendingByMonth(context.Background(), 1, 6)
	if err != nil {
		t.Fatalf("SpendingByMonth: %v", err)
	}
	if len(totals) == 0 {
		t.Fatal("no monthly totals")
	}

	var orders int64
	for _, mt := range totals {
		orders += mt.Orders
		if mt.Total <= 0 {
			t.Errorf("month %s has total %v", mt.Month, mt.Total)
		}
	}
	if orders != 4 {
		t.Errorf("months cover %d orders, want 4", orders)
	}
}

func TestSales(t *testing.T) {
	store := seededStore(t)

	summary, err := store.Sales(context.Background(), 30)
	if err != nil {
		t.Fatalf("Sales: %v", err)
	}

	// Only the two orders inside the window count.
	if summary.Orders != 2 {
		t.Errorf("orders = %d, want 2", summary.Orders)
	}
	if summary.Revenue <= 0 {
		t.Errorf("revenue = %v", summary.Revenue)
	}
	if len(summary.TopProducts) == 0 {
		t.Fatal("no top products")
	}
	for i := 1; i < len(summary.TopProducts); i++ {
		if summary.TopProducts[i].Revenue > summary.TopProducts[i-1].Revenue {
			t.Error("top products not sorted by revenue")
		}
	}
}
