package catalog

import (
	"context"
	"fmt"
	"time"

	"shopmate/internal/db"
)

type seedProduct struct {
	name, description, category string
	price                       float64
	stock                       int64
}

var seedProducts = []seedProduct{
	{"Trail Runner 5", "Lightweight trail running shoe with aggressive grip and rock plate.", "footwear", 129.99, 42},
	{"Alpine Shell Jacket", "Waterproof three-layer shell for mountain weather.", "outerwear", 249.00, 18},
	{"Merino Base Layer", "Midweight merino wool long-sleeve base layer.", "apparel", 74.50, 60},
	{"Ridge 40 Backpack", "40 liter alpine pack with removable frame and ice axe loops.", "gear", 189.00, 25},
	{"Titanium Cook Set", "Two-pot titanium cook set with folding handles.", "gear", 89.95, 33},
	{"Down Summit Parka", "800-fill down parka rated for deep cold.", "outerwear", 399.00, 9},
	{"Cascade Tent 2P", "Freestanding two-person tent, 1.9 kg packed.", "gear", 429.00, 12},
	{"Wool Hiking Socks", "Cushioned merino socks, three pack.", "apparel", 29.99, 120},
	{"Headlamp 600", "Rechargeable 600 lumen headlamp with red mode.", "gear", 54.95, 80},
	{"Approach Pant", "Stretch softshell pant for climbing and scrambling.", "apparel", 119.00, 37},
}

// Seed populates an empty database with demo users, products, orders and a
// cart. Running it twice is a no-op.
func Seed(ctx context.Context, database *db.DB) error {
	conn := database.Conn()

	var count int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("checking products: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (name, email, role) VALUES
		('Ada Customer', 'ada@example.com', 'customer'),
		('Sam Admin', 'sam@example.com', 'admin')`); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	for _, p := range seedProducts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, description, category, price, stock)
			VALUES (?, ?, ?, ?, ?)`,
			p.name, p.description, p.category, p.price, p.stock); err != nil {
			return fmt.Errorf("seeding product %q: %w", p.name, err)
		}
	}

	// A few historical orders for user 1 spread over recent months.
	orders := []struct {
		daysAgo int
		status  string
		items   [][3]int64 // product id, quantity, ignored
	}{
		{75, "delivered", [][3]int64{{1, 1, 0}, {8, 2, 0}}},
		{40, "delivered", [][3]int64{{3, 1, 0}, {9, 1, 0}}},
		{12, "shipped", [][3]int64{{4, 1, 0}}},
		{2, "pending", [][3]int64{{5, 1, 0}, {8, 1, 0}}},
	}

	for _, o := range orders {
		createdAt := time.Now().AddDate(0, 0, -o.daysAgo)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (user_id, status, total, created_at) VALUES (1, ?, 0, ?)`,
			o.status, createdAt)
		if err != nil {
			return fmt.Errorf("seeding order: %w", err)
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		var total float64
		for _, it := range o.items {
			var price float64
			if err := tx.QueryRowContext(ctx, `SELECT price FROM products WHERE id = ?`, it[0]).Scan(&price); err != nil {
				return fmt.Errorf("seeding order item: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, unit_price)
				VALUES (?, ?, ?, ?)`, orderID, it[0], it[1], price); err != nil {
				return fmt.Errorf("seeding order item: %w", err)
			}
			total += float64(it[1]) * price
		}
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET total = ? WHERE id = ?`, total, orderID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity) VALUES (1, 2, 1), (1, 10, 2)`); err != nil {
		return fmt.Errorf("seeding cart: %w", err)
	}

	return tx.Commit()
}
