// Package catalog is the thin read layer over products, orders, carts and
// users that the assistant's tools query. It is deliberately mechanical; the
// interesting logic lives in the orchestrator and retrieval packages.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shopmate/internal/db"
)

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int64   `json:"stock"`
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items,omitempty"`
}

type CartItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type MonthTotal struct {
	Month  string  `json:"month"`
	Orders int64   `json:"orders"`
	Total  float64 `json:"total"`
}

type ProductSales struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Units     int64   `json:"units"`
	Revenue   float64 `json:"revenue"`
}

type SalesSummary struct {
	Days        int            `json:"days"`
	Orders      int64          `json:"orders"`
	Revenue     float64        `json:"revenue"`
	TopProducts []ProductSales `json:"top_products"`
}

type Store struct {
	conn *sql.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{conn: database.Conn()}
}

func (s *Store) Product(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, name, description, category, price, stock
		FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading product %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, description, category, price, stock
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// OrdersByUser returns a user's orders, newest first, optionally filtered by
// status. Line items are loaded per order; order counts here are small.
func (s *Store) OrdersByUser(ctx context.Context, userID int64, status string) ([]Order, error) {
	q := `SELECT id, user_id, status, total, created_at FROM orders WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *Store) Order(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading order %d: %w", id, err)
	}

	items, err := s.orderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *Store) orderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, oi.unit_price
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) Cart(ctx context.Context, userID int64) ([]CartItem, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.price
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = ? ORDER BY ci.added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		it.LineTotal = float64(it.Quantity) * it.UnitPrice
		items = append(items, it)
	}
	return items, rows.Err()
}

// SpendingByMonth aggregates a user's order totals per calendar month over
// the trailing window.
func (s *Store) SpendingByMonth(ctx context.Context, userID int64, months int) ([]MonthTotal, error) {
	if months <= 0 {
		months = 6
	}
	since := time.Now().AddDate(0, -months, 0)

	rows, err := s.conn.QueryContext(ctx, `
		SELECT strftime('%Y-%m', created_at) AS month, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE user_id = ? AND created_at >= ?
		GROUP BY month ORDER BY month`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("aggregating spending for user %d: %w", userID, err)
	}
	defer rows.Close()

	var totals []MonthTotal
	for rows.Next() {
		var mt MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Orders, &mt.Total); err != nil {
			return nil, err
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

// Sales aggregates revenue and top products over the trailing window.
// Admin-only data; the gating happens at the tool layer.
func (s *Store) Sales(ctx context.Context, days int) (*SalesSummary, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	summary := &SalesSummary{Days: days}
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE created_at >= ?`, since).
		Scan(&summary.Orders, &summary.Revenue)
	if err != nil {
		return nil, fmt.Errorf("aggregating sales: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT oi.product_id, p.name, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.created_at >= ?
		GROUP BY oi.product_id ORDER BY revenue DESC LIMIT 5`, since)
	if err != nil {
		return nil, fmt.Errorf("aggregating top products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.Units, &ps.Revenue); err != nil {
			return nil, err
		}
		summary.TopProducts = append(summary.TopProducts, ps)
	}
	return summary, rows.Err()
}
