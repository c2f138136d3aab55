package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("insufficient stock")
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

const productSelect = `SELECT id, name, description, price, stock, created_at, updated_at
                         FROM products`

// GetProduct reads one product through the given pool or transaction.
func GetProduct(ctx context.Context, q postgres.Querier, id string) (Product, error) {
	return scanProduct(q.QueryRow(ctx, productSelect+` WHERE id=$1`, id))
}

// ProductForUpdate locks the product row for the rest of the transaction.
// Only the approval path needs this: it is the one place stock is spent.
func ProductForUpdate(ctx context.Context, q postgres.Querier, id string) (Product, error) {
	return scanProduct(q.QueryRow(ctx, productSelect+` WHERE id=$1 FOR UPDATE`, id))
}

// DecrementStock spends qty units, guarded so stock can never go negative.
// Callers hold the row lock from ProductForUpdate, so zero rows affected
// means the stock check failed, not that the product vanished.
func DecrementStock(ctx context.Context, q postgres.Querier, id string, qty int) error {
	ct, err := q.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now()
	                         WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrOutOfStock
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Store covers the read-only catalog surface the API serves directly.
type Store struct{ DB postgres.DB }

func (s *Store) List(ctx context.Context) ([]Product, error) {
	rows, err := s.DB.Query(ctx, productSelect+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
