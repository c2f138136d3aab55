package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-backend.git/internal/catalog"
	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
)

// CheckoutRepo converts a whole cart into one PENDING order per line as a
// single atomic unit, then removes the consumed lines. Like Create it only
// validates stock; nothing is reserved until approval.
type CheckoutRepo struct{ DB postgres.DB }

type cartLine struct {
	id          string
	productID   string
	productName string
	qty         int
	stock       int
}

func (r *CheckoutRepo) Checkout(ctx context.Context, userID string) (CheckoutResult, error) {
	lines, err := r.cartLines(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(lines) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	// Pre-flight pass, informational only: reads un-locked stock and
	// reserves nothing, so it can race like Create does.
	for _, l := range lines {
		if l.stock < l.qty {
			return CheckoutResult{}, fmt.Errorf("%w for product %q", ErrOutOfStock, l.productName)
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CheckoutResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total := decimal.Zero
	orderIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		// re-read inside the transaction; a vanished or drained product
		// rolls back the entire checkout
		p, err := catalog.GetProduct(ctx, tx, l.productID)
		if err != nil {
			return CheckoutResult{}, err
		}
		if p.Stock < l.qty {
			return CheckoutResult{}, fmt.Errorf("%w for product %q", ErrOutOfStock, p.Name)
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(l.qty)))
		orderID := uuid.NewString()
		_, err = tx.Exec(ctx, `
			INSERT INTO orders(id, user_id, product_id, quantity, total_price, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, userID, l.productID, l.qty, lineTotal, StatusPending)
		if err != nil {
			return CheckoutResult{}, err
		}
		orderIDs = append(orderIDs, orderID)
		total = total.Add(lineTotal)
	}

	// delete exactly the consumed lines; lines added mid-flight survive
	params := ""
	args := make([]any, 0, len(lines))
	for i, l := range lines {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, l.id)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id IN (`+params+`)`, args...); err != nil {
		return CheckoutResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return CheckoutResult{}, err
	}

	views, err := r.ordersByID(ctx, orderIDs)
	if err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Orders: views, Total: total}, nil
}

func (r *CheckoutRepo) cartLines(ctx context.Context, userID string) ([]cartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.product_id, p.name, c.quantity, p.stock
		  FROM cart_items c
		  JOIN products p ON p.id = c.product_id
		 WHERE c.user_id = $1
		 ORDER BY c.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cartLine
	for rows.Next() {
		var l cartLine
		if err := rows.Scan(&l.id, &l.productID, &l.productName, &l.qty, &l.stock); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CheckoutRepo) ordersByID(ctx context.Context, ids []string) ([]OrderView, error) {
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, orderViewSelect+` WHERE o.id IN (`+params+`) ORDER BY o.created_at`, args...)
	if err != nil {
		return nil, err
	}
	return scanOrderViews(rows)
}
