package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-backend.git/internal/catalog"
	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
)

type Repo struct{ DB postgres.DB }

const orderFields = `id, user_id, product_id, quantity, total_price, status, created_at, updated_at`

// Create inserts a PENDING order after validating stock inside the
// transaction. Stock is checked but NOT decremented here: reservation is
// deferred to Approve, so concurrent PENDING orders may collectively exceed
// available stock. Approve re-validates against current stock before the
// only decrement in the system.
func (r *Repo) Create(ctx context.Context, userID, productID string, qty int) (Order, error) {
	if qty < 1 {
		return Order{}, ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := catalog.GetProduct(ctx, tx, productID)
	if err != nil {
		return Order{}, err
	}
	if p.Stock < qty {
		return Order{}, ErrOutOfStock
	}

	o := Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   qty,
		TotalPrice: p.Price.Mul(decimal.NewFromInt(int64(qty))),
		Status:     StatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, product_id, quantity, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.ProductID, o.Quantity, o.TotalPrice, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Approve moves PENDING -> APPROVED and spends the stock, all in one
// transaction. Approving an already-APPROVED order is an idempotent no-op;
// a REJECTED order can never come back.
func (r *Repo) Approve(ctx context.Context, orderID string) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := getOrder(ctx, tx, orderID, true)
	if err != nil {
		return Order{}, err
	}
	switch o.Status {
	case StatusApproved:
		return o, nil // no-op, no second decrement
	case StatusRejected:
		return Order{}, fmt.Errorf("%w: rejected order cannot be approved", ErrInvalidTransition)
	}

	// Re-check against current stock, not stock at creation time. This is
	// the correctness-restoring step of the deferred-reservation design.
	p, err := catalog.ProductForUpdate(ctx, tx, o.ProductID)
	if err != nil {
		return Order{}, err
	}
	if p.Stock < o.Quantity {
		return Order{}, ErrOutOfStock // rollback, order stays PENDING
	}
	if err := catalog.DecrementStock(ctx, tx, o.ProductID, o.Quantity); err != nil {
		return Order{}, err
	}

	err = tx.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
	                         RETURNING updated_at`, o.ID, StatusApproved).Scan(&o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	o.Status = StatusApproved
	return o, nil
}

// Reject is a single-row update, deliberately not wrapped in a transaction.
// Re-rejecting a REJECTED order is accepted as a plain re-write; only
// APPROVED refuses. The update is guarded on the previous status so a
// racing approval cannot be overwritten.
func (r *Repo) Reject(ctx context.Context, orderID string) (Order, error) {
	o, err := getOrder(ctx, r.DB, orderID, false)
	if err != nil {
		return Order{}, err
	}
	if o.Status == StatusApproved {
		return Order{}, fmt.Errorf("%w: approved order cannot be rejected", ErrInvalidTransition)
	}

	err = r.DB.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now()
	                           WHERE id=$1 AND status <> $3
	                           RETURNING updated_at`, o.ID, StatusRejected, StatusApproved).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// approved between our read and write
		return Order{}, fmt.Errorf("%w: approved order cannot be rejected", ErrInvalidTransition)
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = StatusRejected
	return o, nil
}

// Status reads just the status column, for the cached GET fast path.
func (r *Repo) Status(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

func getOrder(ctx context.Context, q postgres.Querier, id string, forUpdate bool) (Order, error) {
	sql := `SELECT ` + orderFields + ` FROM orders WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var o Order
	err := q.QueryRow(ctx, sql, id).Scan(
		&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}
