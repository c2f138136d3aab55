package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-backend.git/internal/catalog"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
)

var ErrItemNotFound = errors.New("cart item not found")

type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
}

type View struct {
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type Repo struct{ DB postgres.DB }

// Add upserts a (user, product) line, accumulating quantity. The stock check
// covers the accumulated quantity but reserves nothing; checkout and approval
// re-validate.
func (r *Repo) Add(ctx context.Context, userID, productID string, qty int) (Item, error) {
	if qty < 1 {
		return Item{}, orders.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	p, err := catalog.GetProduct(ctx, r.DB, productID)
	if err != nil {
		return Item{}, err
	}

	var existing int
	err = r.DB.QueryRow(ctx, `SELECT quantity FROM cart_items WHERE user_id=$1 AND product_id=$2`,
		userID, productID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Item{}, err
	}
	if p.Stock < existing+qty {
		return Item{}, catalog.ErrOutOfStock
	}

	item := Item{ProductID: productID, Name: p.Name, UnitPrice: p.Price}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO cart_items(id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, created_at
	`, uuid.NewString(), userID, productID, qty).Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *Repo) Items(ctx context.Context, userID string) (View, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.product_id, p.name, p.price, c.quantity, c.created_at
		  FROM cart_items c
		  JOIN products p ON p.id = c.product_id
		 WHERE c.user_id = $1
		 ORDER BY c.created_at
	`, userID)
	if err != nil {
		return View{}, err
	}
	defer rows.Close()

	v := View{Items: []Item{}, Total: decimal.Zero}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.CreatedAt); err != nil {
			return View{}, err
		}
		v.Items = append(v.Items, it)
		v.Total = v.Total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if err := rows.Err(); err != nil {
		return View{}, err
	}
	v.ItemCount = len(v.Items)
	return v, nil
}

// UpdateQuantity sets the absolute quantity of one line.
func (r *Repo) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) (Item, error) {
	if qty < 1 {
		return Item{}, orders.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	var it Item
	var stock int
	err := r.DB.QueryRow(ctx, `
		SELECT c.id, c.product_id, p.name, p.price, p.stock, c.created_at
		  FROM cart_items c
		  JOIN products p ON p.id = c.product_id
		 WHERE c.id = $1 AND c.user_id = $2
	`, itemID, userID).Scan(&it.ID, &it.ProductID, &it.Name, &it.UnitPrice, &stock, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}
	if stock < qty {
		return Item{}, catalog.ErrOutOfStock
	}

	if _, err := r.DB.Exec(ctx, `UPDATE cart_items SET quantity=$3 WHERE id=$1 AND user_id=$2`,
		itemID, userID, qty); err != nil {
		return Item{}, err
	}
	it.Quantity = qty
	return it, nil
}

func (r *Repo) Remove(ctx context.Context, userID, itemID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
