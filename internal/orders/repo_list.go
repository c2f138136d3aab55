package orders

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-retail-backend.git/internal/datatable"
)

// Read-only projections. The user join selects id/email/role only; the
// password hash stays behind the scan layer.
const orderViewSelect = `
	SELECT o.id, o.user_id, o.product_id, o.quantity, o.total_price, o.status,
	       o.created_at, o.updated_at,
	       p.name, p.price,
	       u.email, u.role
	  FROM orders o
	  JOIN products p ON p.id = o.product_id
	  JOIN users u ON u.id = o.user_id`

func scanOrderViews(rows pgx.Rows) ([]OrderView, error) {
	defer rows.Close()
	out := []OrderView{}
	for rows.Next() {
		var v OrderView
		err := rows.Scan(
			&v.ID, &v.UserID, &v.ProductID, &v.Quantity, &v.TotalPrice, &v.Status,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Product.Name, &v.Product.Price,
			&v.User.Email, &v.User.Role)
		if err != nil {
			return nil, err
		}
		v.Product.ID = v.ProductID
		v.User.ID = v.UserID
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repo) ListForUser(ctx context.Context, userID string) ([]OrderView, error) {
	rows, err := r.DB.Query(ctx, orderViewSelect+` WHERE o.user_id=$1 ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanOrderViews(rows)
}

// List is the admin projection, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status *Status) ([]OrderView, error) {
	if status == nil {
		rows, err := r.DB.Query(ctx, orderViewSelect+` ORDER BY o.created_at DESC`)
		if err != nil {
			return nil, err
		}
		return scanOrderViews(rows)
	}
	rows, err := r.DB.Query(ctx, orderViewSelect+` WHERE o.status=$1 ORDER BY o.created_at DESC`, *status)
	if err != nil {
		return nil, err
	}
	return scanOrderViews(rows)
}

// ordersTable is the allow-list for the admin orders listing. Joined fields
// (product name, user email) are searchable/sortable like any local column.
var ordersTable = datatable.Builder{
	Columns: map[string]string{
		"id":          "o.id",
		"quantity":    "o.quantity",
		"totalPrice":  "o.total_price",
		"status":      "o.status",
		"createdAt":   "o.created_at",
		"productName": "p.name",
		"userEmail":   "u.email",
	},
	Globals:      []string{"o.id", "o.status", "o.total_price", "p.name", "u.email"},
	DefaultOrder: "o.created_at DESC",
}

// DataTable serves the admin orders listing through the shared list-query
// engine.
func (r *Repo) DataTable(ctx context.Context, req datatable.Request) (datatable.Response[OrderView], error) {
	resp := datatable.Response[OrderView]{Draw: req.Draw, Data: []OrderView{}}

	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&resp.RecordsTotal); err != nil {
		return resp, err
	}

	const fromClause = ` FROM orders o
	  JOIN products p ON p.id = o.product_id
	  JOIN users u ON u.id = o.user_id`

	where, args := ordersTable.Filter(req, 1)
	whereSQL := ""
	if where != "" {
		whereSQL = " WHERE " + where
	}

	err := r.DB.QueryRow(ctx, `SELECT COUNT(*)`+fromClause+whereSQL, args...).Scan(&resp.RecordsFiltered)
	if err != nil {
		return resp, err
	}

	sql := strings.Join([]string{
		orderViewSelect + whereSQL,
		"ORDER BY " + ordersTable.Order(req),
		ordersTable.Limit(req),
	}, " ")
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return resp, err
	}
	resp.Data, err = scanOrderViews(rows)
	return resp, err
}
