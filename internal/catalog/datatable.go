package catalog

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-retail-backend.git/internal/datatable"
)

var productsTable = datatable.Builder{
	Columns: map[string]string{
		"id":          "id",
		"name":        "name",
		"description": "description",
		"price":       "price",
		"stock":       "stock",
		"createdAt":   "created_at",
	},
	Globals:      []string{"id", "name", "description", "price"},
	DefaultOrder: "created_at DESC",
}

// DataTable serves the admin products listing.
func (s *Store) DataTable(ctx context.Context, req datatable.Request) (datatable.Response[Product], error) {
	resp := datatable.Response[Product]{Draw: req.Draw, Data: []Product{}}

	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&resp.RecordsTotal); err != nil {
		return resp, err
	}

	where, args := productsTable.Filter(req, 1)
	whereSQL := ""
	if where != "" {
		whereSQL = " WHERE " + where
	}

	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`+whereSQL, args...).Scan(&resp.RecordsFiltered)
	if err != nil {
		return resp, err
	}

	sql := strings.Join([]string{
		productSelect + whereSQL,
		"ORDER BY " + productsTable.Order(req),
		productsTable.Limit(req),
	}, " ")
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return resp, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return resp, err
		}
		resp.Data = append(resp.Data, p)
	}
	return resp, rows.Err()
}
