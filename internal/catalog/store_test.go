package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-backend.git/internal/datatable"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestGetProduct_NotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products`)).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	if _, err := GetProduct(context.Background(), mock, "nope"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDecrementStock(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`SET stock = stock - $2`)).
		WithArgs("p1", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := DecrementStock(context.Background(), mock, "p1", 3); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
}

func TestDecrementStock_GuardRefuses(t *testing.T) {
	mock := newMock(t)

	// zero rows: the WHERE stock >= qty guard filtered the row out
	mock.ExpectExec(regexp.QuoteMeta(`SET stock = stock - $2`)).
		WithArgs("p1", 99).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := DecrementStock(context.Background(), mock, "p1", 99); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestDataTable_FilteredEmptyPage(t *testing.T) {
	mock := newMock(t)
	store := &Store{DB: mock}

	req := datatable.Request{
		Draw:   7,
		Start:  0,
		Length: 10,
		Search: "zzz",
		Columns: []datatable.Column{
			{Data: "name", Searchable: true, Orderable: true},
		},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE`)).
		WithArgs("%zzz%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	// no valid sort directive: the default order applies
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT 10 OFFSET 0`)).
		WithArgs("%zzz%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "price", "stock", "created_at", "updated_at"}))

	resp, err := store.DataTable(context.Background(), req)
	if err != nil {
		t.Fatalf("DataTable: %v", err)
	}
	if resp.Draw != 7 {
		t.Fatalf("draw = %d", resp.Draw)
	}
	if resp.RecordsTotal != 10 || resp.RecordsFiltered != 0 {
		t.Fatalf("counts = %d/%d, want 10/0", resp.RecordsTotal, resp.RecordsFiltered)
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Fatalf("data = %#v, want empty non-nil slice", resp.Data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDataTable_SortedPage(t *testing.T) {
	mock := newMock(t)
	store := &Store{DB: mock}

	req := datatable.Request{
		Draw:   1,
		Start:  10,
		Length: 5,
		Columns: []datatable.Column{
			{Data: "price", Orderable: true},
		},
		Sorts: []datatable.Sort{{Column: 0, Dir: "DESC"}},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY price DESC LIMIT 5 OFFSET 10`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "price", "stock", "created_at", "updated_at"}).
			AddRow("p1", "Widget", "", decimal.NewFromInt(10), 5, testTime, testTime))

	resp, err := store.DataTable(context.Background(), req)
	if err != nil {
		t.Fatalf("DataTable: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Widget" {
		t.Fatalf("data = %+v", resp.Data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
