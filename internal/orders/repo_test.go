package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
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

func productRow(id, name string, price int64, stock int) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "description", "price", "stock", "created_at", "updated_at"}).
		AddRow(id, name, "", decimal.NewFromInt(price), stock, testTime, testTime)
}

func orderRow(id, userID, productID string, qty int, total int64, status Status) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "total_price", "status", "created_at", "updated_at"}).
		AddRow(id, userID, productID, qty, decimal.NewFromInt(total), status, testTime, testTime)
}

func TestCreate_SuccessDoesNotTouchStock(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products`)).
		WithArgs("p1").
		WillReturnRows(productRow("p1", "Widget", 10, 5))
	// validation only: no UPDATE on products may appear before the insert
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(pgxmock.AnyArg(), "u1", "p1", 3, pgxmock.AnyArg(), StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testTime, testTime))
	mock.ExpectCommit()

	o, err := repo.Create(context.Background(), "u1", "p1", 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("status = %s", o.Status)
	}
	if !o.TotalPrice.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("totalPrice = %s, want 30", o.TotalPrice)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_InvalidQuantity(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	var ve ValidationError
	if _, err := repo.Create(context.Background(), "u1", "p1", 0); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no queries expected: %v", err)
	}
}

func TestCreate_OutOfStock(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products`)).
		WithArgs("p1").
		WillReturnRows(productRow("p1", "Widget", 10, 2))
	mock.ExpectRollback()

	if _, err := repo.Create(context.Background(), "u1", "p1", 3); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_ProductMissing(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products`)).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	if _, err := repo.Create(context.Background(), "u1", "nope", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestApprove_PendingDecrementsStock(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1 FOR UPDATE`)).
		WithArgs("o1").
		WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, StatusPending))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1 FOR UPDATE`)).
		WithArgs("p1").
		WillReturnRows(productRow("p1", "Widget", 10, 5))
	mock.ExpectExec(regexp.QuoteMeta(`SET stock = stock - $2`)).
		WithArgs("p1", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status=$2`)).
		WithArgs("o1", StatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(testTime))
	mock.ExpectCommit()

	o, err := repo.Approve(context.Background(), "o1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if o.Status != StatusApproved {
		t.Fatalf("status = %s", o.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApprove_AlreadyApprovedIsNoOp(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1 FOR UPDATE`)).
		WithArgs("o1").
		WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, StatusApproved))
	mock.ExpectRollback()

	o, err := repo.Approve(context.Background(), "o1")
	if err != nil {
		t.Fatalf("Approve on approved order must succeed: %v", err)
	}
	if o.Status != StatusApproved {
		t.Fatalf("status = %s", o.Status)
	}
	// no stock read, no decrement: any extra query would be unexpected
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApprove_RejectedFails(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1 FOR UPDATE`)).
		WithArgs("o1").
		WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, StatusRejected))
	mock.ExpectRollback()

	if _, err := repo.Approve(context.Background(), "o1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApprove_OutOfStockLeavesOrderPending(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1 FOR UPDATE`)).
		WithArgs("o1").
		WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, StatusPending))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1 FOR UPDATE`)).
		WithArgs("p1").
		WillReturnRows(productRow("p1", "Widget", 10, 2))
	mock.ExpectRollback()

	if _, err := repo.Approve(context.Background(), "o1"); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	// rollback means no status write happened; the order stays PENDING
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApprove_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1 FOR UPDATE`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	if _, err := repo.Approve(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestReject_PendingAndRejectedBothSucceed(t *testing.T) {
	for _, prev := range []Status{StatusPending, StatusRejected} {
		mock := newMock(t)
		repo := &Repo{DB: mock}

		mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1`)).
			WithArgs("o1").
			WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, prev))
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status=$2`)).
			WithArgs("o1", StatusRejected, StatusApproved).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(testTime))

		o, err := repo.Reject(context.Background(), "o1")
		if err != nil {
			t.Fatalf("Reject from %s: %v", prev, err)
		}
		if o.Status != StatusRejected {
			t.Fatalf("status = %s", o.Status)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	}
}

func TestReject_ApprovedFails(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1`)).
		WithArgs("o1").
		WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, StatusApproved))

	if _, err := repo.Reject(context.Background(), "o1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no update may run: %v", err)
	}
}

func TestReject_RacingApproval(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id=$1`)).
		WithArgs("o1").
		WillReturnRows(orderRow("o1", "u1", "p1", 3, 30, StatusPending))
	// the guarded update matches zero rows because an approval landed in between
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status=$2`)).
		WithArgs("o1", StatusRejected, StatusApproved).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Reject(context.Background(), "o1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Status(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
