package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-retail-backend.git/internal/cart"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
)

func TestErrStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", orders.ErrOrderNotFound, http.StatusNotFound},
		{"product not found", orders.ErrProductNotFound, http.StatusNotFound},
		{"cart item not found", cart.ErrItemNotFound, http.StatusNotFound},
		{"out of stock", orders.ErrOutOfStock, http.StatusConflict},
		{"wrapped out of stock", fmt.Errorf("%w for product %q", orders.ErrOutOfStock, "Widget"), http.StatusConflict},
		{"invalid transition", orders.ErrInvalidTransition, http.StatusConflict},
		{"wrapped invalid transition", fmt.Errorf("%w: approved order cannot be rejected", orders.ErrInvalidTransition), http.StatusConflict},
		{"empty cart", orders.ErrEmptyCart, http.StatusBadRequest},
		{"validation", orders.ValidationError{Field: "quantity", Reason: "must be at least 1"}, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errStatus(tc.err); got != tc.want {
				t.Fatalf("errStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestWriteErrBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, orders.ErrEmptyCart)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("missing error message")
	}
}

func TestUserIDHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if userID(r) != "" {
		t.Fatal("expected empty identity without header")
	}
	r.Header.Set("X-User-Id", "u1")
	if userID(r) != "u1" {
		t.Fatalf("userID = %q", userID(r))
	}
}
