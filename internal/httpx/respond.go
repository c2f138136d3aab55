package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-retail-backend.git/internal/cart"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

// errStatus maps the domain error taxonomy onto HTTP codes. Nothing here is
// fatal: every failure goes back to the caller with its kind.
func errStatus(err error) int {
	var ve orders.ValidationError
	switch {
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrOutOfStock),
		errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, orders.ErrEmptyCart), errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userID pulls the caller identity set by the auth layer in front of this
// service. Empty means unauthenticated.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}
