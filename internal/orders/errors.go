package orders

import (
	"errors"
	"fmt"

	"github.com/ariefcatur/go-retail-backend.git/internal/catalog"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Stock/product failures are owned by catalog; aliased here so callers
	// handle one taxonomy.
	ErrProductNotFound = catalog.ErrProductNotFound
	ErrOutOfStock      = catalog.ErrOutOfStock
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
