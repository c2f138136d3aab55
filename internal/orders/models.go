package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// UserView is the sanitized projection of the order's owner. The password
// hash is never selected by any query in this package, so credential
// material cannot leak past the scan layer.
type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ProductView struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderView is what listings return: the order plus its joined relations.
type OrderView struct {
	Order
	Product ProductView `json:"product"`
	User    UserView    `json:"user"`
}

type CheckoutResult struct {
	Orders []OrderView     `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}
