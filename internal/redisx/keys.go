package redisx

import (
	"fmt"
	"time"
)

const (
	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

// StatusBody is the JSON cached under KeyOrderStatus. Status values are
// fixed uppercase tokens, no escaping needed.
func StatusBody(status string) string {
	return fmt.Sprintf(`{"status":%q}`, status)
}
