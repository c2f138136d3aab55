// Package notifier consumes order lifecycle events: it keeps the redis
// status cache warm for the GET fast path and surfaces low-stock products
// after approvals drain inventory.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-retail-backend.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-retail-backend.git/internal/kafka"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
	"github.com/ariefcatur/go-retail-backend.git/internal/redisx"
)

type Service struct {
	DB                postgres.DB
	Redis             *redis.Client
	ServiceName       string
	LowStockThreshold int
}

// HandleOrderEvent is installed as the consumer handler for all order
// lifecycle topics.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via redis on event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.cacheStatus(ctx, p.OrderID, orders.StatusPending)

	case orders.EventOrderApproved:
		p, err := kafkax.UnwrapPayload[orders.OrderApprovedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.cacheStatus(ctx, p.OrderID, orders.StatusApproved); err != nil {
			return err
		}
		s.warnLowStock(ctx, p.ProductID)
		return nil

	case orders.EventOrderRejected:
		p, err := kafkax.UnwrapPayload[orders.OrderRejectedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.cacheStatus(ctx, p.OrderID, orders.StatusRejected)
	}
	return nil // ignore other event types
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, status orders.Status) error {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	return s.Redis.Set(ctx, key, redisx.StatusBody(string(status)), redisx.TTLStatusCache).Err()
}

func (s *Service) warnLowStock(ctx context.Context, productID string) {
	p, err := catalog.GetProduct(ctx, s.DB, productID)
	if err != nil {
		log.Printf("low-stock check product=%s: %v", productID, err)
		return
	}
	if p.Stock < s.LowStockThreshold {
		log.Printf("low stock: product=%s name=%q remaining=%d", p.ID, p.Name, p.Stock)
	}
}
