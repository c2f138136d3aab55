package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-retail-backend.git/internal/datatable"
	kafkax "github.com/ariefcatur/go-retail-backend.git/internal/kafka"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
	"github.com/ariefcatur/go-retail-backend.git/internal/redisx"
)

type OrdersHandler struct {
	Repo     *orders.Repo
	Checkout *orders.CheckoutRepo
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
}

type CreateOrderReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listMyOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/checkout", h.checkout)

	r.Get("/admin/orders", h.adminList)
	r.Get("/admin/orders/datatable", h.adminDataTable)
	r.Post("/admin/orders/{id}/approve", h.approve)
	r.Post("/admin/orders/{id}/reject", h.reject)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user"})
		return
	}
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing product_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.Create(ctx, uid, req.ProductID, req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	h.publish(r, orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
	})

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Checkout.Checkout(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}

	ids := make([]string, 0, len(res.Orders))
	for _, o := range res.Orders {
		ids = append(ids, o.ID)
		h.cacheStatus(ctx, o.ID, o.Status)
		h.publish(r, orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
			OrderID:    o.ID,
			UserID:     o.UserID,
			ProductID:  o.ProductID,
			Quantity:   o.Quantity,
			TotalPrice: o.TotalPrice,
		})
	}
	h.publish(r, orders.TopicCheckoutCompleted, orders.EventCheckoutCompleted, uid, orders.CheckoutCompletedPayload{
		UserID:   uid,
		OrderIDs: ids,
		Total:    res.Total,
	})

	writeJSON(w, http.StatusCreated, res)
}

func (h *OrdersHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	views, err := h.Repo.ListForUser(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache fast path
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	status, err := h.Repo.Status(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	body := redisx.StatusBody(string(status))
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func (h *OrdersHandler) adminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var filter *orders.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := orders.Status(s)
		if !st.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
			return
		}
		filter = &st
	}

	views, err := h.Repo.List(ctx, filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) adminDataTable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req := datatable.Parse(r.URL.Query())
	resp, err := h.Repo.DataTable(ctx, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) approve(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.Approve(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	h.publish(r, orders.TopicOrderApproved, orders.EventOrderApproved, o.ID, orders.OrderApprovedPayload{
		OrderID:   o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
	})

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) reject(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Repo.Reject(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	h.publish(r, orders.TopicOrderRejected, orders.EventOrderRejected, o.ID, orders.OrderRejectedPayload{OrderID: o.ID})

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, status orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, redisx.StatusBody(string(status)), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publish(r *http.Request, topic, eventType, correlationID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(topic, orders.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
