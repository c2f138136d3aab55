package orders

const (
	TopicOrderCreated      = "order.created"
	TopicOrderApproved     = "order.approved"
	TopicOrderRejected     = "order.rejected"
	TopicCheckoutCompleted = "order.checkout.completed"
)

// Partition key = order_id, so every event for one order stays ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
