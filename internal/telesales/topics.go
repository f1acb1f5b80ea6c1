package telesales

const (
	TopicOrderCreated   = "telesales.order.created"
	TopicOrderConfirmed = "telesales.order.confirmed"
)

// Partition key = order number, so all events for one order stay ordered.
func PartitionKey(number string) []byte { return []byte(number) }
