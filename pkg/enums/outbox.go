package enums

// OutboxEventType names the domain events published through the outbox.
type OutboxEventType string

const (
	EventOrderPlaced          OutboxEventType = "order.placed"
	EventOrderStatusChanged   OutboxEventType = "order.status_changed"
	EventOrderCancelled       OutboxEventType = "order.cancelled"
	EventPaymentConfirmed     OutboxEventType = "order.payment_confirmed"
	EventRequestSubmitted     OutboxEventType = "request.submitted"
	EventRequestQuoted        OutboxEventType = "request.quoted"
	EventRequestStatusChanged OutboxEventType = "request.status_changed"
	EventRequestDeclined      OutboxEventType = "request.declined"
)

// OutboxAggregateType names the aggregate an event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateRequest OutboxAggregateType = "request"
)
