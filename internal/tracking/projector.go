package tracking

import (
	"time"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
)

// CurrentCancelled is the sentinel index for declined/cancelled records. It is
// not a position on the timeline; renderers show a dedicated marker instead.
const CurrentCancelled = -1

// StepKey identifies a timeline stage independent of its display label.
type StepKey string

const (
	StepReceived         StepKey = "received"
	StepQuoted           StepKey = "quoted"
	StepAccepted         StepKey = "accepted"
	StepPreparing        StepKey = "preparing"
	StepPayment          StepKey = "payment"
	StepReadyForDelivery StepKey = "ready_for_delivery"
	StepOutForDelivery   StepKey = "out_for_delivery"
	StepReadyForPickup   StepKey = "ready_for_pickup"
	StepDelivered        StepKey = "delivered"
	StepClaimed          StepKey = "claimed"
)

// Record is the read-only projection of an order or request consumed by the
// projector. Status is the raw persisted string; it may hold values this
// package has never seen.
type Record struct {
	Status         string
	DeliveryMethod enums.DeliveryMethod
	PaymentMethod  enums.PaymentMethod
	PaymentStatus  enums.PaymentStatus
	CreatedAt      time.Time
}

// Step is one labeled stage on a timeline. IDs are 1-based and sequential.
type Step struct {
	ID    int     `json:"id"`
	Key   StepKey `json:"key"`
	Label string  `json:"label"`
}

// Timeline is the full projection result.
type Timeline struct {
	Steps        []Step `json:"steps"`
	CurrentIndex int    `json:"currentIndex"`
}

// StepState is the derived rendering state of one step.
type StepState string

const (
	StepStateCompleted StepState = "completed"
	StepStateCurrent   StepState = "current"
	StepStateUpcoming  StepState = "upcoming"
	StepStateCancelled StepState = "cancelled"
)

var stepLabels = map[StepKey]string{
	StepReceived:         "Order Received",
	StepQuoted:           "Quote Sent",
	StepAccepted:         "Quote Accepted",
	StepPreparing:        "Preparing",
	StepPayment:          "Payment",
	StepReadyForDelivery: "Ready for Delivery",
	StepOutForDelivery:   "Out for Delivery",
	StepReadyForPickup:   "Ready for Pickup",
	StepDelivered:        "Delivered",
	StepClaimed:          "Claimed",
}

// baseSteps holds the fixed step sequence per (flow, delivery method), before
// the payment step is spliced in.
var baseSteps = map[enums.RequestKind]map[enums.DeliveryMethod][]StepKey{
	enums.RequestKindOrder: {
		enums.DeliveryMethodDelivery: {StepReceived, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepDelivered},
		enums.DeliveryMethodPickup:   {StepReceived, StepPreparing, StepReadyForPickup, StepClaimed},
	},
	enums.RequestKindBooking: {
		enums.DeliveryMethodDelivery: {StepReceived, StepQuoted, StepAccepted, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepDelivered},
		enums.DeliveryMethodPickup:   {StepReceived, StepQuoted, StepAccepted, StepPreparing, StepReadyForPickup, StepClaimed},
	},
	enums.RequestKindSpecial: {
		enums.DeliveryMethodDelivery: {StepReceived, StepQuoted, StepAccepted, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepDelivered},
		enums.DeliveryMethodPickup:   {StepReceived, StepQuoted, StepAccepted, StepPreparing, StepReadyForPickup, StepClaimed},
	},
	enums.RequestKindCustomized: {
		enums.DeliveryMethodDelivery: {StepReceived, StepQuoted, StepAccepted, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepDelivered},
		enums.DeliveryMethodPickup:   {StepReceived, StepQuoted, StepAccepted, StepPreparing, StepReadyForPickup, StepClaimed},
	},
}

// orderStatusSteps maps persisted order statuses onto step keys. Terminal
// statuses are resolved before this table is consulted.
var orderStatusSteps = map[string]StepKey{
	string(enums.OrderStatusPending):          StepReceived,
	string(enums.OrderStatusProcessing):       StepPreparing,
	string(enums.OrderStatusReadyForDelivery): StepReadyForDelivery,
	string(enums.OrderStatusOutForDelivery):   StepOutForDelivery,
	string(enums.OrderStatusReadyForPickup):   StepReadyForPickup,
}

var requestStatusSteps = map[string]StepKey{
	string(enums.RequestStatusPending):          StepReceived,
	string(enums.RequestStatusQuoted):           StepQuoted,
	string(enums.RequestStatusAccepted):         StepAccepted,
	string(enums.RequestStatusProcessing):       StepPreparing,
	string(enums.RequestStatusReadyForDelivery): StepReadyForDelivery,
	string(enums.RequestStatusOutForDelivery):   StepOutForDelivery,
	string(enums.RequestStatusReadyForPickup):   StepReadyForPickup,
}

var successStatuses = map[string]struct{}{
	string(enums.OrderStatusDelivered):   {},
	string(enums.OrderStatusClaimed):     {},
	string(enums.RequestStatusCompleted): {},
}

var failureStatuses = map[string]struct{}{
	string(enums.OrderStatusCancelled):  {},
	string(enums.RequestStatusDeclined): {},
}

// Project maps a record onto its flow's timeline. It is pure: no IO, no
// clocks, and it never fails. Unknown statuses resolve to the first step.
func Project(record Record, flow enums.RequestKind) Timeline {
	keys := stepKeysFor(flow, record)
	steps := make([]Step, len(keys))
	for i, key := range keys {
		steps[i] = Step{ID: i + 1, Key: key, Label: stepLabels[key]}
	}

	return Timeline{
		Steps:        steps,
		CurrentIndex: currentIndex(record, flow, steps),
	}
}

// StateOf derives the rendering state of one step against the timeline.
func StateOf(step Step, timeline Timeline) StepState {
	if timeline.CurrentIndex == CurrentCancelled {
		return StepStateCancelled
	}
	switch {
	case step.ID < timeline.CurrentIndex:
		return StepStateCompleted
	case step.ID == timeline.CurrentIndex:
		return StepStateCurrent
	default:
		return StepStateUpcoming
	}
}

func stepKeysFor(flow enums.RequestKind, record Record) []StepKey {
	byMethod, ok := baseSteps[flow]
	if !ok {
		byMethod = baseSteps[enums.RequestKindOrder]
	}
	base, ok := byMethod[record.DeliveryMethod]
	if !ok {
		base = byMethod[enums.DeliveryMethodDelivery]
	}

	pos := paymentPosition(record.DeliveryMethod, record.PaymentMethod, len(base))
	keys := make([]StepKey, 0, len(base)+1)
	keys = append(keys, base[:pos]...)
	keys = append(keys, StepPayment)
	keys = append(keys, base[pos:]...)
	return keys
}

// paymentPosition returns the splice index of the payment step within the base
// sequence. The position tracks when payment is actually expected:
//
//	pickup + cod      -> immediately before the final claimed step
//	pickup + prepaid  -> immediately after the received step
//	delivery + gcash  -> immediately after the received step
//	delivery + other  -> immediately before the delivered step
func paymentPosition(method enums.DeliveryMethod, payment enums.PaymentMethod, baseLen int) int {
	if method == enums.DeliveryMethodPickup {
		if payment.IsPrepaid() {
			return 1
		}
		return baseLen - 1
	}
	if payment == enums.PaymentMethodGCash {
		return 1
	}
	return baseLen - 1
}

func currentIndex(record Record, flow enums.RequestKind, steps []Step) int {
	if _, ok := successStatuses[record.Status]; ok {
		return len(steps) + 1
	}
	if _, ok := failureStatuses[record.Status]; ok {
		return CurrentCancelled
	}

	table := requestStatusSteps
	if flow == enums.RequestKindOrder {
		table = orderStatusSteps
	}

	index := 1
	if key, ok := table[record.Status]; ok {
		for _, step := range steps {
			if step.Key == key {
				index = step.ID
				break
			}
		}
	}

	// Prepaid flows hold the displayed position at the payment step until the
	// payment is confirmed, regardless of how far fulfillment has advanced.
	if record.PaymentMethod.IsPrepaid() && record.PaymentStatus != enums.PaymentStatusPaid {
		for _, step := range steps {
			if step.Key == StepPayment {
				if index > step.ID {
					index = step.ID
				}
				break
			}
		}
	}

	return index
}
