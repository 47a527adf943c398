package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
)

func keysOf(steps []Step) []StepKey {
	keys := make([]StepKey, len(steps))
	for i, step := range steps {
		keys[i] = step.Key
	}
	return keys
}

func TestStepIDsAreSequentialFromOne(t *testing.T) {
	timeline := Project(Record{
		Status:         "pending",
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusToPay,
	}, enums.RequestKindOrder)

	for i, step := range timeline.Steps {
		assert.Equal(t, i+1, step.ID)
		assert.NotEmpty(t, step.Label)
	}
}

func TestPaymentStepPlacement(t *testing.T) {
	cases := []struct {
		name     string
		method   enums.DeliveryMethod
		payment  enums.PaymentMethod
		expected []StepKey
	}{
		{
			name:    "pickup cod puts payment before claimed",
			method:  enums.DeliveryMethodPickup,
			payment: enums.PaymentMethodCOD,
			expected: []StepKey{
				StepReceived, StepPreparing, StepReadyForPickup, StepPayment, StepClaimed,
			},
		},
		{
			name:    "pickup prepaid puts payment after received",
			method:  enums.DeliveryMethodPickup,
			payment: enums.PaymentMethodGCash,
			expected: []StepKey{
				StepReceived, StepPayment, StepPreparing, StepReadyForPickup, StepClaimed,
			},
		},
		{
			name:    "delivery gcash puts payment after received",
			method:  enums.DeliveryMethodDelivery,
			payment: enums.PaymentMethodGCash,
			expected: []StepKey{
				StepReceived, StepPayment, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepDelivered,
			},
		},
		{
			name:    "delivery cod puts payment before delivered",
			method:  enums.DeliveryMethodDelivery,
			payment: enums.PaymentMethodCOD,
			expected: []StepKey{
				StepReceived, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepPayment, StepDelivered,
			},
		},
		{
			name:    "delivery bank transfer puts payment before delivered",
			method:  enums.DeliveryMethodDelivery,
			payment: enums.PaymentMethodBankTransfer,
			expected: []StepKey{
				StepReceived, StepPreparing, StepReadyForDelivery, StepOutForDelivery, StepPayment, StepDelivered,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timeline := Project(Record{
				Status:         "pending",
				DeliveryMethod: tc.method,
				PaymentMethod:  tc.payment,
				PaymentStatus:  enums.PaymentStatusPaid,
			}, enums.RequestKindOrder)
			assert.Equal(t, tc.expected, keysOf(timeline.Steps))
		})
	}
}

func TestRequestFlowsIncludeQuoteSteps(t *testing.T) {
	for _, kind := range []enums.RequestKind{
		enums.RequestKindBooking,
		enums.RequestKindSpecial,
		enums.RequestKindCustomized,
	} {
		timeline := Project(Record{
			Status:         "pending",
			DeliveryMethod: enums.DeliveryMethodDelivery,
			PaymentMethod:  enums.PaymentMethodCOD,
			PaymentStatus:  enums.PaymentStatusToPay,
		}, kind)

		keys := keysOf(timeline.Steps)
		assert.Contains(t, keys, StepQuoted, "kind %s", kind)
		assert.Contains(t, keys, StepAccepted, "kind %s", kind)
	}
}

func TestTerminalSuccessIsStepsLengthPlusOne(t *testing.T) {
	// pickup request completed, regardless of payment fields
	timeline := Project(Record{
		Status:         string(enums.RequestStatusCompleted),
		DeliveryMethod: enums.DeliveryMethodPickup,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusToPay,
	}, enums.RequestKindBooking)

	assert.Equal(t, len(timeline.Steps)+1, timeline.CurrentIndex)

	// delivered order
	timeline = Project(Record{
		Status:         string(enums.OrderStatusDelivered),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodCOD,
		PaymentStatus:  enums.PaymentStatusPaid,
	}, enums.RequestKindOrder)

	assert.Equal(t, len(timeline.Steps)+1, timeline.CurrentIndex)

	// claimed pickup order
	timeline = Project(Record{
		Status:         string(enums.OrderStatusClaimed),
		DeliveryMethod: enums.DeliveryMethodPickup,
		PaymentMethod:  enums.PaymentMethodCOD,
		PaymentStatus:  enums.PaymentStatusPaid,
	}, enums.RequestKindOrder)

	assert.Equal(t, len(timeline.Steps)+1, timeline.CurrentIndex)
}

func TestDeclinedAndCancelledUseSentinel(t *testing.T) {
	timeline := Project(Record{
		Status:         string(enums.RequestStatusDeclined),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusToPay,
	}, enums.RequestKindSpecial)
	assert.Equal(t, CurrentCancelled, timeline.CurrentIndex)

	timeline = Project(Record{
		Status:         string(enums.OrderStatusCancelled),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodCOD,
		PaymentStatus:  enums.PaymentStatusToPay,
	}, enums.RequestKindOrder)
	assert.Equal(t, CurrentCancelled, timeline.CurrentIndex)
}

func TestUnknownStatusDefaultsToFirstStep(t *testing.T) {
	timeline := Project(Record{
		Status:         "freshly_invented_status",
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodCOD,
		PaymentStatus:  enums.PaymentStatusPaid,
	}, enums.RequestKindOrder)

	assert.Equal(t, 1, timeline.CurrentIndex)
}

func TestGCashUnpaidGatesProgressAtPaymentStep(t *testing.T) {
	// delivery order, gcash, waiting for confirmation, fulfillment already at
	// processing: displayed position must stay on the payment step.
	timeline := Project(Record{
		Status:         string(enums.OrderStatusProcessing),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusWaitingForConfirmation,
	}, enums.RequestKindOrder)

	var paymentID int
	for _, step := range timeline.Steps {
		if step.Key == StepPayment {
			paymentID = step.ID
		}
	}
	require.NotZero(t, paymentID)
	assert.Equal(t, paymentID, timeline.CurrentIndex)
}

func TestPartialPaymentStillGates(t *testing.T) {
	timeline := Project(Record{
		Status:         string(enums.OrderStatusProcessing),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusPartiallyPaid,
	}, enums.RequestKindOrder)

	var paymentID int
	for _, step := range timeline.Steps {
		if step.Key == StepPayment {
			paymentID = step.ID
		}
	}
	assert.Equal(t, paymentID, timeline.CurrentIndex)
}

func TestPaidGCashDoesNotGate(t *testing.T) {
	timeline := Project(Record{
		Status:         string(enums.OrderStatusProcessing),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusPaid,
	}, enums.RequestKindOrder)

	var preparingID int
	for _, step := range timeline.Steps {
		if step.Key == StepPreparing {
			preparingID = step.ID
		}
	}
	assert.Equal(t, preparingID, timeline.CurrentIndex)
}

func TestCODUnpaidDoesNotGateEarlySteps(t *testing.T) {
	// COD pays at handover; an unpaid COD order in processing renders at
	// processing, not at the payment step.
	timeline := Project(Record{
		Status:         string(enums.OrderStatusProcessing),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodCOD,
		PaymentStatus:  enums.PaymentStatusToPay,
	}, enums.RequestKindOrder)

	var preparingID int
	for _, step := range timeline.Steps {
		if step.Key == StepPreparing {
			preparingID = step.ID
		}
	}
	assert.Equal(t, preparingID, timeline.CurrentIndex)
}

func TestProjectorIsDeterministic(t *testing.T) {
	record := Record{
		Status:         string(enums.OrderStatusOutForDelivery),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodMaya,
		PaymentStatus:  enums.PaymentStatusPaid,
	}

	first := Project(record, enums.RequestKindOrder)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Project(record, enums.RequestKindOrder))
	}
}

func TestStateOfDerivation(t *testing.T) {
	timeline := Project(Record{
		Status:         string(enums.OrderStatusReadyForDelivery),
		DeliveryMethod: enums.DeliveryMethodDelivery,
		PaymentMethod:  enums.PaymentMethodGCash,
		PaymentStatus:  enums.PaymentStatusPaid,
	}, enums.RequestKindOrder)

	var sawCurrent bool
	for _, step := range timeline.Steps {
		state := StateOf(step, timeline)
		switch {
		case step.ID < timeline.CurrentIndex:
			assert.Equal(t, StepStateCompleted, state)
		case step.ID == timeline.CurrentIndex:
			assert.Equal(t, StepStateCurrent, state)
			sawCurrent = true
		default:
			assert.Equal(t, StepStateUpcoming, state)
		}
	}
	assert.True(t, sawCurrent)
}

func TestStateOfCancelledSentinel(t *testing.T) {
	timeline := Project(Record{
		Status:         string(enums.RequestStatusCancelled),
		DeliveryMethod: enums.DeliveryMethodPickup,
		PaymentMethod:  enums.PaymentMethodCOD,
		PaymentStatus:  enums.PaymentStatusToPay,
	}, enums.RequestKindBooking)

	require.Equal(t, CurrentCancelled, timeline.CurrentIndex)
	for _, step := range timeline.Steps {
		assert.Equal(t, StepStateCancelled, StateOf(step, timeline))
	}
}

func TestEveryKnownStatusResolvesWithoutGate(t *testing.T) {
	for status, key := range orderStatusSteps {
		timeline := Project(Record{
			Status:         status,
			DeliveryMethod: enums.DeliveryMethodDelivery,
			PaymentMethod:  enums.PaymentMethodCOD,
			PaymentStatus:  enums.PaymentStatusToPay,
		}, enums.RequestKindOrder)

		found := false
		for _, step := range timeline.Steps {
			if step.Key == key && step.ID == timeline.CurrentIndex {
				found = true
			}
		}
		if key == StepReadyForPickup {
			// pickup key does not appear on a delivery timeline; falls back
			assert.Equal(t, 1, timeline.CurrentIndex, "status %s", status)
			continue
		}
		assert.True(t, found, "status %s did not resolve to its step", status)
	}
}
