package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("out_for_delivery")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusOutForDelivery, status)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusClaimed.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.True(t, RequestStatusCompleted.IsTerminal())
	assert.True(t, RequestStatusDeclined.IsTerminal())
	assert.False(t, RequestStatusQuoted.IsTerminal())
}

func TestPaymentMethodPrepaid(t *testing.T) {
	assert.False(t, PaymentMethodCOD.IsPrepaid())
	assert.True(t, PaymentMethodGCash.IsPrepaid())
	assert.True(t, PaymentMethodBankTransfer.IsPrepaid())
}

func TestRequestKindNumberPrefix(t *testing.T) {
	assert.Equal(t, "ORD", RequestKindOrder.NumberPrefix())
	assert.Equal(t, "BKG", RequestKindBooking.NumberPrefix())
	assert.Equal(t, "SPL", RequestKindSpecial.NumberPrefix())
	assert.Equal(t, "CST", RequestKindCustomized.NumberPrefix())
}

func TestParseNotificationTypeFallsBackToDefault(t *testing.T) {
	parsed, err := ParseNotificationType("promo_blast")
	assert.Error(t, err)
	assert.Equal(t, NotificationTypeDefault, parsed)
}

func TestParseDeliveryMethod(t *testing.T) {
	method, err := ParseDeliveryMethod("pickup")
	require.NoError(t, err)
	assert.Equal(t, DeliveryMethodPickup, method)

	_, err = ParseDeliveryMethod("courier")
	assert.Error(t, err)
}
