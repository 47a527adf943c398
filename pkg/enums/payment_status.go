package enums

import "fmt"

// PaymentStatus tracks how far payment has progressed independent of
// fulfillment. partially_paid covers a downpayment recorded by staff before
// the balance is settled.
type PaymentStatus string

const (
	PaymentStatusToPay                  PaymentStatus = "to_pay"
	PaymentStatusWaitingForConfirmation PaymentStatus = "waiting_for_confirmation"
	PaymentStatusPartiallyPaid          PaymentStatus = "partially_paid"
	PaymentStatusPaid                   PaymentStatus = "paid"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusToPay,
	PaymentStatusWaitingForConfirmation,
	PaymentStatusPartiallyPaid,
	PaymentStatusPaid,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
