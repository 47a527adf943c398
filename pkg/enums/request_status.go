package enums

import "fmt"

// RequestStatus tracks the lifecycle of bookings, special orders and
// customized bouquet requests. Unlike orders, requests pass through a
// quote/accept negotiation before processing starts.
type RequestStatus string

const (
	RequestStatusPending          RequestStatus = "pending"
	RequestStatusQuoted           RequestStatus = "quoted"
	RequestStatusAccepted         RequestStatus = "accepted"
	RequestStatusProcessing       RequestStatus = "processing"
	RequestStatusReadyForDelivery RequestStatus = "ready_for_delivery"
	RequestStatusOutForDelivery   RequestStatus = "out_for_delivery"
	RequestStatusReadyForPickup   RequestStatus = "ready_for_pickup"
	RequestStatusCompleted        RequestStatus = "completed"
	RequestStatusDeclined         RequestStatus = "declined"
	RequestStatusCancelled        RequestStatus = "cancelled"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusQuoted,
	RequestStatusAccepted,
	RequestStatusProcessing,
	RequestStatusReadyForDelivery,
	RequestStatusOutForDelivery,
	RequestStatusReadyForPickup,
	RequestStatusCompleted,
	RequestStatusDeclined,
	RequestStatusCancelled,
}

// IsTerminal reports whether no further transitions are allowed.
func (r RequestStatus) IsTerminal() bool {
	switch r {
	case RequestStatusCompleted, RequestStatusDeclined, RequestStatusCancelled:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
