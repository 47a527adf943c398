package enums

import "fmt"

// RequestKind names the four tracking flows the storefront renders. Orders
// come out of checkout; the other three are quote-driven requests.
type RequestKind string

const (
	RequestKindOrder      RequestKind = "order"
	RequestKindBooking    RequestKind = "booking"
	RequestKindSpecial    RequestKind = "special"
	RequestKindCustomized RequestKind = "customized"
)

var validRequestKinds = []RequestKind{
	RequestKindOrder,
	RequestKindBooking,
	RequestKindSpecial,
	RequestKindCustomized,
}

// NumberPrefix returns the identifier prefix used when generating
// order/request numbers for this flow.
func (r RequestKind) NumberPrefix() string {
	switch r {
	case RequestKindBooking:
		return "BKG"
	case RequestKindSpecial:
		return "SPL"
	case RequestKindCustomized:
		return "CST"
	default:
		return "ORD"
	}
}

// String implements fmt.Stringer.
func (r RequestKind) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestKind.
func (r RequestKind) IsValid() bool {
	for _, candidate := range validRequestKinds {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRequestKind converts raw input into a RequestKind.
func ParseRequestKind(value string) (RequestKind, error) {
	for _, candidate := range validRequestKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request kind %q", value)
}
