package types

import "strings"

// DeliveryAddress is the address snapshot frozen onto an order at checkout.
// Stored as jsonb; the customer's address book row may change afterwards
// without affecting placed orders.
type DeliveryAddress struct {
	RecipientName  string  `json:"recipient_name"`
	RecipientPhone string  `json:"recipient_phone"`
	Line1          string  `json:"line1"`
	Barangay       string  `json:"barangay,omitempty"`
	City           string  `json:"city"`
	Province       string  `json:"province"`
	PostalCode     string  `json:"postal_code,omitempty"`
	Landmark       *string `json:"landmark,omitempty"`
}

// Validate reports the missing required fields, empty when complete.
func (a DeliveryAddress) Validate() []string {
	missing := []string{}
	if strings.TrimSpace(a.RecipientName) == "" {
		missing = append(missing, "recipient_name")
	}
	if strings.TrimSpace(a.RecipientPhone) == "" {
		missing = append(missing, "recipient_phone")
	}
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.Province) == "" {
		missing = append(missing, "province")
	}
	return missing
}
