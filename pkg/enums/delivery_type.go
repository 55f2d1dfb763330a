package enums

import (
	"fmt"
	"strings"
)

// DeliveryType tells whether a delivery unit moved equipment onto a site or
// brought it back.
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypeReturn   DeliveryType = "return"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeDelivery,
	DeliveryTypeReturn,
}

// Form codes used by the building site action form.
const (
	deliveryTypeFormDelivery = "1"
	deliveryTypeFormReturn   = "2"
)

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// Sign is +1 for deliveries and -1 for returns.
func (d DeliveryType) Sign() int {
	if d == DeliveryTypeReturn {
		return -1
	}
	return 1
}

// ParseDeliveryType accepts the canonical names as well as the numeric form
// codes ("1" delivery, "2" return).
func ParseDeliveryType(value string) (DeliveryType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case deliveryTypeFormDelivery:
		return DeliveryTypeDelivery, nil
	case deliveryTypeFormReturn:
		return DeliveryTypeReturn, nil
	}
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}

// DeliveryTypeForCount infers the type from a signed quantity.
func DeliveryTypeForCount(count int) DeliveryType {
	if count < 0 {
		return DeliveryTypeReturn
	}
	return DeliveryTypeDelivery
}
