package enums

import "fmt"

// OrderStatus mirrors the OMS order lifecycle. Transitions are monotonic and
// owned by the OMS service; the gateway only uses the status to decide which
// action buttons a view may show.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusApproved,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// CanApprove reports whether a CSR approve action is legal for this status.
func (o OrderStatus) CanApprove() bool {
	return o == OrderStatusCreated
}

// CanPay reports whether a customer pay action is legal for this status.
func (o OrderStatus) CanPay() bool {
	return o == OrderStatusApproved
}

// CanShip reports whether a logistics ship action is legal for this status.
func (o OrderStatus) CanShip() bool {
	return o == OrderStatusPaid
}

// CanCancel reports whether a customer cancel action is legal for this status.
func (o OrderStatus) CanCancel() bool {
	return o == OrderStatusCreated
}

// Terminal reports whether no further transitions exist.
func (o OrderStatus) Terminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCanceled
}
