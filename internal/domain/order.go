package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus represents the fulfillment status of an outbound order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAllocating OrderStatus = "allocating"
	OrderStatusAllocated  OrderStatus = "allocated"
	OrderStatusChecked    OrderStatus = "checked"
	OrderStatusShipped    OrderStatus = "shipped"
)

// CanTransitionTo checks if the status can transition to another status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusAllocating},
		OrderStatusAllocating: {OrderStatusAllocated, OrderStatusPending},
		OrderStatusAllocated:  {OrderStatusChecked},
		OrderStatusChecked:    {OrderStatusShipped},
		OrderStatusShipped:    {},
	}
	for _, allowed := range validTransitions[s] {
		if target == allowed {
			return true
		}
	}
	return false
}

// OrderLine names a SKU, lot and required quantity.
type OrderLine struct {
	SKUCode  string `bson:"skuCode" json:"skuCode"`
	LotCode  string `bson:"lotCode,omitempty" json:"lotCode,omitempty"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

// Order represents outbound demand, keyed by a transport number.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number    string             `bson:"number" json:"number"`
	Lines     []OrderLine        `bson:"lines" json:"lines"`
	Status    OrderStatus        `bson:"status" json:"status"`
	Version   int64              `bson:"version" json:"version"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewOrder creates a pending order. Lines with negative quantities are
// rejected; zero-quantity lines are kept but never allocate anything.
func NewOrder(number string, lines []OrderLine) (*Order, error) {
	if number == "" || len(lines) == 0 {
		return nil, ErrInvalidStatusTransition
	}
	for _, l := range lines {
		if l.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
	}
	now := time.Now().UTC()
	return &Order{
		ID:        primitive.NewObjectID(),
		Number:    number,
		Lines:     lines,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (o *Order) transition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// StartAllocation moves the order to the allocating state.
func (o *Order) StartAllocation() error { return o.transition(OrderStatusAllocating) }

// MarkAllocated records that every mission of the order completed.
func (o *Order) MarkAllocated() error { return o.transition(OrderStatusAllocated) }

// MarkChecked records a completed check at the shipping stage.
func (o *Order) MarkChecked() error { return o.transition(OrderStatusChecked) }

// MarkShipped closes the order.
func (o *Order) MarkShipped() error { return o.transition(OrderStatusShipped) }
