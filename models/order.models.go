package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the fulfillment stage of an order, independent of payment.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "Order Placed"
	StatusPacking        OrderStatus = "Packing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for delivery"
	StatusDelivered      OrderStatus = "Delivered"
)

var statusRank = map[OrderStatus]int{
	StatusPlaced:         0,
	StatusPacking:        1,
	StatusShipped:        2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

// Valid reports whether s is one of the known fulfillment states.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AtOrBefore returns s and every status that precedes it, in sequence order.
func (s OrderStatus) AtOrBefore() []OrderStatus {
	var out []OrderStatus
	for _, st := range []OrderStatus{StatusPlaced, StatusPacking, StatusShipped, StatusOutForDelivery, StatusDelivered} {
		if !s.Before(st) {
			out = append(out, st)
		}
	}
	return out
}

// Before reports whether s comes earlier than other in the fulfillment sequence.
func (s OrderStatus) Before(other OrderStatus) bool {
	return statusRank[s] < statusRank[other]
}

// LineItem is one product reference within an order. Name and UnitPrice are
// copied from the catalog when the order is placed and never re-read.
type LineItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UnitPrice float64            `bson:"unit_price" json:"unitPrice"`
}

// Order represents a customer's purchase and its fulfillment/payment state
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CustomerID       primitive.ObjectID `bson:"user_id" json:"userId"`
	Items            []LineItem         `bson:"items" json:"items"`
	Address          Address            `bson:"address" json:"address"`
	TotalAmount      float64            `bson:"total_amount" json:"amount"`
	PaymentMethod    PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	PaymentConfirmed bool               `bson:"payment" json:"payment"`
	Status           OrderStatus        `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"created_at" json:"date"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Page bounds a listing query.
type Page struct {
	Limit  int64
	Offset int64
}
