package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in the cart
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart represents a user's shopping cart
type Cart struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id" json:"userId"`
	Items  []CartItem         `bson:"items" json:"items"`
}

// Merge adds item to the cart, summing quantities for the same product and size.
func (c *Cart) Merge(item CartItem) {
	for i, existing := range c.Items {
		if existing.ProductID == item.ProductID && existing.Size == item.Size {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove drops every entry for productID. An empty size removes all sizes.
func (c *Cart) Remove(productID primitive.ObjectID, size string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID == productID && (size == "" || item.Size == size) {
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
}
