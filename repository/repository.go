// Package repository persists orders, products, carts and users.
package repository

import (
	"context"
	"time"

	"storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStore persists orders. Every write targets a single document.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// UpdateStatus sets the status. When from is non-empty the write only
	// applies if the current status is one of them; otherwise it fails with
	// a ValidationError and the order is unchanged.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, at time.Time, from ...models.OrderStatus) (*models.Order, error)
	ConfirmPayment(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Order, error)
	// DeleteUnpaid removes the order only if its payment is unconfirmed, as
	// one atomic step. It reports false when the order exists but is paid.
	DeleteUnpaid(ctx context.Context, id primitive.ObjectID) (bool, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, page models.Page) ([]models.Order, error)
	List(ctx context.Context, page models.Page) ([]models.Order, error)
	TopSelling(ctx context.Context, limit int) ([]models.SalesTally, error)
}

// ProductStore is the catalog.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
}

// CartStore keeps one active cart per user.
type CartStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// UserStore holds customer and admin accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}

// Stores groups the stores of one backend.
type Stores struct {
	Orders   OrderStore
	Products ProductStore
	Carts    CartStore
	Users    UserStore
}
