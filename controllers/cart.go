package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/models"
	"storefront/repository"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartController handles cart-related requests
type CartController struct {
	Carts    repository.CartStore
	Products repository.ProductStore
	Timeout  time.Duration
	Log      *logrus.Logger
}

// NewCartController creates a new CartController
func NewCartController(carts repository.CartStore, products repository.ProductStore, timeout time.Duration, logger *logrus.Logger) *CartController {
	return &CartController{
		Carts:    carts,
		Products: products,
		Timeout:  timeout,
		Log:      logger,
	}
}

func (cc *CartController) loadCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := cc.Carts.Get(ctx, userID)
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	return cart, err
}

// AddToCart adds a product to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var item models.CartItem
	if err := decodeBody(r, &item); err != nil {
		writeError(w, cc.Log, err)
		return
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()
	if _, err := cc.Products.Get(ctx, item.ProductID); err != nil {
		writeError(w, cc.Log, err)
		return
	}
	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		writeError(w, cc.Log, err)
		return
	}
	cart.Merge(item)
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, cc.Log, err)
		return
	}
	ok(w, envelope{"message": "Added To Cart", "cart": cart})
}

// RemoveFromCart removes a product from the user's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	productID, err := parseObjectID("product", mux.Vars(r)["product_id"])
	if err != nil {
		writeError(w, cc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()
	cart, err := cc.Carts.Get(ctx, userID)
	if err != nil {
		writeError(w, cc.Log, err)
		return
	}
	cart.Remove(productID, r.URL.Query().Get("size"))
	if err := cc.Carts.Save(ctx, cart); err != nil {
		writeError(w, cc.Log, err)
		return
	}
	ok(w, envelope{"message": "Item removed from cart", "cart": cart})
}

// GetCart retrieves the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		writeError(w, cc.Log, err)
		return
	}
	ok(w, envelope{"cart": cart})
}
