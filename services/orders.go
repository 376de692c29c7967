package services

import (
	"context"
	"time"

	"storefront/models"
	"storefront/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier accepts outbound notification tasks after a state change commits.
type Notifier interface {
	Enqueue(task NotificationTask) error
}

// OrderOptions are the lifecycle policies taken from configuration.
type OrderOptions struct {
	DeliveryChargeMinorUnits int64
	// StrictStatusTransitions rejects moves back to an earlier fulfillment stage.
	StrictStatusTransitions bool
}

// PlaceOrderInput is a checkout submission.
type PlaceOrderInput struct {
	CustomerID  primitive.ObjectID
	Items       []models.CartItem
	Address     models.Address
	TotalAmount float64
	Method      models.PaymentMethod
}

// OrderService creates orders and moves them through fulfillment.
type OrderService struct {
	orders   repository.OrderStore
	products repository.ProductStore
	carts    repository.CartStore
	notifier Notifier
	opts     OrderOptions
	log      *logrus.Logger
	now      func() time.Time
}

func NewOrderService(stores repository.Stores, notifier Notifier, opts OrderOptions, logger *logrus.Logger) *OrderService {
	return &OrderService{
		orders:   stores.Orders,
		products: stores.Products,
		carts:    stores.Carts,
		notifier: notifier,
		opts:     opts,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder validates the submission, snapshots catalog names and prices into
// the line items and persists the order as Placed and unpaid. Cash orders
// clear the customer's cart; gateway orders clear it on payment.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if in.CustomerID.IsZero() {
		return nil, models.Invalid("invalid customer id")
	}
	if len(in.Items) == 0 {
		return nil, models.Invalid("order must contain at least one item")
	}
	if !in.Method.Valid() {
		return nil, models.Invalid("invalid payment method %q", in.Method)
	}
	ids := make([]primitive.ObjectID, 0, len(in.Items))
	for i, item := range in.Items {
		if item.ProductID.IsZero() {
			return nil, models.Invalid("item %d: invalid product id", i)
		}
		if item.Quantity <= 0 {
			return nil, models.Invalid("item %d (product %s): quantity must be positive", i, item.ProductID.Hex())
		}
		ids = append(ids, item.ProductID)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lineItems := make([]models.LineItem, 0, len(in.Items))
	for _, item := range in.Items {
		product, ok := catalog[item.ProductID]
		if !ok {
			return nil, models.NotFound("product", item.ProductID.Hex())
		}
		if item.Size != "" && len(product.Sizes) > 0 && !containsString(product.Sizes, item.Size) {
			return nil, models.Invalid("size %q is not available for %s", item.Size, product.Name)
		}
		lineItems = append(lineItems, models.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	totalMinor := orderTotalMinorUnits(lineItems, s.opts.DeliveryChargeMinorUnits)
	if toMinorUnits(in.TotalAmount) != totalMinor {
		return nil, models.Invalid("total amount %.2f does not match order total %.2f", in.TotalAmount, fromMinorUnits(totalMinor))
	}

	now := s.now()
	order := &models.Order{
		CustomerID:    in.CustomerID,
		Items:         lineItems,
		Address:       in.Address,
		TotalAmount:   fromMinorUnits(totalMinor),
		PaymentMethod: in.Method,
		Status:        models.StatusPlaced,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"customer": in.CustomerID.Hex(),
		"method":   in.Method,
		"total":    order.TotalAmount,
	}).Info("Order placed")

	if in.Method == models.PaymentCOD {
		s.clearCart(ctx, in.CustomerID)
	}
	return order, nil
}

// TransitionStatus sets the fulfillment status and enqueues a customer
// notification. The update is final even when the notification cannot be
// queued or sent.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, models.Invalid("invalid order status %q", status)
	}
	var from []models.OrderStatus
	if s.opts.StrictStatusTransitions {
		from = status.AtOrBefore()
	}

	at := s.now()
	order, err := s.orders.UpdateStatus(ctx, orderID, status, at, from...)
	if err != nil {
		return nil, err
	}
	entry := s.log.WithFields(logrus.Fields{"order_id": orderID.Hex(), "status": status})
	entry.Info("Order status updated")

	task := NotificationTask{OrderID: order.ID, CustomerID: order.CustomerID, Status: status, At: at}
	if err := s.notifier.Enqueue(task); err != nil {
		entry.WithError(err).Warn("Could not queue status notification")
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// ListOrdersForCustomer returns the customer's orders, newest first.
func (s *OrderService) ListOrdersForCustomer(ctx context.Context, customerID primitive.ObjectID, page models.Page) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, normalizePage(page))
}

// ListAllOrders returns every order, newest first.
func (s *OrderService) ListAllOrders(ctx context.Context, page models.Page) ([]models.Order, error) {
	return s.orders.List(ctx, normalizePage(page))
}

func (s *OrderService) clearCart(ctx context.Context, customerID primitive.ObjectID) {
	if err := s.carts.Clear(ctx, customerID); err != nil {
		s.log.WithError(err).WithField("customer", customerID.Hex()).Warn("Failed to clear cart after order")
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
