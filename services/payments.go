package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront/models"
	"storefront/payment"
	"storefront/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const deliveryLineName = "Delivery Charges"

// PaymentOptions are the settlement policies taken from configuration.
type PaymentOptions struct {
	Currency                 string
	DeliveryChargeMinorUnits int64
	// DiscardUnpaidGatewayOrders deletes a gateway order whose payment failed
	// or was abandoned. When false the order is kept unpaid.
	DiscardUnpaidGatewayOrders bool
}

// PaymentService opens hosted checkouts for gateway orders and applies the
// payment outcome reported on the buyer's return.
type PaymentService struct {
	orders  repository.OrderStore
	carts   repository.CartStore
	gateway payment.Gateway
	opts    PaymentOptions
	log     *logrus.Logger
	now     func() time.Time
}

func NewPaymentService(stores repository.Stores, gateway payment.Gateway, opts PaymentOptions, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		orders:  stores.Orders,
		carts:   stores.Carts,
		gateway: gateway,
		opts:    opts,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateGatewaySession requests a hosted checkout for order and returns the
// redirect URL. On failure the order is left untouched so the caller can retry.
func (s *PaymentService) CreateGatewaySession(ctx context.Context, order *models.Order, origin string) (*models.CheckoutSession, error) {
	if order.PaymentMethod != models.PaymentGateway {
		return nil, models.Invalid("order %s is not a gateway order", order.ID.Hex())
	}
	if order.PaymentConfirmed {
		return nil, models.Invalid("order %s is already paid", order.ID.Hex())
	}
	req, err := s.checkoutRequest(order, origin)
	if err != nil {
		return nil, err
	}

	redirect, err := s.gateway.CreateCheckout(ctx, req)
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID.Hex()).Error("Checkout session creation failed")
		return nil, &models.GatewayError{Provider: s.gateway.Name(), Err: err}
	}
	s.log.WithFields(logrus.Fields{"order_id": order.ID.Hex(), "provider": s.gateway.Name()}).Info("Checkout session created")
	return &models.CheckoutSession{OrderID: order.ID.Hex(), RedirectURL: redirect}, nil
}

// RetryGatewaySession opens a new checkout for an unpaid gateway order.
func (s *PaymentService) RetryGatewaySession(ctx context.Context, customerID, orderID primitive.ObjectID, origin string) (*models.CheckoutSession, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, models.NotFound("order", orderID.Hex())
	}
	return s.CreateGatewaySession(ctx, order, origin)
}

// ReconcileGatewayCallback records the payment outcome. A successful payment
// confirms the order and clears the cart. A failed one discards the order when
// DiscardUnpaidGatewayOrders is set; an order that is already gone counts as
// reconciled.
func (s *PaymentService) ReconcileGatewayCallback(ctx context.Context, orderID primitive.ObjectID, succeeded bool, customerID primitive.ObjectID) error {
	entry := s.log.WithFields(logrus.Fields{"order_id": orderID.Hex(), "succeeded": succeeded})

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if !succeeded && isNotFound(err) {
			entry.Info("Order already reconciled")
			return nil
		}
		return err
	}
	if order.CustomerID != customerID {
		return models.NotFound("order", orderID.Hex())
	}
	if order.PaymentMethod != models.PaymentGateway {
		return models.Invalid("order %s is not a gateway order", orderID.Hex())
	}

	if succeeded {
		if _, err := s.orders.ConfirmPayment(ctx, orderID, s.now()); err != nil {
			return err
		}
		entry.Info("Payment confirmed")
		if err := s.carts.Clear(ctx, customerID); err != nil {
			entry.WithError(err).Warn("Failed to clear cart after payment")
		}
		return nil
	}

	if order.PaymentConfirmed {
		entry.Warn("Ignoring failed callback for a paid order")
		return nil
	}
	if !s.opts.DiscardUnpaidGatewayOrders {
		entry.Info("Payment failed, keeping unpaid order")
		return nil
	}
	deleted, err := s.orders.DeleteUnpaid(ctx, orderID)
	switch {
	case isNotFound(err):
		entry.Info("Order already reconciled")
	case err != nil:
		return err
	case !deleted:
		entry.Warn("Ignoring failed callback for a paid order")
	default:
		entry.Info("Payment failed, unpaid order discarded")
	}
	return nil
}

func (s *PaymentService) checkoutRequest(order *models.Order, origin string) (payment.CheckoutRequest, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
		return payment.CheckoutRequest{}, models.Invalid("invalid origin %q", origin)
	}

	lines := make([]payment.Line, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lines = append(lines, payment.Line{
			Name:       item.Name,
			UnitAmount: toMinorUnits(item.UnitPrice),
			Quantity:   int64(item.Quantity),
		})
	}
	lines = append(lines, payment.Line{
		Name:       deliveryLineName,
		UnitAmount: s.opts.DeliveryChargeMinorUnits,
		Quantity:   1,
	})

	id := order.ID.Hex()
	return payment.CheckoutRequest{
		OrderID:    id,
		CustomerID: order.CustomerID.Hex(),
		Currency:   s.opts.Currency,
		Lines:      lines,
		SuccessURL: fmt.Sprintf("%s/verify?success=true&orderId=%s", origin, id),
		CancelURL:  fmt.Sprintf("%s/verify?success=false&orderId=%s", origin, id),
	}, nil
}

func isNotFound(err error) bool {
	var nf *models.NotFoundError
	return errors.As(err, &nf)
}
