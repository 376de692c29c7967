// Package payment creates hosted checkouts with an external payment provider.
package payment

import (
	"context"
	"fmt"

	"storefront/config"
)

// Line is one priced entry of a checkout, in minor units of Currency.
type Line struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutRequest describes the hosted checkout to create for one order.
type CheckoutRequest struct {
	OrderID    string
	CustomerID string
	Currency   string
	Lines      []Line
	SuccessURL string
	CancelURL  string
}

// Total returns the sum of all lines in minor units.
func (r CheckoutRequest) Total() int64 {
	var total int64
	for _, l := range r.Lines {
		total += l.UnitAmount * l.Quantity
	}
	return total
}

// Gateway creates a hosted checkout and returns the URL to redirect the buyer to.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// NewGateway builds the provider named by PAYMENT_PROVIDER.
func NewGateway(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		return NewStripeGateway(cfg.GatewayAPIKey), nil
	case "razorpay":
		return NewRazorpayGateway(cfg.GatewayAPIKey, cfg.GatewayAPISecret), nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
}
