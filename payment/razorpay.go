package payment

import (
	"context"
	"errors"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway creates Razorpay Payment Links. Razorpay links carry a single
// amount, so the lines are folded into the total and listed in the description.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	link, err := g.client.PaymentLink.Create(razorpayLinkData(req), nil)
	if err != nil {
		return "", err
	}
	url, ok := link["short_url"].(string)
	if !ok || url == "" {
		return "", errors.New("razorpay returned a payment link without short_url")
	}
	return url, nil
}

func razorpayLinkData(req CheckoutRequest) map[string]interface{} {
	names := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		names = append(names, l.Name)
	}
	return map[string]interface{}{
		"amount":          req.Total(),
		"currency":        strings.ToUpper(req.Currency),
		"reference_id":    req.OrderID,
		"description":     strings.Join(names, ", "),
		"callback_url":    req.SuccessURL,
		"callback_method": "get",
		"notes": map[string]interface{}{
			"order_id":    req.OrderID,
			"customer_id": req.CustomerID,
		},
	}
}
