package models

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "COD"
	PaymentGateway PaymentMethod = "Gateway"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentGateway
}

// CheckoutSession is what the client needs to continue a gateway payment.
type CheckoutSession struct {
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"session_url"`
}
