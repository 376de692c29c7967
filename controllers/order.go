// controllers/order.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"storefront/models"
	"storefront/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders    *services.OrderService
	Payments  *services.PaymentService
	PublicURL string
	Timeout   time.Duration
	Log       *logrus.Logger
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, payments *services.PaymentService, publicURL string, timeout time.Duration, logger *logrus.Logger) *OrderController {
	return &OrderController{
		Orders:    orders,
		Payments:  payments,
		PublicURL: publicURL,
		Timeout:   timeout,
		Log:       logger,
	}
}

type placeOrderRequest struct {
	Items   []models.CartItem `json:"items"`
	Address models.Address    `json:"address"`
	Amount  float64           `json:"amount"`
}

func (oc *OrderController) decodePlacement(w http.ResponseWriter, r *http.Request, method models.PaymentMethod) (services.PlaceOrderInput, bool) {
	customerID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return services.PlaceOrderInput{}, false
	}
	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, oc.Log, err)
		return services.PlaceOrderInput{}, false
	}
	return services.PlaceOrderInput{
		CustomerID:  customerID,
		Items:       req.Items,
		Address:     req.Address,
		TotalAmount: req.Amount,
		Method:      method,
	}, true
}

// PlaceOrder places a cash-on-delivery order
func (oc *OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	in, valid := oc.decodePlacement(w, r, models.PaymentCOD)
	if !valid {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	order, err := oc.Orders.PlaceOrder(ctx, in)
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ok(w, envelope{"message": "Order Placed", "order": order})
}

// PlaceOrderGateway places an order and opens a hosted checkout for it
func (oc *OrderController) PlaceOrderGateway(w http.ResponseWriter, r *http.Request) {
	in, valid := oc.decodePlacement(w, r, models.PaymentGateway)
	if !valid {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	order, err := oc.Orders.PlaceOrder(ctx, in)
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	session, err := oc.Payments.CreateGatewaySession(ctx, order, oc.origin(r))
	if err != nil {
		// The order stays placed and unpaid; the client may retry with its id.
		w.Header().Set("X-Order-ID", order.ID.Hex())
		writeError(w, oc.Log, err)
		return
	}
	ok(w, envelope{"session_url": session.RedirectURL, "orderId": session.OrderID})
}

// RetryCheckout opens a new hosted checkout for an unpaid gateway order
func (oc *OrderController) RetryCheckout(w http.ResponseWriter, r *http.Request) {
	customerID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID, err := parseObjectID("order", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	session, err := oc.Payments.RetryGatewaySession(ctx, customerID, orderID, oc.origin(r))
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ok(w, envelope{"session_url": session.RedirectURL, "orderId": session.OrderID})
}

// VerifyPayment applies the gateway outcome the buyer returned with. The
// success flag of the response mirrors the payment outcome.
func (oc *OrderController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	customerID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		OrderID string   `json:"orderId"`
		Success flexBool `json:"success"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, oc.Log, err)
		return
	}
	orderID, err := parseObjectID("order", req.OrderID)
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	succeeded := bool(req.Success)
	if err := oc.Payments.ReconcileGatewayCallback(ctx, orderID, succeeded, customerID); err != nil {
		writeError(w, oc.Log, err)
		return
	}
	if !succeeded {
		writeJSON(w, http.StatusOK, envelope{"success": false, "message": "Payment was not completed"})
		return
	}
	ok(w, envelope{"message": "Payment confirmed"})
}

// UserOrders retrieves the authenticated user's orders
func (oc *OrderController) UserOrders(w http.ResponseWriter, r *http.Request) {
	customerID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	orders, err := oc.Orders.ListOrdersForCustomer(ctx, customerID, pageFromQuery(r))
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ok(w, envelope{"orders": orders})
}

// AllOrders lists every order for the admin panel
func (oc *OrderController) AllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	orders, err := oc.Orders.ListAllOrders(ctx, pageFromQuery(r))
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ok(w, envelope{"orders": orders})
}

// UpdateStatus lets an admin move an order to a new fulfillment status
func (oc *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string             `json:"orderId"`
		Status  models.OrderStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, oc.Log, err)
		return
	}
	orderID, err := parseObjectID("order", req.OrderID)
	if err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), oc.Timeout)
	defer cancel()

	if _, err := oc.Orders.TransitionStatus(ctx, orderID, req.Status); err != nil {
		writeError(w, oc.Log, err)
		return
	}
	ok(w, envelope{"message": "Status Updated"})
}

func (oc *OrderController) origin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return oc.PublicURL
}
