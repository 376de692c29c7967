package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/controllers"
	"storefront/models"
	"storefront/payment"
	"storefront/repository"
	"storefront/routes"
	"storefront/services"
	"storefront/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	publicURL      = "http://shop.test"
	deliveryMinor  = 1000
	checkoutURL    = "https://checkout.example/pay/cs_test"
	requestTimeout = 5 * time.Second
)

type fakeGateway struct {
	mu   sync.Mutex
	reqs []payment.CheckoutRequest
	err  error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return "", g.err
	}
	return checkoutURL, nil
}

type sentEmail struct {
	To, Subject, HTML string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (m *captureMailer) SendEmail(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, HTML: html})
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Enqueue(services.NotificationTask) error { return nil }

type testEnv struct {
	router  *mux.Router
	stores  repository.Stores
	issuer  *utils.TokenIssuer
	gateway *fakeGateway
	mailer  *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	stores := repository.NewMemoryStores()
	issuer := utils.NewTokenIssuer("test-secret", time.Hour)
	gw := &fakeGateway{}
	mailer := &captureMailer{}

	orderService := services.NewOrderService(stores, nopNotifier{}, services.OrderOptions{
		DeliveryChargeMinorUnits: deliveryMinor,
	}, logger)
	paymentService := services.NewPaymentService(stores, gw, services.PaymentOptions{
		Currency:                   "inr",
		DeliveryChargeMinorUnits:   deliveryMinor,
		DiscardUnpaidGatewayOrders: true,
	}, logger)
	ranking := services.NewRankingEngine(stores)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, issuer,
		controllers.NewUserController(stores.Users, issuer, mailer, publicURL, requestTimeout, logger),
		controllers.NewProductController(stores.Products, ranking, requestTimeout, logger),
		controllers.NewCartController(stores.Carts, stores.Products, requestTimeout, logger),
		controllers.NewOrderController(orderService, paymentService, publicURL, requestTimeout, logger),
	)
	return &testEnv{router: router, stores: stores, issuer: issuer, gateway: gw, mailer: mailer}
}

func (e *testEnv) token(t *testing.T, userID primitive.ObjectID, role string) string {
	t.Helper()
	tok, err := e.issuer.GenerateJWT(userID.Hex(), userID.Hex()+"@example.com", role)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request and decodes the envelope of the response.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var decoded map[string]interface{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded), rr.Body.String())
	}
	return rr, decoded
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64, sizes ...string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Sizes: sizes, Category: "Women", SubCategory: "Topwear"}
	require.NoError(t, e.stores.Products.Create(context.Background(), p))
	return p
}

func (e *testEnv) seedDelivered(t *testing.T, customer primitive.ObjectID, items ...models.LineItem) *models.Order {
	t.Helper()
	o := &models.Order{
		CustomerID:    customer,
		Items:         items,
		PaymentMethod: models.PaymentCOD,
		Status:        models.StatusDelivered,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, e.stores.Orders.Create(context.Background(), o))
	return o
}

var errProviderDown = errors.New("provider unavailable")
