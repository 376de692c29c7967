package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryStores builds process-local stores. Data is lost on exit; they
// back STORE_DRIVER=memory and the service tests.
func NewMemoryStores() Stores {
	return Stores{
		Orders:   NewMemoryOrderStore(),
		Products: NewMemoryProductStore(),
		Carts:    NewMemoryCartStore(),
		Users:    NewMemoryUserStore(),
	}
}

// MemoryOrderStore keeps orders in a map guarded by a mutex.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[primitive.ObjectID]models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[primitive.ObjectID]models.Order)}
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.LineItem(nil), o.Items...)
	return o
}

func (s *MemoryOrderStore) Create(_ context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.orders[order.ID] = copyOrder(*order)
	s.mu.Unlock()
	return nil
}

func (s *MemoryOrderStore) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.NotFound("order", id.Hex())
	}
	o = copyOrder(o)
	return &o, nil
}

func (s *MemoryOrderStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus, at time.Time, from ...models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.NotFound("order", id.Hex())
	}
	if len(from) > 0 && !containsStatus(from, o.Status) {
		return nil, models.StatusRegression(id.Hex(), o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = at
	s.orders[id] = o
	o = copyOrder(o)
	return &o, nil
}

func containsStatus(list []models.OrderStatus, st models.OrderStatus) bool {
	for _, v := range list {
		if v == st {
			return true
		}
	}
	return false
}

func (s *MemoryOrderStore) ConfirmPayment(_ context.Context, id primitive.ObjectID, at time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.NotFound("order", id.Hex())
	}
	o.PaymentConfirmed = true
	o.UpdatedAt = at
	s.orders[id] = o
	o = copyOrder(o)
	return &o, nil
}

func (s *MemoryOrderStore) DeleteUnpaid(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, models.NotFound("order", id.Hex())
	}
	if o.PaymentConfirmed {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func (s *MemoryOrderStore) ListByCustomer(_ context.Context, customerID primitive.ObjectID, page models.Page) ([]models.Order, error) {
	return s.list(page, func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *MemoryOrderStore) List(_ context.Context, page models.Page) ([]models.Order, error) {
	return s.list(page, func(models.Order) bool { return true }), nil
}

func (s *MemoryOrderStore) list(page models.Page, keep func(models.Order) bool) []models.Order {
	s.mu.RLock()
	orders := []models.Order{}
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	s.mu.RUnlock()

	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID.Hex() > orders[j].ID.Hex()
	})
	return paginate(orders, page)
}

func paginate(orders []models.Order, page models.Page) []models.Order {
	if page.Offset > 0 {
		if page.Offset >= int64(len(orders)) {
			return []models.Order{}
		}
		orders = orders[page.Offset:]
	}
	if page.Limit > 0 && int64(len(orders)) > page.Limit {
		orders = orders[:page.Limit]
	}
	return orders
}

func (s *MemoryOrderStore) TopSelling(_ context.Context, limit int) ([]models.SalesTally, error) {
	s.mu.RLock()
	orders := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	s.mu.RUnlock()
	return models.TallySales(orders, limit), nil
}

// MemoryProductStore is an in-memory catalog.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[primitive.ObjectID]models.Product)}
}

func copyProduct(p models.Product) models.Product {
	p.Sizes = append([]string(nil), p.Sizes...)
	p.Images = append([]string(nil), p.Images...)
	return p
}

func (s *MemoryProductStore) Create(_ context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.products[product.ID] = copyProduct(*product)
	s.mu.Unlock()
	return nil
}

func (s *MemoryProductStore) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, models.NotFound("product", id.Hex())
	}
	p = copyProduct(p)
	return &p, nil
}

func (s *MemoryProductStore) List(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, copyProduct(p))
	}
	s.mu.RUnlock()
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (s *MemoryProductStore) Update(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok {
		return models.NotFound("product", product.ID.Hex())
	}
	updated := copyProduct(*product)
	updated.CreatedAt = existing.CreatedAt
	s.products[product.ID] = updated
	return nil
}

func (s *MemoryProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return models.NotFound("product", id.Hex())
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryProductStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			p := copyProduct(p)
			found[id] = &p
		}
	}
	return found, nil
}

// MemoryCartStore keeps carts keyed by user.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]models.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[primitive.ObjectID]models.Cart)}
}

func (s *MemoryCartStore) Get(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil, models.NotFound("cart", userID.Hex())
	}
	c.Items = append([]models.CartItem(nil), c.Items...)
	return &c, nil
}

func (s *MemoryCartStore) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cart
	if existing, ok := s.carts[cart.UserID]; ok {
		c.ID = existing.ID
	} else if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Items = append([]models.CartItem(nil), cart.Items...)
	s.carts[cart.UserID] = c
	return nil
}

func (s *MemoryCartStore) Clear(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()
	return nil
}

// MemoryUserStore keeps accounts keyed by id.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.Invalid("user already exists")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NotFound("user", id.Hex())
	}
	return &u, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email }, email)
}

func (s *MemoryUserStore) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return s.find(func(u models.User) bool { return token != "" && u.VerificationToken == token }, "")
}

func (s *MemoryUserStore) find(match func(models.User) bool, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, models.NotFound("user", id)
}

func (s *MemoryUserStore) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.NotFound("user", id.Hex())
	}
	u.IsVerified = true
	u.VerificationToken = ""
	s.users[id] = u
	return nil
}
