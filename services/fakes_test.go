package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/acostajs/vanier-custom-keyboard-collective/libs"
	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/repositories"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSessionStore(t *testing.T) *libs.SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return libs.NewSessionStore(client, time.Hour)
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[int64]*models.Product
}

func newFakeProducts(ps ...*models.Product) *fakeProducts {
	f := &fakeProducts{products: map[int64]*models.Product{}}
	for _, p := range ps {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) FindByID(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []int64) (map[int64]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]*models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeProducts) remove(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
}

// fakeCartStore mirrors the cart_lines table: one row per (cart, product).
type fakeCartStore struct {
	mu       sync.Mutex
	products *fakeProducts
	carts    map[int64]int64
	lines    map[int64]map[int64]int
	nextID   int64

	// insertRace makes the next InsertLine behave as if another request inserted first.
	insertRace int
	failAdd    map[int64]error
}

func newFakeCartStore(products *fakeProducts) *fakeCartStore {
	return &fakeCartStore{
		products: products,
		carts:    map[int64]int64{},
		lines:    map[int64]map[int64]int{},
		failAdd:  map[int64]error{},
	}
}

func (f *fakeCartStore) GetOrCreateCart(_ context.Context, accountID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.carts[accountID]; ok {
		return id, nil
	}
	f.nextID++
	f.carts[accountID] = f.nextID
	f.lines[f.nextID] = map[int64]int{}
	return f.nextID, nil
}

func (f *fakeCartStore) InsertLine(_ context.Context, cartID, productID int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failAdd[productID]; err != nil {
		return err
	}
	if f.insertRace > 0 {
		f.insertRace--
		f.lines[cartID][productID] = 1
		return models.ErrDuplicateCartLine
	}
	if _, ok := f.lines[cartID][productID]; ok {
		return models.ErrDuplicateCartLine
	}
	f.lines[cartID][productID] = qty
	return nil
}

func (f *fakeCartStore) UpdateLineQuantity(_ context.Context, cartID, productID int64, qty int, increment bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failAdd[productID]; err != nil {
		return err
	}
	cur, ok := f.lines[cartID][productID]
	if !ok {
		return models.ErrCartLineNotFound
	}
	if increment {
		qty += cur
	}
	f.lines[cartID][productID] = qty
	return nil
}

func (f *fakeCartStore) DeleteLine(_ context.Context, cartID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines[cartID], productID)
	return nil
}

func (f *fakeCartStore) DeleteLines(_ context.Context, cartID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[cartID] = map[int64]int{}
	return nil
}

func (f *fakeCartStore) Lines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	f.mu.Lock()
	rows := make(map[int64]int, len(f.lines[cartID]))
	for pid, qty := range f.lines[cartID] {
		rows[pid] = qty
	}
	f.mu.Unlock()

	lines := []models.CartLine{}
	for pid, qty := range rows {
		p, err := f.products.FindByID(ctx, pid)
		if err != nil {
			continue
		}
		lines = append(lines, models.NewCartLine(p, qty))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines, nil
}

func (f *fakeCartStore) quantity(accountID, productID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[f.carts[accountID]][productID]
}

// fakeOrderStore serializes mutations the way the row lock does.
type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[int64]*models.Order
	nextID    int64
	updates   int
	attachErr error
	deleted   []int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[int64]*models.Order{}}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

func (f *fakeOrderStore) CreatePending(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order.ID = f.nextID
	order.Status = models.OrderStatusPending
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
		order.Items[i].OrderID = order.ID
	}
	f.orders[order.ID] = cloneOrder(order)
	return nil
}

func (f *fakeOrderStore) put(order *models.Order) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == 0 {
		f.nextID++
		order.ID = f.nextID
	}
	f.orders[order.ID] = cloneOrder(order)
	return order
}

func (f *fakeOrderStore) AttachCheckoutSession(_ context.Context, orderID int64, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrOrderNotFound
	}
	o.CheckoutSessionID = &sessionID
	return nil
}

func (f *fakeOrderStore) DeletePending(_ context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok && o.Status == models.OrderStatusPending && o.CheckoutSessionID == nil {
		delete(f.orders, orderID)
		f.deleted = append(f.deleted, orderID)
	}
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeOrderStore) FindByCheckoutSessionID(_ context.Context, sessionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.CheckoutSessionID != nil && *o.CheckoutSessionID == sessionID {
			return cloneOrder(o), nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (f *fakeOrderStore) ListByAccount(_ context.Context, accountID int64, page, limit int) ([]models.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Order
	for _, o := range f.orders {
		if o.OwnedBy(accountID) {
			all = append(all, *cloneOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (f *fakeOrderStore) UpdateByID(_ context.Context, id int64, fn repositories.OrderMutation) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return f.apply(o, fn)
}

func (f *fakeOrderStore) UpdateByPaymentID(_ context.Context, paymentID string, fn repositories.OrderMutation) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentID != nil && *o.PaymentID == paymentID {
			return f.apply(o, fn)
		}
	}
	return nil, models.ErrOrderNotFound
}

func (f *fakeOrderStore) apply(stored *models.Order, fn repositories.OrderMutation) (*models.Order, error) {
	work := cloneOrder(stored)
	changed, err := fn(work)
	if err != nil {
		return nil, err
	}
	if changed {
		f.updates++
		f.orders[work.ID] = cloneOrder(work)
	}
	return work, nil
}

func (f *fakeOrderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	nextID   int64
}

func newFakeAccounts(as ...*models.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: map[int64]*models.Account{}}
	for _, a := range as {
		f.accounts[a.ID] = a
		if a.ID > f.nextID {
			f.nextID = a.ID
		}
	}
	return f
}

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return models.ErrEmailTaken
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeAccounts) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return a, nil
}

type fakeProcessor struct {
	mu       sync.Mutex
	requests []models.CheckoutSessionRequest
	err      error
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, req models.CheckoutSessionRequest) (*models.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	id := "cs_test_" + req.ClientReference
	return &models.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*models.Order
	err  error
}

func (f *fakeNotifier) SendOrderConfirmation(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, order)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeImages struct{}

func (fakeImages) ProductImageURL(publicID string) (string, error) {
	if publicID == "broken" {
		return "", errors.New("bad public id")
	}
	return "https://img.example.com/" + publicID, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	webhooks []string
	checkout []string
	merges   []string
}

func (r *recordingMetrics) ObserveWebhook(eventType, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks = append(r.webhooks, eventType+"/"+outcome)
}

func (r *recordingMetrics) ObserveCheckout(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkout = append(r.checkout, result)
}

func (r *recordingMetrics) ObserveMerge(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merges = append(r.merges, result)
}
