package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
)

// fakeRepository is an in-memory Repository with the same idempotency
// semantics as the GORM implementation: the ledger insert inside
// CreateOrderWithEntitlement is the atomic gate.
type fakeRepository struct {
	events         []*models.PaymentWebhookEvent
	orders         []*models.Order
	items          []*models.OrderItem
	products       map[uint]*models.Product
	customerUsers  map[string]uint
	paymentMethods []*models.PaymentMethod

	nextOrderID  uint
	nextPMID     uint
	failOrderIns bool

	defaultUpdates []uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		products:      map[uint]*models.Product{},
		customerUsers: map[string]uint{},
		nextOrderID:   1,
		nextPMID:      1,
	}
}

func (f *fakeRepository) IsEventProcessed(provider, providerEventID string) (bool, error) {
	for _, ev := range f.events {
		if ev.Provider == provider && ev.ProviderEventID == providerEventID && ev.ProcessedAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	for _, ev := range f.events {
		if ev.Provider == event.Provider && ev.ProviderEventID == event.ProviderEventID {
			return false, ev, nil
		}
	}
	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, event)
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range f.events {
		if ev.ID == id {
			now := ev.CreatedAt
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetProductByID(id uint) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepository) GetUserIDByProviderCustomerID(customerID string) (uint, error) {
	id, ok := f.customerUsers[customerID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return id, nil
}

func (f *fakeRepository) CreateOrderWithEntitlement(order *models.Order, item *models.OrderItem, event *models.PaymentWebhookEvent) error {
	for _, ev := range f.events {
		if ev.Provider == event.Provider && ev.ProviderEventID == event.ProviderEventID {
			return errEventAlreadyRecorded
		}
	}
	if f.failOrderIns {
		// Simulated mid-transaction failure: nothing may land.
		return errors.New("injected order insert failure")
	}
	// Mirror the DB unique index on (provider, provider_session_id).
	for _, o := range f.orders {
		if o.Provider == order.Provider && o.ProviderSessionID == order.ProviderSessionID {
			return fmt.Errorf("Error 1062: Duplicate entry '%s' for key 'orders.idx_orders_provider_session_id'", order.ProviderSessionID)
		}
	}

	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, event)

	order.ID = f.nextOrderID
	f.nextOrderID++
	f.orders = append(f.orders, order)

	item.OrderID = order.ID
	item.ID = uint(len(f.items) + 1)
	f.items = append(f.items, item)
	return nil
}

func (f *fakeRepository) GetOrderByProviderSessionID(provider, sessionID string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.Provider == provider && o.ProviderSessionID == sessionID {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetOrderByID(id uint) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListOrdersByUser(userID uint) ([]models.Order, error) {
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].FanUserID == userID {
			out = append(out, *f.orders[i])
		}
	}
	return out, nil
}

func (f *fakeRepository) ListOrderItems(orderID uint) ([]models.OrderItem, error) {
	var out []models.OrderItem
	for _, it := range f.items {
		if it.OrderID == orderID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetEntitledItem(userID, productID uint) (*models.OrderItem, error) {
	for _, it := range f.items {
		if it.ProductID != productID {
			continue
		}
		for _, o := range f.orders {
			if o.ID == it.OrderID && o.FanUserID == userID {
				return it, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPaymentMethodByProviderID(pmID string) (*models.PaymentMethod, error) {
	for _, pm := range f.paymentMethods {
		if pm.ProviderPaymentMethodID == pmID {
			return pm, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpsertPaymentMethod(pm *models.PaymentMethod) error {
	for _, existing := range f.paymentMethods {
		if existing.ProviderPaymentMethodID == pm.ProviderPaymentMethodID {
			existing.UserID = pm.UserID
			existing.ProviderCustomerID = pm.ProviderCustomerID
			existing.Brand = pm.Brand
			existing.Last4 = pm.Last4
			existing.ExpMonth = pm.ExpMonth
			existing.ExpYear = pm.ExpYear
			existing.IsDefault = pm.IsDefault
			existing.BillingName = pm.BillingName
			existing.BillingEmail = pm.BillingEmail
			*pm = *existing
			return nil
		}
	}
	pm.ID = f.nextPMID
	f.nextPMID++
	stored := *pm
	f.paymentMethods = append(f.paymentMethods, &stored)
	return nil
}

func (f *fakeRepository) DeletePaymentMethodByProviderID(pmID string) (bool, error) {
	for i, pm := range f.paymentMethods {
		if pm.ProviderPaymentMethodID == pmID {
			f.paymentMethods = append(f.paymentMethods[:i], f.paymentMethods[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) ListPaymentMethodsByCustomer(customerID string) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, pm := range f.paymentMethods {
		if pm.ProviderCustomerID == customerID {
			out = append(out, *pm)
		}
	}
	return out, nil
}

func (f *fakeRepository) UpdatePaymentMethodDefault(id uint, isDefault bool) error {
	f.defaultUpdates = append(f.defaultUpdates, id)
	for _, pm := range f.paymentMethods {
		if pm.ID == id {
			pm.IsDefault = isDefault
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListPaymentMethodsByUser(userID uint) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, pm := range f.paymentMethods {
		if pm.UserID == userID {
			out = append(out, *pm)
		}
	}
	// Same ordering contract as the SQL implementation.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// fakeProcessorClient serves card metadata, customer defaults and checkout
// sessions from maps.
type fakeProcessorClient struct {
	defaults map[string]string
	methods  map[string]*PaymentMethodPayload
	sessions map[string]*CheckoutPayload
}

func (f *fakeProcessorClient) GetCustomerDefaultPaymentMethod(_ context.Context, customerID string) (string, error) {
	return f.defaults[customerID], nil
}

func (f *fakeProcessorClient) GetPaymentMethod(_ context.Context, pmID string) (*PaymentMethodPayload, error) {
	pm, ok := f.methods[pmID]
	if !ok {
		return nil, fmt.Errorf("unknown payment method %s", pmID)
	}
	clone := *pm
	return &clone, nil
}

func (f *fakeProcessorClient) GetCheckoutSession(_ context.Context, sessionID string) (*CheckoutPayload, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown checkout session %s", sessionID)
	}
	clone := *sess
	return &clone, nil
}

func newTestService(repo *fakeRepository, client *fakeProcessorClient) *Service {
	if client == nil {
		client = &fakeProcessorClient{defaults: map[string]string{}, methods: map[string]*PaymentMethodPayload{}}
	}
	return NewService(repo, client)
}

func checkoutPayload(sessionID string, fanUserID, productID uint, amount int64) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id": sessionID,
		"metadata": map[string]string{
			"fan_user_id": fmt.Sprint(fanUserID),
			"product_id":  fmt.Sprint(productID),
		},
		"amount_total": amount,
		"currency":     "usd",
	})
	return payload
}

func TestDispatchCheckoutCreatesOrder(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{
		ID:         7,
		Type:       models.ProductTypeDigital,
		PriceCents: 999,
		FileKey:    "deliverables/3/abc/beat.zip",
	}
	svc := newTestService(repo, nil)

	res, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:        "evt_1",
		EventType:      EventCheckoutCompleted,
		Payload:        checkoutPayload("cs_1", 42, 7, 999),
		SignatureValid: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Duplicate)
	assert.NotZero(t, res.OrderID)

	require.Len(t, repo.orders, 1)
	order := repo.orders[0]
	assert.Equal(t, uint(42), order.FanUserID)
	assert.Equal(t, "cs_1", order.ProviderSessionID)
	assert.Equal(t, int64(999), order.TotalAmount)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	require.Len(t, repo.items, 1)
	item := repo.items[0]
	assert.Equal(t, order.ID, item.OrderID)
	assert.Equal(t, uint(7), item.ProductID)
	assert.Equal(t, int64(999), item.Price)
	assert.Equal(t, "deliverables/3/abc/beat.zip", item.FileKey)

	require.Len(t, repo.events, 1)
	assert.NotNil(t, repo.events[0].ProcessedAt)
}

func TestDispatchCheckoutReplayReturnsSameOrder(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 999, FileKey: "k"}
	svc := newTestService(repo, nil)

	in := DispatchInput{
		EventID:        "evt_1",
		EventType:      EventCheckoutCompleted,
		Payload:        checkoutPayload("cs_1", 42, 7, 999),
		SignatureValid: true,
	}

	first, err := svc.Dispatch(context.Background(), in)
	require.NoError(t, err)
	second, err := svc.Dispatch(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Len(t, repo.orders, 1)
	assert.Len(t, repo.items, 1)
	assert.Len(t, repo.events, 1)
}

func TestDispatchCheckoutUnknownProduct(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil)

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 999, 500),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.True(t, IsFatalInput(err))
	assert.Empty(t, repo.orders)
	assert.Empty(t, repo.events)
}

func TestDispatchCheckoutProductWithoutFile(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 999}
	svc := newTestService(repo, nil)

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 999),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotDeliverable)
	assert.Empty(t, repo.orders)
	assert.Empty(t, repo.items)
	assert.Empty(t, repo.events)
}

func TestDispatchCheckoutFailureLeavesNoPartialState(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 999, FileKey: "k"}
	repo.failOrderIns = true
	svc := newTestService(repo, nil)

	in := DispatchInput{
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 999),
	}
	_, err := svc.Dispatch(context.Background(), in)
	require.Error(t, err)
	assert.False(t, IsFatalInput(err))

	// Nothing landed, so a redelivery sees a clean slate and succeeds.
	assert.Empty(t, repo.orders)
	assert.Empty(t, repo.items)
	assert.Empty(t, repo.events)

	repo.failOrderIns = false
	res, err := svc.Dispatch(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Len(t, repo.orders, 1)
}

func TestDispatchUnsupportedEventType(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil)

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_1",
		EventType: "invoice.created",
		Payload:   []byte(`{}`),
	})
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
}

func TestDispatchAttachProjectsPaymentMethod(t *testing.T) {
	repo := newFakeRepository()
	repo.customerUsers["cus_1"] = 42
	client := &fakeProcessorClient{
		defaults: map[string]string{"cus_1": "pm_1"},
		methods:  map[string]*PaymentMethodPayload{},
	}
	svc := newTestService(repo, client)

	payload, _ := json.Marshal(map[string]interface{}{
		"id":       "pm_1",
		"customer": "cus_1",
		"card": map[string]interface{}{
			"brand":     "visa",
			"last4":     "4242",
			"exp_month": 12,
			"exp_year":  2030,
		},
		"billing_details": map[string]string{"name": "Ada", "email": "ada@example.com"},
	})

	res, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:        "evt_pm1",
		EventType:      EventPaymentMethodAttached,
		Payload:        payload,
		SignatureValid: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Ignored)

	require.Len(t, repo.paymentMethods, 1)
	pm := repo.paymentMethods[0]
	assert.Equal(t, uint(42), pm.UserID)
	assert.Equal(t, "pm_1", pm.ProviderPaymentMethodID)
	assert.Equal(t, "visa", pm.Brand)
	assert.Equal(t, "4242", pm.Last4)
	assert.True(t, pm.IsDefault)
	assert.Equal(t, "Ada", pm.BillingName)

	require.Len(t, repo.events, 1)
	assert.NotNil(t, repo.events[0].ProcessedAt)
}

func TestDispatchSetupIntentFetchesCardFromProvider(t *testing.T) {
	repo := newFakeRepository()
	repo.customerUsers["cus_1"] = 42
	client := &fakeProcessorClient{
		defaults: map[string]string{"cus_1": "pm_other"},
		methods: map[string]*PaymentMethodPayload{
			"pm_1": {
				PaymentMethodID: "pm_1",
				CustomerID:      "cus_1",
				Card:            &CardDetails{Brand: "mastercard", Last4: "4444", ExpMonth: 6, ExpYear: 2031},
				BillingName:     "Grace",
			},
		},
	}
	svc := newTestService(repo, client)

	payload, _ := json.Marshal(map[string]interface{}{
		"id":             "seti_1",
		"customer":       "cus_1",
		"payment_method": "pm_1",
	})

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_seti1",
		EventType: EventSetupSucceeded,
		Payload:   payload,
	})
	require.NoError(t, err)

	require.Len(t, repo.paymentMethods, 1)
	pm := repo.paymentMethods[0]
	assert.Equal(t, "mastercard", pm.Brand)
	assert.Equal(t, "4444", pm.Last4)
	assert.Equal(t, "Grace", pm.BillingName)
	assert.False(t, pm.IsDefault)
}

func TestDispatchAttachUnknownCustomerIsIgnored(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil)

	payload, _ := json.Marshal(map[string]interface{}{
		"id":       "pm_1",
		"customer": "cus_unknown",
		"card":     map[string]interface{}{"brand": "visa", "last4": "4242"},
	})

	res, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_pm1",
		EventType: EventPaymentMethodAttached,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Empty(t, repo.paymentMethods)

	// The event must still land in the ledger so the redelivery is a no-op.
	require.Len(t, repo.events, 1)
	assert.NotNil(t, repo.events[0].ProcessedAt)
	assert.NotEmpty(t, repo.events[0].ProcessingError)

	res, err = svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_pm1",
		EventType: EventPaymentMethodAttached,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
}

func TestDispatchDetachRemovesPaymentMethod(t *testing.T) {
	repo := newFakeRepository()
	repo.paymentMethods = append(repo.paymentMethods, &models.PaymentMethod{
		ID: 1, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_1",
	})
	svc := newTestService(repo, nil)

	payload, _ := json.Marshal(map[string]interface{}{"id": "pm_1"})
	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_det1",
		EventType: EventPaymentMethodDetached,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.Empty(t, repo.paymentMethods)

	// Detaching a method that is already gone is not an error.
	removed, err := svc.RemovePaymentMethodByProviderID(context.Background(), "pm_1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDispatchCustomerUpdatedMovesDefault(t *testing.T) {
	repo := newFakeRepository()
	repo.paymentMethods = []*models.PaymentMethod{
		{ID: 1, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_a", IsDefault: true},
		{ID: 2, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_b"},
		{ID: 3, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_c"},
	}
	svc := newTestService(repo, nil)

	payload, _ := json.Marshal(map[string]interface{}{
		"id":               "cus_1",
		"invoice_settings": map[string]string{"default_payment_method": "pm_b"},
	})
	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_cu1",
		EventType: EventCustomerUpdated,
		Payload:   payload,
	})
	require.NoError(t, err)

	assert.False(t, repo.paymentMethods[0].IsDefault)
	assert.True(t, repo.paymentMethods[1].IsDefault)
	assert.False(t, repo.paymentMethods[2].IsDefault)

	// Only the two rows whose flag changed were written; pm_c stayed untouched.
	assert.ElementsMatch(t, []uint{1, 2}, repo.defaultUpdates)
}

func TestSetDefaultPaymentMethodNoChurnOnRepeat(t *testing.T) {
	repo := newFakeRepository()
	repo.paymentMethods = []*models.PaymentMethod{
		{ID: 1, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_a", IsDefault: true},
		{ID: 2, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_b"},
	}
	svc := newTestService(repo, nil)

	err := svc.SetDefaultPaymentMethodForCustomer(context.Background(), "cus_1", "pm_a")
	require.NoError(t, err)
	assert.Empty(t, repo.defaultUpdates)
}

func TestGetOrderForUserAuthorization(t *testing.T) {
	repo := newFakeRepository()
	repo.orders = append(repo.orders, &models.Order{ID: 10, FanUserID: 42, ProviderSessionID: "cs_1"})
	svc := newTestService(repo, nil)

	_, err := svc.GetOrderForUser(context.Background(), 43, 10)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	purchase, err := svc.GetOrderForUser(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(10), purchase.Order.ID)
}

func TestMyPurchasesRoundTrip(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 1500, FileKey: "k1"}
	repo.products[8] = &models.Product{ID: 8, Type: models.ProductTypeDigital, PriceCents: 2500, FileKey: "k2"}
	svc := newTestService(repo, nil)

	for i, productID := range []uint{7, 8} {
		_, err := svc.Dispatch(context.Background(), DispatchInput{
			EventID:   fmt.Sprintf("evt_%d", i),
			EventType: EventCheckoutCompleted,
			Payload:   checkoutPayload(fmt.Sprintf("cs_%d", i), 42, productID, 0),
		})
		require.NoError(t, err)
	}

	purchases, err := svc.GetMyPurchases(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	for _, p := range purchases {
		assert.Len(t, p.Items, 1)
	}

	item, err := svc.GetEntitledItem(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, "k1", item.FileKey)

	_, err = svc.GetEntitledItem(context.Background(), 99, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResyncCreatesOrderWhenWebhookMissed(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 999, FileKey: "deliverables/1/abc/track.zip"}
	client := &fakeProcessorClient{
		sessions: map[string]*CheckoutPayload{
			"cs_lost": {SessionID: "cs_lost", FanUserID: 42, ProductID: 7, AmountTotal: 999, Currency: "usd"},
		},
	}
	svc := newTestService(repo, client)

	result, err := svc.ResyncCheckoutSession(context.Background(), "cs_lost")
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	require.NotZero(t, result.OrderID)

	order, err := repo.GetOrderByProviderSessionID(models.PaymentProviderStripe, "cs_lost")
	require.NoError(t, err)
	assert.Equal(t, uint(42), order.FanUserID)
	assert.Equal(t, int64(999), order.TotalAmount)

	require.Len(t, repo.events, 1)
	assert.Equal(t, EventCheckoutResync, repo.events[0].EventType)
	assert.NotNil(t, repo.events[0].ProcessedAt)

	// Repeating the resync resolves to the same order without writing.
	again, err := svc.ResyncCheckoutSession(context.Background(), "cs_lost")
	require.NoError(t, err)
	assert.True(t, again.AlreadyProcessed)
	assert.Equal(t, result.OrderID, again.OrderID)
	assert.Len(t, repo.orders, 1)
}

func TestResyncIsNoOpWhenWebhookAlreadyLanded(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 500, FileKey: "k"}
	// No sessions configured: a provider fetch would fail, proving the
	// existing order short-circuits before any API call.
	svc := newTestService(repo, &fakeProcessorClient{})

	first, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 500),
	})
	require.NoError(t, err)

	result, err := svc.ResyncCheckoutSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, first.OrderID, result.OrderID)
}

func TestResyncUnknownSession(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeProcessorClient{})

	if _, err := svc.ResyncCheckoutSession(context.Background(), "cs_missing"); err == nil {
		t.Fatal("expected error for unknown session")
	}
	if len(repo.orders) != 0 || len(repo.events) != 0 {
		t.Fatalf("expected no writes, got %d orders %d events", len(repo.orders), len(repo.events))
	}

	if _, err := svc.ResyncCheckoutSession(context.Background(), ""); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for empty session id, got %v", err)
	}
}

func attachPayload(pmID, customerID, brand, last4 string) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":       pmID,
		"customer": customerID,
		"card": map[string]interface{}{
			"brand":     brand,
			"last4":     last4,
			"exp_month": 12,
			"exp_year":  2030,
		},
	})
	return payload
}

func TestDispatchAttachKeepsDefaultExclusive(t *testing.T) {
	repo := newFakeRepository()
	repo.customerUsers["cus_1"] = 42
	client := &fakeProcessorClient{
		defaults: map[string]string{"cus_1": "pm_a"},
		methods:  map[string]*PaymentMethodPayload{},
	}
	svc := newTestService(repo, client)

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_a",
		EventType: EventPaymentMethodAttached,
		Payload:   attachPayload("pm_a", "cus_1", "visa", "4242"),
	})
	require.NoError(t, err)

	// The provider default moves before the second attach arrives.
	client.defaults["cus_1"] = "pm_b"
	_, err = svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_b",
		EventType: EventPaymentMethodAttached,
		Payload:   attachPayload("pm_b", "cus_1", "mastercard", "4444"),
	})
	require.NoError(t, err)

	require.Len(t, repo.paymentMethods, 2)
	var defaults []string
	for _, pm := range repo.paymentMethods {
		if pm.IsDefault {
			defaults = append(defaults, pm.ProviderPaymentMethodID)
		}
	}
	assert.Equal(t, []string{"pm_b"}, defaults)
}

func TestDispatchCheckoutAfterResyncAcknowledges(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 999, FileKey: "k"}
	client := &fakeProcessorClient{
		sessions: map[string]*CheckoutPayload{
			"cs_1": {SessionID: "cs_1", FanUserID: 42, ProductID: 7, AmountTotal: 999, Currency: "usd"},
		},
	}
	svc := newTestService(repo, client)

	resynced, err := svc.ResyncCheckoutSession(context.Background(), "cs_1")
	require.NoError(t, err)

	// The real webhook arrives afterwards under its own event id. It must be
	// acknowledged and resolve to the resynced order, not trip the session
	// unique index forever.
	res, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_late",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 999),
	})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, resynced.OrderID, res.OrderID)
	assert.Len(t, repo.orders, 1)

	processed, err := svc.IsEventProcessed(context.Background(), "evt_late")
	require.NoError(t, err)
	assert.True(t, processed)

	// Redelivery of the late webhook is a plain duplicate.
	res, err = svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_late",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 999),
	})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, resynced.OrderID, res.OrderID)
}

func TestListPaymentMethodsDefaultFirstThenNewest(t *testing.T) {
	repo := newFakeRepository()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.paymentMethods = []*models.PaymentMethod{
		{ID: 1, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_a", CreatedAt: base},
		{ID: 2, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_b", IsDefault: true, CreatedAt: base.Add(time.Hour)},
		{ID: 3, UserID: 42, ProviderCustomerID: "cus_1", ProviderPaymentMethodID: "pm_c", CreatedAt: base.Add(2 * time.Hour)},
	}
	svc := newTestService(repo, nil)

	rows, err := svc.ListPaymentMethodsForUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	got := []string{rows[0].ProviderPaymentMethodID, rows[1].ProviderPaymentMethodID, rows[2].ProviderPaymentMethodID}
	assert.Equal(t, []string{"pm_b", "pm_c", "pm_a"}, got)
}

func TestIsEventProcessed(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 500, FileKey: "k"}
	svc := newTestService(repo, nil)

	if processed, err := svc.IsEventProcessed(context.Background(), "evt_1"); err != nil || processed {
		t.Fatalf("expected unseen event to be unprocessed, got %v %v", processed, err)
	}

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 500),
	})
	if err != nil {
		t.Fatal(err)
	}

	if processed, err := svc.IsEventProcessed(context.Background(), "evt_1"); err != nil || !processed {
		t.Fatalf("expected processed event, got %v %v", processed, err)
	}
	if processed, _ := svc.IsEventProcessed(context.Background(), "  "); processed {
		t.Fatal("blank event id must not report processed")
	}
}

func TestPurchaseAmountsCarryDisplayValue(t *testing.T) {
	repo := newFakeRepository()
	repo.products[7] = &models.Product{ID: 7, Type: models.ProductTypeDigital, PriceCents: 999, FileKey: "k"}
	svc := newTestService(repo, nil)

	res, err := svc.Dispatch(context.Background(), DispatchInput{
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		Payload:   checkoutPayload("cs_1", 42, 7, 999),
	})
	require.NoError(t, err)

	purchases, err := svc.GetMyPurchases(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, int64(999), purchases[0].Order.TotalAmount)
	assert.Equal(t, "9.99", purchases[0].Order.TotalAmountDisplay)

	purchase, err := svc.GetOrderForUser(context.Background(), 42, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "9.99", purchase.Order.TotalAmountDisplay)
}
