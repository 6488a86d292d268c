package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront-ecom/internal/cart"
	"github.com/MikeMC777/storefront-ecom/internal/catalog"
	"github.com/MikeMC777/storefront-ecom/internal/checkout"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/logger"
	"github.com/MikeMC777/storefront-ecom/internal/order"
	"github.com/MikeMC777/storefront-ecom/internal/payment"
	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

//
// ---------- STUBS & FAKES ----------
//

type memCarts struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
}

func (m *memCarts) Get(_ context.Context, key string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[key]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

func (m *memCarts) Save(_ context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	m.carts[c.Key] = &cp
	return nil
}

func (m *memCarts) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, key)
	return nil
}

// fakeCatalog serves products by id.
type fakeCatalog map[string]*catalog.Product

func (f fakeCatalog) FetchProduct(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

// stubOrders implements order.Repository in memory.
type stubOrders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func (s *stubOrders) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	cp.History = append([]order.HistoryEntry(nil), o.History...)
	return &cp, nil
}

func (s *stubOrders) GetByPayment(_ context.Context, method, id string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (s *stubOrders) GetItems(ctx context.Context, id string) ([]order.Item, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

func (s *stubOrders) ListByUser(_ context.Context, uid string, limit, offset int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.Order{}
	for _, o := range s.orders {
		if o.UserID == uid {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) ListByStatus(_ context.Context, st order.Status, limit, offset int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.Order{}
	for _, o := range s.orders {
		if st == "" || o.Status == st {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id string, from order.Status, e order.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return order.ErrConflict
	}
	o.Status = e.Status
	o.History = append(o.History, e)
	return nil
}

// stubCheckout records the last requests and answers with canned results.
type stubCheckout struct {
	lastPayment checkout.PaymentRequest
	lastCapture checkout.CaptureRequest
	paymentErr  error
	captureErr  error
}

func (s *stubCheckout) Quote(_ context.Context, key string) (checkout.Summary, error) {
	return checkout.Summary{Quote: order.Quote{Total: decimal.RequireFromString("10.00")}, Currency: "USD"}, nil
}

func (s *stubCheckout) CreatePayment(_ context.Context, req checkout.PaymentRequest) (checkout.PaymentResult, error) {
	s.lastPayment = req
	if s.paymentErr != nil {
		return checkout.PaymentResult{}, s.paymentErr
	}
	return checkout.PaymentResult{
		Provider:      req.Provider,
		ProviderOrder: payment.ProviderOrder{ID: "PO-1", Status: payment.StatusCreated, ApproveURL: "https://pay.example/approve"},
		Currency:      "USD",
	}, nil
}

func (s *stubCheckout) Capture(_ context.Context, req checkout.CaptureRequest) (*order.Order, error) {
	s.lastCapture = req
	if s.captureErr != nil {
		return nil, s.captureErr
	}
	return &order.Order{ID: "o-1", UserID: req.UserID, Status: order.StatusPlaced, PaymentID: req.ProviderOrderID}, nil
}

// stubProfiles keeps one address book per user on top of the real address rules.
type stubProfiles struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
}

func (s *stubProfiles) get(uid, email string) *profile.Profile {
	p, ok := s.profiles[uid]
	if !ok {
		p = &profile.Profile{UserID: uid, Email: email, Addresses: []profile.Address{}}
		s.profiles[uid] = p
	}
	return p
}

func (s *stubProfiles) GetProfile(_ context.Context, uid, email string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.get(uid, email)
	return &cp, nil
}

func (s *stubProfiles) UpdateProfile(_ context.Context, uid string, u profile.Update) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(uid, "")
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	cp := *p
	return &cp, nil
}

func (s *stubProfiles) AddAddress(_ context.Context, uid string, in profile.AddressInput) (*profile.Profile, profile.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(uid, "")
	book, a, err := profile.AddAddress(p.Addresses, in)
	if err != nil {
		return nil, profile.Address{}, err
	}
	p.Addresses = book
	cp := *p
	return &cp, a, nil
}

func (s *stubProfiles) UpdateAddress(_ context.Context, uid, id string, in profile.AddressInput) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(uid, "")
	book, _, err := profile.UpdateAddress(p.Addresses, id, in)
	if err != nil {
		return nil, err
	}
	p.Addresses = book
	cp := *p
	return &cp, nil
}

func (s *stubProfiles) DeleteAddress(_ context.Context, uid, id string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(uid, "")
	book, err := profile.DeleteAddress(p.Addresses, id)
	if err != nil {
		return nil, err
	}
	p.Addresses = book
	cp := *p
	return &cp, nil
}

func (s *stubProfiles) SetDefaultAddress(_ context.Context, uid, id string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.get(uid, "")
	book, err := profile.SetDefaultAddress(p.Addresses, id)
	if err != nil {
		return nil, err
	}
	p.Addresses = book
	cp := *p
	return &cp, nil
}

//
// ---------- HARNESS ----------
//

type harness struct {
	r        *gin.Engine
	carts    *memCarts
	orders   *stubOrders
	checkout *stubCheckout
	profiles *stubProfiles
	verifier *httpx.Verifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e, err := httpx.NewEnforcer()
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	h := &harness{
		carts:    &memCarts{carts: map[string]*cart.Cart{}},
		orders:   &stubOrders{orders: map[string]*order.Order{}},
		checkout: &stubCheckout{},
		profiles: &stubProfiles{profiles: map[string]*profile.Profile{}},
		verifier: httpx.NewVerifier("test-secret"),
	}
	products := fakeCatalog{
		"p1": {ID: "p1", Title: "Tee", Price: decimal.RequireFromString("15.00"), Sizes: []string{"S", "M"}},
		"p2": {ID: "p2", Title: "Mug", Price: decimal.RequireFromString("8.50")},
	}
	log := logger.Discard()
	h.r = newRouter(deps{
		carts:     cart.NewService(h.carts, products),
		checkout:  h.checkout,
		orders:    order.NewService(h.orders, nil, log),
		orderRepo: h.orders,
		profiles:  h.profiles,
		verifier:  h.verifier,
		enforcer:  e,
		log:       log,
	})
	return h
}

func (h *harness) token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := h.verifier.Issue(httpx.Identity{UserID: uid, Email: uid + "@example.com", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func (h *harness) do(method, target string, headers map[string]string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func (h *harness) seedOrder(uid string, st order.Status) *order.Order {
	o := &order.Order{
		ID:      uuid.NewString(),
		UserID:  uid,
		Status:  st,
		Total:   decimal.RequireFromString("20.00"),
		Items:   []order.Item{{ID: uuid.NewString(), ProductID: "p1", Title: "Tee", Quantity: 2, Price: decimal.RequireFromString("10.00")}},
		History: []order.HistoryEntry{{Status: st, Note: "seeded"}},
	}
	_ = h.orders.Create(context.Background(), o)
	return o
}

//
// ---------- CART ----------
//

func TestCart_AddUpdateRemoveClear(t *testing.T) {
	h := newHarness(t)
	sess := map[string]string{CartHeader: "s-1"}

	w := h.do(http.MethodPost, "/cart/items", sess, `{"product_id":"p1","selected_size":"M","quantity":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add: status=%d body=%s", w.Code, w.Body.String())
	}
	w = h.do(http.MethodPost, "/cart/items", sess, `{"product_id":"p2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add default qty: status=%d body=%s", w.Code, w.Body.String())
	}
	var v cart.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Count != 3 || !v.Total.Equal(decimal.RequireFromString("38.50")) {
		t.Fatalf("count=%d total=%s, want 3 and 38.50", v.Count, v.Total)
	}

	w = h.do(http.MethodPatch, "/cart/items/p1?size=M", sess, `{"quantity":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status=%d body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if !v.Total.Equal(decimal.RequireFromString("23.50")) {
		t.Fatalf("total after patch=%s", v.Total)
	}

	if w := h.do(http.MethodDelete, "/cart/items/p2", sess, ""); w.Code != http.StatusOK {
		t.Fatalf("remove: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodDelete, "/cart/items/p2", sess, ""); w.Code != http.StatusNotFound {
		t.Fatalf("remove twice: want 404, got %d", w.Code)
	}

	if w := h.do(http.MethodDelete, "/cart", sess, ""); w.Code != http.StatusNoContent {
		t.Fatalf("clear: status=%d", w.Code)
	}
	w = h.do(http.MethodGet, "/cart", sess, "")
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if w.Code != http.StatusOK || v.Count != 0 || !v.Total.IsZero() {
		t.Fatalf("cart not empty after clear: %s", w.Body.String())
	}
}

func TestCart_Rejections(t *testing.T) {
	h := newHarness(t)
	sess := map[string]string{CartHeader: "s-2"}

	cases := []struct {
		name    string
		headers map[string]string
		body    string
		want    int
	}{
		{"no cart key", nil, `{"product_id":"p1","selected_size":"S"}`, http.StatusBadRequest},
		{"unknown product", sess, `{"product_id":"nope"}`, http.StatusNotFound},
		{"size not offered", sess, `{"product_id":"p1","selected_size":"XL"}`, http.StatusBadRequest},
		{"negative quantity", sess, `{"product_id":"p2","quantity":-1}`, http.StatusBadRequest},
		{"missing product", sess, `{"quantity":1}`, http.StatusBadRequest},
		{"bad token", map[string]string{CartHeader: "s-2", "Authorization": "Bearer junk"}, `{"product_id":"p2"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := h.do(http.MethodPost, "/cart/items", tc.headers, tc.body); w.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestCart_SignedInUsesUserCart(t *testing.T) {
	h := newHarness(t)
	auth := map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}

	if w := h.do(http.MethodPost, "/cart/items", auth, `{"product_id":"p2"}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if _, ok := h.carts.carts["user:u1"]; !ok {
		t.Fatalf("expected cart under user:u1, have %v", h.carts.carts)
	}
}

//
// ---------- PAYMENTS ----------
//

func TestCreatePayment_PassesAmountAndEmail(t *testing.T) {
	h := newHarness(t)
	hdr := map[string]string{CartHeader: "s-3", "Authorization": h.token(t, "u1", httpx.RoleCustomer)}

	w := h.do(http.MethodPost, "/payments/paypal/orders", hdr, `{"amount":"132.27","currency":"usd"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := h.checkout.lastPayment
	if got.Provider != "paypal" || got.CartKey != "session:s-3" || got.UserID != "u1" || got.Email != "u1@example.com" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Amount == nil || !got.Amount.Equal(decimal.RequireFromString("132.27")) {
		t.Fatalf("amount not forwarded: %+v", got.Amount)
	}

	if w := h.do(http.MethodPost, "/payments/paypal/orders", hdr, `{"amount":"abc"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: want 400, got %d", w.Code)
	}
}

func TestCreatePayment_RequiresToken(t *testing.T) {
	h := newHarness(t)
	if w := h.do(http.MethodPost, "/payments/paypal/orders", map[string]string{CartHeader: "s"}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestPayments_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: got 1.00", checkout.ErrAmountMismatch), http.StatusConflict},
		{checkout.ErrEmptyCart, http.StatusBadRequest},
		{fmt.Errorf("%w: Tee", checkout.ErrProductUnavailable), http.StatusConflict},
		{fmt.Errorf("%w: %q", payment.ErrUnknownProvider, "venmo"), http.StatusBadRequest},
		{fmt.Errorf("%w: paypal create: boom", payment.ErrProvider), http.StatusBadGateway},
		{fmt.Errorf("%w: stripe cs_1 is created", checkout.ErrPaymentNotCompleted), http.StatusPaymentRequired},
		{checkout.ErrAddressRequired, http.StatusBadRequest},
		{fmt.Errorf("%w: charged 100.00 USD", checkout.ErrChargeMismatch), http.StatusConflict},
		{fmt.Errorf("%w: paypal order PP-1", order.ErrNotOwner), http.StatusForbidden},
		{checkout.ErrPaymentNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := newHarness(t)
			h.checkout.paymentErr = tc.err
			h.checkout.captureErr = tc.err
			hdr := map[string]string{CartHeader: "s", "Authorization": h.token(t, "u1", httpx.RoleCustomer)}

			if w := h.do(http.MethodPost, "/payments/stripe/orders", hdr, ""); w.Code != tc.want {
				t.Fatalf("create: status=%d want=%d", w.Code, tc.want)
			}
			if w := h.do(http.MethodPost, "/payments/stripe/orders/cs_1/capture", hdr, ""); w.Code != tc.want {
				t.Fatalf("capture: status=%d want=%d", w.Code, tc.want)
			}
		})
	}
}

func TestCapture_ForwardsIdentityAndAddress(t *testing.T) {
	h := newHarness(t)
	hdr := map[string]string{"Authorization": h.token(t, "u9", httpx.RoleCustomer)}

	body := `{"shipping_address":{"name":"Jane","street":"1 Main","city":"Town","zip_code":"12345"}}`
	w := h.do(http.MethodPost, "/payments/paypal/orders/PO-7/capture", hdr, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := h.checkout.lastCapture
	if got.UserID != "u9" || got.ProviderOrderID != "PO-7" || got.Email != "u9@example.com" {
		t.Fatalf("unexpected capture request: %+v", got)
	}
	if got.ShippingAddress == nil || got.ShippingAddress.City != "Town" || got.BillingAddress != nil {
		t.Fatalf("address not forwarded: %+v", got)
	}

	bad := `{"shipping_address":{"name":"Jane"}}`
	if w := h.do(http.MethodPost, "/payments/paypal/orders/PO-7/capture", hdr, bad); w.Code != http.StatusBadRequest {
		t.Fatalf("incomplete address: want 400, got %d", w.Code)
	}
}

//
// ---------- ORDERS ----------
//

func TestGetOrder_OwnerAdminOthers(t *testing.T) {
	h := newHarness(t)
	o := h.seedOrder("owner", order.StatusPlaced)

	for _, tc := range []struct {
		name string
		auth string
		want int
	}{
		{"owner", h.token(t, "owner", httpx.RoleCustomer), http.StatusOK},
		{"admin", h.token(t, "boss", httpx.RoleAdmin), http.StatusOK},
		{"someone else", h.token(t, "other", httpx.RoleCustomer), http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			hdr := map[string]string{}
			if tc.auth != "" {
				hdr["Authorization"] = tc.auth
			}
			if w := h.do(http.MethodGet, "/orders/"+o.ID, hdr, ""); w.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newHarness(t)
	hdr := map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}
	if w := h.do(http.MethodGet, "/orders/"+uuid.NewString(), hdr, ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (want 404)", w.Code, w.Body.String())
	}
}

func TestGetOrderItems_OK(t *testing.T) {
	h := newHarness(t)
	o := h.seedOrder("u1", order.StatusPlaced)
	hdr := map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}

	w := h.do(http.MethodGet, "/orders/"+o.ID+"/items", hdr, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var items []order.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil || len(items) != 1 {
		t.Fatalf("items=%v err=%v", items, err)
	}
}

func TestListOrdersByUser(t *testing.T) {
	h := newHarness(t)
	h.seedOrder("u1", order.StatusPlaced)
	h.seedOrder("u2", order.StatusPlaced)

	w := h.do(http.MethodGet, "/orders/user/u1?limit=10&offset=0",
		map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got order.ListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Items) != 1 || got.Items[0].UserID != "u1" || got.Limit != 10 {
		t.Fatalf("unexpected list: %+v", got)
	}

	w = h.do(http.MethodGet, "/orders/user/u2",
		map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("other user: want 403, got %d", w.Code)
	}
}

//
// ---------- ADMIN ----------
//

func TestAdmin_RequiresAdminRole(t *testing.T) {
	h := newHarness(t)
	hdr := map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}
	if w := h.do(http.MethodGet, "/admin/orders", hdr, ""); w.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", w.Code)
	}
}

func TestAdmin_ListByStatus(t *testing.T) {
	h := newHarness(t)
	h.seedOrder("u1", order.StatusPlaced)
	h.seedOrder("u1", order.StatusShipped)
	hdr := map[string]string{"Authorization": h.token(t, "boss", httpx.RoleAdmin)}

	w := h.do(http.MethodGet, "/admin/orders?status=shipped", hdr, "")
	var got order.ListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if w.Code != http.StatusOK || len(got.Items) != 1 || got.Items[0].Status != order.StatusShipped {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodGet, "/admin/orders", hdr, "")
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Items) != 2 {
		t.Fatalf("unfiltered list has %d orders", len(got.Items))
	}

	if w := h.do(http.MethodGet, "/admin/orders?status=lost", hdr, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: want 400, got %d", w.Code)
	}
}

func TestAdmin_TransitionsAndStatusUpdate(t *testing.T) {
	h := newHarness(t)
	o := h.seedOrder("u1", order.StatusPlaced)
	hdr := map[string]string{"Authorization": h.token(t, "boss", httpx.RoleAdmin)}

	w := h.do(http.MethodGet, "/admin/orders/"+o.ID+"/transitions", hdr, "")
	var tr order.TransitionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tr)
	if w.Code != http.StatusOK || tr.Current != order.StatusPlaced || len(tr.Next) != 3 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPut, "/admin/orders/"+o.ID+"/status", hdr, `{"status":"confirmed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got order.Order
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	last := got.History[len(got.History)-1]
	if got.Status != order.StatusConfirmed || last.Note != "Order confirmed" {
		t.Fatalf("unexpected order: %+v", got)
	}

	// confirmed -> shipped skips processing.
	if w := h.do(http.MethodPut, "/admin/orders/"+o.ID+"/status", hdr, `{"status":"shipped"}`); w.Code != http.StatusConflict {
		t.Fatalf("skip: want 409, got %d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPut, "/admin/orders/"+o.ID+"/status", hdr, `{"status":"teleported"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown: want 400, got %d", w.Code)
	}
	if w := h.do(http.MethodPut, "/admin/orders/"+uuid.NewString()+"/status", hdr, `{"status":"confirmed"}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing: want 404, got %d", w.Code)
	}
}

func TestAdmin_CancelledIsTerminal(t *testing.T) {
	h := newHarness(t)
	o := h.seedOrder("u1", order.StatusCancelled)
	hdr := map[string]string{"Authorization": h.token(t, "boss", httpx.RoleAdmin)}

	w := h.do(http.MethodGet, "/admin/orders/"+o.ID+"/transitions", hdr, "")
	var tr order.TransitionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tr)
	if len(tr.Next) != 0 {
		t.Fatalf("cancelled should have no next statuses: %+v", tr)
	}
	if w := h.do(http.MethodPut, "/admin/orders/"+o.ID+"/status", hdr, `{"status":"placed"}`); w.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", w.Code)
	}
}

//
// ---------- PROFILE ----------
//

func TestProfile_AddressBook(t *testing.T) {
	h := newHarness(t)
	hdr := map[string]string{"Authorization": h.token(t, "u1", httpx.RoleCustomer)}

	w := h.do(http.MethodGet, "/me/profile", hdr, "")
	var p profile.Profile
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if w.Code != http.StatusOK || p.UserID != "u1" || p.Email != "u1@example.com" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	addr := `{"name":"Jane","street":"1 Main","city":"Town","zip_code":"12345"}`
	w = h.do(http.MethodPost, "/me/addresses", hdr, addr)
	var first profile.Address
	_ = json.Unmarshal(w.Body.Bytes(), &first)
	if w.Code != http.StatusCreated || !first.IsDefault || first.ID == "" {
		t.Fatalf("first address must be default: status=%d body=%s", w.Code, w.Body.String())
	}
	w = h.do(http.MethodPost, "/me/addresses", hdr, `{"name":"Jane","street":"2 Side","city":"Town","zip_code":"12345"}`)
	var second profile.Address
	_ = json.Unmarshal(w.Body.Bytes(), &second)

	w = h.do(http.MethodPost, "/me/addresses/"+second.ID+"/default", hdr, "")
	var book []profile.Address
	_ = json.Unmarshal(w.Body.Bytes(), &book)
	if w.Code != http.StatusOK || len(book) != 2 || book[0].IsDefault || !book[1].IsDefault {
		t.Fatalf("set default: status=%d body=%s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodDelete, "/me/addresses/"+second.ID, hdr, "")
	_ = json.Unmarshal(w.Body.Bytes(), &book)
	if w.Code != http.StatusOK || len(book) != 1 || !book[0].IsDefault {
		t.Fatalf("delete default should promote: status=%d body=%s", w.Code, w.Body.String())
	}

	if w := h.do(http.MethodPut, "/me/addresses/missing", hdr, addr); w.Code != http.StatusNotFound {
		t.Fatalf("update missing: want 404, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/me/addresses", hdr, `{"name":"x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("incomplete: want 400, got %d", w.Code)
	}

	w = h.do(http.MethodPut, "/me/profile", hdr, `{"first_name":"Jane"}`)
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if w.Code != http.StatusOK || p.FirstName != "Jane" {
		t.Fatalf("update profile: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestProfile_RequiresToken(t *testing.T) {
	h := newHarness(t)
	if w := h.do(http.MethodGet, "/me/addresses", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}
