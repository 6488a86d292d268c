package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront-ecom/internal/logger"
)

type memRepo struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func newMemRepo() *memRepo { return &memRepo{orders: map[string]*Order{}} }

func (m *memRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.orders {
		if x.PaymentMethod == o.PaymentMethod && x.PaymentID == o.PaymentID {
			return ErrDuplicatePayment
		}
	}
	cp := *o
	cp.History = append([]HistoryEntry(nil), o.History...)
	m.orders[o.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.History = append([]HistoryEntry(nil), o.History...)
	return &cp, nil
}

func (m *memRepo) GetByPayment(_ context.Context, method, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentMethod == method && o.PaymentID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) GetItems(ctx context.Context, id string) ([]Item, error) {
	o, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

func (m *memRepo) ListByUser(context.Context, string, int, int) ([]Order, error) { return nil, nil }

func (m *memRepo) ListByStatus(context.Context, Status, int, int) ([]Order, error) { return nil, nil }

func (m *memRepo) UpdateStatus(_ context.Context, id string, from Status, e HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrConflict
	}
	o.Status = e.Status
	o.History = append(o.History, e)
	return nil
}

type recordingNotifier struct {
	calls []Status
	err   error
}

func (n *recordingNotifier) StatusChanged(_ context.Context, o *Order, _ Status) error {
	n.calls = append(n.calls, o.Status)
	return n.err
}

func newTestService(repo Repository, n Notifier) *Service {
	s := NewService(repo, n, logger.Discard())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func placeOne(t *testing.T, s *Service) *Order {
	t.Helper()
	o, err := s.Place(context.Background(), Draft{
		UserID:        "u1",
		Currency:      "USD",
		Items:         []Item{{ProductID: "p1", Title: "Tee", Quantity: 2, Price: dec("10.00")}},
		Quote:         DefaultPricing().Quote([]Line{{Price: dec("10.00"), Quantity: 2}}),
		PaymentMethod: MethodPayPal,
		PaymentID:     "PAY-1",
	})
	require.NoError(t, err)
	return o
}

func TestPlace_StartsPlacedWithHistory(t *testing.T) {
	s := newTestService(newMemRepo(), &recordingNotifier{})
	o := placeOne(t, s)

	assert.Equal(t, StatusPlaced, o.Status)
	require.Len(t, o.History, 1)
	assert.Equal(t, "Order placed successfully", o.History[0].Note)
	assert.Equal(t, "27.99", o.Total.StringFixed(2))
}

func TestPlace_SamePaymentReturnsExisting(t *testing.T) {
	s := newTestService(newMemRepo(), &recordingNotifier{})
	first := placeOne(t, s)
	second := placeOne(t, s)
	assert.Equal(t, first.ID, second.ID)
}

func TestPlace_SamePaymentOtherUserRejected(t *testing.T) {
	s := newTestService(newMemRepo(), nil)
	first := placeOne(t, s)

	_, err := s.Place(context.Background(), Draft{
		UserID:        "u2",
		Currency:      "USD",
		Items:         []Item{{ProductID: "p9", Title: "Cap", Quantity: 1, Price: dec("5.00")}},
		Quote:         DefaultPricing().Quote([]Line{{Price: dec("5.00"), Quantity: 1}}),
		PaymentMethod: first.PaymentMethod,
		PaymentID:     first.PaymentID,
	})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestPlace_Invalid(t *testing.T) {
	s := newTestService(newMemRepo(), nil)
	_, err := s.Place(context.Background(), Draft{UserID: "u1", PaymentMethod: MethodStripe, PaymentID: "cs_1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransition_HappyPathToDelivered(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestService(newMemRepo(), n)
	o := placeOne(t, s)

	path := []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusOutForDelivery, StatusDelivered}
	for _, to := range path {
		got, err := s.Transition(context.Background(), o.ID, to, "")
		require.NoError(t, err, to)
		assert.Equal(t, to, got.Status)
	}

	final, err := s.repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, final.History, len(path)+1)
	assert.Equal(t, "Order out_for_delivery", final.History[4].Note)
	assert.Equal(t, path, n.calls)
}

func TestTransition_Rejected(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestService(newMemRepo(), n)
	o := placeOne(t, s)

	_, err := s.Transition(context.Background(), o.ID, StatusDelivered, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Transition(context.Background(), o.ID, StatusCancelled, "customer asked")
	require.NoError(t, err)
	_, err = s.Transition(context.Background(), o.ID, StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Transition(context.Background(), "missing", StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []Status{StatusCancelled}, n.calls)
}

// staleRepo hands out a snapshot taken before a concurrent admin already moved the order.
type staleRepo struct {
	*memRepo
	stale *Order
}

func (r staleRepo) GetByID(context.Context, string) (*Order, error) {
	cp := *r.stale
	return &cp, nil
}

func TestTransition_ConcurrentChangeConflicts(t *testing.T) {
	mem := newMemRepo()
	s := newTestService(mem, nil)
	o := placeOne(t, s)
	snapshot, _ := mem.GetByID(context.Background(), o.ID)

	_, err := s.Transition(context.Background(), o.ID, StatusConfirmed, "")
	require.NoError(t, err)

	racer := newTestService(staleRepo{memRepo: mem, stale: snapshot}, nil)
	_, err = racer.Transition(context.Background(), o.ID, StatusProcessing, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransition_NotifierFailureIsIgnored(t *testing.T) {
	s := newTestService(newMemRepo(), &recordingNotifier{err: errors.New("smtp down")})
	o := placeOne(t, s)

	got, err := s.Transition(context.Background(), o.ID, StatusConfirmed, "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.History[len(got.History)-1].Note)
}

func TestTransitions(t *testing.T) {
	s := newTestService(newMemRepo(), nil)
	o := placeOne(t, s)

	tr, err := s.Transitions(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, tr.Current)
	assert.Equal(t, []Status{StatusConfirmed, StatusProcessing, StatusCancelled}, tr.Next)
}

func TestNotifiers_CallsEveryNotifier(t *testing.T) {
	a := &recordingNotifier{err: errors.New("profile down")}
	b := &recordingNotifier{}
	s := newTestService(newMemRepo(), Notifiers{a, b})
	o := placeOne(t, s)

	_, err := s.Transition(context.Background(), o.ID, StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusConfirmed}, a.calls)
	assert.Equal(t, []Status{StatusConfirmed}, b.calls)

	err = Notifiers{a, b}.StatusChanged(context.Background(), o, StatusPlaced)
	assert.EqualError(t, err, "profile down")
}
