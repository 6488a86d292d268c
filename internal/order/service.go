package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid order input")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotOwner          = errors.New("order belongs to another user")
)

// Notifier is told about every committed status change. Failures are logged, never returned.
type Notifier interface {
	StatusChanged(ctx context.Context, o *Order, from Status) error
}

// LogNotifier writes one structured line per change.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) StatusChanged(ctx context.Context, o *Order, from Status) error {
	n.Log.InfoContext(ctx, "order status changed",
		slog.String("order_id", o.ID),
		slog.String("user_id", o.UserID),
		slog.String("email", o.UserEmail),
		slog.String("from", string(from)),
		slog.String("to", string(o.Status)),
	)
	return nil
}

// Notifiers fans a change out to each notifier in turn.
type Notifiers []Notifier

func (ns Notifiers) StatusChanged(ctx context.Context, o *Order, from Status) error {
	var errs []error
	for _, n := range ns {
		if err := n.StatusChanged(ctx, o, from); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Service struct {
	repo   Repository
	notify Notifier
	log    *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, notify Notifier, log *slog.Logger) *Service {
	if notify == nil {
		notify = LogNotifier{Log: log}
	}
	return &Service{repo: repo, notify: notify, log: log, now: time.Now}
}

// Draft carries everything checkout knows when a payment completes.
type Draft struct {
	UserID          string
	UserEmail       string
	Currency        string
	Items           []Item
	Quote           Quote
	ShippingAddress *Address
	BillingAddress  *Address
	PaymentMethod   string
	PaymentID       string
}

// Place records a new order in status placed. A second call for the same payment
// returns the order recorded by the first, provided it is for the same user.
func (s *Service) Place(ctx context.Context, d Draft) (*Order, error) {
	if d.UserID == "" || d.PaymentMethod == "" || d.PaymentID == "" {
		return nil, fmt.Errorf("%w: user, payment method and payment id are required", ErrInvalidInput)
	}
	if len(d.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	now := s.now().UTC()
	o := &Order{
		ID:              uuid.NewString(),
		UserID:          d.UserID,
		UserEmail:       d.UserEmail,
		Status:          StatusPlaced,
		Currency:        d.Currency,
		Subtotal:        d.Quote.Subtotal,
		Tax:             d.Quote.Tax,
		Shipping:        d.Quote.Shipping,
		Total:           d.Quote.Total,
		ShippingAddress: d.ShippingAddress,
		BillingAddress:  d.BillingAddress,
		PaymentMethod:   d.PaymentMethod,
		PaymentID:       d.PaymentID,
		Items:           append([]Item(nil), d.Items...),
		History:         []HistoryEntry{{Status: StatusPlaced, Note: "Order placed successfully", Timestamp: now}},
	}
	err := s.repo.Create(ctx, o)
	if errors.Is(err, ErrDuplicatePayment) {
		existing, err := s.repo.GetByPayment(ctx, d.PaymentMethod, d.PaymentID)
		if err != nil {
			return nil, err
		}
		if existing.UserID != d.UserID {
			s.log.WarnContext(ctx, "payment already recorded for another user",
				slog.String("order_id", existing.ID),
				slog.String("payment_method", d.PaymentMethod),
				slog.String("user_id", d.UserID))
			return nil, fmt.Errorf("%w: payment %s", ErrNotOwner, d.PaymentID)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.InfoContext(ctx, "order placed",
		slog.String("order_id", o.ID),
		slog.String("payment_method", o.PaymentMethod),
		slog.String("total", o.Total.StringFixed(2)))
	return o, nil
}

// ByPayment finds the order recorded for a provider payment.
func (s *Service) ByPayment(ctx context.Context, method, paymentID string) (*Order, error) {
	return s.repo.GetByPayment(ctx, method, paymentID)
}

// Transition moves an order to to, appending a history entry. An empty note becomes
// "Order <status>".
func (s *Service) Transition(ctx context.Context, id string, to Status, note string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = defaultNote(to)
	}
	entry := HistoryEntry{Status: to, Note: note, Timestamp: s.now().UTC()}
	if err := s.repo.UpdateStatus(ctx, id, from, entry); err != nil {
		return nil, err
	}

	o.Status = to
	o.UpdatedAt = entry.Timestamp
	o.History = append(o.History, entry)

	if err := s.notify.StatusChanged(ctx, o, from); err != nil {
		s.log.WarnContext(ctx, "status notification failed",
			slog.String("order_id", o.ID), slog.Any("err", err))
	}
	return o, nil
}

// Transitions returns the current status and the admin's choices from it.
func (s *Service) Transitions(ctx context.Context, id string) (TransitionsResponse, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TransitionsResponse{}, err
	}
	return TransitionsResponse{OrderID: o.ID, Current: o.Status, Next: NextStatuses(o.Status)}, nil
}
