package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const saveAttempts = 3

// maxOrderRefs bounds the denormalized order list; the orders table keeps everything.
const maxOrderRefs = 100

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// GetOrCreate returns the profile for uid, bootstrapping an empty one on first sight.
func (s *Service) GetOrCreate(ctx context.Context, uid, email string) (*Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	for attempt := 0; attempt < saveAttempts; attempt++ {
		p, err := s.repo.Get(ctx, uid)
		if err == nil {
			if p.Email == "" && email != "" {
				return s.update(ctx, uid, func(p *Profile) error {
					p.Email = email
					return nil
				})
			}
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		p = newProfile(uid, email, s.now().UTC())
		err = s.repo.Insert(ctx, p)
		if err == nil {
			s.log.InfoContext(ctx, "profile created", slog.String("user_id", uid))
			return p, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

func (s *Service) UpdateProfile(ctx context.Context, uid string, u Update) (*Profile, error) {
	return s.update(ctx, uid, func(p *Profile) error {
		if u.FirstName != nil {
			p.FirstName = strings.TrimSpace(*u.FirstName)
		}
		if u.LastName != nil {
			p.LastName = strings.TrimSpace(*u.LastName)
		}
		if u.Phone != nil {
			p.Phone = strings.TrimSpace(*u.Phone)
		}
		return nil
	})
}

func (s *Service) AddAddress(ctx context.Context, uid string, in AddressInput) (*Profile, Address, error) {
	var added Address
	p, err := s.update(ctx, uid, func(p *Profile) error {
		book, a, err := AddAddress(p.Addresses, in)
		if err != nil {
			return err
		}
		p.Addresses, added = book, a
		return nil
	})
	return p, added, err
}

func (s *Service) UpdateAddress(ctx context.Context, uid, id string, in AddressInput) (*Profile, error) {
	return s.update(ctx, uid, func(p *Profile) error {
		book, _, err := UpdateAddress(p.Addresses, id, in)
		if err != nil {
			return err
		}
		p.Addresses = book
		return nil
	})
}

func (s *Service) DeleteAddress(ctx context.Context, uid, id string) (*Profile, error) {
	return s.update(ctx, uid, func(p *Profile) error {
		book, err := DeleteAddress(p.Addresses, id)
		if err != nil {
			return err
		}
		p.Addresses = book
		return nil
	})
}

func (s *Service) SetDefaultAddress(ctx context.Context, uid, id string) (*Profile, error) {
	return s.update(ctx, uid, func(p *Profile) error {
		book, err := SetDefaultAddress(p.Addresses, id)
		if err != nil {
			return err
		}
		p.Addresses = book
		return nil
	})
}

func (s *Service) DefaultAddress(ctx context.Context, uid string) (Address, error) {
	p, err := s.repo.Get(ctx, uid)
	if err != nil {
		return Address{}, err
	}
	a, ok := DefaultAddress(p.Addresses)
	if !ok {
		return Address{}, ErrAddressNotFound
	}
	return a, nil
}

// AppendOrder puts ref at the head of the order list. An entry with the same order id
// is updated where it stands, which is how status changes reach the profile.
func (s *Service) AppendOrder(ctx context.Context, uid string, ref OrderRef) (*Profile, error) {
	if ref.OrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	return s.update(ctx, uid, func(p *Profile) error {
		for i, o := range p.Orders {
			if o.OrderID == ref.OrderID {
				p.Orders[i] = ref
				return nil
			}
		}
		orders := make([]OrderRef, 0, len(p.Orders)+1)
		orders = append(orders, ref)
		orders = append(orders, p.Orders...)
		if len(orders) > maxOrderRefs {
			orders = orders[:maxOrderRefs]
		}
		p.Orders = orders
		return nil
	})
}

// update loads, mutates and saves with compare-and-set, retrying lost races. A missing
// profile is created.
func (s *Service) update(ctx context.Context, uid string, fn func(*Profile) error) (*Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		p, err := s.repo.Get(ctx, uid)
		fresh := errors.Is(err, ErrNotFound)
		if fresh {
			p = newProfile(uid, "", s.now().UTC())
		} else if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		p.UpdatedAt = s.now().UTC()
		if fresh {
			err = s.repo.Insert(ctx, p)
		} else {
			err = s.repo.Save(ctx, p)
		}
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.log.DebugContext(ctx, "profile save conflict, retrying",
			slog.String("user_id", uid), slog.Int("attempt", attempt))
	}
	return nil, ErrConflict
}
