package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront-ecom/internal/db"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrDuplicatePayment is returned by Create when the provider payment already has an order.
	ErrDuplicatePayment = errors.New("order already recorded for payment")
	// ErrConflict means the status changed between read and write.
	ErrConflict = errors.New("order status changed concurrently")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByPayment(ctx context.Context, method, paymentID string) (*Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Order, error)
	// UpdateStatus moves the order from -> entry.Status and appends entry, only if the
	// stored status is still from.
	UpdateStatus(ctx context.Context, id string, from Status, entry HistoryEntry) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `id::text, user_id, user_email, status, currency, subtotal::text, tax::text,
	shipping::text, total::text, shipping_address, billing_address, payment_method, payment_id,
	created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ship, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return err
	}
	bill, err := marshalAddress(o.BillingAddress)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, user_email, status, currency, subtotal, tax, shipping, total,
		                    shipping_address, billing_address, payment_method, payment_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.UserEmail, string(o.Status), o.Currency,
		o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Shipping.StringFixed(2), o.Total.StringFixed(2),
		ship, bill, o.PaymentMethod, o.PaymentID,
	).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, title, selected_size, quantity, price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, it.ID, o.ID, it.ProductID, it.Title, it.SelectedSize, it.Quantity, it.Price.StringFixed(2)); err != nil {
			return err
		}
	}
	for _, h := range o.History {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_status_history (order_id, status, note, created_at)
			VALUES ($1,$2,$3,$4)
		`, o.ID, string(h.Status), h.Note, h.Timestamp); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *PGRepo) GetByPayment(ctx context.Context, method, paymentID string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_method=$1 AND payment_id=$2`,
		method, paymentID)
}

func (r *PGRepo) getOne(ctx context.Context, sql string, args ...any) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.History, err = r.history(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return r.items(ctx, orderID)
}

func (r *PGRepo) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, order_id::text, product_id, title, selected_size, quantity, price::text
		FROM order_items WHERE order_id=$1
		ORDER BY title, selected_size
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.SelectedSize, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) history(ctx context.Context, orderID string) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, note, created_at
		FROM order_status_history WHERE order_id=$1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var (
			h  HistoryEntry
			st string
		)
		if err := rows.Scan(&st, &h.Note, &h.Timestamp); err != nil {
			return nil, err
		}
		h.Status = Status(st)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return r.list(ctx, `WHERE user_id=$1`, userID, limit, offset)
}

// ListByStatus lists every order when status is empty.
func (r *PGRepo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Order, error) {
	return r.list(ctx, `WHERE ($1 = '' OR status = $1)`, string(status), limit, offset)
}

func (r *PGRepo) list(ctx context.Context, where, arg string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, arg, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, from Status, entry HistoryEntry) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(entry.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, status, note, created_at)
		VALUES ($1,$2,$3,$4)
	`, id, string(entry.Status), entry.Note, entry.Timestamp); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                     Order
		status                string
		sub, tax, ship, total string
		shipAddr, billAddr    []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.UserEmail, &status, &o.Currency, &sub, &tax, &ship, &total,
		&shipAddr, &billAddr, &o.PaymentMethod, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	for _, f := range []struct {
		src string
		dst *decimal.Decimal
	}{{sub, &o.Subtotal}, {tax, &o.Tax}, {ship, &o.Shipping}, {total, &o.Total}} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("order %s amount %q: %w", o.ID, f.src, err)
		}
		*f.dst = d
	}
	var err error
	if o.ShippingAddress, err = unmarshalAddress(shipAddr); err != nil {
		return nil, err
	}
	if o.BillingAddress, err = unmarshalAddress(billAddr); err != nil {
		return nil, err
	}
	return &o, nil
}

func marshalAddress(a *Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func unmarshalAddress(b []byte) (*Address, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var a Address
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
