// Package profile owns user profiles: contact fields, the address book and the
// denormalized list of placed orders.
package profile

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("profile not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidInput    = errors.New("invalid profile input")
	// ErrConflict is returned when a save loses a version race.
	ErrConflict = errors.New("profile modified concurrently")
)

type Address struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	ZipCode   string `json:"zip_code" bson:"zipCode"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	IsDefault bool   `json:"is_default" bson:"isDefault"`
}

// AddressInput is the editable part of an address. A nil IsDefault leaves the flag alone
// on update and means false on add.
type AddressInput struct {
	Name      string `json:"name" example:"Jane Doe"`
	Street    string `json:"street" example:"742 Evergreen Terrace"`
	City      string `json:"city" example:"Springfield"`
	State     string `json:"state" example:"OR"`
	ZipCode   string `json:"zip_code" example:"97403"`
	Phone     string `json:"phone" example:"+1 555 0100"`
	IsDefault *bool  `json:"is_default"`
}

// OrderRef is the summary kept on the profile for the order history page.
type OrderRef struct {
	OrderID   string    `json:"order_id" bson:"orderId"`
	Status    string    `json:"status" bson:"status"`
	Total     string    `json:"total" bson:"total"` // decimal string
	Currency  string    `json:"currency" bson:"currency"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

type Profile struct {
	UserID    string     `json:"user_id" bson:"_id"`
	Email     string     `json:"email" bson:"email,omitempty"`
	FirstName string     `json:"first_name" bson:"firstName"`
	LastName  string     `json:"last_name" bson:"lastName"`
	Phone     string     `json:"phone" bson:"phone"`
	Addresses []Address  `json:"addresses" bson:"addresses"`
	Orders    []OrderRef `json:"orders" bson:"orders"`
	Version   int64      `json:"version" bson:"version"`
	CreatedAt time.Time  `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updatedAt"`
}

// Update is a partial profile edit; nil fields are kept.
type Update struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

func newProfile(uid, email string, now time.Time) *Profile {
	return &Profile{
		UserID:    uid,
		Email:     email,
		Addresses: []Address{},
		Orders:    []OrderRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
