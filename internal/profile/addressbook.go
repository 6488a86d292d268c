package profile

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// The functions below never modify their input slice. Each returns a book in which
// at most one address has IsDefault set.

func AddAddress(book []Address, in AddressInput) ([]Address, Address, error) {
	a, err := applyInput(Address{}, in)
	if err != nil {
		return nil, Address{}, err
	}
	a.ID = uuid.NewString()
	a.IsDefault = len(book) == 0 || (in.IsDefault != nil && *in.IsDefault)

	out := clone(book)
	if a.IsDefault {
		clearDefaults(out)
	}
	out = append(out, a)
	normalize(out)
	return out, a, nil
}

func UpdateAddress(book []Address, id string, in AddressInput) ([]Address, Address, error) {
	i := indexOf(book, id)
	if i < 0 {
		return nil, Address{}, ErrAddressNotFound
	}
	a, err := applyInput(book[i], in)
	if err != nil {
		return nil, Address{}, err
	}
	out := clone(book)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
		if a.IsDefault {
			clearDefaults(out)
		}
	}
	out[i] = a
	normalize(out)
	return out, out[i], nil
}

// DeleteAddress removes id; when it was the default the first remaining address takes over.
func DeleteAddress(book []Address, id string) ([]Address, error) {
	i := indexOf(book, id)
	if i < 0 {
		return nil, ErrAddressNotFound
	}
	wasDefault := book[i].IsDefault
	out := make([]Address, 0, len(book)-1)
	out = append(out, book[:i]...)
	out = append(out, book[i+1:]...)
	if wasDefault && len(out) > 0 {
		out[0].IsDefault = true
	}
	normalize(out)
	return out, nil
}

func SetDefaultAddress(book []Address, id string) ([]Address, error) {
	i := indexOf(book, id)
	if i < 0 {
		return nil, ErrAddressNotFound
	}
	out := clone(book)
	clearDefaults(out)
	out[i].IsDefault = true
	return out, nil
}

// DefaultAddress returns the flagged address, else the first one.
func DefaultAddress(book []Address) (Address, bool) {
	for _, a := range book {
		if a.IsDefault {
			return a, true
		}
	}
	if len(book) > 0 {
		return book[0], true
	}
	return Address{}, false
}

func applyInput(a Address, in AddressInput) (Address, error) {
	a.Name = strings.TrimSpace(in.Name)
	a.Street = strings.TrimSpace(in.Street)
	a.City = strings.TrimSpace(in.City)
	a.State = strings.TrimSpace(in.State)
	a.ZipCode = strings.TrimSpace(in.ZipCode)
	a.Phone = strings.TrimSpace(in.Phone)
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"name", a.Name}, {"street", a.Street}, {"city", a.City}, {"zip_code", a.ZipCode},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Address{}, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return a, nil
}

func indexOf(book []Address, id string) int {
	for i, a := range book {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func clone(book []Address) []Address {
	out := make([]Address, len(book), len(book)+1)
	copy(out, book)
	return out
}

func clearDefaults(book []Address) {
	for i := range book {
		book[i].IsDefault = false
	}
}

// normalize keeps only the first default flag.
func normalize(book []Address) {
	seen := false
	for i := range book {
		if book[i].IsDefault {
			book[i].IsDefault = !seen
			seen = true
		}
	}
}
