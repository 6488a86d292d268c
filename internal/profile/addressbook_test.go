package profile

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(name string, def *bool) AddressInput {
	return AddressInput{Name: name, Street: "1 Main St", City: "Springfield", State: "OR", ZipCode: "97403", IsDefault: def}
}

func yes() *bool { b := true; return &b }
func no() *bool  { b := false; return &b }

func defaults(book []Address) []string {
	var ids []string
	for _, a := range book {
		if a.IsDefault {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestAddAddress_FirstBecomesDefault(t *testing.T) {
	book, a, err := AddAddress(nil, input("Home", nil))
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
	assert.NotEmpty(t, a.ID)

	book, b, err := AddAddress(book, input("Work", nil))
	require.NoError(t, err)
	assert.False(t, b.IsDefault)
	assert.Equal(t, []string{a.ID}, defaults(book))

	book, c, err := AddAddress(book, input("Cabin", yes()))
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, defaults(book))
	assert.Len(t, book, 3)
}

func TestAddAddress_DoesNotMutateInput(t *testing.T) {
	book, _, _ := AddAddress(nil, input("Home", nil))
	_, _, err := AddAddress(book, input("Work", yes()))
	require.NoError(t, err)
	assert.True(t, book[0].IsDefault)
}

func TestAddAddress_Validation(t *testing.T) {
	_, _, err := AddAddress(nil, AddressInput{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "street")
}

func TestUpdateAddress(t *testing.T) {
	book, a, _ := AddAddress(nil, input("Home", nil))
	book, b, _ := AddAddress(book, input("Work", nil))

	book, got, err := UpdateAddress(book, b.ID, input("Office", yes()))
	require.NoError(t, err)
	assert.Equal(t, "Office", got.Name)
	assert.Equal(t, []string{b.ID}, defaults(book))

	book, got, err = UpdateAddress(book, a.ID, input("Home 2", nil))
	require.NoError(t, err)
	assert.False(t, got.IsDefault, "nil flag keeps the stored value")
	assert.Equal(t, []string{b.ID}, defaults(book))

	book, _, err = UpdateAddress(book, b.ID, input("Office", no()))
	require.NoError(t, err)
	assert.Empty(t, defaults(book))

	_, _, err = UpdateAddress(book, "missing", input("x", nil))
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestDeleteAddress_PromotesFirstRemaining(t *testing.T) {
	book, a, _ := AddAddress(nil, input("Home", nil))
	book, b, _ := AddAddress(book, input("Work", nil))
	book, c, _ := AddAddress(book, input("Cabin", yes()))

	book, err := DeleteAddress(book, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, defaults(book))

	book, err = DeleteAddress(book, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, defaults(book))

	book, err = DeleteAddress(book, a.ID)
	require.NoError(t, err)
	assert.Empty(t, book)

	_, err = DeleteAddress(book, a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestSetDefaultAddress(t *testing.T) {
	book, _, _ := AddAddress(nil, input("Home", nil))
	book, b, _ := AddAddress(book, input("Work", nil))

	book, err := SetDefaultAddress(book, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, defaults(book))

	_, err = SetDefaultAddress(book, "nope")
	assert.ErrorIs(t, err, ErrAddressNotFound)

	d, ok := DefaultAddress(book)
	require.True(t, ok)
	assert.Equal(t, b.ID, d.ID)
}

func TestDefaultAddress_FallsBackToFirst(t *testing.T) {
	_, ok := DefaultAddress(nil)
	assert.False(t, ok)

	d, ok := DefaultAddress([]Address{{ID: "a"}, {ID: "b"}})
	require.True(t, ok)
	assert.Equal(t, "a", d.ID)
}

func TestNormalize_RepairsDoubleDefault(t *testing.T) {
	book := []Address{{ID: "a", IsDefault: true}, {ID: "b", IsDefault: true}}
	out, err := DeleteAddress(append(book, Address{ID: "c"}), "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, defaults(out))
}

func TestAddressBook_AtMostOneDefault(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var book []Address
	pick := func() string {
		if len(book) == 0 || rng.Intn(10) == 0 {
			return "missing"
		}
		return book[rng.Intn(len(book))].ID
	}
	flag := func() *bool {
		switch rng.Intn(3) {
		case 0:
			return yes()
		case 1:
			return no()
		}
		return nil
	}

	for step := 0; step < 2000; step++ {
		var (
			next []Address
			err  error
		)
		switch rng.Intn(4) {
		case 0:
			next, _, err = AddAddress(book, input("a", flag()))
		case 1:
			next, _, err = UpdateAddress(book, pick(), input("u", flag()))
		case 2:
			next, err = DeleteAddress(book, pick())
		case 3:
			next, err = SetDefaultAddress(book, pick())
		}
		if err != nil {
			require.ErrorIs(t, err, ErrAddressNotFound)
			continue
		}
		require.LessOrEqualf(t, len(defaults(next)), 1, "step %d", step)
		book = next
	}
}
