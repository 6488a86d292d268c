package profilerpc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/MikeMC777/storefront-ecom/internal/logger"
	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

type memRepo struct {
	mu sync.Mutex
	m  map[string]profile.Profile
}

func (r *memRepo) Get(_ context.Context, uid string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[uid]
	if !ok {
		return nil, profile.ErrNotFound
	}
	p.Addresses = append([]profile.Address{}, p.Addresses...)
	p.Orders = append([]profile.OrderRef{}, p.Orders...)
	return &p, nil
}

func (r *memRepo) Insert(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[p.UserID]; ok {
		return profile.ErrConflict
	}
	p.Version = 1
	r.m[p.UserID] = *p
	return nil
}

func (r *memRepo) Save(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m[p.UserID].Version != p.Version {
		return profile.ErrConflict
	}
	p.Version++
	r.m[p.UserID] = *p
	return nil
}

func startServer(t *testing.T, hash, token string) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(Logging(logger.Discard()), TokenAuth(hash)))
	svc := profile.NewService(&memRepo{m: map[string]profile.Profile{}}, logger.Discard())
	RegisterProfileServer(srv, NewServer(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := Dial("passthrough:///bufnet", token, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRoundTrip(t *testing.T) {
	c := startServer(t, "", "")
	ctx := context.Background()

	p, err := c.GetProfile(ctx, "u1", "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "a@b.c", p.Email)

	first := "Jane"
	p, err = c.UpdateProfile(ctx, "u1", profile.Update{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.FirstName)

	in := profile.AddressInput{Name: "Jane", Street: "1 Main", City: "Springfield", State: "OR", ZipCode: "97403"}
	_, home, err := c.AddAddress(ctx, "u1", in)
	require.NoError(t, err)
	assert.True(t, home.IsDefault)

	_, work, err := c.AddAddress(ctx, "u1", in)
	require.NoError(t, err)
	_, err = c.SetDefaultAddress(ctx, "u1", work.ID)
	require.NoError(t, err)

	d, err := c.DefaultAddress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, work.ID, d.ID)

	in.City = "Shelbyville"
	p, err = c.UpdateAddress(ctx, "u1", home.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", p.Addresses[0].City)

	p, err = c.DeleteAddress(ctx, "u1", work.ID)
	require.NoError(t, err)
	require.Len(t, p.Addresses, 1)
	assert.True(t, p.Addresses[0].IsDefault)

	require.NoError(t, c.AppendOrder(ctx, "u1", profile.OrderRef{OrderID: "o1", Status: "placed", Total: "27.99", Currency: "USD"}))
	p, err = c.GetProfile(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, p.Orders, 1)
	assert.Equal(t, "27.99", p.Orders[0].Total)
	assert.Equal(t, int64(8), p.Version)
}

func TestErrorMapping(t *testing.T) {
	c := startServer(t, "", "")
	ctx := context.Background()

	_, err := c.SetDefaultAddress(ctx, "u1", "nope")
	assert.ErrorIs(t, err, profile.ErrAddressNotFound)

	_, err = c.DefaultAddress(ctx, "ghost")
	assert.ErrorIs(t, err, profile.ErrNotFound)

	_, _, err = c.AddAddress(ctx, "u1", profile.AddressInput{Name: "x"})
	assert.ErrorIs(t, err, profile.ErrInvalidInput)
	assert.Contains(t, err.Error(), "street")
}

func TestTokenAuth(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)

	ok := startServer(t, hash, "s3cret")
	_, err = ok.GetProfile(context.Background(), "u1", "")
	require.NoError(t, err)
	_, err = ok.GetProfile(context.Background(), "u1", "")
	require.NoError(t, err)

	bad := startServer(t, hash, "wrong")
	_, err = bad.GetProfile(context.Background(), "u1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthenticated")

	missing := startServer(t, hash, "")
	_, err = missing.GetProfile(context.Background(), "u1", "")
	assert.Contains(t, err.Error(), "service token required")
}
