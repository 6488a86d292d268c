package profilerpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

// Client calls the profile service and maps status codes back to profile errors.
type Client struct {
	cc      grpc.ClientConnInterface
	closer  func() error
	timeout time.Duration
}

// Dial connects lazily; the first RPC establishes the connection.
func Dial(addr, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(withToken(token)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	c := NewClient(conn)
	c.closer = conn.Close
	return c, nil
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc, timeout: 5 * time.Second}
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *Client) GetProfile(ctx context.Context, uid, email string) (*profile.Profile, error) {
	return c.profileCall(ctx, "GetProfile", userRequest{UserID: uid, Email: email})
}

func (c *Client) UpdateProfile(ctx context.Context, uid string, u profile.Update) (*profile.Profile, error) {
	return c.profileCall(ctx, "UpdateProfile", updateProfileRequest{UserID: uid, Update: u})
}

func (c *Client) AddAddress(ctx context.Context, uid string, in profile.AddressInput) (*profile.Profile, profile.Address, error) {
	var out addAddressResponse
	if err := c.call(ctx, "AddAddress", addressRequest{UserID: uid, Address: in}, &out); err != nil {
		return nil, profile.Address{}, err
	}
	return out.Profile, out.Address, nil
}

func (c *Client) UpdateAddress(ctx context.Context, uid, id string, in profile.AddressInput) (*profile.Profile, error) {
	return c.profileCall(ctx, "UpdateAddress", addressRequest{UserID: uid, AddressID: id, Address: in})
}

func (c *Client) DeleteAddress(ctx context.Context, uid, id string) (*profile.Profile, error) {
	return c.profileCall(ctx, "DeleteAddress", addressRequest{UserID: uid, AddressID: id})
}

func (c *Client) SetDefaultAddress(ctx context.Context, uid, id string) (*profile.Profile, error) {
	return c.profileCall(ctx, "SetDefaultAddress", addressRequest{UserID: uid, AddressID: id})
}

func (c *Client) DefaultAddress(ctx context.Context, uid string) (profile.Address, error) {
	var a profile.Address
	if err := c.call(ctx, "GetDefaultAddress", userRequest{UserID: uid}, &a); err != nil {
		return profile.Address{}, err
	}
	return a, nil
}

func (c *Client) AppendOrder(ctx context.Context, uid string, ref profile.OrderRef) error {
	_, err := c.profileCall(ctx, "AppendOrder", appendOrderRequest{UserID: uid, Order: ref})
	return err
}

func (c *Client) profileCall(ctx context.Context, method string, req any) (*profile.Profile, error) {
	var p profile.Profile
	if err := c.call(ctx, method, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) call(ctx context.Context, method string, req, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	in, err := encode(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, resp); err != nil {
		return fromStatus(err)
	}
	if err := decode(resp, out); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	return nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		if strings.Contains(st.Message(), profile.ErrAddressNotFound.Error()) {
			return profile.ErrAddressNotFound
		}
		return profile.ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", profile.ErrInvalidInput, strings.TrimPrefix(st.Message(), profile.ErrInvalidInput.Error()+": "))
	case codes.Aborted:
		return profile.ErrConflict
	default:
		return fmt.Errorf("profile service: %w", err)
	}
}
