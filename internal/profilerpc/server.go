package profilerpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

type Server struct {
	svc *profile.Service
}

func NewServer(svc *profile.Service) *Server { return &Server{svc: svc} }

var _ ProfileServer = (*Server)(nil)

func (s *Server) GetProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req userRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, err := s.svc.GetOrCreate(ctx, req.UserID, req.Email)
	return reply(p, err)
}

func (s *Server) UpdateProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req updateProfileRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, err := s.svc.UpdateProfile(ctx, req.UserID, req.Update)
	return reply(p, err)
}

func (s *Server) AddAddress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req addressRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, a, err := s.svc.AddAddress(ctx, req.UserID, req.Address)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(addAddressResponse{Profile: p, Address: a}, nil)
}

func (s *Server) UpdateAddress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req addressRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, err := s.svc.UpdateAddress(ctx, req.UserID, req.AddressID, req.Address)
	return reply(p, err)
}

func (s *Server) DeleteAddress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req addressRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, err := s.svc.DeleteAddress(ctx, req.UserID, req.AddressID)
	return reply(p, err)
}

func (s *Server) SetDefaultAddress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req addressRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, err := s.svc.SetDefaultAddress(ctx, req.UserID, req.AddressID)
	return reply(p, err)
}

func (s *Server) GetDefaultAddress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req userRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	a, err := s.svc.DefaultAddress(ctx, req.UserID)
	return reply(a, err)
}

func (s *Server) AppendOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req appendOrderRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	p, err := s.svc.AppendOrder(ctx, req.UserID, req.Order)
	return reply(p, err)
}

func reply(v any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := encode(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, profile.ErrAddressNotFound), errors.Is(err, profile.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, profile.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, profile.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "profile: %v", err)
	}
}
