// Package profilerpc exposes the profile service over gRPC. Messages travel as
// google.protobuf.Struct carrying the JSON form of the Go types below.
package profilerpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "storefront.profile.v1.ProfileService"

type ProfileServer interface {
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddAddress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateAddress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAddress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetDefaultAddress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDefaultAddress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AppendOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ProfileServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProfileServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProfileServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProfileServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetProfile", ProfileServer.GetProfile),
		unary("UpdateProfile", ProfileServer.UpdateProfile),
		unary("AddAddress", ProfileServer.AddAddress),
		unary("UpdateAddress", ProfileServer.UpdateAddress),
		unary("DeleteAddress", ProfileServer.DeleteAddress),
		unary("SetDefaultAddress", ProfileServer.SetDefaultAddress),
		unary("GetDefaultAddress", ProfileServer.GetDefaultAddress),
		unary("AppendOrder", ProfileServer.AppendOrder),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/profile/v1/profile.proto",
}

func RegisterProfileServer(s grpc.ServiceRegistrar, srv ProfileServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
