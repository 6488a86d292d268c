package profilerpc

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenHeader carries the shared service token on every call.
const TokenHeader = "x-service-token"

func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(b), err
}

func CheckToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// TokenAuth rejects profile calls whose token does not match hash. Other services
// registered on the same server (health) pass through. An empty hash disables the check.
func TokenAuth(hash string) grpc.UnaryServerInterceptor {
	if hash == "" {
		return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			return handler(ctx, req)
		}
	}
	var verified sync.Map
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		vals := md.Get(TokenHeader)
		if len(vals) == 0 || vals[0] == "" {
			return nil, status.Error(codes.Unauthenticated, "service token required")
		}
		if _, ok := verified.Load(vals[0]); !ok {
			if !CheckToken(hash, vals[0]) {
				return nil, status.Error(codes.Unauthenticated, "invalid service token")
			}
			verified.Store(vals[0], struct{}{})
		}
		return handler(ctx, req)
	}
}

// Logging writes one line per call.
func Logging(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("dur", time.Since(start)),
		}
		if err != nil && status.Code(err) == codes.Internal {
			log.ErrorContext(ctx, "grpc", append(attrs, slog.Any("err", err))...)
			return resp, err
		}
		log.InfoContext(ctx, "grpc", attrs...)
		return resp, err
	}
}

func withToken(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if token != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, TokenHeader, token)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
