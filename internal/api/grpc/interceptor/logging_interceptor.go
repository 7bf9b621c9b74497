package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"vesta-waitlist-backend/internal/logger"
)

const requestIDKey = "x-request-id"

type LoggingInterceptor struct{}

func NewLoggingInterceptor() *LoggingInterceptor {
	return &LoggingInterceptor{}
}

// Unary returns a server interceptor that tags each RPC with a request ID,
// logs its outcome and turns panics into codes.Internal
func (i *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		ctx = withRequestID(ctx)
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "gRPC handler panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
			logRPC(ctx, info.FullMethod, start, err)
		}()

		return handler(ctx, req)
	}
}

// Stream is the streaming counterpart of Unary (health Watch, reflection)
func (i *LoggingInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		ctx := withRequestID(ss.Context())
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "gRPC stream panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
			logRPC(ctx, info.FullMethod, start, err)
		}()

		return handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
	}
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }

// withRequestID reuses the caller's x-request-id when present
func withRequestID(ctx context.Context) context.Context {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDKey); len(ids) > 0 && ids[0] != "" {
			return logger.WithRequestID(ctx, ids[0])
		}
	}
	return logger.WithRequestID(ctx, uuid.NewString())
}

func logRPC(ctx context.Context, method string, start time.Time, err error) {
	code := status.Code(err)
	args := []any{"method", method, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
	if err != nil && code != codes.Canceled {
		logger.WarnContext(ctx, "gRPC call failed", append(args, "error", err)...)
		return
	}
	logger.DebugContext(ctx, "gRPC call", args...)
}
