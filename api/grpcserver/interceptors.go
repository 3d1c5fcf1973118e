package grpcserver

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"junction/api/swapapi"
	"junction/infra/metrics"
)

// LoggingInterceptor logs every call with its identity, code and latency.
func LoggingInterceptor(log *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"identity": identity(ctx),
			"code":     status.Code(err).String(),
			"took":     time.Since(start),
		})
		if err != nil {
			entry.WithField("reason", Reason(err)).Info("[gRPC] call failed")
		} else {
			entry.Debug("[gRPC] call")
		}
		return resp, err
	}
}

// DefaultLimiterIdentities bounds how many identities a Limiter tracks.
const DefaultLimiterIdentities = 65536

// Limiter hands out one token bucket per caller identity. Buckets live in
// an LRU of bounded size; an evicted identity starts again with a full
// bucket.
type Limiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
	metrics *metrics.Metrics
}

func NewLimiter(perSecond float64, burst int, m *metrics.Metrics) *Limiter {
	return newLimiter(perSecond, burst, DefaultLimiterIdentities, m)
}

func newLimiter(perSecond float64, burst, size int, m *metrics.Metrics) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	buckets, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		panic(err) // size is a positive constant
	}
	return &Limiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: buckets,
		metrics: m,
	}
}

func (l *Limiter) Allow(id string) bool {
	b, ok := l.buckets.Get(id)
	if !ok {
		fresh := rate.NewLimiter(l.limit, l.burst)
		if prev, found, _ := l.buckets.PeekOrAdd(id, fresh); found {
			b = prev
		} else {
			b = fresh
		}
	}
	return b.Allow()
}

// Tracked is the number of identities currently holding a bucket.
func (l *Limiter) Tracked() int { return l.buckets.Len() }

// Interceptor rejects calls over the caller's budget with
// RESOURCE_EXHAUSTED. Anonymous callers share one bucket.
func (l *Limiter) Interceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !l.Allow(string(identity(ctx))) {
			if l.metrics != nil {
				l.metrics.RateLimited()
			}
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %q", identity(ctx))
		}
		return handler(ctx, req)
	}
}

// NewGRPCServer builds a gRPC server with the swap service registered
// behind the logging and, when limiter is non-nil, rate-limit
// interceptors.
func NewGRPCServer(srv *Server, limiter *Limiter, opts ...grpc.ServerOption) *grpc.Server {
	chain := []grpc.UnaryServerInterceptor{LoggingInterceptor(srv.log)}
	if limiter != nil {
		chain = append(chain, limiter.Interceptor())
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(chain...))

	s := grpc.NewServer(opts...)
	swapapi.RegisterSwapServiceServer(s, srv)
	return s
}
