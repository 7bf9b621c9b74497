package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"vesta-waitlist-backend/internal/logger"
)

// ServiceName is the health service name of the waitlist API
const ServiceName = "vesta.waitlist"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter publishes database reachability through the standard gRPC health service
type HealthReporter struct {
	server *health.Server
	db     Pinger
}

func NewHealthReporter(db Pinger) *HealthReporter {
	return &HealthReporter{
		server: health.NewServer(),
		db:     db,
	}
}

// Server returns the health server to register on a grpc.Server
func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// Check pings the database once and updates the serving status
func (h *HealthReporter) Check(ctx context.Context, timeout time.Duration) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks every interval until ctx is cancelled, then marks everything NOT_SERVING
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	timeout := interval / 2
	if timeout <= 0 {
		timeout = time.Second
	}

	h.Check(ctx, timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx, timeout)
		}
	}
}
