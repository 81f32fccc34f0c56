package main

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/PaulBabatuyi/chatlog/internal/logging"
)

// serviceName is the name reported alongside the overall ("") status.
const serviceName = "chatlog.api"

// newHealthServer returns a gRPC server exposing grpc.health.v1.Health.
// TLS is used when certFile and keyFile are both set.
func newHealthServer(certFile, keyFile string) (*grpc.Server, *health.Server, error) {
	var opts []grpc.ServerOption
	if certFile != "" && keyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(certFile, keyFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	gs := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs, nil
}

// watchHealth sets the serving status from ping every interval until ctx is done.
func watchHealth(ctx context.Context, hs *health.Server, ping func(context.Context) error, interval time.Duration, log logging.Logger) {
	update := func() {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err := ping(pctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			log.Warn(ctx, "backend ping failed", "error", err)
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(serviceName, status)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			update()
		case <-ctx.Done():
			hs.Shutdown()
			return
		}
	}
}
