package paywall

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/health"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
)

// serviceName имя сервиса в протоколе grpc.health.v1.
const serviceName = "paywall"

const probeInterval = 10 * time.Second

// healthServer отдаёт состояние сервиса по grpc.health.v1 для оркестратора.
type healthServer struct {
	grpcServer *grpc.Server
	status     *grpchealth.Server
	listener   net.Listener
	db         health.Pinger
	logger     *slog.Logger
}

func newHealthServer(address string, db health.Pinger, logger *slog.Logger) (*healthServer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("paywall.newHealthServer: %w", err)
	}

	status := grpchealth.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, status)

	return &healthServer{
		grpcServer: grpcServer,
		status:     status,
		listener:   lis,
		db:         db,
		logger:     logger,
	}, nil
}

// Serve обслуживает запросы и периодически обновляет статус по доступности базы.
func (h *healthServer) Serve(ctx context.Context) error {
	h.probe(ctx)
	go func() {
		ticker := time.NewTicker(probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.probe(ctx)
			}
		}
	}()

	h.logger.Info("gRPC health service listening on", slog.String("address", h.listener.Addr().String()))
	return h.grpcServer.Serve(h.listener)
}

func (h *healthServer) probe(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if h.db.Configured() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.db.Ping(pingCtx); err != nil {
			h.logger.Warn("database probe failed", sl.Err(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.status.SetServingStatus("", st)
	h.status.SetServingStatus(serviceName, st)
}

// Stop переводит сервис в NOT_SERVING и останавливает сервер.
func (h *healthServer) Stop() {
	h.status.Shutdown()
	h.grpcServer.GracefulStop()
}
