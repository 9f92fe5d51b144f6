package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName — имя сервиса в gRPC health; пустое имя означает сервер целиком.
const ServiceName = "vetclinic.booking"

// Pinger проверяет зависимость (база).
type Pinger func(ctx context.Context) error

// Checker периодически пингует базу и переключает статус health-сервера.
type Checker struct {
	srv      *health.Server
	ping     Pinger
	interval time.Duration
	log      *zap.Logger
	healthy  bool
}

func NewChecker(ping Pinger, interval time.Duration, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Checker{srv: srv, ping: ping, interval: interval, log: log}
}

// Server отдаёт health-сервер для регистрации в grpc.Server.
func (c *Checker) Server() *health.Server {
	return c.srv
}

// Check пингует базу один раз и выставляет статус. Возвращает true, если всё живо.
func (c *Checker) Check(ctx context.Context) bool {
	err := c.ping(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	ok := err == nil
	if ok != c.healthy {
		if ok {
			c.log.Info("database is reachable")
		} else {
			c.log.Warn("database ping failed", zap.Error(err))
		}
		c.healthy = ok
	}

	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(ServiceName, status)
	return ok
}

// Run проверяет базу каждые interval до отмены ctx, затем переводит сервер в NOT_SERVING.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
