package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dipoade/resulta-api/internal/config"
	"github.com/dipoade/resulta-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint. It
// names the job backend so an operator can tell at a glance whether the
// instance dispatches through NATS or runs its own worker pool.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	JobsBackend string    `json:"jobs_backend"`
	Workers     int       `json:"workers"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	backend := "in-process"
	if cfg.NATSURL != "" {
		backend = "nats"
	}

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			JobsBackend: backend,
			Workers:     cfg.WorkerConcurrency,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
