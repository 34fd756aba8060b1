package handler

import (
	"context"
	"net/http"
	"time"

	"iptrack/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	db          Pinger
	redisClient *redis.Client
	logger      logger.Logger
	startTime   time.Time
}

func NewSystemHandler(db Pinger, redisClient *redis.Client, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		db:          db,
		redisClient: redisClient,
		logger:      log,
		startTime:   time.Now(),
	}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	Checks   map[string]string `json:"checks"`
	Duration int64             `json:"duration_ms"`
}

// Health reports database and (when configured) Redis reachability.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "healthy", Checks: map[string]string{}}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("Database health check failed", map[string]interface{}{"error": err.Error()})
		resp.Checks["database"] = "down"
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "up"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			// Losing Redis only disables idempotent replay.
			h.logger.Warn("Redis health check failed", map[string]interface{}{"error": err.Error()})
			resp.Checks["redis"] = "down"
			if resp.Status == "healthy" {
				resp.Status = "degraded"
			}
		} else {
			resp.Checks["redis"] = "up"
		}
	}

	resp.Uptime = time.Since(h.startTime).Round(time.Second).String()
	resp.Duration = time.Since(start).Milliseconds()
	respondJSON(w, status, resp)
}
