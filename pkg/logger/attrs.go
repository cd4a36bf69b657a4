package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ensureInstanceID defaults to hostname plus a short random suffix so
// replicas stay distinguishable in aggregated logs.
func ensureInstanceID(id string) string {
	if id != "" {
		return id
	}

	host, _ := os.Hostname()
	suffix := uuid.New().String()[:8]
	return host + "-" + suffix
}

// commonAttr is stamped onto every record via the handler.
func commonAttr(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
		slog.Time("started_at", time.Now()),
	}
}
