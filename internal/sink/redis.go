package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"dashboard-service/internal/broadcast"
	"dashboard-service/pkg/models"

	"github.com/go-redis/redis/v8"
)

const (
	LatestMetricsKey = "dashboard:metrics:latest"
	UpdatesChannel   = "dashboard:updates"
)

// redisWriter is the part of redis.Cmdable the sink uses.
type redisWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink keeps the latest metrics sample in a hash and publishes every
// snapshot on a channel so other processes can follow the dashboard.
type RedisSink struct {
	client redisWriter
}

func NewRedisSink(client redisWriter) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, snapshot models.RealtimeData) error {
	if err := s.client.HSet(ctx, LatestMetricsKey, metricsFields(snapshot.Metrics)...).Err(); err != nil {
		return fmt.Errorf("failed to store latest metrics: %w", err)
	}

	payload, err := broadcast.EncodeUpdate(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, UpdatesChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish dashboard update: %w", err)
	}
	return nil
}

func metricsFields(m models.SystemMetrics) []interface{} {
	return []interface{}{
		"id", strconv.Itoa(m.ID),
		"timestamp", m.Timestamp.UTC().Format(time.RFC3339),
		"cpuUsage", formatFloat(m.CPUUsage),
		"memoryUsage", formatFloat(m.MemoryUsage),
		"diskUsage", formatFloat(m.DiskUsage),
		"networkIO", formatFloat(m.NetworkIO),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
