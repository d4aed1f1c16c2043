// Package sink mirrors tick output to external stores. Every sink is
// best-effort: a failed write is reported to the caller, logged, and never
// stops the tick that produced it.
package sink

import (
	"context"

	"dashboard-service/pkg/models"
)

// Sink receives the snapshot produced by each tick.
type Sink interface {
	Name() string
	Write(ctx context.Context, snapshot models.RealtimeData) error
}
