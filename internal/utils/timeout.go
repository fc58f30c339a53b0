package utils

import (
	"context"
	"sync/atomic"
	"time"
)

const DefaultDBTimeout = 5 * time.Second

var dbTimeout atomic.Int64

func init() {
	dbTimeout.Store(int64(DefaultDBTimeout))
}

// SetDBTimeout changes the per-query deadline used by WithDBTimeout. Non-positive values are ignored.
func SetDBTimeout(d time.Duration) {
	if d > 0 {
		dbTimeout.Store(int64(d))
	}
}

func DBTimeout() time.Duration {
	return time.Duration(dbTimeout.Load())
}

// WithDBTimeout bounds one repository call; a sooner deadline on ctx still applies.
func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DBTimeout())
}
