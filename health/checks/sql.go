package checks

import (
	"context"
	"database/sql"

	"github.com/jwebframework/jweb/health"
)

// Pinger is implemented by *sql.DB and by most database client handles.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SQL creates a check that pings a database. When db is a *sql.DB, connection
// pool statistics are included in the details and an exhausted pool with
// waiting callers reports DEGRADED.
func SQL(db Pinger) health.Check {
	return health.CheckFunc(func(ctx context.Context) (health.Status, error) {
		if err := db.PingContext(ctx); err != nil {
			return health.Down("database ping failed").WithDetail("error", err.Error()), nil
		}

		sqlDB, ok := db.(*sql.DB)
		if !ok {
			return health.Up(), nil
		}

		stats := sqlDB.Stats()
		status := health.Up().WithDetails(map[string]any{
			"openConnections": stats.OpenConnections,
			"inUse":           stats.InUse,
			"idle":            stats.Idle,
			"waitCount":       stats.WaitCount,
			"waitDurationMs":  stats.WaitDuration.Milliseconds(),
		})
		if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections && stats.WaitCount > 0 {
			status.State = health.StateDegraded
			status.Message = "connection pool exhausted"
		}
		return status, nil
	})
}
