package deps

import (
	"time"

	"github.com/linkman-app/linkman/internal/cache"
	"github.com/linkman-app/linkman/internal/data"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/migration"
	"github.com/linkman-app/linkman/internal/storage"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Store   *data.CachedStore // cached data access layer
	Cache   *cache.Cache      // cache behind the store, for stats/refresh
	Engine  *migration.Engine // migration, backup and recovery
	KV      storage.KV        // raw backend, for readiness probing
	DevMode bool              // unlocks the debug endpoints
}
