package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v9"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tablehub/tablehub/app/core/srv"
	"github.com/tablehub/tablehub/app/store/sqlstore"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/object-storage/s3"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

// ObjectStorage stores schema exports when an object storage driver is configured.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	GenGetObjectPreSignURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores     func() *sqlstore.Provider
	registry   *dyntable.Registry
	httpEngine *gin.Engine

	redis         redis.UniversalClient
	cache         types.Cache
	limiters      *Limiters
	locks         *LockManager
	objectStorage ObjectStorage
	nodeToken     string

	metrics *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	setupLogger(cfg.Log)

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("tablehub", "core", prometheus.DefaultRegisterer.(*prometheus.Registry)),
		httpEngine: gin.New(),
		limiters:   NewLimiters(),
	}
	utils.SetupIDWorker(cfg.NodeID)
	core.nodeToken = utils.GenUniqIDStr()

	// setup store
	setupSqlStore(core)
	setupCache(core)

	if err := setupObjectStorage(core); err != nil {
		panic(err)
	}

	core.registry = dyntable.NewRegistry(
		core.Store().DynamicTableStore(),
		core.Store().DynamicStorageStore(),
		dyntable.WithAutoRepair(cfg.Tables.AutoRepairEnabled()),
		dyntable.WithObserver(core.metrics),
	)
	core.locks = NewLockManager(core)
	core.srv = srv.SetupSrvs()

	return core
}

func setupLogger(cfg Log) {
	var writer io.Writer = os.Stdout
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28,   //days
			Compress:   true, // disabled by default
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

func setupSqlStore(core *Core) {
	core.stores = sqlstore.MustSetup(core.cfg.Postgres)
	// 执行数据库表初始化
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
	slog.Info("setupSqlStore done", slog.String("component", "core"))
}

func setupCache(core *Core) {
	core.redis = setupRedis(core.cfg.Redis)
	if core.redis == nil {
		core.cache = NewMemoryCache()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := core.redis.Ping(ctx).Err(); err != nil {
		panic(err)
	}
	core.cache = &RedisCache{redis: core.redis, prefix: core.cfg.Redis.KeyPrefix}
}

func setupObjectStorage(core *Core) error {
	cfg := core.cfg.ObjectStorage
	if cfg.Driver != "s3" || cfg.S3 == nil {
		return nil
	}
	cli, err := s3.NewS3Client(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3.WithPathStyle(cfg.S3.UsePathStyle))
	if err != nil {
		return err
	}
	core.objectStorage = cli
	return nil
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Registry() *dyntable.Registry {
	return s.registry
}

// Redis returns nil when redis is not configured.
func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

func (s *Core) Cache() types.Cache {
	return s.cache
}

func (s *Core) Locks() *LockManager {
	return s.locks
}

// ObjectStorage returns nil when no driver is configured.
func (s *Core) ObjectStorage() ObjectStorage {
	return s.objectStorage
}

func (s *Core) UseLimiter(key string, opts ...LimitOption) Limiter {
	return s.limiters.Use(key, opts...)
}

// SweepCache drops expired entries of the in-process cache, a no-op with redis.
func (s *Core) SweepCache() int {
	if mc, ok := s.cache.(*MemoryCache); ok {
		return mc.Sweep()
	}
	return 0
}
