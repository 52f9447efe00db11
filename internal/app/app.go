package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studytodo/internal/cache"
	"studytodo/internal/config"
	"studytodo/internal/middleware"
	"studytodo/internal/migrations"
	"studytodo/internal/repo"
	"studytodo/internal/service"
	"studytodo/internal/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type App struct {
	cfg     config.Config
	log     logrus.FieldLogger
	mongo   *mongo.Client
	db      *pgxpool.Pool
	redis   *redis.Client
	service *service.TaskService
	router  *gin.Engine
}

// New connects the configured task store and optional Redis cache and builds
// the router.
func New(cfg config.Config, log logrus.FieldLogger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	taskRepo, err := a.openStore()
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	var taskCache *cache.TaskCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			_ = a.Close(context.Background())
			return nil, err
		}
		a.redis = rdb
		taskCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
		log.WithField("addr", cfg.Redis.Addr).Info("redis cache enabled")
	}

	a.service = service.NewTaskService(taskRepo, taskCache, log.WithField("component", "task_service"))
	a.router = NewRouter(cfg, log, a.service)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases store and cache connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

func (a *App) openStore() (repo.TaskRepo, error) {
	store := a.cfg.Store
	switch store.Driver {
	case config.DriverMongo:
		client, err := newMongo(store.MongoURI)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		r := repo.NewMongoTaskRepo(client.Database(store.MongoDatabase))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		a.log.WithField("database", store.MongoDatabase).Info("MongoDB connected")
		return r, nil

	case config.DriverPostgres:
		if err := migrations.Up(store.PGDSN); err != nil {
			return nil, err
		}
		db, err := newPostgres(store.PGDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.log.Info("Postgres connected")
		return repo.NewPGTaskRepo(db), nil

	case config.DriverMemory:
		a.log.Warn("using in-memory task store, data is lost on restart")
		return repo.NewMemoryTaskRepo(), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", store.Driver)
}

func newMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// NewRouter wires middleware and routes around svc.
func NewRouter(cfg config.Config, log logrus.FieldLogger, svc *service.TaskService) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logging(log),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
			ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}),
	)
	r.SetHTMLTemplate(web.Templates())

	Setup(r, cfg, log, svc)
	return r
}
