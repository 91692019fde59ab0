package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/EgorLis/blog-api/internal/auth/blacklist"
	"github.com/EgorLis/blog-api/internal/auth/password"
	"github.com/EgorLis/blog-api/internal/auth/token"
	"github.com/EgorLis/blog-api/internal/config"
	"github.com/EgorLis/blog-api/internal/domain"
	redisx "github.com/EgorLis/blog-api/internal/infra/cache/redis"
	"github.com/EgorLis/blog-api/internal/infra/database/postgres"
	"github.com/EgorLis/blog-api/internal/transport/web"
)

type App struct {
	config *config.Config
	server *web.Server
	log    *log.Logger
	cache  domain.Cache
	repo   *postgres.PGRepo
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme)
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Enabled:  cfg.RedisEnabled,
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	// Redis опционален: при недоступности сервис работает без кеша.
	if err := rc.Ping(ctx); err != nil {
		base.Printf("redis unavailable, running degraded: %v", err)
	} else {
		base.Println("Redis is initialized")
	}

	// Auth primitives
	hasher := password.NewDefault()
	tm := token.New(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthTokenTTL)
	blacklist := blacklist.NewStore(rc, domain.CacheKeyJTI)

	base.Println("init Server")
	rep := web.Repos{Users: pgRepo, Posts: pgRepo}
	auth := web.AuthDeps{Hasher: hasher, Tokens: tm, Blacklist: blacklist}
	server := web.New(serverLog, cfg, rep, auth, rc)
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config: cfg,
		server: server,
		log:    base,
		repo:   pgRepo,
		cache:  rc}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.repo.Close()
	a.cache.Close()

	return nil
}
