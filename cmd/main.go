package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/stockmaster/config"
	"github.com/oksasatya/stockmaster/internal/application"
	"github.com/oksasatya/stockmaster/internal/container"
	"github.com/oksasatya/stockmaster/internal/domain/repository"
	esinfra "github.com/oksasatya/stockmaster/internal/infrastructure/elastic"
	mongoinfra "github.com/oksasatya/stockmaster/internal/infrastructure/mongo"
	pginfra "github.com/oksasatya/stockmaster/internal/infrastructure/postgres"
	"github.com/oksasatya/stockmaster/internal/interface/middleware"
	"github.com/oksasatya/stockmaster/internal/router"
	"github.com/oksasatya/stockmaster/pkg/helpers"
	"github.com/oksasatya/stockmaster/pkg/mailer"
	tpl "github.com/oksasatya/stockmaster/pkg/mailer/templates"
	"github.com/oksasatya/stockmaster/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	validation.Init(cfg.PasswordMinLength)

	ctx := context.Background()

	repo, closeStore := openAccountStore(ctx, cfg, logger)
	defer closeStore()

	// Redis (rate limiting); the limiter fails open if it is unreachable
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		logger.WithError(err).Warn("redis unreachable; rate limiting disabled until it recovers")
	}

	notifier, queue := newNotifier(cfg, logger)
	defer queue.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetRabbitQueue(queue)
	container.SetAccountRepo(repo)
	container.SetTokens(helpers.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
	container.SetNotifier(notifier)

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.Fatalf("failed to init elasticsearch client: %v", err)
		}
		container.SetES(es)
		container.SetIndexer(esinfra.NewAccountIndexer(es, cfg.ESAccountsIndex))
	}

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s (store=%s, mail=%s)", cfg.Port, cfg.StoreDriver, cfg.MailDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// openAccountStore connects the configured store and exits if it is unreachable.
func openAccountStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.AccountRepository, func()) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		container.SetPGPool(pool)
		return pginfra.NewAccountRepository(pool), pool.Close

	default:
		client, err := mongoinfra.NewClient(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
		if err != nil {
			logger.Fatalf("failed to connect to mongodb: %v", err)
		}
		repo := mongoinfra.NewAccountRepository(client.Database(cfg.MongoDatabase), cfg.MongoAccountsCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatalf("failed to ensure account indexes: %v", err)
		}
		container.SetMongo(client)
		return repo, func() { _ = client.Disconnect(context.Background()) }
	}
}

// newNotifier builds the dispatcher for MAIL_DRIVER. The queue is nil unless MAIL_DRIVER=queue.
func newNotifier(cfg *config.Config, logger *logrus.Logger) (application.Notifier, *helpers.RabbitQueue) {
	branding := tpl.Branding{AppName: cfg.AppName, CompanyName: cfg.CompanyName, SupportURL: cfg.SupportURL}
	switch cfg.MailDriver {
	case config.MailQueue:
		q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		return mailer.NewQueueNotifier(q, branding, cfg.MailSendTimeout), q
	case config.MailLog:
		logger.Warn("MAIL_DRIVER=log; verification codes are logged, not emailed")
		return &mailer.LogNotifier{Logger: logger}, nil
	default:
		mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		return mailer.NewMailgunNotifier(mg, branding, cfg.MailSendTimeout), nil
	}
}
