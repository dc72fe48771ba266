package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/vidtube-backend/internal/config"
	"github.com/iliyamo/vidtube-backend/internal/database"
	"github.com/iliyamo/vidtube-backend/internal/handler"
	"github.com/iliyamo/vidtube-backend/internal/logging"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/queue"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/router"
	"github.com/iliyamo/vidtube-backend/internal/service"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

const (
	name            = "vidtube"
	shutdownTimeout = 15 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := logging.SetDefaultStructuredLogger(name, version, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	} else {
		logger.Warn("redis unavailable: in-process rate limiting, response cache off")
	}
	amqpCfg := config.LoadAMQPConfig()

	// Stores
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	channels := repository.NewChannelRepo(db)
	videos := repository.NewVideoRepo(db)
	comments := repository.NewCommentRepo(db)

	// Services
	issuer := utils.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	var events service.EventPublisher = service.NopPublisher{}
	if amqpCfg.Enabled {
		events = service.NewAMQPPublisher(amqpCfg.URL, amqpCfg.Queue)
	}
	authSvc := service.NewAuthService(users, tokens, issuer, events, cfg.BcryptCost, logger)
	accountSvc := service.NewAccountService(users, channels, videos)
	commentSvc := service.NewCommentService(comments, videos)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(logging.Writer(logger, slog.LevelInfo))
	e.StdLogger = logging.StdLogger(logger, slog.LevelError)
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Metrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	router.RegisterRoutes(e, router.Deps{
		Auth:       handler.NewAuthHandler(authSvc, cfg.CookieSecure),
		Accounts:   handler.NewAccountHandler(accountSvc),
		Comments:   handler.NewCommentHandler(commentSvc),
		Issuer:     issuer,
		Identities: users,
		DB:         db,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr(), "env", cfg.Env)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})

	if amqpCfg.Enabled {
		g.Go(func() error {
			if err := queue.StartAuditConsumer(gctx, amqpCfg, logger); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
