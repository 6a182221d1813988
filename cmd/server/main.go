package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/shop-backoffice/internal/blob"
	"github.com/iliyamo/shop-backoffice/internal/config"
	"github.com/iliyamo/shop-backoffice/internal/database"
	"github.com/iliyamo/shop-backoffice/internal/handler"
	"github.com/iliyamo/shop-backoffice/internal/logger"
	"github.com/iliyamo/shop-backoffice/internal/metrics"
	"github.com/iliyamo/shop-backoffice/internal/middleware"
	"github.com/iliyamo/shop-backoffice/internal/queue"
	"github.com/iliyamo/shop-backoffice/internal/repository"
	"github.com/iliyamo/shop-backoffice/internal/router"
	"github.com/iliyamo/shop-backoffice/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.Env)
	defer func() { _ = logger.Log.Sync() }()
	log := logger.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	blobCfg := config.LoadBlobConfig()
	store, uploadsDir := openBlobStore(ctx, blobCfg, log)

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	images := repository.NewImageRepo(db)
	baskets := repository.NewBasketRepo(db)
	orders := repository.NewOrderRepo(db)

	// ---- Services ----
	var events service.OrderEvents
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, log)
	}
	userSvc := service.NewUserService(users, tokens, cfg.BcryptCost)
	productSvc := service.NewProductService(products, images, store)
	imageSvc := service.NewImageService(images, products, store, blobCfg.PublicBaseURL, blobCfg.MaxBytes)
	basketSvc := service.NewBasketService(baskets, products)
	orderSvc := service.NewOrderService(db, baskets, products, orders, events)

	if created, err := userSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("bootstrap admin failed", zap.Error(err))
	} else if created {
		log.Info("bootstrap admin created", zap.String("username", cfg.AdminUsername))
	}
	if n, err := tokens.PurgeExpired(ctx, time.Now()); err != nil {
		log.Warn("refresh token purge failed", zap.Error(err))
	} else if n > 0 {
		log.Info("expired refresh tokens purged", zap.Int64("count", n))
	}

	if cfg.OrderConsumer && cfg.RabbitURL != "" {
		consumer := queue.NewOrderLogConsumer(cfg.RabbitURL, cfg.OrderLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order consumer stopped", zap.Error(err))
			}
		}()
	}

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(bodyLimit(blobCfg.MaxBytes)))
	e.Use(logger.RequestLogger())
	e.Use(metrics.Middleware())

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, userSvc, tokens)
	productH := handler.NewProductHandler(productSvc)
	imageH := handler.NewImageHandler(imageSvc)
	orderH := handler.NewOrderHandler(orderSvc)

	router.RegisterRoutes(e, db, uploadsDir)
	router.RegisterAuth(e, authH, limiter)
	router.RegisterCatalog(e, productH, imageH, cache)
	router.RegisterAdmin(e, authH.Settings, router.AdminHandlers{
		Users:    handler.NewUserHandler(userSvc),
		Products: productH,
		Images:   imageH,
		Orders:   orderH,
	}, cache)
	router.RegisterShop(e, authH.Settings, handler.NewBasketHandler(basketSvc), orderH)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

// openBlobStore returns the configured image store and, for the local
// backend, the directory to serve at /uploads.
func openBlobStore(ctx context.Context, cfg config.BlobConfig, log *zap.Logger) (blob.Store, string) {
	if cfg.Backend == "s3" {
		s, err := blob.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			log.Fatal("s3 store unavailable", zap.Error(err))
		}
		return s, ""
	}
	s, err := blob.NewLocalStore(cfg.Dir)
	if err != nil {
		log.Fatal("upload directory unavailable", zap.String("dir", cfg.Dir), zap.Error(err))
	}
	return s, cfg.Dir
}

// bodyLimit leaves 1 MiB of headroom over the upload cap for multipart
// framing, in echo's size syntax.
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = blob.DefaultMaxImageBytes
	}
	return strconv.FormatInt((maxUpload+1<<20)/1024, 10) + "K"
}
