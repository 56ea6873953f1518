package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/middlewares"
	"github.com/mmdatafocus/invoice_backend/models"
	"github.com/mmdatafocus/invoice_backend/render"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// App holds what the handlers need. It is filled in once dependencies are
// connected; until then the readiness gate answers 503.
type App struct {
	Service  *models.InvoiceService
	Renderer *render.Renderer
	Blobs    utils.BlobStore
	Logger   *logrus.Logger

	ready atomic.Bool
}

func (app *App) Ready() bool {
	return app.ready.Load()
}

func (app *App) SetReady() {
	app.ready.Store(true)
}

func newRouter(app *App, rateLimiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestContext())
	r.Use(middlewares.ReadinessGate(app.Ready))
	r.Use(cors.New(corsConfig()))
	if rateLimiter != nil {
		r.Use(rateLimiter.Middleware)
	}
	r.Use(middlewares.ErrorLogger(app.Logger))
	r.Use(gin.Recovery())

	r.GET(middlewares.HealthPath, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api")
	{
		api.GET("/invoices", app.listInvoicesHandler)
		api.POST("/invoices", app.createInvoiceHandler)
		api.GET("/invoices/export", app.exportInvoicesHandler)
		api.GET("/invoices/:id", app.getInvoiceHandler)
		api.PUT("/invoices/:id", app.updateInvoiceHandler)
		api.DELETE("/invoices/:id", app.deleteInvoiceHandler)
		api.GET("/invoices/:id/pdf", app.invoicePDFHandler)

		api.POST("/documents/pdf", app.draftPDFHandler)
		api.POST("/drafts/totals", app.draftTotalsHandler)

		api.GET("/templates", app.listTemplatesHandler)
		api.POST("/templates", app.createTemplateHandler)
		api.GET("/templates/:id", app.getTemplateHandler)
		api.DELETE("/templates/:id", app.deleteTemplateHandler)
		api.POST("/templates/:id/apply", app.applyTemplateHandler)

		api.POST("/upload/logo", app.uploadImageHandler("logo", "logos"))
		api.POST("/upload/qrcode", app.uploadImageHandler("qrcode", "qrcodes"))
	}
	if utils.GetStorageProvider() == utils.StorageProviderLocal {
		r.Static(strings.TrimSuffix(utils.LocalUploadsPrefix, "/"), utils.GetUploadDir())
	}

	r.NoRoute(customNotFoundHandler)
	return r
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.CorrelationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationIdHeader)
	return corsConfig
}

// rateLimiterFromEnv returns nil unless RATE_LIMIT_ENABLED=true and redis
// is connected.
//
// Env:
// - RATE_LIMIT_WINDOW_SECONDS=60
// - RATE_LIMIT_MAX_REQUESTS=600
func rateLimiterFromEnv() *middlewares.RateLimiter {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		return nil
	}
	rdb := config.GetRedisDB()
	if rdb == nil {
		return nil
	}
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return middlewares.NewRateLimiter(rdb, limit, time.Duration(windowSec)*time.Second)
}

func newRenderer(logger *logrus.Logger) *render.Renderer {
	r := &render.Renderer{
		Assets:      utils.NewAssetFetcherFromEnv(),
		Logger:      logger,
		PhoneRegion: config.PhoneDefaultRegion(),
	}
	if config.GenerateUPIQR() {
		r.QR = render.SkipQR{}
	}
	return r
}

// connectStore opens the store chosen by STORE_DRIVER and, for mysql,
// migrates unless SKIP_MIGRATIONS=true.
func connectStore(logger *logrus.Logger) (models.InvoiceStore, error) {
	if config.StoreDriver() == "memory" {
		logger.WithFields(logrus.Fields{"field": "store"}).Warn("STORE_DRIVER=memory; data is not persisted")
		return models.NewMemoryStore(), nil
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	// AutoMigrate can lock tables; it can be disabled and run as a separate job.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(db); err != nil {
			return nil, err
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}
	return models.NewGormStore(db), nil
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// redis is optional: the cache, lock and rate limiter switch off without it
	if os.Getenv("REDIS_ADDRESS") != "" {
		redisCtx, cancel := context.WithTimeout(sigCtx, 30*time.Second)
		config.ConnectRedisWithRetry(redisCtx)
		cancel()
	}

	blobs, err := utils.GetBlobStore()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "storage"}).Fatal(err.Error())
	}

	app := &App{
		Renderer: newRenderer(logger),
		Blobs:    blobs,
		Logger:   logger,
	}
	r := newRouter(app, rateLimiterFromEnv())

	// Listen before the database is up so health probes pass while connecting.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	store, err := connectStore(logger)
	if err != nil {
		config.LogError(logger, "main", "connectStore", "startup", nil, err)
		os.Exit(1)
	}

	service := models.NewInvoiceService(store)
	service.Logger = logger
	service.StrictNumeric = config.StrictNumericInput()
	service.Events = config.NewPubSubPublisherFromEnv()
	if rdb := config.GetRedisDB(); rdb != nil {
		service.UseCache = true
		service.Locker = config.RedisLocker{Client: config.GetRedisLock(), Logger: logger}
	}
	app.Service = service
	app.SetReady()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSub()
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
	if db := config.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
