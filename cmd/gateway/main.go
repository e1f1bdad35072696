package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetgate/internal/core/services"
	httphandlers "meetgate/internal/handlers/http"
	identityclient "meetgate/internal/infrastructure/identity"
	"meetgate/internal/infrastructure/meetingstore"
	"meetgate/internal/infrastructure/middleware"
	"meetgate/internal/infrastructure/monitoring"
	"meetgate/internal/infrastructure/oauth"
	"meetgate/internal/infrastructure/relay"
	"meetgate/internal/infrastructure/repositories"
	"meetgate/pkg/config"
	"meetgate/pkg/logger"
	"meetgate/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/meetgate/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		panic("invalid configuration: " + err.Error())
	}

	// Initialize logger
	var zapLogger *zap.Logger
	if cfg.Logging.Format == "console" {
		zapLogger = logger.NewConsole(cfg.Logging.Level)
	} else {
		zapLogger = logger.New(cfg.Logging.Level)
	}
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(tracing.Config{
			Enabled:     true,
			ServiceName: "meetgate",
			JaegerURL:   cfg.Tracing.JaegerURL,
			Environment: cfg.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warnw("failed to initialize tracing", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				tp.Shutdown(ctx)
			}()
		}
	}

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()

	// Initialize session cache (Redis with memory fallback)
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()
	sessionCache := repoFactory.CreateSessionCache()

	// Initialize upstream clients
	identityClient := identityclient.NewClient(
		cfg.Identity.BaseURL,
		cfg.Identity.APIKey,
		cfg.Identity.Timeout,
		collector,
		log,
	)
	meetingClient := meetingstore.NewClient(meetingstore.Options{
		BaseURL:          cfg.MeetingStore.BaseURL,
		Timeout:          cfg.MeetingStore.Timeout,
		RetryAttempts:    cfg.MeetingStore.RetryAttempts,
		BreakerThreshold: cfg.MeetingStore.BreakerThreshold,
		BreakerCooldown:  cfg.MeetingStore.BreakerCooldown,
	}, collector, log)

	// Initialize services
	sessionVerifier := services.NewSessionService(cfg.Session.Secret, identityClient, sessionCache, log)
	authService := services.NewAuthService(identityClient, identityClient, sessionCache, cfg.Session.CookieTTL, log)
	userService := services.NewUserService(identityClient, identityClient, log)
	meetingService := services.NewMeetingService(meetingClient, log)

	// Initialize relay
	registry := relay.NewRegistry(collector, log)
	relayServer := relay.NewServer(sessionVerifier, registry, relay.Config{
		CookieName:        cfg.Session.CookieName,
		PingInterval:      cfg.Relay.PingInterval,
		PongTimeout:       cfg.Relay.PongTimeout,
		WriteTimeout:      cfg.Relay.WriteTimeout,
		MaxMessageSize:    cfg.Relay.MaxMessageSize,
		SendBuffer:        cfg.Relay.SendBuffer,
		MessagesPerSecond: cfg.Relay.MessagesPerSecond,
		Burst:             cfg.Relay.Burst,
	}, collector, log)

	// Readiness checks for every dependency the gateway needs
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("session_cache", repoFactory.HealthCheck, 2*time.Second)

	cookie := httphandlers.CookieSettings{
		Name:     cfg.Session.CookieName,
		TTL:      int(cfg.Session.CookieTTL.Seconds()),
		Domain:   cfg.Session.CookieDomain,
		Secure:   cfg.Session.CookieSecure,
		HTTPOnly: true,
	}

	// Initialize HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService, cookie)
	oauthHandler := httphandlers.NewOAuthHandler(
		oauth.NewProviders(cfg), authService, cfg.OAuth.FrontendURL, cookie, log)
	userHandler := httphandlers.NewUserHandler(userService, cookie)
	meetingHandler := httphandlers.NewMeetingHandler(meetingService)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(cfg.Environment, log))
	router.Use(middleware.RequestLoggerMiddleware(zapLogger))
	router.Use(middleware.MetricsMiddleware(collector))
	router.Use(middleware.ErrorHandlerMiddleware(cfg.Environment, log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	authRequired := middleware.AuthMiddleware(sessionVerifier, cfg.Session.CookieName)

	authHandler.SetupRoutes(router, authRequired)
	oauthHandler.SetupRoutes(router)
	userHandler.SetupRoutes(router, authRequired)
	meetingHandler.SetupRoutes(router, authRequired)

	// Real-time relay endpoint; the handshake carries the session cookie
	router.GET("/ws", gin.WrapF(relayServer.HandleWebSocket))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.Environment,
			"uptime":      time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting meetgate gateway on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down meetgate gateway...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Close relay connections first so websocket clients get close frames;
	// Shutdown does not wait on hijacked connections.
	registry.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}
}
