package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/agency-invoicing/internal/api"
	"github.com/hypernova-labs/agency-invoicing/internal/config"
	"github.com/hypernova-labs/agency-invoicing/internal/database"
	"github.com/hypernova-labs/agency-invoicing/internal/email"
	"github.com/hypernova-labs/agency-invoicing/internal/metrics"
	"github.com/hypernova-labs/agency-invoicing/internal/services"
	"github.com/hypernova-labs/agency-invoicing/internal/workflows"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := setupLogger(cfg)
	logger.Info("Starting agency invoicing service...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Fatalf("Error applying database schema: %v", err)
		}
		logger.Info("Database schema applied")
	}

	ledger := database.NewLedger(db, logger)
	clients := database.NewClientRepository(db, logger)

	// Conectar a Redis; sin Redis no hay caché de enlaces ni reserva de números
	var links services.LinkCache
	var guard services.NumberGuard
	redis, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warnf("Error connecting to Redis: %v", err)
	} else {
		defer redis.Close()
		links = redis
		if cfg.Invoice.EnforceUniqueNumbers {
			guard = redis
			logger.Info("Invoice number reservation enabled")
		}
	}
	if cfg.Invoice.EnforceUniqueNumbers && guard == nil {
		logger.Warn("Invoice number reservation requested but Redis is not available")
	}

	// Almacenamiento de documentos
	storage, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing storage: %v", err)
	}

	// Inicializar servicio de Resend
	var deliverer *email.DirectNotifier
	if cfg.Email.ResendAPIKey != "" {
		mailer := email.NewResendService(
			resend.NewClient(cfg.Email.ResendAPIKey),
			cfg.Email.FromAddress,
			cfg.Server.BaseURL,
			cfg.Issuer.LegalName,
			cfg.Invoice.CurrencySymbol,
			logger,
		)
		deliverer = email.NewDirectNotifier(mailer, ledger, clients)
		logger.Info("Resend service initialized successfully")
	} else {
		logger.Warn("Resend API key not provided, email service will not be available")
	}

	// Inicializar cliente de Inngest; si está disponible el aviso pasa por el workflow
	var notifier services.Notifier
	var inngestClient *workflows.InngestClient
	if deliverer != nil {
		notifier = deliverer
		inngestClient, err = workflows.NewInngestClient(cfg, logger)
		if err != nil {
			logger.Warnf("Inngest not available, sending emails directly: %v", err)
			inngestClient = nil
		} else if err := inngestClient.RegisterWorkflows(deliverer); err != nil {
			logger.Warnf("Error registering workflows: %v", err)
			inngestClient = nil
		} else {
			notifier = inngestClient
		}
	} else {
		logger.Warn("No notifier configured, clients will not be notified of new invoices")
	}

	// Métricas
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	// Inicializar servicios
	orchestrator := services.NewInvoiceOrchestrator(
		services.NewDocumentGenerator(cfg.Invoice.CurrencySymbol, logger),
		storage,
		ledger,
		notifier,
		guard,
		recorder,
		services.OrchestratorConfig{
			Currency:        cfg.Invoice.Currency,
			CurrencySymbol:  cfg.Invoice.CurrencySymbol,
			PaymentTermDays: cfg.Invoice.PaymentTermDays,
			NotifyTimeout:   cfg.Invoice.NotifyTimeout,
			Issuer:          cfg.IssuerProfile(),
		},
		logger,
	)
	invoiceService := services.NewInvoiceService(orchestrator, ledger, clients, storage, links, notifier, cfg.Invoice.SignedURLTTL, logger)

	// Inicializar API
	apiHandler := api.NewAPI(invoiceService, logger)

	// Configurar router
	router := setupRouter(apiHandler, cfg, db, recorder, registry, inngestClient)

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar servidor en goroutine
	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-quit
	logger.Info("Shutting down server...")

	// Contexto con timeout para shutdown graceful
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// Esperar los avisos a clientes que siguen en curso
	if err := orchestrator.Wait(shutdownCtx); err != nil {
		logger.Warnf("Pending invoice notifications dropped: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Configurar nivel de log
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configurar formato
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupStorage elige el cliente S3 si hay credenciales y si no la API REST
func setupStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.ObjectStorage, error) {
	if cfg.HasS3Storage() {
		s3Storage, err := database.NewSupabaseStorage(ctx, &cfg.Supabase, logger)
		if err != nil {
			return nil, err
		}
		if err := s3Storage.HealthCheck(ctx); err != nil {
			logger.Warnf("Supabase storage health check failed: %v", err)
		} else {
			logger.Info("Supabase storage connection healthy")
		}
		return s3Storage, nil
	}

	if cfg.HasRESTStorage() {
		logger.Info("Using Supabase storage REST API")
		return database.NewRESTStorage(&cfg.Supabase, logger), nil
	}

	return nil, fmt.Errorf("no storage credentials provided: set SUPABASE_STORAGE_ENDPOINT with S3 keys or SUPABASE_URL with SUPABASE_SERVICE_KEY")
}

// setupRouter configura el router principal
func setupRouter(apiHandler *api.API, cfg *config.Config, db *database.DB, recorder *metrics.Recorder, registry *prometheus.Registry, inngestClient *workflows.InngestClient) *gin.Engine {
	router := gin.New()

	// Middleware global
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(recorder.GinMiddleware())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-User-ID")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "agency-invoicing",
			"version":   "1.0.0",
			"database":  db.GetStats(),
		})
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	if inngestClient != nil {
		router.Any("/api/inngest", gin.WrapH(inngestClient.Handler()))
	}

	// API v1
	apiHandler.RegisterRoutes(router.Group("/v1"))

	return router
}
