package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lead-intake/internal/audit"
	awsclient "lead-intake/internal/common/aws"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/common/hubspot"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/dedupe"
	"lead-intake/internal/intake"
	"lead-intake/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("Starting lead intake service", map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
		"port":        cfg.Server.Port,
		"crmToken":    logger.MaskSecret(cfg.HubSpot.AccessToken),
	})

	deps := intake.ServiceDependencies{Logger: log}

	// The service boots without a CRM token; submissions then fail with a
	// generic 500 before any outbound call.
	if cfg.HubSpot.AccessToken != "" {
		deps.CRM = hubspot.NewClient(hubspot.ClientOptions{
			AccessToken:       cfg.HubSpot.AccessToken,
			BaseURL:           cfg.HubSpot.BaseURL,
			Timeout:           config.GetDuration(cfg.HubSpot.RequestTimeout),
			AssociationTypeID: cfg.HubSpot.AssociationTypeID,
			UploadFolderPath:  cfg.HubSpot.UploadFolderPath,
		})
	} else {
		log.Warn("CRM access token is not configured, submissions will be rejected", nil)
	}

	var redisClient *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis, dedupe cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			deps.Deduper = dedupe.New(redisClient, config.GetDuration(cfg.Intake.DedupeTTL), log)
			defer redisClient.Close()
		}
	}

	var pgClient *database.PostgresClient
	if cfg.Database.Postgres.Enabled() {
		pgClient, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			log.Error("Failed to initialize Postgres, audit trail disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			deps.Audit = audit.NewStore(pgClient.DB, log)
			defer pgClient.Close()
		}
	}

	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclient.NewSESClient(context.Background(), cfg.Notifications.Email.Region)
		if err != nil {
			log.Error("Failed to initialize SES, sales notifications disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			deps.Notifier = notify.New(sesClient, cfg.Notifications.Email.FromEmail, cfg.Notifications.Email.SalesEmail, log)
		}
	}

	handler, err := intake.NewHandler(intake.HandlerOptions{
		AppConfig:    cfg,
		Dependencies: deps,
		Logger:       log,
	})
	if err != nil {
		log.Error("Failed to construct intake handler", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	handler.Register(router)

	router.GET("/healthz", func(c *gin.Context) {
		details := gin.H{}
		status := http.StatusOK

		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()); err != nil {
				details["redis"] = "unavailable"
				status = http.StatusServiceUnavailable
			} else {
				details["redis"] = "available"
			}
		}
		if pgClient != nil {
			if err := pgClient.Ping(c.Request.Context()); err != nil {
				details["postgres"] = "unavailable"
				status = http.StatusServiceUnavailable
			} else {
				details["postgres"] = "available"
			}
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "details": details})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server error", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", map[string]interface{}{"error": err.Error()})
	}
}
