package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"resort-backend/config"
	"resort-backend/controllers"
	"resort-backend/routes"
	"resort-backend/services"
	"resort-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	cfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	utils.InitLogger(cfg.Debug)
	defer utils.Log().Sync() //nolint:errcheck

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect database (config.ConnectDatabase sets config.DB)
	if err := config.ConnectDatabase(); err != nil {
		utils.Log().Fatalw("database connect failed", "error", err)
	}
	db := config.DB
	if db == nil {
		utils.Log().Fatalw("config.DB is nil after ConnectDatabase()")
	}
	utils.Log().Infow("database connection established, migrations applied")

	// Redis backs the atomic per-day booking sequence
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			utils.Log().Fatalw("redis connect failed", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
	}

	// Services
	sequencer := services.NewRedisSequencer(rdb)
	availabilitySvc := services.NewAvailabilityService(db)
	reservationSvc := services.NewReservationService(db, availabilitySvc, sequencer, cfg.HoldWindow)
	gateway := services.NewGatewayClient(cfg.Gateway)
	paymentSvc := services.NewPaymentService(db, reservationSvc, gateway, cfg.Gateway)
	notifier := services.NewEmailNotifier(utils.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		FromName: cfg.SMTP.FromName,
	})
	callbackSvc := services.NewCallbackService(db, reservationSvc, gateway, notifier)
	webhookSvc := services.NewWebhookService(db)
	sweeperSvc := services.NewSweeperService(db)

	// Controllers
	reservationController := controllers.NewReservationController(reservationSvc)
	paymentController := controllers.NewPaymentController(paymentSvc, callbackSvc, cfg.Gateway.StatusPageURL)
	webhookController := controllers.NewWebhookController(webhookSvc, callbackSvc)
	sweepController := controllers.NewSweepController(sweeperSvc)

	router := routes.SetupRouter(reservationController, paymentController, webhookController, sweepController)

	// Background expiry sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweeperSvc.Run(sweepCtx, cfg.SweepInterval)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.Log().Infow("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Log().Fatalw("listen failed", "error", err)
		}
	}()

	// Wait for interrupt, then drain
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	utils.Log().Infow("shutdown signal received")

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Log().Fatalw("forced shutdown", "error", err)
	}

	if err := rdb.Close(); err != nil {
		utils.Log().Warnw("redis close", "error", err)
	}

	utils.Log().Infow("server stopped gracefully")
}
