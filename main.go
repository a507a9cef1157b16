package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/gritfit/gritfit-api/app/db"
	appLogger "github.com/gritfit/gritfit-api/app/logger"
	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/app/observability/metrics"
	"github.com/gritfit/gritfit-api/app/tracer"
	"github.com/gritfit/gritfit-api/config"
	"github.com/gritfit/gritfit-api/internal/api/auth"
	"github.com/gritfit/gritfit-api/internal/api/blog"
	"github.com/gritfit/gritfit-api/internal/api/booking"
	"github.com/gritfit/gritfit-api/internal/api/fitplan"
	"github.com/gritfit/gritfit-api/internal/api/membership"
	"github.com/gritfit/gritfit-api/internal/api/payments"
	"github.com/gritfit/gritfit-api/internal/api/recipes"
	"github.com/gritfit/gritfit-api/internal/api/review"
	"github.com/gritfit/gritfit-api/internal/api/shop"
	"github.com/gritfit/gritfit-api/internal/api/trainer"
	"github.com/gritfit/gritfit-api/internal/api/user"
	"github.com/gritfit/gritfit-api/internal/router"
	"github.com/gritfit/gritfit-api/internal/workers"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		metricsPort = "9090"
	}
	tracer.InitTracingAndMetrics(metricsPort)
	metrics.InitAppMetrics()

	// --- Database ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Repositories ---
	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	userRepo := user.NewPostgresUserRepo(pool, logger)
	membershipRepo := membership.NewPostgresMembershipRepo(pool, logger)
	trainerRepo := trainer.NewPostgresTrainerRepo(pool, logger)
	bookingRepo := booking.NewPostgresBookingRepo(pool, logger)
	reviewRepo := review.NewPostgresReviewRepo(pool, logger)
	shopRepo := shop.NewPostgresShopRepo(pool, logger)
	recipesRepo := recipes.NewPostgresRecipesRepo(pool, logger)
	blogRepo := blog.NewPostgresBlogRepo(pool, logger)
	fitplanRepo := fitplan.NewPostgresFitplanRepo(pool, logger)
	deadLetterRepo := payments.NewPostgresDeadLetterRepo(pool, logger)

	// --- Services ---
	authService := auth.NewAuthService(authRepo, cfg.JWT, logger)
	userService := user.NewUserService(userRepo, logger)
	stripeSubscriptions := payments.NewStripeSubscriptions(cfg.Stripe, logger)
	membershipService := membership.NewMembershipService(membershipRepo, stripeSubscriptions, logger)
	trainerService := trainer.NewTrainerService(trainerRepo, logger)
	bookingService := booking.NewBookingService(bookingRepo, membershipService, trainerRepo, logger)
	reviewService := review.NewReviewService(reviewRepo, bookingRepo, logger)
	shopService := shop.NewShopService(shopRepo, logger)
	recipesService := recipes.NewRecipesService(recipesRepo, logger)
	blogService := blog.NewBlogService(blogRepo, logger)

	aiClient, err := fitplan.NewAIClient(ctx, cfg.Gemini.Model)
	if err != nil {
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		os.Exit(1)
	}
	fitplanService := fitplan.NewFitplanService(fitplanRepo, aiClient, logger)

	paymentService := payments.NewPaymentService(cfg.Stripe, membershipRepo, shopService, bookingService, logger)
	webhookProcessor := payments.NewWebhookProcessor(membershipService, bookingService, shopService, deadLetterRepo, logger)

	// --- Handlers ---
	userHandler, err := user.NewHandlerImpl(userService, cfg.Clerk.WebhookSecret, logger)
	if err != nil {
		logger.Error("Failed to initialize user handler", slog.Any("error", err))
		os.Exit(1)
	}

	routerConfig := &router.Config{
		Logger:                 logger,
		AuthHandler:            auth.NewHandlerImpl(authService, logger),
		UserHandler:            userHandler,
		MembershipHandler:      membership.NewHandlerImpl(membershipService, logger),
		TrainerHandler:         trainer.NewHandlerImpl(trainerService, logger),
		BookingHandler:         booking.NewHandlerImpl(bookingService, logger),
		ReviewHandler:          review.NewHandlerImpl(reviewService, logger),
		ShopHandler:            shop.NewHandlerImpl(shopService, logger),
		RecipesHandler:         recipes.NewHandlerImpl(recipesService, logger),
		BlogHandler:            blog.NewHandlerImpl(blogService, logger),
		FitplanHandler:         fitplan.NewHandlerImpl(fitplanService, logger),
		PaymentsHandler:        payments.NewHandlerImpl(paymentService, webhookProcessor, deadLetterRepo, cfg.Stripe.WebhookSecret, logger),
		AuthenticateMiddleware: appMiddleware.Authenticate(logger, cfg.JWT),
	}
	apiRouter := router.SetupRouter(routerConfig)

	// --- Background workers ---
	sweeper := workers.NewSweeper(membershipService, bookingService, cfg.Sweep.Interval, logger)
	go sweeper.Run(ctx)

	// --- HTTP server ---
	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", apiRouter)

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		return slog.New(tint.NewHandler(os.Stdout, tintOpts))
	}

	jsonOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
}
