package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-staging/config"
	"github.com/Dosada05/tournament-staging/courts"
	"github.com/Dosada05/tournament-staging/db"
	"github.com/Dosada05/tournament-staging/handlers"
	"github.com/Dosada05/tournament-staging/remote"
	"github.com/Dosada05/tournament-staging/repositories"
	api "github.com/Dosada05/tournament-staging/routes"
	"github.com/Dosada05/tournament-staging/services"
	"github.com/Dosada05/tournament-staging/store"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных (снапшоты таймеров)
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	timerRepo := repositories.NewPostgresTimerStateRepository(dbConn)
	if err := timerRepo.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to ensure timer state schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	wsHub := courts.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Клиент внешнего tournament API
	apiClient := remote.NewHTTPClient(cfg.TournAPIBaseURL, cfg.TournAPIToken)
	logger.Info("tournament API client initialized", slog.String("base_url", cfg.TournAPIBaseURL))

	// Инициализация стора и сервисов
	entityStore := store.NewEntityStore()
	locker := services.NewStageLocker()
	clock := services.SystemClock{}

	timerService := services.NewTimerService(timerRepo, clock, logger)
	generationService := services.NewGenerationService(entityStore, apiClient, locker, logger)
	stagingService := services.NewStagingService(
		entityStore,
		apiClient,
		generationService,
		timerService,
		wsHub,
		locker,
		clock,
		logger,
	)
	assignmentService := services.NewAssignmentService(entityStore, apiClient, locker, logger)
	lifecycleService := services.NewLifecycleService(entityStore, apiClient, stagingService, logger)

	// Истёкший таймер объявляется через staging-сервис всем подписчикам этапа
	timerService.SetExpireFunc(stagingService.HandleTimerExpired)
	// Свежесгенерированные матчи сразу пересчитывают табло и когорту таймера
	generationService.SetBoardNotifier(stagingService)

	tickCtx, cancelTicking := context.WithCancel(context.Background())
	defer cancelTicking()
	timerService.StartTicking(tickCtx)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	stagingHandler := handlers.NewStagingHandler(stagingService, assignmentService, entityStore)
	matchHandler := handlers.NewMatchHandler(generationService, lifecycleService)
	timerHandler := handlers.NewTimerHandler(stagingService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		stagingHandler,
		matchHandler,
		timerHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
