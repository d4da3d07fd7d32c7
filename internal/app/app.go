package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/config"
	"github.com/inkwell-hq/broker-service/internal/delivery/httpd"
	"github.com/inkwell-hq/broker-service/internal/repository"
	"github.com/inkwell-hq/broker-service/internal/service"
	"github.com/inkwell-hq/broker-service/internal/service/integration"
)

type App struct {
	server *http.Server
	logger zerolog.Logger
	config *config.Config
	db     *sql.DB
	events integration.EventPublisher
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	events, err := integration.NewRabbitMQClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ client")
		// Продолжаем без брокера: события best-effort
		events = nil
	}

	// Репозитории
	studentRepo := repository.NewStudentRepository(db, log)
	writerRepo := repository.NewWriterRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	achievementRepo := repository.NewAchievementRepository(db, log)

	// Сервисы
	statsService := service.NewStatsService(assignmentRepo, writerRepo, achievementRepo, log)
	studentService := service.NewStudentService(studentRepo, assignmentRepo, statsService, log)
	writerService := service.NewWriterService(writerRepo, achievementRepo, statsService, log)
	assignmentService := service.NewAssignmentService(
		assignmentRepo,
		studentRepo,
		writerRepo,
		statsService,
		events,
		log,
	)
	dashboardService := service.NewDashboardService(writerRepo, assignmentRepo, achievementRepo, log)

	// Обработчики
	handler := httpd.NewHandler(
		studentService,
		writerService,
		assignmentService,
		dashboardService,
		cfg.Auth.JWTSecret,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server: server,
		logger: log,
		config: cfg,
		db:     db,
		events: events,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting broker service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down broker service...")

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
