package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"conexao-server/services/chat-gateway/internal/config"
	"conexao-server/services/chat-gateway/internal/domain/analyzer"
	"conexao-server/services/chat-gateway/internal/domain/media"
	"conexao-server/services/chat-gateway/internal/domain/responder"
	"conexao-server/services/chat-gateway/internal/domain/session"
	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/infrastructure/auth"
	"conexao-server/services/chat-gateway/internal/infrastructure/channel"
	"conexao-server/services/chat-gateway/internal/infrastructure/crontab"
	"conexao-server/services/chat-gateway/internal/infrastructure/database"
	"conexao-server/services/chat-gateway/internal/infrastructure/engine"
	"conexao-server/services/chat-gateway/internal/infrastructure/logger"
	"conexao-server/services/chat-gateway/internal/infrastructure/observability"
	conversationrepo "conexao-server/services/chat-gateway/internal/infrastructure/repository/conversation"
	responderrepo "conexao-server/services/chat-gateway/internal/infrastructure/repository/responder"
	"conexao-server/services/chat-gateway/internal/infrastructure/speech"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver/handlers"
	"conexao-server/services/chat-gateway/internal/worker"

	domainconversation "conexao-server/services/chat-gateway/internal/domain/conversation"
)

// @title Chat Gateway
// @version 1.0
// @description Routes WhatsApp conversations through a delegation engine with persistent history, human override and audio relay.
// @contact.name Conexão Server Team
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	responderRepository := responderrepo.NewRepository(db)

	registry := responder.NewRegistry(responderRepository, cfg.ModelForTier, cfg.SlowModel, log)
	engineClient := engine.NewClient(cfg.EngineURL, cfg.TurnTimeout)
	channelClient := channel.NewClient(cfg.GraphBaseURL, cfg.GraphVersion, cfg.PhoneNumberID, cfg.AccessToken, log)
	interceptor := media.NewInterceptor(media.NewPathDetector(), ".", log)

	coordinator := team.NewCoordinator(
		conversationRepository,
		domainconversation.NewStatusResolver(conversationRepository, log),
		session.NewAdapter(conversationRepository, cfg.HistoryLimit, log),
		engineClient,
		team.ModelProviderFunc(func(context.Context, team.Turn) string { return registry.TeamModel() }),
		registry,
		interceptor,
		log,
	)

	analyzerService := analyzer.New(conversationRepository, engineClient, cfg.SlowModel, log)

	var speechGenerator handlers.SpeechGenerator
	if cfg.GeminiAPIKey != "" {
		generator, err := speech.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.SpeechModel, cfg.SpeechVoice, cfg.PublicDir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize speech generator")
		}
		speechGenerator = generator
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, speech generation disabled")
	}

	turnQueue := worker.NewQueue(cfg.TurnQueueSize)
	workerPool := worker.NewPool(
		turnQueue,
		coordinator,
		channelClient,
		worker.Config{
			WorkerCount: cfg.TurnWorkerCount,
			TurnTimeout: cfg.TurnTimeout,
		},
		log,
	)

	workerPool.Start(ctx)
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	cron := crontab.NewCrontab(cfg, analyzerService, registry, log)
	go func() {
		if err := cron.Run(ctx); err != nil {
			log.Error().Err(err).Msg("crontab stopped with error")
		}
	}()

	webhookHandler := handlers.NewWebhookHandler(cfg, turnQueue, channelClient, log)
	adminHandler := handlers.NewAdminHandler(
		coordinator,
		channelClient,
		speechGenerator,
		analyzerService,
		registry,
		conversationRepository,
		workerPool.QueueDepth,
		log,
	)

	httpServer := httpserver.New(cfg, log, handlers.NewProvider(webhookHandler, adminHandler), authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
