//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"conexao-server/services/chat-gateway/internal/config"
	"conexao-server/services/chat-gateway/internal/domain/analyzer"
	domainconversation "conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/domain/media"
	"conexao-server/services/chat-gateway/internal/domain/responder"
	"conexao-server/services/chat-gateway/internal/domain/session"
	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/infrastructure/auth"
	"conexao-server/services/chat-gateway/internal/infrastructure/channel"
	"conexao-server/services/chat-gateway/internal/infrastructure/database"
	"conexao-server/services/chat-gateway/internal/infrastructure/engine"
	"conexao-server/services/chat-gateway/internal/infrastructure/logger"
	conversationrepo "conexao-server/services/chat-gateway/internal/infrastructure/repository/conversation"
	responderrepo "conexao-server/services/chat-gateway/internal/infrastructure/repository/responder"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver/handlers"
	"conexao-server/services/chat-gateway/internal/worker"
)

var gatewaySet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(domainconversation.Repository), new(*conversationrepo.Repository)),
	responderrepo.NewRepository,
	wire.Bind(new(responder.Repository), new(*responderrepo.Repository)),
	newEngineClient,
	wire.Bind(new(team.Engine), new(*engine.Client)),
	newChannelClient,
	wire.Bind(new(handlers.MediaDownloader), new(*channel.Client)),
	wire.Bind(new(worker.Channel), new(*channel.Client)),
	newRegistry,
	wire.Bind(new(team.ProfileProvider), new(*responder.Registry)),
	newModelProvider,
	newInterceptor,
	newStatusResolver,
	newSessionAdapter,
	team.NewCoordinator,
	wire.Bind(new(worker.Coordinator), new(*team.Coordinator)),
	newAnalyzer,
	newTurnQueue,
	newWorkerPool,
	newWebhookHandler,
	newAdminHandler,
	handlers.NewProvider,
)

// BuildApplication assembles the gateway with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		gatewaySet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newEngineClient(cfg *config.Config) *engine.Client {
	return engine.NewClient(cfg.EngineURL, cfg.TurnTimeout)
}

func newChannelClient(cfg *config.Config, log zerolog.Logger) *channel.Client {
	return channel.NewClient(cfg.GraphBaseURL, cfg.GraphVersion, cfg.PhoneNumberID, cfg.AccessToken, log)
}

func newRegistry(cfg *config.Config, repo responder.Repository, log zerolog.Logger) *responder.Registry {
	return responder.NewRegistry(repo, cfg.ModelForTier, cfg.SlowModel, log)
}

func newModelProvider(registry *responder.Registry) team.ModelProvider {
	return team.ModelProviderFunc(func(context.Context, team.Turn) string {
		return registry.TeamModel()
	})
}

func newInterceptor(log zerolog.Logger) *media.Interceptor {
	return media.NewInterceptor(media.NewPathDetector(), ".", log)
}

func newStatusResolver(repo domainconversation.Repository, log zerolog.Logger) *domainconversation.StatusResolver {
	return domainconversation.NewStatusResolver(repo, log)
}

func newSessionAdapter(cfg *config.Config, repo domainconversation.Repository, log zerolog.Logger) *session.Adapter {
	return session.NewAdapter(repo, cfg.HistoryLimit, log)
}

func newAnalyzer(cfg *config.Config, repo domainconversation.Repository, engineClient team.Engine, log zerolog.Logger) *analyzer.Analyzer {
	return analyzer.New(repo, engineClient, cfg.SlowModel, log)
}

func newTurnQueue(cfg *config.Config) *worker.Queue {
	return worker.NewQueue(cfg.TurnQueueSize)
}

func newWorkerPool(queue *worker.Queue, coordinator worker.Coordinator, ch worker.Channel, cfg *config.Config, log zerolog.Logger) *worker.Pool {
	return worker.NewPool(queue, coordinator, ch, worker.Config{
		WorkerCount: cfg.TurnWorkerCount,
		TurnTimeout: cfg.TurnTimeout,
	}, log)
}

func newWebhookHandler(cfg *config.Config, queue *worker.Queue, downloader handlers.MediaDownloader, log zerolog.Logger) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(cfg, queue, downloader, log)
}

func newAdminHandler(
	coordinator *team.Coordinator,
	ch worker.Channel,
	analyzerSvc *analyzer.Analyzer,
	registry *responder.Registry,
	repo domainconversation.Repository,
	pool *worker.Pool,
	log zerolog.Logger,
) *handlers.AdminHandler {
	return handlers.NewAdminHandler(coordinator, ch, nil, analyzerSvc, registry, repo, pool.QueueDepth, log)
}
