// Package app wires the luminate components into a running application:
// configuration, database pool, Genkit, knowledge store, and the
// governed tutoring pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AazainKhan/luminate-ai-sub002/db"
	"github.com/AazainKhan/luminate-ai-sub002/internal/classifier"
	"github.com/AazainKhan/luminate-ai-sub002/internal/config"
	"github.com/AazainKhan/luminate-ai-sub002/internal/governor"
	"github.com/AazainKhan/luminate-ai-sub002/internal/ingest"
	"github.com/AazainKhan/luminate-ai-sub002/internal/knowledge"
	"github.com/AazainKhan/luminate-ai-sub002/internal/reasoning"
	"github.com/AazainKhan/luminate-ai-sub002/internal/scope"
	"github.com/AazainKhan/luminate-ai-sub002/internal/security"
	"github.com/AazainKhan/luminate-ai-sub002/internal/tutor"
)

// App holds the wired application components.
type App struct {
	Config     *config.Config
	DBPool     *pgxpool.Pool
	Genkit     *genkit.Genkit
	Store      *knowledge.Store
	Classifier *classifier.Classifier
	Governor   *governor.Governor
	Pipeline   *tutor.Pipeline
	Indexer    *ingest.Indexer
	Logger     *slog.Logger

	dbCleanup func()
}

// Setup creates and initializes the application. Call Close to release
// resources.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	pool, cleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	a.dbCleanup = cleanup

	a.Genkit = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not available", cfg.EmbedderModel)
	}

	a.Store = knowledge.New(knowledge.NewQueries(pool), embedder, logger)
	a.Indexer = ingest.NewIndexer(a.Store, ingest.NewChunker(ingest.ChunkerConfig{}), logger)

	a.Classifier = classifier.New(
		cfg.Classifier.CoreTopics,
		cfg.Classifier.NavigateKeywords,
		cfg.Classifier.EducateKeywords,
	)

	checker := scope.New(a.Store, logger)
	a.Governor = governor.New(security.NewQueryValidator(), checker, governor.Policy{
		BypassConfidence: cfg.Governor.BypassConfidence,
		MaxScopeDistance: cfg.Governor.MaxScopeDistance,
		FailOpen:         cfg.Governor.FailOpen,
	}, logger)

	a.Pipeline = tutor.New(tutor.Config{
		Classifier: a.Classifier,
		Producer:   reasoning.NewModelProducer(a.Genkit, cfg.FullModelName(), logger),
		Governor:   a.Governor,
		Retriever:  a.Store,
		Generator:  tutor.NewGenerator(a.Genkit, cfg.FullModelName()),
		TopK:       int32(cfg.RetrievalTopK),
		Logger:     logger,
	})

	logger.Info("application initialized",
		"course", cfg.CourseName,
		"model", cfg.FullModelName(),
		"embedder", cfg.EmbedderModel)
	return a, nil
}

// Close releases application resources.
func (a *App) Close() {
	if a.dbCleanup != nil {
		a.dbCleanup()
	}
}

// provideDBPool runs migrations and opens a pgx pool with bounded
// connection lifetimes.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, func() { pool.Close() }, nil
}
