// Command openmemoryd wires OpenMemory's components into a single
// in-process engine: it loads configuration, constructs the Store,
// VectorStore, embedding Router, and HSG, starts the maintenance scheduler
// and the waypoint-reinforcement loop, and exposes the Ops facade. It has
// no HTTP surface; embedding this binary's Ops instance is the integration
// point for a caller process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/openmemory/openmemory/internal/classifier"
	"github.com/openmemory/openmemory/internal/config"
	"github.com/openmemory/openmemory/internal/embedder"
	"github.com/openmemory/openmemory/internal/hsg"
	"github.com/openmemory/openmemory/internal/maintenance"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/observability"
	"github.com/openmemory/openmemory/internal/obslog"
	"github.com/openmemory/openmemory/internal/ops"
	"github.com/openmemory/openmemory/internal/store"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	obslog.Init(cfg.LogPath, cfg.LogLevel)
	logger := obslog.FromContext(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTelEnabled {
		shutdownOTel, err := observability.InitOTel(ctx, cfg.Obs)
		if err != nil {
			logger.Warn().Err(err).Msg("otel init failed, continuing without tracing")
		} else {
			obslog.AddOTelWriter(observability.NewOTelWriter(cfg.Obs.ServiceName))
			defer shutdownOTel(context.Background())
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	vs, err := openVectorStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open vector store")
	}
	defer vs.Close()

	cls := classifier.New()
	router := buildRouter(ctx, cfg, logger)

	engine := hsg.New(st, vs, cls, router, hsg.WithKeywordBoost(cfg.KeywordBoost))
	go engine.RunWaypointMaintenance(ctx)

	maint := maintenance.New(st, vs, maintenance.Options{
		DecayIntervalMinutes:   cfg.DecayIntervalMins,
		DecaySleep:             time.Duration(cfg.DecaySleepMS) * time.Millisecond,
		WaypointPruneThreshold: 0.05,
	})
	if err := maint.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start maintenance")
	}
	defer maint.Stop()

	facade := ops.New(engine, st, cfg.MaxActive)

	probeCtx, cancelProbe := context.WithTimeout(ctx, 10*time.Second)
	if _, err := facade.Add(probeCtx, "openmemoryd startup probe", "system", nil, nil); err != nil {
		logger.Warn().Err(err).Msg("startup probe failed")
	}
	cancelProbe()

	logger.Info().Msg("openmemoryd ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.MetadataBackend {
	case config.MetadataBackendPostgres:
		return store.OpenPostgres(ctx, cfg.PG.DSN())
	default:
		return store.OpenSQLite(ctx, cfg.DBPath)
	}
}

func openVectorStore(ctx context.Context, cfg config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorBackend {
	case config.VectorBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PG.DSN())
		if err != nil {
			return nil, err
		}
		return vectorstore.NewPostgres(ctx, pool, cfg.VecDim, "cosine")
	case config.VectorBackendQdrant:
		return vectorstore.NewQdrant(ctx, cfg.QdrantURL, cfg.QdrantCollection, cfg.VecDim, "cosine")
	default:
		return vectorstore.NewInMemory(), nil
	}
}

func buildRouter(ctx context.Context, cfg config.Config, logger *zerolog.Logger) *embedder.Router {
	synthetic := embedder.NewSynthetic(cfg.VecDim)
	providers := map[string]embedder.Provider{}

	if cfg.OpenAIAPIKey != "" {
		providers["openai"] = embedder.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, "text-embedding-3-small", cfg.VecDim, cfg.CircuitBreakerTrip, time.Duration(cfg.CircuitBreakerReset)*time.Second)
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := embedder.NewGeminiProvider(ctx, cfg.GeminiAPIKey, "text-embedding-004", cfg.VecDim, cfg.CircuitBreakerTrip, time.Duration(cfg.CircuitBreakerReset)*time.Second)
		if err != nil {
			logger.Warn().Err(err).Msg("gemini provider unavailable")
		} else {
			providers["gemini"] = gemini
		}
	}
	if cfg.OllamaBaseURL != "" {
		providers["local"] = embedder.NewLocal(cfg.OllamaBaseURL, "nomic-embed-text", cfg.VecDim)
	}

	sectorMap := map[model.Sector]string{}
	for sector, m := range cfg.RouterSectorModels {
		sectorMap[model.Sector(sector)] = m
	}

	fallbacks := make([]string, 0, len(cfg.EmbeddingFallback))
	for _, f := range cfg.EmbeddingFallback {
		fallbacks = append(fallbacks, string(f))
	}

	return embedder.NewRouter(synthetic, string(cfg.EmbedKind), providers, fallbacks, sectorMap, embedder.DefaultRouterOptions())
}
