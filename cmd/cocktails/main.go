// Package main runs the cocktail knowledge service: it loads the catalog,
// builds the retrieval index and serves the query tools over HTTP and,
// optionally, NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/WessleyAI/cocktails/engine/catalog"
	"github.com/WessleyAI/cocktails/engine/graph"
	"github.com/WessleyAI/cocktails/engine/ingest"
	"github.com/WessleyAI/cocktails/engine/query"
	"github.com/WessleyAI/cocktails/engine/rag"
	"github.com/WessleyAI/cocktails/engine/semantic"
	"github.com/WessleyAI/cocktails/engine/tools"
	"github.com/WessleyAI/cocktails/pkg/config"
	"github.com/WessleyAI/cocktails/pkg/fn"
	"github.com/WessleyAI/cocktails/pkg/mid"
	"github.com/WessleyAI/cocktails/pkg/natsutil"
	"github.com/WessleyAI/cocktails/pkg/ollama"
	"github.com/WessleyAI/cocktails/pkg/resilience"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const serviceName = "cocktails"

// indexedEvent is published once the retrieval index is built.
type indexedEvent struct {
	Backend    string `json:"backend"`
	Cocktails  int    `json:"cocktails"`
	Chunks     int    `json:"chunks"`
	DurationMS int64  `json:"duration_ms"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Catalog ---
	// A missing or malformed dataset leaves an empty catalog; the service
	// still starts and answers every lookup as a miss.
	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Warn("starting with empty catalog", "err", err)
	}

	// --- Model server ---
	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.Ollama.RateLimit, Burst: cfg.Ollama.Burst})
	embedder := ollama.NewEmbedClient(cfg.Ollama.URL, cfg.Ollama.EmbedModel, ollama.WithLimiter(limiter))
	chat := ollama.NewChatClient(cfg.Ollama.URL, cfg.Ollama.ChatModel, ollama.WithLimiter(limiter)).
		WithTemperature(cfg.Retrieval.Temperature)

	retry := fn.DefaultRetry
	retry.MaxAttempts = cfg.Retrieval.MaxAttempts

	// --- Retrieval index ---
	var retriever query.Retriever
	var breakers func() map[string]string
	var stats ingest.Stats
	store, closeStore, err := openIndex(ctx, cfg, embedder, logger)
	if err == nil {
		defer closeStore()
		stats, err = ingest.BuildIndex(ctx, cat.Cocktails(), ingest.Deps{
			Embedder:  embedder,
			Store:     store,
			Workers:   cfg.Index.Workers,
			Retry:     retry,
			ChunkSize: cfg.Index.ChunkSize,
			Overlap:   cfg.Index.ChunkOverlap,
			Logger:    logger,
		})
	}

	// --- Ingredient graph (optional) ---
	var enricher rag.GraphEnricher
	if cfg.Neo4j.URL != "" {
		driver, gerr := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Pass, ""))
		if gerr != nil {
			logger.Warn("neo4j unavailable, graph enrichment disabled", "err", gerr)
		} else {
			defer driver.Close(context.Background())
			gs := graph.New(driver)
			if gerr := seedGraph(ctx, gs, cat); gerr != nil {
				logger.Warn("graph seeding failed, graph enrichment disabled", "err", gerr)
			} else {
				enricher = gs
			}
		}
	}

	if err != nil {
		logger.Error("retrieval index unavailable, fallback queries will fail", "err", err)
	} else {
		opts := rag.DefaultOptions()
		opts.TopK = cfg.Retrieval.TopK
		opts.SearchTimeout = cfg.Retrieval.SearchTimeout
		opts.CallTimeout = cfg.Retrieval.CallTimeout
		opts.Retry = retry
		opts.UseGraph = enricher != nil
		ragSvc := rag.New(embedder, chat, store, enricher, opts, logger)
		retriever, breakers = ragSvc, ragSvc.BreakerStates
	}

	svc, err := query.New(cat, retriever, logger)
	if err != nil {
		return fmt.Errorf("query service: %w", err)
	}
	registry := tools.NewRegistry(svc)

	// --- NATS responder (optional) ---
	if cfg.NATS.URL != "" {
		nc, nerr := nats.Connect(cfg.NATS.URL, nats.Name(serviceName))
		if nerr != nil {
			logger.Warn("nats unavailable, responder disabled", "err", nerr)
		} else {
			defer nc.Drain()
			sub, nerr := natsutil.Serve(nc, registry, natsutil.ServeOpts{
				Prefix:   cfg.NATS.SubjectPrefix,
				Queue:    cfg.NATS.Queue,
				Classify: tools.ErrorCode,
				Logger:   logger,
			})
			if nerr != nil {
				return fmt.Errorf("nats serve: %w", nerr)
			}
			defer sub.Unsubscribe()
			logger.Info("nats responder started", "subject", cfg.NATS.SubjectPrefix+".>")

			if retriever != nil {
				ev := indexedEvent{
					Backend:    cfg.Index.Backend,
					Cocktails:  stats.Cocktails,
					Chunks:     stats.Chunks,
					DurationMS: stats.Duration.Milliseconds(),
				}
				if perr := natsutil.Publish(ctx, nc, cfg.NATS.EventsSubject, ev); perr != nil {
					logger.Warn("publish index event", "err", perr)
				}
			}
		}
	}

	// --- HTTP server ---
	handler := mid.Chain(newMux(registry, health{catalog: cat, breakers: breakers}, logger),
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.Server.CORSOrigin),
		mid.OTel(serviceName),
		mid.RateLimit(resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.Server.RateLimit, Burst: cfg.Server.RateBurst})),
		mid.MaxBody(1<<20),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cocktails server starting", "port", cfg.Server.Port, "tools", registry.Names())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// openIndex returns the configured vector store, emptied and ready for a
// fresh build.
func openIndex(ctx context.Context, cfg *config.Config, embedder semantic.Embedder, logger *slog.Logger) (semantic.Store, func(), error) {
	if cfg.Index.Backend == config.BackendMemory {
		return semantic.NewMemoryStore(), func() {}, nil
	}

	vs, err := semantic.New(cfg.Index.QdrantURL, cfg.Index.QdrantCollection)
	if err != nil {
		return nil, nil, fmt.Errorf("qdrant connect: %w", err)
	}
	// The collection dimension follows the embedding model.
	sample, err := embedder.Embed(ctx, "cocktail")
	if err != nil {
		vs.Close()
		return nil, nil, fmt.Errorf("detect embedding dimension: %w", err)
	}
	if err := vs.Reset(ctx, len(sample)); err != nil {
		vs.Close()
		return nil, nil, err
	}
	logger.Info("qdrant collection reset", "collection", cfg.Index.QdrantCollection, "dims", len(sample))
	return vs, func() { vs.Close() }, nil
}

func seedGraph(ctx context.Context, gs *graph.GraphStore, cat *catalog.Catalog) error {
	if err := gs.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := gs.Clear(ctx); err != nil {
		return err
	}
	return gs.SeedCatalog(ctx, cat.Cocktails())
}
