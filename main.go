package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/services"
	"coi-explorer/storage"
)

var (
	papersIngestedCounter  prometheus.Counter
	ingestMissesCounter    prometheus.Counter
	upsertFailuresCounter  prometheus.Counter
	entitiesCreatedCounter *prometheus.CounterVec
)

func init() {
	papersIngestedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coi_papers_ingested_total",
			Help: "Total number of papers fetched from a provider and written to the graph.",
		},
	)
	ingestMissesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coi_ingest_misses_total",
			Help: "Total number of DOI lookups no provider could answer.",
		},
	)
	upsertFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coi_upsert_failures_total",
			Help: "Total number of upserts that were rolled back.",
		},
	)
	entitiesCreatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coi_entities_created_total",
			Help: "Total number of entities created, by kind.",
		},
		[]string{"kind"},
	)
	prometheus.MustRegister(papersIngestedCounter, ingestMissesCounter, upsertFailuresCounter, entitiesCreatedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// recordUpsert zählt neu angelegte Entitäten je Art.
func recordUpsert(res services.UpsertResult) {
	for kind, n := range res.CreatedByKind() {
		if n > 0 {
			entitiesCreatedCounter.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// recordIngest zählt Treffer, Fehlschläge und Fehler eines Ingest-Aufrufs.
func recordIngest(res services.IngestResult, err error) {
	switch {
	case err != nil:
		upsertFailuresCounter.Inc()
	case !res.Found:
		ingestMissesCounter.Inc()
	default:
		papersIngestedCounter.Inc()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := storage.OpenDatabase(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to open database", zap.Error(err))
	}

	// Setup Providers
	enabledProviders, err := services.NewProviders(cfg, logging)
	if err != nil {
		logging.Fatal("Provider setup failed. Check ENABLED_PROVIDERS in .env", zap.Error(err))
	}
	logging.Info("Active providers loaded", zap.Strings("providers", cfg.Providers()))

	// Setup Services
	resolver := services.NewResolver(cfg.ResolverThreshold, logging)
	upserter := services.NewUpserter(db, resolver, logging)
	upserter.OnCommit = recordUpsert
	ingestor := services.NewIngestor(db, upserter, enabledProviders, logging)
	graph := &services.GraphService{DB: db}

	var snapshotter *services.Snapshotter
	if cfg.S3Enabled() {
		store, err := storage.NewS3Store(context.Background(), cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		snapshotter = &services.Snapshotter{
			Graph:  graph,
			Store:  store,
			Prefix: cfg.SnapshotPrefix,
			Keep:   cfg.KeepSnapshots,
			Logger: logging,
		}
		logging.Info("Graph snapshots enabled", zap.String("bucket", cfg.S3Bucket))
	}

	router := setupRouter(cfg, db, graph, upserter, ingestor, logging)

	// Setup Cron
	if cfg.CronSchedule != "" {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
			runScheduledJob(context.Background(), ingestor, snapshotter, logging)
		})
		if err != nil {
			logging.Fatal("Invalid CRON_SCHEDULE", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// runScheduledJob liest alle Paper neu ein und legt danach einen Snapshot ab.
func runScheduledJob(ctx context.Context, ingestor *services.Ingestor, snapshotter *services.Snapshotter, logging *zap.Logger) {
	logging.Info("Running scheduled refresh job...")
	res, err := ingestor.RefreshAll(ctx)
	if err != nil {
		logging.Error("Cron job failed", zap.Error(err))
	} else {
		papersIngestedCounter.Add(float64(res.Papers - res.Missing - res.Failed))
		ingestMissesCounter.Add(float64(res.Missing))
		upsertFailuresCounter.Add(float64(res.Failed))
		logging.Info("Cron job completed",
			zap.Int("papers", res.Papers),
			zap.Int("missing", res.Missing),
			zap.Int("failed", res.Failed))
	}

	if snapshotter == nil {
		return
	}
	if _, err := snapshotter.Run(ctx); err != nil {
		logging.Error("Graph snapshot failed", zap.Error(err))
	}
}
