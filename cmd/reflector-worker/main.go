// Command reflector-worker is the single deployable process: it loads
// configuration, wires every package under pkg/ to its real backing
// service, registers the DiarizationPipeline against the configured
// workflow engine, and serves Prometheus metrics until an interrupt
// signal asks it to shut down. It replaces the teacher's
// cmd/tarsy/main.go (a Gin API server fronting agents/chains/MCP
// servers), since this domain has no HTTP/REST surface of its own
// (DESIGN.md Non-goals) — the deployable unit here is a worker, not an
// API.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/reflector-core/reflector/pkg/audiomux"
	"github.com/reflector-core/reflector/pkg/broadcast"
	"github.com/reflector-core/reflector/pkg/config"
	"github.com/reflector-core/reflector/pkg/consent"
	"github.com/reflector-core/reflector/pkg/database"
	"github.com/reflector-core/reflector/pkg/inference"
	"github.com/reflector-core/reflector/pkg/llmcoord"
	"github.com/reflector-core/reflector/pkg/llmcoord/backend"
	"github.com/reflector-core/reflector/pkg/objectstore"
	"github.com/reflector-core/reflector/pkg/pipeline"
	"github.com/reflector-core/reflector/pkg/presence"
	"github.com/reflector-core/reflector/pkg/reconcile"
	"github.com/reflector-core/reflector/pkg/transcript"
	"github.com/reflector-core/reflector/pkg/workflow"
	memoryengine "github.com/reflector-core/reflector/pkg/workflow/memory"
	temporalengine "github.com/reflector-core/reflector/pkg/workflow/temporal"
)

// app bundles every constructed dependency, mirroring the teacher's
// pkg/api/server.go Server struct: a single container that owns process
// lifetime instead of a pile of discarded locals. Every field is set in
// newApp except temporalWorker (nil when the memory engine is selected)
// and consentSweeper (nil unless public mode is on); Run and Close
// nil-check those. The two collaborators this domain has no implementation
// for (reconcile.Source, presence.PlatformPresence; both genuine
// external platform integrations, out of scope per spec.md §1) are
// documented at their construction site instead of faked.
type app struct {
	cfg *config.Config

	db  *database.Client
	rdb *redis.Client

	workflowEngine workflow.Engine
	temporalWorker worker.Worker

	dispatcher *workflow.Adapter

	consentService *consent.Service
	consentSweeper *consent.Sweeper

	reconciler *reconcile.Reconciler
	presence   *presence.Reconciler

	metricsServer *http.Server
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("reflector-worker: failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("reflector-worker: failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("reflector-worker: exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("reflector-worker: shut down cleanly")
}

// newApp constructs every collaborator from cfg, failing fast on the
// first unavailable infrastructure dependency, mirroring the teacher's
// Initialize-then-construct-services sequencing in cmd/tarsy/main.go.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	dbClient, err := database.NewClient(ctx, database.FromAppConfig(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.db = dbClient

	if err := database.EnsureSearchIndexes(ctx, dbClient.Driver()); err != nil {
		return nil, fmt.Errorf("ensure search indexes: %w", err)
	}

	objStore, err := objectstore.NewClient(ctx, objectstore.Config{
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		EndpointURL:     cfg.Storage.EndpointURL,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		RoleARN:         cfg.Storage.RoleARN,
	})
	if err != nil {
		return nil, fmt.Errorf("construct object store: %w", err)
	}

	infClient := inference.NewClient(inference.Config{
		BaseURL:       cfg.Inference.BaseURL,
		APIKey:        cfg.Inference.APIKey,
		Timeout:       cfg.Inference.Timeout,
		RetryMin:      cfg.LLM.RetryMin,
		RetryMax:      cfg.LLM.RetryMax,
		RetryAttempts: cfg.LLM.RetryAttempts,
	})

	var llmBackend backend.LLMBackend
	switch cfg.LLM.Backend {
	case "openai":
		llmBackend = backend.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.Model)
	default:
		llmBackend = backend.NewAnthropic(cfg.LLM.APIKey, cfg.LLM.Model, 0)
	}
	coordinator := llmcoord.NewCoordinator(llmBackend, cfg.LLM.ParseAttempts)
	if cfg.LLM.RetryMin > 0 {
		coordinator.RetryMin = cfg.LLM.RetryMin
	}
	if cfg.LLM.RetryMax > 0 {
		coordinator.RetryMax = cfg.LLM.RetryMax
	}

	transcriptStore := transcript.NewEntStore(dbClient.Client)

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr(cfg.Broadcast.RedisAddr)})
	a.rdb = rdb

	var transport broadcast.Transport
	switch cfg.Broadcast.Transport {
	case "redis":
		transport = broadcast.NewRedisTransport(rdb)
	default:
		transport = broadcast.NewMemoryTransport()
	}
	catchup := broadcast.NewTranscriptEventAdapter(catchupShim{store: transcriptStore})
	broadcastManager := broadcast.NewManager(catchup, transport, 5*time.Second)

	transcriptService := transcript.NewService(transcriptStore, transcriptStore, broadcastManager)

	prober := audiomux.NewFFProbeProber()
	graphBuilder := audiomux.NewBuilder()
	encoder := audiomux.NewFFmpegEncoder()

	deps := pipeline.Deps{
		Store:        objStore,
		Prober:       prober,
		GraphBuilder: graphBuilder,
		Encoder:      encoder,
		Transcriber:  infClient,
		Diarizer:     infClient,
		Coordinator:  coordinator,
		Transcript:   transcriptService,
		Engine:       pipeline.EngineName(cfg.Inference.Engine),
		Model:        cfg.LLM.Model,
		Language:     "en",
		Publish: func(ctx context.Context, taskName, status string, data map[string]any) {
			slog.Debug("pipeline: stage transition", "task", taskName, "status", status)
		},
		Scratch: func() (string, func(), error) {
			dir, err := os.MkdirTemp("", "reflector-pipeline-*")
			if err != nil {
				return "", nil, err
			}
			return dir, func() { _ = os.RemoveAll(dir) }, nil
		},
	}

	workflowStore := workflow.NewEntStore(dbClient.Client)

	switch cfg.Workflow.Engine {
	case "memory":
		runner := pipeline.NewMemoryRunner(deps)
		a.workflowEngine = memoryengine.New(runner)
	default:
		temporalClient, err := temporalengine.New(temporalengine.Options{
			ClientOptions: client.Options{HostPort: cfg.Workflow.TemporalHost},
			TaskQueue:     cfg.Workflow.TaskQueue,
		})
		if err != nil {
			return nil, fmt.Errorf("construct temporal engine: %w", err)
		}
		w := temporalClient.Worker()
		pipeline.RegisterWorker(w, pipeline.NewActivities(deps))
		a.temporalWorker = w
		a.workflowEngine = temporalClient
	}
	a.dispatcher = workflow.NewAdapter(a.workflowEngine, workflowStore)

	consentStore := consent.NewEntStore(dbClient.Client)
	// a.consentService answers deny-consent requests; spec.md §4.7 frames
	// the caller of DenyConsent (the meeting platform's consent webhook)
	// as an external collaborator with no HTTP surface in this
	// repository's scope, so it is held on app for that future caller
	// rather than invoked here.
	a.consentService = consent.NewService(consentStore, objStore)
	if cfg.PublicMode {
		sweepStore := consent.NewEntSweepStore(dbClient.Client)
		a.consentSweeper = consent.NewSweeper(sweepStore, cfg.PublicDataRetentionDays, 1*time.Hour)
	}

	reconcileStore := reconcile.NewEntStore(dbClient.Client)
	// reconcile.Source (the external recording platform's "list recent
	// recordings" API) has no documented wire contract in spec.md and no
	// implementation anywhere in the pack; the Reconciler itself — the
	// in-scope dedup/matching logic spec.md §4.9 describes — is fully
	// constructed and ready for a webhook handler or future Source
	// implementation to drive. Its Poller is therefore not started here.
	a.reconciler = reconcile.NewReconciler(reconcileStore)

	presenceStore := presence.NewEntStore(dbClient.Client)
	pendingJoins := presence.NewPendingJoinRegistry(rdb)
	// presence.PlatformPresence (the external meeting platform's
	// room-presence API) is the same kind of out-of-scope external
	// collaborator as reconcile.Source above; the reconciliation
	// algorithm of spec.md §4.8 is fully built and exercised by its own
	// tests, but its ticker loop needs a real platform client to run
	// against, so it is constructed and held, not started.
	a.presence = presence.NewReconciler(presenceStore, nil, pendingJoins, 30*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metricsServer = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}

	return a, nil
}

// Run starts every background loop and blocks serving /metrics until ctx
// is cancelled, then drains each loop in turn.
func (a *app) Run(ctx context.Context) error {
	if a.temporalWorker != nil {
		if err := a.temporalWorker.Start(); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}

	if a.consentSweeper != nil {
		a.consentSweeper.Start(ctx)
		slog.Info("reflector-worker: consent retention sweeper running", "retention_days", a.cfg.PublicDataRetentionDays)
	}

	slog.Info("reflector-worker: serving metrics", "addr", a.cfg.Metrics.ListenAddr, "workflow_engine", a.cfg.Workflow.Engine)

	errCh := make(chan error, 1)
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = a.metricsServer.Shutdown(shutdownCtx)
		if a.consentSweeper != nil {
			a.consentSweeper.Stop()
		}
		if a.temporalWorker != nil {
			a.temporalWorker.Stop()
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Close releases every connection newApp opened, best-effort, in reverse
// construction order.
func (a *app) Close() {
	if a.workflowEngine != nil {
		if te, ok := a.workflowEngine.(*temporalengine.Engine); ok {
			te.Close()
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Warn("reflector-worker: error closing redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("reflector-worker: error closing database client", "error", err)
		}
	}
}

// catchupShim adapts transcript.Store's GetEventsSince (which returns
// transcript.EventRecord to keep pkg/transcript free of a pkg/broadcast
// import) to the broadcast.CatchupEvent shape broadcast.NewTranscriptEventAdapter
// expects. It is the one place those two independently-defined,
// structurally-identical types get a concrete conversion.
type catchupShim struct {
	store transcript.Store
}

func (s catchupShim) GetEventsSince(ctx context.Context, transcriptID string, sinceSeq int64, limit int) ([]broadcast.CatchupEvent, error) {
	records, err := s.store.GetEventsSince(ctx, transcriptID, sinceSeq, limit)
	if err != nil {
		return nil, err
	}
	out := make([]broadcast.CatchupEvent, len(records))
	for i, r := range records {
		out[i] = broadcast.CatchupEvent{
			SequenceNumber: r.SequenceNumber,
			EventType:      r.EventType,
			Data:           r.Data,
		}
	}
	return out, nil
}

// redisAddr falls back to the local default so a single-process
// development deployment doesn't need REDIS_ADDR set just to exercise
// presence's pending-join registry.
func redisAddr(addr string) string {
	if addr == "" {
		return "localhost:6379"
	}
	return addr
}
