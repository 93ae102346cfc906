// cmd/agent-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonaws "github.com/josephinoo/agent-bg/internal/common/aws"
	"github.com/josephinoo/agent-bg/internal/common/camunda"
	"github.com/josephinoo/agent-bg/internal/common/config"
	"github.com/josephinoo/agent-bg/internal/common/database"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/observability"
	"github.com/josephinoo/agent-bg/internal/common/zoho"
	"github.com/josephinoo/agent-bg/internal/conversation/lexicon"
	"github.com/josephinoo/agent-bg/internal/conversation/orchestrator"
	"github.com/josephinoo/agent-bg/internal/conversation/propensity"
	"github.com/josephinoo/agent-bg/internal/gateway"
	"github.com/josephinoo/agent-bg/internal/leads"
	"github.com/josephinoo/agent-bg/internal/llm"
	"github.com/josephinoo/agent-bg/internal/models"
	"github.com/josephinoo/agent-bg/internal/store/cache"
	"github.com/josephinoo/agent-bg/internal/store/postgres"
	"github.com/josephinoo/agent-bg/internal/store/search"

	cm "github.com/josephinoo/agent-bg/internal/workers/conversation/classify-message"
	pim "github.com/josephinoo/agent-bg/internal/workers/conversation/process-inbound-message"
	scm "github.com/josephinoo/agent-bg/internal/workers/conversation/send-chat-message"
	sm "github.com/josephinoo/agent-bg/internal/workers/conversation/session-metrics"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting conversation agent...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	repo := postgres.NewRepository(pg.DB, log)
	var store orchestrator.Store = repo
	serviceOpts := []orchestrator.ServiceOption{}

	// --- Redis: state cache and cross-instance session lock ---
	if cfg.Database.Redis.Enabled {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			rc = database.NewRedis(cfg.Database.Redis)
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()

		store = cache.NewCachedStore(repo, rc.Client, config.GetDuration(cfg.Conversation.StateCacheTTL), log)
		serviceOpts = append(serviceOpts, orchestrator.WithSharedLock(
			cache.NewRedisLocker(rc.Client, config.GetDuration(cfg.Conversation.LockTTL), log),
		))
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch: transcript index ---
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		indexer := search.NewTranscriptIndexer(esClient.Client, cfg.Database.Elasticsearch.TranscriptIndex, log)
		if err := indexer.EnsureIndex(ctx); err != nil {
			zapLog.Warn("transcript index not ready, turns will not be indexed", zap.Error(err))
		} else {
			serviceOpts = append(serviceOpts, orchestrator.WithIndexer(indexer))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")
	}

	// --- Lead fan-out ---
	dispatcher := newLeadDispatcher(ctx, cfg, zeebe, log, zapLog)

	// --- Conversation engine ---
	matchMode, err := lexicon.ParseMatchMode(cfg.Conversation.MatchMode)
	if err != nil {
		zapLog.Fatal("invalid match mode", zap.Error(err))
	}
	sessionScore, err := propensity.ByName(cfg.Conversation.PropensityStrategy)
	if err != nil {
		zapLog.Fatal("invalid propensity strategy", zap.Error(err))
	}
	defaultProduct, ok := models.ParseProduct(cfg.Conversation.DefaultProduct)
	if !ok {
		zapLog.Fatal("invalid default product", zap.String("product", cfg.Conversation.DefaultProduct))
	}

	var generator orchestrator.Generator
	if cfg.APIs.GenAI.Enabled {
		genai := cfg.APIs.GenAI
		generator = llm.NewClient(&llm.Config{
			BaseURL:     genai.BaseURL,
			Path:        genai.Path,
			APIKey:      genai.APIKey,
			Model:       genai.Model,
			Timeout:     config.GetDuration(genai.Timeout),
			MaxRetries:  genai.MaxRetries,
			MaxTokens:   genai.MaxTokens,
			Temperature: genai.Temperature,
		}, log)
	} else {
		zapLog.Info("Generation backend disabled, serving step templates")
	}

	engine := orchestrator.NewEngine(orchestrator.Config{
		ResponseMaxChars:          cfg.Conversation.ResponseMaxChars,
		LeadCompletenessThreshold: cfg.Conversation.LeadCompletenessThreshold,
		GenerationTimeout:         config.GetDuration(cfg.APIs.GenAI.Timeout),
		MatchMode:                 matchMode,
		DefaultProduct:            defaultProduct,
	}, store, generator, log,
		orchestrator.WithLeadSink(dispatcher),
		orchestrator.WithRecorder(obs),
		orchestrator.WithPropensity(sessionScore, nil),
	)

	service := orchestrator.NewService(orchestrator.ServiceConfig{
		LockTimeout: config.GetDuration(cfg.Conversation.LockTimeout),
	}, engine, store, repo, log, serviceOpts...)

	chatGateway := gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: config.GetDuration(cfg.Gateway.Timeout),
	}, log)

	// --- Zeebe job workers ---
	var jobWorkers []worker.JobWorker
	if zeebe != nil {
		start := func(taskType string, handler func(worker.JobClient, entities.Job)) {
			if w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
				jobWorkers = append(jobWorkers, w)
			}
		}

		wcfg := config.GetWorkerConfig(cfg, pim.TaskType)
		inbound := pim.NewHandler(&pim.Config{
			Enabled:       wcfg.Enabled,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, service, chatGateway, log)
		start(pim.TaskType, inbound.Handle)

		classifier := cm.NewHandler(&cm.Config{
			MatchMode: matchMode,
			Timeout:   config.GetDuration(config.GetWorkerConfig(cfg, cm.TaskType).Timeout),
		}, log)
		start(cm.TaskType, classifier.Handle)

		progress := sm.NewHandler(&sm.Config{
			Timeout: config.GetDuration(config.GetWorkerConfig(cfg, sm.TaskType).Timeout),
		}, service, log)
		start(sm.TaskType, progress.Handle)

		scfg := config.GetWorkerConfig(cfg, scm.TaskType)
		sender := scm.NewHandler(&scm.Config{
			Enabled:         scfg.Enabled,
			MaxJobsActive:   scfg.MaxJobsActive,
			Timeout:         config.GetDuration(scfg.Timeout),
			MaxMessageChars: scm.DefaultConfig().MaxMessageChars,
		}, chatGateway, log)
		start(scm.TaskType, sender.Handle)
	}

	// --- HTTP ---
	api := &webhookAPI{service: service, gateway: chatGateway, logger: logger.ForComponent(log, "webhook")}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/inbound", api.inbound)
	mux.HandleFunc("POST /webhook/builderbot", api.inbound)
	mux.HandleFunc("POST /webhook/start-chat", api.startChat)
	mux.HandleFunc("GET /sessions/{phone}/metrics", api.sessionMetrics)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"postgres": "ok"}
		status := http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if zeebe != nil {
			checks["zeebe"] = "ok"
			if err := zeebe.HealthCheck(r.Context()); err != nil {
				checks["zeebe"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, checks)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	for _, w := range jobWorkers {
		w.Close()
		w.AwaitClose()
	}
	api.wait()
	dispatcher.Wait()

	zapLog.Info("Conversation agent stopped")
}

// newLeadDispatcher wires every enabled lead sink.
func newLeadDispatcher(ctx context.Context, cfg *config.Config, zeebe *camunda.Client, log logger.Logger, zapLog *zap.Logger) *leads.Dispatcher {
	integ := cfg.Integrations
	var opts []leads.Option

	if integ.Zoho.Enabled {
		opts = append(opts, leads.WithCRM(zoho.NewCRMClient(
			integ.Zoho.BaseURL,
			integ.Zoho.APIKey,
			integ.Zoho.AuthToken,
			config.GetDuration(integ.Zoho.Timeout),
		)))
	}
	if integ.AWS.SNS.Enabled {
		client, err := commonaws.NewSNSClient(ctx, integ.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		opts = append(opts, leads.WithPublisher(client))
	}
	if integ.AWS.SES.Enabled {
		client, err := commonaws.NewSESClient(ctx, integ.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		opts = append(opts, leads.WithMailer(client))
	}

	processID := ""
	if cfg.LeadProcess.Enabled && zeebe != nil {
		processID = cfg.LeadProcess.ProcessID
		opts = append(opts, leads.WithProcessStarter(zeebe))
	}

	return leads.NewDispatcher(leads.Config{
		SNSTopicARN:  integ.AWS.SNS.TopicARN,
		FromEmail:    integ.AWS.SES.FromEmail,
		AdvisorEmail: integ.AWS.SES.AdvisorEmail,
		ProcessID:    processID,
		Async:        true,
	}, log, opts...)
}
