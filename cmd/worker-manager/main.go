// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"billing-chart-workers/internal/api"
	"billing-chart-workers/internal/chart/assistant"
	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/conversation"
	"billing-chart-workers/internal/chart/generator"
	"billing-chart-workers/internal/chart/oracle"
	commonaws "billing-chart-workers/internal/common/aws"
	"billing-chart-workers/internal/common/camunda"
	"billing-chart-workers/internal/common/config"
	"billing-chart-workers/internal/common/logger"
	"billing-chart-workers/internal/common/observability"

	// Chart Assistant Workers (4)
	acd "billing-chart-workers/internal/workers/chart-assistant/aggregate-chart-data"
	abq "billing-chart-workers/internal/workers/chart-assistant/answer-billing-question"
	cci "billing-chart-workers/internal/workers/chart-assistant/classify-chart-intent"
	gcs "billing-chart-workers/internal/workers/chart-assistant/generate-chart-spec"

	// Data Access & Communication Workers (2)
	scr "billing-chart-workers/internal/workers/communication/share-chart-report"
	fbr "billing-chart-workers/internal/workers/data-access/fetch-billing-records"
)

// retryWithBackoff runs operation with exponential backoff until it succeeds,
// ctx ends, or maxRetries is exhausted.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries uint64, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialDelay
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0

	attempt := 0
	notify := func(err error, next time.Duration) {
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Uint64("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", next),
		)
	}
	err := backoff.RetryNotify(func() error {
		attempt++
		return operation()
	}, backoff.WithContext(backoff.WithMaxRetries(exp, maxRetries), ctx), notify)
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt, err)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.Build(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		zapLog.Warn("logging output unavailable, using stdout", zap.Error(err))
	}
	defer func() { _ = zapLog.Sync() }()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("recordStore", cfg.RecordStore.Backend),
	)

	obs := observability.NewWithConfig(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Billing records ---
	records, backends, err := openRecordStore(ctx, cfg, log, zapLog)
	if err != nil {
		zapLog.Fatal("record store unavailable", zap.Error(err))
	}
	defer backends.Close()

	// --- Chart engine ---
	chartCatalog := catalog.New(cfg.Chart.PaymentStatuses)
	genAI := oracle.NewGenAIClient(oracle.Config{
		BaseURL:     cfg.APIs.GenAI.BaseURL,
		APIKey:      cfg.APIs.GenAI.APIKey,
		Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxTokens:   cfg.APIs.GenAI.MaxTokens,
		Temperature: cfg.APIs.GenAI.Temperature,
		RateLimit:   cfg.APIs.GenAI.RateLimit,
		Burst:       cfg.APIs.GenAI.Burst,
	})
	chartGen := generator.New(genAI, chartCatalog, generator.Config{
		ExplainEnabled:   cfg.Chart.ExplainEnabled,
		ExplainMinLength: cfg.Chart.ExplainMinLength,
	}, log.WithFields(map[string]interface{}{"component": "generator"}))
	responder := conversation.NewResponder(genAI)

	// --- Notifications ---
	var emailSender scr.EmailSender
	var smsSender scr.SMSSender
	if cfg.Notifications.SES.Enabled || cfg.Notifications.SNS.Enabled {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Notifications.SES.Enabled {
			emailSender = commonaws.NewSESClient(awsCfg)
		}
		if cfg.Notifications.SNS.Enabled {
			smsSender = commonaws.NewSNSClient(awsCfg, cfg.Notifications.SNS.SenderID)
		}
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		w := camunda.NewWorker(zeebe.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Recorder:      obs,
		}, handler, log)
		w.Start()
		zapLog.Info("worker registered",
			zap.String("taskType", taskType),
			zap.Int("maxJobsActive", wcfg.MaxJobsActive),
			zap.Int("timeout_ms", wcfg.Timeout),
		)
		workers = append(workers, w)
	}
	workerTimeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	register(cci.TaskType, cci.NewHandler(
		&cci.Config{Timeout: workerTimeout(cci.TaskType)},
		&classifyChartIntentLoggerAdapter{log},
	))

	register(gcs.TaskType, gcs.NewHandler(
		&gcs.Config{
			Timeout:    workerTimeout(gcs.TaskType),
			SampleSize: cfg.Chart.SampleSize,
		},
		records, chartGen,
		&generateChartSpecLoggerAdapter{log},
	))

	register(acd.TaskType, acd.NewHandler(
		&acd.Config{Timeout: workerTimeout(acd.TaskType)},
		records, chartCatalog,
		&aggregateChartDataLoggerAdapter{log},
	))

	register(abq.TaskType, abq.NewHandler(
		&abq.Config{
			Timeout:         workerTimeout(abq.TaskType),
			PaymentStatuses: cfg.Chart.PaymentStatuses,
			RecentRecords:   cfg.Chart.RecentRecords,
		},
		records, responder,
		&answerBillingQuestionLoggerAdapter{log},
	))

	register(fbr.TaskType, fbr.NewHandler(
		&fbr.Config{
			Timeout:         workerTimeout(fbr.TaskType),
			PaymentStatuses: cfg.Chart.PaymentStatuses,
			RecentRecords:   cfg.Chart.RecentRecords,
			Source:          cfg.RecordStore.Backend,
		},
		records, log,
	))

	if config.IsWorkerEnabled(cfg, scr.TaskType) {
		handler, err := scr.NewHandler(scr.HandlerOptions{
			Config: &scr.Config{
				Timeout:      workerTimeout(scr.TaskType),
				FromEmail:    cfg.Notifications.SES.FromEmail,
				EmailEnabled: emailSender != nil,
				SMSEnabled:   smsSender != nil,
			},
			Email:  emailSender,
			SMS:    smsSender,
			Logger: log,
		})
		if err != nil {
			zapLog.Fatal("failed to create share-chart-report handler", zap.Error(err))
		}
		register(scr.TaskType, handler)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- HTTP API ---
	chartAssistant := assistant.New(records, chartGen, responder, chartCatalog, assistant.Config{
		PaymentStatuses: cfg.Chart.PaymentStatuses,
		SampleSize:      cfg.Chart.SampleSize,
		RecentRecords:   cfg.Chart.RecentRecords,
	}, log.WithFields(map[string]interface{}{"component": "assistant"}))

	checks := backends.Checks()
	checks["zeebe"] = zeebe.HealthCheck

	server := api.NewServer(api.Options{
		Assistant:       chartAssistant,
		Store:           records,
		PaymentStatuses: cfg.Chart.PaymentStatuses,
		RecentRecords:   cfg.Chart.RecentRecords,
		Checks:          checks,
		Charts:          obs,
		Logger:          log,
		RequestTimeout:  config.GetDuration(cfg.APIs.GenAI.Timeout) * 2,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port), 15*time.Second)
	}()

	// --- Graceful Shutdown ---
	serverRunning := true
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping workers...")
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
		serverRunning = false
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if serverRunning {
		select {
		case err := <-serverErr:
			if err != nil {
				zapLog.Error("HTTP server shutdown failed", zap.Error(err))
			}
		case <-shutdownCtx.Done():
			zapLog.Warn("HTTP server did not drain before shutdown deadline")
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// Logger adapters for chart-assistant workers that declare their own Logger
// interfaces.
type classifyChartIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyChartIntentLoggerAdapter) With(fields map[string]interface{}) cci.Logger {
	return &classifyChartIntentLoggerAdapter{a.Logger.With(fields)}
}

type generateChartSpecLoggerAdapter struct {
	logger.Logger
}

func (a *generateChartSpecLoggerAdapter) With(fields map[string]interface{}) gcs.Logger {
	return &generateChartSpecLoggerAdapter{a.Logger.With(fields)}
}

type aggregateChartDataLoggerAdapter struct {
	logger.Logger
}

func (a *aggregateChartDataLoggerAdapter) With(fields map[string]interface{}) acd.Logger {
	return &aggregateChartDataLoggerAdapter{a.Logger.With(fields)}
}

type answerBillingQuestionLoggerAdapter struct {
	logger.Logger
}

func (a *answerBillingQuestionLoggerAdapter) With(fields map[string]interface{}) abq.Logger {
	return &answerBillingQuestionLoggerAdapter{a.Logger.With(fields)}
}
