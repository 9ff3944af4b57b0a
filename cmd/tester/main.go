package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

// Scenarios exercised against the webhook.
const (
	scenarioIntake   = "intake"
	scenarioFollowUp = "followup"
	scenarioNoID     = "no_franchise_id"
)

const defaultBatchSize = 20

// webhookTask is one request to send.
type webhookTask struct {
	Scenario string
	Payload  *model.WebhookPayload
}

// batchTask is a group of requests handed to one pool worker.
type batchTask struct {
	Tasks []webhookTask
}

type loadgen struct {
	endpoint     string
	client       *http.Client
	franchiseIDs []string

	mu     sync.Mutex
	phones []string
}

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	baseURL := flag.String("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port), "API base URL")
	franchiseIDsStr := flag.String("franchise-ids", "", "Comma-separated franchise ids placed in intake messages")
	rate := flag.Int("rate", 20, "Target webhook requests per second (total)")
	duration := flag.Duration("duration", 1*time.Minute, "Load test duration")
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	batchSize := flag.Int("batch-size", defaultBatchSize, "Requests per worker batch")
	followUpPct := flag.Int("followup-pct", 30, "Percent of requests sent from an already provisioned phone")
	noIDPct := flag.Int("no-id-pct", 5, "Percent of first messages that carry no franchise id")
	metricsPort := flag.Int("metrics-port", 9091, "Port for Prometheus metrics endpoint")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "WhatsApp Webhook Load Generator\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Posts simulated patient messages to /api/v1/webhooks.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *batchSize <= 0 {
		*batchSize = defaultBatchSize
		fmt.Printf("Invalid batch size, using default: %d\n", defaultBatchSize)
	}
	if *rate <= 0 {
		fmt.Println("Rate must be positive")
		os.Exit(1)
	}

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	franchiseIDs := splitNonEmpty(*franchiseIDsStr)
	if len(franchiseIDs) == 0 {
		logger.Log.Fatal("No franchise ids provided, run the seed command and pass --franchise-ids")
	}

	observer.InitMetrics(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := startMetricsServer(*metricsPort)
	var metricsWg sync.WaitGroup
	metricsWg.Add(1)
	go func() {
		defer metricsWg.Done()
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Metrics server shutdown error", zap.Error(err))
		}
	}()

	logger.Log.Info("Starting webhook load generator",
		zap.String("url", *baseURL),
		zap.Int("rate_per_sec", *rate),
		zap.Duration("duration", *duration),
		zap.Int("concurrency", *concurrency),
		zap.Int("batch_size", *batchSize),
		zap.Int("franchises", len(franchiseIDs)),
	)

	lg := &loadgen{
		endpoint:     strings.TrimRight(*baseURL, "/") + "/api/v1/webhooks",
		client:       &http.Client{Timeout: 10 * time.Second},
		franchiseIDs: franchiseIDs,
	}

	gofakeit.Seed(time.Now().UnixNano())

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(*concurrency, func(data interface{}) {
		lg.runBatch(data.(batchTask), &wg)
	})
	if err != nil {
		logger.Log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		lg.loop(ctx, *rate, *duration, *batchSize, *followUpPct, *noIDPct, pool, &wg)
	}()

	select {
	case sig := <-sigChan:
		logger.Log.Info("Received termination signal, shutting down...", zap.String("signal", sig.String()))
	case <-loopDone:
		logger.Log.Info("Load generation duration finished")
	}
	cancel()

	<-loopDone
	logger.Log.Info("Waiting for in-flight requests to complete...")
	wg.Wait()
	metricsWg.Wait()
	logger.Log.Info("Load generator shutdown complete")
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func startMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Failed to start Prometheus metrics server", zap.Error(err))
		}
	}()
	return server
}

// loop builds one request per tick and hands full batches to the pool.
func (lg *loadgen) loop(ctx context.Context, rate int, duration time.Duration, batchSize, followUpPct, noIDPct int, pool *ants.PoolWithFunc, wg *sync.WaitGroup) {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	timer := time.NewTimer(duration)
	defer timer.Stop()

	batch := make([]webhookTask, 0, batchSize)
	submit := func() {
		if len(batch) == 0 {
			return
		}
		wg.Add(len(batch))
		if err := pool.Invoke(batchTask{Tasks: batch}); err != nil {
			logger.Log.Warn("Failed to invoke worker pool for batch", zap.Int("batch_task_count", len(batch)), zap.Error(err))
			wg.Add(-len(batch))
			for _, task := range batch {
				observer.IncLoadgenFailed(task.Scenario)
			}
		}
		batch = make([]webhookTask, 0, batchSize)
	}

	for {
		select {
		case <-ctx.Done():
			submit()
			return
		case <-timer.C:
			submit()
			return
		case <-ticker.C:
			task := lg.nextTask(followUpPct, noIDPct)
			observer.IncLoadgenAttempted(task.Scenario)
			batch = append(batch, task)
			if len(batch) >= batchSize {
				submit()
			}
		}
	}
}

// nextTask picks a scenario. Follow-ups reuse a phone that already sent an
// intake message so the webhook takes the existing-patient path.
func (lg *loadgen) nextTask(followUpPct, noIDPct int) webhookTask {
	if gofakeit.Number(1, 100) <= followUpPct {
		if phone, ok := lg.knownPhone(); ok {
			return webhookTask{
				Scenario: scenarioFollowUp,
				Payload:  model.NewWebhookPayload(phone, gofakeit.Sentence(8)),
			}
		}
	}

	phone := model.NewIndianPhone()
	if gofakeit.Number(1, 100) <= noIDPct {
		return webhookTask{
			Scenario: scenarioNoID,
			Payload:  model.NewWebhookPayload(phone, "Hi, I would like an appointment"),
		}
	}

	franchiseID := lg.franchiseIDs[gofakeit.Number(0, len(lg.franchiseIDs)-1)]
	body := fmt.Sprintf("Hello! Franchise ID: %s Location: %s, %s", franchiseID, gofakeit.City(), gofakeit.Sentence(5))
	lg.rememberPhone(phone)
	return webhookTask{
		Scenario: scenarioIntake,
		Payload:  model.NewWebhookPayload(phone, body),
	}
}

func (lg *loadgen) knownPhone() (string, bool) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if len(lg.phones) == 0 {
		return "", false
	}
	return lg.phones[gofakeit.Number(0, len(lg.phones)-1)], true
}

func (lg *loadgen) rememberPhone(phone string) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.phones = append(lg.phones, phone)
}

func (lg *loadgen) runBatch(batch batchTask, wg *sync.WaitGroup) {
	for _, task := range batch.Tasks {
		func(task webhookTask) {
			defer wg.Done()
			if err := lg.post(task.Payload); err != nil {
				logger.Log.Warn("Webhook request failed", zap.String("scenario", task.Scenario), zap.Error(err))
				observer.IncLoadgenFailed(task.Scenario)
			}
		}(task)
	}
}

func (lg *loadgen) post(payload *model.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := lg.client.Post(lg.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
