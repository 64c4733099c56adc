// Package worker implements the buffered worker pool pattern for the
// prediction audit log. Served predictions are handed off without blocking
// the request path and batch-inserted into ClickHouse:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/models"
)

// Prometheus metrics
var (
	predictionsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footy_audit_records_queued_total",
		Help: "Total number of predictions queued for the audit log",
	})

	recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footy_audit_records_written_total",
		Help: "Total number of audit records written to ClickHouse",
	})

	recordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footy_audit_records_failed_total",
		Help: "Total number of audit records that failed to write",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "footy_audit_queue_depth",
		Help: "Current depth of the audit worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "footy_audit_batch_insert_duration_seconds",
		Help:    "Duration of audit batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	recordsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footy_audit_records_load_shed_total",
		Help: "Total number of audit records dropped due to load shedding",
	})
)

// PredictionLogDDL creates the audit table.
const PredictionLogDDL = `
CREATE TABLE IF NOT EXISTS prediction_log (
	timestamp          DateTime64(3),
	prediction_id      UUID,
	model_version      LowCardinality(String),
	home_team          String,
	away_team          String,
	half_time_home     Nullable(Int32),
	half_time_away     Nullable(Int32),
	prob_home          Float64,
	prob_draw          Float64,
	prob_away          Float64,
	most_likely        LowCardinality(String),
	confidence         Float64,
	data_quality       Float64,
	confidence_tier    LowCardinality(String),
	model_weights      Map(String, Float64),
	warning_flags      Array(String),
	raw_json           String
) ENGINE = MergeTree()
ORDER BY (timestamp, home_team, away_team)
`

const insertPredictionLog = `
	INSERT INTO prediction_log (
		timestamp, prediction_id, model_version, home_team, away_team,
		half_time_home, half_time_away, prob_home, prob_draw, prob_away,
		most_likely, confidence, data_quality, confidence_tier,
		model_weights, warning_flags, raw_json
	)
`

// Job represents a unit of work for the worker pool
type Job struct {
	Input     models.PredictionInput
	Output    *models.PredictionOutput
	Timestamp time.Time
}

// AuditRow is one prediction_log row.
type AuditRow struct {
	Timestamp      time.Time
	PredictionID   uuid.UUID
	ModelVersion   string
	HomeTeam       string
	AwayTeam       string
	HalfTimeHome   *int32
	HalfTimeAway   *int32
	ProbHome       float64
	ProbDraw       float64
	ProbAway       float64
	MostLikely     string
	Confidence     float64
	DataQuality    float64
	ConfidenceTier string
	ModelWeights   map[string]float64
	WarningFlags   []string
	RawJSON        string
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	InsertTimeout time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool manages a pool of workers writing the prediction audit log
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// EnsureSchema creates the prediction_log table if it does not exist.
func EnsureSchema(ctx context.Context, conn driver.Conn) error {
	if err := conn.Exec(ctx, PredictionLogDDL); err != nil {
		return fmt.Errorf("create prediction_log: %w", err)
	}
	return nil
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	// Start queue depth reporter
	go p.reportQueueDepth()

	p.logger.Infow("Audit worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the worker pool, flushing queued records
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.logger.Info("Stopping audit worker pool...")
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Audit worker pool stopped")
}

// Record queues a served prediction. It never blocks: when the queue is full
// or the pool is stopped the record is dropped and false is returned.
func (p *Pool) Record(input models.PredictionInput, output *models.PredictionOutput) bool {
	if output == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		recordsLoadShed.Inc()
		return false
	}

	job := Job{
		Input:     input,
		Output:    output,
		Timestamp: time.Now(),
	}

	select {
	case p.jobQueue <- job:
		predictionsQueued.Inc()
		return true
	default:
		recordsLoadShed.Inc()
		p.logger.Warnw("Audit queue full, dropping prediction",
			"predictionId", output.Metadata.PredictionID,
			"queueDepth", len(p.jobQueue),
		)
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Audit batch failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			recordsFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Audit batch written", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			recordsWritten.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				// Channel closed, flush remaining
				flush()
				return
			}

			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch writes a batch of audit rows to ClickHouse
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	// Not derived from p.ctx: the final flush runs after shutdown begins.
	ctx, cancel := context.WithTimeout(context.Background(), p.config.InsertTimeout)
	defer cancel()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, insertPredictionLog)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	var row AuditRow
	appended := 0
	for _, job := range batch {
		if err := p.fillAuditRow(job, &row); err != nil {
			p.logger.Warnw("Skipping audit record", "error", err)
			continue
		}

		err := chBatch.Append(
			row.Timestamp,
			row.PredictionID,
			row.ModelVersion,
			row.HomeTeam,
			row.AwayTeam,
			row.HalfTimeHome,
			row.HalfTimeAway,
			row.ProbHome,
			row.ProbDraw,
			row.ProbAway,
			row.MostLikely,
			row.Confidence,
			row.DataQuality,
			row.ConfidenceTier,
			row.ModelWeights,
			row.WarningFlags,
			row.RawJSON,
		)
		if err != nil {
			p.logger.Warnw("Failed to append audit record", "error", err, "predictionId", row.PredictionID)
			continue
		}
		appended++
	}

	if appended == 0 {
		return chBatch.Abort()
	}

	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// fillAuditRow converts a queued job into a prediction_log row.
func (p *Pool) fillAuditRow(job Job, row *AuditRow) error {
	out := job.Output
	rawJSON, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}

	ts := out.Metadata.GeneratedAt
	if ts.IsZero() {
		ts = job.Timestamp
	}

	*row = AuditRow{
		Timestamp:      ts,
		PredictionID:   parseOrGenerateUUID(out.Metadata.PredictionID),
		ModelVersion:   out.Metadata.ModelVersion,
		HomeTeam:       out.HomeTeam,
		AwayTeam:       out.AwayTeam,
		HalfTimeHome:   toInt32Ptr(job.Input.HalfTimeHomeGoals),
		HalfTimeAway:   toInt32Ptr(job.Input.HalfTimeAwayGoals),
		ProbHome:       out.Probabilities.Home,
		ProbDraw:       out.Probabilities.Draw,
		ProbAway:       out.Probabilities.Away,
		MostLikely:     string(out.MostLikelyOutcome),
		Confidence:     out.ConfidenceScore,
		DataQuality:    out.Metadata.DataQualityScore,
		ConfidenceTier: out.Metadata.ConfidenceTier,
		ModelWeights:   make(map[string]float64, len(out.Explanations)),
		WarningFlags:   out.Metadata.WarningFlags,
		RawJSON:        string(rawJSON),
	}
	for _, e := range out.Explanations {
		row.ModelWeights[e.Model] = e.Weight
	}
	if row.WarningFlags == nil {
		row.WarningFlags = []string{}
	}
	return nil
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

// Helper functions

func toInt32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func parseOrGenerateUUID(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	// Generate deterministic UUID from string
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s))
}
