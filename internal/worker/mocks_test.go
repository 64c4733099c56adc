package worker

import (
	"context"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/footyodds/stats-api/internal/models"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn

	mu         sync.Mutex
	PrepareErr error
	SendErr    error
	ExecErr    error
	Batches    []*MockBatch
	Execs      []string
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PrepareErr != nil {
		return nil, m.PrepareErr
	}
	b := &MockBatch{Query: query, sendErr: m.SendErr}
	m.Batches = append(m.Batches, b)
	return b, nil
}

func (m *MockClickHouseConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Execs = append(m.Execs, query)
	return m.ExecErr
}

// SentRows returns the rows of every batch that was sent.
func (m *MockClickHouseConn) SentRows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows [][]interface{}
	for _, b := range m.Batches {
		if b.IsSent() {
			rows = append(rows, b.rows...)
		}
	}
	return rows
}

// MockBatch implements driver.Batch
type MockBatch struct {
	Query   string
	sendErr error

	mu      sync.Mutex
	rows    [][]interface{}
	sent    bool
	aborted bool
}

func (m *MockBatch) IsSent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

func (m *MockBatch) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, v)
	return nil
}

func (m *MockBatch) AppendStruct(v interface{}) error {
	return nil
}

func (m *MockBatch) Column(int) driver.BatchColumn {
	return nil
}

func (m *MockBatch) Send() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = true
	return nil
}

func (m *MockBatch) Flush() error {
	return nil
}

func (m *MockBatch) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = true
	return nil
}

// MockApplier implements FeedbackApplier
type MockApplier struct {
	mu       sync.Mutex
	Err      error
	Received []models.PredictionFeedback
}

func (m *MockApplier) ApplyFeedback(ctx context.Context, fb models.PredictionFeedback) (models.EnsembleWeights, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Received = append(m.Received, fb)
	if m.Err != nil {
		return nil, m.Err
	}
	return models.EnsembleWeights{"poisson": 1}, nil
}

// MockAcknowledger implements amqp.Acknowledger
type MockAcknowledger struct {
	Acks    int
	Nacks   int
	Rejects int
	Requeue bool
}

func (m *MockAcknowledger) Ack(tag uint64, multiple bool) error {
	m.Acks++
	return nil
}

func (m *MockAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	m.Nacks++
	m.Requeue = requeue
	return nil
}

func (m *MockAcknowledger) Reject(tag uint64, requeue bool) error {
	m.Rejects++
	m.Requeue = requeue
	return nil
}
