package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/models"
)

func TestPool_RaceCondition(t *testing.T) {
	conn := &MockClickHouseConn{}
	p := NewPool(PoolConfig{
		WorkerCount:   2,
		QueueSize:     1000,
		BatchSize:     10,
		FlushInterval: 10 * time.Millisecond,
		ClickHouse:    conn,
		Logger:        zap.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	// Record concurrently from many request goroutines while Stop races them
	wg := sync.WaitGroup{}
	producers := 10
	perProducer := 100

	var mu sync.Mutex
	accepted := 0
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				ok := p.Record(models.PredictionInput{}, testOutput(fmt.Sprintf("p%d-%d", i, j)))
				if ok {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
				if j%10 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	p.Stop()
	wg.Wait()

	// Every accepted record is flushed, none after Stop
	if got := len(conn.SentRows()); got != accepted {
		t.Errorf("sent %d rows, accepted %d", got, accepted)
	}
}
