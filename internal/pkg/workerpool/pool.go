package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config controls pool sizing.
type Config struct {
	Workers int
}

// DefaultConfig returns a modest pool suitable for background
// indexing work.
func DefaultConfig() *Config {
	return &Config{Workers: 8}
}

// Statistics tracks task counters.
type Statistics struct {
	mu sync.RWMutex

	Submitted int64
	Completed int64
	Failed    int64
	Running   int64
}

func (s *Statistics) incSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Submitted++
}

func (s *Statistics) incRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Running++
}

func (s *Statistics) decRunning(failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Running--
	if failed {
		s.Failed++
	} else {
		s.Completed++
	}
}

func (s *Statistics) Get() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Statistics{
		Submitted: s.Submitted,
		Completed: s.Completed,
		Failed:    s.Failed,
		Running:   s.Running,
	}
}

// Pool is a bounded worker pool backed by ants.
type Pool struct {
	pool   *ants.Pool
	stats  *Statistics
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// New creates a pool with the configured worker count.
func New(config *Config, logger *zap.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	antsPool, err := ants.NewPool(config.Workers,
		ants.WithPanicHandler(func(err interface{}) {
			logger.Error("worker panic", zap.Any("error", err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		pool:   antsPool,
		stats:  &Statistics{},
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}, nil
}

// Submit schedules a task. Returns ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task func() error) error {
	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	default:
	}

	p.stats.incSubmitted()
	return p.pool.Submit(func() {
		p.stats.incRunning()
		err := task()
		p.stats.decRunning(err != nil)
		if err != nil {
			p.logger.Error("worker task failed", zap.Error(err))
		}
	})
}

// Running returns the number of in-flight workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Stats returns a snapshot of the counters.
func (p *Pool) Stats() Statistics {
	return p.stats.Get()
}

// Shutdown stops accepting tasks and releases the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.pool.Release()
}
