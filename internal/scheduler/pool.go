// Package scheduler runs a bounded worker pool for table maintenance
// and traversal work, adapted from friggdb/pool.Pool in the teacher
// repo: a fixed number of goroutines drain a buffered job channel,
// reporting queue depth via the same promauto gauge pattern.
package scheduler

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

var (
	metricQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "termtab",
		Name:      "scheduler_queue_length",
		Help:      "Current number of jobs waiting in the scheduler's work queue.",
	})
	metricQueueCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "termtab",
		Name:      "scheduler_queue_capacity",
		Help:      "Maximum number of jobs the scheduler's work queue can hold.",
	})
)

// JobFunc is unit of work submitted to the pool: a bounded traversal
// chunk, a reclamation tick for one table, or similar.
type JobFunc func() error

// Config controls pool sizing, mirroring friggdb/pool.Config's fields.
type Config struct {
	MaxWorkers int
	QueueDepth int
}

func DefaultConfig() Config {
	return Config{MaxWorkers: 4, QueueDepth: 10_000}
}

type job struct {
	fn   JobFunc
	done chan error
}

// Pool runs submitted jobs on a fixed set of background goroutines.
type Pool struct {
	cfg   Config
	size  *atomic.Int32
	queue chan *job
	stop  chan struct{}
}

// New starts cfg.MaxWorkers goroutines draining a channel of capacity
// cfg.QueueDepth.
func New(cfg Config) *Pool {
	if cfg.MaxWorkers <= 0 {
		cfg = DefaultConfig()
	}
	p := &Pool{
		cfg:   cfg,
		size:  atomic.NewInt32(0),
		queue: make(chan *job, cfg.QueueDepth),
		stop:  make(chan struct{}),
	}
	for i := 0; i < cfg.MaxWorkers; i++ {
		go p.worker()
	}
	metricQueueCapacity.Set(float64(cfg.QueueDepth))
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case j := <-p.queue:
			p.size.Dec()
			metricQueueLength.Set(float64(p.size.Load()))
			j.done <- j.fn()
		case <-p.stop:
			return
		}
	}
}

// Submit enqueues fn and blocks until it has run, returning its error.
// Submit fails fast with an error instead of blocking forever if the
// queue is already full.
func (p *Pool) Submit(fn JobFunc) error {
	if int(p.size.Load()) >= p.cfg.QueueDepth {
		return fmt.Errorf("scheduler: queue is full (depth %d)", p.cfg.QueueDepth)
	}
	j := &job{fn: fn, done: make(chan error, 1)}
	p.size.Inc()
	metricQueueLength.Set(float64(p.size.Load()))
	select {
	case p.queue <- j:
	case <-p.stop:
		return fmt.Errorf("scheduler: pool stopped")
	}
	return <-j.done
}

// SubmitAsync enqueues fn without waiting for it to run. Errors are
// dropped; callers that need the result should use Submit.
func (p *Pool) SubmitAsync(fn JobFunc) {
	go func() { _ = p.Submit(fn) }()
}

// Close stops accepting new work; in-flight jobs already pulled off
// the queue still run to completion.
func (p *Pool) Close() {
	close(p.stop)
}

// Ticker runs fn every interval on the pool until Close is called.
// termtabd uses it to log per-table stats periodically; it does not
// drive reclamation or teardown.
func (p *Pool) Ticker(interval time.Duration, fn JobFunc) {
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.SubmitAsync(fn)
			case <-p.stop:
				return
			}
		}
	}()
}
