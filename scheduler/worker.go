package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// A Result is what a Job reports after running.
type Result interface {
	Failures() int
}

// A Job is work the Worker runs on every trigger.
type Job struct {
	Name string
	Run  func(ctx context.Context) Result
}

// A Worker runs its Jobs, in order, each time its Trigger fires.
type Worker struct {
	jobs    []Job
	trigger Trigger
	clock   retention.Clock
	l       logger.Logger
	metrics *Metrics

	// run serializes timed and on-demand runs.
	run    sync.Mutex
	stopCh chan struct{}
	stop   sync.Once
	wg     sync.WaitGroup
}

// NewWorker constructs a *Worker.
func NewWorker(trigger Trigger, clock retention.Clock, l logger.Logger, metrics *Metrics, jobs ...Job) *Worker {
	if clock == nil {
		clock = retention.SystemClock{}
	}

	if l == nil {
		l = logger.New(logger.WithKind(retention.WorkerLogKind))
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Worker{
		jobs:    jobs,
		trigger: trigger,
		clock:   clock,
		l:       l,
		metrics: metrics,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
	w.l.Info("retention worker started", &logger.LogContext{
		Data: map[string]any{"next": w.trigger.Next(w.clock.Now()).Format(time.RFC3339)},
	})
}

// Stop signals the loop to exit and waits for any run in progress to finish.
func (w *Worker) Stop() {
	w.stop.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.l.Info("retention worker stopped", nil)
}

// RunNow runs every Job immediately, returning each Result by Job name.
// It is the same run the trigger performs.
func (w *Worker) RunNow(ctx context.Context) map[string]Result {
	w.run.Lock()
	defer w.run.Unlock()

	results := make(map[string]Result, len(w.jobs))
	for _, j := range w.jobs {
		start := time.Now()
		res := j.Run(ctx)
		w.metrics.RunDuration.WithLabelValues(j.Name).Observe(time.Since(start).Seconds())

		lc := &logger.LogContext{Data: map[string]any{"job": j.Name, "failures": res.Failures()}}
		if res.Failures() > 0 {
			w.l.Warn("job finished with failures", lc)
		} else {
			w.l.Info("job finished", lc)
		}

		results[j.Name] = res
	}

	return results
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		now := w.clock.Now()
		timer := time.NewTimer(w.trigger.Next(now).Sub(now))

		select {
		case <-w.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			w.RunNow(context.Background())
		}
	}
}
