package workers

import (
	"context"
	"file-relay/contract"
	"file-relay/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultRestartInterval = 200 * time.Millisecond
	maxRestartBackoff      = 30 * time.Second
)

// Supervisor runs each worker in its own goroutine, restarts the ones that
// panic or fail, and waits for all of them once the parent context is done.
// A worker returning nil is considered finished and is never restarted.
// A worker that keeps crashing waits twice as long before every new attempt.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
	maxBackoff      time.Duration
	restarts        contract.RestartObserver
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &Supervisor{
		wg:              &sync.WaitGroup{},
		log:             log,
		restartInterval: restartInterval,
		maxBackoff:      max(restartInterval, maxRestartBackoff),
	}
}

// WithRestartObserver reports every scheduled restart to o.
func (s *Supervisor) WithRestartObserver(o contract.RestartObserver) *Supervisor {
	s.restarts = o
	return s
}

// Run blocks until every worker has returned.
// Cancelling the parent stops everything, so does calling Stop.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision. A panic is recovered and turned
// into errors.ErrWorkerPanic so that one worker cannot take the process down.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)
	wait := backoff{base: s.restartInterval, max: s.maxBackoff}

	go func() {
		defer s.wg.Done()

		for attempt := 1; ; attempt++ {
			if ctx.Err() != nil {
				s.log.Info("Stopping worker", "name", workerName)
				return
			}

			started := time.Now()
			err := runProtected(ctx, worker)

			if err == nil {
				s.log.Info("Worker finished", "name", workerName)
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			delay := wait.next(time.Since(started))
			s.log.Warn("Worker crashed, restarting",
				"name", workerName, "attempt", attempt, "error", err, "in", delay)
			if s.restarts != nil {
				s.restarts.WorkerRestarted(workerName, err)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()
}

func runProtected(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels every supervised worker. Run returns once they are all gone.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}

// backoff doubles the delay between restarts up to max. A run that stayed
// up for max brings it back to base.
type backoff struct {
	base, max time.Duration
	current   time.Duration
}

func (b *backoff) next(ranFor time.Duration) time.Duration {
	if b.current == 0 || ranFor >= b.max {
		b.current = b.base
	}
	delay := b.current
	b.current = min(b.current*2, b.max)
	return delay
}
