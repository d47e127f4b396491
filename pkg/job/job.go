package job

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/samandr77/microservices/onboarding/pkg/logger"
)

type job struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// Service runs registered maintenance functions, such as expired code
// cleanup, right after Start and then once per interval until the context is done.
type Service struct {
	l    *slog.Logger
	jobs []job
	wg   *sync.WaitGroup
}

func NewService(l *slog.Logger) *Service {
	return &Service{
		l:  l,
		wg: &sync.WaitGroup{},
	}
}

func (s *Service) RegisterJob(name string, interval time.Duration, fn func(ctx context.Context) error) *Service {
	return s.TryRegisterJob(true, name, interval, fn)
}

// TryRegisterJob skips the job when it is disabled or has no positive interval.
func (s *Service) TryRegisterJob(isEnabled bool, name string, interval time.Duration, fn func(ctx context.Context) error) *Service {
	if !isEnabled || interval <= 0 {
		s.l.Info("job disabled", "job", name)
		return s
	}

	s.jobs = append(s.jobs, job{
		name:     name,
		interval: interval,
		fn:       fn,
	})

	return s
}

func (s *Service) Start(ctx context.Context) {
	ctx = logger.SetLogType(ctx, "job")

	for _, j := range s.jobs {
		s.wg.Add(1)

		go s.loop(ctx, j)
	}
}

func (s *Service) loop(ctx context.Context, j job) {
	defer s.wg.Done()

	l := s.l.With("job", j.name, "interval", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	failures := 0

	for {
		started := time.Now()

		err := s.run(ctx, j)

		elapsed := time.Since(started)

		switch {
		case err != nil:
			failures++
			l.ErrorContext(ctx, "job failed", "error", err, "elapsed", elapsed, "consecutive_failures", failures)
		case failures > 0:
			l.InfoContext(ctx, "job recovered", "elapsed", elapsed, "after_failures", failures)
			failures = 0
		default:
			l.DebugContext(ctx, "job done", "elapsed", elapsed)
		}

		select {
		case <-ctx.Done():
			l.DebugContext(ctx, "job stopped")
			return
		case <-ticker.C:
		}
	}
}

// run executes one iteration. An iteration may not outlast its interval so
// runs of the same job never overlap.
func (s *Service) run(ctx context.Context, j job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.l.ErrorContext(ctx, "job panic", "job", j.name, "error", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()

	return j.fn(ctx)
}

// Stop waits for running jobs; cancel the context passed to Start first.
func (s *Service) Stop() {
	s.wg.Wait()
}
