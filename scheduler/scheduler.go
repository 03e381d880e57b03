// Package scheduler runs named background maintenance jobs on intervals or
// after a delay. The server uses it for the periodic low-stock scan and for
// audit retention pruning.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of scheduled work. Panics are recovered and logged so a
// failing job cannot take the scheduler down.
type Task func()

// Scheduler owns one goroutine per registered job. Registering a name that
// already exists replaces the previous job.
type Scheduler struct {
	mu     sync.Mutex
	stops  map[string]chan struct{}
	logger *zap.Logger
	done   chan struct{}
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		stops:  make(map[string]chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Every runs task on a fixed interval until Cancel or Stop.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)

	stop := make(chan struct{})
	s.stops[name] = stop

	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				s.run(name, task)
			case <-stop:
				return
			case <-s.done:
				return
			}
		}
	}()
	s.logger.Info("job scheduled",
		zap.String("job", name), zap.Duration("interval", interval))
}

// Once runs task a single time after delay, unless canceled first.
func (s *Scheduler) Once(name string, delay time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)

	stop := make(chan struct{})
	s.stops[name] = stop

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.run(name, task)
			s.mu.Lock()
			if s.stops[name] == stop {
				delete(s.stops, name)
			}
			s.mu.Unlock()
		case <-stop:
		case <-s.done:
		}
	}()
}

// Cancel stops the named job. Unknown names are a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
}

// Stop stops every job. Safe to call more than once.
func (s *Scheduler) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Names returns the currently registered job names.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.stops))
	for name := range s.stops {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) cancelLocked(name string) {
	if ch, ok := s.stops[name]; ok {
		close(ch)
		delete(s.stops, name)
	}
}

func (s *Scheduler) run(name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked",
				zap.String("job", name), zap.Any("recover", r))
		}
	}()
	task()
}
