// Package supervisor manages named background goroutines tied to a shared
// context, with panic recovery and timeout-aware shutdown.
package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	logx "finbeat/pkg/logx"
)

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    logx.Logger

	wg       sync.WaitGroup
	doneOnce sync.Once
	doneCh   chan struct{}
}

func New(ctx context.Context, log logx.Logger) *Supervisor {
	if ctx == nil {
		ctx = context.Background()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Supervisor{ctx: cctx, cancel: cancel, log: log, doneCh: make(chan struct{})}
}

// Go starts a named goroutine. A returned error or recovered panic is
// logged; neither cancels the supervisor's other goroutines.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("goroutine panicked",
					logx.String("name", name),
					logx.Any("panic", rec),
					logx.String("stack", string(debug.Stack())))
			}
		}()
		if err := fn(s.ctx); err != nil && s.ctx.Err() == nil {
			s.log.Warn("goroutine exited with error", logx.String("name", name), logx.Err(err))
		}
	}()
}

// Stop cancels all goroutines and waits for them, bounded by ctx.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.cancel()
	s.doneOnce.Do(func() {
		go func() {
			s.wg.Wait()
			close(s.doneCh)
		}()
	})
	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("supervisor shutdown timed out: %w", ctx.Err())
	}
}
