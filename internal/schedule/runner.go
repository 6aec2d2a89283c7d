// Package schedule is a thin cron wrapper driving an engine's detection
// loop. Each engine owns its own Runner; the two engines share nothing.
package schedule

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "finbeat/pkg/logx"
)

type def struct {
	name string
	spec string // cron spec or @every
	job  func(ctx context.Context)

	// running guards against overlapping cycles: cron spawns a goroutine
	// per trigger, and a cycle can outlast its interval (transport
	// retries, slow fetches). One cycle at a time per job.
	running atomic.Bool
}

type Runner struct {
	mu sync.Mutex

	log    logx.Logger
	loc    *time.Location
	parser cron.Parser
	c      *cron.Cron
	defs   []*def

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRunner(loc *time.Location, log logx.Logger) *Runner {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		log:    log,
		loc:    loc,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Add registers a job. Must be called before Start.
func (r *Runner) Add(name, spec string, job func(ctx context.Context)) error {
	if _, err := r.parser.Parse(spec); err != nil {
		return fmt.Errorf("schedule %q: invalid spec %q: %w", name, spec, err)
	}
	r.mu.Lock()
	r.defs = append(r.defs, &def{name: name, spec: spec, job: job})
	r.mu.Unlock()
	return nil
}

func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil {
		return
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.c = cron.New(cron.WithParser(r.parser), cron.WithLocation(r.loc))

	for _, d := range r.defs {
		d := d
		_, err := r.c.AddFunc(d.spec, func() { _ = r.run(d) })
		if err != nil {
			// Specs were validated in Add; this is a programming error.
			r.log.Error("schedule registration failed", logx.String("job", d.name), logx.Err(err))
		}
	}

	r.c.Start()
	r.log.Info("scheduler started",
		logx.Int("jobs", len(r.defs)),
		logx.String("tz", r.loc.String()))
}

// Kick runs the named job immediately in the calling goroutine, through
// the same overlap guard as scheduled triggers. Reports whether the job
// ran; a no-op before Start or while a cycle is already in flight.
func (r *Runner) Kick(name string) bool {
	r.mu.Lock()
	var d *def
	for _, cand := range r.defs {
		if cand.name == name {
			d = cand
			break
		}
	}
	started := r.c != nil
	r.mu.Unlock()
	if d == nil || !started {
		return false
	}
	return r.run(d)
}

// run executes one job cycle. A cycle overlapping a still-running one is
// skipped, never queued. A panic in a detection pass is logged and
// swallowed so one bad cycle cannot take the engine down.
func (r *Runner) run(d *def) bool {
	if !d.running.CompareAndSwap(false, true) {
		r.log.Debug("previous cycle still running; skipping", logx.String("job", d.name))
		return false
	}
	defer d.running.Store(false)
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("job panicked",
				logx.String("job", d.name),
				logx.Any("panic", rec),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return false
	}
	d.job(ctx)
	return true
}

// Stop halts scheduling and waits for the in-flight tick to finish its
// cycle (including its persistence write), bounded by ctx.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.c
	cancel := r.cancel
	r.c = nil
	r.cancel = nil
	r.mu.Unlock()
	if c == nil {
		return
	}

	// Let the running cycle complete; cancel job contexts only if the
	// shutdown deadline expires first, so in-flight transport retries are
	// abandoned promptly rather than extending shutdown.
	done := c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
	}
	if cancel != nil {
		cancel()
	}
}
