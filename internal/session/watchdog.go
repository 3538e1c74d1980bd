package session

import (
	"context"
	"sync"
	"time"

	"github.com/electisspace/spacectl/internal/log"
)

const (
	// DefaultWatchdogInterval is the periodic revalidation cadence.
	DefaultWatchdogInterval = 60 * time.Second

	// DefaultWatchdogMinGap throttles kick-driven sweeps so a burst of
	// wake-ups cannot stampede the server.
	DefaultWatchdogMinGap = 30 * time.Second
)

// WatchdogConfig tunes the background session watchdog.
type WatchdogConfig struct {
	Interval time.Duration
	MinGap   time.Duration

	// OnInvalid runs once when a sweep finds the session dead. The
	// store has already been reset by then.
	OnInvalid func()
}

// Watchdog periodically revalidates the session in the background and
// reacts to external wake-ups (a terminal regaining focus, the network
// coming back). It guarantees at most one forced logout: once the
// session is gone the sweeps become no-ops.
type Watchdog struct {
	store     *Store
	logger    *log.Logger
	interval  time.Duration
	minGap    time.Duration
	onInvalid func()

	kick      chan struct{}
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewWatchdog creates a watchdog for the given session store.
func NewWatchdog(store *Store, logger *log.Logger, cfg WatchdogConfig) *Watchdog {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWatchdogInterval
	}
	if cfg.MinGap <= 0 {
		cfg.MinGap = DefaultWatchdogMinGap
	}
	return &Watchdog{
		store:     store,
		logger:    logger.WithGroup("watchdog"),
		interval:  cfg.Interval,
		minGap:    cfg.MinGap,
		onInvalid: cfg.OnInvalid,
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the watchdog loop until Stop is called or the context is
// canceled. Later calls are no-ops.
func (w *Watchdog) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

func (w *Watchdog) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		case <-w.kick:
			w.Sweep(ctx)
		}
	}
}

// Kick requests an immediate sweep, coalescing with any pending one.
// Safe to call from any goroutine.
func (w *Watchdog) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Stop shuts the loop down and waits for it to exit. Safe to call more
// than once, and before Start.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	// If the loop never ran, nothing will close done; claim the start
	// slot so the wait below cannot hang.
	w.startOnce.Do(func() { close(w.done) })
	<-w.done
}

// Sweep revalidates the session if one is active. Sweeps are skipped
// while a context switch is in flight, since the session is known to
// be live mid-switch and the extra /me call would race the switch
// choreography. A recent successful validation also skips the sweep.
func (w *Watchdog) Sweep(ctx context.Context) {
	if !w.store.IsAuthenticated() {
		return
	}
	if w.store.IsSwitching() {
		w.logger.Debug("context switch in flight, skipping sweep")
		return
	}
	if since := time.Since(w.store.LastValidation()); since < w.minGap {
		w.logger.Debug("recently validated, skipping sweep", "since", since)
		return
	}

	if !w.store.ValidateSession(ctx) {
		w.logger.Info("session no longer valid, logged out")
		if w.onInvalid != nil {
			w.onInvalid()
		}
	}
}
