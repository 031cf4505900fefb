package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"customsflow/internal/auditqueue"
	"customsflow/internal/clock"
	"customsflow/internal/config"
	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/feed"
	"customsflow/internal/journal"
	"customsflow/internal/lifecycle"
	"customsflow/internal/logging"
	"customsflow/internal/metrics"
	"customsflow/internal/notifications"
	"customsflow/internal/preflight"
	"customsflow/internal/scoring"
)

const shutdownTimeout = 5 * time.Second

// Options supplies the collaborators a session cannot derive from config.
// Zero values fall back to production defaults.
type Options struct {
	Scheduler clock.Scheduler
	Scorer    scoring.Scorer
	Notifier  notifications.Service
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Session owns every runtime component for one operator.
type Session struct {
	cfg      *config.Config
	opts     Options
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	running  atomic.Bool
	cancel   context.CancelFunc
	workers  sync.WaitGroup
	bus      *events.Bus
	engine   *lifecycle.Engine
	queue    *auditqueue.Queue
	feed     *feed.Feed
	journal  *journal.Store
	server   *http.Server
	listener net.Listener
}

// Status summarises session state for the CLI.
type Status struct {
	Running      bool
	Declarations map[customs.Status]int
	QueueDepth   int
	AuditState   customs.AuditState
	FeedActive   bool
	LockFilePath string
	JournalPath  string
	MetricsAddr  string
}

// New prepares a session without starting anything.
func New(cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session requires config")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock.NewReal()
	}
	if opts.Scorer == nil {
		opts.Scorer = scoring.DefaultRules()
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(cfg)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	lockPath := cfg.LockPath()
	return &Session{
		cfg:      cfg,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "session"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start runs preflight checks, acquires the operator lock and launches every
// component.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return errors.New("session already running")
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	if err := preflight.FirstFailure(preflight.RunAll(ctx, s.cfg)); err != nil {
		return err
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another customsflow operator session is already running")
	}

	if err := s.startComponents(ctx); err != nil {
		s.teardownLocked()
		return err
	}

	s.running.Store(true)
	s.logger.Info("operator session started",
		logging.String("lock", s.lockPath),
		logging.Bool("journal", s.journal != nil),
		logging.String("metrics", s.metricsAddrLocked()),
	)
	return nil
}

func (s *Session) startComponents(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	logger := s.opts.Logger
	s.bus = events.NewBus(logger)

	engine, err := lifecycle.New(lifecycle.OptionsFromConfig(s.cfg.Lifecycle), lifecycle.Dependencies{
		Scheduler: s.opts.Scheduler,
		Scorer:    s.opts.Scorer,
		Events:    s.bus,
		Metrics:   s.opts.Metrics,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("start lifecycle engine: %w", err)
	}
	s.engine = engine

	queue, err := auditqueue.New(auditqueue.OptionsFromConfig(s.cfg.Audit), auditqueue.Dependencies{
		Scheduler: s.opts.Scheduler,
		Completer: engine,
		Events:    s.bus,
		Metrics:   s.opts.Metrics,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("start audit queue: %w", err)
	}
	s.queue = queue
	engine.ConfigureAuditQueue(queue)

	anomalies, err := feed.New(feed.OptionsFromConfig(s.cfg.Feed), feed.Dependencies{
		Scheduler: s.opts.Scheduler,
		Events:    s.bus,
		Metrics:   s.opts.Metrics,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("start anomaly feed: %w", err)
	}
	s.feed = anomalies

	if s.cfg.Journal.Enabled {
		store, err := journal.Open(s.cfg)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		s.journal = store
		sub := s.bus.Subscribe(events.KindLifecycleTransition, events.KindAuditCompleted)
		s.runWorker(runCtx, journal.NewRecorder(store, sub.Events(), logger).Run)
	}

	sub := s.bus.Subscribe(events.KindLifecycleTransition, events.KindAuditCompleted)
	dispatcher := notifications.NewDispatcher(s.opts.Notifier, notifications.TogglesFromConfig(s.cfg), sub.Events(), logger)
	s.runWorker(runCtx, dispatcher.Run)

	if bind := strings.TrimSpace(s.cfg.Metrics.Bind); bind != "" {
		if err := s.serveMetrics(bind); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) runWorker(ctx context.Context, run func(context.Context) error) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("session worker exited", logging.Error(err))
		}
	}()
}

func (s *Session) serveMetrics(bind string) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listen metrics %s: %w", bind, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.opts.Metrics.Handler())
	s.listener = ln
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	return nil
}

// Stop halts every component, flushes the journal and notification workers,
// and releases the operator lock.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return
	}
	s.teardownLocked()
	s.running.Store(false)
	s.logger.Info("operator session stopped")
}

func (s *Session) teardownLocked() {
	if s.feed != nil {
		s.feed.Close()
	}
	if s.queue != nil {
		s.queue.Close()
	}
	if s.engine != nil {
		s.engine.Close()
	}
	// Closing the bus drains buffered events so the workers exit on their own.
	if s.bus != nil {
		s.bus.Close()
	}
	s.workers.Wait()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("metrics server shutdown failed", logging.Error(err))
		}
		cancel()
		s.server = nil
		s.listener = nil
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("failed to close journal", logging.Error(err))
		}
		s.journal = nil
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release operator lock", logging.Error(err))
	}
}

// Running reports whether Start has succeeded and Stop has not been called.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Engine returns the lifecycle engine, or nil before Start.
func (s *Session) Engine() *lifecycle.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Queue returns the audit queue, or nil before Start.
func (s *Session) Queue() *auditqueue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// Feed returns the anomaly feed, or nil before Start.
func (s *Session) Feed() *feed.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed
}

// Bus returns the event bus so callers can subscribe for presentation.
func (s *Session) Bus() *events.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus
}

// Journal returns the journal store, or nil when disabled or stopped.
func (s *Session) Journal() *journal.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal
}

// Metrics returns the session's metrics set.
func (s *Session) Metrics() *metrics.Metrics {
	return s.opts.Metrics
}

// LockPath returns the operator lock file path.
func (s *Session) LockPath() string {
	return s.lockPath
}

// MetricsAddr returns the bound metrics address, or "" when disabled.
func (s *Session) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsAddrLocked()
}

func (s *Session) metricsAddrLocked() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Status reports a point-in-time summary.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:      s.running.Load(),
		LockFilePath: s.lockPath,
		MetricsAddr:  s.metricsAddrLocked(),
	}
	if s.journal != nil {
		status.JournalPath = s.journal.Path()
	}
	if !status.Running {
		return status
	}
	status.Declarations = s.engine.Counts()
	status.QueueDepth = s.queue.PendingCount()
	status.AuditState = s.queue.State()
	status.FeedActive = s.feed.Active()
	return status
}
