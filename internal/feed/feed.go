// Package feed generates the synthetic anomaly stream shown on the
// monitoring screen. It ticks only while activated and keeps a short
// newest-first history.
package feed

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"customsflow/internal/clock"
	"customsflow/internal/config"
	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/logging"
	"customsflow/internal/metrics"
)

const component = "feed"

// EventLabels and OriginLabels are the fixed sampling sets.
var (
	EventLabels  = []string{"Price Mismatch", "Invalid HS Code", "Weight Discrepancy", "Route Anomaly", "Doc Missing"}
	OriginLabels = []string{"Shenzhen Port", "Ningbo Port", "Shanghai Air", "HK Border", "Tianjin Hub"}
)

// Options configures the generator. A zero Seed seeds from the scheduler clock.
type Options struct {
	Interval      time.Duration
	Capacity      int
	Seed          uint64
	HighRiskRatio float64
}

// OptionsFromConfig maps the [feed] section onto generator options.
func OptionsFromConfig(cfg config.Feed) Options {
	return Options{
		Interval:      cfg.Interval(),
		Capacity:      cfg.Capacity,
		Seed:          cfg.Seed,
		HighRiskRatio: cfg.HighRiskRatio,
	}
}

// Dependencies are the collaborators a Feed needs. Scheduler is required.
type Dependencies struct {
	Scheduler clock.Scheduler
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Feed is the anomaly generator.
type Feed struct {
	opts    Options
	sched   clock.Scheduler
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	history []customs.AnomalyEvent
	nextID  int64
	active  bool
	timer   clock.Timer
	gen     uint64
	closed  bool
}

// New constructs an inactive feed.
func New(opts Options, deps Dependencies) (*Feed, error) {
	if deps.Scheduler == nil {
		return nil, errors.New("feed: scheduler is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("feed: interval must be positive")
	}
	if opts.Capacity <= 0 {
		return nil, errors.New("feed: capacity must be positive")
	}
	if deps.Events == nil {
		deps.Events = nopPublisher{}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(deps.Scheduler.Now().UnixNano())
	}
	return &Feed{
		opts:    opts,
		sched:   deps.Scheduler,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logging.NewComponentLogger(deps.Logger, component),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		history: make([]customs.AnomalyEvent, 0, opts.Capacity),
	}, nil
}

// Activate starts ticking. Activating an active feed does nothing.
func (f *Feed) Activate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active || f.closed {
		return
	}
	f.active = true
	f.armLocked()
	f.logger.Debug("feed activated", logging.Duration("interval", f.opts.Interval))
}

// Deactivate stops ticking. History is kept.
func (f *Feed) Deactivate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.active {
		return
	}
	f.active = false
	f.stopLocked()
	f.logger.Debug("feed deactivated", logging.Int("retained", len(f.history)))
}

// Active reports whether the feed is ticking.
func (f *Feed) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Recent returns the retained events, newest first.
func (f *Feed) Recent() []customs.AnomalyEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.history)
}

// Clear drops the retained history.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.history = f.history[:0]
	f.mu.Unlock()
}

// Close deactivates the feed permanently.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.active = false
	f.stopLocked()
}

func (f *Feed) armLocked() {
	gen := f.gen
	f.timer = f.sched.After(f.opts.Interval, func() { f.tick(gen) })
}

func (f *Feed) stopLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gen++
}

func (f *Feed) tick(gen uint64) {
	f.mu.Lock()
	if !f.active || f.gen != gen {
		f.mu.Unlock()
		return
	}
	ev := f.synthesizeLocked()
	f.history = slices.Insert(f.history, 0, ev)
	if len(f.history) > f.opts.Capacity {
		f.history = f.history[:f.opts.Capacity]
	}
	f.armLocked()
	f.events.Publish(events.AnomalyObserved(ev))
	f.mu.Unlock()

	f.metrics.RecordFeedEvent(string(ev.RiskLevel))
	if ev.RiskLevel == customs.RiskHigh {
		f.logger.Debug("high risk anomaly",
			logging.Int64("anomaly_id", ev.ID),
			logging.String("event", ev.EventLabel),
			logging.String("origin", ev.OriginLabel),
		)
	}
}

func (f *Feed) synthesizeLocked() customs.AnomalyEvent {
	f.nextID++
	status := customs.FeedDetected
	if f.rng.IntN(2) == 1 {
		status = customs.FeedAnalyzing
	}
	risk := customs.RiskMedium
	if f.rng.Float64() > 1-f.opts.HighRiskRatio {
		risk = customs.RiskHigh
	}
	return customs.AnomalyEvent{
		ID:          f.nextID,
		Timestamp:   f.sched.Now(),
		EventLabel:  EventLabels[f.rng.IntN(len(EventLabels))],
		OriginLabel: OriginLabels[f.rng.IntN(len(OriginLabels))],
		Status:      status,
		RiskLevel:   risk,
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
