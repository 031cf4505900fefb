package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"customsflow/internal/clock"
	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/logging"
	"customsflow/internal/metrics"
	"customsflow/internal/scoring"
)

const component = "lifecycle"

// AuditQueue receives declarations that need human review.
type AuditQueue interface {
	Enqueue(ctx context.Context, decl customs.Declaration) error
}

// Engine owns every declaration's state machine.
type Engine struct {
	opts    Options
	sched   clock.Scheduler
	scorer  scoring.Scorer
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	newID   func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	records map[string]*record
	order   []string
	queue   AuditQueue
	closed  bool
}

type record struct {
	decl      customs.Declaration
	timer     clock.Timer
	gen       uint64
	attempts  int
	audited   bool
	abandoned bool
	queued    bool
}

// New constructs an engine. Call Close to cancel outstanding timers.
func New(opts Options, deps Dependencies) (*Engine, error) {
	if deps.Scheduler == nil {
		return nil, errors.New("lifecycle: scheduler is required")
	}
	if deps.Scorer == nil {
		return nil, errors.New("lifecycle: scorer is required")
	}
	if opts.ScoringAttempts < 1 {
		opts.ScoringAttempts = 1
	}
	deps = deps.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		opts:    opts,
		sched:   deps.Scheduler,
		scorer:  deps.Scorer,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logging.NewComponentLogger(deps.Logger, component),
		newID:   deps.NewID,
		ctx:     ctx,
		cancel:  cancel,
		records: make(map[string]*record),
	}, nil
}

// ConfigureAuditQueue wires the queue that receives high-risk declarations.
func (e *Engine) ConfigureAuditQueue(q AuditQueue) {
	e.mu.Lock()
	e.queue = q
	e.mu.Unlock()
}

// Create registers a new declaration in Draft and immediately signals
// Processing, so every accepted declaration is already on the timeline.
func (e *Engine) Create(ctx context.Context, in customs.Input) (customs.Declaration, error) {
	if err := in.Validate(); err != nil {
		e.metrics.RecordFailure(component, customs.Kind(err))
		return customs.Declaration{}, customs.Wrap(nil, component, "create", "", err)
	}
	in = in.Normalized()
	now := e.sched.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return customs.Declaration{}, customs.Wrap(customs.ErrClosed, component, "create", "engine closed", nil)
	}
	id := e.newID()
	if _, exists := e.records[id]; exists {
		return customs.Declaration{}, customs.Wrap(customs.ErrDuplicate, component, "create", fmt.Sprintf("id %s already assigned", id), nil)
	}
	rec := &record{decl: customs.Declaration{
		ID:          id,
		CompanyName: in.CompanyName,
		GoodsType:   in.GoodsType,
		HSCode:      in.HSCode,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Status:      customs.StatusDraft,
		Documents:   in.Documents,
		SubmitDate:  now,
		UpdatedAt:   now,
	}}
	e.records[id] = rec
	e.order = append(e.order, id)
	e.metrics.RecordDeclarationCreated()

	logging.WithContext(logging.WithDeclarationID(ctx, id), e.logger).Info("declaration created",
		logging.String("company", in.CompanyName),
		logging.String("hs_code", in.HSCode),
		logging.Int("documents", len(in.Documents)),
	)

	e.beginProcessingLocked(rec)
	return rec.decl.Clone(), nil
}

// Submit is the ingestion entry point: it creates the declaration with the
// received document attached and returns the assigned id.
func (e *Engine) Submit(ctx context.Context, in customs.Input, documentRef string) (string, error) {
	if strings.TrimSpace(documentRef) == "" {
		err := customs.Wrap(customs.ErrInvalidInput, component, "submit", "document reference is required", nil)
		e.metrics.RecordFailure(component, customs.Kind(err))
		return "", err
	}
	in.Documents = append(slices.Clone(in.Documents), documentRef)
	decl, err := e.Create(ctx, in)
	if err != nil {
		return "", err
	}
	return decl.ID, nil
}

// AttachDocument appends a document reference. It never changes status.
func (e *Engine) AttachDocument(ctx context.Context, id, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return customs.Wrap(customs.ErrInvalidInput, component, "attach document", "document reference is required", nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[id]
	if !ok {
		e.metrics.RecordFailure(component, "not_found")
		return customs.Wrap(customs.ErrNotFound, component, "attach document", fmt.Sprintf("declaration %s", id), nil)
	}
	rec.decl.Documents = append(rec.decl.Documents, ref)
	rec.decl.UpdatedAt = e.sched.Now()
	logging.WithContext(logging.WithDeclarationID(ctx, id), e.logger).Debug("document attached",
		logging.String("document", ref),
		logging.Int("documents", len(rec.decl.Documents)),
	)
	return nil
}

// OnExternalCompletion clears a declaration awaiting audit. It is the only
// path out of AuditRequired.
func (e *Engine) OnExternalCompletion(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	logger := logging.WithContext(logging.WithDeclarationID(ctx, id), e.logger)

	rec, ok := e.records[id]
	if !ok {
		e.metrics.RecordFailure(component, "not_found")
		return customs.Wrap(customs.ErrNotFound, component, "complete audit", fmt.Sprintf("declaration %s", id), nil)
	}
	switch {
	case rec.decl.Status == customs.StatusAuditRequired:
		e.transitionLocked(rec, customs.StatusCleared)
		return nil
	case rec.audited:
		e.metrics.RecordStaleCompletion()
		logging.WarnWithContext(logger, "completion ignored", "stale_completion",
			logging.String(logging.FieldStatus, string(rec.decl.Status)),
			logging.String(logging.FieldErrorHint, "declaration already left audit; duplicate acknowledgement"),
			logging.String(logging.FieldImpact, "declaration unchanged"),
		)
		return customs.Wrap(customs.ErrStaleCompletion, component, "complete audit",
			fmt.Sprintf("declaration %s already %s", id, rec.decl.Status), nil)
	default:
		e.metrics.RecordFailure(component, "not_found")
		return customs.Wrap(customs.ErrNotFound, component, "complete audit",
			fmt.Sprintf("declaration %s is %s, not awaiting audit", id, rec.decl.Status), nil)
	}
}

// Abandon cancels the declaration's pending timer and stops it advancing.
// A declaration awaiting audit can still be completed by the queue.
func (e *Engine) Abandon(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[id]
	if !ok {
		return customs.Wrap(customs.ErrNotFound, component, "abandon", fmt.Sprintf("declaration %s", id), nil)
	}
	if rec.decl.Status.IsTerminal() {
		return customs.Wrap(customs.ErrConflict, component, "abandon", fmt.Sprintf("declaration %s already cleared", id), nil)
	}
	rec.abandoned = true
	e.cancelTimerLocked(rec)
	logging.WithContext(logging.WithDeclarationID(ctx, id), e.logger).Info("declaration abandoned",
		logging.String(logging.FieldStatus, string(rec.decl.Status)),
	)
	return nil
}

// Get returns a snapshot of one declaration.
func (e *Engine) Get(id string) (customs.Declaration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[id]
	if !ok {
		return customs.Declaration{}, customs.Wrap(customs.ErrNotFound, component, "get", fmt.Sprintf("declaration %s", id), nil)
	}
	return rec.decl.Clone(), nil
}

// List returns snapshots of every declaration, newest first.
func (e *Engine) List() []customs.Declaration {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]customs.Declaration, 0, len(e.order))
	for i := len(e.order) - 1; i >= 0; i-- {
		out = append(out, e.records[e.order[i]].decl.Clone())
	}
	return out
}

// Counts returns the number of declarations in each status. Every status is
// present in the map, zero or not.
func (e *Engine) Counts() map[customs.Status]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	counts := make(map[customs.Status]int, len(customs.AllStatuses()))
	for _, s := range customs.AllStatuses() {
		counts[s] = 0
	}
	for _, rec := range e.records {
		counts[rec.decl.Status]++
	}
	return counts
}

// Unqueued lists, oldest first, declarations awaiting audit that never
// reached the audit queue.
func (e *Engine) Unqueued() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, id := range e.order {
		rec := e.records[id]
		if rec.decl.Status == customs.StatusAuditRequired && !rec.queued {
			ids = append(ids, id)
		}
	}
	return ids
}

// Pending reports whether the declaration has a timer armed.
func (e *Engine) Pending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[id]
	return ok && rec.timer != nil
}

// Close cancels every pending timer. Further Create calls fail with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancel()
	for _, rec := range e.records {
		e.cancelTimerLocked(rec)
	}
}

func (e *Engine) beginProcessingLocked(rec *record) {
	e.transitionLocked(rec, customs.StatusProcessing)
	e.scheduleLocked(rec, e.opts.ProcessingDelay, e.onProcessed)
}

func (e *Engine) onProcessed(rec *record) {
	if rec.decl.Status != customs.StatusProcessing {
		return
	}
	e.transitionLocked(rec, customs.StatusValidating)
	e.scheduleLocked(rec, e.opts.ValidationDelay, e.onValidated)
}

// onValidated is entered with e.mu held and releases it around the scorer
// call. It reacquires the lock before returning.
func (e *Engine) onValidated(rec *record) {
	if rec.decl.Status != customs.StatusValidating {
		return
	}
	gen := rec.gen
	snapshot := rec.decl.Clone()
	rec.attempts++
	attempt := rec.attempts

	e.mu.Unlock()
	started := time.Now()
	assessment, err := e.scorer.Score(e.ctx, snapshot)
	e.metrics.ObserveScoring(started, err)
	e.mu.Lock()

	if e.closed || rec.gen != gen || rec.abandoned || rec.decl.Status != customs.StatusValidating {
		return
	}
	logger := e.logger.With(logging.String(logging.FieldDeclarationID, rec.decl.ID))
	if err != nil {
		if attempt < e.opts.ScoringAttempts {
			logging.WarnWithContext(logger, "risk scoring failed; retrying", "scoring_retry",
				logging.Int("attempt", attempt),
				logging.Error(err),
				logging.String(logging.FieldImpact, "risk check delayed"),
			)
			e.scheduleLocked(rec, e.opts.ValidationDelay, e.onValidated)
			return
		}
		logging.ErrorWithContext(logger, "risk scoring failed; giving up", "scoring_failed",
			logging.Int("attempts", attempt),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the scoring collaborator, then resubmit the declaration"),
		)
		return
	}

	verdict := assessment.Clamp()
	rec.decl.RiskScore = verdict.RiskScore
	rec.decl.Anomalies = verdict.Anomalies
	e.transitionLocked(rec, customs.StatusRiskCheck)

	if verdict.RiskScore > e.opts.AuditThreshold {
		e.transitionLocked(rec, customs.StatusAuditRequired)
		rec.audited = true
		e.enqueueLocked(rec)
		return
	}
	e.scheduleLocked(rec, e.opts.ClearanceDelay, e.onRiskSettled)
}

func (e *Engine) onRiskSettled(rec *record) {
	if rec.decl.Status != customs.StatusRiskCheck {
		return
	}
	e.transitionLocked(rec, customs.StatusCleared)
}

// enqueueLocked hands the declaration to the queue with e.mu released so the
// queue is free to call back into the engine.
func (e *Engine) enqueueLocked(rec *record) {
	queue := e.queue
	decl := rec.decl.Clone()
	logger := e.logger.With(logging.String(logging.FieldDeclarationID, decl.ID))
	if queue == nil {
		logging.WarnWithContext(logger, "no audit queue configured", "audit_queue_missing",
			logging.String(logging.FieldImpact, "declaration stays in audit_required until completed externally"),
		)
		e.metrics.RecordFailure(component, "audit_unqueued")
		return
	}
	e.mu.Unlock()
	err := queue.Enqueue(e.ctx, decl)
	e.mu.Lock()
	if err != nil {
		logging.ErrorWithContext(logger, "audit enqueue failed", "audit_enqueue_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, customs.Kind(err)),
		)
		e.metrics.RecordFailure(component, "audit_unqueued")
		return
	}
	rec.queued = true
	e.metrics.RecordEnqueued()
}

func (e *Engine) transitionLocked(rec *record, to customs.Status) {
	from := rec.decl.Status
	if !customs.CanTransition(from, to) {
		logging.ErrorWithContext(e.logger, "illegal status transition refused", "illegal_transition",
			logging.String(logging.FieldDeclarationID, rec.decl.ID),
			logging.String(logging.FieldFromStatus, string(from)),
			logging.String(logging.FieldStatus, string(to)),
		)
		return
	}
	now := e.sched.Now()
	rec.decl.Status = to
	rec.decl.UpdatedAt = now
	e.metrics.RecordTransition(string(to))
	e.events.Publish(events.LifecycleTransition(rec.decl.ID, from, to, now))

	attrs := []logging.Attr{
		logging.String(logging.FieldDeclarationID, rec.decl.ID),
		logging.String(logging.FieldFromStatus, string(from)),
		logging.String(logging.FieldStatus, string(to)),
	}
	if to.IsScored() {
		attrs = append(attrs, logging.Int(logging.FieldRiskScore, rec.decl.RiskScore))
	}
	e.logger.Info("status changed", logging.Args(attrs...)...)
}

// scheduleLocked arms the declaration's single timer, replacing any pending one.
func (e *Engine) scheduleLocked(rec *record, d time.Duration, step func(*record)) {
	e.cancelTimerLocked(rec)
	rec.gen++
	gen := rec.gen
	rec.timer = e.sched.After(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || rec.gen != gen || rec.abandoned {
			return
		}
		rec.timer = nil
		step(rec)
	})
}

func (e *Engine) cancelTimerLocked(rec *record) {
	if rec.timer != nil {
		rec.timer.Stop()
		rec.timer = nil
	}
	rec.gen++
}
