package auditqueue

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
)

const component = "auditqueue"

// Entry is one declaration waiting for review.
type Entry struct {
	Declaration customs.Declaration
	Task        customs.AuditTask
	HighRisk    bool
	EnqueuedAt  time.Time
}

func (e Entry) clone() Entry {
	e.Declaration = e.Declaration.Clone()
	return e
}

// Snapshot is a consistent view of the queue for presentation.
type Snapshot struct {
	State         customs.AuditState
	Selected      string
	TransactionID string
	Entries       []Entry
}

// Queue is the risk audit queue. All methods are safe for concurrent use.
type Queue struct {
	opts    Options
	sched   clock.Scheduler
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	newID   func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	entries   []*Entry
	selected  string
	state     customs.AuditState
	auditing  string
	txID      string
	timer     clock.Timer
	gen       uint64
	completer Completer
	closed    bool
}

// New constructs an empty queue in the Idle state.
func New(opts Options, deps Dependencies) (*Queue, error) {
	if deps.Scheduler == nil {
		return nil, errors.New("auditqueue: scheduler is required")
	}
	deps = deps.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		opts:      opts,
		sched:     deps.Scheduler,
		events:    deps.Events,
		metrics:   deps.Metrics,
		logger:    logging.NewComponentLogger(deps.Logger, component),
		newID:     deps.NewID,
		ctx:       ctx,
		cancel:    cancel,
		state:     customs.AuditIdle,
		completer: deps.Completer,
	}, nil
}

// ConfigureCompleter sets the collaborator notified on finalize.
func (q *Queue) ConfigureCompleter(c Completer) {
	q.mu.Lock()
	q.completer = c
	q.mu.Unlock()
}

// Enqueue appends a declaration awaiting audit. The first entry into an empty
// queue becomes the selection.
func (q *Queue) Enqueue(ctx context.Context, decl customs.Declaration) error {
	if strings.TrimSpace(decl.ID) == "" {
		return q.fail(customs.Wrap(customs.ErrInvalidInput, component, "enqueue", "declaration id is required", nil))
	}
	if decl.Status != customs.StatusAuditRequired {
		return q.fail(customs.Wrap(customs.ErrInvalidInput, component, "enqueue",
			fmt.Sprintf("declaration %s is %s, not audit_required", decl.ID, decl.Status), nil))
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return customs.Wrap(customs.ErrClosed, component, "enqueue", "queue closed", nil)
	}
	if q.indexLocked(decl.ID) >= 0 {
		return q.fail(customs.Wrap(customs.ErrDuplicate, component, "enqueue",
			fmt.Sprintf("declaration %s already queued", decl.ID), nil))
	}
	now := q.sched.Now()
	entry := &Entry{
		Declaration: decl.Clone(),
		Task:        customs.NewAuditTask(q.newID(), decl, q.opts.HighRiskCutoff, now),
		HighRisk:    decl.IsHighRisk(q.opts.HighRiskCutoff),
		EnqueuedAt:  now,
	}
	q.entries = append(q.entries, entry)
	if q.selected == "" {
		q.selected = decl.ID
	}
	q.metrics.SetQueueDepth(len(q.entries))

	logging.WithContext(logging.WithDeclarationID(ctx, decl.ID), q.logger).Info("declaration queued for audit",
		logging.Int(logging.FieldRiskScore, decl.RiskScore),
		logging.Bool("high_risk", entry.HighRisk),
		logging.Int("pending", len(q.entries)),
	)
	return nil
}

// Select makes id the current selection. Selection is fixed while an audit is
// in progress or awaiting finalize.
func (q *Queue) Select(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.indexLocked(id) < 0 {
		return q.fail(customs.Wrap(customs.ErrNotFound, component, "select", fmt.Sprintf("declaration %s not queued", id), nil))
	}
	if q.state != customs.AuditIdle && q.selected != id {
		return q.fail(customs.Wrap(customs.ErrConflict, component, "select",
			fmt.Sprintf("audit of %s is %s", q.auditing, q.state), nil))
	}
	q.selected = id
	logging.WithContext(logging.WithDeclarationID(ctx, id), q.logger).Debug("selection changed")
	return nil
}

// StartAudit begins adjudicating the current selection.
func (q *Queue) StartAudit(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return customs.Wrap(customs.ErrClosed, component, "start audit", "queue closed", nil)
	}
	if q.selected == "" {
		return q.fail(customs.Wrap(customs.ErrNotFound, component, "start audit", "nothing selected", nil))
	}
	if q.state != customs.AuditIdle {
		return q.fail(customs.Wrap(customs.ErrConflict, component, "start audit",
			fmt.Sprintf("audit of %s is %s", q.auditing, q.state), nil))
	}
	q.state = customs.AuditAuditing
	q.auditing = q.selected
	q.txID = ""
	q.scheduleLocked(q.opts.AdjudicationDelay, q.onAdjudicated)

	logging.WithContext(logging.WithDeclarationID(ctx, q.auditing), q.logger).Info("audit started",
		logging.Duration("adjudication_delay", q.opts.AdjudicationDelay),
	)
	return nil
}

// FinalizeAudit acknowledges a completed audit: the entry leaves the queue,
// the selection moves to the new head and the engine is told to clear.
func (q *Queue) FinalizeAudit(ctx context.Context) error {
	q.mu.Lock()
	if q.state != customs.AuditCompleted {
		state := q.state
		q.mu.Unlock()
		return q.fail(customs.Wrap(customs.ErrConflict, component, "finalize audit",
			fmt.Sprintf("no completed audit to finalize (state %s)", state), nil))
	}
	id := q.takeCompletedLocked()
	q.mu.Unlock()
	return q.notifyCompletion(ctx, id)
}

// Dismiss closes the detail view. It is a no-op while Idle, refused while
// Auditing and finalizes a Completed audit.
func (q *Queue) Dismiss(ctx context.Context) error {
	q.mu.Lock()
	switch q.state {
	case customs.AuditIdle:
		q.mu.Unlock()
		return nil
	case customs.AuditAuditing:
		q.mu.Unlock()
		return q.fail(customs.Wrap(customs.ErrConflict, component, "dismiss", "audit in progress cannot be cancelled", nil))
	}
	id := q.takeCompletedLocked()
	q.mu.Unlock()
	return q.notifyCompletion(ctx, id)
}

// Remove drops an entry without clearing the declaration, cancelling any
// audit timers that belong to it.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(id)
	if idx < 0 {
		return q.fail(customs.Wrap(customs.ErrNotFound, component, "remove", fmt.Sprintf("declaration %s not queued", id), nil))
	}
	if q.auditing == id {
		q.resetWorkflowLocked()
	}
	q.removeAtLocked(idx)
	logging.WithContext(logging.WithDeclarationID(ctx, id), q.logger).Info("declaration removed from queue",
		logging.Int("pending", len(q.entries)),
	)
	return nil
}

// CurrentSelection returns the selected entry, if any.
func (q *Queue) CurrentSelection() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(q.selected)
	if idx < 0 {
		return Entry{}, false
	}
	return q.entries[idx].clone(), true
}

// PendingCount returns the number of queued entries.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns the queue in arrival order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entriesLocked()
}

// State returns the audit workflow state.
func (q *Queue) State() customs.AuditState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Snapshot returns state, selection and entries under one lock.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Snapshot{
		State:         q.state,
		Selected:      q.selected,
		TransactionID: q.txID,
		Entries:       q.entriesLocked(),
	}
}

// Close cancels the audit timers. Queued entries are kept for inspection.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cancel()
	q.cancelTimerLocked()
}

func (q *Queue) onAdjudicated() {
	if q.state != customs.AuditAuditing {
		return
	}
	now := q.sched.Now()
	q.state = customs.AuditCompleted
	q.txID = q.newID()
	q.metrics.RecordAuditCompleted()
	q.events.Publish(events.AuditCompleted(q.auditing, q.txID, now))
	q.logger.Info("audit completed",
		logging.String(logging.FieldDeclarationID, q.auditing),
		logging.String(logging.FieldTransactionID, q.txID),
	)
	if q.opts.AutoFinalize {
		q.scheduleLocked(q.opts.DisplayHold, q.onDisplayHoldElapsed)
	}
}

// onDisplayHoldElapsed runs with q.mu held and releases it to notify the
// completer.
func (q *Queue) onDisplayHoldElapsed() {
	if q.state != customs.AuditCompleted {
		return
	}
	id := q.takeCompletedLocked()
	q.mu.Unlock()
	defer q.mu.Lock()
	_ = q.notifyCompletion(q.ctx, id)
}

// takeCompletedLocked removes the audited entry and resets to Idle.
func (q *Queue) takeCompletedLocked() string {
	id := q.auditing
	q.resetWorkflowLocked()
	if idx := q.indexLocked(id); idx >= 0 {
		q.removeAtLocked(idx)
	}
	q.metrics.RecordFinalized()
	return id
}

func (q *Queue) notifyCompletion(ctx context.Context, id string) error {
	q.mu.Lock()
	completer := q.completer
	q.mu.Unlock()

	logger := logging.WithContext(logging.WithDeclarationID(ctx, id), q.logger)
	logger.Info("audit finalized", logging.Int("pending", q.PendingCount()))
	if completer == nil {
		return nil
	}
	err := completer.OnExternalCompletion(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, customs.ErrStaleCompletion):
		logging.WarnWithContext(logger, "completion already applied", "stale_completion",
			logging.Error(err),
			logging.String(logging.FieldImpact, "none; declaration already cleared"),
		)
		return nil
	default:
		return q.fail(customs.Wrap(nil, component, "finalize audit", "notify lifecycle", err))
	}
}

func (q *Queue) resetWorkflowLocked() {
	q.cancelTimerLocked()
	q.state = customs.AuditIdle
	q.auditing = ""
}

func (q *Queue) removeAtLocked(idx int) {
	id := q.entries[idx].Declaration.ID
	q.entries = slices.Delete(q.entries, idx, idx+1)
	if q.selected == id {
		q.selected = ""
		if len(q.entries) > 0 {
			q.selected = q.entries[0].Declaration.ID
		}
	}
	q.metrics.SetQueueDepth(len(q.entries))
}

func (q *Queue) scheduleLocked(d time.Duration, step func()) {
	q.cancelTimerLocked()
	gen := q.gen
	q.timer = q.sched.After(d, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.closed || q.gen != gen {
			return
		}
		q.timer = nil
		step()
	})
}

func (q *Queue) cancelTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.gen++
}

func (q *Queue) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(q.entries, func(e *Entry) bool { return e.Declaration.ID == id })
}

func (q *Queue) entriesLocked() []Entry {
	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.clone())
	}
	return out
}

func (q *Queue) fail(err error) error {
	q.metrics.RecordFailure(component, customs.Kind(err))
	return err
}
