package journal

import (
	"context"
	"log/slog"

	"customsflow/internal/events"
	"customsflow/internal/logging"
)

// Appender is the persistence surface the Recorder writes to.
type Appender interface {
	Append(ctx context.Context, ev events.Event) error
}

// Recorder drains a bus subscription into the journal.
type Recorder struct {
	store  Appender
	inbox  <-chan events.Event
	logger *slog.Logger
}

func NewRecorder(store Appender, inbox <-chan events.Event, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, inbox: inbox, logger: logging.NewComponentLogger(logger, "journal")}
}

// Run appends events until the inbox closes or ctx is cancelled. Append
// failures are logged and skipped so one bad write never stalls the session.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-r.inbox:
			if !ok {
				return nil
			}
			if err := r.store.Append(ctx, ev); err != nil {
				logging.WarnWithContext(r.logger, "journal append failed", "journal_append_failed",
					logging.String(logging.FieldDeclarationID, ev.DeclarationID),
					logging.Int64("seq", ev.Seq),
					logging.Error(err),
					logging.String(logging.FieldImpact, "event missing from history"),
				)
			}
		}
	}
}
