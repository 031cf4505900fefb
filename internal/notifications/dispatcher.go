package notifications

import (
	"context"
	"log/slog"

	"customsflow/internal/config"
	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/logging"
)

// Toggles select which milestones are pushed.
type Toggles struct {
	AuditRequired  bool
	AuditCompleted bool
	Cleared        bool
}

// TogglesFromConfig reads the notification switches from cfg.
func TogglesFromConfig(cfg *config.Config) Toggles {
	if cfg == nil {
		return Toggles{}
	}
	return Toggles{
		AuditRequired:  cfg.Notifications.AuditRequired,
		AuditCompleted: cfg.Notifications.AuditCompleted,
		Cleared:        cfg.Notifications.Cleared,
	}
}

// Dispatcher forwards bus events to a notification Service.
type Dispatcher struct {
	service Service
	toggles Toggles
	inbox   <-chan events.Event
	logger  *slog.Logger
}

// NewDispatcher builds a dispatcher reading from inbox. A nil service is
// treated as a noop.
func NewDispatcher(service Service, toggles Toggles, inbox <-chan events.Event, logger *slog.Logger) *Dispatcher {
	if service == nil {
		service = noopService{}
	}
	return &Dispatcher{
		service: service,
		toggles: toggles,
		inbox:   inbox,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

// Run delivers notifications until the inbox closes or ctx is cancelled.
// Delivery failures are logged and never stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-d.inbox:
			if !ok {
				return nil
			}
			event, payload, send := d.translate(ev)
			if !send {
				continue
			}
			if err := d.service.Publish(ctx, event, payload); err != nil {
				logging.WarnWithContext(d.logger, "notification delivery failed", "notify_failed",
					logging.String(logging.FieldDeclarationID, ev.DeclarationID),
					logging.String(logging.FieldEventType, string(event)),
					logging.Error(err),
					logging.String(logging.FieldImpact, "operator not alerted"),
				)
				continue
			}
			d.logger.Debug("notification sent",
				logging.String(logging.FieldDeclarationID, ev.DeclarationID),
				logging.String(logging.FieldEventType, string(event)),
			)
		}
	}
}

func (d *Dispatcher) translate(ev events.Event) (Event, Payload, bool) {
	switch ev.Kind {
	case events.KindLifecycleTransition:
		switch {
		case ev.To == customs.StatusAuditRequired && d.toggles.AuditRequired:
			return EventAuditRequired, Payload{"declarationID": ev.DeclarationID}, true
		case ev.To == customs.StatusCleared && d.toggles.Cleared:
			return EventCleared, Payload{"declarationID": ev.DeclarationID}, true
		}
	case events.KindAuditCompleted:
		if d.toggles.AuditCompleted {
			return EventAuditCompleted, Payload{
				"declarationID": ev.DeclarationID,
				"transactionID": ev.TransactionID,
			}, true
		}
	}
	return "", nil, false
}
