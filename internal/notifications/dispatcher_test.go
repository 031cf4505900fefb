package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/notifications"
)

type sent struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingService struct {
	sent []sent
	err  error
}

func (r *recordingService) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.sent = append(r.sent, sent{event: event, payload: payload})
	return r.err
}

func runDispatcher(t *testing.T, svc notifications.Service, toggles notifications.Toggles, evs ...events.Event) {
	t.Helper()
	inbox := make(chan events.Event, len(evs))
	for _, ev := range evs {
		inbox <- ev
	}
	close(inbox)
	if err := notifications.NewDispatcher(svc, toggles, inbox, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func milestones() []events.Event {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []events.Event{
		events.LifecycleTransition("D1", customs.StatusDraft, customs.StatusProcessing, at),
		events.LifecycleTransition("D1", customs.StatusRiskCheck, customs.StatusAuditRequired, at),
		events.AuditCompleted("D1", "tx-1", at),
		events.LifecycleTransition("D1", customs.StatusAuditRequired, customs.StatusCleared, at),
		events.AnomalyObserved(customs.AnomalyEvent{ID: 3, Timestamp: at}),
	}
}

func TestDispatcherHonoursToggles(t *testing.T) {
	svc := &recordingService{}
	runDispatcher(t, svc, notifications.Toggles{AuditRequired: true, AuditCompleted: true}, milestones()...)

	if len(svc.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", svc.sent)
	}
	if svc.sent[0].event != notifications.EventAuditRequired || svc.sent[0].payload["declarationID"] != "D1" {
		t.Fatalf("unexpected first notification %+v", svc.sent[0])
	}
	if svc.sent[1].event != notifications.EventAuditCompleted || svc.sent[1].payload["transactionID"] != "tx-1" {
		t.Fatalf("unexpected second notification %+v", svc.sent[1])
	}
}

func TestDispatcherSendsClearedWhenEnabled(t *testing.T) {
	svc := &recordingService{}
	runDispatcher(t, svc, notifications.Toggles{Cleared: true}, milestones()...)

	if len(svc.sent) != 1 || svc.sent[0].event != notifications.EventCleared {
		t.Fatalf("expected only cleared notification, got %+v", svc.sent)
	}
}

func TestDispatcherContinuesAfterFailure(t *testing.T) {
	svc := &recordingService{err: errors.New("offline")}
	runDispatcher(t, svc, notifications.Toggles{AuditRequired: true, AuditCompleted: true, Cleared: true}, milestones()...)

	if len(svc.sent) != 3 {
		t.Fatalf("expected every milestone attempted, got %d", len(svc.sent))
	}
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := notifications.NewDispatcher(nil, notifications.Toggles{}, make(chan events.Event), nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
