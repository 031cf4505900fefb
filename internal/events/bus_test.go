package events_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customsflow/internal/customs"
	"customsflow/internal/events"
)

var at = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func receive(t *testing.T, sub *events.Subscription, n int) []events.Event {
	t.Helper()
	out := make([]events.Event, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-sub.Events():
			require.True(t, ok, "subscription closed after %d of %d events", len(out), n)
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestPublishDeliversInOrderWithSequence(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()

	bus.Publish(events.LifecycleTransition("D1", customs.StatusDraft, customs.StatusProcessing, at))
	bus.Publish(events.LifecycleTransition("D1", customs.StatusProcessing, customs.StatusValidating, at))
	bus.Publish(events.AuditCompleted("D2", "tx-1", at))

	got := receive(t, sub, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.Equal(t, customs.StatusValidating, got[1].To)
	assert.Equal(t, events.SourceLifecycle, got[0].Source)
	assert.Equal(t, events.SourceAuditQueue, got[2].Source)
	assert.Equal(t, "tx-1", got[2].TransactionID)
}

func TestSubscribeFiltersKinds(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	audits := bus.Subscribe(events.KindAuditCompleted)

	bus.Publish(events.LifecycleTransition("D1", customs.StatusDraft, customs.StatusProcessing, at))
	bus.Publish(events.AnomalyObserved(customs.AnomalyEvent{ID: 1, Timestamp: at}))
	bus.Publish(events.AuditCompleted("D1", "tx-9", at))

	got := receive(t, audits, 1)
	assert.Equal(t, events.KindAuditCompleted, got[0].Kind)
	assert.Equal(t, int64(3), got[0].Seq, "sequence counts every published event")
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := range 1000 {
			bus.Publish(events.LifecycleTransition(fmt.Sprintf("D%d", i), customs.StatusDraft, customs.StatusProcessing, at))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on an idle subscriber")
	}

	got := receive(t, sub, 1000)
	for i, ev := range got {
		assert.Equal(t, fmt.Sprintf("D%d", i), ev.DeclarationID)
	}
}

func TestConcurrentPublishersKeepPerSourceOrder(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()

	var wg sync.WaitGroup
	for _, id := range []string{"A", "B", "C"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				bus.Publish(events.AuditCompleted(id, fmt.Sprint(i), at))
			}
		}()
	}
	wg.Wait()

	last := map[string]int{"A": -1, "B": -1, "C": -1}
	var prevSeq int64
	for _, ev := range receive(t, sub, 300) {
		var n int
		_, err := fmt.Sscan(ev.TransactionID, &n)
		require.NoError(t, err)
		assert.Equal(t, last[ev.DeclarationID]+1, n)
		last[ev.DeclarationID] = n
		assert.Greater(t, ev.Seq, prevSeq)
		prevSeq = ev.Seq
	}
}

func TestCloseDrainsBufferedEvents(t *testing.T) {
	bus := events.NewBus(nil)
	sub := bus.Subscribe()
	for i := range 5 {
		bus.Publish(events.AuditCompleted("D1", fmt.Sprint(i), at))
	}
	bus.Close()
	bus.Publish(events.AuditCompleted("D1", "late", at))

	got := receive(t, sub, 5)
	assert.Equal(t, "4", got[4].TransactionID)
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "channel should close after the drain")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()
	sub.Close()

	bus.Publish(events.AuditCompleted("D1", "tx", at))
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubscribeAfterCloseIsClosed(t *testing.T) {
	bus := events.NewBus(nil)
	bus.Close()
	sub := bus.Subscribe()
	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestNilBusPublishIsSafe(t *testing.T) {
	var bus *events.Bus
	assert.NotPanics(t, func() {
		bus.Publish(events.AuditCompleted("D1", "tx", at))
	})
}
