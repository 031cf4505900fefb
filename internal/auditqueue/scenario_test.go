package auditqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customsflow/internal/auditqueue"
	"customsflow/internal/clock"
	"customsflow/internal/customs"
	"customsflow/internal/lifecycle"
	"customsflow/internal/scoring"
)

type desk struct {
	clock  *clock.Virtual
	engine *lifecycle.Engine
	queue  *auditqueue.Queue
}

// newDesk wires a real engine and queue on one virtual clock. Declarations
// are scored by company name.
func newDesk(t *testing.T, scores map[string]customs.Assessment, autoFinalize bool) *desk {
	t.Helper()
	vc := clock.NewVirtual(epoch)
	byCompany := scoring.ByCompany{Scorers: map[string]scoring.Scorer{}}
	for company, verdict := range scores {
		byCompany.Scorers[company] = scoring.Static{Assessment: verdict}
	}
	engine, err := lifecycle.New(lifecycle.DefaultOptions(), lifecycle.Dependencies{
		Scheduler: vc,
		Scorer:    byCompany,
	})
	require.NoError(t, err)
	opts := auditqueue.DefaultOptions()
	opts.AutoFinalize = autoFinalize
	queue, err := auditqueue.New(opts, auditqueue.Dependencies{
		Scheduler: vc,
		Completer: engine,
	})
	require.NoError(t, err)
	engine.ConfigureAuditQueue(queue)
	t.Cleanup(func() {
		queue.Close()
		engine.Close()
	})
	return &desk{clock: vc, engine: engine, queue: queue}
}

func (d *desk) create(t *testing.T, company string) string {
	t.Helper()
	decl, err := d.engine.Create(context.Background(), customs.Input{
		CompanyName: company,
		GoodsType:   "Machine parts",
		HSCode:      "8483.40",
		Amount:      91000,
		Currency:    "EUR",
		Documents:   []string{"invoice.pdf"},
	})
	require.NoError(t, err)
	return decl.ID
}

func (d *desk) status(t *testing.T, id string) customs.Status {
	t.Helper()
	decl, err := d.engine.Get(id)
	require.NoError(t, err)
	return decl.Status
}

func (d *desk) queued(id string) bool {
	for _, e := range d.queue.Entries() {
		if e.Declaration.ID == id {
			return true
		}
	}
	return false
}

func TestLowRiskNeverQueued(t *testing.T) {
	d := newDesk(t, map[string]customs.Assessment{"Low Co": {RiskScore: 20}}, false)
	id := d.create(t, "Low Co")

	for range 20 {
		d.clock.Advance(500 * time.Millisecond)
		assert.False(t, d.queued(id))
	}
	assert.Equal(t, customs.StatusCleared, d.status(t, id))
}

func TestHighRiskAuditedAndCleared(t *testing.T) {
	d := newDesk(t, map[string]customs.Assessment{
		"High Co": {RiskScore: 85, Anomalies: []string{"Price Mismatch"}},
	}, false)
	ctx := context.Background()
	id := d.create(t, "High Co")

	d.clock.Advance(4500 * time.Millisecond)
	require.True(t, d.queued(id))
	assert.Equal(t, customs.StatusAuditRequired, d.status(t, id))
	entry, ok := d.queue.CurrentSelection()
	require.True(t, ok)
	assert.Equal(t, id, entry.Declaration.ID)
	assert.True(t, entry.HighRisk)
	assert.Equal(t, "Price Mismatch", entry.Declaration.PrimaryAnomaly())

	require.NoError(t, d.queue.StartAudit(ctx))
	d.clock.Advance(2 * time.Second)
	require.NoError(t, d.queue.FinalizeAudit(ctx))

	assert.Equal(t, customs.StatusCleared, d.status(t, id))
	assert.False(t, d.queued(id))
	assert.Zero(t, d.queue.PendingCount())
}

func TestSecondStartAuditConflicts(t *testing.T) {
	d := newDesk(t, map[string]customs.Assessment{"High Co": {RiskScore: 85}}, false)
	ctx := context.Background()
	d.create(t, "High Co")
	d.clock.Advance(5 * time.Second)

	require.NoError(t, d.queue.StartAudit(ctx))
	assert.ErrorIs(t, d.queue.StartAudit(ctx), customs.ErrConflict)
}

func TestFinalizeSelectsNextEntry(t *testing.T) {
	d := newDesk(t, map[string]customs.Assessment{
		"First Co":  {RiskScore: 85},
		"Second Co": {RiskScore: 65},
	}, false)
	ctx := context.Background()
	d2 := d.create(t, "First Co")
	d.clock.Advance(time.Second)
	d3 := d.create(t, "Second Co")
	d.clock.Advance(5 * time.Second)

	require.Equal(t, 2, d.queue.PendingCount())
	entry, ok := d.queue.CurrentSelection()
	require.True(t, ok)
	require.Equal(t, d2, entry.Declaration.ID)

	require.NoError(t, d.queue.StartAudit(ctx))
	d.clock.Advance(2 * time.Second)
	require.NoError(t, d.queue.FinalizeAudit(ctx))

	entry, ok = d.queue.CurrentSelection()
	require.True(t, ok)
	assert.Equal(t, d3, entry.Declaration.ID)
	assert.Equal(t, customs.StatusCleared, d.status(t, d2))
	assert.Equal(t, customs.StatusAuditRequired, d.status(t, d3))
}

func TestAutoFinalizeDrainsQueue(t *testing.T) {
	scores := map[string]customs.Assessment{}
	companies := []string{"A", "B", "C", "D"}
	for i, c := range companies {
		scores[c] = customs.Assessment{RiskScore: 50 + i*10}
	}
	d := newDesk(t, scores, true)
	ctx := context.Background()
	var ids []string
	for _, c := range companies {
		ids = append(ids, d.create(t, c))
	}
	d.clock.Advance(5 * time.Second)
	require.Equal(t, 4, d.queue.PendingCount())

	audits := 0
	for d.queue.PendingCount() > 0 {
		require.NoError(t, d.queue.StartAudit(ctx))
		if d.queue.State() == customs.AuditAuditing {
			audits++
		}
		d.clock.Advance(3 * time.Second)
		require.Equal(t, customs.AuditIdle, d.queue.State())
	}
	assert.Equal(t, 4, audits)
	for _, id := range ids {
		assert.Equal(t, customs.StatusCleared, d.status(t, id))
	}
}

func TestExternalCompletionThenFinalizeIsStale(t *testing.T) {
	d := newDesk(t, map[string]customs.Assessment{"High Co": {RiskScore: 90}}, false)
	ctx := context.Background()
	id := d.create(t, "High Co")
	d.clock.Advance(5 * time.Second)

	require.NoError(t, d.engine.OnExternalCompletion(ctx, id))
	require.NoError(t, d.queue.StartAudit(ctx))
	d.clock.Advance(2 * time.Second)

	assert.NoError(t, d.queue.FinalizeAudit(ctx), "stale completion is logged, not returned")
	assert.Equal(t, customs.StatusCleared, d.status(t, id))
}
