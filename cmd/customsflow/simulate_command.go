package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"customsflow/internal/auditqueue"
	"customsflow/internal/clock"
	"customsflow/internal/config"
	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/scoring"
	"customsflow/internal/session"
)

const operatorPollInterval = 50 * time.Millisecond

type simulateOptions struct {
	count   int
	speed   float64
	timeout time.Duration
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	opts := simulateOptions{count: 6, speed: 1, timeout: 5 * time.Minute}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Push sample declarations through the desk with an automatic operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.count < 1 {
				return errors.New("--count must be at least 1")
			}
			if opts.speed <= 0 {
				return errors.New("--speed must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runSimulation(cmd, ctx, cfg, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", opts.count, "Number of declarations to submit")
	cmd.Flags().Float64Var(&opts.speed, "speed", opts.speed, "Delay multiplier (0.1 runs ten times faster)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "Give up if the desk has not cleared everything by then")
	return cmd
}

func runSimulation(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, opts simulateOptions) error {
	logger, err := cmdCtx.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	sess, err := session.New(cfg, session.Options{
		Scheduler: clock.Scaled{Base: clock.NewReal(), Factor: opts.speed},
		Scorer:    scoring.DefaultRules(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	if err := sess.Start(runCtx); err != nil {
		return err
	}
	defer sess.Stop()

	sub := sess.Bus().Subscribe(events.KindLifecycleTransition, events.KindAuditCompleted)
	defer sub.Close()

	engine := sess.Engine()
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	ids := make(map[string]struct{}, opts.count)
	for i := range opts.count {
		decl, err := engine.Create(runCtx, sampleInput(i))
		if err != nil {
			return fmt.Errorf("submit sample %d: %w", i+1, err)
		}
		ids[decl.ID] = struct{}{}
		fmt.Fprintf(out, "submitted %s %s\n", shortID(decl.ID), companyTitle(decl.CompanyName))
	}

	op := &autoOperator{queue: sess.Queue(), finalize: !cfg.Audit.AutoFinalize}
	ticker := time.NewTicker(operatorPollInterval)
	defer ticker.Stop()

	for !allCleared(engine.List(), ids) {
		select {
		case <-runCtx.Done():
			return fmt.Errorf("simulation incomplete: %w", runCtx.Err())
		case ev, ok := <-sub.Events():
			if !ok {
				return errors.New("event bus closed before the desk cleared")
			}
			if _, tracked := ids[ev.DeclarationID]; tracked {
				fmt.Fprintln(out, progressLine(ev, colorize))
			}
			op.observe(runCtx, ev)
		case <-ticker.C:
		}
		op.step(runCtx)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderDeclarations(engine.List(), ids))
	return nil
}

// autoOperator plays the reviewer: it starts the next audit whenever the
// queue is idle and, when auto-finalize is off, finalizes completed audits.
type autoOperator struct {
	queue    *auditqueue.Queue
	finalize bool
}

func (o *autoOperator) observe(ctx context.Context, ev events.Event) {
	if o.finalize && ev.Kind == events.KindAuditCompleted {
		_ = o.queue.FinalizeAudit(ctx)
	}
}

func (o *autoOperator) step(ctx context.Context) {
	if o.queue.State() != customs.AuditIdle || o.queue.PendingCount() == 0 {
		return
	}
	// Losing a race with the display-hold timer only delays the next tick.
	_ = o.queue.StartAudit(ctx)
}

func allCleared(decls []customs.Declaration, ids map[string]struct{}) bool {
	seen := 0
	for _, d := range decls {
		if _, ok := ids[d.ID]; !ok {
			continue
		}
		if d.Status != customs.StatusCleared {
			return false
		}
		seen++
	}
	return seen == len(ids)
}

func progressLine(ev events.Event, colorize bool) string {
	stamp := ev.At.Format("15:04:05.000")
	switch ev.Kind {
	case events.KindAuditCompleted:
		return paint(fmt.Sprintf("%s %s audit completed (transaction %s)", stamp, shortID(ev.DeclarationID), shortID(ev.TransactionID)),
			ansiGreen, colorize)
	default:
		line := fmt.Sprintf("%s %s %s -> %s", stamp, shortID(ev.DeclarationID), ev.From.Label(), ev.To.Label())
		return paint(line, statusKindColor(declarationKind(ev.To)), colorize)
	}
}

func renderDeclarations(decls []customs.Declaration, ids map[string]struct{}) string {
	headers := []string{"ID", "Company", "Goods", "HS Code", "Amount", "Risk", "Status", "Anomalies"}
	var rows [][]string
	for _, d := range decls {
		if _, ok := ids[d.ID]; !ok {
			continue
		}
		rows = append(rows, []string{
			shortID(d.ID),
			companyTitle(d.CompanyName),
			d.GoodsType,
			d.HSCode,
			formatAmount(d.Amount, d.Currency),
			strconv.Itoa(d.RiskScore),
			d.Status.Label(),
			strings.Join(d.Anomalies, ", "),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
	return renderTable("Declarations", headers, rows, aligns)
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%s %s", strconv.FormatFloat(amount, 'f', 2, 64), currency)
}
