package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"customsflow/internal/customs"
	"customsflow/internal/events"
	"customsflow/internal/session"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Observe the anomaly feed for a while",
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sess, err := session.New(cfg, session.Options{Logger: logger})
			if err != nil {
				return err
			}
			if err := sess.Start(cmd.Context()); err != nil {
				return err
			}
			defer sess.Stop()

			sub := sess.Bus().Subscribe(events.KindAnomalyObserved)
			defer sub.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			anomalies := sess.Feed()
			anomalies.Activate()

			deadline := time.NewTimer(duration)
			defer deadline.Stop()
		watch:
			for {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-deadline.C:
					break watch
				case ev, ok := <-sub.Events():
					if !ok {
						break watch
					}
					fmt.Fprintln(out, anomalyLine(ev.Anomaly, colorize))
				}
			}
			anomalies.Deactivate()
			renderFeedSummary(out, anomalies.Recent())
			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "How long to observe the feed")
	return cmd
}

func anomalyLine(a customs.AnomalyEvent, colorize bool) string {
	line := fmt.Sprintf("%s #%d %-18s %-14s %-9s %s",
		a.Timestamp.Format("15:04:05"), a.ID, a.EventLabel, a.OriginLabel, a.Status, a.RiskLevel)
	return paint(line, statusKindColor(riskKind(a.RiskLevel)), colorize)
}

func renderFeedSummary(out io.Writer, recent []customs.AnomalyEvent) {
	if len(recent) == 0 {
		fmt.Fprintln(out, "No anomalies observed")
		return
	}
	headers := []string{"#", "Time", "Event", "Origin", "Status", "Risk"}
	rows := make([][]string, 0, len(recent))
	for _, a := range recent {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.Timestamp.Format("15:04:05"),
			a.EventLabel,
			a.OriginLabel,
			string(a.Status),
			string(a.RiskLevel),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable("Recent anomalies", headers, rows, []columnAlignment{alignRight}))
}
