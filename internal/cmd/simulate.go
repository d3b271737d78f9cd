package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willfong/insurance-assistant/internal/simulator"
	"github.com/willfong/insurance-assistant/internal/ui"
)

var (
	// Simulation parameters (frequently changed)
	simSessions int
	simSeed     int64
	simDuration time.Duration
	simLimit    int
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive scripted conversations through the assistant",
	Long: `Simulate concurrent callers talking to the assistant in-process.

Each worker repeatedly picks a customer and a script:
- lookup     log in, view the policy and a claim, say goodbye
- wrong_pin  one mistyped PIN before succeeding
- lockout    every PIN attempt wrong until the session locks
- feedback   log in, rate the service and leave a comment
- intruder   ask for another customer's policy

Every reply's audit action is checked against the script; mismatches are
reported at the end. Session store, audit backend and reference source
come from configuration, so a run exercises the same components as serve.

The simulation runs until interrupted (Ctrl+C), the duration elapses or
the conversation limit is reached.

Example:
  assistant simulate
  assistant simulate --sessions 200 --duration 5m
  assistant simulate --limit 1000 --seed 42`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simSessions, "sessions", 0, "number of concurrent callers (default simulate.num_sessions)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed for reproducibility (0 = random)")
	simulateCmd.Flags().DurationVar(&simDuration, "duration", 0, "simulation duration (e.g., 1h, 30s). 0 = run until stopped")
	simulateCmd.Flags().IntVar(&simLimit, "limit", 0, "stop after this many conversations (0 = unlimited)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	u := newUI()

	simCfg := cfg.Simulate
	if cmd.Flags().Changed("sessions") {
		simCfg.NumSessions = simSessions
	}
	if cmd.Flags().Changed("seed") {
		simCfg.Seed = simSeed
	}
	if cmd.Flags().Changed("duration") {
		simCfg.Duration = simDuration
	}
	if simCfg.NumSessions <= 0 {
		return fmt.Errorf("--sessions must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit lines reach the log only with --verbose
	auditLog := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		auditLog = slog.Default()
	}

	spin := u.NewSpinner("Wiring components")
	a, err := newApp(ctx, cfg, withAuditLogger(auditLog))
	if err != nil {
		spin.Error(err.Error())
		return err
	}
	defer a.Close()
	spin.Success(fmt.Sprintf("%s sessions, %s audit", cfg.Session.Store, cfg.Audit.Backend))

	roster, err := simulator.NewRoster(a.ref)
	if err != nil {
		return err
	}

	runner := simulator.NewRunner(a.orch, roster, simCfg,
		simulator.WithConversationLimit(simLimit),
		simulator.WithReporter(func(s simulator.Snapshot) {
			fmt.Println(u.Muted(fmt.Sprintf("%6s  %d conversations  %d utterances  %.0f turns/s  p99 %s  %d mismatches",
				s.Elapsed.Round(time.Second), s.Conversations, s.Utterances, s.RecentTPS,
				s.P99Latency.Round(time.Microsecond), s.Mismatches)))
		}),
	)

	fmt.Println()
	fmt.Println(u.Header("Insurance Assistant Simulator"))
	fmt.Println()
	fmt.Println(u.KeyValue("Callers", fmt.Sprintf("%d concurrent (%d customers)", simCfg.NumSessions, roster.Len())))
	fmt.Println(u.KeyValue("Seed", fmt.Sprintf("%d", runner.Seed())))
	fmt.Println(u.KeyValue("Script Mix", fmt.Sprintf("wrong PIN %.0f%% / lockout %.0f%% / feedback %.0f%%",
		simCfg.WrongPINRate*100, simCfg.LockoutRate*100, simCfg.FeedbackRate*100)))
	if simCfg.Duration > 0 {
		fmt.Println(u.KeyValue("Duration", simCfg.Duration.String()))
	} else if simLimit == 0 {
		fmt.Println(u.KeyValue("Duration", "until stopped (Ctrl+C)"))
	}
	fmt.Println()

	snap := runner.Run(ctx)
	if ctx.Err() != nil {
		fmt.Println()
		fmt.Println(u.Warning("Received shutdown signal"))
	}

	fmt.Println(u.SummaryBox("Simulation Summary", summaryItems(snap)))
	printMismatches(u, snap)

	if snap.Mismatches > 0 {
		return fmt.Errorf("%d replies did not match their script", snap.Mismatches)
	}
	return nil
}

// summaryItems flattens a snapshot for the summary box
func summaryItems(s simulator.Snapshot) []ui.KV {
	items := []ui.KV{
		{Key: "Elapsed", Value: s.Elapsed.Round(time.Millisecond).String()},
		{Key: "Conversations", Value: fmt.Sprintf("%d", s.Conversations)},
		{Key: "Utterances", Value: fmt.Sprintf("%d (%.1f/s)", s.Utterances, s.TurnsPerSec)},
		{Key: "Feedback", Value: fmt.Sprintf("%d", s.Feedback)},
		{Key: "Latency", Value: fmt.Sprintf("avg %s / p50 %s / p99 %s",
			s.AvgLatency.Round(time.Microsecond), s.P50Latency.Round(time.Microsecond), s.P99Latency.Round(time.Microsecond))},
	}
	for _, kind := range simulator.AllScripts {
		items = append(items, ui.KV{Key: "  " + string(kind), Value: fmt.Sprintf("%d", s.ByScript[kind])})
	}

	outcomes := make([]string, 0, len(s.ByOutcome))
	for o := range s.ByOutcome {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		items = append(items, ui.KV{Key: "Outcome " + o, Value: fmt.Sprintf("%d", s.ByOutcome[o])})
	}

	return append(items, ui.KV{Key: "Mismatches", Value: fmt.Sprintf("%d", s.Mismatches)})
}

func printMismatches(u *ui.UI, s simulator.Snapshot) {
	if len(s.Samples) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(u.Warning(fmt.Sprintf("%d mismatches, first %d:", s.Mismatches, len(s.Samples))))
	for _, m := range s.Samples {
		fmt.Println(u.TableRow(string(m.Script), fmt.Sprintf("%q expected %s, got %s", m.Utterance, m.Expected, m.Actual), ui.StatusError))
	}
}
