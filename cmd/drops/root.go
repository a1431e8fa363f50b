package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/drops/subscription"
)

// app carries the shared state of one CLI invocation.
type app struct {
	cfg    config
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	file string
	now  string
}

func newRootCmd(cfg config, in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		cfg: cfg,
		in:  in,
		out: out,
		logger: slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{
			Level: cfg.level(),
		})),
	}

	root := &cobra.Command{
		Use:           "drops",
		Short:         "Inspect and step installment subscription documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "-", "subscription JSON document, - for stdin")
	root.PersistentFlags().StringVar(&a.now, "now", "", "evaluation time (RFC 3339), defaults to the current time")

	root.AddCommand(
		newScheduleCmd(a),
		newReconcileCmd(a),
		newTransitionCmd(a),
		newPayCmd(a),
	)
	return root
}

func (a *app) clock() (time.Time, error) {
	if a.now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, a.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return t.UTC(), nil
}

// load reads the subscription document and checks its invariants.
func (a *app) load() (*subscription.Subscription, error) {
	r := a.in
	if a.file != "-" {
		f, err := os.Open(a.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var sub subscription.Subscription
	if err := json.NewDecoder(r).Decode(&sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	if err := subscription.Validate(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (a *app) write(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
