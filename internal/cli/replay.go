package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/sodium"
	"github.com/AnatoleLucet/sodium/internal/scenario"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Metrics bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario and print the observed events",
		Long: `Build the graph described by a scenario file, run each step as one
transaction and print every event seen on the watched names.

Example:
  sodiumctl replay ./scenarios/running_total.yaml
  sodiumctl replay --format json --metrics ./scenarios/running_total.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print runtime counters after the replay")

	return cmd
}

type replayOutput struct {
	Scenario string            `json:"scenario"`
	Records  []scenario.Record `json:"records"`
	Metrics  map[string]uint64 `json:"metrics,omitempty"`
}

func runReplay(opts *ReplayOptions, path string, w io.Writer) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		if err := sodium.Configure(sodium.WithMetrics(reg)); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	g, err := scenario.Build(s)
	if err != nil {
		return err
	}
	defer g.Dispose()

	out := replayOutput{Scenario: s.Name, Records: g.Replay()}

	if reg != nil {
		out.Metrics, err = counters(reg)
		if err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if err := scenario.WriteText(w, out.Records); err != nil {
		return err
	}

	for _, name := range slices.Sorted(maps.Keys(out.Metrics)) {
		if _, err := fmt.Fprintf(w, "%s %d\n", name, out.Metrics[name]); err != nil {
			return err
		}
	}

	return nil
}

// counters gathers every counter of reg.
func counters(reg *prometheus.Registry) (map[string]uint64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	out := make(map[string]uint64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				out[mf.GetName()] += uint64(c.GetValue())
			}
		}
	}

	return out, nil
}
