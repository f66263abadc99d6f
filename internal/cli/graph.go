package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/sodium"
	"github.com/AnatoleLucet/sodium/internal/scenario"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <scenario.yaml>",
		Short: "Print the node graph of a scenario",
		Long: `Build the graph described by a scenario file and print every node
reachable from its inputs with its rank and outgoing edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(rootOpts, args[0], cmd.OutOrStdout())
		},
	}

	return cmd
}

func runGraph(opts *RootOptions, path string, w io.Writer) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	g, err := scenario.Build(s)
	if err != nil {
		return err
	}
	defer g.Dispose()

	infos := g.Inspect()

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	return sodium.RenderGraph(w, infos)
}
