package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// WalkResult is the JSON payload for walk.
type WalkResult struct {
	Start   string   `json:"start"`
	Order   string   `json:"order"`
	Visited []string `json:"visited"`
}

// NewWalkCommand creates the walk command.
func NewWalkCommand(rootOpts *RootOptions) *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "walk <start>",
		Short: "Traverse the graph from a start node",
		Long: `Traverse outgoing relations from the start node and print every node
reached, each exactly once, in visit order. Traversal follows relations
alone; the start needs no node record.

Example:
  trellis walk alice --order bfs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			if order != "dfs" && order != "bfs" {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid order %q: must be dfs or bfs", order))
			}

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			var visited []string
			if order == "bfs" {
				visited, err = store.BreadthFirst(cmd.Context(), args[0])
			} else {
				visited, err = store.DepthFirst(cmd.Context(), args[0])
			}
			if err != nil {
				return outputStoreError(f, err)
			}

			f.VerboseLog("visited %d node(s) from %s", len(visited), args[0])

			if f.Format == "json" {
				return f.Success(WalkResult{Start: args[0], Order: order, Visited: visited})
			}
			for _, id := range visited {
				fmt.Fprintln(f.Writer, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", "dfs", "traversal order (dfs|bfs)")

	return cmd
}