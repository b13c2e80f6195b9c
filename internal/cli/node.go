package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// PutResult reports a put's outcome in JSON mode.
type PutResult struct {
	ID      string `json:"id"`
	Existed bool   `json:"existed"`
}

// NodeResult is the JSON payload for node get.
type NodeResult struct {
	ID      string    `json:"id"`
	Payload string    `json:"payload"`
	TS      time.Time `json:"ts"`
}

// NodeListResult is the JSON payload for node ls.
type NodeListResult struct {
	Nodes []string `json:"nodes"`
}

// NewNodeCommand creates the node command group.
func NewNodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Create, read, and delete nodes",
	}

	cmd.AddCommand(newNodePutCommand(rootOpts))
	cmd.AddCommand(newNodeGetCommand(rootOpts))
	cmd.AddCommand(newNodeRmCommand(rootOpts))
	cmd.AddCommand(newNodeLsCommand(rootOpts))

	return cmd
}

func newNodePutCommand(rootOpts *RootOptions) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or overwrite a node",
		Long: `Create or overwrite a node. Putting an existing id replaces its payload;
nothing is ever appended.

Example:
  trellis node put alice --payload '{"age":30}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			existed, err := store.PutNode(cmd.Context(), args[0], []byte(payload))
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				return f.Success(PutResult{ID: args[0], Existed: existed})
			}
			verb := "created"
			if existed {
				verb = "updated"
			}
			fmt.Fprintf(f.Writer, "✓ node %s %s\n", args[0], verb)
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "node payload")

	return cmd
}

func newNodeGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Print a node's payload",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			node, err := store.GetNode(cmd.Context(), args[0])
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				return f.Success(NodeResult{
					ID:      node.ID,
					Payload: string(node.Payload),
					TS:      node.Timestamp,
				})
			}
			fmt.Fprintln(f.Writer, string(node.Payload))
			return nil
		},
	}
}

func newNodeRmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete a node",
		Long:          "Delete a node. Relations referencing it are left in place.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			existed, err := store.DeleteNode(cmd.Context(), args[0])
			if err != nil {
				return outputStoreError(f, err)
			}
			if !existed {
				_ = f.Error("NOT_FOUND", fmt.Sprintf("no node with id %q", args[0]))
				return NewExitError(ExitFailure, fmt.Sprintf("no node with id %q", args[0]))
			}

			if f.Format == "json" {
				return f.Success(PutResult{ID: args[0], Existed: true})
			}
			fmt.Fprintf(f.Writer, "✓ node %s removed\n", args[0])
			return nil
		},
	}
}

func newNodeLsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ls",
		Short:         "List all node ids in key order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.ListNodes(cmd.Context())
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				return f.Success(NodeListResult{Nodes: ids})
			}
			for _, id := range ids {
				fmt.Fprintln(f.Writer, id)
			}
			return nil
		},
	}
}