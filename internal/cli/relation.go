package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/pkg/graph"
)

// RelationResult is the JSON payload for relation get.
type RelationResult struct {
	Name    string    `json:"name"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Payload string    `json:"payload"`
	TS      time.Time `json:"ts"`
}

// TripleResult is one relation identity in relation ls output.
type TripleResult struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// RelationListResult is the JSON payload for relation ls.
type RelationListResult struct {
	Relations []TripleResult `json:"relations"`
}

// NewRelationCommand creates the relation command group.
func NewRelationCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: "Create, read, and delete directed relations",
		Long: `Relations are directed and identified by (name, from, to). Components
may not be empty or contain the underscore separator.`,
	}

	cmd.AddCommand(newRelationPutCommand(rootOpts))
	cmd.AddCommand(newRelationGetCommand(rootOpts))
	cmd.AddCommand(newRelationRmCommand(rootOpts))
	cmd.AddCommand(newRelationLsCommand(rootOpts))

	return cmd
}

func newRelationPutCommand(rootOpts *RootOptions) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "put <name> <from> <to>",
		Short: "Create or overwrite a relation",
		Long: `Create or overwrite a relation. Putting an existing identity replaces
its payload. The endpoints need not exist as nodes.

Example:
  trellis relation put likes alice bob --payload "since 2020"`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			existed, err := store.PutRelation(cmd.Context(), args[0], args[1], args[2], []byte(payload))
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				return f.Success(PutResult{
					ID:      args[0] + " " + args[1] + " " + args[2],
					Existed: existed,
				})
			}
			verb := "created"
			if existed {
				verb = "updated"
			}
			fmt.Fprintf(f.Writer, "✓ relation %s %s %s %s\n", args[0], args[1], args[2], verb)
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "relation payload")

	return cmd
}

func newRelationGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <name> <from> <to>",
		Short:         "Print a relation's payload",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			rel, err := store.GetRelation(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				return f.Success(RelationResult{
					Name:    rel.Name,
					From:    rel.From,
					To:      rel.To,
					Payload: string(rel.Payload),
					TS:      rel.Timestamp,
				})
			}
			fmt.Fprintln(f.Writer, string(rel.Payload))
			return nil
		},
	}
}

func newRelationRmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <name> <from> <to>",
		Short:         "Delete a relation",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			existed, err := store.DeleteRelation(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return outputStoreError(f, err)
			}
			if !existed {
				msg := fmt.Sprintf("no relation %s %s %s", args[0], args[1], args[2])
				_ = f.Error("NOT_FOUND", msg)
				return NewExitError(ExitFailure, msg)
			}

			if f.Format == "json" {
				return f.Success(PutResult{
					ID:      args[0] + " " + args[1] + " " + args[2],
					Existed: true,
				})
			}
			fmt.Fprintf(f.Writer, "✓ relation %s %s %s removed\n", args[0], args[1], args[2])
			return nil
		},
	}
}

func newRelationLsCommand(rootOpts *RootOptions) *cobra.Command {
	var name, from, to string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List relations in key order, optionally filtered",
		Long: `List relations in key order. Any combination of --name, --from, and
--to narrows the listing; no filters lists everything.`,
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

			triples, err := store.ScanRelations(cmd.Context(), func(t graph.Triple) bool {
				if name != "" && t.Name != name {
					return false
				}
				if from != "" && t.From != from {
					return false
				}
				if to != "" && t.To != to {
					return false
				}
				return true
			})
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				out := RelationListResult{Relations: make([]TripleResult, 0, len(triples))}
				for _, t := range triples {
					out.Relations = append(out.Relations, TripleResult{Name: t.Name, From: t.From, To: t.To})
				}
				return f.Success(out)
			}
			for _, t := range triples {
				fmt.Fprintf(f.Writer, "%s %s %s\n", t.Name, t.From, t.To)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "only relations with this name")
	cmd.Flags().StringVar(&from, "from", "", "only relations from this node")
	cmd.Flags().StringVar(&to, "to", "", "only relations to this node")

	return cmd
}