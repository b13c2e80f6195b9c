package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/token"
)

// TokenResult is the JSON payload for token issue.
type TokenResult struct {
	Token      string `json:"token"`
	Permission string `json:"permission"`
}

// RedeemResult is the JSON payload for token redeem.
type RedeemResult struct {
	Granted bool `json:"granted"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and redeem single-use capability tokens",
		Long: `Tokens carry one permission string and are consumed on redemption.
Redeeming checks and deletes in a single transaction, so a token grants
access at most once no matter how many holders race.`,
	}

	cmd.AddCommand(newTokenIssueCommand(rootOpts))
	cmd.AddCommand(newTokenRedeemCommand(rootOpts))

	return cmd
}

func newTokenIssueCommand(rootOpts *RootOptions) *cobra.Command {
	var permission string

	cmd := &cobra.Command{
		Use:           "issue",
		Short:         "Issue a single-use token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, eng, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			tok, err := token.NewService(eng).Issue(cmd.Context(), permission)
			if err != nil {
				return outputStoreError(f, err)
			}

			if f.Format == "json" {
				return f.Success(TokenResult{Token: tok, Permission: permission})
			}
			// Bare token on stdout so it pipes cleanly.
			fmt.Fprintln(f.Writer, tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&permission, "permission", "", "permission the token grants (required)")
	_ = cmd.MarkFlagRequired("permission")

	return cmd
}

func newTokenRedeemCommand(rootOpts *RootOptions) *cobra.Command {
	var permission string

	cmd := &cobra.Command{
		Use:           "redeem <token>",
		Short:         "Redeem a token for a permission, consuming it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, eng, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			granted, err := token.NewService(eng).Redeem(cmd.Context(), args[0], permission)
			if err != nil {
				return outputStoreError(f, err)
			}
			if !granted {
				_ = f.Error("REJECTED", "token unknown, spent, or wrong permission")
				return NewExitError(ExitFailure, "token rejected")
			}

			if f.Format == "json" {
				return f.Success(RedeemResult{Granted: true})
			}
			fmt.Fprintln(f.Writer, "✓ token redeemed")
			return nil
		},
	}

	cmd.Flags().StringVar(&permission, "permission", "", "permission to redeem for (required)")
	_ = cmd.MarkFlagRequired("permission")

	return cmd
}