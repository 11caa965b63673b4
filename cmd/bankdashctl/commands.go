package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bankdash/internal/apiclient"
	"bankdash/internal/core"
)

func newOverviewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show balance, quick stats and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			c, err := opts.session(ctx)
			if err != nil {
				return err
			}
			o, err := c.Overview(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), o)
			}
			return printOverview(cmd.OutOrStdout(), o)
		},
	}
}

func newTransactionsCmd(opts *options) *cobra.Command {
	var merchant, date string
	var page int

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txs", "ls"},
		Short:   "List transactions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := core.ParseDateParam(date, time.UTC)
			if err != nil {
				return fmt.Errorf("--date %q: want YYYY-MM-DD", date)
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			c, err := opts.session(ctx)
			if err != nil {
				return err
			}
			p, err := c.Transactions(ctx, core.Filters{Merchant: merchant, Date: day, Page: page})
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			return printTransactions(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&merchant, "merchant", "", "case-insensitive merchant search")
	cmd.Flags().StringVar(&date, "date", "", "only transactions on this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newTransactionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transaction <id>",
		Short: "Show one transaction in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			c, err := opts.session(ctx)
			if err != nil {
				return err
			}
			tx, err := c.Transaction(ctx, args[0])
			if apiclient.IsNotFound(err) {
				return fmt.Errorf("no transaction with id %q", args[0])
			}
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), tx)
			}
			return printTransaction(cmd.OutOrStdout(), tx)
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Sign in and print the account holder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			c, err := opts.session(ctx)
			if err != nil {
				return err
			}
			u, err := c.Me(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), u)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", u.FullName(), u.Email)
			return err
		},
	}
}

func newForgotPasswordCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.ForgotPassword(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "If an account exists for %s, a reset link is on its way.\n", args[0])
			return err
		},
	}
}
