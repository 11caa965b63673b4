// Command bankdashctl reads a bankdash account from the terminal through the
// JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bankdash/internal/apiclient"
)

type options struct {
	baseURL  string
	email    string
	password string
	timeout  time.Duration
	asJSON   bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "bankdashctl",
		Short: "Inspect a bankdash account from the command line",
		Long: `bankdashctl talks to a running bankdash server.

Commands that read account data sign in first with --email and --password
(or BANKDASH_EMAIL / BANKDASH_PASSWORD).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("BANKDASH_URL", "http://localhost:8080"), "bankdash base URL")
	root.PersistentFlags().StringVar(&opts.email, "email", envOr("BANKDASH_EMAIL", "user@test.com"), "account email")
	root.PersistentFlags().StringVar(&opts.password, "password", os.Getenv("BANKDASH_PASSWORD"), "account password")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall request timeout")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON")

	root.AddCommand(
		newOverviewCmd(opts),
		newTransactionsCmd(opts),
		newTransactionCmd(opts),
		newWhoamiCmd(opts),
		newForgotPasswordCmd(opts),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// session builds a client and signs it in.
func (o *options) session(ctx context.Context) (*apiclient.Client, error) {
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	if o.password == "" {
		return nil, errors.New("a password is required (--password or BANKDASH_PASSWORD)")
	}
	if _, err := c.Login(ctx, o.email, o.password); err != nil {
		if apiclient.IsUnauthorized(err) {
			return nil, errors.New("invalid email or password")
		}
		return nil, err
	}
	return c, nil
}

func (o *options) client() (*apiclient.Client, error) {
	return apiclient.New(apiclient.Options{BaseURL: o.baseURL})
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// describe renders API failures the way the dashboard would.
func describe(err error) string {
	var se *apiclient.StatusError
	var ne *apiclient.NetworkError
	if errors.As(err, &se) || errors.As(err, &ne) {
		return apiclient.ErrorMessage(err)
	}
	return err.Error()
}
