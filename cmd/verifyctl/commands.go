package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/env"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/ledger"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/middleware"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/paypal"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

func loadConfig() (*config.Config, error) {
	env.SetupEnvFile()
	return config.Load()
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the verified email ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every recorded email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(l ledger.Ledger) error {
				emails, err := l.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range emails {
					fmt.Fprintln(cmd.OutOrStdout(), e)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check [email]",
		Short: "Report whether an email was already used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(l ledger.Ledger) error {
				ok, err := l.Contains(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: verified=%t\n", ledger.NormalizeEmail(args[0]), ok)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [email]",
		Short: "Record an email manually, e.g. after a role was granted by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(l ledger.Ledger) error {
				if err := l.Add(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", ledger.NormalizeEmail(args[0]))
				return nil
			})
		},
	})

	return cmd
}

func withLedger(ctx context.Context, fn func(ledger.Ledger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return fmt.Errorf("ledger is disabled (CHECK_PREVIOUSLY_VERIFIED=false)")
	}

	l, closeFn, err := ledger.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(l)
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Check the PayPal client credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cred, err := paypal.NewClientFromConfig(cfg.PayPal).RequestToken(cmd.Context())
			if err != nil {
				return err
			}
			expires := "unknown"
			if !cred.ExpiresAt.IsZero() {
				expires = cred.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credentials ok, token type %s, expires %s\n", cred.TokenType, expires)
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		asJSON     bool
		maxWindows int
	)

	cmd := &cobra.Command{
		Use:   "search [email]",
		Short: "Search PayPal history for a purchase without granting anything",
		Long: `Runs the same backwards window search as /paypal but skips the role and
ledger checks and never grants a role.

Examples:
  verifyctl search buyer@example.com
  verifyctl search buyer@example.com --windows 3 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client := paypal.NewClientFromConfig(cfg.PayPal)
			tokens := paypal.NewTokenSource(client)
			reconciler := verification.NewReconciler(
				paypal.NewFetcher(client, tokens, cfg.PayPal.MaxPages),
				verification.ReconcilerConfig{ResourceID: cfg.ResourceID, MaxWindows: maxWindows},
			)
			svc := verification.NewService(ledger.Disabled{}, nil, reconciler, cfg.VerifyTimeout)

			out, err := svc.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeOutcomeJSON(cmd.OutOrStdout(), args[0], out)
			}
			writeOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().IntVarP(&maxWindows, "windows", "w", verification.MaxWindows, "number of 30 day windows to search")
	return cmd
}

func writeOutcome(w io.Writer, out verification.Outcome) {
	for i, res := range out.Windows {
		line := fmt.Sprintf("%2d  %s  %-9s  %d transactions", i+1, res.Window, res.Status, res.Transactions)
		if res.ResourceID != "" {
			line += "  resource=" + res.ResourceID
		}
		if res.Err != nil {
			line += "  error=" + res.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "result: %s\n", out.State)
}

func writeOutcomeJSON(w io.Writer, email string, out verification.Outcome) error {
	type window struct {
		Start        time.Time `json:"start"`
		End          time.Time `json:"end"`
		Status       string    `json:"status"`
		ResourceID   string    `json:"resource_id,omitempty"`
		Transactions int       `json:"transactions"`
		Error        string    `json:"error,omitempty"`
	}
	output := struct {
		Email     string   `json:"email"`
		State     string   `json:"state"`
		MatchedID string   `json:"matched_id,omitempty"`
		Windows   []window `json:"windows"`
	}{
		Email:     email,
		State:     string(out.State),
		MatchedID: out.MatchedID,
	}
	for _, res := range out.Windows {
		wnd := window{
			Start:        res.Window.Start,
			End:          res.Window.End,
			Status:       string(res.Status),
			ResourceID:   res.ResourceID,
			Transactions: res.Transactions,
		}
		if res.Err != nil {
			wnd.Error = res.Err.Error()
		}
		output.Windows = append(output.Windows, wnd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key [api-key]",
		Short: "Print the API_KEY_HASH value for an operator API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashAPIKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
