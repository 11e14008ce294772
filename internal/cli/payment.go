package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newPaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment tracking commands",
	}

	cmd.AddCommand(newPaymentDashboardCmd())
	cmd.AddCommand(newPaymentOutstandingCmd())
	cmd.AddCommand(newPaymentMarkPaidCmd())
	cmd.AddCommand(newPaymentRemindCmd())

	return cmd
}

func newPaymentDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard <session-id>",
		Aliases: []string{"list"},
		Short:   "Show every payment for a session with totals (pool owner only)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Dashboard
			if err := client.Get(cmd.Context(), sessionPath(args[0])+"/payments", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPaymentOutstandingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outstanding <session-id>",
		Short: "List unpaid payments for a session (pool owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Payment
			if err := client.Get(cmd.Context(), sessionPath(args[0])+"/payments/outstanding", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPaymentMarkPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-paid <payment-id>",
		Short: "Record that a payment was received (pool owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Payment
			if err := client.Post(cmd.Context(), "/api/v1/payments/"+url.PathEscape(args[0])+"/paid", nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPaymentRemindCmd() *cobra.Command {
	var window string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Remind guests whose payment deadline is near",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req map[string]string
			if window != "" {
				req = map[string]string{"window": window}
			}

			var result RemindResult
			if err := client.Post(cmd.Context(), "/api/v1/payments/reminders", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&window, "window", "", "How far ahead to look for deadlines, e.g. 24h (default: server setting)")

	return cmd
}
