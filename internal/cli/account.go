package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account and profile commands",
	}

	cmd.AddCommand(newAccountRegisterCmd())
	cmd.AddCommand(newAccountLoginCmd())
	cmd.AddCommand(newAccountMeCmd())
	cmd.AddCommand(newAccountUpdateCmd())

	return cmd
}

func saveAndPrintAuth(cmd *cobra.Command, result AuthResult) error {
	if err := cfg.SaveToken(result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	output(cmd).Print(result)
	return nil
}

func newAccountRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"name":     name,
				"email":    email,
				"password": password,
			}
			var result AuthResult

			if err := client.Post(cmd.Context(), "/api/v1/accounts/register", req, &result); err != nil {
				return err
			}
			return saveAndPrintAuth(cmd, result)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAccountLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"email":    email,
				"password": password,
			}
			var result AuthResult

			if err := client.Post(cmd.Context(), "/api/v1/accounts/login", req, &result); err != nil {
				return err
			}
			return saveAndPrintAuth(cmd, result)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAccountMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			if err := client.Get(cmd.Context(), "/api/v1/players/me", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAccountUpdateCmd() *cobra.Command {
	var name, phone, handle string
	var notifyEmail, notifySMS bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			flags := cmd.Flags()
			if flags.Changed("name") {
				req["name"] = name
			}
			if flags.Changed("phone") {
				req["phone"] = phone
			}
			if flags.Changed("payment-handle") {
				req["payment_handle"] = handle
			}
			if flags.Changed("notify-email") {
				req["notify_email"] = notifyEmail
			}
			if flags.Changed("notify-sms") {
				req["notify_sms"] = notifySMS
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result Player
			if err := client.Patch(cmd.Context(), "/api/v1/players/me", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&handle, "payment-handle", "", "Payment handle used in payment links")
	cmd.Flags().BoolVar(&notifyEmail, "notify-email", false, "Receive email notifications")
	cmd.Flags().BoolVar(&notifySMS, "notify-sms", false, "Receive SMS notifications")

	return cmd
}
