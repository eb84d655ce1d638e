package main

import (
	"errors"
	"fmt"

	"github.com/lingxijiao/backend/internal/email"
	"github.com/spf13/cobra"
)

var testMailCmd = &cobra.Command{
	Use:   "test-mail",
	Short: "Send a test message through the configured mail transport",
	Long: `Send a test message through MAIL_TRANSPORT.

Examples:
  lingxijiao test-mail --to someone@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			to = cfg.Mail.FromAddress
		}
		if to == "" {
			return errors.New("--to is required when APP_EMAIL_ADDRESS is not set")
		}

		sender, err := email.NewSender(cmd.Context(), cfg.Mail, log)
		if err != nil {
			return err
		}
		err = sender.Send(cmd.Context(), email.Message{
			To:      []string{to},
			Subject: "lingxijiao test",
			Text:    "This is a test message from the lingxijiao backend.",
		})
		if err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Sent test message to %s via %s\n", to, cfg.Mail.Transport)
		return nil
	},
}

func init() {
	testMailCmd.Flags().String("to", "", "Recipient (defaults to APP_EMAIL_ADDRESS)")
}
