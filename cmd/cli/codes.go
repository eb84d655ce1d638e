package main

import (
	"fmt"
	"io"

	"github.com/lingxijiao/backend/internal/config"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/i18n"
	"github.com/spf13/cobra"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the API error codes with their localized messages",
	Long: `List every error code the API can return, rendered the way the web
client shows it, with the configured limits filled in.

Examples:
  lingxijiao codes
  lingxijiao codes --lang en`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		writeCodes(cmd.OutOrStdout(), i18n.Negotiate(lang), cfg.Limits)
		return nil
	},
}

func writeCodes(w io.Writer, loc *i18n.Localizer, limits config.Limits) {
	for _, code := range apperrors.AllCodes {
		fmt.Fprintf(w, "%-40s %d  %s\n", code, code.StatusCode(), loc.ErrorMessage(code, limits))
	}
}

func init() {
	codesCmd.Flags().String("lang", i18n.DefaultLanguage, "Message language (zh or en)")
}
