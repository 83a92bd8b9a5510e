package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/credential"
	"github.com/yazin123/nesa/internal/printer"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who the stored credential belongs to",
	Long: `Decode the stored credential and show its subject and expiry.

The token is not verified locally; the server remains the authority.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := requireCredential(cmd, e)
	if err != nil {
		return err
	}

	claims, err := credential.Inspect(token)
	if err != nil {
		return printer.Error(
			"unreadable credential",
			fmt.Sprintf("Error: %v", err),
			[]string{"Log in again:\n  nesa login"},
		)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Server:  %s\n", e.client.BaseURL())
	fmt.Fprintf(w, "Subject: %s\n", claims.Subject)
	if claims.Name != "" {
		fmt.Fprintf(w, "Name:    %s\n", claims.Name)
	}
	if claims.Email != "" {
		fmt.Fprintf(w, "Email:   %s\n", claims.Email)
	}
	if claims.Role != "" {
		fmt.Fprintf(w, "Role:    %s\n", claims.Role)
	}

	switch {
	case claims.ExpiresAt.IsZero():
		fmt.Fprintln(w, "Expires: never")
	case claims.Expired(time.Now()):
		fmt.Fprintf(w, "Expires: %s (expired)\n", claims.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "Expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
