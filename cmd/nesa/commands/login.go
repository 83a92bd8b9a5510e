package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/printer"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the credential",
	Long: `Authenticate against the ERP backend and store the returned credential.

The password is read from --password, then NESA_PASSWORD, then standard input.
Any running 'nesa watch' sharing the same credential store reconnects with the
new credential.

Examples:
  nesa login --email admin@example.com
  echo "$PASS" | nesa login --email admin@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored credential",
	Long: `Remove the stored credential.

A running 'nesa watch' sharing the same credential store closes its
notification channel.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (prefer NESA_PASSWORD or stdin)")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	session, err := e.client.Login(cmd.Context(), loginEmail, password)
	if err != nil {
		return apiError("login", err)
	}
	if err := e.store.Save(cmd.Context(), session.Token); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	name := session.User.Name
	if name == "" {
		name = session.User.Email
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}
	if p := os.Getenv("NESA_PASSWORD"); p != "" {
		return p, nil
	}

	fmt.Fprint(prompt, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(prompt)

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", printer.Error(
			"password required",
			"No password was given.",
			[]string{"Pass --password, set NESA_PASSWORD, or pipe it on stdin"},
		)
	}
	return password, nil
}
