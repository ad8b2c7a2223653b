package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spiffcs/ghinbox/internal/credential"
	"github.com/spiffcs/ghinbox/internal/ghclient"
)

// NewCmdAuth creates the auth command with subcommands.
func NewCmdAuth() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored GitHub token",
		Long: `Manage the GitHub token ghinbox uses.

The GITHUB_TOKEN environment variable always wins over the stored token.
The token needs the notifications scope (classic) or notifications read and
write access (fine-grained).`,
	}

	cmd.AddCommand(newCmdAuthLogin())
	cmd.AddCommand(newCmdAuthLogout())
	cmd.AddCommand(newCmdAuthStatus())

	return cmd
}

func newCmdAuthLogin() *cobra.Command {
	var token string
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a GitHub token in the system keyring",
		Long: `Store a GitHub token in the system keyring.

The token is read from --token, or from standard input when the flag is
omitted. On a terminal the input is not echoed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthLogin(cmd, token, skipVerify)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token to store (default: read from stdin)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Store the token without checking it against the API")
	return cmd
}

func newCmdAuthLogout() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := credential.NewStore().Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			if os.Getenv(credential.EnvToken) != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s is still set and will be used.\n", credential.EnvToken)
			}
			return nil
		},
	}
}

func newCmdAuthStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the GitHub token comes from",
		Args:  cobra.NoArgs,
		RunE:  runAuthStatus,
	}
}

func runAuthLogin(cmd *cobra.Command, token string, skipVerify bool) error {
	if token == "" {
		var err error
		token, err = readToken(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("no token provided")
	}

	out := cmd.OutOrStdout()
	if !skipVerify {
		login, err := verifyToken(cmd, token)
		if err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		fmt.Fprintf(out, "Authenticated as %s.\n", login)
	}

	if err := credential.NewStore().Set(token); err != nil {
		return err
	}
	fmt.Fprintln(out, "Token stored in the system keyring.")
	if os.Getenv(credential.EnvToken) != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s is set and takes precedence over the stored token.\n", credential.EnvToken)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	token, source := credential.NewStore().Resolve()
	out := cmd.OutOrStdout()

	switch source {
	case credential.SourceEnv:
		fmt.Fprintf(out, "Token: set via %s\n", credential.EnvToken)
	case credential.SourceKeyring:
		fmt.Fprintln(out, "Token: stored in the system keyring")
	default:
		fmt.Fprintln(out, "Token: not set (run 'ghinbox auth login' or set GITHUB_TOKEN)")
		return nil
	}

	login, err := verifyToken(cmd, token)
	if err != nil {
		fmt.Fprintf(out, "User:  unknown (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "User:  %s\n", login)
	return nil
}

// verifyToken resolves the login the token belongs to.
func verifyToken(cmd *cobra.Command, token string) (string, error) {
	client, err := ghclient.NewClient(cmd.Context(), func() string { return token })
	if err != nil {
		return "", err
	}
	return client.AuthenticatedUser(cmd.Context())
}

// readToken reads one line from in, without echo when in is a terminal.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Paste your GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return line, nil
}
