package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/server"
)

func newAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain a Google Calendar refresh token",
		Long: `Obtain a refresh token for GOOGLE_REFRESH_TOKEN without running the server.

Without --code the consent URL is printed. Open it, approve access, and
copy the code parameter from the URL Google redirects to. Then run
'voicecal auth --code <code>' to print the refresh token.`,
	}

	envFile := cmd.Flags().String("env-file", config.DefaultEnvFile, "Optional dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code returned by Google")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags(), *envFile)
		if err != nil {
			return err
		}
		return runAuth(cmd.Context(), cmd.OutOrStdout(), cfg.GoogleCredentials(), code, google.ExchangeCode)
	}

	return cmd
}

func runAuth(ctx context.Context, out io.Writer, creds google.Credentials, code string, exchange server.TokenExchanger) error {
	if !creds.Configured() {
		return fmt.Errorf("%w: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET", google.ErrNotConfigured)
	}

	if code == "" {
		url, err := google.GetAuthURL(creds, uuid.NewString())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Visit this URL in your browser to authorize Google Calendar access:\n\n%s\n\n", url)
		fmt.Fprintln(out, "Then run: voicecal auth --code <code>")
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	token, err := exchange(ctx, creds, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("google did not return a refresh token; revoke the app's access in your Google account and authorize again")
	}

	fmt.Fprintf(out, "GOOGLE_REFRESH_TOKEN=%s\n", token.RefreshToken)
	return nil
}
