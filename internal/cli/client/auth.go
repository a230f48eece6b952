package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// AuthCmd creates the auth parent command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage server and admin credentials",
		Long:  "Store, clear and show the server URL and admin key used by the sevak CLI",
	}

	cmd.AddCommand(AuthLoginCmd())
	cmd.AddCommand(AuthLogoutCmd())
	cmd.AddCommand(AuthStatusCmd())

	return cmd
}

// AuthLoginCmd creates the auth login command
func AuthLoginCmd() *cobra.Command {
	opts := loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the server URL and admin key",
		Long: `Store the server URL and admin key in global config (~/.config/sevak/config.yaml).

The server is contacted first: /health must answer and, when a key is given,
the key must be accepted by the admin subscriber listing. Use --no-verify to skip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.keyGiven = cmd.Flags().Changed("admin-key")
			opts.in, opts.out = cmd.InOrStdin(), cmd.OutOrStdout()
			return runAuthLogin(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.adminKey, "admin-key", "", "Admin API key (prompted when omitted)")
	cmd.Flags().StringVar(&opts.apiURL, "url", defaultAPIURL, "API URL")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "Save without contacting the server")

	return cmd
}

// AuthLogoutCmd creates the auth logout command
func AuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		Long:  "Remove stored credentials from global config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout()
		},
	}

	return cmd
}

// AuthStatusCmd creates the auth status command
func AuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which server and key the CLI uses",
		Long:  "Display the resolved server URL, admin key and where each came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			flagURL, _ := cmd.Flags().GetString("api-url")
			flagKey, _ := cmd.Flags().GetString("admin-key")
			return runAuthStatus(flagURL, flagKey, outputJSON)
		},
	}

	return cmd
}

type loginOptions struct {
	apiURL   string
	adminKey string
	keyGiven bool
	noVerify bool
	in       io.Reader
	out      io.Writer
}

func runAuthLogin(ctx context.Context, opts loginOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}

	u, err := url.Parse(opts.apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q (expected http:// or https://)", opts.apiURL)
	}

	adminKey := opts.adminKey
	if !opts.keyGiven {
		if opts.in == nil {
			opts.in = os.Stdin
		}
		fmt.Fprint(opts.out, "Enter admin key (leave empty for public access only): ")
		input, err := bufio.NewReader(opts.in).ReadString('\n')
		if err != nil && input == "" && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read admin key: %w", err)
		}
		adminKey = input
	}

	cfg := &GlobalConfig{
		APIURL:   strings.TrimRight(opts.apiURL, "/"),
		AdminKey: strings.TrimSpace(adminKey),
	}

	if !opts.noVerify {
		if err := verifyLogin(ctx, NewAPIClientWithConfig(cfg.APIURL, cfg.AdminKey)); err != nil {
			return err
		}
	}

	if err := SaveGlobalConfig(cfg); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintln(opts.out, "Saved settings for", cfg.APIURL)
	return nil
}

// verifyLogin checks the server answers and, when set, that the admin key is accepted.
func verifyLogin(ctx context.Context, api *APIClient) error {
	health, err := api.Health(ctx)
	if err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", api.BaseURL(), err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("server at %s reports status %q", api.BaseURL(), health.Status)
	}
	if !api.HasAdminKey() {
		return nil
	}

	_, err = api.ListSubscribers(ctx, 1, "")
	switch {
	case err == nil:
		return nil
	case IsStatus(err, http.StatusUnauthorized):
		return errors.New("admin key rejected by server")
	case IsStatus(err, http.StatusServiceUnavailable):
		return errors.New("admin routes are disabled on this server (SEVAK_ADMIN_API_KEY unset)")
	default:
		return fmt.Errorf("failed to verify admin key: %w", err)
	}
}

func runAuthLogout() error {
	if err := DeleteGlobalConfig(); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	fmt.Println("Successfully logged out")
	return nil
}

func runAuthStatus(flagURL, flagKey string, outputJSON bool) error {
	settings, err := ResolveSettings(flagURL, flagKey)
	if err != nil {
		return err
	}

	if outputJSON {
		return outputStatusJSON(settings)
	}

	return outputStatusText(settings)
}

func outputStatusJSON(s *Settings) error {
	status := map[string]interface{}{
		"api_url":          s.APIURL,
		"api_url_source":   string(s.URLSource),
		"admin":            s.AdminKey != "",
		"admin_key_source": string(s.AdminKeySource),
	}
	if s.AdminKey != "" {
		status["admin_key"] = maskKey(s.AdminKey)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	fmt.Println(string(data))
	return nil
}

func outputStatusText(s *Settings) error {
	fmt.Printf("API URL: %s (%s)\n", s.APIURL, s.URLSource)
	if s.AdminKey == "" {
		fmt.Println("Admin key: not set")
		fmt.Println("Run 'sevak auth login --admin-key <key>' to use admin commands")
		return nil
	}
	fmt.Printf("Admin key: %s (%s)\n", maskKey(s.AdminKey), s.AdminKeySource)
	return nil
}

func maskKey(key string) string {
	if len(key) < 12 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
