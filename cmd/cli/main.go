package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justthetip/tipledger/internal/infrastructure/auth"
)

var (
	baseURL   string
	authToken string
	timeout   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tipledger-cli",
		Short: "TipLedger CLI tool",
		Long:  `A command line interface for interacting with the TipLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the TipLedger API")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Bearer token for authenticated requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(balancesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(reconciliationCmd())
	rootCmd.AddCommand(airdropCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balances <user-id>",
		Short: "Show a user's balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(fmt.Sprintf("%s/api/v1/users/%s/balances", baseURL, args[0]))
		},
	}
}

func historyCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "Show a user's ledger history, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/v1/users/%s/history?limit=%d&offset=%d",
				baseURL, args[0], limit, offset)
			return getAndPrint(url)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	return cmd
}

func reconciliationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconciliation",
		Short: "Show the operator reconciliation report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(baseURL + "/api/v1/reconciliation")
		},
	}
}

func airdropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airdrop",
		Short: "Airdrop queries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "latest",
		Short: "Show the most recent open airdrop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(baseURL + "/api/v1/airdrops/latest")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <airdrop-id>",
		Short: "Show one airdrop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(baseURL + "/api/v1/airdrops/" + args[0])
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret    string
		serviceID string
		role      string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a service token for API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			if role != string(auth.RoleService) && role != string(auth.RoleOperator) {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(serviceID, auth.Role(role))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret, must match the server's")
	cmd.Flags().StringVar(&serviceID, "service-id", "cli", "Service identity embedded in the token")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleService), "Token role: service or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

func getAndPrint(url string) error {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(parsed)
	return nil
}

func printJSON(v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(encoded))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
