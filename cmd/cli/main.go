package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treasury-cli",
		Short: "Treasury CLI tool",
		Long:  `A command line interface for interacting with the Treasury API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Treasury API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(vaultTransfersCmd())

	return rootCmd
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <owner-type> <owner-id>",
		Short: "Show all currency balances of a branch or vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON(fmt.Sprintf("/api/v1/balances/%s/%s/",
				url.PathEscape(args[0]), url.PathEscape(args[1])))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <owner-type> <owner-id>",
		Short: "Show balance change history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON(fmt.Sprintf("/api/v1/balances/%s/%s/history",
				url.PathEscape(args[0]), url.PathEscape(args[1])))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}

	cmd.AddCommand(historyCmd)
	return cmd
}

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Exchange rate operations",
	}

	getCmd := &cobra.Command{
		Use:   "get <from> <to>",
		Short: "Show the current rate for a currency pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON(fmt.Sprintf("/api/v1/rates/%s/%s",
				url.PathEscape(args[0]), url.PathEscape(args[1])))
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}

	convertCmd := &cobra.Command{
		Use:   "convert <from> <to> <amount>",
		Short: "Convert an amount between currencies",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{
				"from_currency": args[0],
				"to_currency":   args[1],
				"amount":        args[2],
			}
			body, err := postJSON("/api/v1/rates/convert", payload)
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}

	cmd.AddCommand(getCmd)
	cmd.AddCommand(convertCmd)
	return cmd
}

func transactionsCmd() *cobra.Command {
	var kind, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if kind != "" {
				q.Set("kind", kind)
			}
			if status != "" {
				q.Set("status", status)
			}
			q.Set("limit", fmt.Sprint(limit))

			body, err := getJSON("/api/v1/transactions/?" + q.Encode())
			if err != nil {
				return err
			}
			printTransactionTable(body)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by transaction kind")
	cmd.Flags().StringVar(&status, "status", "", "Filter by transaction status")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of transactions")

	return cmd
}

func vaultTransfersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault-transfers",
		Short: "Vault transfer operations",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vault transfer statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/vault-transfers/stats")
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}

	cmd.AddCommand(statsCmd)
	return cmd
}

func getJSON(path string) (map[string]any, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func postJSON(path string, payload any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (map[string]any, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}

func printTransactionTable(body map[string]any) {
	transactions, _ := body["transactions"].([]any)
	if len(transactions) == 0 {
		fmt.Println("No transactions found")
		return
	}

	fmt.Printf("%-22s %-10s %-10s %-12s %-5s\n", "NUMBER", "KIND", "STATUS", "AMOUNT", "CCY")
	for _, item := range transactions {
		txn, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("%-22s %-10s %-10s %-12v %-5s\n",
			truncate(str(txn["number"]), 22),
			truncate(str(txn["kind"]), 10),
			truncate(str(txn["status"]), 10),
			txn["amount"],
			str(txn["currency"]),
		)
	}

	if total, ok := body["total"].(float64); ok {
		fmt.Printf("Total: %d\n", int(total))
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
