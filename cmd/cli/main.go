package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	comment string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gobalance-cli",
		Short: "GoBalance CLI tool",
		Long:  `A command line interface for interacting with the GoBalance API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoBalance API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	balanceCmd := &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Show the balance of a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/balance/" + args[0])
		},
	}

	depositCmd := &cobra.Command{
		Use:   "deposit <user-id> <amount>",
		Short: "Credit a user balance",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postMutation("/api/v1/deposit", map[string]any{
				"user_id": mustInt(args[0]),
				"amount":  args[1],
			})
		},
	}

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <user-id> <amount>",
		Short: "Debit a user balance",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postMutation("/api/v1/withdraw", map[string]any{
				"user_id": mustInt(args[0]),
				"amount":  args[1],
			})
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <from-user-id> <to-user-id> <amount>",
		Short: "Move funds between two users",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			postMutation("/api/v1/transfer", map[string]any{
				"from_user_id": mustInt(args[0]),
				"to_user_id":   mustInt(args[1]),
				"amount":       args[2],
			})
		},
	}

	transactionsCmd := &cobra.Command{
		Use:   "transactions <user-id>",
		Short: "List the ledger records of a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/users/" + args[0] + "/transactions")
		},
	}

	for _, cmd := range []*cobra.Command{depositCmd, withdrawCmd, transferCmd} {
		cmd.Flags().StringVar(&comment, "comment", "", "Optional transaction comment")
	}

	rootCmd.AddCommand(balanceCmd, depositCmd, withdrawCmd, transferCmd, transactionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func mustInt(s string) int64 {
	var v int64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		fmt.Printf("invalid user id %q\n", s)
		os.Exit(1)
	}
	return v
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func postMutation(path string, payload map[string]any) {
	if comment != "" {
		payload["comment"] = comment
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\n", resp.StatusCode)
		os.Exit(1)
	}
}
