// Command chatcli is a terminal client for the chat service.
package main

import (
	"fmt"
	"os"

	"messpal-be/pkg/chatclient"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	email     string
	password  string
)

var rootCmd = &cobra.Command{
	Use:           "chatcli",
	Short:         "Talk to a MessPal server from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("MESSPAL_SERVER", "http://localhost:5000"), "server base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MESSPAL_TOKEN"), "bearer token (skips login)")
	rootCmd.PersistentFlags().StringVar(&email, "email", os.Getenv("MESSPAL_EMAIL"), "login email")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("MESSPAL_PASSWORD"), "login password")

	rootCmd.AddCommand(loginCmd, chatsCmd, openCmd, sendCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// authedAPI returns an API client holding a token, logging in when needed.
func authedAPI() (*chatclient.API, error) {
	api := chatclient.NewAPI(serverURL)
	if token != "" {
		api.SetToken(token)
		return api, nil
	}
	if email == "" || password == "" {
		return nil, fmt.Errorf("provide --token or --email and --password")
	}
	if _, err := api.Login(email, password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return api, nil
}
