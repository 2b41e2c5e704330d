// Package main provides the entry point for the grading notifier CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grading_notifier",
	Short: "Grading progress notifier",
	Long:  "Grading notifier polls codePost for grading progress on configured courses, tracks per-submission status history, and posts updates to Slack when something changed.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
