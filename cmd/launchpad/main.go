// Package main provides the entry point for the Launchpad marketplace
// server and its background worker.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "Launchpad micro-internship marketplace",
	Long:  "Launchpad connects students with startup micro-internships: postings, applications, asynchronous LLM candidate scoring and email notifications.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
