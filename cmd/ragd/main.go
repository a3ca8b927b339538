// Package main implements the ragd CLI for knowledge base retrieval.
//
// ragd ingests a directory of markdown documents into a local vector
// index and answers questions over it through an embedding service and a
// chat completion service.
//
// Usage:
//
//	# Build the index from the configured knowledge base
//	ragd ingest
//
//	# Ask a single question
//	ragd query "how do I rotate credentials?"
//
//	# Interactive session
//	ragd chat
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath overrides the default config file location
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "Retrieval-augmented question answering over a local knowledge base",
	Long: `ragd chunks and embeds a directory of documents into a local vector
index, then answers questions by retrieving the most similar chunks and
handing them to a chat model together with the conversation history.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/ragd/config.yaml)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
}
