package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	ingestForce bool
	ingestRoot  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from the knowledge base",
	Long: `Ingest loads every matching document under the knowledge base root,
chunks and embeds it, and atomically replaces the persisted index.

A content-hash manifest is kept beside the index; when no document
changed since the last run, ingestion is skipped. Use --force to rebuild
anyway.

Examples:
  # Incremental ingest
  ragd ingest

  # Rebuild even when nothing changed
  ragd ingest --force`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "rebuild the index even when the corpus is unchanged")
	ingestCmd.Flags().StringVar(&ingestRoot, "knowledge-base", "", "knowledge base directory (overrides config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if ingestRoot != "" {
		a.cfg.KnowledgeBase.Root = ingestRoot
	}

	pipeline, err := a.newPipeline(ingestForce)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Printf("Knowledge base unchanged (%d documents), index left as is.\n", result.Documents)
		return nil
	}

	fmt.Printf("Ingested %d documents into %d chunks in %s.\n",
		result.Documents, result.Chunks, result.Duration.Round(time.Millisecond))
	return nil
}
