package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and configuration status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Index path:      %s\n", a.cfg.Index.Path)
	fmt.Printf("Index entries:   %d\n", a.index.Len())
	fmt.Printf("Dimension:       %d\n", a.index.Dimension())
	fmt.Printf("Knowledge base:  %s (glob %s)\n", a.cfg.KnowledgeBase.Root, a.cfg.KnowledgeBase.Glob)
	fmt.Printf("Chunking:        size=%d overlap=%d\n", a.cfg.Chunking.Size, a.cfg.Chunking.Overlap)
	fmt.Printf("Retrieval:       top_k=%d context_budget=%d history_budget=%d\n",
		a.cfg.Retrieval.TopK, a.cfg.Retrieval.ContextBudget, a.cfg.Retrieval.HistoryBudget)
	fmt.Printf("Embeddings:      %s (%s)\n", a.cfg.Embeddings.BaseURL, a.cfg.Embeddings.Model)
	fmt.Printf("Generation:      %s (%s)\n", a.cfg.Generation.BaseURL, a.cfg.Generation.Model)
	return nil
}
