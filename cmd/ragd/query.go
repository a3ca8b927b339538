package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ragd/internal/orchestrator"
	"github.com/fyrsmithlabs/ragd/internal/session"
)

var queryShowSources bool

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a single question over the knowledge base",
	Long: `Query embeds the question, retrieves the most similar chunks from the
index, and prints the generated answer.

Examples:
  ragd query "how do I rotate credentials?"

  # Include source attributions
  ragd query --sources "how do I rotate credentials?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryShowSources, "sources", false, "print source attributions with the answer")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	orch, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	answer, err := orch.SubmitQuery(cmd.Context(), session.New(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if queryShowSources {
		printSources(answer)
	}
	return nil
}

func printSources(answer *orchestrator.Answer) {
	if len(answer.Sources) == 0 {
		fmt.Println("\nNo sources used.")
		return
	}
	fmt.Println("\nSources:")
	for _, src := range answer.Sources {
		fmt.Printf("  %s#%d (%s) score=%.4f\n", src.SourceID, src.Seq, src.DocType, src.Score)
	}
}
