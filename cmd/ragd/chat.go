package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ragd/internal/orchestrator"
	"github.com/fyrsmithlabs/ragd/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering session",
	Long: `Chat starts an interactive session over the knowledge base. Prior
turns in the session are carried into each prompt within the configured
history budget.

Type "exit", "quit", or press Ctrl-D to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	orch, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	sess := session.New()
	fmt.Printf("ragd chat (session %s). Type \"exit\" to leave.\n", sess.ID())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		answer, err := orch.SubmitQuery(cmd.Context(), sess, line)
		if err != nil {
			if errors.Is(err, orchestrator.ErrCancelled) {
				return nil
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}

		fmt.Println(answer.Text)
		printSources(answer)
		fmt.Println()
	}
}
