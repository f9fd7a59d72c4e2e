package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/curielabs/curie/pkg/agent"
	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/threadstore"
)

func newChatCommand() *cobra.Command {
	var message string
	var sessionKey string
	var forcedAgent string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agents from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runChat(message, sessionKey, forcedAgent)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Send a single message and exit")
	cmd.Flags().StringVarP(&sessionKey, "session", "s", "", "Session key (default: a fresh one per run)")
	cmd.Flags().StringVarP(&forcedAgent, "agent", "a", "", "Skip routing and talk to this agent directly")

	return cmd
}

func runChat(message, sessionKey, forcedAgent string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := threadstore.NewStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open thread store: %w", err)
	}
	defer store.Close()

	orchestrator, err := agent.NewOrchestrator(cfg, store)
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}

	if sessionKey == "" {
		sessionKey = "cli_" + uuid.NewString()
	}

	if message != "" {
		return chatTurn(orchestrator, message, sessionKey, forcedAgent)
	}

	fmt.Println("Interactive mode (Ctrl+C or \"exit\" to quit)")
	fmt.Println()
	return interactiveChat(orchestrator, sessionKey, forcedAgent)
}

func interactiveChat(orchestrator *agent.Orchestrator, sessionKey, forcedAgent string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".curie_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}
		if input == "/clear" {
			orchestrator.Clear(sessionKey)
			fmt.Println("Session cleared.")
			continue
		}

		if err := chatTurn(orchestrator, input, sessionKey, forcedAgent); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func chatTurn(orchestrator *agent.Orchestrator, message, sessionKey, forcedAgent string) error {
	ctx := context.Background()

	category := forcedAgent
	if category == "" {
		category = orchestrator.Route(ctx, message).Category
	}

	thread := orchestrator.GenerateFor(ctx, category, message, sessionKey)
	printReplies(category, thread)
	return nil
}

// printReplies shows everything the turn added after the user's message:
// the assistant replies and any tool output.
func printReplies(category string, thread []chat.Message) {
	lastUser := -1
	for i, msg := range thread {
		if msg.Role == "user" {
			lastUser = i
		}
	}

	for _, msg := range thread[lastUser+1:] {
		switch msg.Role {
		case "assistant":
			if msg.Content != "" {
				fmt.Printf("\n%s> %s\n", category, msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				fmt.Printf("\n%s> [calling %s]\n", category, tc.Function.Name)
			}
		case "tool":
			fmt.Printf("\n[%s] %s\n", msg.Type, msg.Content)
		}
	}
	fmt.Println()
}
