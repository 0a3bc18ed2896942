package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat against a session",
		Long: "Starts a terminal chat loop. Type 'clear' to wipe the session's " +
			"history, 'exit' or 'quit' to leave.",
		Args: cobra.NoArgs,
		RunE: runChat,
	}
	cmd.Flags().String("session", "", "session id (default: a new one)")
	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		sessionID = id.String()
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s (clear to reset, exit to quit)\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			if err := a.sessions.Clear(ctx, sessionID); err != nil {
				return err
			}
			fmt.Fprintln(out, "session cleared")
			continue
		}

		result, err := a.orch.Handle(ctx, sessionID, input)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.Response)
	}
}
