package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/chat"
)

var chatAppName string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Shape the application plan in conversation",
	Long: `With a message, sends it and prints the updated plan. Without one,
reads messages from stdin until EOF. Answering "yes", "yes build",
"build it" or "go" approves the plan and writes the application spec.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAppName, "name", "AutoDev App", "Application name used when the plan is approved")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer done()

	agent := chat.Agent{Store: a.Store, LLM: a.LLM, Logger: logger}
	out := cmd.OutOrStdout()
	handle := func(msg string) (bool, error) {
		state, err := agent.Reply(ctx, msg)
		if err != nil {
			return false, err
		}
		printConversation(out, state)
		if state.Status != artifact.ConversationApproved {
			return false, nil
		}
		spec, err := chat.Promote(state, chatAppName)
		if err != nil {
			return false, err
		}
		if err := artifactrepo.Write(ctx, a.Store, artifact.ApplicationSpecFile, spec); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "approved: wrote %s\n", artifact.ApplicationSpecFile)
		return true, nil
	}

	if len(args) > 0 {
		_, err := handle(strings.Join(args, " "))
		return err
	}
	sc := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for sc.Scan() {
		msg := strings.TrimSpace(sc.Text())
		if msg == "" {
			fmt.Fprint(out, "> ")
			continue
		}
		approved, err := handle(msg)
		if err != nil {
			return err
		}
		if approved {
			return nil
		}
		fmt.Fprint(out, "> ")
	}
	return sc.Err()
}

func printConversation(w io.Writer, state artifact.ConversationState) {
	b, err := json.MarshalIndent(state.CurrentPlan, "", "  ")
	if err == nil {
		fmt.Fprintf(w, "status: %s\nplan: %s\n", state.Status, b)
	}
	for _, f := range state.SuggestedFeatures {
		fmt.Fprintf(w, "suggest: %s - %s\n", f.Title, f.Why)
	}
	for _, q := range state.Questions {
		fmt.Fprintf(w, "? %s\n", q)
	}
}
