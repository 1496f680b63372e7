package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"food-order-bot/bot"
	"food-order-bot/directive"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	Long: `chat runs the conversation on stdin/stdout. Type a message, or /N to press
the N-th button of the last reply. /quit leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		inMemory, _ := cmd.Flags().GetBool("memory")

		a, err := newApp(cmd.Context(), cfg, inMemory)
		if err != nil {
			return err
		}
		defer a.Close()
		return runConsole(cmd.Context(), a.engine, user, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().String("user", "console", "user id to chat as")
	chatCmd.Flags().Bool("memory", false, "use an in-memory store with the sample menu")
	rootCmd.AddCommand(chatCmd)
}

func runConsole(ctx context.Context, engine *bot.Engine, userID string, in io.Reader, out io.Writer) error {
	var buttons []directive.QuickAction
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			return nil
		}
		if line == "" {
			fmt.Fprint(out, "> ")
			continue
		}

		msg := bot.Message{ID: uuid.NewString(), UserID: userID, Text: line}
		if n, ok := buttonIndex(line, len(buttons)); ok {
			msg.Text = ""
			msg.ActionID = buttons[n].ActionID
			msg.Params = buttons[n].Params
		}

		d, err := engine.Handle(ctx, msg)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n> ", err)
			continue
		}
		buttons = d.QuickActions
		render(out, d)
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// buttonIndex parses "/N" into a zero-based button index
func buttonIndex(line string, count int) (int, bool) {
	if !strings.HasPrefix(line, "/") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}

func render(out io.Writer, d *directive.Directive) {
	fmt.Fprintln(out, d.Text)
	for i, qa := range d.QuickActions {
		fmt.Fprintf(out, "  [/%d] %s\n", i+1, qa.Label)
	}
}
