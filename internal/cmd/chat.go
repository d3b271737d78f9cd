package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/server"
	"github.com/willfong/insurance-assistant/internal/ui"
)

var chatSession string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the terminal",
	Long: `Start an interactive conversation using the same components as the
server. Each line typed is one utterance.

Start by entering a customer ID (for example CUST001), then the PIN.
Type "bye" to end the conversation or press Ctrl+D.

Example:
  assistant chat
  assistant chat --session demo-1`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session key (default: random)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	key := chatSession
	if key == "" {
		key = "cli-" + uuid.NewString()
	}

	u := newUI()
	fmt.Println(u.Header("Insurance Assistant"))
	fmt.Println(u.Muted("session " + key + " | type bye to leave"))
	fmt.Println()

	return chatLoop(ctx, os.Stdin, u, a.orch, key)
}

// chatLoop reads utterances from in until EOF, cancellation or the session
// ends, writing each reply to u
func chatLoop(ctx context.Context, in io.Reader, u *ui.UI, h server.Handler, key string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024), config.MaxUtteranceBytes)
	out := u.Out()

	for {
		fmt.Fprint(out, u.Prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		res := h.Handle(ctx, key, line)
		fmt.Fprintln(out, u.Reply(res.Reply))
		if res.Audit.Action == models.AuditSessionEnded {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
