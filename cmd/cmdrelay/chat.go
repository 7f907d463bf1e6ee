package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"cmdrelay/internal/assistant"
	"cmdrelay/internal/config"
)

const (
	userPrompt = "You: "
	goodbye    = "👋 Goodbye!"
)

// lineReader is the part of *readline.Instance the chat loop needs.
type lineReader interface {
	Readline() (string, error)
}

type chatSession struct {
	assistant *assistant.Assistant
	out       io.Writer
	renderer  *replyRenderer
}

func newChatCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model; commands in its replies are run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cli.newContainer(ctx, cli.cfg, true)
			if err != nil {
				return err
			}
			defer func() { _ = c.Shutdown(context.WithoutCancel(ctx)) }()
			if c.Assistant == nil {
				return errNoModel
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:            userPrompt,
				HistoryFile:       cli.cfg.HistoryFile,
				InterruptPrompt:   "^C",
				EOFPrompt:         "exit",
				HistorySearchFold: true,
				Stdin:             readline.NewCancelableStdin(os.Stdin),
				Stdout:            cmd.OutOrStdout(),
				Stderr:            cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			defer rl.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleBanner.Render(fmt.Sprintf("cmdrelay chat with %s. Type 'quit' to exit.", c.Assistant.Model())))
			session := &chatSession{assistant: c.Assistant, out: out, renderer: newReplyRenderer(out)}
			return session.run(ctx, rl)
		},
	}
	cmd.Flags().String("model", "", "model name (default "+config.DefaultModel+")")
	return cmd
}

// run reads lines until an exit word, Ctrl-C on an empty line, Ctrl-D or
// context cancellation.
func (s *chatSession) run(ctx context.Context, lines lineReader) error {
	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\n"+goodbye)
			return nil
		}

		input, err := lines.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(input) == 0 {
				fmt.Fprintln(s.out, "\n"+goodbye)
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out, "\n"+goodbye)
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if assistant.IsExit(input) {
			fmt.Fprintln(s.out, goodbye)
			return nil
		}
		if input == "" {
			continue
		}

		reply := s.assistant.Reply(ctx, input)
		fmt.Fprintf(s.out, "%s %s\n\n", styleModelLabel.Render("Gemini:"), s.renderer.Render(reply))
	}
}
