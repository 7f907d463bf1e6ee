package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cmdrelay/internal/interpreter"
)

func newProcessCommand(cli *CLI) *cobra.Command {
	var showReport bool
	cmd := &cobra.Command{
		Use:   "process [text]",
		Short: "Run the commands in text (or stdin) and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, fromArg := "", len(args) == 1
			if fromArg {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			ctx := cmd.Context()
			c, err := cli.newContainer(ctx, cli.cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Shutdown(context.WithoutCancel(ctx)) }()

			report, err := c.Interpreter.ProcessReport(ctx, text, cli.cfg.MaxInvocations)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.Output)
			if fromArg && !strings.HasSuffix(report.Output, "\n") {
				fmt.Fprintln(out)
			}
			if showReport {
				printReport(cmd.ErrOrStderr(), report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showReport, "report", false, "print each invocation's outcome to stderr")
	return cmd
}

func printReport(w io.Writer, report *interpreter.Report) {
	if len(report.Invocations) == 0 {
		fmt.Fprintln(w, gray("no invocations"))
		return
	}
	for _, inv := range report.Invocations {
		detail := inv.Replacement
		if inv.Error != "" {
			detail = inv.Error
		}
		cached := ""
		if inv.Cached {
			cached = gray(" (cached)")
		}
		fmt.Fprintf(w, "%s %s -> %s%s\n", styleOutcome(string(inv.Outcome)), inv.Match.Text, detail, cached)
	}
}

func newPromptCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the system prompt describing the registered commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cli.newContainer(ctx, cli.cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Shutdown(context.WithoutCancel(ctx)) }()
			fmt.Fprint(cmd.OutOrStdout(), c.Interpreter.SystemPrompt())
			return nil
		},
	}
}

func newCommandsCommand(cli *CLI) *cobra.Command {
	var sorted bool
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the registered commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cli.newContainer(ctx, cli.cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Shutdown(context.WithoutCancel(ctx)) }()

			reg := c.Interpreter.Registry()
			names := reg.Names()
			if sorted {
				names = reg.SortedNames()
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				d, _ := reg.Lookup(name)
				fmt.Fprintf(out, "%s%s\n", bold(d.Name), d.Signature())
				if summary := d.Summary(); summary != "" {
					fmt.Fprintf(out, "    %s\n", gray(summary))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sorted, "sort", false, "List commands alphabetically instead of in registration order")
	return cmd
}
