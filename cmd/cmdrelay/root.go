package main

import (
	"github.com/spf13/cobra"

	"cmdrelay/internal/config"
)

// CLI holds state shared by every subcommand.
type CLI struct {
	configFile string
	dotEnv     string
	cfg        *config.Config

	// newContainer is replaced in tests.
	newContainer containerFactory
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&CLI{dotEnv: ".env", newContainer: buildContainer})
}

func newRootCommandWith(cli *CLI) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmdrelay",
		Short: "Run commands embedded in model output",
		Long: `cmdrelay scans text for COMMAND: name(key=value, ...) tokens, runs the
named commands and splices their results back into the text. Fenced code
blocks are left untouched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader := &config.Loader{
				ConfigFile: cli.configFile,
				DotEnv:     cli.dotEnv,
				Flags:      cmd.Flags(),
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			cli.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cli.configFile, "config", "", "config file (default ~/.cmdrelay/config.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Int("max-invocations", config.DefaultMaxInvocations, "maximum commands run per text span")

	rootCmd.AddCommand(
		newChatCommand(cli),
		newProcessCommand(cli),
		newPromptCommand(cli),
		newCommandsCommand(cli),
		newServeCommand(cli),
	)
	return rootCmd
}
