// Package cmd implements the stmacro command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liquescentremedies/SillyTavern/internal/app"
	"github.com/liquescentremedies/SillyTavern/internal/config"
	stIO "github.com/liquescentremedies/SillyTavern/internal/io"
	"github.com/liquescentremedies/SillyTavern/internal/logger"
)

// current version (hardcoded for now, could be replaced with build flags)
const version = "0.1.0"

// rootCmdState holds the config manager and logger for the command.
type rootCmdState struct {
	manager *config.Manager
	logger  *slog.Logger
}

var state = &rootCmdState{}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return home, nil
	}

	return filepath.Join(home, path[1:]), nil
}

// rootCmd expands macro templates against a chat.
var rootCmd = &cobra.Command{
	Use:          "stmacro [template...]",
	Version:      version,
	Short:        "Expand {{macro}} placeholders in prompt templates",
	Long: `stmacro substitutes {{macro}} placeholders in a prompt template using
configured names, chat history, dice rolls, and deterministic or random
list picks. Templates come from arguments, stdin, or --template.`,
	SilenceUsage: true,

	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return fmt.Errorf("failed to get debug flag: %w", err)
		}
		state.logger = logger.New(debug)

		state.manager = config.NewManager().WithLogger(state.logger)

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("failed to get config flag: %w", err)
		}
		if configPath == "" {
			configPath, err = config.DefaultConfigPath()
			if err != nil {
				return err
			}
		}
		configPath, err = expandHomePath(configPath)
		if err != nil {
			return fmt.Errorf("failed to expand config path: %w", err)
		}

		if err := state.manager.Load(configPath); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// flag values override the config file
		v := state.manager.Viper()
		bindings := map[string]string{
			"chat":        "chat.file",
			"chat-id":     "chat.id",
			"metadata-db": "chat.metadata_db",
			"backend":     "expand.backend",
			"user":        "names.user",
			"char":        "names.char",
			"group":       "names.group",
			"placeholder": "expand.placeholder",
			"max-context": "expand.max_context",
		}
		for flag, key := range bindings {
			if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
				v.Set(key, f.Value.String())
			}
		}
		return v.Unmarshal(state.manager.Config())
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		templateFile, err := cmd.Flags().GetString("template")
		if err != nil {
			return fmt.Errorf("failed to get template flag: %w", err)
		}
		templateFile, err = expandHomePath(templateFile)
		if err != nil {
			return fmt.Errorf("failed to expand template path: %w", err)
		}

		template, err := stIO.ReadTemplate(os.Stdin, args, templateFile)
		if err != nil {
			return err
		}

		verboseFlag, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}

		a := app.NewApp(state.manager.Config(), state.logger, verboseFlag)
		return a.Run(template, cmd.OutOrStdout())
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is ~/.stmacro/config.toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print an expansion summary to stderr")

	rootCmd.Flags().StringP("template", "t", "", "read the template from a file")
	rootCmd.Flags().StringP("chat", "c", "", "chat transcript to expand against (.jsonl or text)")
	rootCmd.Flags().String("chat-id", "", "identifier of the active chat")
	rootCmd.Flags().String("metadata-db", "", "SQLite file holding per-chat metadata")
	rootCmd.Flags().StringP("backend", "b", "", "active generation backend (none, textgen, kobold, openai)")
	rootCmd.Flags().String("user", "", "display name for {{user}}")
	rootCmd.Flags().String("char", "", "display name for {{char}}")
	rootCmd.Flags().String("group", "", "group name for {{group}}")
	rootCmd.Flags().String("placeholder", "", "replacement for invalid rolls and empty lists")
	rootCmd.Flags().Int("max-context", 0, "token budget reported by {{maxPrompt}}")

	rootCmd.AddCommand(createRollCommand())
}
