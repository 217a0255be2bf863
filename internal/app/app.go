// Package app wires configuration, chat history, and metadata into a
// macro expander and runs it.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/liquescentremedies/SillyTavern/internal/backend"
	"github.com/liquescentremedies/SillyTavern/internal/chat"
	"github.com/liquescentremedies/SillyTavern/internal/config"
	"github.com/liquescentremedies/SillyTavern/internal/macro"
	"github.com/liquescentremedies/SillyTavern/internal/verbose"
)

// App holds the application's dependencies.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
}

// NewApp creates an App with the provided configuration, logger, and
// verbose setting.
func NewApp(cfg *config.Config, logger *slog.Logger, verbose bool) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		verbose: verbose,
	}
}

// promptForInput asks the user for compose-box content interactively.
// Used to back the {{input}} macro when running in a terminal.
func promptForInput() string {
	var response string
	prompt := &survey.Input{Message: "Compose box content:"}
	if err := survey.AskOne(prompt, &response); err != nil {
		return ""
	}
	return response
}

// Run expands template and writes the result to out. Expansion itself
// never fails; only loading collaborators can return an error.
func (a *App) Run(template string, out io.Writer) error {
	var history chat.History
	if a.cfg.Chat.File != "" {
		var err error
		history, err = chat.LoadFile(a.cfg.Chat.File)
		if err != nil {
			return fmt.Errorf("failed to load chat history: %w", err)
		}
		a.logger.Debug("loaded chat history", "file", a.cfg.Chat.File, "messages", len(history))
	}

	var store chat.MetadataStore
	if a.cfg.Chat.MetadataDB != "" {
		sqlStore, err := chat.OpenSQLiteStore(a.cfg.Chat.MetadataDB, a.cfg.Chat.ID)
		if err != nil {
			return fmt.Errorf("failed to open metadata store: %w", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	} else {
		store = chat.NewMemoryStore()
	}

	kind := backend.ParseKind(a.cfg.Expand.Backend)
	sink := &backend.BanSink{}

	env := macro.NewEnv().
		SetString("user", a.cfg.Names.User).
		SetString("char", a.cfg.Names.Char).
		SetString("group", a.cfg.Names.Group)

	maxContext := a.cfg.Expand.MaxContext
	expander := &macro.Expander{
		History:        history,
		Metadata:       store,
		CurrentChatID:  a.cfg.Chat.ID,
		MaxContextSize: func() int { return maxContext },
		Input:          promptForInput,
		Backend:        kind,
		BanSink:        sink,
		Placeholder:    a.cfg.Expand.Placeholder,
		Logger:         a.logger,
	}

	result := expander.Expand(template, env)
	fmt.Fprintln(out, result)

	if a.verbose {
		verbose.PrintSummary(verbose.Summary{
			ChatFile:     a.cfg.Chat.File,
			ChatID:       a.cfg.Chat.ID,
			Messages:     len(history),
			Backend:      kind.String(),
			TemplateLen:  len(template),
			OutputLen:    len(result),
			BannedWords:  sink.Words(),
			MetadataPath: a.cfg.Chat.MetadataDB,
		}, verbose.DefaultOutputConfig(os.Stderr))
	}

	return nil
}
