package config

// Config is the complete configuration for the macro expander CLI.
type Config struct {
	Names  Names  `mapstructure:"names"`
	Chat   Chat   `mapstructure:"chat"`
	Expand Expand `mapstructure:"expand"`
}

// Names are the display names behind the user/char/group macros and
// their legacy angle-bracket tags.
type Names struct {
	User  string `mapstructure:"user"`
	Char  string `mapstructure:"char"`
	Group string `mapstructure:"group"`
}

// Chat locates the conversation and its persisted metadata.
type Chat struct {
	// File is the chat transcript path (.jsonl or plain text).
	File string `mapstructure:"file"`
	// ID identifies the active chat; it seeds {{pick}} when the
	// metadata store has no main_chat entry.
	ID string `mapstructure:"id"`
	// MetadataDB is the SQLite metadata path; empty means in-memory.
	MetadataDB string `mapstructure:"metadata_db"`
}

// Expand tunes expansion behavior.
type Expand struct {
	// Backend names the active generation backend; it decides whether
	// {{banned}} macros collect into the ban sink.
	Backend string `mapstructure:"backend"`
	// Placeholder replaces invalid rolls and empty random/pick lists.
	Placeholder string `mapstructure:"placeholder"`
	// MaxContext is the token budget reported by {{maxPrompt}}.
	MaxContext int `mapstructure:"max_context"`
}
