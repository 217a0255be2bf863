// Package macro substitutes {{macro}} placeholders in prompt templates.
// Expansion is a fixed sequence of regex passes over the text; the order
// of the passes is part of the contract (trim runs before comments are
// stripped, random/pick run last so they see final literal text).
// Unknown macros are left in the output untouched.
package macro

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/liquescentremedies/SillyTavern/internal/backend"
	"github.com/liquescentremedies/SillyTavern/internal/chat"
	"github.com/liquescentremedies/SillyTavern/internal/dice"
)

var (
	// legacy angle-bracket tags predating the {{...}} syntax
	userTagPattern           = regexp.MustCompile(`(?i)<USER>`)
	botTagPattern            = regexp.MustCompile(`(?i)<BOT>`)
	groupTagPattern          = regexp.MustCompile(`(?i)<GROUP>`)
	charIfNotGroupTagPattern = regexp.MustCompile(`(?i)<CHARIFNOTGROUP>`)

	rollPattern    = regexp.MustCompile(`(?i)\{\{roll[ :]\s*([^}]+)\}\}`)
	newlinePattern = regexp.MustCompile(`(?i)\{\{newline\}\}`)
	// trim eats the newline runs on both sides of itself
	trimPattern  = regexp.MustCompile(`(?i)(?:\r?\n)*\{\{trim\}\}(?:\r?\n)*`)
	noopPattern  = regexp.MustCompile(`(?i)\{\{noop\}\}`)
	inputPattern = regexp.MustCompile(`(?i)\{\{input\}\}`)

	maxPromptPattern       = regexp.MustCompile(`(?i)\{\{maxPrompt\}\}`)
	lastMessagePattern     = regexp.MustCompile(`(?i)\{\{lastMessage\}\}`)
	lastMessageIDPattern   = regexp.MustCompile(`(?i)\{\{lastMessageId\}\}`)
	lastUserMessagePattern = regexp.MustCompile(`(?i)\{\{lastUserMessage\}\}`)
	lastCharMessagePattern = regexp.MustCompile(`(?i)\{\{lastCharMessage\}\}`)
	firstIncludedIDPattern = regexp.MustCompile(`(?i)\{\{firstIncludedMessageId\}\}`)
	lastSwipeIDPattern     = regexp.MustCompile(`(?i)\{\{lastSwipeId\}\}`)
	currentSwipeIDPattern  = regexp.MustCompile(`(?i)\{\{currentSwipeId\}\}`)
	commentPattern         = regexp.MustCompile(`(?s)\{\{//(.*?)\}\}`)
	timePattern            = regexp.MustCompile(`(?i)\{\{time\}\}`)
	datePattern            = regexp.MustCompile(`(?i)\{\{date\}\}`)
	weekdayPattern         = regexp.MustCompile(`(?i)\{\{weekday\}\}`)
	isoTimePattern         = regexp.MustCompile(`(?i)\{\{isotime\}\}`)
	isoDatePattern         = regexp.MustCompile(`(?i)\{\{isodate\}\}`)
	datetimeFormatPattern  = regexp.MustCompile(`(?i)\{\{datetimeformat +([^}]*)\}\}`)
	idleDurationPattern    = regexp.MustCompile(`(?i)\{\{idle_duration\}\}`)
	timeUTCPattern         = regexp.MustCompile(`(?i)\{\{time_UTC([-+]\d+)\}\}`)
	bannedPattern          = regexp.MustCompile(`(?i)\{\{banned "(.*?)"\}\}`)
	randomPattern          = regexp.MustCompile(`(?i)\{\{random(?:::|[:, ])([^}]+)\}\}`)
	pickPattern            = regexp.MustCompile(`(?i)\{\{pick(?:::|[:, ])([^}]+)\}\}`)
)

// Resolver rewrites macros belonging to an external domain. The text
// comes back with that domain's macros consumed and everything else
// intact.
type Resolver func(text string) string

// EnvResolver is a Resolver that also sees the environment.
type EnvResolver func(text string, env *Env) string

// Expander substitutes macros in templates. All collaborators are
// optional; a nil collaborator degrades the macros that need it to
// empty output rather than failing.
type Expander struct {
	// History is the conversation backing the message macros.
	History chat.History
	// Metadata persists the chat-identity hash for {{pick}}.
	Metadata chat.MetadataStore
	// CurrentChatID identifies the active chat when the metadata has
	// no main_chat entry.
	CurrentChatID string
	// MaxContextSize reports the token budget for {{maxPrompt}}.
	MaxContextSize func() int
	// Input reads the current content of the user's compose box.
	Input func() string
	// Instruct consumes instruct-mode macros.
	Instruct EnvResolver
	// Variables consumes variable-store macros.
	Variables Resolver
	// Backend decides whether {{banned}} collects into BanSink.
	Backend backend.Selector
	// BanSink receives banned words. Append-only from here; the
	// generation component clears it between requests.
	BanSink *backend.BanSink
	// Placeholder replaces invalid rolls and empty lists. Default "".
	Placeholder string
	// Logger receives stage diagnostics; nil disables logging.
	Logger *slog.Logger

	nowFn clock
}

// Expand runs the full substitution pipeline over content. The stages
// and their order are fixed; see the package comment. Empty input
// returns empty output.
func (e *Expander) Expand(content string, env *Env) string {
	if content == "" {
		return ""
	}

	// pick seeds from the original template text, not the partially
	// substituted one
	rawContent := content

	content = e.legacyTags(content, env)

	// nothing below can match without an opening brace
	if !strings.Contains(content, "{{") {
		return content
	}

	stages := []struct {
		name string
		fn   func(string) string
	}{
		{"roll", e.diceRolls},
		{"instruct", func(s string) string {
			if e.Instruct == nil {
				return s
			}
			return e.Instruct(s, env)
		}},
		{"variables", func(s string) string {
			if e.Variables == nil {
				return s
			}
			return e.Variables(s)
		}},
		{"structural", e.structural},
		{"environment", func(s string) string { return e.environment(s, env) }},
		{"message", e.messageMacros},
		{"comments", func(s string) string { return commentPattern.ReplaceAllString(s, "") }},
		{"datetime", e.dateTimeMacros},
		{"banned", e.bannedWords},
		{"random", e.randomReplace},
		{"pick", func(s string) string { return e.pickReplace(s, rawContent) }},
	}

	for _, st := range stages {
		before := content
		content = st.fn(content)
		if e.Logger != nil && content != before {
			e.Logger.Debug("macro stage applied", "stage", st.name)
		}
	}

	return content
}

// legacyTags substitutes the angle-bracket tags that predate macro
// syntax. Values come from the environment's user/char/group entries.
func (e *Expander) legacyTags(content string, env *Env) string {
	if env == nil {
		return content
	}
	replaceTag := func(p *regexp.Regexp, key string) {
		if p.MatchString(content) {
			content = p.ReplaceAllLiteralString(content, env.Resolve(key))
		}
	}
	replaceTag(userTagPattern, "user")
	replaceTag(botTagPattern, "char")
	replaceTag(groupTagPattern, "group")
	replaceTag(charIfNotGroupTagPattern, "group")
	return content
}

// diceRolls evaluates {{roll:formula}} macros. Invalid notation is
// logged and replaced with the placeholder.
func (e *Expander) diceRolls(content string) string {
	return rollPattern.ReplaceAllStringFunc(content, func(match string) string {
		formula := strings.TrimSpace(rollPattern.FindStringSubmatch(match)[1])
		total, err := dice.Evaluate(formula)
		if err != nil {
			if e.Logger != nil {
				e.Logger.Warn("ignoring invalid roll macro", "formula", formula, "error", err)
			}
			return e.Placeholder
		}
		return strconv.Itoa(total)
	})
}

// structural handles newline, trim, noop and input, in that order.
func (e *Expander) structural(content string) string {
	content = newlinePattern.ReplaceAllString(content, "\n")
	content = trimPattern.ReplaceAllString(content, "")
	content = noopPattern.ReplaceAllString(content, "")
	content = inputPattern.ReplaceAllStringFunc(content, func(string) string {
		if e.Input == nil {
			return ""
		}
		return e.Input()
	})
	return content
}

// environment substitutes every {{key}} present in env, in insertion
// order. Producer values are only invoked when their key appears.
func (e *Expander) environment(content string, env *Env) string {
	if env == nil {
		return content
	}
	for _, key := range env.Keys() {
		pattern, err := regexp.Compile(`(?i)\{\{` + regexp.QuoteMeta(key) + `\}\}`)
		if err != nil {
			continue
		}
		if !pattern.MatchString(content) {
			continue
		}
		content = pattern.ReplaceAllLiteralString(content, env.Resolve(key))
	}
	return content
}

// messageMacros substitutes the history-derived macros. Lookups that
// find nothing substitute an empty string, never a literal placeholder.
func (e *Expander) messageMacros(content string) string {
	replace := func(p *regexp.Regexp, fn func() string) {
		if p.MatchString(content) {
			content = p.ReplaceAllLiteralString(content, fn())
		}
	}

	replace(maxPromptPattern, func() string {
		if e.MaxContextSize == nil {
			return ""
		}
		return strconv.Itoa(e.MaxContextSize())
	})
	replace(lastMessagePattern, e.History.LastMessage)
	replace(lastMessageIDPattern, func() string {
		id, ok := e.History.LastMessageID(chat.DefaultFindOptions(), nil)
		if !ok {
			return ""
		}
		return strconv.Itoa(id)
	})
	replace(lastUserMessagePattern, e.History.LastUserMessage)
	replace(lastCharMessagePattern, e.History.LastCharMessage)
	replace(firstIncludedIDPattern, func() string {
		id, ok := e.History.FirstIncludedMessageID()
		if !ok {
			return ""
		}
		return strconv.Itoa(id)
	})
	replace(lastSwipeIDPattern, func() string {
		n, ok := e.History.LastSwipeID()
		if !ok {
			return ""
		}
		return strconv.Itoa(n)
	})
	replace(currentSwipeIDPattern, func() string {
		n, ok := e.History.CurrentSwipeID()
		if !ok {
			return ""
		}
		return strconv.Itoa(n)
	})
	return content
}

// dateTimeMacros substitutes the clock-derived macros using
// moment-style format patterns.
func (e *Expander) dateTimeMacros(content string) string {
	now := e.nowFn.now()

	replace := func(p *regexp.Regexp, fn func() string) {
		if p.MatchString(content) {
			content = p.ReplaceAllLiteralString(content, fn())
		}
	}

	replace(timePattern, func() string { return formatTime(now, "LT") })
	replace(datePattern, func() string { return formatTime(now, "LL") })
	replace(weekdayPattern, func() string { return formatTime(now, "dddd") })
	replace(isoTimePattern, func() string { return formatTime(now, "HH:mm") })
	replace(isoDatePattern, func() string { return formatTime(now, "YYYY-MM-DD") })
	content = datetimeFormatPattern.ReplaceAllStringFunc(content, func(match string) string {
		pattern := datetimeFormatPattern.FindStringSubmatch(match)[1]
		return formatTime(now, pattern)
	})
	replace(idleDurationPattern, func() string { return e.History.IdleDurationAt(now) })
	content = timeUTCPattern.ReplaceAllStringFunc(content, func(match string) string {
		offset, err := strconv.Atoi(timeUTCPattern.FindStringSubmatch(match)[1])
		if err != nil {
			return ""
		}
		return formatTime(utcOffsetTime(now, offset), "LT")
	})
	return content
}

// bannedWords strips {{banned "word"}} spans, collecting the words into
// the sink only when the active backend can ban tokens.
func (e *Expander) bannedWords(content string) string {
	collect := e.Backend != nil && e.Backend.SupportsTokenBans() && e.BanSink != nil
	return bannedPattern.ReplaceAllStringFunc(content, func(match string) string {
		if collect {
			word := bannedPattern.FindStringSubmatch(match)[1]
			e.BanSink.Append(word)
			if e.Logger != nil {
				e.Logger.Info("collected banned word", "word", word)
			}
		}
		return ""
	})
}

// randomReplace resolves {{random}} lists with a fresh entropy-seeded
// source per match. Deliberately not reproducible.
func (e *Expander) randomReplace(content string) string {
	return randomPattern.ReplaceAllStringFunc(content, func(match string) string {
		list := parseList(randomPattern.FindStringSubmatch(match)[1])
		if len(list) == 0 {
			return e.Placeholder
		}
		rng := entropyRand()
		return list[pickIndex(rng, len(list))]
	})
}

// pickReplace resolves {{pick}} lists deterministically. The seed for
// each match combines the chat-identity hash, a hash of the original
// template, and the match's offset in the substituted text, so the same
// template re-rendered in the same chat picks the same element at the
// same position.
func (e *Expander) pickReplace(content, rawContent string) string {
	matches := pickPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return content
	}

	chatHash := ChatIDHash(e.Metadata, e.CurrentChatID)
	rawHash := stringHash(rawContent)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(content[last:start])

		list := parseList(content[m[2]:m[3]])
		if len(list) == 0 {
			b.WriteString(e.Placeholder)
		} else {
			seed := stringHash(fmt.Sprintf("%d-%d-%d", chatHash, rawHash, start))
			rng := seededRand(seed)
			b.WriteString(list[pickIndex(rng, len(list))])
		}
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}
