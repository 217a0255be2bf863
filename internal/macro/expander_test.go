package macro

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/liquescentremedies/SillyTavern/internal/backend"
	"github.com/liquescentremedies/SillyTavern/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() *Env {
	return NewEnv().
		SetString("user", "Alice").
		SetString("char", "Seraphina").
		SetString("group", "Alice, Seraphina")
}

func testExpander() *Expander {
	return &Expander{
		Metadata:      chat.NewMemoryStore(),
		CurrentChatID: "test-chat",
	}
}

func TestExpandEmptyInput(t *testing.T) {
	e := testExpander()
	assert.Equal(t, "", e.Expand("", testEnv()))
}

func TestExpandPlainTextIdentity(t *testing.T) {
	tests := []string{
		"no macros here at all",
		"single {braces} are not macros",
		"an unmatched {{ opener survives",
		"multi\nline\ntext",
	}

	e := testExpander()
	for _, input := range tests {
		assert.Equal(t, input, e.Expand(input, testEnv()))
	}
}

func TestExpandUnknownMacroPassthrough(t *testing.T) {
	e := testExpander()
	assert.Equal(t, "say {{totallyMadeUp}} twice", e.Expand("say {{totallyMadeUp}} twice", testEnv()))
}

func TestExpandLegacyTags(t *testing.T) {
	e := testExpander()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"user tag", "<USER> speaks", "Alice speaks"},
		{"bot tag", "reply from <BOT>", "reply from Seraphina"},
		{"group tag", "members: <GROUP>", "members: Alice, Seraphina"},
		{"char if not group tag", "<CHARIFNOTGROUP>", "Alice, Seraphina"},
		{"case insensitive", "<user> and <bot>", "Alice and Seraphina"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Expand(tt.input, testEnv()))
		})
	}
}

func TestExpandEnvironment(t *testing.T) {
	e := testExpander()
	env := testEnv().SetString("scenario", "a quiet forest")

	assert.Equal(t, "Alice meets Seraphina in a quiet forest",
		e.Expand("{{user}} meets {{char}} in {{scenario}}", env))

	// macro names match case-insensitively
	assert.Equal(t, "Alice", e.Expand("{{USER}}", env))
}

func TestExpandEnvironmentLazyProducer(t *testing.T) {
	e := testExpander()

	calls := 0
	env := testEnv().Set("expensive", Lazy(func() string {
		calls++
		return "computed"
	}))

	e.Expand("{{user}} only", env)
	assert.Equal(t, 0, calls, "producer invoked although its macro is absent")

	out := e.Expand("value: {{expensive}}", env)
	assert.Equal(t, "value: computed", out)
	assert.Equal(t, 1, calls)
}

func TestExpandStructuralMacros(t *testing.T) {
	e := testExpander()
	e.Input = func() string { return "typed text" }

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a{{newline}}b", "a\nb"},
		{"noop", "x{{noop}}y", "xy"},
		{"trim eats surrounding newlines", "a\n\n{{trim}}\n\nb", "ab"},
		{"trim alone", "{{trim}}", ""},
		{"input", "[{{input}}]", "[typed text]"},
		{"input case insensitive", "{{INPUT}}", "typed text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Expand(tt.input, testEnv()))
		})
	}
}

func TestExpandInputWithoutAccessor(t *testing.T) {
	e := testExpander()
	assert.Equal(t, "[]", e.Expand("[{{input}}]", testEnv()))
}

func TestExpandComments(t *testing.T) {
	e := testExpander()

	assert.Equal(t, "ab", e.Expand("a{{// invisible note}}b", testEnv()))
	assert.Equal(t, "ab", e.Expand("a{{// spans\nmultiple\nlines}}b", testEnv()))
	assert.Equal(t, "a-b", e.Expand("a{{//one}}-{{//two}}b", testEnv()))
}

func TestExpandMessageMacros(t *testing.T) {
	history := chat.History{
		{Text: "opening", IsUser: true, LastInContext: true},
		{Text: "the reply", IsUser: false, Swipes: []string{"the reply", "alt"}, SwipeID: 1},
		{Text: "latest question", IsUser: true},
	}

	e := testExpander()
	e.History = history
	e.MaxContextSize = func() int { return 4096 }

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"last message", "{{lastMessage}}", "latest question"},
		{"last message id", "{{lastMessageId}}", "2"},
		{"last user message", "{{lastUserMessage}}", "latest question"},
		{"last char message", "{{lastCharMessage}}", "the reply"},
		{"first included id", "{{firstIncludedMessageId}}", "0"},
		{"max prompt", "{{maxPrompt}}", "4096"},
		{"case insensitive", "{{lastmessage}}", "latest question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Expand(tt.input, testEnv()))
		})
	}
}

func TestExpandSwipeMacros(t *testing.T) {
	e := testExpander()
	e.History = chat.History{
		{Text: "x", Swipes: []string{"x", "y", "z"}, SwipeID: 1},
	}

	assert.Equal(t, "3", e.Expand("{{lastSwipeId}}", testEnv()))
	assert.Equal(t, "2", e.Expand("{{currentSwipeId}}", testEnv()))
}

func TestExpandMessageMacrosEmptyHistory(t *testing.T) {
	e := testExpander()

	tests := []string{
		"{{lastMessage}}",
		"{{lastMessageId}}",
		"{{lastUserMessage}}",
		"{{lastCharMessage}}",
		"{{firstIncludedMessageId}}",
		"{{lastSwipeId}}",
		"{{currentSwipeId}}",
		"{{maxPrompt}}",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, "", e.Expand(input, testEnv()))
		})
	}
}

func TestExpandRoll(t *testing.T) {
	e := testExpander()

	for i := 0; i < 50; i++ {
		out := e.Expand("{{roll:2d6}}", testEnv())
		n, err := strconv.Atoi(out)
		require.NoError(t, err, "roll output %q is not a number", out)
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 12)
	}

	for i := 0; i < 50; i++ {
		out := e.Expand("{{roll:6}}", testEnv())
		n, err := strconv.Atoi(out)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 6)
	}

	// space separator works too
	out := e.Expand("{{roll 1d1}}", testEnv())
	assert.Equal(t, "1", out)
}

func TestExpandRollInvalid(t *testing.T) {
	e := testExpander()
	assert.Equal(t, "", e.Expand("{{roll:notdice}}", testEnv()))

	e.Placeholder = "?"
	assert.Equal(t, "?", e.Expand("{{roll:notdice}}", testEnv()))
}

func TestExpandBannedWords(t *testing.T) {
	t.Run("supporting backend collects words", func(t *testing.T) {
		sink := &backend.BanSink{}
		e := testExpander()
		e.Backend = backend.KindTextGen
		e.BanSink = sink

		out := e.Expand(`pre {{banned "foo"}}{{banned "bar"}} post`, testEnv())
		assert.Equal(t, "pre  post", out)
		assert.Equal(t, []string{"foo", "bar"}, sink.Words())
	})

	t.Run("non-supporting backend still strips spans", func(t *testing.T) {
		sink := &backend.BanSink{}
		e := testExpander()
		e.Backend = backend.KindOpenAI
		e.BanSink = sink

		out := e.Expand(`pre {{banned "foo"}} post`, testEnv())
		assert.Equal(t, "pre  post", out)
		assert.Empty(t, sink.Words())
	})

	t.Run("no backend configured", func(t *testing.T) {
		e := testExpander()
		out := e.Expand(`{{banned "foo"}}`, testEnv())
		assert.Equal(t, "", out)
	})
}

func TestExpandRandom(t *testing.T) {
	e := testExpander()
	options := map[string]bool{"a": true, "b": true, "c": true}

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		out := e.Expand("{{random::a::b::c}}", testEnv())
		require.True(t, options[out], "unexpected random result %q", out)
		seen[out]++
	}

	// over 200 trials a uniform pick covers more than one option
	assert.Greater(t, len(seen), 1, "random always returned the same element")
}

func TestExpandRandomCommaForm(t *testing.T) {
	e := testExpander()
	options := map[string]bool{"red": true, "green": true, "blue": true}

	for i := 0; i < 50; i++ {
		out := e.Expand("{{random,red, green , blue}}", testEnv())
		assert.True(t, options[out], "unexpected random result %q", out)
	}
}

func TestExpandPickDeterministic(t *testing.T) {
	store := chat.NewMemoryStore()
	e := testExpander()
	e.Metadata = store

	template := "{{pick::a::b::c}} then {{pick::a::b::c}}"

	first := e.Expand(template, testEnv())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Expand(template, testEnv()))
	}

	for _, part := range strings.Split(first, " then ") {
		assert.Contains(t, []string{"a", "b", "c"}, part)
	}
}

func TestExpandPickSeedComponents(t *testing.T) {
	// the three seed components must each be able to change the seed
	chatHash := 11
	rawHash := stringHash("{{pick::a::b}}")
	seed := func(c, r, offset int) int {
		return stringHash(strconv.Itoa(c) + "-" + strconv.Itoa(r) + "-" + strconv.Itoa(offset))
	}

	base := seed(chatHash, rawHash, 0)
	assert.NotEqual(t, base, seed(chatHash+1, rawHash, 0))
	assert.NotEqual(t, base, seed(chatHash, rawHash+1, 0))
	assert.NotEqual(t, base, seed(chatHash, rawHash, 7))
}

func TestExpandDateTimeMacros(t *testing.T) {
	e := testExpander()
	fixed := time.Date(2024, 3, 10, 9, 5, 0, 0, time.UTC)
	e.nowFn = func() time.Time { return fixed }

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"isodate", "{{isodate}}", "2024-03-10"},
		{"isotime", "{{isotime}}", "09:05"},
		{"weekday", "{{weekday}}", "Sunday"},
		{"time", "{{time}}", "9:05 AM"},
		{"datetimeformat", "{{datetimeformat YYYY-MM-DD HH:mm}}", "2024-03-10 09:05"},
		{"utc offset positive", "{{time_UTC+2}}", "11:05 AM"},
		{"utc offset negative", "{{time_UTC-4}}", "5:05 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Expand(tt.input, testEnv()))
		})
	}
}

func TestExpandDate(t *testing.T) {
	e := testExpander()
	fixed := time.Date(2024, 3, 10, 9, 5, 0, 0, time.UTC)
	e.nowFn = func() time.Time { return fixed }

	out := e.Expand("{{date}}", testEnv())
	assert.Contains(t, out, "March")
	assert.Contains(t, out, "2024")
}

func TestExpandIdleDuration(t *testing.T) {
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	e := testExpander()
	e.nowFn = func() time.Time { return fixed }
	e.History = chat.History{
		{Text: "hi", IsUser: true, SendDate: fixed.Add(-17 * time.Minute)},
		{Text: "hello!", IsUser: false, SendDate: fixed.Add(-16 * time.Minute)},
	}

	assert.Equal(t, "17 minutes", e.Expand("{{idle_duration}}", testEnv()))

	e.History = nil
	assert.Equal(t, "just now", e.Expand("{{idle_duration}}", testEnv()))
}

func TestExpandStageOrdering(t *testing.T) {
	e := testExpander()

	// comments are stripped after environment substitution, so a comment
	// may reference macros without leaving residue behind
	assert.Equal(t, "ab", e.Expand("a{{// {{user}} }}b", testEnv()))

	// trim resolves before comments are stripped
	assert.Equal(t, "ab", e.Expand("a\n{{trim}}\n{{//gone}}b", testEnv()))
}

func TestExpandResolverDelegation(t *testing.T) {
	e := testExpander()
	e.Instruct = func(text string, env *Env) string {
		return strings.ReplaceAll(text, "{{instructSep}}", "###")
	}
	e.Variables = func(text string) string {
		return strings.ReplaceAll(text, "{{getvar::x}}", "42")
	}

	out := e.Expand("{{instructSep}} x={{getvar::x}}", testEnv())
	assert.Equal(t, "### x=42", out)
}
