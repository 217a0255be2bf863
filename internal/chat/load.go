package chat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	// userPattern matches "User: content" or "**User:** content"
	userPattern = regexp.MustCompile(`^(?:(?i:user):\s*|\*\*(?i:user):\*\*\s*)(.*)$`)
	// charPattern matches "Assistant: content" or "**Assistant:** content"
	charPattern = regexp.MustCompile(`^(?:(?i:assistant):\s*|\*\*(?i:assistant):\*\*\s*)(.*)$`)
)

// jsonlMessage is the on-disk shape of one chat line. Send dates appear
// in the wild as unix milliseconds or as formatted strings, so the field
// is decoded loosely.
type jsonlMessage struct {
	Name     string          `json:"name"`
	IsUser   bool            `json:"is_user"`
	IsSystem bool            `json:"is_system"`
	Text     string          `json:"mes"`
	Swipes   []string        `json:"swipes"`
	SwipeID  *int            `json:"swipe_id"`
	SendDate json.RawMessage `json:"send_date"`
}

// sendDateLayouts are tried in order when a send date is a string.
var sendDateLayouts = []string{
	time.RFC3339,
	"January 2, 2006 3:04pm",
	"2006-01-02 15:04:05",
}

func parseSendDate(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range sendDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// LoadJSONL reads a chat transcript stored as JSON Lines, one message
// per line. Lines that are not valid JSON objects are reported as
// errors; an optional header line without a "mes" field is skipped.
func LoadJSONL(path string) (History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat file: %w", err)
	}
	defer f.Close()

	var history History
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var wire jsonlMessage
		if err := json.Unmarshal([]byte(line), &wire); err != nil {
			return nil, fmt.Errorf("invalid chat record on line %d: %w", lineNo, err)
		}
		// chat files open with a metadata header that has no message body
		if lineNo == 1 && wire.Text == "" && !wire.IsUser {
			continue
		}

		msg := Message{
			Name:     wire.Name,
			Text:     wire.Text,
			IsUser:   wire.IsUser,
			IsSystem: wire.IsSystem,
			Swipes:   wire.Swipes,
			SendDate: parseSendDate(wire.SendDate),
		}
		if wire.SwipeID != nil {
			msg.SwipeID = *wire.SwipeID
		}
		history = append(history, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat file: %w", err)
	}

	return history, nil
}

// ParseText parses a plain-text transcript in the common
// "User: message" / "Assistant: message" form. Continuation lines are
// folded into the current message.
func ParseText(content string) (History, error) {
	var history History
	lines := strings.Split(content, "\n")

	var current *Message
	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			history = append(history, *current)
		}
		current = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if match := userPattern.FindStringSubmatch(line); match != nil {
			flush()
			current = &Message{IsUser: true, Text: match[1]}
		} else if match := charPattern.FindStringSubmatch(line); match != nil {
			flush()
			current = &Message{IsUser: false, Text: match[1]}
		} else if current != nil {
			if current.Text != "" {
				current.Text += "\n" + line
			} else {
				current.Text = line
			}
		}
		// lines before the first speaker marker are ignored
	}
	flush()

	if len(history) == 0 {
		return nil, fmt.Errorf("no conversation messages found")
	}
	return history, nil
}

// LoadFile loads a chat transcript, choosing the parser by extension:
// .jsonl files are JSON Lines, anything else is treated as plain text.
func LoadFile(path string) (History, error) {
	if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
		return LoadJSONL(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat file: %w", err)
	}
	return ParseText(string(content))
}
