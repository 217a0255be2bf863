// Package chat models a conversation as an ordered list of messages and
// provides the lookups the macro engine needs: most-recent message by
// author kind, swipe bookkeeping, context-window boundary, and elapsed
// time since the user's previous turn.
package chat

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Message is a single entry in a chat transcript.
type Message struct {
	// Name is the display name of the author.
	Name string `json:"name"`
	// Text is the currently displayed body of the message.
	Text string `json:"mes"`
	// IsUser is true for messages authored by the human user.
	IsUser bool `json:"is_user"`
	// IsSystem is true for hidden/system messages (narrator notes,
	// comments); these are excluded from most history lookups.
	IsSystem bool `json:"is_system"`
	// Swipes holds alternative generations for this message slot.
	Swipes []string `json:"swipes,omitempty"`
	// SwipeID is the index of the currently selected swipe. An index
	// equal to len(Swipes) means a new swipe is still being generated.
	SwipeID int `json:"swipe_id,omitempty"`
	// SendDate is when the message was sent.
	SendDate time.Time `json:"send_date,omitempty"`
	// LastInContext marks the oldest message the renderer kept inside
	// the active context window. The renderer marks at most one message.
	LastInContext bool `json:"-"`
}

// InProgress reports whether this message slot is still generating:
// its selected swipe index points one past the end of the swipe list.
func (m Message) InProgress() bool {
	return m.Swipes != nil && m.SwipeID == len(m.Swipes)
}

// History is an ordered conversation, oldest message first.
type History []Message

// FindOptions controls how history lookups treat a message that is
// still generating.
type FindOptions struct {
	// ExcludeSwipeInProgress skips the in-progress message, if any.
	ExcludeSwipeInProgress bool
}

// DefaultFindOptions excludes the in-progress message, matching what a
// prompt builder wants: only text that actually exists yet.
func DefaultFindOptions() FindOptions {
	return FindOptions{ExcludeSwipeInProgress: true}
}

// LastMessageID returns the index of the newest message matching filter,
// scanning from newest to oldest. A nil filter matches every message.
// The second return value is false when history is empty or nothing
// matches.
func (h History) LastMessageID(opts FindOptions, filter func(Message) bool) (int, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if opts.ExcludeSwipeInProgress && h[i].InProgress() {
			continue
		}
		if filter == nil || filter(h[i]) {
			return i, true
		}
	}
	return 0, false
}

// LastMessage returns the text of the newest completed message, or ""
// if the history is empty.
func (h History) LastMessage() string {
	if id, ok := h.LastMessageID(DefaultFindOptions(), nil); ok {
		return h[id].Text
	}
	return ""
}

// LastUserMessage returns the text of the newest non-system user
// message, or "" if there is none.
func (h History) LastUserMessage() string {
	id, ok := h.LastMessageID(DefaultFindOptions(), func(m Message) bool {
		return m.IsUser && !m.IsSystem
	})
	if !ok {
		return ""
	}
	return h[id].Text
}

// LastCharMessage returns the text of the newest non-system character
// message, or "" if there is none.
func (h History) LastCharMessage() string {
	id, ok := h.LastMessageID(DefaultFindOptions(), func(m Message) bool {
		return !m.IsUser && !m.IsSystem
	})
	if !ok {
		return ""
	}
	return h[id].Text
}

// FirstIncludedMessageID returns the index of the message the renderer
// marked as the oldest one inside the active context window. The second
// return value is false when no message carries the marker.
func (h History) FirstIncludedMessageID() (int, bool) {
	for i, m := range h {
		if m.LastInContext {
			return i, true
		}
	}
	return 0, false
}

// LastSwipeID returns the swipe count of the newest message, including
// an in-progress one. False when history is empty.
func (h History) LastSwipeID() (int, bool) {
	id, ok := h.LastMessageID(FindOptions{ExcludeSwipeInProgress: false}, nil)
	if !ok {
		return 0, false
	}
	return len(h[id].Swipes), true
}

// CurrentSwipeID returns the 1-based index of the selected swipe on the
// newest message, including an in-progress one. A stored index of 0
// means no swipe is selected, which reports as unset.
func (h History) CurrentSwipeID() (int, bool) {
	id, ok := h.LastMessageID(FindOptions{ExcludeSwipeInProgress: false}, nil)
	if !ok || h[id].SwipeID == 0 {
		return 0, false
	}
	return h[id].SwipeID + 1, true
}

// IdleDuration returns a human-readable duration since the user message
// that immediately precedes the newest non-system message. Walking from
// the newest message backward and skipping system messages, the first
// non-system message is passed over; the next one counts only if the
// user wrote it. Returns "just now" when no such message exists.
//
// Note the newest non-system message being the user's own therefore
// does NOT report the time since that message. This mirrors the
// host application's behavior; see DESIGN.md before changing it.
func (h History) IdleDuration() string {
	return h.IdleDurationAt(time.Now())
}

// IdleDurationAt is IdleDuration measured against an explicit "now".
func (h History) IdleDurationAt(now time.Time) string {
	takeNext := false
	for i := len(h) - 1; i >= 0; i-- {
		m := h[i]
		if m.IsSystem {
			continue
		}
		if takeNext {
			if m.IsUser && !m.SendDate.IsZero() {
				return strings.TrimSpace(humanize.RelTime(m.SendDate, now, "", ""))
			}
			break
		}
		takeNext = true
	}
	return "just now"
}
