package macro

import (
	"hash/fnv"

	"github.com/liquescentremedies/SillyTavern/internal/chat"
)

// stringHash maps a string to a small stable integer. FNV-1a is enough
// here: the hash only feeds PRNG seeds and chat identity, neither of
// which needs collision resistance.
func stringHash(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32())
}

// ChatIDHash returns the persisted identity hash for a chat, creating
// it on first use. The hash is computed from the chat's main chat name
// when the metadata has one, otherwise from currentChatID, and then
// stored so it stays stable across reloads and renames.
func ChatIDHash(store chat.MetadataStore, currentChatID string) int {
	if store == nil {
		return stringHash(currentChatID)
	}
	if cached, ok := store.GetInt(chat.MetaChatIDHash); ok {
		return cached
	}

	id := currentChatID
	if main, ok := store.GetString(chat.MetaMainChat); ok && main != "" {
		id = main
	}

	h := stringHash(id)
	_ = store.SetInt(chat.MetaChatIDHash, h)
	return h
}
