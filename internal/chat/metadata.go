package chat

// Well-known metadata keys.
const (
	// MetaChatIDHash caches the integer identity hash of a chat.
	MetaChatIDHash = "chat_id_hash"
	// MetaMainChat names the primary chat file for a character, used in
	// preference to the transient current chat id when hashing.
	MetaMainChat = "main_chat"
)

// MetadataStore holds small per-chat key/value metadata. Implementations
// persist writes; the caller owns durability guarantees. Stores are
// written by a single mutator at a time (UI interaction is serialized),
// so no locking is required of implementations.
type MetadataStore interface {
	// GetInt returns the integer stored under key, if present.
	GetInt(key string) (int, bool)
	// SetInt stores an integer under key.
	SetInt(key string, value int) error
	// GetString returns the string stored under key, if present.
	GetString(key string) (string, bool)
	// SetString stores a string under key.
	SetString(key, value string) error
}

// MemoryStore is a MetadataStore that lives only for the process.
// Useful for tests and for one-shot CLI runs without a metadata DB.
type MemoryStore struct {
	ints    map[string]int
	strings map[string]string
}

// NewMemoryStore returns an empty in-memory metadata store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ints:    make(map[string]int),
		strings: make(map[string]string),
	}
}

func (s *MemoryStore) GetInt(key string) (int, bool) {
	v, ok := s.ints[key]
	return v, ok
}

func (s *MemoryStore) SetInt(key string, value int) error {
	s.ints[key] = value
	return nil
}

func (s *MemoryStore) GetString(key string) (string, bool) {
	v, ok := s.strings[key]
	return v, ok
}

func (s *MemoryStore) SetString(key, value string) error {
	s.strings[key] = value
	return nil
}
