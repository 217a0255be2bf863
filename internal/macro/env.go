package macro

// Value is an environment entry: either a literal string or a
// zero-argument producer. Producers are invoked only when their macro
// actually appears in the template, preserving lazy evaluation.
type Value struct {
	literal string
	fn      func() string
}

// String wraps a literal string value.
func String(s string) Value {
	return Value{literal: s}
}

// Lazy wraps a producer that is called at substitution time.
func Lazy(fn func() string) Value {
	return Value{fn: fn}
}

// Resolve returns the literal or the producer's result.
func (v Value) Resolve() string {
	if v.fn != nil {
		return v.fn()
	}
	return v.literal
}

// Env is an insertion-ordered mapping of macro names to values. Names
// match case-insensitively in templates; substitution runs in the order
// keys were first set, which matters when one value's replacement text
// contains another macro's name.
type Env struct {
	keys   []string
	values map[string]Value
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{values: make(map[string]Value)}
}

// Set adds or replaces an entry. First-set order is preserved.
func (e *Env) Set(key string, value Value) *Env {
	if _, exists := e.values[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
	return e
}

// SetString is shorthand for Set(key, String(s)).
func (e *Env) SetString(key, s string) *Env {
	return e.Set(key, String(s))
}

// Get returns the value stored under key.
func (e *Env) Get(key string) (Value, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Resolve returns the substitution text for key, or "" when the key is
// absent.
func (e *Env) Resolve(key string) string {
	if v, ok := e.values[key]; ok {
		return v.Resolve()
	}
	return ""
}

// Keys returns the keys in insertion order.
func (e *Env) Keys() []string {
	return e.keys
}
