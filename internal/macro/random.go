package macro

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"strings"
)

// parseList splits a random/pick list literal. A literal containing the
// double-colon separator splits on it verbatim; otherwise it splits on
// commas with each item trimmed.
func parseList(listString string) []string {
	if strings.Contains(listString, "::") {
		return strings.Split(listString, "::")
	}
	items := strings.Split(listString, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

// pickIndex maps a PRNG draw onto a list index the same way for both
// the random and pick resolvers.
func pickIndex(rng *mathrand.Rand, length int) int {
	idx := int(rng.Float64() * float64(length))
	if idx >= length {
		idx = length - 1
	}
	return idx
}

// entropyRand returns a freshly entropy-seeded source. Used by the
// random resolver, which must not be reproducible across calls.
func entropyRand() *mathrand.Rand {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return mathrand.New(mathrand.NewSource(mathrand.Int63()))
	}
	return mathrand.New(mathrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// seededRand returns a source that always produces the same sequence
// for the same seed. Used by the pick resolver.
func seededRand(seed int) *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(int64(seed)))
}
