// Package pair derives deterministic document keys for user pairs.
//
// Likes and dislikes are directed, so their key depends on argument order.
// Matches are undirected, so their key is computed over the sorted pair and
// Sorted(a, b) == Sorted(b, a). Using these keys as primary keys turns
// "check, then insert" into a single insert-if-absent.
package pair

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// KeyLen is the length of every key produced by this package.
const KeyLen = 2 * 20

// Ordered returns the key of the directed pair from → to.
func Ordered(from, to string) string {
	return digest("o", from, to)
}

// Sorted returns the key of the unordered pair {a, b}.
func Sorted(a, b string) string {
	lo, hi := Sort(a, b)
	return digest("s", lo, hi)
}

// Sort returns a and b in lexical order.
func Sort(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Other returns the member of {a, b} that is not id, or "" when id is in neither slot.
func Other(a, b, id string) string {
	switch id {
	case a:
		return b
	case b:
		return a
	}
	return ""
}

func digest(kind, x, y string) string {
	h, _ := blake2b.New(20, nil) // only fails for size > 64 or key > 64
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(x))
	h.Write([]byte{0})
	h.Write([]byte(y))
	return hex.EncodeToString(h.Sum(nil))
}
