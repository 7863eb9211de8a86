package benchmark

import "strings"

// Reserved whole-key tokens used when a page cannot be bucketed.
const (
	TokenInsufficient  = "INSUFFICIENT"
	TokenUnavailable   = "UNAVAILABLE"
	TokenNotApplicable = "NOT_APPLICABLE"
)

// KeyKind tags a Key.
type KeyKind int

const (
	KindBucketed KeyKind = iota
	KindInsufficient
	KindUnavailable
	KindNotApplicable
)

// Key identifies a page's position in a definition's category space: either
// one bucket id per dimension, or one of the reserved fallbacks. It is
// serialized to the underscore-joined string form only at the boundary.
type Key struct {
	kind    KeyKind
	buckets []string
}

// Bucketed builds a key from bucket ids in dimension order.
func Bucketed(ids ...string) Key {
	b := make([]string, len(ids))
	copy(b, ids)
	return Key{kind: KindBucketed, buckets: b}
}

// Insufficient is the key for a sample too small to bucket.
func Insufficient() Key { return Key{kind: KindInsufficient} }

// Unavailable is the key for a metric that could not be measured.
func Unavailable() Key { return Key{kind: KindUnavailable} }

// NotApplicable is the key for a trigger that does not apply to the page.
func NotApplicable() Key { return Key{kind: KindNotApplicable} }

// Kind returns the key's tag.
func (k Key) Kind() KeyKind { return k.kind }

// IsFallback reports whether the key is one of the reserved fallbacks.
func (k Key) IsFallback() bool { return k.kind != KindBucketed }

// Buckets returns a copy of the per-dimension bucket ids (nil for fallbacks).
func (k Key) Buckets() []string {
	if k.kind != KindBucketed {
		return nil
	}
	out := make([]string, len(k.buckets))
	copy(out, k.buckets)
	return out
}

// Bucket returns the bucket id for dimension i, or "" when out of range.
func (k Key) Bucket(i int) string {
	if k.kind != KindBucketed || i < 0 || i >= len(k.buckets) {
		return ""
	}
	return k.buckets[i]
}

// String returns the wire form: bucket ids joined by "_" in dimension
// order, or the reserved token.
func (k Key) String() string {
	switch k.kind {
	case KindInsufficient:
		return TokenInsufficient
	case KindUnavailable:
		return TokenUnavailable
	case KindNotApplicable:
		return TokenNotApplicable
	default:
		return strings.Join(k.buckets, "_")
	}
}

// Equal reports whether two keys are identical.
func (k Key) Equal(other Key) bool {
	if k.kind != other.kind || len(k.buckets) != len(other.buckets) {
		return false
	}
	for i := range k.buckets {
		if k.buckets[i] != other.buckets[i] {
			return false
		}
	}
	return true
}

func fallbackFromToken(s string) (Key, bool) {
	switch s {
	case TokenInsufficient:
		return Insufficient(), true
	case TokenUnavailable:
		return Unavailable(), true
	case TokenNotApplicable:
		return NotApplicable(), true
	}
	return Key{}, false
}

func isReservedToken(s string) bool {
	_, ok := fallbackFromToken(s)
	return ok
}
