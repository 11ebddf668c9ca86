package cache

import (
	"encoding/hex"
)

// Kind is the catalog resource a cache entry belongs to.
type Kind string

const (
	KindCategory Kind = "category"
	KindProduct  Kind = "product"
)

// Scope distinguishes collection results from single-item lookups.
type Scope string

const (
	ScopeList   Scope = "list"
	ScopeDetail Scope = "detail"
)

const (
	keySeparator = "_"

	// escapeMarker and absentMarker never appear in a plain qualifier, so
	// escaped, absent and plain qualifiers cannot collide.
	escapeMarker = "%"
	absentMarker = "#"
)

// Qualifier is the optional detail-lookup argument (a slug or slug fragment).
// The zero value is an absent qualifier, which is not the same key as an
// empty-string qualifier.
type Qualifier struct {
	value string
	set   bool
}

// NoQualifier is the absent qualifier.
var NoQualifier = Qualifier{}

// Slug wraps s, including the empty string, as a present qualifier.
func Slug(s string) Qualifier {
	return Qualifier{value: s, set: true}
}

// DeriveKey maps (kind, scope, qualifier) to a stable cache key.
//
// List keys are "<kind>_list" and ignore the qualifier. Detail keys are
// "<kind>_<slug>" for plain slugs; any qualifier that could be mistaken for
// the list key or another qualifier is hex-escaped behind '%', and an absent
// qualifier becomes '#'.
func DeriveKey(kind Kind, scope Scope, q Qualifier) string {
	prefix := string(kind) + keySeparator
	if scope == ScopeList {
		return prefix + string(ScopeList)
	}
	if !q.set {
		return prefix + absentMarker
	}
	if isPlain(q.value) {
		return prefix + q.value
	}
	return prefix + escapeMarker + hex.EncodeToString([]byte(q.value))
}

// ListKey returns the collection key for kind.
func ListKey(kind Kind) string {
	return DeriveKey(kind, ScopeList, NoQualifier)
}

// DetailKey returns the lookup key for a slug or slug fragment.
func DetailKey(kind Kind, slug string) string {
	return DeriveKey(kind, ScopeDetail, Slug(slug))
}

// DetailPrefix matches every detail key of kind, plus its list key.
func DetailPrefix(kind Kind) string {
	return string(kind) + keySeparator
}

// isPlain reports whether s can be used verbatim: non-empty, slug alphabet
// only and not the reserved list literal.
func isPlain(s string) bool {
	if s == "" || s == string(ScopeList) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
