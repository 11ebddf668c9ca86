package slug

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength matches the catalog slug column width
	MaxLength = 50

	DefaultSuffixLength = 4
	charset             = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Make converts s to a URL slug: ASCII-folded, lowercased, runs of spaces
// and hyphens collapsed to one hyphen, other punctuation dropped.
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingDash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case r > unicode.MaxASCII:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}

	out := strings.Trim(b.String(), "-_")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-_")
	}
	return out
}

// Generator produces candidate slugs for a base name
type Generator interface {
	Generate(base string) string
	GenerateWithSuffix(base string) (string, error)
}

// RandomSuffixGenerator appends random suffixes to disambiguate collisions
type RandomSuffixGenerator struct {
	suffixLength int
}

func NewRandomSuffixGenerator() Generator {
	return &RandomSuffixGenerator{suffixLength: DefaultSuffixLength}
}

func (g *RandomSuffixGenerator) Generate(base string) string {
	return Make(base)
}

// GenerateWithSuffix returns Make(base) with "-xxxx" appended, trimming the
// base so the whole slug stays within MaxLength.
func (g *RandomSuffixGenerator) GenerateWithSuffix(base string) (string, error) {
	b := make([]byte, g.suffixLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	for i := range b {
		b[i] = charset[b[i]%byte(len(charset))]
	}

	root := Make(base)
	if limit := MaxLength - g.suffixLength - 1; len(root) > limit {
		root = strings.TrimRight(root[:limit], "-_")
	}
	if root == "" {
		return string(b), nil
	}
	return root + "-" + string(b), nil
}
