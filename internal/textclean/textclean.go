// Package textclean normalizes message text recovered from chat.db.
//
// Text decoded out of attributedBody blobs carries predictable junk: leading
// typesetting runes, trailing NSKeyedArchiver class names and __kIM metadata
// keys, and a single stray letter glued to the front of the real content. The
// rules here were derived from observed artifacts; they are applied in a fixed
// order and the pipeline is idempotent.
package textclean

import (
	"database/sql"
	"regexp"
	"strings"
	"unicode"
)

// Sentinels emitted by the decoder in place of real content. They pass
// through normalization untouched.
const (
	BinaryData = "[binary data]"
	NoText     = "[no text]"
)

var (
	leadingFormatRE   = regexp.MustCompile("^[+*!.,;#%`~^&@$\\s]+")
	trailingDictRE    = regexp.MustCompile(`\s*NSDictionary\s*$`)
	trailingMutableRE = regexp.MustCompile(`\s*NSMutable[A-Za-z]+\s*$`)
	trailingKIMRE     = regexp.MustCompile(`\s*&?__kIM\S*.*$`)
	trailingIJRE      = regexp.MustCompile(`[ij]I\S*$`)
	multiSpaceRE      = regexp.MustCompile(`  +`)
)

type rule struct {
	name  string
	apply func(string) string
}

// Order matters: later rules assume earlier ones already ran (the leading
// letter heuristic, for instance, only sees text that has had its format
// codes stripped).
var rules = []rule{
	{"image-placeholder", func(s string) string { return strings.ReplaceAll(s, "\ufffc", "[image]") }},
	{"strip-unprintable", StripUnprintable},
	{"leading-format-codes", func(s string) string { return leadingFormatRE.ReplaceAllString(s, "") }},
	{"trailing-nsdictionary", func(s string) string { return trailingDictRE.ReplaceAllString(s, "") }},
	{"trailing-nsmutable", func(s string) string { return trailingMutableRE.ReplaceAllString(s, "") }},
	{"trailing-kim-metadata", func(s string) string { return trailingKIMRE.ReplaceAllString(s, "") }},
	{"trailing-ij-artifact", func(s string) string { return trailingIJRE.ReplaceAllString(s, "") }},
	{"leading-digit", dropLeadingDigit},
	{"leading-letter", dropLeadingLetter},
	{"collapse-spaces", func(s string) string { return multiSpaceRE.ReplaceAllString(s, " ") }},
	{"trim", strings.TrimSpace},
}

// Normalize cleans decoding artifacts out of message text. Sentinel values
// pass through unchanged. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == BinaryData || text == NoText {
		return text
	}
	for _, r := range rules {
		text = r.apply(text)
	}
	return text
}

// NormalizeNullable applies Normalize to valid values and passes NULL through.
func NormalizeNullable(text sql.NullString) sql.NullString {
	if !text.Valid {
		return text
	}
	return sql.NullString{String: Normalize(text.String), Valid: true}
}

// StripUnprintable removes every rune that is not printable, keeping
// newline, carriage return and tab.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, s)
}

// dropLeadingDigit removes a single stray digit glued onto a word, e.g.
// "4Sounds good" -> "Sounds good". RE2 has no lookahead so this is a plain
// byte check rather than a regex.
func dropLeadingDigit(s string) string {
	if len(s) >= 2 && s[0] >= '0' && s[0] <= '9' && isASCIILetter(s[1]) {
		return s[1:]
	}
	return s
}

// dropLeadingLetter removes a single stray letter glued onto the real
// content. At most one of the three patterns fires, in this order:
//
//	"dOMG"        -> "OMG"         lowercase then uppercase
//	"Ohttps://x"  -> "https://x"   anything then a URL
//	"Ci believe"  -> "i believe"   anything then "i " or "i'"
//
// The first pattern deliberately does not fire on uppercase-uppercase
// ("OMG" stays "OMG") so genuine all-caps words survive.
func dropLeadingLetter(s string) string {
	r := []rune(s)
	if len(r) <= 2 || !unicode.IsLetter(r[0]) {
		return s
	}
	rest := string(r[1:])
	switch {
	case unicode.IsLower(r[0]) && unicode.IsUpper(r[1]):
		return rest
	case len(r) >= 5 && strings.EqualFold(string(r[1:5]), "http"):
		return rest
	case r[1] == 'i' && (r[2] == ' ' || r[2] == '\''):
		return rest
	}
	return s
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
