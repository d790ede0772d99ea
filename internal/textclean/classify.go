package textclean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reaction messages ("Loved "ok"") use a fixed verb vocabulary followed by
// whitespace. Matched with a regex rather than prefix checks because the
// quoted part uses Unicode curly quotes that vary between messages.
var reactionRE = regexp.MustCompile(`^(Reacted|Loved|Laughed|Emphasized|Disliked|Questioned|Liked)\s`)

// quoteRunes are the characters a quoting message ends with: ASCII quotes
// plus the Unicode curly variants.
var quoteRunes = map[rune]bool{
	'"':      true,
	'\'':     true,
	'“': true,
	'”': true,
	'‘': true,
	'’': true,
}

// IsReaction reports whether text is a tapback-style reaction message.
// Case-sensitive and anchored at the start.
func IsReaction(text string) bool {
	return reactionRE.MatchString(text)
}

// IsQuoted reports whether text ends with a quotation mark, which usually
// means it echoes another message.
func IsQuoted(text string) bool {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	return quoteRunes[last]
}
