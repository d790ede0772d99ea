package textclean

import (
	"database/sql"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello there", "hello there"},
		{"object replacement char", "￼", "[image]"},
		{"image inline", "look at this￼", "look at this[image]"},
		{"leading format codes", "!!+ what's up", "what's up"},
		{"trailing nsdictionary", "see you soon NSDictionary", "see you soon"},
		{"trailing nsmutable", "on my way NSMutableAttributedString", "on my way"},
		{"trailing kim metadata", "sounds good &__kIMBaseWritingDirectionAttributeName", "sounds good"},
		{"leading digit artifact", "4Sounds good", "Sounds good"},
		{"lower-upper artifact", "dOMG", "OMG"},
		{"all caps preserved", "OMG", "OMG"},
		{"url artifact", "Ohttps://x.com", "https://x.com"},
		{"i-space artifact", "Ci believe you", "i believe you"},
		{"i-apostrophe artifact", "Ti'll be there", "i'll be there"},
		{"collapse spaces", "too    many spaces", "too many spaces"},
		{"trim", "  hello  ", "hello"},
		{"empty", "", ""},
		{"combined", "  !!dOMG that's wild￼  ", "OMG that's wild[image]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"hello there",
		"  !!dOMG that's wild￼  ",
		"4Sounds good NSDictionary",
		"Ohttps://x.com",
		"Ci believe you",
		"too    many   spaces",
		"trailing meta &__kIMMessagePartAttributeName",
		"",
		"OMG",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestRules_IdempotentIndividually(t *testing.T) {
	inputs := []string{
		"hello there",
		"  !!dOMG that's wild￼  ",
		"4Sounds good NSDictionary",
		"Ohttps://x.com",
		"Ci believe you",
		"too    many   spaces",
		"trailing meta &__kIMMessagePartAttributeName",
		"",
	}
	for _, r := range rules {
		for _, in := range inputs {
			once := r.apply(in)
			if twice := r.apply(once); twice != once {
				t.Fatalf("rule %s not idempotent on %q: first %q, second %q", r.name, in, once, twice)
			}
		}
	}
}

func TestNormalize_SentinelPassthrough(t *testing.T) {
	for _, s := range []string{BinaryData, NoText} {
		if got := Normalize(s); got != s {
			t.Fatalf("sentinel %q changed to %q", s, got)
		}
	}
}

func TestNormalizeNullable(t *testing.T) {
	null := sql.NullString{}
	if got := NormalizeNullable(null); got.Valid {
		t.Fatalf("NULL should pass through, got %+v", got)
	}
	valid := sql.NullString{String: "  hi  ", Valid: true}
	got := NormalizeNullable(valid)
	if !got.Valid || got.String != "hi" {
		t.Fatalf("expected valid \"hi\", got %+v", got)
	}
}
