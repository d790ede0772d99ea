// Package decode recovers message text from attributedBody blobs.
//
// The blob is an NSKeyedArchiver payload wrapping an NSAttributedString.
// Only the plain string is wanted, so instead of parsing the full object
// graph the decoder walks an ordered fallback chain and takes the first
// strategy that yields text. Truncated or corrupted blobs degrade to the
// "[binary data]" sentinel instead of failing the row.
package decode

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Napageneral/chatclean/internal/textclean"
)

// stringMarker tags the NSString value inside the archive. The string
// payload starts 8 bytes past the marker and runs to the next NUL.
var stringMarker = []byte("NSString")

// rawScanOffset is where the raw scan starts. Empirical: the archive header
// occupies roughly the first 50 bytes of every observed blob.
const rawScanOffset = 50

// Unarchiver is an optional platform capability that can deserialize a keyed
// archive and return its plain string. On platforms without one, Unavailable
// stands in and the decoder relies on the byte-scan strategies.
type Unarchiver interface {
	Available() bool
	PlainString(data []byte) (string, error)
}

type unavailable struct{}

func (unavailable) Available() bool { return false }

func (unavailable) PlainString([]byte) (string, error) {
	return "", errors.New("keyed unarchiver not available")
}

// Unavailable returns an Unarchiver that always declines.
func Unavailable() Unarchiver { return unavailable{} }

// Decoder recovers text from attributedBody blobs. The zero value is usable
// and skips the unarchiver strategy.
type Decoder struct {
	Unarchiver Unarchiver
}

// New returns a Decoder using the given unarchiver, which may be nil.
func New(u Unarchiver) *Decoder {
	if u == nil {
		u = unavailable{}
	}
	return &Decoder{Unarchiver: u}
}

// Decode returns the best-effort text for an attributedBody blob. It always
// returns a string; when every strategy fails the result is the
// "[binary data]" sentinel.
func (d *Decoder) Decode(data []byte) string {
	if s := d.unarchive(data); s != "" {
		return s
	}
	if s := markerScan(data); s != "" {
		return s
	}
	if s := rawScan(data); s != "" {
		return s
	}
	return textclean.BinaryData
}

// unarchive runs the optional platform strategy. Any error or panic from the
// capability is treated as a decline and never escapes the decoder.
func (d *Decoder) unarchive(data []byte) (out string) {
	u := d.Unarchiver
	if u == nil || !u.Available() {
		return ""
	}
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	s, err := u.PlainString(data)
	if err != nil {
		return ""
	}
	return s
}

// markerScan finds the NSString marker and reads the NUL-terminated value
// that starts 8 bytes past it.
func markerScan(data []byte) string {
	idx := bytes.Index(data, stringMarker)
	if idx < 0 {
		return ""
	}
	start := idx + len(stringMarker)
	if start >= len(data) {
		return ""
	}
	end := bytes.IndexByte(data[start:], 0x00)
	if end <= 0 {
		return ""
	}
	return lossyUTF8(data[start : start+end])
}

// rawScan decodes everything past the archive header and keeps whatever
// printable text survives.
func rawScan(data []byte) string {
	if len(data) <= rawScanOffset {
		return ""
	}
	s := textclean.StripUnprintable(lossyUTF8(data[rawScanOffset:]))
	return strings.TrimSpace(s)
}

// lossyUTF8 decodes bytes as UTF-8, dropping invalid bytes instead of
// substituting replacement characters.
func lossyUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			data = data[1:]
			continue
		}
		sb.WriteRune(r)
		data = data[size:]
	}
	return sb.String()
}
