package decode

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Napageneral/chatclean/internal/textclean"
)

// markerBlob builds a minimal archive fragment: the NSString marker, 8 header
// bytes (invalid UTF-8, as in real blobs), the text, and a NUL terminator.
func markerBlob(text string) []byte {
	blob := []byte("NSString")
	blob = append(blob, 0x81, 0x84, 0x95, 0x81, 0x84, 0x95, 0x81, 0x84)
	blob = append(blob, []byte(text)...)
	blob = append(blob, 0x00)
	return blob
}

func TestDecode_MarkerScan(t *testing.T) {
	d := New(nil)
	if got := d.Decode(markerBlob("hello")); got != "hello" {
		t.Fatalf("expected \"hello\", got %q", got)
	}
}

func TestDecode_MarkerScanUnicode(t *testing.T) {
	d := New(nil)
	if got := d.Decode(markerBlob("héllo ça va")); got != "héllo ça va" {
		t.Fatalf("expected decoded unicode text, got %q", got)
	}
}

func TestDecode_RawScan(t *testing.T) {
	blob := make([]byte, rawScanOffset)
	blob = append(blob, []byte("some recovered text")...)
	d := New(nil)
	if got := d.Decode(blob); got != "some recovered text" {
		t.Fatalf("expected raw scan text, got %q", got)
	}
}

func TestDecode_Sentinel(t *testing.T) {
	d := New(nil)
	cases := [][]byte{
		nil,
		{},
		{0xff, 0xfe, 0x01, 0x02},
		make([]byte, 200), // all NUL, nothing printable past the offset
	}
	for _, blob := range cases {
		if got := d.Decode(blob); got != textclean.BinaryData {
			t.Fatalf("expected sentinel for %d-byte blob, got %q", len(blob), got)
		}
	}
}

func TestDecode_Total(t *testing.T) {
	// Decode must return a non-empty string for arbitrary bytes, never panic.
	rng := rand.New(rand.NewSource(1))
	d := New(nil)
	for i := 0; i < 500; i++ {
		blob := make([]byte, rng.Intn(300))
		rng.Read(blob)
		if got := d.Decode(blob); got == "" {
			t.Fatalf("empty result for random blob of %d bytes", len(blob))
		}
	}
}

type fakeUnarchiver struct {
	text string
	err  error
	boom bool
}

func (f fakeUnarchiver) Available() bool { return true }

func (f fakeUnarchiver) PlainString([]byte) (string, error) {
	if f.boom {
		panic("corrupt archive")
	}
	return f.text, f.err
}

func TestDecode_UnarchiverWins(t *testing.T) {
	d := New(fakeUnarchiver{text: "from the unarchiver"})
	if got := d.Decode(markerBlob("fallback")); got != "from the unarchiver" {
		t.Fatalf("expected unarchiver result, got %q", got)
	}
}

func TestDecode_UnarchiverErrorFallsThrough(t *testing.T) {
	d := New(fakeUnarchiver{err: errors.New("bad archive")})
	if got := d.Decode(markerBlob("fallback")); got != "fallback" {
		t.Fatalf("expected marker scan fallback, got %q", got)
	}
}

func TestDecode_UnarchiverPanicFallsThrough(t *testing.T) {
	d := New(fakeUnarchiver{boom: true})
	if got := d.Decode(markerBlob("fallback")); got != "fallback" {
		t.Fatalf("expected marker scan fallback after panic, got %q", got)
	}
}
