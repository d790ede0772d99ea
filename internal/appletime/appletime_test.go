package appletime

import (
	"testing"
	"time"
)

func TestToUnix_ZeroIsAbsent(t *testing.T) {
	if _, ok := ToUnix(0); ok {
		t.Fatalf("expected zero timestamp to be absent")
	}
	if _, ok := ToCalendar(0); ok {
		t.Fatalf("expected zero timestamp to be absent")
	}
}

func TestToUnix_Conversion(t *testing.T) {
	// 694224000 seconds after the Apple epoch = 2023-01-01 00:00:00 UTC.
	ts := int64(694224000) * 1_000_000_000
	unix, ok := ToUnix(ts)
	if !ok {
		t.Fatalf("expected timestamp to convert")
	}
	if unix != 1672531200 {
		t.Fatalf("expected 1672531200, got %d", unix)
	}
}

func TestToUnix_TruncatesSubsecond(t *testing.T) {
	ts := int64(694224000)*1_000_000_000 + 999_999_999
	unix, ok := ToUnix(ts)
	if !ok {
		t.Fatalf("expected timestamp to convert")
	}
	if unix != 1672531200 {
		t.Fatalf("expected sub-second part to truncate, got %d", unix)
	}
}

func TestToCalendar_LocalFormat(t *testing.T) {
	ts := int64(694224000) * 1_000_000_000
	got, ok := ToCalendar(ts)
	if !ok {
		t.Fatalf("expected timestamp to convert")
	}
	want := time.Unix(1672531200, 0).Format("2006-01-02 15:04:05")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
