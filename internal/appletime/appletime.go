// Package appletime converts Apple Messages timestamps.
//
// chat.db stores dates as nanoseconds since the Apple reference epoch
// (2001-01-01 00:00:00 UTC). A zero value means "no timestamp".
package appletime

import "time"

// AppleEpoch is the Unix timestamp of the Apple reference epoch.
const AppleEpoch int64 = 978307200

// ToUnix converts an Apple nanosecond timestamp to Unix seconds.
// The second return is false when ts is zero (absent).
func ToUnix(ts int64) (int64, bool) {
	if ts == 0 {
		return 0, false
	}
	return ts/1_000_000_000 + AppleEpoch, true
}

// ToCalendar converts an Apple nanosecond timestamp to a local-time
// "YYYY-MM-DD HH:MM:SS" string. The second return is false when ts is zero.
func ToCalendar(ts int64) (string, bool) {
	unix, ok := ToUnix(ts)
	if !ok {
		return "", false
	}
	return time.Unix(unix, 0).Format("2006-01-02 15:04:05"), true
}
