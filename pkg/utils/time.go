package utils

import "time"

// UnixMillis returns the current wall clock as Unix milliseconds, the
// timestamp convention carried in orderbook, health, and position fields.
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis converts Unix milliseconds back to a UTC time.Time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatDuration renders a duration compactly for hold-time and uptime
// logging, truncating to the two most significant units.
//
// Examples: "45s", "5m30s", "2h15m0s", "72h0m0s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute).String()
	}
	if minutes > 0 {
		if seconds > 0 {
			return (time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second).String()
		}
		return (time.Duration(minutes) * time.Minute).String()
	}
	return (time.Duration(seconds) * time.Second).String()
}
