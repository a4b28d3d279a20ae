package utils

import "time"

// All timestamps are stored in UTC; the office runs on Bangladesh time.
const bangladeshUTCOffset = 6 * time.Hour

// ToLocalTime shifts a stored UTC timestamp to Bangladesh local time.
func ToLocalTime(t time.Time) time.Time {
	return t.Add(bangladeshUTCOffset)
}

// ToLocalTimeString formats a UTC timestamp for display.
func ToLocalTimeString(t time.Time) string {
	return ToLocalTime(t).Format("Jan 02, 2006 03:04 PM")
}

// LocalDayStartUTC returns the UTC instant at which the Bangladesh
// calendar day containing t begins.
func LocalDayStartUTC(t time.Time) time.Time {
	return ToLocalTime(t.UTC()).Truncate(24 * time.Hour).Add(-bangladeshUTCOffset)
}
