package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToLocalTime(t *testing.T) {
	utc := time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC)
	local := ToLocalTime(utc)
	assert.Equal(t, time.Date(2025, 3, 11, 2, 30, 0, 0, time.UTC), local)
	assert.Equal(t, "Mar 11, 2025 02:30 AM", ToLocalTimeString(utc))
}

func TestLocalDayStartUTC(t *testing.T) {
	// 20:30 UTC is already the next calendar day in Dhaka, so the local
	// day began at 18:00 UTC.
	utc := time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), LocalDayStartUTC(utc))

	// 10:00 UTC is mid-afternoon in Dhaka; the local day began at 18:00
	// UTC the previous evening.
	utc = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC), LocalDayStartUTC(utc))
}
