package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO8601(t *testing.T) {
	d, err := ParseISO8601("2023-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseISO8601("")
	assert.Error(t, err)

	_, err = ParseISO8601("31/01/2023")
	assert.Error(t, err)

	assert.False(t, ValidateISO8601("2023-02-30"))
	assert.True(t, ValidateISO8601("2024-02-29"))
}

func TestFormatRunTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local)
	assert.Equal(t, "20240305_070809", FormatRunTimestamp(ts))
	assert.Equal(t, "Mar 05, 2024", FormatDisplay(ts))
}
