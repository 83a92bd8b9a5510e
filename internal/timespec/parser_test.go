package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 29, 14, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want time.Time
	}{
		{"1h", now.Add(-time.Hour)},
		{"1h30m", now.Add(-90 * time.Minute)},
		{"2025-10-29T13:00:00Z", time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, spec := range []string{"", "yesterday", "-1h", "2025-10-29"} {
		_, err := Parse(spec, now)
		assert.Error(t, err, spec)
	}
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("2h", "1h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), from)
	assert.Equal(t, now.Add(-time.Hour), to)

	from, to, err = ParseRange("", "", now)
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	_, _, err = ParseRange("1h", "2h", now)
	assert.ErrorContains(t, err, "--since must be before --until")

	_, _, err = ParseRange("bogus", "", now)
	assert.ErrorContains(t, err, "invalid --since")
}

func TestWithin(t *testing.T) {
	from := now.Add(-time.Hour)
	to := now

	assert.True(t, Within(now.Add(-30*time.Minute), from, to))
	assert.True(t, Within(from, from, to))
	assert.False(t, Within(to, from, to))
	assert.False(t, Within(now.Add(-2*time.Hour), from, to))
	assert.True(t, Within(now.Add(-48*time.Hour), time.Time{}, time.Time{}))
}
