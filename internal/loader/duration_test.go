package loader_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/loader"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"90s", 90 * time.Second},
		{"30m", 30 * time.Minute},
		{"2h", 2 * time.Hour},
		{"2d", 48 * time.Hour},
		{"1h30m", 90 * time.Minute},
		{"250ms", 250 * time.Millisecond},
		{"01:30", 90 * time.Minute},
		{"01:30:15", 90*time.Minute + 15*time.Second},
		{"00:00:45", 45 * time.Second},
		{" 5m ", 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := loader.ParseTimeout(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeout_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-5m:", "1:2:3:4", "xx:30", "1.5d"} {
		t.Run(in, func(t *testing.T) {
			_, err := loader.ParseTimeout(in)
			require.Error(t, err)

			var parseErr *loader.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}
