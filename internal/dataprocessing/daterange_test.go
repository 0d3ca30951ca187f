package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "valid range",
			start:     "2024-01-05",
			end:       "2024-01-10",
			wantStart: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "single day",
			start:     "2024-03-01",
			end:       "2024-03-01",
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "end of year rolls over",
			start:     "2024-12-01",
			end:       "2024-12-31",
			wantStart: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "leap day",
			start:     "2024-02-29",
			end:       "2024-02-29",
			wantStart: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "slash separated", start: "2024/01/05", end: "2024-01-10", wantErr: true},
		{name: "bad end date", start: "2024-01-05", end: "10-01-2024", wantErr: true},
		{name: "single digit month", start: "2024-1-05", end: "2024-01-10", wantErr: true},
		{name: "impossible day", start: "2023-02-29", end: "2023-03-01", wantErr: true},
		{name: "empty", start: "", end: "", wantErr: true},
		{name: "trailing time", start: "2024-01-05T00:00:00", end: "2024-01-10", wantErr: true},
		{name: "leading space", start: " 2024-01-05", end: "2024-01-10", wantErr: true},
		{name: "trailing newline", start: "2024-01-05", end: "2024-01-10\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseDateRange(tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDateFormat)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(rng.Start), "start = %v", rng.Start)
			assert.True(t, tt.wantEnd.Equal(rng.End), "end = %v", rng.End)
			assert.Equal(t, tt.start, rng.RawStart)
			assert.Equal(t, tt.end, rng.RawEnd)
		})
	}
}
