package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstant(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		input   any
		want    time.Time
		wantErr bool
	}{
		{name: "native time", input: want.In(time.FixedZone("CET", 3600)), want: want},
		{name: "rfc3339", input: "2026-03-14T09:30:00Z", want: want},
		{name: "rfc3339 with offset", input: "2026-03-14T10:30:00+01:00", want: want},
		{name: "space separated", input: "2026-03-14 09:30", want: want},
		{name: "date only", input: "2026-03-14", want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "epoch seconds", input: int64(1773480600), want: time.Unix(1773480600, 0).UTC()},
		{name: "epoch millis", input: float64(1773480600000), want: time.Unix(1773480600, 0).UTC()},
		{name: "epoch string", input: "1773480600", want: time.Unix(1773480600, 0).UTC()},
		{name: "garbage", input: "half past nine", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "unsupported type", input: []string{"2026-03-14"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Instant(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
