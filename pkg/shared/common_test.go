package shared

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEveryWithBoundedGoroutines(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		count int
	}{
		{name: "single worker", limit: 1, count: 10},
		{name: "several workers", limit: 3, count: 25},
		{name: "non positive limit", limit: 0, count: 4},
		{name: "no values", limit: 2, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]int, tt.count)
			for i := range values {
				values[i] = i
			}

			var inFlight, peak int32
			var mu sync.Mutex
			seen := make(map[int]bool)

			ForEveryWithBoundedGoroutines(tt.limit, values, func(i int, v int) {
				cur := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
						break
					}
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
				atomic.AddInt32(&inFlight, -1)
			})

			assert.Len(t, seen, tt.count)
			limit := tt.limit
			if limit < 1 {
				limit = 1
			}
			assert.LessOrEqual(t, int(peak), limit)
		})
	}
}

func TestHasFlags(t *testing.T) {
	flags := pflag.NewFlagSet("review", pflag.ContinueOnError)
	flags.StringP("format", "f", "text", "")
	flags.IntP("jobs", "j", 0, "")

	require.NoError(t, flags.Parse(nil))
	assert.False(t, HasFlags(flags))

	require.NoError(t, flags.Parse([]string{"-j", "2", "--format", "json"}))
	assert.True(t, HasFlags(flags))
	assert.Equal(t, []string{"format", "jobs"}, ChangedFlags(flags))
}
