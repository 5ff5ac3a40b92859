package stats

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketCount(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{1, 5},
		{10, 5},
		{26, 6},
		{100, 10},
		{400, 20},
		{10000, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketCount(tt.n), "n=%d", tt.n)
	}
}

func TestBuildHistogram_Empty(t *testing.T) {
	_, err := BuildHistogram(nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestBuildHistogram_IdenticalSamples(t *testing.T) {
	h, err := BuildHistogram(ms(3, 3, 3, 3))
	require.NoError(t, err)

	assert.Equal(t, []int{4}, h.Counts)
	assert.Equal(t, ms(3, 3), h.Bounds)
}

func TestBuildHistogram_BoundaryGoesToLowerBucket(t *testing.T) {
	// width 2ms, bounds 0,2,4,6,8,10
	h, err := BuildHistogram(ms(0, 2, 4, 6, 10))
	require.NoError(t, err)

	assert.Equal(t, ms(0, 2, 4, 6, 8, 10), h.Bounds)
	assert.Equal(t, []int{2, 1, 1, 0, 1}, h.Counts)
}

func TestBuildHistogram_CountsFollowRoundedBounds(t *testing.T) {
	// 4 samples over 3ns: width 0.6ns rounds to bounds 0,1,1,2,2,3.
	samples := []time.Duration{0, 1, 2, 3}
	h, err := BuildHistogram(samples)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{0, 1, 1, 2, 2, 3}, h.Bounds)
	assert.Equal(t, []int{2, 0, 1, 0, 1}, h.Counts)
}

func TestBuildHistogram_SamplesFallInsideTheirBucket(t *testing.T) {
	for _, n := range []int{4, 9, 17, 60} {
		samples := make([]time.Duration, n)
		for i := range samples {
			samples[i] = time.Duration((i * 37) % 23)
		}

		h, err := BuildHistogram(samples)
		require.NoError(t, err)

		lo := h.Bounds[0]
		for _, s := range samples {
			idx := bucketOf(h, s)
			require.GreaterOrEqual(t, idx, 0, "n=%d sample=%d", n, s)
			if s == lo {
				assert.Equal(t, 0, idx, "n=%d sample=%d", n, s)
				continue
			}
			assert.Greater(t, s, h.Bounds[idx], "n=%d sample=%d", n, s)
			assert.LessOrEqual(t, s, h.Bounds[idx+1], "n=%d sample=%d", n, s)
		}

		want := make([]int, len(h.Counts))
		for _, s := range samples {
			want[bucketOf(h, s)]++
		}
		assert.Equal(t, want, h.Counts, "n=%d", n)
	}
}

// bucketOf returns the first bucket whose (lower, upper] range holds s,
// treating Bounds[0] as part of bucket 0.
func bucketOf(h Histogram, s time.Duration) int {
	if s == h.Bounds[0] {
		return 0
	}
	for i := range h.Counts {
		if s > h.Bounds[i] && s <= h.Bounds[i+1] {
			return i
		}
	}
	return -1
}

func TestBuildHistogram_CountsSumToN(t *testing.T) {
	for _, n := range []int{2, 7, 50, 123, 999} {
		samples := make([]time.Duration, n)
		for i := range samples {
			samples[i] = time.Duration((i*7919)%1000) * time.Microsecond
		}

		h, err := BuildHistogram(samples)
		require.NoError(t, err)

		assert.Equal(t, n, h.Total(), "n=%d", n)
		assert.Len(t, h.Bounds, len(h.Counts)+1)
		assert.GreaterOrEqual(t, len(h.Counts), 5)
		assert.LessOrEqual(t, len(h.Counts), 20)
	}
}

func TestHistogram_Render(t *testing.T) {
	h := Histogram{
		Bounds: ms(0, 1, 2),
		Counts: []int{4, 2},
	}

	lines := strings.Split(strings.TrimRight(h.Render(8), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], strings.Repeat("█", 8)+" 4")
	assert.Contains(t, lines[1], strings.Repeat("█", 4)+" 2")
	assert.NotContains(t, lines[1], strings.Repeat("█", 5))
}

func TestHistogram_RenderEmpty(t *testing.T) {
	assert.Empty(t, Histogram{}.Render(10))
}

func ExampleBuildHistogram() {
	h, _ := BuildHistogram([]time.Duration{
		0, 2 * time.Millisecond, 4 * time.Millisecond, 6 * time.Millisecond, 10 * time.Millisecond,
	})
	fmt.Println(h.Counts, h.Total())
	// Output: [2 1 1 0 1] 5
}
