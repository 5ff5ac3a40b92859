package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	minBuckets = 5
	maxBuckets = 20
)

// Histogram is an equal-width bucketing of a sample series. Bounds has one
// more entry than Counts; bucket i covers (Bounds[i], Bounds[i+1]], except
// the first bucket which also holds Bounds[0].
type Histogram struct {
	Bounds []time.Duration `json:"bounds"`
	Counts []int           `json:"counts"`
}

// BucketCount returns ceil(sqrt(n)) clamped to [5, 20].
func BucketCount(n int) int {
	k := int(math.Ceil(math.Sqrt(float64(n))))
	return max(minBuckets, min(maxBuckets, k))
}

// BuildHistogram distributes samples across equal-width buckets spanning
// [min, max]. Identical samples collapse into a single bucket.
func BuildHistogram(samples []time.Duration) (Histogram, error) {
	if len(samples) == 0 {
		return Histogram{}, ErrNoSamples
	}

	lo, hi := samples[0], samples[0]
	for _, s := range samples[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	if lo == hi {
		return Histogram{
			Bounds: []time.Duration{lo, hi},
			Counts: []int{len(samples)},
		}, nil
	}

	k := BucketCount(len(samples))
	width := float64(hi-lo) / float64(k)

	h := Histogram{
		Bounds: make([]time.Duration, k+1),
		Counts: make([]int, k),
	}
	for i := range k {
		h.Bounds[i] = lo + time.Duration(math.Round(width*float64(i)))
	}
	h.Bounds[k] = hi

	for _, s := range samples {
		// Values sitting exactly on an upper boundary belong to the lower bucket.
		idx := sort.Search(k, func(i int) bool { return s <= h.Bounds[i+1] })
		h.Counts[min(k-1, idx)]++
	}
	return h, nil
}

// Total returns the number of samples across all buckets.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Render draws one row per bucket: range label, a bar scaled to the largest
// bucket, and the count.
func (h Histogram) Render(width int) string {
	if len(h.Counts) == 0 {
		return ""
	}
	if width <= 0 {
		width = 40
	}

	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}

	labels := make([]string, len(h.Counts))
	labelWidth := 0
	for i := range h.Counts {
		labels[i] = fmt.Sprintf("%s - %s", FormatDuration(h.Bounds[i]), FormatDuration(h.Bounds[i+1]))
		labelWidth = max(labelWidth, len(labels[i]))
	}

	var b strings.Builder
	for i, c := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = int(math.Round(float64(c) / float64(peak) * float64(width)))
		}
		if c > 0 && bar == 0 {
			bar = 1
		}
		fmt.Fprintf(&b, "%-*s | %s %d\n", labelWidth, labels[i], strings.Repeat("█", bar), c)
	}
	return b.String()
}
