// Package stats turns raw duration samples into summary statistics and
// distribution views.
package stats

import (
	"errors"
	"math"
	"slices"
	"time"
)

// ErrNoSamples is returned when a calculation is asked to summarise nothing.
var ErrNoSamples = errors.New("no samples")

// Statistics summarises one series of durations.
type Statistics struct {
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	StdDev time.Duration `json:"stdDev"`
	P95    time.Duration `json:"p95"`
	CV     float64       `json:"cv"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	N      int           `json:"n"`
}

// Calculate summarises samples. The input slice is not modified.
//
// StdDev is the sample standard deviation (n-1 denominator), zero for a
// single sample. P95 interpolates linearly between the two nearest ranks.
// CV is StdDev/Mean and is zero when the mean is zero.
func Calculate(samples []time.Duration) (Statistics, error) {
	n := len(samples)
	if n == 0 {
		return Statistics{}, ErrNoSamples
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	mean := meanOf(samples)
	sd := math.Sqrt(varianceOf(samples, mean))

	s := Statistics{
		Mean:   time.Duration(math.Round(mean)),
		Median: median(sorted),
		StdDev: time.Duration(math.Round(sd)),
		P95:    Percentile(sorted, 0.95),
		Min:    sorted[0],
		Max:    sorted[n-1],
		N:      n,
	}
	if mean != 0 {
		s.CV = sd / mean
	}
	return s, nil
}

// Percentile returns the p-th quantile (0..1) of an ascending slice using
// linear interpolation between ranks.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	v := float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
	return time.Duration(math.Round(v))
}

func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func meanOf(samples []time.Duration) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	return sum / float64(len(samples))
}

// varianceOf returns the unbiased sample variance.
func varianceOf(samples []time.Duration, mean float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var sq float64
	for _, s := range samples {
		d := float64(s) - mean
		sq += d * d
	}
	return sq / float64(len(samples)-1)
}
