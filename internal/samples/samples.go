// Package samples ships the case functions and payload generators that
// manifests can reference by name without writing Go.
package samples

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"benchkit/internal/core"
	"benchkit/internal/data"
	"benchkit/internal/discovery"
	"benchkit/internal/template"
)

// DefaultSize is used when a scenario has no params.size.
const DefaultSize = 100

// Register adds every sample to r.
func Register(r *discovery.Registry) {
	r.Register("sort.builtin", SortBuiltin)
	r.Register("sort.insertion", SortInsertion)
	r.Register("strings.concat", ConcatPlus)
	r.Register("strings.builder", ConcatBuilder)
	r.Register("json.marshal", MarshalJSON)
	r.Register("hash.sha256", HashSHA256)
	r.Register("sleep", Sleep)

	r.RegisterGenerator("ints", RandomInts)
	r.RegisterGenerator("words", RandomWords)
}

// Size reads params.size, falling back to DefaultSize.
func Size(in core.Input) int {
	v, ok := template.NewJSONVariables("params", in.Params).Get("params.size")
	if !ok {
		return DefaultSize
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return DefaultSize
	}
	return n
}

// RandomInts generates params.size integers from a generator seeded by
// the scenario name, so reruns see the same input.
func RandomInts(_ context.Context, sc core.Scenario) (any, error) {
	rng := seeded(sc.Name)
	n := Size(core.Input{Params: sc.Params})
	out := make([]int, n)
	for i := range out {
		out[i] = rng.IntN(1 << 20)
	}
	return out, nil
}

func RandomWords(_ context.Context, sc core.Scenario) (any, error) {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	rng := seeded(sc.Name)
	n := Size(core.Input{Params: sc.Params})
	out := make([]string, n)
	for i := range out {
		b := make([]byte, 3+rng.IntN(6))
		for j := range b {
			b[j] = letters[rng.IntN(len(letters))]
		}
		out[i] = string(b)
	}
	return out, nil
}

func seeded(name string) *rand.Rand {
	sum := sha256.Sum256([]byte(name))
	var seed uint64
	for _, b := range sum[:8] {
		seed = seed<<8 | uint64(b)
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func ints(in core.Input) ([]int, error) {
	switch p := in.Payload.(type) {
	case []int:
		return slices.Clone(p), nil
	case nil:
		v, _ := RandomInts(context.Background(), core.Scenario{Params: in.Params})
		return v.([]int), nil
	}
	return nil, fmt.Errorf("expected an []int payload, got %T", in.Payload)
}

func words(in core.Input) ([]string, error) {
	switch p := in.Payload.(type) {
	case []string:
		return p, nil
	case nil:
		v, _ := RandomWords(context.Background(), core.Scenario{Params: in.Params})
		return v.([]string), nil
	}
	return nil, fmt.Errorf("expected a []string payload, got %T", in.Payload)
}

// SortBuiltin sorts a copy of the payload with slices.Sort.
func SortBuiltin(_ context.Context, in core.Input) (any, error) {
	s, err := ints(in)
	if err != nil {
		return nil, err
	}
	slices.Sort(s)
	return s, nil
}

func SortInsertion(_ context.Context, in core.Input) (any, error) {
	s, err := ints(in)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s, nil
}

func ConcatPlus(_ context.Context, in core.Input) (any, error) {
	w, err := words(in)
	if err != nil {
		return nil, err
	}
	var s string
	for _, word := range w {
		s += word
	}
	return s, nil
}

func ConcatBuilder(_ context.Context, in core.Input) (any, error) {
	w, err := words(in)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, word := range w {
		b.WriteString(word)
	}
	return b.String(), nil
}

// MarshalJSON encodes the payload, or the next row when the payload is a
// data source.
func MarshalJSON(_ context.Context, in core.Input) (any, error) {
	if src, ok := in.Payload.(*data.Source); ok {
		return json.Marshal(src.Next())
	}
	return json.Marshal(in.Payload)
}

// HashSHA256 hashes the concatenated payload words.
func HashSHA256(_ context.Context, in core.Input) (any, error) {
	w, err := words(in)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	for _, word := range w {
		h.Write([]byte(word))
	}
	return h.Sum(nil), nil
}

// Sleep blocks for params.ms milliseconds or until ctx is done.
func Sleep(ctx context.Context, in core.Input) (any, error) {
	ms := 1
	if v, ok := template.NewJSONVariables("params", in.Params).Get("params.ms"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			ms = n
		}
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, nil
	}
}
