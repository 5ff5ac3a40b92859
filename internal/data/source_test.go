package data

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/internal/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_CSVSequential(t *testing.T) {
	path := writeFile(t, "users.csv", "username,age\nalice,25\nbob,30\ncharlie\n")

	src, err := LoadFile("users", path, ModeSequential)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())
	assert.Equal(t, "users", src.Name())

	var names []any
	for range 4 {
		names = append(names, src.Next()["username"])
	}
	assert.Equal(t, []any{"alice", "bob", "charlie", "alice"}, names)
	assert.Equal(t, "", src.Rows()[2]["age"])
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "items.json", `[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`)

	src, err := LoadFile("items", path, "")
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, src.Mode())
	assert.Equal(t, 1.0, src.Next()["id"])
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "items.yaml", "- sku: x1\n  qty: 3\n- sku: x2\n  qty: 5\n")

	src, err := LoadFile("items", path, ModeSequential)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())
	assert.Equal(t, "x1", src.Next()["sku"])
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"header only csv", "h.csv", "a,b\n"},
		{"json object", "o.json", `{"a": 1}`},
		{"empty json", "e.json", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile("x", writeFile(t, tt.file, tt.body), ModeSequential)
			assert.Error(t, err)
		})
	}

	_, err := LoadFile("x", writeFile(t, "rows.txt", "a"), ModeSequential)
	assert.ErrorIs(t, err, core.ErrUnsupportedFile)

	_, err = LoadFile("x", filepath.Join(t.TempDir(), "missing.csv"), ModeSequential)
	assert.Error(t, err)
}

func TestSource_RandomIsSeeded(t *testing.T) {
	rows := []Row{{"v": 1}, {"v": 2}, {"v": 3}, {"v": 4}}
	a := NewSeededSource("a", rows, ModeRandom, 42)
	b := NewSeededSource("b", rows, ModeRandom, 42)

	for range 20 {
		ra, rb := a.Next(), b.Next()
		assert.Equal(t, ra, rb)
		assert.Contains(t, rows, ra)
	}
}

func TestSource_EmptyAndReset(t *testing.T) {
	assert.Nil(t, NewSource("empty", nil, ModeSequential).Next())

	src := NewSource("s", []Row{{"n": 1}, {"n": 2}}, ModeSequential)
	src.Next()
	src.Reset()
	assert.Equal(t, 1, src.Next()["n"])
}

func TestSource_ConcurrentNext(t *testing.T) {
	src := NewSource("s", []Row{{"n": 1}, {"n": 2}, {"n": 3}}, ModeSequential)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 30 {
				assert.NotNil(t, src.Next())
			}
		}()
	}
	wg.Wait()

	// 300 calls over 3 rows leave the cursor back at the start.
	assert.Equal(t, 1, src.Next()["n"])
}

func TestVariables(t *testing.T) {
	v := Variables{"user": "alice", "age": 30}

	got, ok := v.Get("data.user")
	assert.True(t, ok)
	assert.Equal(t, "alice", got)

	got, ok = v.Get("data.age")
	assert.True(t, ok)
	assert.Equal(t, "30", got)

	_, ok = v.Get("user")
	assert.False(t, ok)
	_, ok = v.Get("data.missing")
	assert.False(t, ok)
}

func TestGenerator_FreshSourcePerScenario(t *testing.T) {
	path := writeFile(t, "rows.csv", "k\na\nb\n")
	gen := Generator(path, ModeSequential)

	first, err := gen(context.Background(), core.Scenario{Name: "one"})
	require.NoError(t, err)
	src := first.(*Source)
	assert.Equal(t, "one", src.Name())
	src.Next()

	second, err := gen(context.Background(), core.Scenario{Name: "two"})
	require.NoError(t, err)
	assert.Equal(t, "a", second.(*Source).Next()["k"])
}
