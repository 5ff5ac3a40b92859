package template

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/internal/core"
)

func TestSubstitute(t *testing.T) {
	t.Setenv("BENCH_BASE", "https://api.example.com")
	vars := core.MapVariables{"user_id": "42", "token": "secret"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no placeholders", "Bearer static", "Bearer static"},
		{"variable", "Bearer ${token}", "Bearer secret"},
		{"several", "/users/${user_id}?auth=${token}", "/users/42?auth=secret"},
		{"env", "${env:BENCH_BASE}/users/${user_id}", "https://api.example.com/users/42"},
		{"padded", "${ token }", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substitute(tt.in, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_ReportsEveryMissingName(t *testing.T) {
	_, err := Substitute("${a}/${b}/${env:BENCHKIT_SURELY_UNSET}", core.MapVariables{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)
	assert.Contains(t, err.Error(), "BENCHKIT_SURELY_UNSET")
}

func TestSubstitute_Functions(t *testing.T) {
	out, err := Substitute("${uuid()}", nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`), out)

	out, err = Substitute("${random(5,5)}", nil)
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	out, err = Substitute("${random_string(12)}", nil)
	require.NoError(t, err)
	assert.Len(t, out, 12)

	out, err = Substitute("${date(2006)}", nil)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(time.Now().Year()), out)

	before := time.Now().Unix()
	out, err = Substitute("${timestamp()}", nil)
	require.NoError(t, err)
	ts, err := strconv.ParseInt(out, 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)

	out, err = Substitute("${timestamp_ms()}", nil)
	require.NoError(t, err)
	assert.Len(t, out, 13)
}

func TestSubstitute_FunctionErrors(t *testing.T) {
	for _, in := range []string{"${uuid(1)}", "${random(9,1)}", "${random(x)}", "${random_string(0)}"} {
		_, err := Substitute(in, nil)
		assert.Error(t, err, in)
	}
}

func TestSubstitute_UnknownFunctionIsAVariable(t *testing.T) {
	_, err := Substitute("${nope()}", core.MapVariables{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSubstituteMap(t *testing.T) {
	vars := core.MapVariables{"token": "t0k"}

	out, err := SubstituteMap(map[string]string{"Authorization": "Bearer ${token}", "Accept": "application/json"}, vars)
	require.NoError(t, err)
	assert.Equal(t, "Bearer t0k", out["Authorization"])
	assert.Equal(t, "application/json", out["Accept"])

	_, err = SubstituteMap(map[string]string{"X-Id": "${missing}"}, vars)
	assert.ErrorContains(t, err, "X-Id")

	out, err = SubstituteMap(nil, vars)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestJSONVariables(t *testing.T) {
	params := map[string]any{"size": 10, "user": map[string]any{"id": "u-1"}, "tags": []string{"a", "b"}}
	v := NewJSONVariables("params", params)

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"params.size", "10", true},
		{"params.user.id", "u-1", true},
		{"params.tags.1", "b", true},
		{"params.missing", "", false},
		{"payload.size", "", false},
	}
	for _, tt := range tests {
		got, ok := v.Get(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}

	scalar := NewJSONVariables("payload", "raw")
	got, ok := scalar.Get("payload")
	assert.True(t, ok)
	assert.Equal(t, "raw", got)

	_, ok = NewJSONVariables("payload", nil).Get("payload")
	assert.False(t, ok)
}

func TestExpect(t *testing.T) {
	body := []byte(`{"status": "ok", "count": 3, "items": [{"id": 1}, {"id": 2}]}`)

	assert.NoError(t, Expect(body, nil))
	assert.NoError(t, Expect(body, map[string]string{
		"$.status":      "ok",
		"$.count":       "3",
		"$.items[1].id": "2",
		"$.items":       AnyValue,
	}))

	err := Expect(body, map[string]string{"$.status": "down", "$.missing": AnyValue})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected "down", got "ok"`)
	assert.Contains(t, err.Error(), "$.missing: not found")

	assert.Error(t, Expect([]byte("<html>"), map[string]string{"$.a": "*"}))
}

func TestConvertJSONPath(t *testing.T) {
	tests := map[string]string{
		"$.a.b":          "a.b",
		"$.items[0].id":  "items.0.id",
		"$.data[*].name": "data.#.name",
		"$[2]":           "2",
		"plain.path":     "plain.path",
	}
	for in, want := range tests {
		assert.Equal(t, want, convertJSONPath(in), in)
	}
}

func TestRandomString_Charset(t *testing.T) {
	s, err := fnRandomString("200")
	require.NoError(t, err)
	assert.Empty(t, strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"))
}
