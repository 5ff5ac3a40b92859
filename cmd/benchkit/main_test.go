package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/internal/target"
)

const manifest = `
name: sorting
generator: ints
iterations: 5
timeLimit: 5s
scenarios:
  - name: small
    params: {size: 50}
cases:
  - name: builtin
    fn: sort.builtin
  - name: insertion
    fn: sort.insertion
`

func setup(t *testing.T, configBody string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "benchmarks", "sorting"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "benchmarks", "sorting", "manifest.yaml"), []byte(manifest), 0o644))
	cfgPath = filepath.Join(dir, "bench.config.yaml")
	body := "discovery:\n  benchmarkDir: " + filepath.Join(dir, "benchmarks") + "\n" + configBody
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return dir, cfgPath
}

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestList(t *testing.T) {
	_, cfg := setup(t, "")

	code, out, errOut := run("list", "--config", cfg)
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "sorting")
}

func TestList_JSON(t *testing.T) {
	_, cfg := setup(t, "")

	code, out, errOut := run("list", "--config", cfg, "--output", "json")
	require.Equal(t, ExitSuccess, code, errOut)

	var rows []listing
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "sorting", rows[0].Name)
	assert.Equal(t, 2, rows[0].Cases)
}

func TestRun_Text(t *testing.T) {
	_, cfg := setup(t, "")

	code, out, errOut := run("run", "sorting", "--config", cfg, "--quiet", "--log-level", "error")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "builtin")
	assert.Contains(t, out, "insertion")
	assert.Contains(t, out, "ops/sec")
}

func TestRun_JSONOutput(t *testing.T) {
	_, cfg := setup(t, "")

	code, out, errOut := run("run", "sorting", "--config", cfg, "--quiet", "--output", "json", "--log-level", "error")
	require.Equal(t, ExitSuccess, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, "sorting", rec["benchmark"])
	}
}

func TestRun_ThresholdFailure(t *testing.T) {
	_, cfg := setup(t, "thresholds:\n  mean: 1ns\n")

	code, out, errOut := run("run", "sorting", "--config", cfg, "--quiet", "--log-level", "error")
	assert.Equal(t, ExitThresholdFailed, code)
	assert.Contains(t, out, "Thresholds")
	assert.Contains(t, errOut, "Threshold check failed!")
}

func TestRunBenchmark_InterruptFails(t *testing.T) {
	_, cfg := setup(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	opts := &options{
		configPath: cfg,
		output:     "text",
		quiet:      true,
		logLevel:   "error",
		logFormat:  "text",
		stdout:     &out,
		stderr:     &errOut,
	}
	err := runBenchmark(ctx, opts, "sorting")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "sorting interrupted")
	assert.NotContains(t, out.String(), "ops/sec")
}

func TestRun_NotFound(t *testing.T) {
	_, cfg := setup(t, "")

	code, _, errOut := run("run", "missing", "--config", cfg, "--quiet")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "[BENCHMARK_NOT_FOUND]")
}

func TestRun_WritesTraceAndMetrics(t *testing.T) {
	dir, cfg := setup(t, "")
	traceFile := filepath.Join(dir, "trace.json")
	promFile := filepath.Join(dir, "bench.prom")

	code, _, errOut := run("run", "sorting", "--config", cfg, "--quiet", "--log-level", "error",
		"--trace-file", traceFile, "--prom-textfile", promFile)
	require.Equal(t, ExitSuccess, code, errOut)

	trace, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(trace), "case builtin")

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `benchkit_case_mean_seconds{benchmark="sorting",case="builtin",scenario="small"}`)
}

func TestRun_UnknownHook(t *testing.T) {
	_, cfg := setup(t, "hooks:\n  postCase: [nope]\n")

	code, _, errOut := run("run", "sorting", "--config", cfg, "--quiet")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "unknown hook")
}

func TestRun_BadOutputFlag(t *testing.T) {
	code, _, errOut := run("list", "--output", "xml")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "--output")
}

func TestRun_RequiresName(t *testing.T) {
	code, _, _ := run("run")
	assert.Equal(t, ExitError, code)
}

func TestRun_HTTPBenchmark(t *testing.T) {
	ts := httptest.NewServer(target.NewServer().Handler())
	defer ts.Close()

	dir := t.TempDir()
	manifestBody := `
name: api
type: http
iterations: 3
scenarios:
  - name: ten
    params: {n: 10}
cases:
  - name: items
    request:
      url: ` + ts.URL + `/items?n=${params.n}
      expect:
        $.count: "10"
  - name: health
    request:
      url: ` + ts.URL + `/health
      status: 200
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifestBody), 0o644))

	code, out, errOut := run("run", "api", "--dir", dir, "--config", writeConfig(t, ""), "--quiet", "--log-level", "error")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "items")
	assert.Contains(t, out, "health")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var errOut bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- serve(ctx, &options{stderr: &errOut}, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, errOut.String(), "/health")
}
