package httpcase

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxBodyLogSize = 1024

// DebugLogger dumps requests and responses for --verbose runs. A nil
// *DebugLogger logs nothing.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

func (d *DebugLogger) LogRequest(caseName string, req *http.Request, body []byte) {
	if d == nil {
		return
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "\n[%s] >>> %s %s\n", caseName, req.Method, req.URL)
	writeHeaders(&b, req.Header)
	if len(body) > 0 {
		fmt.Fprintf(&b, "  Body: %s\n", truncateBody(body))
	}
	d.write(b.Bytes())
}

func (d *DebugLogger) LogResponse(caseName string, resp *http.Response, body []byte, took time.Duration) {
	if d == nil {
		return
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] <<< %d %s (%s)\n", caseName, resp.StatusCode, http.StatusText(resp.StatusCode), took.Round(time.Microsecond))
	writeHeaders(&b, resp.Header)
	if len(body) > 0 {
		fmt.Fprintf(&b, "  Body: %s\n", truncateBody(body))
	}
	d.write(b.Bytes())
}

func (d *DebugLogger) LogError(caseName string, err error) {
	if d == nil {
		return
	}
	d.write([]byte(fmt.Sprintf("[%s] !!! %v\n", caseName, err)))
}

func (d *DebugLogger) write(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = d.out.Write(p)
}

func writeHeaders(b *bytes.Buffer, h http.Header) {
	if len(h) == 0 {
		return
	}
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	b.WriteString("  Headers:\n")
	for _, name := range names {
		fmt.Fprintf(b, "    %s: %s\n", name, strings.Join(h[name], ", "))
	}
}

func truncateBody(body []byte) string {
	if len(body) <= maxBodyLogSize {
		return string(body)
	}
	return string(body[:maxBodyLogSize]) + fmt.Sprintf("... (truncated, %d bytes total)", len(body))
}
