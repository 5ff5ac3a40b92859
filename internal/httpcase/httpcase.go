// Package httpcase turns declarative HTTP request templates into case
// functions that can be measured like any other.
package httpcase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"benchkit/internal/core"
	"benchkit/internal/data"
	"benchkit/internal/template"
)

const (
	// maxBodySize bounds how much of a response is read for expectations.
	maxBodySize = 10 << 20
	// DefaultTimeout applies to the shared client.
	DefaultTimeout = 30 * time.Second
)

// Request is the manifest form of an HTTP case.
type Request struct {
	Method  string            `yaml:"method" json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	URL     string            `yaml:"url" json:"url" validate:"required"`
	Headers map[string]string `yaml:"headers" json:"headers"`
	Body    string            `yaml:"body" json:"body"`
	// Status, when set, must match the response status exactly.
	Status int `yaml:"status" json:"status" validate:"omitempty,gte=100,lte=599"`
	// Expect maps JSONPath expressions to expected values.
	Expect map[string]string `yaml:"expect" json:"expect"`
}

// NewClient returns the client shared by every HTTP case of a run.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Case performs one request per call.
type Case struct {
	name   string
	req    Request
	client *http.Client
	debug  *DebugLogger
}

func New(name string, req Request, client *http.Client, debug *DebugLogger) *Case {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if client == nil {
		client = NewClient()
	}
	return &Case{name: name, req: req, client: client, debug: debug}
}

// Func adapts c to a core.CaseFunc.
func (c *Case) Func() core.CaseFunc {
	return c.Do
}

// Do substitutes the templates against in, sends the request and checks
// the response. Statuses of 400 and above fail unless Status says otherwise.
func (c *Case) Do(ctx context.Context, in core.Input) (any, error) {
	vars := Variables(in)

	url, err := template.Substitute(c.req.URL, vars)
	if err != nil {
		return nil, c.fail(fmt.Errorf("url: %w", err))
	}
	body, err := template.Substitute(c.req.Body, vars)
	if err != nil {
		return nil, c.fail(fmt.Errorf("body: %w", err))
	}
	headers, err := template.SubstituteMap(c.req.Headers, vars)
	if err != nil {
		return nil, c.fail(fmt.Errorf("headers: %w", err))
	}

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, c.req.Method, url, reader)
	if err != nil {
		return nil, c.fail(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.debug.LogRequest(c.name, req, []byte(body))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.fail(err)
	}
	defer resp.Body.Close()

	needBody := len(c.req.Expect) > 0 || c.debug != nil
	var respBody []byte
	if needBody {
		respBody, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.debug.LogResponse(c.name, resp, respBody, time.Since(start))

	if c.req.Status != 0 {
		if resp.StatusCode != c.req.Status {
			return nil, c.fail(fmt.Errorf("unexpected status %s, want %d", resp.Status, c.req.Status))
		}
	} else if resp.StatusCode >= 400 {
		return nil, c.fail(fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := template.Expect(respBody, c.req.Expect); err != nil {
		return nil, c.fail(err)
	}
	return resp.StatusCode, nil
}

func (c *Case) fail(err error) error {
	c.debug.LogError(c.name, err)
	return fmt.Errorf("%s %s: %w", c.req.Method, c.req.URL, err)
}

// Variables builds the lookup chain for one call: params.*, then data.*
// from the next row of a data source payload, then payload.* for any other
// payload.
func Variables(in core.Input) core.Variables {
	chain := core.ChainVariables{template.NewJSONVariables("params", in.Params)}
	switch p := in.Payload.(type) {
	case nil:
	case *data.Source:
		chain = append(chain, data.Variables(p.Next()))
	default:
		chain = append(chain, template.NewJSONVariables("payload", p))
	}
	return chain
}
