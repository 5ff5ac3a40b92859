package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// AnyValue as an expected value only asserts that the path exists.
const AnyValue = "*"

// Expect checks a JSON body against rules mapping JSONPath expressions
// ($.items[0].id) to expected string values. Every failing rule is reported.
func Expect(body []byte, rules map[string]string) error {
	if len(rules) == 0 {
		return nil
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("response body is not valid JSON")
	}

	paths := make([]string, 0, len(rules))
	for p := range rules {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var errs []error
	for _, p := range paths {
		want := rules[p]
		got := gjson.GetBytes(body, convertJSONPath(p))
		switch {
		case !got.Exists():
			errs = append(errs, fmt.Errorf("%s: not found", p))
		case want != AnyValue && got.String() != want:
			errs = append(errs, fmt.Errorf("%s: expected %q, got %q", p, want, got.String()))
		}
	}
	return errors.Join(errs...)
}

// convertJSONPath rewrites JSONPath into gjson syntax:
// $.a.b -> a.b, $.items[0].id -> items.0.id, $.data[*].name -> data.#.name
func convertJSONPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if path[i] == '[' {
			if j := strings.IndexByte(path[i:], ']'); j > 0 {
				idx := path[i+1 : i+j]
				if b.Len() > 0 {
					b.WriteByte('.')
				}
				if idx == "*" {
					b.WriteByte('#')
				} else {
					b.WriteString(idx)
				}
				i += j
				continue
			}
		}
		b.WriteByte(path[i])
	}
	return b.String()
}
