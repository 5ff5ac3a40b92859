// Package template expands ${...} placeholders in request templates and
// checks JSON responses against expectations.
package template

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"benchkit/internal/core"
)

// placeholder matches ${name}, ${env:NAME} and ${fn(args)}.
var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Substitute expands every placeholder in text. Lookups go to built-in
// functions first, then the environment for env: names, then vars. All
// unresolved names are reported together.
func Substitute(text string, vars core.Variables) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}

	var errs []error
	out := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-1])

		if val, isFunc, err := evalFunction(name); isFunc {
			if err != nil {
				errs = append(errs, err)
				return match
			}
			return val
		}

		if env, ok := strings.CutPrefix(name, "env:"); ok {
			if val, ok := os.LookupEnv(env); ok {
				return val
			}
			errs = append(errs, fmt.Errorf("env var %q not set", env))
			return match
		}

		if vars != nil {
			if val, ok := vars.Get(name); ok {
				return val
			}
		}
		errs = append(errs, fmt.Errorf("variable %q not found", name))
		return match
	})

	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// SubstituteMap applies Substitute to every value of m.
func SubstituteMap(m map[string]string, vars core.Variables) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}

	out := make(map[string]string, len(m))
	var errs []error
	for k, v := range m {
		s, err := Substitute(v, vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		out[k] = s
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
