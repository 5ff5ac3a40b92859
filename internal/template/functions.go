package template

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var funcs = map[string]func(args string) (string, error){
	"uuid":          fnUUID,
	"timestamp":     fnTimestamp,
	"timestamp_ms":  fnTimestampMs,
	"random":        fnRandom,
	"random_string": fnRandomString,
	"date":          fnDate,
}

// evalFunction runs expr if it is a call to a known function. The second
// result reports whether expr was a function call at all.
func evalFunction(expr string) (string, bool, error) {
	open := strings.Index(expr, "(")
	if open == -1 || !strings.HasSuffix(expr, ")") {
		return "", false, nil
	}

	name := expr[:open]
	fn, ok := funcs[name]
	if !ok {
		return "", false, nil
	}
	out, err := fn(expr[open+1 : len(expr)-1])
	if err != nil {
		return "", true, fmt.Errorf("%s(): %w", name, err)
	}
	return out, true, nil
}

func noArgs(args string) error {
	if strings.TrimSpace(args) != "" {
		return fmt.Errorf("takes no arguments")
	}
	return nil
}

func fnUUID(args string) (string, error) {
	if err := noArgs(args); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func fnTimestamp(args string) (string, error) {
	if err := noArgs(args); err != nil {
		return "", err
	}
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

func fnTimestampMs(args string) (string, error) {
	if err := noArgs(args); err != nil {
		return "", err
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}

// fnRandom returns an integer in [lo, hi].
func fnRandom(args string) (string, error) {
	lo, hi, ok := strings.Cut(args, ",")
	if !ok {
		return "", fmt.Errorf("expects two arguments: random(min,max)")
	}
	min, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid min: %w", err)
	}
	max, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid max: %w", err)
	}
	if min > max {
		return "", fmt.Errorf("min (%d) must be <= max (%d)", min, max)
	}
	return strconv.FormatInt(min+rand.Int64N(max-min+1), 10), nil
}

func fnRandomString(args string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "", fmt.Errorf("invalid length: %w", err)
	}
	if n <= 0 || n > 1000 {
		return "", fmt.Errorf("length must be between 1 and 1000, got %d", n)
	}

	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b), nil
}

// fnDate formats the current time with a Go layout, RFC 3339 by default.
func fnDate(args string) (string, error) {
	layout := strings.TrimSpace(args)
	if layout == "" {
		layout = time.RFC3339
	}
	return time.Now().Format(layout), nil
}
