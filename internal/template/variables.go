package template

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONVariables exposes an arbitrary value under a prefix, so that
// ${params.user.id} resolves against {"user": {"id": ...}}.
type JSONVariables struct {
	prefix string
	doc    []byte
}

// NewJSONVariables encodes v once; lookups are gjson paths below prefix.
func NewJSONVariables(prefix string, v any) *JSONVariables {
	doc, err := json.Marshal(v)
	if err != nil {
		doc = []byte("null")
	}
	return &JSONVariables{prefix: prefix, doc: doc}
}

func (j *JSONVariables) Get(key string) (string, bool) {
	if key == j.prefix {
		if gjson.ParseBytes(j.doc).Type == gjson.Null {
			return "", false
		}
		return gjson.ParseBytes(j.doc).String(), true
	}
	path, ok := strings.CutPrefix(key, j.prefix+".")
	if !ok {
		return "", false
	}
	res := gjson.GetBytes(j.doc, path)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}
