package core

// Variables resolves ${...} references during template substitution.
type Variables interface {
	Get(key string) (string, bool)
}

// MapVariables is a Variables backed by a flat map.
type MapVariables map[string]string

func (m MapVariables) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// ChainVariables consults each Variables in order and returns the first hit.
type ChainVariables []Variables

func (c ChainVariables) Get(key string) (string, bool) {
	for _, v := range c {
		if v == nil {
			continue
		}
		if s, ok := v.Get(key); ok {
			return s, true
		}
	}
	return "", false
}
