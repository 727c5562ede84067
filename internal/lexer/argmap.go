package lexer

import "strings"

// ArgMap is a case/separator-normalized string-to-string mapping with
// stable iteration order, used for the three scope layers (per-call args,
// block-level defs, lexer-global globals).
type ArgMap struct {
	keys   []string
	values map[string]string
}

// NewArgMap returns an empty ArgMap ready to use.
func NewArgMap() ArgMap {
	return ArgMap{values: make(map[string]string)}
}

// normalizeKey lowercases ASCII and replaces '-' with '_'. KeywordResolver
// uses it only for Config.DisabledKeywords lookups; its identifier matching
// (matchesKeyword) is case-sensitive.
func normalizeKey(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c == '-':
			b[i] = '_'
		case c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Set stores value under the normalized form of name.
func (m *ArgMap) Set(name, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	key := normalizeKey(name)
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get tries name as given first, then its normalized form.
func (m ArgMap) Get(name string) (string, bool) {
	if m.values == nil {
		return "", false
	}
	if v, ok := m.values[name]; ok {
		return v, true
	}
	v, ok := m.values[normalizeKey(name)]
	return v, ok
}

// ForEach visits every entry in insertion order.
func (m ArgMap) ForEach(visit func(key, value string)) {
	for _, k := range m.keys {
		visit(k, m.values[k])
	}
}

// Len reports the number of entries.
func (m ArgMap) Len() int {
	return len(m.keys)
}

// Validate reports the first (k, v) in m whose normalized key is absent
// from defs, in m's stable insertion order. ctx names the block or
// generator being validated, for the returned error's message.
func (m ArgMap) Validate(defs ArgMap, ctx string) error {
	for _, k := range m.keys {
		if _, ok := defs.values[k]; !ok {
			return &UnknownArgumentError{Context: ctx, Key: k, Value: m.values[k]}
		}
	}
	return nil
}

// Clone returns an independent copy; mutating the result never affects m.
func (m ArgMap) Clone() ArgMap {
	out := ArgMap{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]string, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

func (m ArgMap) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
