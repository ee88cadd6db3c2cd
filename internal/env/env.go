// Package env reads named values published through the process environment,
// which is how a provider build unit hands its install location to consumers.
package env

import (
	"os"
	"sort"
	"strings"
)

// Lookup resolves a named value. The boolean reports whether it was set.
type Lookup func(key string) (string, bool)

// OS returns a Lookup backed by the process environment.
func OS() Lookup {
	return os.LookupEnv
}

// Map returns a Lookup backed by m.
func Map(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Get returns the value of key, or "" when it is unset.
func (l Lookup) Get(key string) string {
	if l == nil {
		return ""
	}
	v, _ := l(key)
	return v
}

// First returns the first key among keys that is set to a non-empty value,
// together with that value.
func (l Lookup) First(keys ...string) (key, value string, ok bool) {
	if l == nil {
		return "", "", false
	}
	for _, k := range keys {
		if v, found := l(k); found && v != "" {
			return k, v, true
		}
	}
	return "", "", false
}

// Bool reports whether key is set to "1" or "true". A set-but-different value
// is false; set reports whether the key was present at all.
func (l Lookup) Bool(key string) (value, set bool) {
	if l == nil {
		return false, false
	}
	v, ok := l(key)
	if !ok {
		return false, false
	}
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true", true
}

// Var is a single KEY=VALUE pair.
type Var struct {
	Key   string
	Value string
}

// Prefixed returns the entries of environ whose key starts with prefix,
// sorted by key.
func Prefixed(environ []string, prefix string) []Var {
	var vars []Var
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		vars = append(vars, Var{Key: k, Value: v})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })
	return vars
}
