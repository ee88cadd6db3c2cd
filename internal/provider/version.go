package provider

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// canonical turns "0.9.4" or "v0.9.4" into a semver string x/mod accepts.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// buildNumber parses a llama.cpp release tag such as "b6123".
func buildNumber(v string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(v), "b")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil && n >= 0
}

// CheckVersion reports whether the provider version have satisfies min.
// Both are semantic versions, or both release tags ("b6123"). An empty min
// accepts anything; an empty have cannot be checked and is accepted. Other
// versions are an error.
func CheckVersion(have, min string) error {
	if min == "" || have == "" {
		return nil
	}
	if hb, ok := buildNumber(have); ok {
		mb, ok := buildNumber(min)
		if !ok {
			return fmt.Errorf("provider release %s cannot be compared with required version %s", have, min)
		}
		if hb < mb {
			return fmt.Errorf("provider ggml %s is older than required %s", have, min)
		}
		return nil
	}
	h, m := canonical(have), canonical(min)
	if m == "" {
		return fmt.Errorf("invalid minimum provider version %q", min)
	}
	if h == "" {
		return fmt.Errorf("provider reported invalid version %q", have)
	}
	if semver.Compare(h, m) < 0 {
		return fmt.Errorf("provider ggml %s is older than required %s", have, min)
	}
	if semver.Major(h) != semver.Major(m) {
		return fmt.Errorf("provider ggml %s has a different major version than required %s", have, min)
	}
	return nil
}
