package env

import (
	"testing"
)

func TestFirst(t *testing.T) {
	l := Map(map[string]string{
		"EMPTY":  "",
		"SECOND": "b",
		"THIRD":  "c",
	})

	key, value, ok := l.First("MISSING", "EMPTY", "SECOND", "THIRD")
	if !ok {
		t.Fatal("First() found nothing")
	}
	if key != "SECOND" || value != "b" {
		t.Errorf("First() = %q, %q, want %q, %q", key, value, "SECOND", "b")
	}

	if _, _, ok := l.First("MISSING", "EMPTY"); ok {
		t.Error("First() should skip unset and empty keys")
	}
}

func TestBool(t *testing.T) {
	l := Map(map[string]string{
		"ONE":   "1",
		"TRUE":  "True",
		"ZERO":  "0",
		"OTHER": "yes please",
	})

	tests := []struct {
		key       string
		wantValue bool
		wantSet   bool
	}{
		{"ONE", true, true},
		{"TRUE", true, true},
		{"ZERO", false, true},
		{"OTHER", false, true},
		{"MISSING", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			value, set := l.Bool(tt.key)
			if value != tt.wantValue || set != tt.wantSet {
				t.Errorf("Bool(%q) = %v, %v, want %v, %v", tt.key, value, set, tt.wantValue, tt.wantSet)
			}
		})
	}
}

func TestNilLookup(t *testing.T) {
	var l Lookup
	if got := l.Get("ANY"); got != "" {
		t.Errorf("nil Get() = %q, want empty", got)
	}
	if _, _, ok := l.First("ANY"); ok {
		t.Error("nil First() reported a value")
	}
}

func TestPrefixed(t *testing.T) {
	environ := []string{
		"DEP_GGML_ROOT=/opt/ggml",
		"PATH=/usr/bin",
		"DEP_GGML_INCLUDE=/opt/ggml/include",
		"CMAKE_GENERATOR=Ninja",
		"MALFORMED",
	}

	got := Prefixed(environ, "DEP_")
	want := []Var{
		{Key: "DEP_GGML_INCLUDE", Value: "/opt/ggml/include"},
		{Key: "DEP_GGML_ROOT", Value: "/opt/ggml"},
	}
	if len(got) != len(want) {
		t.Fatalf("Prefixed() returned %d vars, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Prefixed()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
