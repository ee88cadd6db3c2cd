package link

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format names a directive encoding.
type Format string

const (
	// Cargo writes cargo:rustc-link-* build script lines.
	Cargo Format = "cargo"
	// Cgo writes #cgo LDFLAGS lines for a Go package preamble.
	Cgo Format = "cgo"
	// JSON writes the directives as a JSON array.
	JSON Format = "json"
)

// Formats lists the supported encodings.
func Formats() []string {
	return []string{string(Cargo), string(Cgo), string(JSON)}
}

type encodeFunc func(w io.Writer, ds []Directive) error

var encoders = map[Format]encodeFunc{
	Cargo: encodeCargo,
	Cgo:   encodeCgo,
	JSON:  encodeJSON,
}

// Encode writes ds to w in format f. The output depends only on ds.
func Encode(w io.Writer, f Format, ds []Directive) error {
	enc, ok := encoders[f]
	if !ok {
		return fmt.Errorf("unknown directive format %q (supported: %s)", f, strings.Join(Formats(), ", "))
	}
	return enc(w, ds)
}

func encodeCargo(w io.Writer, ds []Directive) error {
	for _, d := range ds {
		var line string
		switch d.Kind {
		case Search:
			line = "cargo:rustc-link-search=native=" + d.Name
		case Local:
			if d.Static {
				line = "cargo:rustc-link-lib=static=" + d.Name
			} else {
				line = "cargo:rustc-link-lib=dylib=" + d.Name
			}
		case Shared:
			line = "cargo:rustc-link-lib=dylib=" + d.Name
		case System:
			if d.Static {
				line = "cargo:rustc-link-lib=static=" + d.Name
			} else {
				line = "cargo:rustc-link-lib=" + d.Name
			}
		case Framework:
			line = "cargo:rustc-link-lib=framework=" + d.Name
		case RerunFile:
			line = "cargo:rerun-if-changed=" + d.Name
		case RerunEnv:
			line = "cargo:rerun-if-env-changed=" + d.Name
		case Warning:
			line = "cargo:warning=" + strings.ReplaceAll(d.Name, "\n", " ")
		default:
			return fmt.Errorf("unknown directive kind %q", d.Kind)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// encodeCgo emits one LDFLAGS line per directive. Rerun directives have no
// cgo equivalent and are dropped; warnings become comments.
func encodeCgo(w io.Writer, ds []Directive) error {
	for _, d := range ds {
		var line string
		switch d.Kind {
		case Search:
			line = "#cgo LDFLAGS: -L" + d.Name
		case Local, Shared, System:
			line = "#cgo LDFLAGS: -l" + d.Name
		case Framework:
			line = "#cgo LDFLAGS: -framework " + d.Name
		case Warning:
			line = "// warning: " + strings.ReplaceAll(d.Name, "\n", " ")
		case RerunFile, RerunEnv:
			continue
		default:
			return fmt.Errorf("unknown directive kind %q", d.Kind)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func encodeJSON(w io.Writer, ds []Directive) error {
	if ds == nil {
		ds = []Directive{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

// Count returns the number of directives per kind.
func Count(ds []Directive) map[Kind]int {
	n := map[Kind]int{}
	for _, d := range ds {
		n[d.Kind]++
	}
	return n
}
