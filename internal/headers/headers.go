// Package headers decides which include directories the binding generator
// sees for ggml.
package headers

import (
	"path/filepath"
	"strings"

	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/provider"
)

// IncludePaths returns the ggml include directories for mode m. Embedded
// builds use the bundled headers under sourceDir; External builds use the
// provider's include directory, or none when it is unknown.
func IncludePaths(m mode.BuildMode, loc provider.Location, sourceDir string, d *diag.Diagnostics) []string {
	if m == mode.Embedded {
		return []string{filepath.Join(sourceDir, "ggml", "include")}
	}
	if loc.IncludeDir == "" {
		d.Warn(diag.HeadersUnavailable, "shared ggml include directory unknown; set %s so the binding generator can find the ggml headers", provider.KeyInclude)
		return []string{}
	}
	return []string{loc.IncludeDir}
}

// ClangArgs returns the -I arguments for the binding generator: the llama.cpp
// headers under sourceDir, then paths.
func ClangArgs(sourceDir string, paths []string) []string {
	args := []string{"-I" + filepath.Join(sourceDir, "include")}
	for _, p := range paths {
		args = append(args, "-I"+p)
	}
	return args
}

// CgoCFlags renders args as a #cgo CFLAGS line.
func CgoCFlags(args []string) string {
	return "#cgo CFLAGS: " + strings.Join(args, " ")
}
