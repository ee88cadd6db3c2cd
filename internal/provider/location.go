// Package provider locates the ggml installation published by a provider
// build unit.
package provider

import (
	"os"
	"path/filepath"

	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/target"
)

// Metadata keys published by the provider. The RS variants are accepted for
// providers packaged under the ggml-rs name.
const (
	KeyRoot       = "DEP_GGML_ROOT"
	KeyRootAlt    = "DEP_GGML_RS_ROOT"
	KeyLibDir     = "DEP_GGML_LIB_DIR"
	KeyLibDirAlt  = "DEP_GGML_RS_LIB_DIR"
	KeyInclude    = "DEP_GGML_INCLUDE"
	KeyIncludeAlt = "DEP_GGML_RS_INCLUDE"
	KeyVersion    = "DEP_GGML_VERSION"
)

// Keys lists every metadata key Resolve reads.
var Keys = []string{KeyRoot, KeyRootAlt, KeyLibDir, KeyLibDirAlt, KeyInclude, KeyIncludeAlt, KeyVersion}

// Package is the CMake package name of the shared dependency.
const Package = "ggml"

// ConfigState is the outcome of probing for the provider's CMake package.
type ConfigState int

const (
	// NotApplicable means no probe was made because the build is Embedded.
	NotApplicable ConfigState = iota
	// NotFound means the build is External but no package config exists.
	NotFound
	// Found means the package config directory exists.
	Found
)

func (s ConfigState) String() string {
	switch s {
	case NotFound:
		return "not-found"
	case Found:
		return "found"
	default:
		return "not-applicable"
	}
}

// MarshalText encodes s by name.
func (s ConfigState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ConfigDir is the tri-state result of the CMake package probe.
type ConfigDir struct {
	State ConfigState `json:"state"`
	// Path is the probed directory. It is set for Found, and for NotFound
	// when a prefix was known and a path could be probed.
	Path string `json:"path,omitempty"`
}

// Location describes where the provider's artifacts live. Empty strings mean
// unknown; each field may be absent independently of the others.
type Location struct {
	Root       string    `json:"root,omitempty"`
	Prefix     string    `json:"prefix,omitempty"`
	LibDir     string    `json:"lib_dir,omitempty"`
	IncludeDir string    `json:"include_dir,omitempty"`
	ConfigDir  ConfigDir `json:"config_dir"`
	Version    string    `json:"version,omitempty"`
}

// Resolve reads the provider metadata through lookup. In Embedded mode it
// returns the zero Location without consulting lookup.
func Resolve(m mode.BuildMode, lookup env.Lookup, d *diag.Diagnostics) Location {
	if m != mode.External {
		return Location{}
	}

	var loc Location
	_, libDir, hasLibDir := lookup.First(KeyLibDir, KeyLibDirAlt)
	if _, root, ok := lookup.First(KeyRoot, KeyRootAlt); ok {
		loc.Root = root
	} else if hasLibDir {
		loc.Root = filepath.Dir(libDir)
		d.Debug("derived provider root %s from %s", loc.Root, libDir)
	}

	if loc.Root == "" {
		d.Info(diag.MetadataAbsent, "%s is not set, falling back to direct path hints", KeyRoot)
	} else {
		loc.Prefix = loc.Root
		loc.LibDir = filepath.Join(loc.Root, "lib")
	}
	if hasLibDir {
		loc.LibDir = libDir
	}

	loc.ConfigDir = probeConfigDir(loc.Prefix, d)

	if _, inc, ok := lookup.First(KeyInclude, KeyIncludeAlt); ok {
		loc.IncludeDir = inc
	} else if loc.Root != "" {
		if p := filepath.Join(loc.Root, "include"); isDir(p) {
			d.Debug("using fallback include directory %s", p)
			loc.IncludeDir = p
		}
	}

	loc.Version = lookup.Get(KeyVersion)
	return loc
}

func probeConfigDir(prefix string, d *diag.Diagnostics) ConfigDir {
	if prefix == "" {
		return ConfigDir{State: NotFound}
	}
	p := filepath.Join(prefix, "lib", "cmake", Package)
	if isDir(p) {
		return ConfigDir{State: Found, Path: p}
	}
	d.Info(diag.ConfigDirectoryMissing, "CMake package config not found at %s, using direct library and include hints", p)
	return ConfigDir{State: NotFound, Path: p}
}

// ProbeLibrary returns the path of the provider's link library named base in
// libDir, if it exists.
func ProbeLibrary(libDir string, t target.Triple, base string) (string, bool) {
	if libDir == "" {
		return "", false
	}
	p := filepath.Join(libDir, t.LinkFile(base))
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p, true
	}
	return "", false
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
