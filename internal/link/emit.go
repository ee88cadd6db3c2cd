package link

import (
	"strings"

	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/provider"
)

// Prefix is the name prefix shared by every ggml library, namespaced or not.
const Prefix = "ggml"

// Input is everything Emit needs. It is plain data so Emit stays a pure
// function of its arguments.
type Input struct {
	Mode      mode.BuildMode
	Location  provider.Location
	Libraries []string
	Backends  []config.Backend
	// LibBase is the provider's core library name, "ggml" or a namespaced
	// variant.
	LibBase string
	// SharedLibs says whether the local libraries are shared objects.
	SharedLibs bool
	// LocalSearch lists the native build's install directories.
	LocalSearch []string
}

// Emit returns the search and library directives for in. Search paths come
// first: the provider's library directory (External only), then the local
// ones.
//
// In Embedded mode every library is linked locally as is. In External mode
// every ggml library is dropped from the local set and the provider's core,
// base, CPU and enabled backend libraries are linked as shared instead, so no
// ggml symbol is defined twice.
func Emit(in Input, d *diag.Diagnostics) []Directive {
	var ds []Directive
	if in.Mode == mode.External {
		if in.Location.LibDir != "" {
			ds = append(ds, Directive{Kind: Search, Name: in.Location.LibDir})
		} else {
			d.Warn(diag.SearchPathUnknown, "shared ggml library directory unknown; set %s or %s so the linker can find it", provider.KeyRoot, provider.KeyLibDir)
		}
	}
	for _, dir := range in.LocalSearch {
		ds = append(ds, Directive{Kind: Search, Name: dir})
	}

	for _, name := range in.Libraries {
		if in.Mode == mode.External && strings.HasPrefix(name, Prefix) {
			d.Debug("dropping local %s in favour of the shared provider", name)
			continue
		}
		ds = append(ds, Directive{Kind: Local, Name: name, Static: !in.SharedLibs})
	}

	if in.Mode == mode.External {
		for _, name := range SharedNames(in.LibBase, in.Backends) {
			ds = append(ds, Directive{Kind: Shared, Name: name})
		}
	}
	return ds
}

// SharedNames returns the provider libraries linked in External mode: the
// core, base and CPU libraries followed by one per backend.
func SharedNames(base string, backends []config.Backend) []string {
	if base == "" {
		base = Prefix
	}
	names := []string{base, base + "-base", base + "-cpu"}
	for _, b := range backends {
		names = append(names, base+"-"+string(b))
	}
	return names
}
