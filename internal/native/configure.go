package native

import (
	"strings"

	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/provider"
	"github.com/goplus/linkplan/internal/target"
	"github.com/goplus/linkplan/pkgs/buildsys/cmake"
)

// CMake cache keys steering how llama.cpp finds ggml.
const (
	KeyUseSystemGGML = "LLAMA_USE_SYSTEM_GGML"
	KeyPrefixPath    = "CMAKE_PREFIX_PATH"
	KeyPackageDir    = provider.Package + "_DIR"
	KeyLibraryDir    = "GGML_LIBRARY_DIR"
	KeyLibrary       = "GGML_LIBRARY"
	KeyIncludeDir    = "GGML_INCLUDE_DIR"
)

var releaseProfiles = map[string]bool{
	"Release":        true,
	"RelWithDebInfo": true,
	"MinSizeRel":     true,
}

// Configure returns the options for building llama.cpp in mode m. In External
// mode the location decides how ggml is found:
//
//   - LLAMA_USE_SYSTEM_GGML is always ON and CMAKE_PREFIX_PATH is set when the
//     prefix is known;
//   - a found package config directory is passed as ggml_DIR and nothing
//     else, so find_package sees exactly one candidate;
//   - otherwise each known direct hint (library dir, core library file,
//     include dir) is passed.
//
// Configure never fails; missing locations were already reported by
// provider.Resolve.
func Configure(m mode.BuildMode, loc provider.Location, s config.Settings, d *diag.Diagnostics) Options {
	o := common(s)
	if m == mode.External {
		external(&o, loc, s)
	}
	d.Debug("configured %d cmake definitions for %s mode", len(o.Defines), m)
	return o
}

func external(o *Options, loc provider.Location, s config.Settings) {
	o.SetBool(KeyUseSystemGGML, true)
	if loc.Prefix != "" {
		o.Set(KeyPrefixPath, cmake.Path, loc.Prefix)
	}
	if loc.ConfigDir.State == provider.Found {
		o.Set(KeyPackageDir, cmake.Path, loc.ConfigDir.Path)
		return
	}
	if loc.LibDir != "" {
		o.Set(KeyLibraryDir, cmake.Path, loc.LibDir)
		if lib, ok := provider.ProbeLibrary(loc.LibDir, s.Target, s.LibBase()); ok {
			o.Set(KeyLibrary, cmake.FilePath, lib)
		}
	}
	if loc.IncludeDir != "" {
		o.Set(KeyIncludeDir, cmake.Path, loc.IncludeDir)
	}
}

func common(s config.Settings) Options {
	o := Options{Profile: s.Profile, Verbose: s.Verbose}
	fs := s.Features
	t := s.Target

	o.SetBool("LLAMA_BUILD_TESTS", false)
	o.SetBool("LLAMA_BUILD_EXAMPLES", false)
	o.SetBool("LLAMA_BUILD_SERVER", false)
	o.SetBool("LLAMA_BUILD_TOOLS", false)
	o.SetBool("LLAMA_CURL", false)
	if fs.Has(config.MTMD) {
		o.SetBool("LLAMA_BUILD_COMMON", true)
		o.SetBool("LLAMA_BUILD_TOOLS", true)
	}
	o.SetBool("BUILD_SHARED_LIBS", s.SharedLibs)

	switch {
	case fs.Has(config.BLAS) && t.OS == target.Apple:
		o.SetBool("GGML_BLAS", true)
		o.Set("GGML_BLAS_VENDOR", cmake.String, "Apple")
	case fs.Has(config.BLAS):
		o.SetBool("GGML_BLAS", true)
		o.Set("GGML_BLAS_VENDOR", cmake.String, "OpenBLAS")
	case t.OS == target.Apple:
		o.SetBool("GGML_BLAS", false)
	}

	if t.MSVC && releaseProfiles[s.Profile] {
		// Keep optimisation on when the outer build is a debug build.
		for _, f := range []string{"/O2", "/DNDEBUG", "/Ob2"} {
			o.Flag(f)
		}
	}
	if t.MSVC {
		crt := s.StaticCRT
		o.StaticCRT = &crt
	}

	if t.OS == target.Linux && t.Arch() == "aarch64" && !fs.Has(config.Native) {
		o.SetBool("GGML_NATIVE", false)
		o.Set("GGML_CPU_ARM_ARCH", cmake.String, "armv8-a")
	}

	if fs.Has(config.Vulkan) {
		o.SetBool("GGML_VULKAN", true)
		if t.OS == target.Windows {
			// MSBuild's file tracker breaks on the long paths of nested
			// builds; /FS serialises the pdb writes it no longer guards.
			o.Env = map[string]string{"TrackFileAccess": "false"}
			o.Flag("/FS")
		}
	}
	if fs.Has(config.Metal) {
		o.SetBool("GGML_METAL", true)
	}
	if fs.Has(config.CUDA) {
		o.SetBool("GGML_CUDA", true)
		if fs.Has(config.CUDANoVMM) {
			o.SetBool("GGML_CUDA_NO_VMM", true)
		}
	}
	if fs.Has(config.HIP) {
		o.SetBool("GGML_HIP", true)
	}
	o.SetBool("GGML_OPENMP", fs.Has(config.OpenMP) && t.OS != target.Android)
	return o
}

// passthroughSkip are CMAKE_ variables that steer the cmake tool itself
// rather than the project cache.
var passthroughSkip = map[string]bool{
	"CMAKE_BUILD_PARALLEL_LEVEL": true,
	"CMAKE_VERBOSE":              true,
}

// Passthrough returns a definition for every CMAKE_* variable in environ.
// Merged last, they let the user override any computed option.
func Passthrough(environ []string) Options {
	var o Options
	for _, v := range env.Prefixed(environ, "CMAKE_") {
		if passthroughSkip[v.Key] || strings.TrimSpace(v.Value) == "" {
			continue
		}
		o.Set(v.Key, "", v.Value)
	}
	return o
}
