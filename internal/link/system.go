package link

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/target"
)

// Environment keys read by SystemLibraries.
const (
	EnvVulkanSDK = "VULKAN_SDK"
	EnvCUDAPath  = "CUDA_PATH"
)

// Platform describes the target for SystemLibraries.
type Platform struct {
	Target     target.Triple
	Features   config.Features
	Mode       mode.BuildMode
	SharedLibs bool
	// Debug selects the debug C runtime on MSVC.
	Debug  bool
	Lookup env.Lookup
	// ClangSearchDirs returns the output of "clang --print-search-dirs". It
	// is only called for macOS targets; nil runs clang.
	ClangSearchDirs func() (string, error)
}

// SystemLibraries returns the platform libraries llama.cpp needs on p's
// target, each preceded by the search path that resolves it.
func SystemLibraries(p Platform) []Directive {
	var ds []Directive
	t, fs := p.Target, p.Features

	if fs.Has(config.Vulkan) {
		ds = append(ds, vulkan(t, p.Lookup)...)
	}
	if fs.Has(config.CUDA) && p.Mode == mode.Embedded && !p.SharedLibs {
		ds = append(ds, cuda(t, fs, p.Lookup)...)
	}
	if fs.Has(config.OpenMP) && t.IsGNU() {
		ds = append(ds, Directive{Kind: System, Name: "gomp"})
	}

	switch t.OS {
	case target.Windows:
		if t.MSVC {
			ds = append(ds, Directive{Kind: System, Name: "advapi32"})
			if p.Debug {
				ds = append(ds, Directive{Kind: System, Name: "msvcrtd"})
			}
		}
	case target.Linux:
		ds = append(ds, Directive{Kind: System, Name: "stdc++"})
	case target.Apple:
		for _, fw := range []string{"Foundation", "Metal", "MetalKit", "Accelerate"} {
			ds = append(ds, Directive{Kind: Framework, Name: fw})
		}
		ds = append(ds, Directive{Kind: System, Name: "c++"})
		if t.MacOS {
			if dir, ok := clangRuntimeDir(p.ClangSearchDirs); ok {
				ds = append(ds,
					Directive{Kind: Search, Name: dir},
					Directive{Kind: System, Name: "clang_rt.osx"})
			}
		}
	case target.Android:
		ds = append(ds,
			Directive{Kind: System, Name: "log"},
			Directive{Kind: System, Name: "android"})
	}
	return ds
}

func vulkan(t target.Triple, lookup env.Lookup) []Directive {
	sdk := lookup.Get(EnvVulkanSDK)
	switch t.OS {
	case target.Windows:
		var ds []Directive
		if sdk != "" {
			ds = append(ds, Directive{Kind: Search, Name: filepath.Join(sdk, "Lib")})
		}
		return append(ds, Directive{Kind: System, Name: "vulkan-1"})
	case target.Linux:
		var ds []Directive
		if sdk != "" {
			ds = append(ds, Directive{Kind: Search, Name: filepath.Join(sdk, "lib")})
		}
		return append(ds, Directive{Kind: System, Name: "vulkan"})
	}
	return nil
}

// cuda links the CUDA runtime the embedded static ggml-cuda depends on.
// NVIDIA ships no static runtime for Windows, so it links the DLL import
// libraries there.
func cuda(t target.Triple, fs config.Features, lookup env.Lookup) []Directive {
	var ds []Directive
	if root := lookup.Get(EnvCUDAPath); root != "" {
		sub := filepath.Join(root, "lib64")
		if t.OS == target.Windows {
			sub = filepath.Join(root, "lib", "x64")
		}
		ds = append(ds, Directive{Kind: Search, Name: sub})
	}
	if t.OS == target.Windows {
		ds = append(ds,
			Directive{Kind: System, Name: "cudart"},
			Directive{Kind: System, Name: "cublas"},
			Directive{Kind: System, Name: "cublasLt"})
		if !fs.Has(config.CUDANoVMM) {
			ds = append(ds, Directive{Kind: System, Name: "cuda"})
		}
		return ds
	}
	ds = append(ds,
		Directive{Kind: System, Name: "cudart_static", Static: true},
		Directive{Kind: System, Name: "cublas_static", Static: true},
		Directive{Kind: System, Name: "cublasLt_static", Static: true})
	if !fs.Has(config.CUDANoVMM) {
		ds = append(ds, Directive{Kind: System, Name: "cuda"})
	}
	return append(ds, Directive{Kind: System, Name: "culibos", Static: true})
}

// clangRuntimeDir finds the directory holding libclang_rt.osx.a, which older
// macOS toolchains leave off the default search path.
func clangRuntimeDir(searchDirs func() (string, error)) (string, bool) {
	if searchDirs == nil {
		searchDirs = clangPrintSearchDirs
	}
	out, err := searchDirs()
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(out, "\n") {
		if _, dirs, ok := strings.Cut(line, "libraries: ="); ok {
			first, _, _ := strings.Cut(strings.TrimSpace(dirs), ":")
			if first == "" {
				return "", false
			}
			return first + "/lib/darwin", true
		}
	}
	return "", false
}

func clangPrintSearchDirs() (string, error) {
	out, err := exec.CommandContext(context.Background(), "clang", "--print-search-dirs").Output()
	return string(out), err
}

// EnvKeys lists the variables SystemLibraries reads for p, for rerun directives.
func EnvKeys(p Platform) []string {
	var keys []string
	if p.Features.Has(config.Vulkan) {
		keys = append(keys, EnvVulkanSDK)
	}
	if p.Features.Has(config.CUDA) && p.Mode == mode.Embedded && !p.SharedLibs {
		keys = append(keys, EnvCUDAPath)
	}
	return keys
}
