package config

import (
	"fmt"
	"sort"
	"strings"
)

// Feature is a named build toggle.
type Feature string

const (
	// SharedGGML selects linking against a provider-built ggml.
	SharedGGML Feature = "use-shared-ggml"

	NamespaceLlama   Feature = "namespace-llama"
	NamespaceWhisper Feature = "namespace-whisper"

	Vulkan Feature = "vulkan"
	Metal  Feature = "metal"
	BLAS   Feature = "blas"
	CUDA   Feature = "cuda"
	HIP    Feature = "hip"

	CUDANoVMM   Feature = "cuda-no-vmm"
	OpenMP      Feature = "openmp"
	MTMD        Feature = "mtmd"
	DynamicLink Feature = "dynamic-link"
	Native      Feature = "native"
)

var knownFeatures = map[Feature]bool{
	SharedGGML:       true,
	NamespaceLlama:   true,
	NamespaceWhisper: true,
	Vulkan:           true,
	Metal:            true,
	BLAS:             true,
	CUDA:             true,
	HIP:              true,
	CUDANoVMM:        true,
	OpenMP:           true,
	MTMD:             true,
	DynamicLink:      true,
	Native:           true,
}

// Backend is an optional acceleration backend of ggml.
type Backend string

const (
	BackendVulkan Backend = "vulkan" // graphics acceleration
	BackendMetal  Backend = "metal"  // vector math offload
	BackendBLAS   Backend = "blas"   // vector math offload
	BackendCUDA   Backend = "cuda"   // compute offload, NVIDIA
	BackendHIP    Backend = "hip"    // compute offload, AMD
)

// backendOrder is the fixed order backends are reported and emitted in.
var backendOrder = []struct {
	feature Feature
	backend Backend
}{
	{Vulkan, BackendVulkan},
	{Metal, BackendMetal},
	{BLAS, BackendBLAS},
	{CUDA, BackendCUDA},
	{HIP, BackendHIP},
}

// Features is the set of enabled features.
type Features map[Feature]bool

// ParseFeatures parses comma or whitespace separated feature lists.
func ParseFeatures(lists ...string) (Features, error) {
	fs := Features{}
	for _, list := range lists {
		for _, name := range strings.FieldsFunc(list, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			f := Feature(strings.TrimSpace(name))
			if !knownFeatures[f] {
				return nil, fmt.Errorf("unknown feature %q", name)
			}
			fs[f] = true
		}
	}
	return fs, nil
}

// Has reports whether f is enabled.
func (fs Features) Has(f Feature) bool {
	return fs[f]
}

// List returns the enabled features sorted by name.
func (fs Features) List() []Feature {
	list := make([]Feature, 0, len(fs))
	for f, on := range fs {
		if on {
			list = append(list, f)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// Backends returns the enabled acceleration backends in fixed order.
func (fs Features) Backends() []Backend {
	var backends []Backend
	for _, b := range backendOrder {
		if fs[b.feature] {
			backends = append(backends, b.backend)
		}
	}
	return backends
}

// Namespace returns the namespaced ggml library base name selected by the
// namespace features, or "" for the default unprefixed symbols.
func (fs Features) Namespace() (string, error) {
	llama, whisper := fs[NamespaceLlama], fs[NamespaceWhisper]
	switch {
	case llama && whisper:
		return "", fmt.Errorf("features %s and %s are mutually exclusive", NamespaceLlama, NamespaceWhisper)
	case llama:
		return "ggml_llama", nil
	case whisper:
		return "ggml_whisper", nil
	}
	return "", nil
}
