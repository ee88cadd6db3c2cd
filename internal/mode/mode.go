// Package mode selects how the bundled ggml dependency is obtained.
//
// The mode is computed once per run by Select and handed to every later stage
// as a value; no other package reads the selecting feature.
package mode

import "github.com/goplus/linkplan/internal/config"

// BuildMode says whether ggml is compiled from the bundled sources or taken
// from a provider build unit.
type BuildMode int

const (
	// Embedded compiles ggml together with llama.cpp. It is the default.
	Embedded BuildMode = iota
	// External links against a shared ggml installed by a provider.
	External
)

func (m BuildMode) String() string {
	if m == External {
		return "external"
	}
	return "embedded"
}

// Select returns External when the use-shared-ggml feature is enabled and
// Embedded otherwise.
func Select(fs config.Features) BuildMode {
	if fs.Has(config.SharedGGML) {
		return External
	}
	return Embedded
}

// MarshalText encodes m by name.
func (m BuildMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
