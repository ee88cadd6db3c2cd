package provider

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ConfigFile is the package config file inside the CMake config directory.
const ConfigFile = "ggml-config.cmake"

var namespacedComponents = []string{"cpu", "cuda", "vulkan", "metal", "blas", "hip"}

var (
	findBaseLibrary = regexp.MustCompile(`find_library\(GGML_BASE_LIBRARY ggml-base\b`)
	findLibrary     = regexp.MustCompile(`find_library\(GGML_LIBRARY ggml\b`)
)

// PatchNamespace rewrites the provider's package config so find_library
// looks for the namespaced library names. It reports whether the file
// changed. A missing config directory or file is not an error.
func PatchNamespace(dir ConfigDir, namespace string) (bool, error) {
	if namespace == "" || dir.State != Found {
		return false, nil
	}
	path := filepath.Join(dir.Path, ConfigFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	content := string(data)
	patched := namespaceConfig(content, namespace)
	if patched == content {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func namespaceConfig(content, ns string) string {
	content = findBaseLibrary.ReplaceAllLiteralString(content, "find_library(GGML_BASE_LIBRARY "+ns+"-base")
	content = findLibrary.ReplaceAllLiteralString(content, "find_library(GGML_LIBRARY "+ns)
	for _, c := range namespacedComponents {
		content = strings.ReplaceAll(content, "ggml-"+c, ns+"-"+c)
	}
	for _, q := range []string{`"`, `'`} {
		content = strings.ReplaceAll(content, q+"ggml"+q, q+ns+q)
		content = strings.ReplaceAll(content, q+"ggml-base"+q, q+ns+"-base"+q)
	}
	return content
}
