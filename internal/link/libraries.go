package link

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/linkplan/internal/target"
)

// Libraries enumerates the libraries the native build installed under
// outDir/lib*/ and returns their link names: the file stem without its "lib"
// prefix, deduplicated, in directory order.
//
// Static archives without the "lib" prefix, as MSVC-style generators name
// them, are renamed to lib<name>.a so a Unix linker can resolve -l<name>.
func Libraries(outDir string, t target.Triple, shared bool) ([]string, error) {
	pattern := filepath.Join(outDir, "lib*", t.LibraryPattern(shared))
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("enumerate libraries %s: %w", pattern, err)
	}
	seen := map[string]bool{}
	var names []string
	for _, p := range paths {
		base := filepath.Base(p)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		name, hasPrefix := strings.CutPrefix(stem, "lib")
		if !hasPrefix && filepath.Ext(base) == ".a" {
			renamed := filepath.Join(filepath.Dir(p), "lib"+base)
			if err := os.Rename(p, renamed); err != nil {
				return nil, fmt.Errorf("rename %s: %w", p, err)
			}
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// SearchDirs returns the directories under outDir the native build installs
// libraries into, in the order they should be searched.
func SearchDirs(outDir, buildDir string) []string {
	dirs := []string{filepath.Join(outDir, "lib"), filepath.Join(outDir, "lib64")}
	if buildDir != "" {
		dirs = append(dirs, buildDir)
	}
	return dirs
}
