package build

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// rerunRoots are the source subtrees whose every entry triggers a rebuild.
var rerunRoots = []string{"src", filepath.Join("ggml", "src"), "common"}

// RerunFiles returns the entries of the llama.cpp tree that should trigger a
// rebuild when changed: everything under src, ggml/src and common, and every
// CMake* file anywhere. Hidden entries are skipped. A missing tree yields
// nothing.
func RerunFiles(sourceDir string) ([]string, error) {
	if sourceDir == "" || !exists(sourceDir) {
		return nil, nil
	}
	roots := make([]string, len(rerunRoots))
	for i, r := range rerunRoots {
		roots[i] = filepath.Join(sourceDir, r) + string(filepath.Separator)
	}

	var files []string
	err := filepath.WalkDir(sourceDir, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != sourceDir && strings.HasPrefix(e.Name(), ".") {
			if e.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(e.Name(), "CMake") {
			files = append(files, p)
			return nil
		}
		for _, r := range roots {
			if strings.HasPrefix(p+string(filepath.Separator), r) {
				files = append(files, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
