// Package assets places the shared libraries a dynamically linked consumer
// loads at run time next to its executables.
package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/link"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/target"
)

// Set describes where runtime libraries come from.
type Set struct {
	Mode   mode.BuildMode
	Target target.Triple
	// OutDir is the native build's install directory.
	OutDir string
	// ProviderLibDir is the shared provider's library directory, External
	// only.
	ProviderLibDir string
	LibBase        string
	Backends       []config.Backend
}

// Collect returns the runtime libraries to stage. Embedded builds stage every
// shared object the native build installed. External builds replace the
// local ggml objects with the provider's core, base, CPU and backend ones.
func Collect(s Set, d *diag.Diagnostics) ([]string, error) {
	pattern := filepath.Join(s.OutDir, s.Target.SharedDir(), s.Target.SharedPattern())
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("enumerate runtime libraries %s: %w", pattern, err)
	}
	if s.Mode != mode.External {
		return files, nil
	}

	kept := files[:0]
	for _, f := range files {
		if !strings.HasPrefix(filepath.Base(f), link.Prefix) && !strings.HasPrefix(filepath.Base(f), "lib"+link.Prefix) {
			kept = append(kept, f)
		}
	}
	if s.ProviderLibDir == "" {
		d.Warn(diag.ProviderLibrary, "shared ggml library directory unknown; its runtime libraries are not staged")
		return kept, nil
	}
	if fi, err := os.Stat(s.ProviderLibDir); err != nil || !fi.IsDir() {
		d.Warn(diag.ProviderLibrary, "shared ggml library directory %s does not exist", s.ProviderLibDir)
		return kept, nil
	}
	var n int
	for _, name := range link.SharedNames(s.LibBase, s.Backends) {
		p := filepath.Join(s.ProviderLibDir, s.Target.SharedFile(name))
		if _, err := os.Stat(p); err != nil {
			continue
		}
		d.Debug("staging provider library %s", p)
		kept = append(kept, p)
		n++
	}
	d.Debug("collected %d provider runtime libraries from %s", n, s.ProviderLibDir)
	return kept, nil
}

// Stage hard-links each file into targetDir and targetDir/deps, and into
// targetDir/examples when that exists. Existing destinations are left alone.
// When a hard link is impossible, for example across file systems, the file
// is copied instead.
func Stage(files []string, targetDir string, d *diag.Diagnostics) ([]string, error) {
	if len(files) == 0 || targetDir == "" {
		return nil, nil
	}
	dirs := []string{targetDir, filepath.Join(targetDir, "deps")}
	if fi, err := os.Stat(filepath.Join(targetDir, "examples")); err == nil && fi.IsDir() {
		dirs = append(dirs, filepath.Join(targetDir, "examples"))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	var staged []string
	for _, f := range files {
		for _, dir := range dirs {
			dst := filepath.Join(dir, filepath.Base(f))
			if _, err := os.Lstat(dst); err == nil {
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return staged, err
			}
			if err := place(f, dst); err != nil {
				return staged, fmt.Errorf("stage %s: %w", f, err)
			}
			d.Debug("hard link %s to %s", f, dst)
			staged = append(staged, dst)
		}
	}
	return staged, nil
}

func place(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
