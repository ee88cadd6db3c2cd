// Package build runs the resolution pipeline: it selects the build mode,
// locates the shared provider, configures and builds llama.cpp, and computes
// the link directives and include paths for the consumer.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/goplus/linkplan/internal/assets"
	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/headers"
	"github.com/goplus/linkplan/internal/link"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/native"
	"github.com/goplus/linkplan/internal/provider"
	"github.com/goplus/linkplan/internal/target"
	"github.com/goplus/linkplan/pkgs/buildsys/cmake"
)

// Builder runs the pipeline for one set of Settings.
type Builder struct {
	settings config.Settings
	environ  []string
	lookup   env.Lookup
	log      zerolog.Logger
	runner   cmake.Runner
	stream   io.Writer
	metrics  *Metrics
	clang    func() (string, error)
	now      func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithEnviron replaces the process environment the pipeline reads.
func WithEnviron(environ []string) Option {
	return func(b *Builder) {
		b.environ = environ
	}
}

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) {
		b.log = l
	}
}

// WithRunner replaces the process runner of the native build tool.
func WithRunner(r cmake.Runner) Option {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithStream mirrors the native build tool's output to w.
func WithStream(w io.Writer) Option {
	return func(b *Builder) {
		b.stream = w
	}
}

// WithMetrics records stage timings and directive counts into m.
func WithMetrics(m *Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithClangSearchDirs replaces the "clang --print-search-dirs" probe.
func WithClangSearchDirs(f func() (string, error)) Option {
	return func(b *Builder) {
		b.clang = f
	}
}

// New returns a Builder for s.
func New(s config.Settings, opts ...Option) *Builder {
	b := &Builder{
		settings: s,
		environ:  os.Environ(),
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lookup = lookupIn(b.environ)
	return b
}

func lookupIn(environ []string) env.Lookup {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return env.Map(m)
}

// Plan is the outcome of resolution: everything decided before the native
// build runs.
type Plan struct {
	Mode         mode.BuildMode    `json:"mode"`
	Location     provider.Location `json:"location"`
	Options      native.Options    `json:"options"`
	IncludePaths []string          `json:"include_paths"`
	ClangArgs    []string          `json:"clang_args"`

	diags *diag.Diagnostics
}

// Diagnostics returns the conditions recorded so far for this plan.
func (p *Plan) Diagnostics() []diag.Diagnostic {
	return p.diags.Items()
}

// Warnings returns the recorded warnings.
func (p *Plan) Warnings() []diag.Diagnostic {
	return p.diags.Warnings()
}

// Plan resolves the build mode, the provider location and the native build
// options. Only an unusable cross-compilation toolchain is an error; every
// other missing piece is recorded as a diagnostic.
func (b *Builder) Plan() (*Plan, error) {
	defer b.metrics.stage("plan", b.now())

	s := b.settings
	d := diag.New(b.log)
	p := &Plan{diags: d}

	p.Mode = mode.Select(s.Features)
	b.metrics.setMode(p.Mode)
	if s.Namespace != "" {
		d.Debug("using ggml namespace %s", s.Namespace)
	}
	if p.Mode == mode.External {
		for _, v := range env.Prefixed(b.environ, "DEP_") {
			d.Debug("%s = %s", v.Key, v.Value)
		}
	}

	p.Location = provider.Resolve(p.Mode, b.lookup, d)
	if err := provider.CheckVersion(p.Location.Version, s.MinProviderVersion); err != nil {
		d.Warn(diag.ProviderVersion, "%v", err)
	}
	if p.Mode == mode.External {
		b.checkProviderLibrary(p.Location, d)
	}

	p.Options = native.Configure(p.Mode, p.Location, s, d)
	if s.Target.OS == target.Android {
		ao, err := native.Android(b.lookup, s.Target)
		if err != nil {
			return nil, err
		}
		p.Options.Merge(ao)
	}
	p.Options.Merge(native.Passthrough(b.environ))

	p.IncludePaths = headers.IncludePaths(p.Mode, p.Location, s.SourceDir, d)
	p.ClangArgs = headers.ClangArgs(s.SourceDir, p.IncludePaths)
	return p, nil
}

// checkProviderLibrary warns when the provider's core library is not where
// the metadata says, listing what is there instead.
func (b *Builder) checkProviderLibrary(loc provider.Location, d *diag.Diagnostics) {
	if loc.LibDir == "" {
		return
	}
	base := b.settings.LibBase()
	if lib, ok := provider.ProbeLibrary(loc.LibDir, b.settings.Target, base); ok {
		d.Debug("found provider library %s", lib)
		return
	}
	entries, err := os.ReadDir(loc.LibDir)
	if err != nil {
		d.Warn(diag.ProviderLibrary, "shared ggml library directory %s is not readable: %v", loc.LibDir, err)
		return
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	available := "none"
	if len(names) > 0 {
		available = strings.Join(names, ", ")
	}
	d.Warn(diag.ProviderLibrary, "shared ggml library %s not found in %s (available: %s)",
		b.settings.Target.LinkFile(base), loc.LibDir, available)
}

// Result is the outcome of a native build.
type Result struct {
	Directives []link.Directive
	Libraries  []string
	Staged     []string
	// Reconfigured is false when the configure step was skipped because
	// the options had not changed since the last run.
	Reconfigured bool
}

// Build runs the native build for p and computes the link directives.
func (b *Builder) Build(ctx context.Context, p *Plan) (*Result, error) {
	s := b.settings
	if s.SourceDir == "" {
		return nil, fmt.Errorf("source directory is not set")
	}
	if s.OutDir == "" {
		return nil, fmt.Errorf("output directory is not set")
	}
	d := p.diags

	if p.Mode == mode.External && s.Namespace != "" && p.Location.ConfigDir.State == provider.Found {
		patched, err := provider.PatchNamespace(p.Location.ConfigDir, s.Namespace)
		switch {
		case err != nil:
			d.Warn(diag.NamespacePatch, "could not patch %s for namespace %s: %v", provider.ConfigFile, s.Namespace, err)
		case patched:
			d.Info(diag.NamespacePatch, "patched %s to use namespaced library %s", provider.ConfigFile, s.Namespace)
		}
	}

	c := b.cmake(p)
	res := &Result{}
	if err := b.configure(ctx, c, res); err != nil {
		return nil, err
	}
	start := b.now()
	if err := c.Build(ctx); err != nil {
		return nil, err
	}
	if err := c.Install(ctx); err != nil {
		return nil, err
	}
	b.metrics.stage("build", start)

	// Staging warnings must be recorded before Links turns them into directives.
	if s.SharedLibs {
		start := b.now()
		set := assets.Set{
			Mode:           p.Mode,
			Target:         s.Target,
			OutDir:         s.OutDir,
			ProviderLibDir: p.Location.LibDir,
			LibBase:        s.LibBase(),
			Backends:       s.Features.Backends(),
		}
		files, err := assets.Collect(set, d)
		if err != nil {
			return nil, err
		}
		if res.Staged, err = assets.Stage(files, s.TargetDir, d); err != nil {
			return nil, err
		}
		b.metrics.stage("stage", start)
	}

	ds, libs, err := b.Links(p, c.BuildDir())
	if err != nil {
		return nil, err
	}
	res.Directives, res.Libraries = ds, libs
	return res, nil
}

func (b *Builder) cmake(p *Plan) *cmake.CMake {
	s := b.settings
	c := cmake.New(s.SourceDir, filepath.Join(s.OutDir, "build"), s.OutDir)
	if b.runner != nil {
		c.WithRunner(b.runner)
	}
	if b.stream != nil {
		c.Stream(b.stream)
	}
	p.Options.Apply(c)
	return c
}

// configure runs the configure step unless the stamp in the output directory
// records the same options and the build directory is still configured.
func (b *Builder) configure(ctx context.Context, c *cmake.CMake, res *Result) error {
	defer b.metrics.stage("configure", b.now())

	fp := fingerprint(c.ConfigureArgs())
	stamp := filepath.Join(b.settings.OutDir, cacheFile)
	cache, err := loadCache(stamp)
	if err != nil {
		cache = &buildCache{}
	}
	key := b.settings.Target.Raw + "-" + b.settings.Profile
	if e, ok := cache.get(key); ok && e.Fingerprint == fp && exists(filepath.Join(c.BuildDir(), "CMakeCache.txt")) {
		b.log.Debug().Str("fingerprint", fp).Msg("options unchanged, skipping cmake configure")
		return nil
	}
	if err := c.Configure(ctx); err != nil {
		return err
	}
	res.Reconfigured = true
	cache.set(key, &buildEntry{Fingerprint: fp, ConfigureTime: b.now()})
	if err := saveCache(stamp, cache); err != nil {
		b.log.Warn().Err(err).Msg("could not save configure stamp")
	}
	return nil
}

// Links enumerates the libraries installed in the output directory and
// returns the complete, checked directive list: search paths, library
// directives and platform libraries, then rerun notices and the recorded
// warnings.
func (b *Builder) Links(p *Plan, buildDir string) ([]link.Directive, []string, error) {
	defer b.metrics.stage("links", b.now())

	s := b.settings
	d := p.diags
	libs, err := link.Libraries(s.OutDir, s.Target, s.SharedLibs)
	if err != nil {
		return nil, nil, err
	}
	if len(libs) == 0 {
		d.Warn(diag.Toolchain, "no libraries found under %s", filepath.Join(s.OutDir, "lib*"))
	}

	ds := link.Emit(link.Input{
		Mode:        p.Mode,
		Location:    p.Location,
		Libraries:   libs,
		Backends:    s.Features.Backends(),
		LibBase:     s.LibBase(),
		SharedLibs:  s.SharedLibs,
		LocalSearch: link.SearchDirs(s.OutDir, buildDir),
	}, d)

	platform := link.Platform{
		Target:          s.Target,
		Features:        s.Features,
		Mode:            p.Mode,
		SharedLibs:      s.SharedLibs,
		Debug:           s.Profile == "Debug",
		Lookup:          b.lookup,
		ClangSearchDirs: b.clang,
	}
	ds = append(ds, link.SystemLibraries(platform)...)

	files, err := RerunFiles(s.SourceDir)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range files {
		ds = append(ds, link.Directive{Kind: link.RerunFile, Name: f})
	}
	for _, k := range b.envKeys(platform) {
		ds = append(ds, link.Directive{Kind: link.RerunEnv, Name: k})
	}
	for _, w := range d.Warnings() {
		ds = append(ds, link.Directive{Kind: link.Warning, Name: w.Message})
	}

	ds = link.Arrange(link.Dedupe(ds))
	if err := link.Check(ds); err != nil {
		return nil, nil, err
	}
	b.metrics.countDirectives(ds)
	return ds, libs, nil
}

func (b *Builder) envKeys(platform link.Platform) []string {
	keys := []string{config.EnvProfile, config.EnvSharedLibs, config.EnvStaticCRT}
	if platform.Mode == mode.External {
		keys = append(keys, provider.Keys...)
	}
	if b.settings.Target.OS == target.Android {
		keys = append(keys, native.AndroidEnvKeys...)
	}
	return append(keys, link.EnvKeys(platform)...)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
