// Package cmake drives the configure/build/install steps of a CMake project.
package cmake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/goplus/linkplan/pkgs/buildsys"
)

// Define types understood by CMake's cache.
const (
	String   = "STRING"
	Bool     = "BOOL"
	Path     = "PATH"
	FilePath = "FILEPATH"
)

type defineValue struct {
	value    string
	typeName string
}

// Runner executes one tool invocation and returns its combined output.
type Runner func(ctx context.Context, name string, args, env []string, stream io.Writer) ([]byte, error)

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	cflags     []string
	cxxflags   []string
	staticCRT  *bool
	verbose    bool
	parallel   int
	defines    map[string]defineValue
	env        map[string]string

	run    Runner
	stream io.Writer
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a CMake building sourceDir in buildDir and installing to
// installDir.
func New(sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		parallel:   availableParallelism(),
		defines:    map[string]defineValue{},
		env:        map[string]string{},
		run:        execRunner,
	}
}

// WithRunner replaces the process runner.
func (c *CMake) WithRunner(r Runner) *CMake {
	c.run = r
	return c
}

// Stream mirrors tool output to w while it runs.
func (c *CMake) Stream(w io.Writer) *CMake {
	c.stream = w
	return c
}

func (c *CMake) Source(dir string) {
	c.sourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// BuildType sets CMAKE_BUILD_TYPE and the --config of multi-config generators.
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// CFlag appends a flag to CMAKE_C_FLAGS.
func (c *CMake) CFlag(flag string) *CMake {
	c.cflags = append(c.cflags, flag)
	return c
}

// CXXFlag appends a flag to CMAKE_CXX_FLAGS.
func (c *CMake) CXXFlag(flag string) *CMake {
	c.cxxflags = append(c.cxxflags, flag)
	return c
}

// StaticCRT selects the static or dynamic MSVC runtime.
func (c *CMake) StaticCRT(static bool) *CMake {
	c.staticCRT = &static
	return c
}

// Verbose makes the build step print every command.
func (c *CMake) Verbose(v bool) *CMake {
	c.verbose = v
	return c
}

// Parallel sets CMAKE_BUILD_PARALLEL_LEVEL; n <= 0 leaves it unset.
func (c *CMake) Parallel(n int) *CMake {
	c.parallel = n
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	return c.DefineTyped(key, String, value)
}

// DefineTyped adds a -D<key>:<type>=<value> definition. An empty type emits
// an untyped -D<key>=<value>.
func (c *CMake) DefineTyped(key, typeName, value string) *CMake {
	if c.defines == nil {
		c.defines = map[string]defineValue{}
	}
	c.defines[key] = defineValue{value: value, typeName: typeName}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.DefineTyped(key, Bool, "ON")
	}
	return c.DefineTyped(key, Bool, "OFF")
}

func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// ConfigureArgs returns the arguments Configure passes to cmake. A
// definition set through Define wins over the one derived from the install
// dir, toolchain or build type; CMAKE_C_FLAGS and CMAKE_CXX_FLAGS defined
// that way are appended to the flags added with CFlag and CXXFlag.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	defs := make(map[string]defineValue, len(c.defines)+8)
	for k, v := range c.defines {
		defs[k] = v
	}
	derive := func(key, typeName, value string) {
		if _, ok := defs[key]; !ok {
			defs[key] = defineValue{value: value, typeName: typeName}
		}
	}
	if c.installDir != "" {
		derive("CMAKE_INSTALL_PREFIX", Path, c.installDir)
	}
	if c.toolchain != "" {
		derive("CMAKE_TOOLCHAIN_FILE", FilePath, c.toolchain)
	}
	if c.buildType != "" {
		derive("CMAKE_BUILD_TYPE", String, c.buildType)
	}
	joinFlags(defs, "CMAKE_C_FLAGS", c.cflags)
	joinFlags(defs, "CMAKE_CXX_FLAGS", c.cxxflags)
	if c.staticCRT != nil {
		rt := "MultiThreaded$<$<CONFIG:Debug>:Debug>DLL"
		if *c.staticCRT {
			rt = "MultiThreaded$<$<CONFIG:Debug>:Debug>"
		}
		derive("CMAKE_MSVC_RUNTIME_LIBRARY", String, rt)
	}
	cmakeArgs = append(cmakeArgs, definesArgs(defs)...)
	return append(cmakeArgs, args...)
}

func joinFlags(defs map[string]defineValue, key string, flags []string) {
	if len(flags) == 0 {
		return
	}
	value := strings.Join(flags, " ")
	if user, ok := defs[key]; ok && user.value != "" {
		value += " " + user.value
	}
	defs[key] = defineValue{value: value, typeName: String}
}

// config is the configuration Build and Install select, following a
// CMAKE_BUILD_TYPE given through Define.
func (c *CMake) config() string {
	if def, ok := c.defines["CMAKE_BUILD_TYPE"]; ok && def.value != "" {
		return def.value
	}
	return c.buildType
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.exec(ctx, "configure", c.ConfigureArgs(args...))
}

// Build runs "cmake --build <build>" with optional extra arguments.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if cfg := c.config(); cfg != "" {
		cmdArgs = append(cmdArgs, "--config", cfg)
	}
	if c.verbose {
		cmdArgs = append(cmdArgs, "--verbose")
	}
	cmdArgs = append(cmdArgs, args...)
	return c.exec(ctx, "build", cmdArgs)
}

// Install runs "cmake --install <build>" with optional extra arguments.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if cfg := c.config(); cfg != "" {
		cmdArgs = append(cmdArgs, "--config", cfg)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.exec(ctx, "install", cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

// BuildDir returns the CMake binary directory.
func (c *CMake) BuildDir() string {
	return c.buildDir
}

func (c *CMake) exec(ctx context.Context, step string, args []string) error {
	env := c.env
	if c.parallel > 0 {
		if _, set := env["CMAKE_BUILD_PARALLEL_LEVEL"]; !set {
			env = make(map[string]string, len(c.env)+1)
			for k, v := range c.env {
				env[k] = v
			}
			env["CMAKE_BUILD_PARALLEL_LEVEL"] = strconv.Itoa(c.parallel)
		}
	}
	run := c.run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, "cmake", args, mergeEnv(os.Environ(), env), c.stream)
	if err != nil {
		return &Error{Step: step, Args: args, Output: string(out), Err: err}
	}
	return nil
}

func definesArgs(defs map[string]defineValue) []string {
	if len(defs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defs[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func execRunner(ctx context.Context, name string, args, env []string, stream io.Writer) ([]byte, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	if stream != nil {
		cmd.Stdout = io.MultiWriter(&buf, stream)
		cmd.Stderr = io.MultiWriter(&buf, stream)
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}
	err := cmd.Run()
	return buf.Bytes(), err
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// Error is a failed cmake step. Output holds the tool's diagnostics verbatim.
type Error struct {
	Step   string
	Args   []string
	Output string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cmake %s failed: %v", e.Step, e.Err)
	if out := strings.TrimRight(e.Output, "\n"); out != "" {
		msg += "\n\nBuild output:\n" + out
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsNativeBuildFailure reports whether err comes from a failed cmake step.
func IsNativeBuildFailure(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
