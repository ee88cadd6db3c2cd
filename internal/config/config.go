// Package config holds the configuration surface of a resolution run: the
// feature toggles and the directories and toolchain knobs around them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/target"
)

// Environment keys read by ApplyEnv.
const (
	EnvSharedLibs = "LLAMA_BUILD_SHARED_LIBS"
	EnvProfile    = "LLAMA_LIB_PROFILE"
	EnvStaticCRT  = "LLAMA_STATIC_CRT"
	EnvDebug      = "BUILD_DEBUG"
	EnvVerbose    = "CMAKE_VERBOSE"
	EnvTarget     = "TARGET"
	EnvOutDir     = "OUT_DIR"
)

// Config is the on-disk configuration. Zero values mean "unspecified".
type Config struct {
	Features           []string `json:"features" yaml:"features" toml:"features"`
	SourceDir          string   `json:"source_dir" yaml:"source_dir" toml:"source_dir"`
	OutDir             string   `json:"out_dir" yaml:"out_dir" toml:"out_dir"`
	TargetDir          string   `json:"target_dir" yaml:"target_dir" toml:"target_dir"`
	Target             string   `json:"target" yaml:"target" toml:"target"`
	Profile            string   `json:"profile" yaml:"profile" toml:"profile"`
	SharedLibs         *bool    `json:"shared_libs" yaml:"shared_libs" toml:"shared_libs"`
	StaticCRT          bool     `json:"static_crt" yaml:"static_crt" toml:"static_crt"`
	MinProviderVersion string   `json:"min_provider_version" yaml:"min_provider_version" toml:"min_provider_version"`
	Debug              bool     `json:"debug" yaml:"debug" toml:"debug"`
	Verbose            bool     `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides onto c.
func (c *Config) ApplyEnv(l env.Lookup) {
	if v, set := l.Bool(EnvSharedLibs); set {
		c.SharedLibs = &v
	}
	if v := l.Get(EnvProfile); v != "" {
		c.Profile = v
	}
	if v, set := l.Bool(EnvStaticCRT); set {
		c.StaticCRT = v
	}
	if _, set := l(EnvDebug); set {
		c.Debug = true
	}
	if _, set := l(EnvVerbose); set {
		c.Verbose = true
	}
	if v := l.Get(EnvTarget); v != "" {
		c.Target = v
	}
	if v := l.Get(EnvOutDir); v != "" {
		c.OutDir = v
	}
}

// Settings is the validated form of a Config. It is computed once per run and
// never mutated afterwards.
type Settings struct {
	Features  Features
	Namespace string

	SourceDir string
	OutDir    string
	TargetDir string
	Target    target.Triple

	Profile    string
	SharedLibs bool
	StaticCRT  bool

	MinProviderVersion string
	Debug              bool
	Verbose            bool
}

// Settings validates c and fills in defaults.
func (c Config) Settings() (Settings, error) {
	features, err := ParseFeatures(c.Features...)
	if err != nil {
		return Settings{}, err
	}
	ns, err := features.Namespace()
	if err != nil {
		return Settings{}, err
	}
	triple := c.Target
	if triple == "" {
		triple = target.Host()
	}
	t, err := target.Parse(triple)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Features:           features,
		Namespace:          ns,
		SourceDir:          c.SourceDir,
		OutDir:             c.OutDir,
		TargetDir:          c.TargetDir,
		Target:             t,
		Profile:            c.Profile,
		SharedLibs:         features.Has(DynamicLink),
		StaticCRT:          c.StaticCRT,
		MinProviderVersion: c.MinProviderVersion,
		Debug:              c.Debug,
		Verbose:            c.Verbose,
	}
	if c.SharedLibs != nil {
		s.SharedLibs = *c.SharedLibs
	}
	if s.Profile == "" {
		s.Profile = "Release"
	}
	if s.SourceDir != "" {
		if s.SourceDir, err = filepath.Abs(s.SourceDir); err != nil {
			return Settings{}, err
		}
	}
	if s.OutDir != "" {
		if s.OutDir, err = filepath.Abs(s.OutDir); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

// LibBase returns the base name of the ggml libraries: the namespace when
// one is selected, "ggml" otherwise.
func (s Settings) LibBase() string {
	if s.Namespace != "" {
		return s.Namespace
	}
	return "ggml"
}
