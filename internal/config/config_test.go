package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/target"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadFormats(t *testing.T) {
	d := t.TempDir()
	want := Config{
		Features:  []string{"use-shared-ggml", "vulkan"},
		SourceDir: "llama.cpp",
		Profile:   "Debug",
	}

	files := map[string]string{
		"cfg.yaml": "features: [use-shared-ggml, vulkan]\nsource_dir: llama.cpp\nprofile: Debug\n",
		"cfg.json": `{"features":["use-shared-ggml","vulkan"],"source_dir":"llama.cpp","profile":"Debug"}`,
		"cfg.toml": "features = [\"use-shared-ggml\", \"vulkan\"]\nsource_dir = \"llama.cpp\"\nprofile = \"Debug\"\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			got, err := Load(writeTempFile(t, d, name, content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	d := t.TempDir()
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\") should fail")
	}
	if _, err := Load(writeTempFile(t, d, "cfg.ini", "x=1")); err == nil {
		t.Error("Load(.ini) should fail")
	}
	if _, err := Load(writeTempFile(t, d, "bad.toml", "features = [")); err == nil {
		t.Error("Load(bad toml) should fail")
	}
	if _, err := Load(filepath.Join(d, "missing.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	var c Config
	c.ApplyEnv(env.Map(map[string]string{
		EnvSharedLibs: "1",
		EnvProfile:    "RelWithDebInfo",
		EnvStaticCRT:  "1",
		EnvDebug:      "",
		EnvTarget:     "aarch64-apple-darwin",
		EnvOutDir:     "/tmp/out",
	}))

	if c.SharedLibs == nil || !*c.SharedLibs {
		t.Error("SharedLibs not set from env")
	}
	if c.Profile != "RelWithDebInfo" {
		t.Errorf("Profile = %q", c.Profile)
	}
	if !c.StaticCRT || !c.Debug || c.Verbose {
		t.Errorf("StaticCRT=%v Debug=%v Verbose=%v", c.StaticCRT, c.Debug, c.Verbose)
	}
	if c.Target != "aarch64-apple-darwin" || c.OutDir != "/tmp/out" {
		t.Errorf("Target=%q OutDir=%q", c.Target, c.OutDir)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s, err := Config{Target: "x86_64-unknown-linux-gnu"}.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.Profile != "Release" {
		t.Errorf("Profile = %q, want Release", s.Profile)
	}
	if s.SharedLibs {
		t.Error("SharedLibs should default to false")
	}
	if s.Target.OS != target.Linux {
		t.Errorf("Target.OS = %v", s.Target.OS)
	}
	if s.LibBase() != "ggml" {
		t.Errorf("LibBase = %q", s.LibBase())
	}
}

func TestSettingsSharedLibs(t *testing.T) {
	s, err := Config{Features: []string{"dynamic-link"}, Target: "x86_64-unknown-linux-gnu"}.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !s.SharedLibs {
		t.Error("dynamic-link should enable shared libs")
	}

	off := false
	s, err = Config{Features: []string{"dynamic-link"}, SharedLibs: &off, Target: "x86_64-unknown-linux-gnu"}.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.SharedLibs {
		t.Error("explicit shared_libs=false should win over dynamic-link")
	}
}

func TestSettingsErrors(t *testing.T) {
	tests := map[string]Config{
		"unknown feature": {Features: []string{"turbo"}},
		"two namespaces":  {Features: []string{"namespace-llama,namespace-whisper"}},
		"bad target":      {Target: "wasm32-unknown-unknown"},
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Settings(); err == nil {
				t.Error("Settings() should fail")
			}
		})
	}
}
