package native

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/target"
)

func fakeNDK(t *testing.T) string {
	t.Helper()
	ndk := t.TempDir()
	dir := mkdir(t, ndk, "build", "cmake")
	if err := os.WriteFile(filepath.Join(dir, "android.toolchain.cmake"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return ndk
}

func mustTriple(t *testing.T, s string) target.Triple {
	t.Helper()
	tr, err := target.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestAndroid(t *testing.T) {
	ndk := fakeNDK(t)
	tests := []struct {
		triple   string
		vars     map[string]string
		abi      string
		platform string
		flags    []string
	}{
		{"aarch64-linux-android", map[string]string{EnvNDK: ndk}, "arm64-v8a", "android-28", []string{"-march=armv8-a"}},
		{"armv7-linux-androideabi", map[string]string{EnvNDKRoot: ndk, EnvAPILevel: "24"}, "armeabi-v7a", "android-24", []string{"-march=armv7-a", "-mfpu=neon", "-mthumb"}},
		{"x86_64-linux-android", map[string]string{EnvNDKAlt: ndk, EnvPlatform: "android-30", EnvAPILevel: "24"}, "x86_64", "android-30", []string{"-march=x86-64"}},
		{"i686-linux-android", map[string]string{EnvNDK: ndk}, "x86", "android-28", []string{"-march=i686"}},
	}
	for _, tt := range tests {
		t.Run(tt.triple, func(t *testing.T) {
			o, err := Android(env.Map(tt.vars), mustTriple(t, tt.triple))
			if err != nil {
				t.Fatalf("Android: %v", err)
			}
			if o.Toolchain != filepath.Join(ndk, "build", "cmake", "android.toolchain.cmake") {
				t.Errorf("Toolchain = %q", o.Toolchain)
			}
			if got := o.Value("ANDROID_ABI"); got != tt.abi {
				t.Errorf("ANDROID_ABI = %q, want %q", got, tt.abi)
			}
			if got := o.Value("ANDROID_PLATFORM"); got != tt.platform {
				t.Errorf("ANDROID_PLATFORM = %q, want %q", got, tt.platform)
			}
			if got := o.Value("GGML_LLAMAFILE"); got != "OFF" {
				t.Errorf("GGML_LLAMAFILE = %q, want OFF", got)
			}
			if !reflect.DeepEqual(o.CFlags, tt.flags) {
				t.Errorf("CFlags = %v, want %v", o.CFlags, tt.flags)
			}
		})
	}
}

func TestAndroidErrors(t *testing.T) {
	incomplete := t.TempDir()
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"no ndk", nil, "android NDK not found"},
		{"missing dir", map[string]string{EnvNDK: filepath.Join(incomplete, "nope")}, "does not exist"},
		{"no toolchain", map[string]string{EnvNDK: incomplete}, "toolchain file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Android(env.Map(tt.vars), mustTriple(t, "aarch64-linux-android"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Android error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
