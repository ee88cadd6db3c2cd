package native

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/target"
	"github.com/goplus/linkplan/pkgs/buildsys/cmake"
)

// Environment keys read by Android, in lookup order for the NDK.
const (
	EnvNDK          = "ANDROID_NDK"
	EnvNDKRoot      = "NDK_ROOT"
	EnvNDKAlt       = "ANDROID_NDK_ROOT"
	EnvPlatform     = "ANDROID_PLATFORM"
	EnvAPILevel     = "ANDROID_API_LEVEL"
	DefaultPlatform = "android-28"
)

// AndroidEnvKeys lists every variable Android reads.
var AndroidEnvKeys = []string{EnvNDK, EnvNDKRoot, EnvNDKAlt, EnvPlatform, EnvAPILevel}

// toolchainFile is the NDK's CMake toolchain, relative to the NDK root.
var toolchainFile = filepath.Join("build", "cmake", "android.toolchain.cmake")

var abiFlags = map[string][]string{
	"arm64-v8a":   {"-march=armv8-a"},
	"armeabi-v7a": {"-march=armv7-a", "-mfpu=neon", "-mthumb"},
	"x86_64":      {"-march=x86-64"},
	"x86":         {"-march=i686"},
}

// Android returns the cross-compilation options for an Android target. A
// missing or incomplete NDK is an error.
func Android(lookup env.Lookup, t target.Triple) (Options, error) {
	var o Options
	_, ndk, ok := lookup.First(EnvNDK, EnvNDKRoot, EnvNDKAlt)
	if !ok {
		return o, fmt.Errorf("android NDK not found, set one of %s", strings.Join([]string{EnvNDK, EnvNDKRoot, EnvNDKAlt}, ", "))
	}
	if err := validateNDK(ndk); err != nil {
		return o, fmt.Errorf("android NDK validation failed: %w", err)
	}
	abi, err := t.AndroidABI()
	if err != nil {
		return o, err
	}

	o.Toolchain = filepath.Join(ndk, toolchainFile)
	platform := lookup.Get(EnvPlatform)
	if platform == "" {
		if level := lookup.Get(EnvAPILevel); level != "" {
			platform = "android-" + level
		} else {
			platform = DefaultPlatform
		}
	}
	o.Set("ANDROID_PLATFORM", cmake.String, platform)
	o.Set("ANDROID_ABI", cmake.String, abi)
	for _, f := range abiFlags[abi] {
		o.Flag(f)
	}
	o.SetBool("GGML_LLAMAFILE", false)
	return o, nil
}

func validateNDK(ndk string) error {
	fi, err := os.Stat(ndk)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("NDK path does not exist: %s", ndk)
	}
	tc := filepath.Join(ndk, toolchainFile)
	if _, err := os.Stat(tc); err != nil {
		return fmt.Errorf("NDK toolchain file not found: %s (incomplete NDK installation)", tc)
	}
	return nil
}
