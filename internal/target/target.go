// Package target classifies compilation target triples and answers the
// platform questions the link and configure stages ask about them.
package target

import (
	"fmt"
	"runtime"
	"strings"
)

// OS is the operating system family of a target.
type OS int

const (
	Linux OS = iota
	Windows
	Apple
	Android
)

func (o OS) String() string {
	switch o {
	case Windows:
		return "windows"
	case Apple:
		return "apple"
	case Android:
		return "android"
	default:
		return "linux"
	}
}

// Triple is a parsed target triple such as "x86_64-unknown-linux-gnu".
type Triple struct {
	Raw string
	OS  OS

	// MSVC is set for *-windows-msvc targets.
	MSVC bool
	// MacOS is set for *-apple-darwin targets; other Apple targets (iOS,
	// tvOS) leave it false.
	MacOS bool
}

var androidShortNames = map[string]bool{
	"aarch64-linux-android":   true,
	"armv7-linux-androideabi": true,
	"i686-linux-android":      true,
	"x86_64-linux-android":    true,
}

// Parse classifies s. Triples for operating systems the native build does not
// support are an error.
func Parse(s string) (Triple, error) {
	t := Triple{Raw: s}
	switch {
	case strings.Contains(s, "windows"):
		t.OS = Windows
		t.MSVC = strings.HasSuffix(s, "-windows-msvc")
	case strings.Contains(s, "apple"):
		t.OS = Apple
		t.MacOS = strings.HasSuffix(s, "-apple-darwin")
	case strings.Contains(s, "android") || androidShortNames[s]:
		t.OS = Android
	case strings.Contains(s, "linux"):
		t.OS = Linux
	default:
		return Triple{}, fmt.Errorf("unsupported target %q", s)
	}
	return t, nil
}

// Host returns the triple of the machine running this process.
func Host() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	}
	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	case "android":
		return arch + "-linux-android"
	default:
		return arch + "-unknown-linux-gnu"
	}
}

// Arch returns the architecture component of the triple.
func (t Triple) Arch() string {
	arch, _, _ := strings.Cut(t.Raw, "-")
	return arch
}

// IsGNU reports whether the target uses the GNU toolchain environment.
func (t Triple) IsGNU() bool {
	return strings.Contains(t.Raw, "gnu")
}

// LibraryPattern is the glob matching libraries produced by the native build,
// static archives or shared objects depending on shared.
func (t Triple) LibraryPattern(shared bool) string {
	switch {
	case t.OS == Windows:
		return "*.lib"
	case t.OS == Apple && shared:
		return "*.dylib"
	case shared:
		return "*.so"
	default:
		return "*.a"
	}
}

// SharedPattern is the glob matching runtime shared objects.
func (t Triple) SharedPattern() string {
	switch t.OS {
	case Windows:
		return "*.dll"
	case Apple:
		return "*.dylib"
	default:
		return "*.so"
	}
}

// SharedDir is the install subdirectory holding runtime shared objects.
func (t Triple) SharedDir() string {
	if t.OS == Windows {
		return "bin"
	}
	return "lib"
}

// SharedFile returns the runtime file name of the shared library name.
func (t Triple) SharedFile(name string) string {
	switch t.OS {
	case Windows:
		return name + ".dll"
	case Apple:
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// LinkFile returns the file name the linker resolves for library name:
// the import library on Windows, the shared object elsewhere.
func (t Triple) LinkFile(name string) string {
	if t.OS == Windows {
		return name + ".lib"
	}
	return t.SharedFile(name)
}

// AndroidABI maps the triple to its Android NDK ABI name.
func (t Triple) AndroidABI() (string, error) {
	switch {
	case strings.Contains(t.Raw, "aarch64"):
		return "arm64-v8a", nil
	case strings.Contains(t.Raw, "armv7"):
		return "armeabi-v7a", nil
	case strings.Contains(t.Raw, "x86_64"):
		return "x86_64", nil
	case strings.Contains(t.Raw, "i686"):
		return "x86", nil
	}
	return "", fmt.Errorf("unsupported Android target %q (supported: aarch64-linux-android, armv7-linux-androideabi, i686-linux-android, x86_64-linux-android)", t.Raw)
}
