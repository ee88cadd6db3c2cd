package link

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/env"
	"github.com/goplus/linkplan/internal/mode"
)

func features(t *testing.T, list string) config.Features {
	t.Helper()
	fs, err := config.ParseFeatures(list)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestSystemLibraries(t *testing.T) {
	clang := func() (string, error) {
		return "programs: =/usr/bin\nlibraries: =/Library/Developer/clang/15:/usr/lib\n", nil
	}
	tests := []struct {
		name string
		p    Platform
		want []Directive
	}{
		{
			name: "linux",
			p:    Platform{Target: triple(t, "x86_64-unknown-linux-gnu")},
			want: []Directive{{Kind: System, Name: "stdc++"}},
		},
		{
			name: "linux openmp vulkan sdk",
			p: Platform{
				Target:   triple(t, "x86_64-unknown-linux-gnu"),
				Features: features(t, "openmp,vulkan"),
				Lookup:   env.Map(map[string]string{EnvVulkanSDK: "/sdk"}),
			},
			want: []Directive{
				{Kind: Search, Name: "/sdk/lib"},
				{Kind: System, Name: "vulkan"},
				{Kind: System, Name: "gomp"},
				{Kind: System, Name: "stdc++"},
			},
		},
		{
			name: "msvc debug",
			p:    Platform{Target: triple(t, "x86_64-pc-windows-msvc"), Debug: true},
			want: []Directive{{Kind: System, Name: "advapi32"}, {Kind: System, Name: "msvcrtd"}},
		},
		{
			name: "macos",
			p:    Platform{Target: triple(t, "aarch64-apple-darwin"), ClangSearchDirs: clang},
			want: []Directive{
				{Kind: Framework, Name: "Foundation"},
				{Kind: Framework, Name: "Metal"},
				{Kind: Framework, Name: "MetalKit"},
				{Kind: Framework, Name: "Accelerate"},
				{Kind: System, Name: "c++"},
				{Kind: Search, Name: "/Library/Developer/clang/15/lib/darwin"},
				{Kind: System, Name: "clang_rt.osx"},
			},
		},
		{
			name: "macos without clang",
			p: Platform{
				Target:          triple(t, "x86_64-apple-darwin"),
				ClangSearchDirs: func() (string, error) { return "", errors.New("not found") },
			},
			want: []Directive{
				{Kind: Framework, Name: "Foundation"},
				{Kind: Framework, Name: "Metal"},
				{Kind: Framework, Name: "MetalKit"},
				{Kind: Framework, Name: "Accelerate"},
				{Kind: System, Name: "c++"},
			},
		},
		{
			name: "android",
			p:    Platform{Target: triple(t, "aarch64-linux-android")},
			want: []Directive{{Kind: System, Name: "log"}, {Kind: System, Name: "android"}},
		},
		{
			name: "embedded static cuda",
			p: Platform{
				Target:   triple(t, "x86_64-unknown-linux-gnu"),
				Features: features(t, "cuda"),
				Lookup:   env.Map(map[string]string{EnvCUDAPath: "/usr/local/cuda"}),
			},
			want: []Directive{
				{Kind: Search, Name: "/usr/local/cuda/lib64"},
				{Kind: System, Name: "cudart_static", Static: true},
				{Kind: System, Name: "cublas_static", Static: true},
				{Kind: System, Name: "cublasLt_static", Static: true},
				{Kind: System, Name: "cuda"},
				{Kind: System, Name: "culibos", Static: true},
				{Kind: System, Name: "stdc++"},
			},
		},
		{
			name: "external cuda links nothing extra",
			p: Platform{
				Target:   triple(t, "x86_64-unknown-linux-gnu"),
				Features: features(t, "cuda,use-shared-ggml"),
				Mode:     mode.External,
			},
			want: []Directive{{Kind: System, Name: "stdc++"}},
		},
		{
			name: "windows cuda no vmm",
			p: Platform{
				Target:   triple(t, "x86_64-pc-windows-msvc"),
				Features: features(t, "cuda,cuda-no-vmm"),
			},
			want: []Directive{
				{Kind: System, Name: "cudart"},
				{Kind: System, Name: "cublas"},
				{Kind: System, Name: "cublasLt"},
				{Kind: System, Name: "advapi32"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SystemLibraries(tt.p)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SystemLibraries =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestEnvKeys(t *testing.T) {
	p := Platform{Features: features(t, "vulkan,cuda")}
	if got, want := EnvKeys(p), []string{EnvVulkanSDK, EnvCUDAPath}; !reflect.DeepEqual(got, want) {
		t.Errorf("EnvKeys = %v, want %v", got, want)
	}
	p.SharedLibs = true
	if got, want := EnvKeys(p), []string{EnvVulkanSDK}; !reflect.DeepEqual(got, want) {
		t.Errorf("EnvKeys = %v, want %v", got, want)
	}
}
