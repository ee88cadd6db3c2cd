package link

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/goplus/linkplan/internal/config"
	"github.com/goplus/linkplan/internal/diag"
	"github.com/goplus/linkplan/internal/mode"
	"github.com/goplus/linkplan/internal/provider"
)

var nativeLibs = []string{"llama", "ggml", "ggml-base", "ggml-cpu", "ggml-vulkan", "common", "mtmd"}

func TestEmitEmbeddedIsIdentity(t *testing.T) {
	ds := Emit(Input{Mode: mode.Embedded, Libraries: nativeLibs}, nil)

	if got := Names(ds, Search); len(got) != 0 {
		t.Errorf("search directives = %v, want none", got)
	}
	if got := Names(ds, Local); !reflect.DeepEqual(got, nativeLibs) {
		t.Errorf("local = %v, want %v", got, nativeLibs)
	}
	if got := Names(ds, Shared); len(got) != 0 {
		t.Errorf("shared = %v, want none", got)
	}
	for _, d := range ds {
		if !d.Static {
			t.Errorf("%s not static with static libraries", d.Name)
		}
	}
}

func TestEmitEmbeddedSharedLibs(t *testing.T) {
	ds := Emit(Input{Mode: mode.Embedded, Libraries: []string{"llama"}, SharedLibs: true}, nil)
	if len(ds) != 1 || ds[0].Static {
		t.Errorf("Emit = %+v, want one dynamic local", ds)
	}
}

func TestEmitExternalWithRoot(t *testing.T) {
	loc := provider.Location{
		Root:      "/opt/dep",
		Prefix:    "/opt/dep",
		LibDir:    "/opt/dep/lib",
		ConfigDir: provider.ConfigDir{State: provider.Found, Path: "/opt/dep/lib/cmake/ggml"},
	}
	in := Input{
		Mode:        mode.External,
		Location:    loc,
		Libraries:   nativeLibs,
		Backends:    []config.Backend{config.BackendVulkan},
		LibBase:     "ggml",
		LocalSearch: []string{"/out/lib", "/out/lib64"},
	}
	ds := Emit(in, nil)

	if ds[0] != (Directive{Kind: Search, Name: "/opt/dep/lib"}) {
		t.Errorf("first directive = %+v, want provider search path", ds[0])
	}
	if got, want := Names(ds, Search), []string{"/opt/dep/lib", "/out/lib", "/out/lib64"}; !reflect.DeepEqual(got, want) {
		t.Errorf("search = %v, want %v", got, want)
	}
	if got, want := Names(ds, Shared), []string{"ggml", "ggml-base", "ggml-cpu", "ggml-vulkan"}; !reflect.DeepEqual(got, want) {
		t.Errorf("shared = %v, want %v", got, want)
	}
	for _, name := range Names(ds, Local) {
		if strings.HasPrefix(name, Prefix) {
			t.Errorf("local directive %s carries the shared prefix", name)
		}
	}
	if got, want := Names(ds, Local), []string{"llama", "common", "mtmd"}; !reflect.DeepEqual(got, want) {
		t.Errorf("local = %v, want %v", got, want)
	}
	if err := Check(ds); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestEmitExternalWithoutRoot(t *testing.T) {
	d := diag.New(zerolog.Nop())
	loc := provider.Location{IncludeDir: "/usr/local/include/dep"}
	ds := Emit(Input{Mode: mode.External, Location: loc, Libraries: []string{"llama", "ggml"}, LibBase: "ggml"}, d)

	if got := Names(ds, Search); len(got) != 0 {
		t.Errorf("search = %v, want none", got)
	}
	if got, want := Names(ds, Shared), []string{"ggml", "ggml-base", "ggml-cpu"}; !reflect.DeepEqual(got, want) {
		t.Errorf("shared = %v, want %v", got, want)
	}
	if !d.Has(diag.SearchPathUnknown) {
		t.Error("missing search path not reported")
	}
	if len(d.Warnings()) != 1 {
		t.Errorf("warnings = %+v, want one", d.Warnings())
	}
}

func TestEmitExternalNamespaced(t *testing.T) {
	in := Input{
		Mode:      mode.External,
		Location:  provider.Location{LibDir: "/p/lib"},
		Libraries: []string{"llama", "ggml_llama", "ggml_llama-base", "ggml"},
		Backends:  []config.Backend{config.BackendMetal, config.BackendCUDA},
		LibBase:   "ggml_llama",
	}
	ds := Emit(in, nil)
	if got, want := Names(ds, Local), []string{"llama"}; !reflect.DeepEqual(got, want) {
		t.Errorf("local = %v, want %v", got, want)
	}
	want := []string{"ggml_llama", "ggml_llama-base", "ggml_llama-cpu", "ggml_llama-metal", "ggml_llama-cuda"}
	if got := Names(ds, Shared); !reflect.DeepEqual(got, want) {
		t.Errorf("shared = %v, want %v", got, want)
	}
}

func TestEmitBackendMapping(t *testing.T) {
	all := []config.Backend{config.BackendVulkan, config.BackendMetal, config.BackendBLAS, config.BackendCUDA, config.BackendHIP}
	got := SharedNames("", all)
	want := []string{"ggml", "ggml-base", "ggml-cpu", "ggml-vulkan", "ggml-metal", "ggml-blas", "ggml-cuda", "ggml-hip"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SharedNames = %v, want %v", got, want)
	}
}

func TestEmitIdempotent(t *testing.T) {
	in := Input{
		Mode:      mode.External,
		Location:  provider.Location{LibDir: "/opt/dep/lib"},
		Libraries: nativeLibs,
		Backends:  []config.Backend{config.BackendCUDA},
		LibBase:   "ggml",
	}
	for _, f := range []Format{Cargo, Cgo, JSON} {
		var a, b bytes.Buffer
		if err := Encode(&a, f, Emit(in, nil)); err != nil {
			t.Fatal(err)
		}
		if err := Encode(&b, f, Emit(in, nil)); err != nil {
			t.Fatal(err)
		}
		if a.String() != b.String() {
			t.Errorf("%s output differs between runs:\n%s\n%s", f, a.String(), b.String())
		}
	}
}
