package build

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestRerunFiles(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "CMakeLists.txt")
	writeFile(t, src, "cmake", "CMakeHelpers.cmake")
	writeFile(t, src, "common", "common.cpp")
	writeFile(t, src, "src", "llama.cpp")
	writeFile(t, src, "srcfoo", "ignored.c")
	writeFile(t, src, ".git", "CMakeLists.txt")
	writeFile(t, src, "src", ".hidden")
	writeFile(t, src, "README.md")

	got, err := RerunFiles(src)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(src, "CMakeLists.txt"),
		filepath.Join(src, "cmake", "CMakeHelpers.cmake"),
		filepath.Join(src, "common"),
		filepath.Join(src, "common", "common.cpp"),
		filepath.Join(src, "src"),
		filepath.Join(src, "src", "llama.cpp"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RerunFiles =\n%v\nwant\n%v", got, want)
	}
}

func TestRerunFilesMissingTree(t *testing.T) {
	got, err := RerunFiles(filepath.Join(t.TempDir(), "absent"))
	if err != nil || got != nil {
		t.Errorf("RerunFiles = %v, %v; want nothing", got, err)
	}
}
