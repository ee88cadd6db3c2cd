// Package native turns a resolved build into the option set handed to the
// llama.cpp CMake project.
package native

import (
	"github.com/goplus/linkplan/pkgs/buildsys/cmake"
)

// Define is a single CMake cache entry. An empty Type emits an untyped
// definition.
type Define struct {
	Key   string `json:"key"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// Options is the complete configuration of one native build. Defines keep
// the order they were first set in; setting a key again replaces its value.
type Options struct {
	Defines   []Define          `json:"defines"`
	CFlags    []string          `json:"cflags,omitempty"`
	CXXFlags  []string          `json:"cxxflags,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	Toolchain string            `json:"toolchain,omitempty"`
	Profile   string            `json:"profile"`
	StaticCRT *bool             `json:"static_crt,omitempty"`
	Verbose   bool              `json:"verbose"`
}

// Set defines key with the given CMake type.
func (o *Options) Set(key, typeName, value string) {
	for i := range o.Defines {
		if o.Defines[i].Key == key {
			o.Defines[i] = Define{Key: key, Type: typeName, Value: value}
			return
		}
	}
	o.Defines = append(o.Defines, Define{Key: key, Type: typeName, Value: value})
}

// SetBool defines key as ON or OFF.
func (o *Options) SetBool(key string, on bool) {
	v := "OFF"
	if on {
		v = "ON"
	}
	o.Set(key, cmake.Bool, v)
}

// Lookup returns the definition of key.
func (o Options) Lookup(key string) (Define, bool) {
	for _, d := range o.Defines {
		if d.Key == key {
			return d, true
		}
	}
	return Define{}, false
}

// Value returns the value of key, or "" when it is not defined.
func (o Options) Value(key string) string {
	d, _ := o.Lookup(key)
	return d.Value
}

// Flag appends flag to both the C and C++ flags.
func (o *Options) Flag(flag string) {
	o.CFlags = append(o.CFlags, flag)
	o.CXXFlags = append(o.CXXFlags, flag)
}

// Merge applies other on top of o: its defines replace o's, its flags are
// appended and its toolchain wins when set.
func (o *Options) Merge(other Options) {
	for _, d := range other.Defines {
		o.Set(d.Key, d.Type, d.Value)
	}
	o.CFlags = append(o.CFlags, other.CFlags...)
	o.CXXFlags = append(o.CXXFlags, other.CXXFlags...)
	for k, v := range other.Env {
		if o.Env == nil {
			o.Env = map[string]string{}
		}
		o.Env[k] = v
	}
	if other.Toolchain != "" {
		o.Toolchain = other.Toolchain
	}
}

// Apply writes o into c.
func (o Options) Apply(c *cmake.CMake) {
	for _, d := range o.Defines {
		c.DefineTyped(d.Key, d.Type, d.Value)
	}
	for _, f := range o.CFlags {
		c.CFlag(f)
	}
	for _, f := range o.CXXFlags {
		c.CXXFlag(f)
	}
	for k, v := range o.Env {
		c.Env(k, v)
	}
	if o.Toolchain != "" {
		c.Toolchain(o.Toolchain)
	}
	if o.Profile != "" {
		c.BuildType(o.Profile)
	}
	if o.StaticCRT != nil {
		c.StaticCRT(*o.StaticCRT)
	}
	c.Verbose(o.Verbose)
}
