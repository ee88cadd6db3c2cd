// Package link computes the link directives handed to the consuming build
// system: search paths, the libraries to link and how, and the rerun and
// warning notices that go with them.
package link

// Kind is the class of a directive.
type Kind string

const (
	// Search adds a library search path.
	Search Kind = "search"
	// Local links a library produced by the native build.
	Local Kind = "local"
	// Shared links a library of the shared ggml provider.
	Shared Kind = "shared"
	// System links a platform library.
	System Kind = "system"
	// Framework links an Apple framework.
	Framework Kind = "framework"
	// RerunFile asks the build system to rerun when a file changes.
	RerunFile Kind = "rerun-file"
	// RerunEnv asks the build system to rerun when a variable changes.
	RerunEnv Kind = "rerun-env"
	// Warning surfaces a message to the user.
	Warning Kind = "warning"
)

// Directive is one instruction to the consuming build system. Name holds the
// path, library, variable or message depending on Kind. Static marks Local
// and System libraries that must be linked as static archives.
type Directive struct {
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Static bool   `json:"static,omitempty"`
}

// IsLibrary reports whether d requests a library to be linked.
func (d Directive) IsLibrary() bool {
	switch d.Kind {
	case Local, Shared, System, Framework:
		return true
	}
	return false
}

// Arrange orders ds as search paths, then libraries, then the remaining
// notices. Relative order inside each group is kept, so link order is
// unchanged while every search path precedes the libraries it resolves.
func Arrange(ds []Directive) []Directive {
	out := make([]Directive, 0, len(ds))
	for _, d := range ds {
		if d.Kind == Search {
			out = append(out, d)
		}
	}
	for _, d := range ds {
		if d.IsLibrary() {
			out = append(out, d)
		}
	}
	for _, d := range ds {
		if d.Kind != Search && !d.IsLibrary() {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the names of the directives of kind k, in order.
func Names(ds []Directive, k Kind) []string {
	var names []string
	for _, d := range ds {
		if d.Kind == k {
			names = append(names, d.Name)
		}
	}
	return names
}

// Dedupe drops repeated directives, keeping the first occurrence.
func Dedupe(ds []Directive) []Directive {
	seen := make(map[Directive]bool, len(ds))
	out := ds[:0:0]
	for _, d := range ds {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
