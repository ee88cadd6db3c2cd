package buildsys

import "context"

// BuildSystem captures the lifecycle shared by native build tool drivers.
// Implementations add their own option setters.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment override for the tool invocations.
	Env(key, val string)

	// Lifecycle. Each step blocks until the tool exits; cancelling ctx kills it.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
