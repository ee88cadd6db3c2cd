package internal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/linkplan/internal/build"
	"github.com/goplus/linkplan/internal/link"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build llama.cpp and print its link directives",
	Long: `Build runs the native build of llama.cpp for the selected mode and prints the
link directives for the consuming build on standard output.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	m := build.NewMetrics()
	opts := []build.Option{build.WithMetrics(m)}
	if s.Verbose {
		opts = append(opts, build.WithStream(cmd.ErrOrStderr()))
	}
	b := newBuilder(cmd, s, opts...)
	p, err := b.Plan()
	if err != nil {
		return err
	}
	res, err := b.Build(ctx, p)
	if err != nil {
		return err
	}
	if err := link.Encode(cmd.OutOrStdout(), link.Format(format), res.Directives); err != nil {
		return fmt.Errorf("failed to write directives: %w", err)
	}
	return writeMetrics(m)
}
