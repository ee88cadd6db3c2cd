package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/linkplan/internal/build"
	"github.com/goplus/linkplan/internal/link"
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Print link directives for an existing build",
	Long: `Links enumerates the libraries an earlier native build installed in the
output directory and prints the link directives, without running the build.`,
	Args: cobra.NoArgs,
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if s.OutDir == "" {
		return fmt.Errorf("output directory is not set, use --out-dir or OUT_DIR")
	}
	m := build.NewMetrics()
	b := newBuilder(cmd, s, build.WithMetrics(m))
	p, err := b.Plan()
	if err != nil {
		return err
	}
	ds, _, err := b.Links(p, filepath.Join(s.OutDir, "build"))
	if err != nil {
		return err
	}
	if err := link.Encode(cmd.OutOrStdout(), link.Format(format), ds); err != nil {
		return fmt.Errorf("failed to write directives: %w", err)
	}
	return writeMetrics(m)
}
