package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/linkplan/internal/headers"
)

var headersCgo bool

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "Print include arguments for the binding generator",
	Args:  cobra.NoArgs,
	RunE:  runHeaders,
}

func init() {
	headersCmd.Flags().BoolVar(&headersCgo, "cgo", false, "Print a #cgo CFLAGS line")
	rootCmd.AddCommand(headersCmd)
}

func runHeaders(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	p, err := newBuilder(cmd, s).Plan()
	if err != nil {
		return err
	}
	out := strings.Join(p.ClangArgs, "\n")
	if headersCgo {
		out = headers.CgoCFlags(p.ClangArgs)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
