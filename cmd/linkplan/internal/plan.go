package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/linkplan/internal/build"
	"github.com/goplus/linkplan/internal/native"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Resolve the build mode and native build options",
	Long: `Plan selects the build mode, locates the shared ggml provider and prints the
options the native build would be configured with, without running it.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

type diagnosticOutput struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type planOutput struct {
	*build.Plan
	Diagnostics []diagnosticOutput `json:"diagnostics"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	m := build.NewMetrics()
	p, err := newBuilder(cmd, s, build.WithMetrics(m)).Plan()
	if err != nil {
		return err
	}
	out := planOutput{Plan: p, Diagnostics: []diagnosticOutput{}}
	for _, d := range p.Diagnostics() {
		out.Diagnostics = append(out.Diagnostics, diagnosticOutput{Level: d.Level.String(), Code: string(d.Code), Message: d.Message})
	}

	w := cmd.OutOrStdout()
	if planJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(out)
	} else {
		err = printPlan(w, out)
	}
	if err != nil {
		return err
	}
	return writeMetrics(m)
}

func printPlan(w io.Writer, out planOutput) error {
	var b strings.Builder
	loc := out.Location
	fmt.Fprintf(&b, "mode: %s\n", out.Mode)
	fmt.Fprintf(&b, "provider:\n")
	fmt.Fprintf(&b, "  root: %s\n", orUnknown(loc.Root))
	fmt.Fprintf(&b, "  lib dir: %s\n", orUnknown(loc.LibDir))
	fmt.Fprintf(&b, "  include dir: %s\n", orUnknown(loc.IncludeDir))
	fmt.Fprintf(&b, "  config dir: %s %s\n", loc.ConfigDir.State, loc.ConfigDir.Path)
	fmt.Fprintf(&b, "  version: %s\n", orUnknown(loc.Version))
	fmt.Fprintf(&b, "options:\n")
	for _, d := range out.Options.Defines {
		fmt.Fprintf(&b, "  %s\n", defineArg(d))
	}
	if len(out.Options.CFlags) > 0 {
		fmt.Fprintf(&b, "  CFLAGS: %s\n", strings.Join(out.Options.CFlags, " "))
	}
	if out.Options.Toolchain != "" {
		fmt.Fprintf(&b, "  toolchain: %s\n", out.Options.Toolchain)
	}
	fmt.Fprintf(&b, "include paths:\n")
	for _, p := range out.IncludePaths {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	if len(out.Diagnostics) > 0 {
		fmt.Fprintf(&b, "diagnostics:\n")
		for _, d := range out.Diagnostics {
			fmt.Fprintf(&b, "  %s %s: %s\n", d.Level, d.Code, d.Message)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func defineArg(d native.Define) string {
	if d.Type == "" {
		return "-D" + d.Key + "=" + d.Value
	}
	return "-D" + d.Key + ":" + d.Type + "=" + d.Value
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
