package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goplus/linkplan/internal/link"
	"github.com/goplus/linkplan/internal/mode"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.setMode(mode.External)
	m.countDirectives([]link.Directive{
		{Kind: link.Search, Name: "/a"},
		{Kind: link.Shared, Name: "ggml"},
		{Kind: link.Shared, Name: "ggml-base"},
	})
	m.stage("plan", time.Now())

	if got := testutil.ToFloat64(m.buildMode.WithLabelValues("external")); got != 1 {
		t.Errorf("external gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.buildMode.WithLabelValues("embedded")); got != 0 {
		t.Errorf("embedded gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.directiveCount.WithLabelValues("shared")); got != 2 {
		t.Errorf("shared directives = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.stageDuration); n != 1 {
		t.Errorf("stage series = %d, want 1", n)
	}

	path := filepath.Join(t.TempDir(), "linkplan.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`linkplan_build_mode{mode="external"} 1`,
		`linkplan_link_directives_total{kind="search"} 1`,
		`linkplan_pipeline_stage_duration_seconds_count{stage="plan"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics file missing %q:\n%s", want, data)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.setMode(mode.Embedded)
	m.countDirectives([]link.Directive{{Kind: link.Local, Name: "llama"}})
	m.stage("plan", time.Now())
}
