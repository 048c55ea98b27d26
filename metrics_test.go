package darkroom

import (
	"image"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/gogpu/darkroom/ops"
)

// gather returns the metric families of reg by name.
func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterValue(t *testing.T, families map[string]*dto.MetricFamily, name, kind string) float64 {
	t.Helper()
	f, ok := families[name]
	if !ok {
		return 0
	}
	var sum float64
	for _, m := range f.GetMetric() {
		if kind != "" {
			match := false
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "kind" && lp.GetValue() == kind {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		sum += m.GetCounter().GetValue()
	}
	return sum
}

func TestMetricsCountActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := openHistory(t, pattern(8, 8), WithMetrics(NewMetrics(reg)), WithCheckpointInterval(2))

	applyAll(t, h, []ops.Op{ops.Invert{}, ops.Invert{}, ops.Greyscale{}})
	_ = h.Apply(ops.Crop{P1: image.Pt(0, 0), P2: image.Pt(40, 40)}) // out of bounds
	_ = h.Undo()
	_ = h.Undo()
	_ = h.Redo()

	fam := gather(t, reg)
	checks := []struct {
		name string
		kind string
		want float64
	}{
		{"darkroom_operations_applied_total", "invert", 2},
		{"darkroom_operations_applied_total", "greyscale", 1},
		{"darkroom_operations_rejected_total", "crop", 1},
		{"darkroom_undos_total", "", 2},
		{"darkroom_redos_total", "", 1},
	}
	for _, c := range checks {
		if got := counterValue(t, fam, c.name, c.kind); got != c.want {
			t.Errorf("%s{kind=%q} = %v, want %v", c.name, c.kind, got, c.want)
		}
	}
	if counterValue(t, fam, "darkroom_checkpoint_hits_total", "") == 0 {
		t.Error("expected undo to start from a checkpoint at least once")
	}
	if _, ok := fam["darkroom_recompute_duration_seconds"]; !ok {
		t.Error("recompute histogram not exported")
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observeApply(ops.Invert{})
	m.observeReject(nil)
	m.observeUndo()
	m.observeRedo()
	m.observeReplay(3, true)
	m.startRecompute()()
}

func TestNewMetricsWithoutRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.observeApply(ops.Sharpen{})
	_ = NewMetrics(prometheus.NewRegistry())
}
