package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/rmsim/internal/models"
	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/sim"
)

func TestPeakAndFinal(t *testing.T) {
	p := NewPeak("X", 1)
	f := NewFinal("X", 1)

	for k, x := range [][]float64{{0, 1}, {0, 3}, {0, 2}} {
		p.OnStep(k, float64(k), x)
		f.OnStep(k, float64(k), x)
	}

	if p.Value() != 3 {
		t.Errorf("expected peak 3, got %f", p.Value())
	}
	if f.Value() != 2 {
		t.Errorf("expected final 2, got %f", f.Value())
	}

	p.Reset()
	if p.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", p.Value())
	}
}

func TestIAE(t *testing.T) {
	e := NewIAE("S", 0, 1.0, 0)

	e.OnStep(0, 0.5, []float64{3})
	e.OnStep(1, 1.0, []float64{0})

	// |3-1|*0.5 + |0-1|*0.5
	if math.Abs(e.Value()-1.5) > 1e-12 {
		t.Errorf("expected 1.5, got %f", e.Value())
	}

	e.Reset()
	e.OnStep(0, 0.5, []float64{1})
	if e.Value() != 0 {
		t.Errorf("expected 0 on setpoint, got %f", e.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(10)
	if s.Value() != 1.0 {
		t.Errorf("expected 1.0 with no samples, got %f", s.Value())
	}

	s.OnStep(0, 1, []float64{1, 2})
	s.OnStep(1, 2, []float64{1, 20})
	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", s.Value())
	}
}

func TestDefault_Monod(t *testing.T) {
	s, err := session.Open(models.NewRegistry(), "monod", session.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	set := Default(s.Definition(), 0)

	want := []string{"final_S", "final_V", "final_X", "iae_S", "peak_S", "peak_V", "peak_X"}
	got := set.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}

	if _, err := set.Lookup("iae_X"); err == nil {
		t.Error("expected error for missing metric")
	}
}

func TestSet_ObservesRuns(t *testing.T) {
	registry := models.NewRegistry()
	def, err := registry.Load("decay")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	set := Default(def, 0)

	s, err := session.Open(registry, "decay", session.Options{Observers: []sim.Observer{set}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	traj, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	first := set.Values()
	if first["final_X"] != traj.Final()["X"] {
		t.Errorf("expected final_X %f, got %f", traj.Final()["X"], first["final_X"])
	}
	if first["peak_X"] != traj.Rows[0][0] {
		t.Errorf("expected peak at first row %f, got %f", traj.Rows[0][0], first["peak_X"])
	}

	// The second run continues the decay, so a reset peak must be lower.
	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := set.Values(); got["peak_X"] >= first["peak_X"] {
		t.Errorf("metrics not reset between runs: %v vs %v", got, first)
	}
}
