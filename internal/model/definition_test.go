package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/rmsim/internal/hook"
	"github.com/san-kum/rmsim/internal/variables"
)

type decayComp struct{}

func (decayComp) States() []string { return []string{"X"} }
func (decayComp) Derive(t float64, x []float64, in map[string]float64, dx []float64) error {
	dx[0] = -x[0] / in["P"]
	return nil
}

type twoStateComp struct{ order []string }

func (c twoStateComp) States() []string { return c.order }
func (c twoStateComp) Derive(t float64, x []float64, in map[string]float64, dx []float64) error {
	return nil
}

func mustLoad(t *testing.T, csv string) *variables.Table {
	t.Helper()
	tbl, err := variables.Load(strings.NewReader(csv), "test.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return tbl
}

func decayDefinition(t *testing.T) *Definition {
	t.Helper()
	params := mustLoad(t, "Var,Label,Value\nP,Time constant,2.0\n")
	mvars := mustLoad(t, "Var,Label,Value,Min,Max,Units,State\nX0,Initial Amount,1.0,0,,g,True\nF,Feed,0.0,0,1,L/h,False\n")
	d, err := New("decay", params, mvars, decayComp{})
	if err != nil {
		t.Fatalf("new definition: %v", err)
	}
	return d
}

func TestNew_SynthesizesState(t *testing.T) {
	d := decayDefinition(t)

	mv := d.Manipulated()
	if mv.Len() != 3 {
		t.Fatalf("expected 3 manipulated rows, got %d", mv.Len())
	}

	x, ok := mv.Get("X", variables.Default)
	if !ok {
		t.Fatal("state X not synthesized")
	}
	if !x.State || x.Value != 1.0 || x.Label != "Amount" || x.Units != "g" || x.Min != 0 {
		t.Errorf("unexpected synthesized record: %+v", x)
	}

	x0, _ := mv.Get("X0", variables.Current)
	if x0.State {
		t.Error("originating row should be marked non-state")
	}

	if init, ok := d.InitialOf("X"); !ok || init != "X0" {
		t.Errorf("expected X paired with X0, got %q", init)
	}
}

func TestNew_StateArityMatchesComputation(t *testing.T) {
	d := decayDefinition(t)

	count := 0
	for _, r := range d.Manipulated().Records(variables.Current) {
		if r.State {
			count++
		}
	}
	if count != len(d.Computation().States()) {
		t.Errorf("expected %d state rows, got %d", len(d.Computation().States()), count)
	}
}

func TestNew_DoesNotModifySourceTable(t *testing.T) {
	mvars := mustLoad(t, "Var,Value,State\nX0,1,True\n")
	params := mustLoad(t, "Var,Value\nP,2\n")
	if _, err := New("decay", params, mvars, decayComp{}); err != nil {
		t.Fatal(err)
	}
	if mvars.Len() != 1 || mvars.Has("X") {
		t.Error("source table was modified")
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	params := "Var,Value\nP,2\n"
	tests := []struct {
		name   string
		params string
		mvars  string
		comp   Computation
		want   error
	}{
		{"nil computation", params, "Var,Value,State\nX0,1,True\n", nil, ErrNoComputation},
		{"arity mismatch", params, "Var,Value,State\nX0,1,True\nY0,1,True\n", decayComp{}, ErrStateMismatch},
		{"wrong state id", params, "Var,Value,State\nZ0,1,True\n", decayComp{}, ErrStateMismatch},
		{"duplicate computation states", params, "Var,Value,State\nX0,1,True\nY0,1,True\n",
			twoStateComp{order: []string{"X", "X"}}, ErrStateMismatch},
		{"state without suffix", params, "Var,Value,State\nX,1,True\n", decayComp{}, ErrConfiguration},
		{"synthesized collides", params, "Var,Value,State\nX0,1,True\nX,1,False\n", decayComp{}, variables.ErrDuplicateKey},
		{"param and mvar overlap", params, "Var,Value,State\nX0,1,True\nP,3,False\n", decayComp{}, variables.ErrDuplicateKey},
		{"state parameter", "Var,Value,State\nP,2,True\n", "Var,Value,State\nX0,1,True\n", decayComp{}, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("m", mustLoad(t, tt.params), mustLoad(t, tt.mvars), tt.comp)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStateOrderFollowsComputation(t *testing.T) {
	params := mustLoad(t, "Var,Value\nP,2\n")
	mvars := mustLoad(t, "Var,Value,State\nA0,1,True\nB0,2,True\n")
	d, err := New("m", params, mvars, twoStateComp{order: []string{"B", "A"}})
	if err != nil {
		t.Fatal(err)
	}

	ids := d.StateIDs()
	if ids[0] != "B" || ids[1] != "A" {
		t.Errorf("expected [B A], got %v", ids)
	}
	x := d.StateVector()
	if x[0] != 2 || x[1] != 1 {
		t.Errorf("expected [2 1], got %v", x)
	}
}

func TestAllInputs_ExcludesState(t *testing.T) {
	d := decayDefinition(t)
	in := d.AllInputs()

	if _, ok := in["X"]; ok {
		t.Error("state X leaked into inputs")
	}
	for _, id := range []string{"P", "F", "X0"} {
		if _, ok := in[id]; !ok {
			t.Errorf("inputs missing %s", id)
		}
	}
}

func TestApplyStateUpdate(t *testing.T) {
	d := decayDefinition(t)

	d.ApplyStateUpdate(map[string]float64{"X": 0.5, "F": 0.9}, false)
	if d.State()["X"] != 0.5 {
		t.Errorf("expected X=0.5, got %v", d.State()["X"])
	}
	if v, _ := d.Manipulated().Value("X0"); v != 1.0 {
		t.Errorf("X0 should be untouched without propagation, got %v", v)
	}
	if v, _ := d.Manipulated().Value("F"); v != 0 {
		t.Errorf("non-state F should be ignored, got %v", v)
	}

	if err := d.ApplyStateVector([]float64{0.25}, true); err != nil {
		t.Fatal(err)
	}
	if v, _ := d.Manipulated().Value("X0"); v != 0.25 {
		t.Errorf("expected X0 propagated to 0.25, got %v", v)
	}
	if r, _ := d.Manipulated().Get("X0", variables.Default); r.Value != 1.0 {
		t.Errorf("default snapshot changed: %v", r.Value)
	}

	if err := d.ApplyStateVector([]float64{1, 2}, false); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("expected ErrStateMismatch, got %v", err)
	}
}

func TestUpdateInputs_SkipsState(t *testing.T) {
	d := decayDefinition(t)
	d.UpdateInputs(map[string]float64{"P": 4, "F": 0.3, "X": 100})

	in := d.AllInputs()
	if in["P"] != 4 || in["F"] != 0.3 {
		t.Errorf("expected P=4 F=0.3, got %v", in)
	}
	if d.State()["X"] != 1.0 {
		t.Errorf("state written through UpdateInputs: %v", d.State()["X"])
	}
}

func TestReset(t *testing.T) {
	d := decayDefinition(t)
	d.ApplyStateVector([]float64{0.1}, true)
	d.UpdateInputs(map[string]float64{"F": 0.7, "P": 9})

	state := d.Reset()
	if state["X"] != 1.0 {
		t.Errorf("expected X=1 after reset, got %v", state["X"])
	}
	cur := d.Manipulated().Values(variables.Current)
	def := d.Manipulated().Values(variables.Default)
	for id, v := range def {
		if cur[id] != v {
			t.Errorf("%s: expected %v after reset, got %v", id, v, cur[id])
		}
	}
	if v, _ := d.Parameters().Value("P"); v != 9 {
		t.Errorf("Reset should leave parameters alone, got P=%v", v)
	}

	d.ResetAll()
	if v, _ := d.Parameters().Value("P"); v != 2 {
		t.Errorf("ResetAll should restore P, got %v", v)
	}
}

func TestNewSubroutine(t *testing.T) {
	d := decayDefinition(t)
	if d.HasSubroutine() || d.NewSubroutine() != nil {
		t.Error("expected no subroutine")
	}

	params := mustLoad(t, "Var,Value\nP,2\n")
	mvars := mustLoad(t, "Var,Value,State\nX0,1,True\n")
	calls := 0
	factory := func() hook.Subroutine {
		calls++
		return hook.Funcs{}
	}
	d, err := New("m", params, mvars, decayComp{}, WithSubroutine(factory))
	if err != nil {
		t.Fatal(err)
	}
	if !d.HasSubroutine() || d.NewSubroutine() == nil || calls != 1 {
		t.Errorf("expected factory to be invoked once, got %d", calls)
	}
}
