package variables

import (
	"errors"
	"io/fs"
	"math"
	"strings"
	"testing"
	"testing/fstest"
)

const validCSV = `Var,Label,Value,Min,Max,Units,State
X0,Initial Biomass,1.0,0,10,g/L,True
P,Time constant,2.0,,,h,False
F,Feed,0.1,0,,L/h,
`

func TestLoad_Valid(t *testing.T) {
	tbl, err := Load(strings.NewReader(validCSV), "mvars.csv")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if tbl.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", tbl.Len())
	}
	ids := tbl.IDs()
	if ids[0] != "X0" || ids[1] != "P" || ids[2] != "F" {
		t.Errorf("expected file order [X0 P F], got %v", ids)
	}

	x0, _ := tbl.Get("X0", Default)
	if !x0.State || x0.Units != "g/L" || x0.Min != 0 || x0.Max != 10 {
		t.Errorf("unexpected X0 record: %+v", x0)
	}

	p, _ := tbl.Get("P", Default)
	if p.HasMin() || p.HasMax() {
		t.Errorf("expected P unbounded, got min=%v max=%v", p.Min, p.Max)
	}
	if !math.IsInf(p.Min, -1) || !math.IsInf(p.Max, 1) {
		t.Errorf("expected infinite sentinels, got %v %v", p.Min, p.Max)
	}

	f, _ := tbl.Get("F", Default)
	if f.State {
		t.Error("empty state cell should be false")
	}
	if f.Min != 0 || f.HasMax() {
		t.Errorf("expected F in [0, +Inf), got [%v, %v]", f.Min, f.Max)
	}
}

func TestLoad_SnapshotsIdentical(t *testing.T) {
	tbl, err := Load(strings.NewReader(validCSV), "mvars.csv")
	if err != nil {
		t.Fatal(err)
	}
	cur := tbl.Records(Current)
	def := tbl.Records(Default)
	for i := range def {
		if cur[i] != def[i] {
			t.Errorf("row %d differs after load: %+v vs %+v", i, cur[i], def[i])
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrMalformed},
		{"no value column", "Var,Label\nX,x\n", ErrMalformed},
		{"bad number", "Var,Value\nX,abc\n", ErrMalformed},
		{"empty value", "Var,Value\nX,\n", ErrMalformed},
		{"empty id", "Var,Value\n,1\n", ErrMalformed},
		{"bad state", "Var,Value,State\nX,1,maybe\n", ErrMalformed},
		{"min above max", "Var,Value,Min,Max\nX,1,5,2\n", ErrMalformed},
		{"duplicate", "Var,Value\nX,1\nX,2\n", ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Load(strings.NewReader(tt.input), "test.csv")
			if tbl != nil {
				t.Error("expected no table on failure")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T (%v)", err, err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFS_Missing(t *testing.T) {
	fsys := fstest.MapFS{}
	_, err := LoadFS(fsys, "parameters.csv")

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist cause, got %v", err)
	}
}

func TestLoadFS_Valid(t *testing.T) {
	fsys := fstest.MapFS{
		"m/parameters.csv": &fstest.MapFile{Data: []byte("Var,Value\nP,2\n")},
	}
	tbl, err := LoadFS(fsys, "m/parameters.csv")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if v, ok := tbl.Value("P"); !ok || v != 2 {
		t.Errorf("expected P=2, got %v (%v)", v, ok)
	}
}
