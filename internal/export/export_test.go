package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/rmsim/internal/sim"
)

func sample() *sim.Trajectory {
	return &sim.Trajectory{
		Columns: []string{"X", "S"},
		Times:   []float64{0, 0.5},
		Step:    0.5,
		Rows:    [][]float64{{1.5, 9}, {2.25, 8.5}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "time,t_end,X,S\n0,0.5,1.5,9\n0.5,1,2.25,8.5\n"
	if buf.String() != want {
		t.Errorf("expected\n%s\ngot\n%s", want, buf.String())
	}
}

func TestReadCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Len() != 2 || got.Step != 0.5 || got.Columns[1] != "S" || got.Rows[1][0] != 2.25 {
		t.Errorf("unexpected trajectory: %+v", got)
	}
}

func TestReadCSV_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"wrong header", "t,X\n0,1\n"},
		{"bad number", "time,t_end,X\n0,1,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.data)); !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	doc := NewDocument("monod", "rk4", sim.Settings{Start: 0, End: 1, Steps: 2}, map[string]float64{"Kp": 0.1}, sample())

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got Document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Model != "monod" || got.Steps != 2 || got.Step != 0.5 {
		t.Errorf("unexpected header fields: %+v", got)
	}
	if len(got.EndTimes) != 2 || got.EndTimes[1] != 1 {
		t.Errorf("expected end times [0.5 1], got %v", got.EndTimes)
	}
	if got.Final["S"] != 8.5 {
		t.Errorf("expected final S 8.5, got %f", got.Final["S"])
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sample(), "X", 200, 100, "#00ff00"); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") || !strings.Contains(out, "</svg>") {
		t.Error("output is not an svg document")
	}
	if !strings.Contains(out, `d="M0.0,`) || strings.Count(out, " L") != 1 {
		t.Errorf("expected a two-point path, got %s", out)
	}
}

func TestWriteSVG_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sample(), "nope", 10, 10, "red"); err == nil {
		t.Error("expected error for unknown column")
	}

	short := &sim.Trajectory{Columns: []string{"X"}, Times: []float64{0}, Step: 1, Rows: [][]float64{{1}}}
	if err := WriteSVG(&buf, short, "X", 10, 10, "red"); err == nil {
		t.Error("expected error for a single row")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sample(), "decay", nil, 320, 240); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a png image")
	}
}

func TestWritePNG_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sample(), "", []string{"nope"}, 100, 100); err == nil {
		t.Error("expected error for unknown column")
	}

	short := &sim.Trajectory{Columns: []string{"X"}, Times: []float64{0}, Step: 1, Rows: [][]float64{{1}}}
	if err := WritePNG(&buf, short, "", nil, 100, 100); err == nil {
		t.Error("expected error for a single row")
	}
}
