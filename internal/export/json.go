package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/rmsim/internal/sim"
)

type Document struct {
	Model      string             `json:"model"`
	Integrator string             `json:"integrator,omitempty"`
	Start      float64            `json:"start"`
	End        float64            `json:"end"`
	Steps      int                `json:"steps"`
	Step       float64            `json:"dt"`
	Inputs     map[string]float64 `json:"inputs,omitempty"`
	Columns    []string           `json:"columns"`
	Times      []float64          `json:"times"`
	EndTimes   []float64          `json:"end_times"`
	Rows       [][]float64        `json:"rows"`
	Final      map[string]float64 `json:"final"`
}

// NewDocument describes traj. inputs may be nil.
func NewDocument(model, integrator string, settings sim.Settings, inputs map[string]float64, traj *sim.Trajectory) Document {
	end := make([]float64, traj.Len())
	for k := range end {
		end[k] = traj.EndTime(k)
	}
	return Document{
		Model:      model,
		Integrator: integrator,
		Start:      settings.Start,
		End:        settings.End,
		Steps:      settings.Steps,
		Step:       traj.Step,
		Inputs:     inputs,
		Columns:    traj.Columns,
		Times:      traj.Times,
		EndTimes:   end,
		Rows:       traj.Rows,
		Final:      traj.Final(),
	}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
