package models

// Decay is first-order decay of a single amount X with time constant P.
type Decay struct{}

func NewDecay() *Decay {
	return &Decay{}
}

func (d *Decay) States() []string {
	return []string{"X"}
}

func (d *Decay) Derive(t float64, x []float64, in map[string]float64, dx []float64) error {
	p, err := input(in, "P")
	if err != nil {
		return err
	}
	if p <= 0 {
		return errNonPositive("P", p)
	}
	dx[0] = -x[0] / p
	return nil
}
