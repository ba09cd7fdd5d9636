package sim_test

import (
	"math"
	"strings"
	"time"

	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/san-kum/rmsim/internal/hook"
	"github.com/san-kum/rmsim/internal/model"
	"github.com/san-kum/rmsim/internal/sim"
	"github.com/san-kum/rmsim/internal/variables"
)

type decay struct{}

func (decay) States() []string { return []string{"X"} }
func (decay) Derive(t float64, x []float64, in map[string]float64, dx []float64) error {
	dx[0] = -x[0] / in["P"]
	return nil
}

func table(csv string) *variables.Table {
	t, err := variables.Load(strings.NewReader(csv), "test.csv")
	Expect(err).NotTo(HaveOccurred())
	return t
}

func decayModel(opts ...model.Option) *model.Definition {
	params := table("Var,Label,Value,Min,Max\nP,Time constant,2.0,0.1,100\n")
	mvars := table("Var,Label,Value,Min,Max,Units,State\nX0,Initial Amount,1.0,0,,g,True\n")
	def, err := model.New("decay", params, mvars, decay{}, opts...)
	Expect(err).NotTo(HaveOccurred())
	return def
}

func grid(start, end float64, steps int) *variables.Table {
	return sim.Settings{Start: start, End: end, Steps: steps}.Table()
}

func withHook(updates ...hook.Update) model.Option {
	return model.WithSubroutine(func() hook.Subroutine { return hook.Funcs(updates) })
}

// fixedResult returns the same vector for every interval.
type fixedResult []float64

func (r fixedResult) Integrate(f sim.Func, x0 []float64, t0, t1 float64) ([]float64, error) {
	return append([]float64(nil), r...), nil
}

// tracing records every interval handed to the wrapped integrator.
type tracing struct {
	inner     sim.Integrator
	log       *[]string
	intervals [][2]float64
}

func (t *tracing) Integrate(f sim.Func, x0 []float64, t0, t1 float64) ([]float64, error) {
	*t.log = append(*t.log, "integrate")
	t.intervals = append(t.intervals, [2]float64{t0, t1})
	return t.inner.Integrate(f, x0, t0, t1)
}

type recorder struct {
	steps  []int
	times  []float64
	starts int
	ends   []error
}

func (r *recorder) OnStep(step int, t float64, x []float64) {
	r.steps = append(r.steps, step)
	r.times = append(r.times, t)
}
func (r *recorder) OnRunStart(string, int) { r.starts++ }
func (r *recorder) OnRunEnd(_ string, _ time.Duration, err error) {
	r.ends = append(r.ends, err)
}

func approx(want float64) types.GomegaMatcher {
	return BeNumerically("~", want, 1e-6*math.Max(1, math.Abs(want)))
}
