package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rmsim/internal/hook"
	"github.com/san-kum/rmsim/internal/integrators"
	"github.com/san-kum/rmsim/internal/sim"
	"github.com/san-kum/rmsim/internal/variables"
)

var errBoom = errors.New("boom")

type failing struct{}

func (failing) Integrate(sim.Func, []float64, float64, float64) ([]float64, error) {
	return nil, errBoom
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("a decay run over [0, 10] in 10 steps", func() {
		var (
			s    *sim.Simulator
			traj *sim.Trajectory
		)

		BeforeEach(func() {
			var err error
			s, err = sim.New(decayModel(), integrators.NewRK4(), grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())
			traj, err = s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("records one row per step indexed by step start time", func() {
			Expect(traj.Len()).To(Equal(10))
			Expect(traj.Columns).To(Equal([]string{"X"}))
			Expect(traj.Times[0]).To(Equal(0.0))
			for k := 1; k < len(traj.Times); k++ {
				Expect(traj.Times[k]).To(BeNumerically(">", traj.Times[k-1]))
			}
			Expect(traj.Step).To(Equal(1.0))
			Expect(traj.EndTime(9)).To(approx(10))
		})

		It("holds the post-step state in each row", func() {
			Expect(traj.Rows[0][0]).To(approx(math.Exp(-0.5)))
			Expect(traj.Rows[9][0]).To(approx(math.Exp(-5)))
		})

		It("decays monotonically and stays positive", func() {
			x, ok := traj.Column("X")
			Expect(ok).To(BeTrue())
			for k := 1; k < len(x); k++ {
				Expect(x[k]).To(BeNumerically("<", x[k-1]))
				Expect(x[k]).To(BeNumerically(">", 0))
			}
		})

		It("writes the final state into the state and initial-value rows", func() {
			def := s.Definition()
			final := traj.Final()["X"]
			Expect(def.State()["X"]).To(Equal(final))

			x0, _ := def.Manipulated().Value("X0")
			Expect(x0).To(Equal(final))

			dflt, _ := def.Manipulated().Get("X0", variables.Default)
			Expect(dflt.Value).To(Equal(1.0))
		})

		It("continues from the previous run", func() {
			final := traj.Final()["X"]
			next, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.Rows[0][0]).To(approx(final * math.Exp(-0.5)))
		})

		It("restarts from defaults after a reset", func() {
			state := s.Definition().Reset()
			Expect(state).To(Equal(map[string]float64{"X": 1.0}))

			again, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Rows).To(Equal(traj.Rows))
		})
	})

	Describe("control hooks", func() {
		It("runs once per step strictly before integration", func() {
			var log []string
			def := decayModel(withHook(hook.Update{Name: "trace", Fn: func(*hook.Context) error {
				log = append(log, "hook")
				return nil
			}}))
			tr := &tracing{inner: integrators.NewRK4(), log: &log}

			s, err := sim.New(def, tr, grid(0, 10, 5))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(log).To(HaveLen(10))
			for i := 0; i < len(log); i += 2 {
				Expect(log[i : i+2]).To(Equal([]string{"hook", "integrate"}))
			}
		})

		It("feeds parameter edits into the same step", func() {
			def := decayModel(withHook(hook.Update{Name: "retune", Fn: func(c *hook.Context) error {
				c.Params["P"] = 1.0
				return nil
			}}))
			s, err := sim.New(def, integrators.NewRK4(), grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			traj, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Rows[0][0]).To(approx(math.Exp(-1)))

			p, _ := def.Parameters().Value("P")
			Expect(p).To(Equal(1.0))
		})

		It("cannot write state", func() {
			def := decayModel(withHook(hook.Update{Name: "meddle", Fn: func(c *hook.Context) error {
				c.Params["X"] = 42
				return nil
			}}))
			s, err := sim.New(def, integrators.NewRK4(), grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			traj, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Rows[0][0]).To(approx(math.Exp(-0.5)))
		})

		It("sees the derived step size", func() {
			var dt float64
			def := decayModel(withHook(hook.Update{Name: "peek", Fn: func(c *hook.Context) error {
				dt = c.Settings[sim.SettingStep]
				return nil
			}}))
			s, err := sim.New(def, integrators.NewRK4(), grid(0, 1, 4))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(dt).To(Equal(0.25))
		})

		It("aborts the run when an update fails", func() {
			var log []string
			def := decayModel(withHook(hook.Update{Name: "broken", Fn: func(*hook.Context) error {
				return errBoom
			}}))
			tr := &tracing{inner: integrators.NewRK4(), log: &log}
			s, err := sim.New(def, tr, grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			traj, err := s.Run(ctx)
			Expect(traj).To(BeNil())
			Expect(err).To(MatchError(errBoom))

			var ue *hook.UpdateError
			Expect(errors.As(err, &ue)).To(BeTrue())
			Expect(ue.Update).To(Equal("broken"))
			Expect(log).To(BeEmpty())
		})
	})

	Describe("failures", func() {
		It("wraps integrator errors with the failing step", func() {
			s, err := sim.New(decayModel(), failing{}, grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			traj, err := s.Run(ctx)
			Expect(traj).To(BeNil())
			Expect(err).To(MatchError(errBoom))

			var se *sim.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(0))
			Expect(se.State).To(Equal([]float64{1.0}))
		})

		It("fails a step too long for the fixed-step integrator", func() {
			s, err := sim.New(decayModel(), integrators.NewRK4(), grid(0, 1e17, 1))
			Expect(err).NotTo(HaveOccurred())

			traj, err := s.Run(ctx)
			Expect(traj).To(BeNil())
			Expect(err).To(MatchError(integrators.ErrMaxSteps))
		})

		It("rejects non-finite results", func() {
			s, err := sim.New(decayModel(), fixedResult{math.NaN()}, grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx)
			Expect(err).To(MatchError(sim.ErrInvalidState))
		})

		It("rejects results of the wrong dimension", func() {
			s, err := sim.New(decayModel(), fixedResult{1, 2}, grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx)
			Expect(err).To(MatchError(sim.ErrDimensionMismatch))
		})

		It("stops when the context is cancelled", func() {
			def := decayModel()
			s, err := sim.New(def, integrators.NewRK4(), grid(0, 10, 10))
			Expect(err).NotTo(HaveOccurred())

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			traj, err := s.Run(cctx)
			Expect(traj).To(BeNil())
			Expect(err).To(MatchError(context.Canceled))
			Expect(def.State()["X"]).To(Equal(1.0))
		})

		It("requires an integrator", func() {
			_, err := sim.New(decayModel(), nil, nil)
			Expect(err).To(MatchError(sim.ErrNoIntegrator))
		})

		It("requires a model definition", func() {
			_, err := sim.New(nil, integrators.NewRK4(), nil)
			Expect(err).To(MatchError(sim.ErrNoModel))
		})

		It("rejects an empty time span", func() {
			_, err := sim.New(decayModel(), integrators.NewRK4(), grid(5, 5, 10))
			Expect(err).To(MatchError(sim.ErrInvalidSettings))
		})
	})

	Describe("time grid", func() {
		It("ends the last interval exactly at the end time", func() {
			var log []string
			tr := &tracing{inner: integrators.NewEuler(), log: &log}
			s, err := sim.New(decayModel(), tr, grid(0, 1, 3))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.intervals).To(HaveLen(3))
			Expect(tr.intervals[0][0]).To(Equal(0.0))
			Expect(tr.intervals[2][1]).To(Equal(1.0))
			for k := 1; k < 3; k++ {
				Expect(tr.intervals[k][0]).To(Equal(tr.intervals[k-1][1]))
			}
		})

		It("uses defaults when no settings are given", func() {
			s, err := sim.New(decayModel(), integrators.NewRK4(), nil)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := s.Settings()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(sim.DefaultSettings()))
		})
	})

	Describe("observers", func() {
		It("sees every step and the run boundaries", func() {
			rec := &recorder{}
			s, err := sim.New(decayModel(), integrators.NewRK4(), grid(0, 2, 4), sim.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.steps).To(Equal([]int{0, 1, 2, 3}))
			Expect(rec.times[3]).To(Equal(2.0))
			Expect(rec.starts).To(Equal(1))
			Expect(rec.ends).To(Equal([]error{nil}))
		})

		It("is told about failed runs", func() {
			rec := &recorder{}
			s, err := sim.New(decayModel(), failing{}, nil, sim.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(rec.ends).To(HaveLen(1))
			Expect(rec.ends[0]).To(MatchError(errBoom))
		})
	})
})

var _ = Describe("DecodeSettings", func() {
	It("keeps defaults for missing rows", func() {
		cfg, err := sim.DecodeSettings(table("Var,Label,Value\nTf,End time,5\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(sim.Settings{Start: 0, End: 5, Steps: sim.DefaultSteps}))
	})

	It("rejects a fractional step count", func() {
		_, err := sim.DecodeSettings(table("Var,Label,Value\nTi,Start,0\nTf,End,1\nn,Steps,2.5\n"))
		Expect(err).To(MatchError(sim.ErrInvalidSettings))
	})

	It("rejects a zero step count", func() {
		_, err := sim.DecodeSettings(table("Var,Label,Value\nn,Steps,0\n"))
		Expect(err).To(MatchError(sim.ErrInvalidSettings))
	})

	It("round-trips through a table", func() {
		want := sim.Settings{Start: 1, End: 3, Steps: 8}
		got, err := sim.DecodeSettings(want.Table())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
		Expect(got.StepSize()).To(Equal(0.25))
		Expect(got.View()).To(HaveKeyWithValue(sim.SettingStep, 0.25))
	})
})
