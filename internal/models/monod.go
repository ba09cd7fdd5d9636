package models

import (
	"fmt"
	"math"

	"github.com/san-kum/rmsim/internal/control"
	"github.com/san-kum/rmsim/internal/hook"
)

// Monod is a fed-batch stirred tank with Monod growth kinetics.
//
//	mu = mu_max * S / (Ks + S)
//	dX = (mu - kd - F/V) * X
//	dS = -mu * X / Yxs + F/V * (Sf - S)
//	dV = F
type Monod struct{}

func NewMonod() *Monod {
	return &Monod{}
}

func (m *Monod) States() []string {
	return []string{"X", "S", "V"}
}

func (m *Monod) Derive(t float64, x []float64, in map[string]float64, dx []float64) error {
	p, err := inputs(in, "mu_max", "Ks", "Yxs", "kd", "Sf", "F")
	if err != nil {
		return err
	}
	muMax, ks, yxs, kd, sf, feed := p[0], p[1], p[2], p[3], p[4], p[5]

	biomass, substrate, volume := x[0], math.Max(x[1], 0), x[2]
	if volume <= 0 {
		return errNonPositive("V", volume)
	}
	if yxs <= 0 {
		return errNonPositive("Yxs", yxs)
	}

	mu := m.SpecificGrowth(muMax, ks, substrate)
	dilution := feed / volume

	dx[0] = (mu - kd - dilution) * biomass
	dx[1] = -mu*biomass/yxs + dilution*(sf-substrate)
	dx[2] = feed
	return nil
}

// SpecificGrowth returns mu at substrate concentration s.
func (m *Monod) SpecificGrowth(muMax, ks, s float64) float64 {
	s = math.Max(s, 0)
	return muMax * s / (ks + s)
}

// FeedControl holds substrate at the S_sp setpoint by driving the feed rate F.
// The feed stays off until t_feed.
type FeedControl struct {
	pid *control.PID
}

func NewFeedControl() hook.Subroutine {
	return &FeedControl{}
}

// feedVars are the controller variables the feed law reads.
var feedVars = []string{"S_sp", "Kp", "Ki", "Kd", "F_max", "t_feed"}

func (f *FeedControl) Initialize(ctx *hook.Context) error {
	if _, ok := ctx.Params["F"]; !ok {
		return fmt.Errorf("feed control: %w: F", ErrMissingInput)
	}
	for _, id := range feedVars {
		if _, ok := ctx.LookupVar(id); !ok {
			return fmt.Errorf("feed control: %w: %s", ErrMissingInput, id)
		}
	}
	f.pid = control.NewPID(ctx.Var("Kp"), ctx.Var("Ki"), ctx.Var("Kd"), ctx.Var("S_sp"))
	f.pid.SetLimits(0, ctx.Var("F_max"))
	return nil
}

func (f *FeedControl) Updates() []hook.Update {
	return []hook.Update{
		{Name: "tune", Fn: f.tune},
		{Name: "feed", Fn: f.feed},
	}
}

// tune picks up controller variables changed between runs.
func (f *FeedControl) tune(ctx *hook.Context) error {
	if ctx.Step == 0 {
		f.pid.Reset()
	}
	for _, name := range []string{"Kp", "Ki", "Kd"} {
		f.pid.SetParam(name, ctx.Var(name))
	}
	f.pid.SetParam("Target", ctx.Var("S_sp"))
	f.pid.SetLimits(0, ctx.Var("F_max"))
	return nil
}

func (f *FeedControl) feed(ctx *hook.Context) error {
	t := ctx.Time()
	if t < ctx.Var("t_feed") {
		ctx.Params["F"] = 0
		return nil
	}
	s, ok := ctx.State["S"]
	if !ok {
		return fmt.Errorf("feed control: %w: S", ErrMissingInput)
	}
	ctx.Params["F"] = f.pid.Compute(s, t)
	return nil
}
