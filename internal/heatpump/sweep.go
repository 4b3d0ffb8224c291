package heatpump

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type SweepRange struct {
	From   float64
	To     float64
	Points int
}

// MaxSweepPoints bounds a single sweep.
const MaxSweepPoints = 5000

// DefaultSweepRange spans the usual outdoor design range.
func DefaultSweepRange() SweepRange {
	return SweepRange{From: -15, To: 15, Points: 100}
}

func (r SweepRange) Validate() error {
	if r.Points < 1 || math.IsNaN(r.From) || math.IsInf(r.From, 0) || math.IsNaN(r.To) || math.IsInf(r.To, 0) {
		return ErrInvalidSweepRange
	}
	if r.Points > MaxSweepPoints {
		return fmt.Errorf("%w: %d > %d", ErrSweepTooLarge, r.Points, MaxSweepPoints)
	}
	return nil
}

// Temperatures returns Points evenly spaced values; the last one is exactly To.
func (r SweepRange) Temperatures() []float64 {
	if r.Points < 1 {
		return nil
	}
	out := make([]float64, r.Points)
	if r.Points == 1 {
		out[0] = r.From
		return out
	}
	step := (r.To - r.From) / float64(r.Points-1)
	for i := range out {
		out[i] = r.From + float64(i)*step
	}
	out[len(out)-1] = r.To
	return out
}

type SweepPoint struct {
	OutdoorTemperature float64
	CarnotCOP          float64
	IdealCOP           float64
	RawCOP             float64
	COP                float64
}

// Sweep evaluates base across r, varying only the outdoor temperature.
func Sweep(base Input, r SweepRange) ([]SweepPoint, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	temps := r.Temperatures()
	points := make([]SweepPoint, len(temps))
	for i, t := range temps {
		in := base
		in.OutdoorTemperature = t
		res := Compute(in)
		points[i] = SweepPoint{
			OutdoorTemperature: t,
			CarnotCOP:          res.CarnotCOP,
			IdealCOP:           res.CarnotCOP * (in.SystemEfficiency / 100),
			RawCOP:             res.RawCOP,
			COP:                res.COP,
		}
	}
	return points, nil
}

type Curve struct {
	WaterTemperature float64
	Points           []SweepPoint
}

// Curves sweeps one curve per flow temperature concurrently.
// Curves are returned in the order of waterTemps.
func Curves(ctx context.Context, base Input, waterTemps []float64, r SweepRange) ([]Curve, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	curves := make([]Curve, len(waterTemps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, w := range waterTemps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in := base
			in.WaterTemperature = w
			points, err := Sweep(in, r)
			if err != nil {
				return err
			}
			curves[i] = Curve{WaterTemperature: w, Points: points}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return curves, nil
}

type SeasonalPoint struct {
	Label              string
	OutdoorTemperature float64
	COP                float64
}

var seasonalReferences = []struct {
	label string
	temp  float64
}{
	{"Winter", -5},
	{"Freezing", 0},
	{"Mild", 7},
	{"Spring", 12},
}

// Seasonal evaluates base at the four reference outdoor temperatures.
func Seasonal(base Input) []SeasonalPoint {
	out := make([]SeasonalPoint, 0, len(seasonalReferences))
	for _, ref := range seasonalReferences {
		in := base
		in.OutdoorTemperature = ref.temp
		out = append(out, SeasonalPoint{
			Label:              ref.label,
			OutdoorTemperature: ref.temp,
			COP:                Compute(in).COP,
		})
	}
	return out
}

// DefrostRiskBand is the outdoor range worth shading on a chart.
// It mirrors the first defrost band and is purely an annotation.
func DefrostRiskBand(in Input) (low, high float64, ok bool) {
	if in.IncludeDefrost && in.Humidity > 60 {
		return -2, 3, true
	}
	return 0, 0, false
}
