package heatpump

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func newTestInput(opts ...func(*Input)) Input {
	in := DefaultInput()
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

func TestComputeReferencePoint(t *testing.T) {
	r := Compute(DefaultInput())

	assert.InDelta(t, -2.0, r.EvaporatorTemperature, tol)
	assert.InDelta(t, 49.0, r.CondenserTemperature, tol)
	assert.InDelta(t, 322.15/51.0, r.CarnotCOP, tol)
	// 70 % humidity is not > 70, so the outer band does not apply at 5 °C.
	assert.Equal(t, 1.0, r.DefrostPenalty)
	assert.InDelta(t, 6.0/14.0, r.LoadFactor, tol)
	assert.InDelta(t, 0.9959183673, r.InverterCorrection, 1e-9)
	assert.InDelta(t, 3.1454421769, r.RawCOP, 1e-9)
	assert.InDelta(t, 2.9161292764, r.COP, 1e-9)
	assert.False(t, r.Degenerate())
}

func TestComputeIsDeterministic(t *testing.T) {
	in := newTestInput(func(in *Input) {
		in.OutdoorTemperature = 1.5
		in.Humidity = 85
	})
	a := Compute(in)
	b := Compute(in)
	assert.Equal(t, a, b)
}

func TestHexPenaltyNeverRaisesCarnot(t *testing.T) {
	for _, outdoor := range []float64{-15, -5, 0, 7, 15} {
		for _, water := range []float64{35, 45, 55} {
			with := Compute(newTestInput(func(in *Input) {
				in.OutdoorTemperature = outdoor
				in.WaterTemperature = water
			}))
			without := Compute(newTestInput(func(in *Input) {
				in.OutdoorTemperature = outdoor
				in.WaterTemperature = water
				in.IncludeHexPenalty = false
			}))
			assert.GreaterOrEqual(t, without.CarnotCOP, with.CarnotCOP, "outdoor=%v water=%v", outdoor, water)
			assert.InDelta(t, outdoor, without.EvaporatorTemperature, tol)
			assert.InDelta(t, water, without.CondenserTemperature, tol)
		}
	}
}

func TestRawCOPIsEfficiencyScaledCarnotWithoutCorrections(t *testing.T) {
	in := newTestInput(func(in *Input) {
		in.IncludeDefrost = false
		in.IncludePartLoad = false
		in.IncludeParasitics = false
		in.SystemEfficiency = 45
		in.OutdoorTemperature = 0
		in.Humidity = 90
	})
	r := Compute(in)

	assert.Equal(t, r.CarnotCOP*(45.0/100), r.RawCOP)
	assert.Equal(t, r.RawCOP, r.COP)
	assert.Equal(t, 1.0, r.DefrostPenalty)
	assert.Equal(t, 1.0, r.InverterCorrection)
	assert.Equal(t, 1.0, r.LoadFactor)
}

func TestRawCOPNeverExceedsScaledCarnot(t *testing.T) {
	for _, outdoor := range []float64{-15, -4, -1, 2, 4, 10, 15} {
		for _, load := range []float64{0.5, 3, 7, 14, 20} {
			in := newTestInput(func(in *Input) {
				in.OutdoorTemperature = outdoor
				in.HeatLoad = load
				in.Humidity = 90
			})
			r := Compute(in)
			assert.LessOrEqual(t, r.RawCOP, r.CarnotCOP*in.SystemEfficiency/100+tol)
			assert.LessOrEqual(t, r.RawCOP, r.CarnotCOP)
		}
	}
}

func TestDefrostPenalty(t *testing.T) {
	tests := []struct {
		name     string
		outdoor  float64
		humidity float64
		want     float64
	}{
		{"inner band upper edge", 3.0, 65, 0.87375},
		{"inner band lower edge saturated", -2.0, 100, 0.83},
		{"inner band needs humidity above 60", 0, 60, 1.0},
		{"inner band wins over outer", 0, 80, 0.88 - 0.05*0.5},
		{"outer band only", 4.0, 75, 0.90},
		{"outer band lower edge", -5.0, 71, 0.90},
		{"outer band needs humidity above 70", 4.0, 70, 1.0},
		{"outside both bands", 10.0, 90, 1.0},
		{"below both bands", -6.0, 90, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DefrostPenalty(tt.outdoor, tt.humidity), tol)
		})
	}
}

func TestDefrostPenaltyAppliedOnlyWhenEnabled(t *testing.T) {
	on := Compute(newTestInput(func(in *Input) { in.OutdoorTemperature = 4; in.Humidity = 75 }))
	off := Compute(newTestInput(func(in *Input) {
		in.OutdoorTemperature = 4
		in.Humidity = 75
		in.IncludeDefrost = false
	}))

	assert.Equal(t, 0.90, on.DefrostPenalty)
	assert.Equal(t, 1.0, off.DefrostPenalty)
	assert.InDelta(t, off.RawCOP*0.90, on.RawCOP, tol)
}

func TestInverterCorrection(t *testing.T) {
	assert.Equal(t, 1.0, InverterCorrection(0.5))
	assert.InDelta(t, 0.8, InverterCorrection(1.0), tol)
	assert.InDelta(t, 0.902, InverterCorrection(MinLoadFactor), tol)
	assert.Less(t, InverterCorrection(0.3), 1.0)
	assert.Less(t, InverterCorrection(0.7), 1.0)
}

func TestClampLoadFactor(t *testing.T) {
	assert.Equal(t, MinLoadFactor, ClampLoadFactor(0))
	assert.Equal(t, MinLoadFactor, ClampLoadFactor(-3))
	assert.Equal(t, MaxLoadFactor, ClampLoadFactor(5))
	assert.Equal(t, 0.5, ClampLoadFactor(0.5))
}

func TestPartLoadUsesClampedLoadFactor(t *testing.T) {
	low := Compute(newTestInput(func(in *Input) { in.HeatLoad = 0.5 }))
	assert.Equal(t, MinLoadFactor, low.LoadFactor)
	assert.InDelta(t, 0.902, low.InverterCorrection, tol)

	high := Compute(newTestInput(func(in *Input) { in.HeatLoad = 30 }))
	assert.Equal(t, MaxLoadFactor, high.LoadFactor)

	zero := Compute(newTestInput(func(in *Input) { in.HeatLoad = 0 }))
	assert.Equal(t, MinLoadFactor, zero.LoadFactor)
	assert.False(t, math.IsNaN(zero.COP))
}

func TestParasiticsReduceCOP(t *testing.T) {
	for _, load := range []float64{0.5, 2, 6, 12} {
		r := Compute(newTestInput(func(in *Input) { in.HeatLoad = load }))
		require.Greater(t, r.RawCOP, 0.0)
		assert.Less(t, r.COP, r.RawCOP, "load=%v", load)

		compressor := load / r.RawCOP
		assert.InDelta(t, load/(compressor+FanPumpPower), r.COP, tol)
	}
}

func TestParasiticsSkippedForNonPositiveLoad(t *testing.T) {
	for _, load := range []float64{0, -1} {
		r := Compute(newTestInput(func(in *Input) { in.HeatLoad = load }))
		assert.Equal(t, r.RawCOP, r.COP, "load=%v", load)
	}
}

func TestDegenerateCarnotPassesThrough(t *testing.T) {
	equal := Compute(newTestInput(func(in *Input) {
		in.IncludeHexPenalty = false
		in.OutdoorTemperature = 40
		in.WaterTemperature = 40
	}))
	assert.True(t, math.IsInf(equal.CarnotCOP, 1))
	assert.True(t, equal.Degenerate())

	inverted := Compute(newTestInput(func(in *Input) {
		in.IncludeHexPenalty = false
		in.OutdoorTemperature = 50
		in.WaterTemperature = 35
	}))
	assert.Less(t, inverted.CarnotCOP, 0.0)
	assert.Less(t, inverted.RawCOP, 0.0)
	assert.True(t, inverted.Degenerate())
}
