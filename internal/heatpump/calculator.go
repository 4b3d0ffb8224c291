package heatpump

import "math"

// Input holds every parameter of a single COP calculation.
// Temperatures are in °C, powers in kW, percentages in 0..100.
type Input struct {
	OutdoorTemperature float64
	WaterTemperature   float64
	HeatLoad           float64
	Humidity           float64

	IncludeDefrost    bool
	IncludeParasitics bool
	IncludeHexPenalty bool
	IncludePartLoad   bool

	SystemEfficiency float64 // share of the Carnot COP actually realised
	DeltaTSource     float64 // evaporator approach below outdoor air
	DeltaTSink       float64 // condenser approach above flow water
	MaxCapacity      float64
}

// DefaultInput returns the reference operating point with every correction enabled.
func DefaultInput() Input {
	return Input{
		OutdoorTemperature: 5,
		WaterTemperature:   45,
		HeatLoad:           6,
		Humidity:           70,
		IncludeDefrost:     true,
		IncludeParasitics:  true,
		IncludeHexPenalty:  true,
		IncludePartLoad:    true,
		SystemEfficiency:   50,
		DeltaTSource:       7,
		DeltaTSink:         4,
		MaxCapacity:        14,
	}
}

// Result carries the delivered COP and the intermediate values behind it.
type Result struct {
	COP                   float64
	CarnotCOP             float64
	RawCOP                float64 // after efficiency, defrost and inverter, before parasitics
	DefrostPenalty        float64
	InverterCorrection    float64
	LoadFactor            float64
	EvaporatorTemperature float64
	CondenserTemperature  float64
}

// Degenerate reports a condenser at or below the evaporator temperature.
// Such results are passed through unclamped; flagging them is up to the caller.
func (r Result) Degenerate() bool {
	return math.IsNaN(r.CarnotCOP) || math.IsInf(r.CarnotCOP, 0) || r.CarnotCOP <= 0
}

const (
	kelvinOffset = 273.15

	// FanPumpPower is the constant auxiliary draw of fans and circulation pumps, kW.
	FanPumpPower = 0.150

	MinLoadFactor = 0.15
	MaxLoadFactor = 1.1
)

// Compute runs the correction pipeline. Stages are applied in a fixed order
// because each one scales the COP produced by the previous stage.
// It performs no validation: invalid inputs yield NaN, Inf or negative values.
func Compute(in Input) Result {
	outsideK := in.OutdoorTemperature + kelvinOffset
	waterK := in.WaterTemperature + kelvinOffset

	evapK, condK := outsideK, waterK
	if in.IncludeHexPenalty {
		evapK = outsideK - in.DeltaTSource
		condK = waterK + in.DeltaTSink
	}

	carnot := condK / (condK - evapK)
	raw := carnot * (in.SystemEfficiency / 100)

	defrost := 1.0
	if in.IncludeDefrost {
		defrost = DefrostPenalty(in.OutdoorTemperature, in.Humidity)
	}
	raw *= defrost

	inverter, loadFactor := 1.0, 1.0
	if in.IncludePartLoad {
		loadFactor = ClampLoadFactor(in.HeatLoad / in.MaxCapacity)
		inverter = InverterCorrection(loadFactor)
	}
	raw *= inverter

	cop := raw
	if in.IncludeParasitics && in.HeatLoad > 0 {
		cop = WithParasitics(in.HeatLoad, raw)
	}

	return Result{
		COP:                   cop,
		CarnotCOP:             carnot,
		RawCOP:                raw,
		DefrostPenalty:        defrost,
		InverterCorrection:    inverter,
		LoadFactor:            loadFactor,
		EvaporatorTemperature: evapK - kelvinOffset,
		CondenserTemperature:  condK - kelvinOffset,
	}
}

// DefrostPenalty returns the multiplicative loss from defrost cycles.
// The narrow, humid band around freezing is checked first and wins.
func DefrostPenalty(outdoorC, humidity float64) float64 {
	if outdoorC >= -2 && outdoorC <= 3 && humidity > 60 {
		humidityFactor := (humidity - 60) / 40
		return 0.88 - 0.05*humidityFactor
	}
	if outdoorC >= -5 && outdoorC <= 5 && humidity > 70 {
		return 0.90
	}
	return 1.0
}

// ClampLoadFactor bounds a load factor to the inverter's operating range.
func ClampLoadFactor(lf float64) float64 {
	return math.Max(MinLoadFactor, math.Min(MaxLoadFactor, lf))
}

// InverterCorrection is the part-load efficiency curve, peaking at 1.0 for lf = 0.5.
func InverterCorrection(lf float64) float64 {
	return -0.8*(lf*lf) + 0.8*lf + 0.8
}

// WithParasitics adds the fan and pump draw to the compressor power implied by cop.
func WithParasitics(heatLoad, cop float64) float64 {
	compressor := heatLoad / cop
	return heatLoad / (compressor + FanPumpPower)
}
