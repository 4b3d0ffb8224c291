package heatpump

// Breakdown is the derived, human-facing view of a calculation.
type Breakdown struct {
	Lift            float64 // condenser minus evaporator, K
	IdealCOP        float64 // Carnot scaled by system efficiency only
	CompressorPower float64 // kW
	ParasiticPower  float64 // kW
	ElectricalPower float64 // total draw, kW
	EfficiencyLoss  float64 // % below the Carnot limit
	LoadRatio       float64 // heat load over max capacity, unclamped
	Rating          Rating
}

func Explain(in Input, r Result) Breakdown {
	b := Breakdown{
		Lift:            r.CondenserTemperature - r.EvaporatorTemperature,
		IdealCOP:        r.CarnotCOP * (in.SystemEfficiency / 100),
		CompressorPower: in.HeatLoad / r.RawCOP,
		ElectricalPower: in.HeatLoad / r.COP,
		EfficiencyLoss:  (r.CarnotCOP - r.COP) / r.CarnotCOP * 100,
		LoadRatio:       in.HeatLoad / in.MaxCapacity,
		Rating:          RatingUnknown,
	}
	if in.IncludeParasitics {
		b.ParasiticPower = FanPumpPower
	}
	if !r.Degenerate() {
		b.Rating = RateCOP(r.COP)
	}
	return b
}
