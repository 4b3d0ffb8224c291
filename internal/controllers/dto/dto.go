// Package dto holds the JSON shapes shared by the HTTP and MQTT controllers.
package dto

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/Agrid-Dev/copcalc/internal/heatpump"
)

// Float encodes NaN and ±Inf as null, which encoding/json refuses otherwise.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

type Input struct {
	OutdoorTemperature float64 `json:"outdoor_temperature"`
	WaterTemperature   float64 `json:"water_temperature"`
	HeatLoad           float64 `json:"heat_load"`
	Humidity           float64 `json:"humidity"`
	IncludeDefrost     bool    `json:"defrost"`
	IncludeParasitics  bool    `json:"parasitics"`
	IncludeHexPenalty  bool    `json:"hex_penalty"`
	IncludePartLoad    bool    `json:"part_load"`
	SystemEfficiency   float64 `json:"system_efficiency"`
	DeltaTSource       float64 `json:"delta_t_source"`
	DeltaTSink         float64 `json:"delta_t_sink"`
	MaxCapacity        float64 `json:"max_capacity"`
}

func FromInput(in heatpump.Input) Input {
	return Input{
		OutdoorTemperature: in.OutdoorTemperature,
		WaterTemperature:   in.WaterTemperature,
		HeatLoad:           in.HeatLoad,
		Humidity:           in.Humidity,
		IncludeDefrost:     in.IncludeDefrost,
		IncludeParasitics:  in.IncludeParasitics,
		IncludeHexPenalty:  in.IncludeHexPenalty,
		IncludePartLoad:    in.IncludePartLoad,
		SystemEfficiency:   in.SystemEfficiency,
		DeltaTSource:       in.DeltaTSource,
		DeltaTSink:         in.DeltaTSink,
		MaxCapacity:        in.MaxCapacity,
	}
}

func (d Input) ToInput() heatpump.Input {
	return heatpump.Input{
		OutdoorTemperature: d.OutdoorTemperature,
		WaterTemperature:   d.WaterTemperature,
		HeatLoad:           d.HeatLoad,
		Humidity:           d.Humidity,
		IncludeDefrost:     d.IncludeDefrost,
		IncludeParasitics:  d.IncludeParasitics,
		IncludeHexPenalty:  d.IncludeHexPenalty,
		IncludePartLoad:    d.IncludePartLoad,
		SystemEfficiency:   d.SystemEfficiency,
		DeltaTSource:       d.DeltaTSource,
		DeltaTSink:         d.DeltaTSink,
		MaxCapacity:        d.MaxCapacity,
	}
}

type Result struct {
	COP                   Float `json:"cop"`
	CarnotCOP             Float `json:"carnot_cop"`
	RawCOP                Float `json:"raw_cop"`
	DefrostPenalty        Float `json:"defrost_penalty"`
	InverterCorrection    Float `json:"inverter_correction"`
	LoadFactor            Float `json:"load_factor"`
	EvaporatorTemperature Float `json:"evaporator_temperature"`
	CondenserTemperature  Float `json:"condenser_temperature"`
	Degenerate            bool  `json:"degenerate"`
}

func FromResult(r heatpump.Result) Result {
	return Result{
		COP:                   Float(r.COP),
		CarnotCOP:             Float(r.CarnotCOP),
		RawCOP:                Float(r.RawCOP),
		DefrostPenalty:        Float(r.DefrostPenalty),
		InverterCorrection:    Float(r.InverterCorrection),
		LoadFactor:            Float(r.LoadFactor),
		EvaporatorTemperature: Float(r.EvaporatorTemperature),
		CondenserTemperature:  Float(r.CondenserTemperature),
		Degenerate:            r.Degenerate(),
	}
}

type Breakdown struct {
	Lift            Float  `json:"lift"`
	IdealCOP        Float  `json:"ideal_cop"`
	CompressorPower Float  `json:"compressor_power"`
	ParasiticPower  Float  `json:"parasitic_power"`
	ElectricalPower Float  `json:"electrical_power"`
	EfficiencyLoss  Float  `json:"efficiency_loss"`
	LoadRatio       Float  `json:"load_ratio"`
	Rating          string `json:"rating"`
}

func FromBreakdown(b heatpump.Breakdown) Breakdown {
	return Breakdown{
		Lift:            Float(b.Lift),
		IdealCOP:        Float(b.IdealCOP),
		CompressorPower: Float(b.CompressorPower),
		ParasiticPower:  Float(b.ParasiticPower),
		ElectricalPower: Float(b.ElectricalPower),
		EfficiencyLoss:  Float(b.EfficiencyLoss),
		LoadRatio:       Float(b.LoadRatio),
		Rating:          b.Rating.String(),
	}
}

type Snapshot struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Input     Input     `json:"input"`
	Result    Result    `json:"result"`
	Breakdown Breakdown `json:"breakdown"`
}

func FromSnapshot(deviceID string, s heatpump.Snapshot) Snapshot {
	return Snapshot{
		DeviceID:  deviceID,
		Input:     FromInput(s.Input),
		Result:    FromResult(s.Result),
		Breakdown: FromBreakdown(heatpump.Explain(s.Input, s.Result)),
	}
}

type SweepPoint struct {
	OutdoorTemperature float64 `json:"outdoor_temperature"`
	CarnotCOP          Float   `json:"carnot_cop"`
	IdealCOP           Float   `json:"ideal_cop"`
	RawCOP             Float   `json:"raw_cop"`
	COP                Float   `json:"cop"`
}

func FromSweep(points []heatpump.SweepPoint) []SweepPoint {
	out := make([]SweepPoint, len(points))
	for i, p := range points {
		out[i] = SweepPoint{
			OutdoorTemperature: p.OutdoorTemperature,
			CarnotCOP:          Float(p.CarnotCOP),
			IdealCOP:           Float(p.IdealCOP),
			RawCOP:             Float(p.RawCOP),
			COP:                Float(p.COP),
		}
	}
	return out
}

type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type Sweep struct {
	Points      []SweepPoint `json:"points"`
	DefrostRisk *Band        `json:"defrost_risk,omitempty"`
}

type SeasonalPoint struct {
	Label              string  `json:"label"`
	OutdoorTemperature float64 `json:"outdoor_temperature"`
	COP                Float   `json:"cop"`
}

func FromSeasonal(points []heatpump.SeasonalPoint) []SeasonalPoint {
	out := make([]SeasonalPoint, len(points))
	for i, p := range points {
		out[i] = SeasonalPoint{Label: p.Label, OutdoorTemperature: p.OutdoorTemperature, COP: Float(p.COP)}
	}
	return out
}
