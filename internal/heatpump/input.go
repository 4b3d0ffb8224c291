package heatpump

import (
	"fmt"
	"math"
)

// Value returns the current value of p.
func (in Input) Value(p Parameter) (float64, error) {
	switch p {
	case ParamOutdoorTemperature:
		return in.OutdoorTemperature, nil
	case ParamWaterTemperature:
		return in.WaterTemperature, nil
	case ParamHeatLoad:
		return in.HeatLoad, nil
	case ParamHumidity:
		return in.Humidity, nil
	case ParamSystemEfficiency:
		return in.SystemEfficiency, nil
	case ParamDeltaTSource:
		return in.DeltaTSource, nil
	case ParamDeltaTSink:
		return in.DeltaTSink, nil
	case ParamMaxCapacity:
		return in.MaxCapacity, nil
	default:
		return 0, ErrInvalidParameter
	}
}

// WithValue returns a copy of in with p set to v. No range check is made.
func (in Input) WithValue(p Parameter, v float64) (Input, error) {
	switch p {
	case ParamOutdoorTemperature:
		in.OutdoorTemperature = v
	case ParamWaterTemperature:
		in.WaterTemperature = v
	case ParamHeatLoad:
		in.HeatLoad = v
	case ParamHumidity:
		in.Humidity = v
	case ParamSystemEfficiency:
		in.SystemEfficiency = v
	case ParamDeltaTSource:
		in.DeltaTSource = v
	case ParamDeltaTSink:
		in.DeltaTSink = v
	case ParamMaxCapacity:
		in.MaxCapacity = v
	default:
		return in, ErrInvalidParameter
	}
	return in, nil
}

// Enabled reports whether feature f is switched on.
func (in Input) Enabled(f Feature) (bool, error) {
	switch f {
	case FeatureDefrost:
		return in.IncludeDefrost, nil
	case FeatureParasitics:
		return in.IncludeParasitics, nil
	case FeatureHexPenalty:
		return in.IncludeHexPenalty, nil
	case FeaturePartLoad:
		return in.IncludePartLoad, nil
	default:
		return false, ErrInvalidFeature
	}
}

// WithFeature returns a copy of in with f switched on or off.
func (in Input) WithFeature(f Feature, on bool) (Input, error) {
	switch f {
	case FeatureDefrost:
		in.IncludeDefrost = on
	case FeatureParasitics:
		in.IncludeParasitics = on
	case FeatureHexPenalty:
		in.IncludeHexPenalty = on
	case FeaturePartLoad:
		in.IncludePartLoad = on
	default:
		return in, ErrInvalidFeature
	}
	return in, nil
}

// Validate checks the ranges a control surface should enforce before
// calling Compute. Compute itself never calls it.
func (in Input) Validate() error {
	for _, p := range Parameters {
		v, _ := in.Value(p)
		if err := checkValue(p, v); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(p Parameter, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: %w", p, ErrNotFinite)
	}
	var ok bool
	switch p {
	case ParamOutdoorTemperature, ParamWaterTemperature:
		ok = true
	case ParamHumidity, ParamSystemEfficiency:
		ok = v >= 0 && v <= 100
	case ParamDeltaTSource, ParamDeltaTSink:
		ok = v >= 0
	case ParamHeatLoad, ParamMaxCapacity:
		ok = v > 0
	default:
		return ErrInvalidParameter
	}
	if !ok {
		return fmt.Errorf("%s=%g: %w", p, v, ErrOutOfRange)
	}
	return nil
}
