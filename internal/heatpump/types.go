package heatpump

import "fmt"

// Parameter is an integer enum naming the numeric inputs of a calculation.
type Parameter int

const (
	ParamUnknown Parameter = iota
	ParamOutdoorTemperature
	ParamWaterTemperature
	ParamHeatLoad
	ParamHumidity
	ParamSystemEfficiency
	ParamDeltaTSource
	ParamDeltaTSink
	ParamMaxCapacity
)

// Parameters lists every valid Parameter in register order.
var Parameters = []Parameter{
	ParamOutdoorTemperature,
	ParamWaterTemperature,
	ParamHeatLoad,
	ParamHumidity,
	ParamSystemEfficiency,
	ParamDeltaTSource,
	ParamDeltaTSink,
	ParamMaxCapacity,
}

func (p Parameter) Valid() bool {
	return p >= ParamOutdoorTemperature && p <= ParamMaxCapacity
}

func (p Parameter) String() string {
	switch p {
	case ParamOutdoorTemperature:
		return "outdoor_temperature"
	case ParamWaterTemperature:
		return "water_temperature"
	case ParamHeatLoad:
		return "heat_load"
	case ParamHumidity:
		return "humidity"
	case ParamSystemEfficiency:
		return "system_efficiency"
	case ParamDeltaTSource:
		return "delta_t_source"
	case ParamDeltaTSink:
		return "delta_t_sink"
	case ParamMaxCapacity:
		return "max_capacity"
	default:
		return "unknown"
	}
}

// ParseParameter is the inverse of Parameter.String, handy for topics and routes.
func ParseParameter(s string) (Parameter, error) {
	for _, p := range Parameters {
		if p.String() == s {
			return p, nil
		}
	}
	return ParamUnknown, fmt.Errorf("%w: %q", ErrInvalidParameter, s)
}

// Feature is an integer enum naming the optional corrections of a calculation.
type Feature int

const (
	FeatureUnknown Feature = iota
	FeatureDefrost
	FeatureParasitics
	FeatureHexPenalty
	FeaturePartLoad
)

// Features lists every valid Feature in coil order.
var Features = []Feature{
	FeatureDefrost,
	FeatureParasitics,
	FeatureHexPenalty,
	FeaturePartLoad,
}

func (f Feature) Valid() bool {
	return f >= FeatureDefrost && f <= FeaturePartLoad
}

func (f Feature) String() string {
	switch f {
	case FeatureDefrost:
		return "defrost"
	case FeatureParasitics:
		return "parasitics"
	case FeatureHexPenalty:
		return "hex_penalty"
	case FeaturePartLoad:
		return "part_load"
	default:
		return "unknown"
	}
}

func ParseFeature(s string) (Feature, error) {
	for _, f := range Features {
		if f.String() == s {
			return f, nil
		}
	}
	return FeatureUnknown, fmt.Errorf("%w: %q", ErrInvalidFeature, s)
}

// Rating is a coarse judgement of a delivered COP.
type Rating int

const (
	RatingUnknown Rating = iota
	RatingPoor
	RatingFair
	RatingGood
)

const (
	goodCOP = 3.5
	fairCOP = 2.5
)

func (r Rating) Valid() bool {
	return r == RatingPoor || r == RatingFair || r == RatingGood
}

func (r Rating) String() string {
	switch r {
	case RatingPoor:
		return "poor"
	case RatingFair:
		return "fair"
	case RatingGood:
		return "good"
	default:
		return "unknown"
	}
}

func ParseRating(s string) (Rating, error) {
	switch s {
	case "poor":
		return RatingPoor, nil
	case "fair":
		return RatingFair, nil
	case "good":
		return RatingGood, nil
	default:
		return RatingUnknown, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
}

// RateCOP buckets a delivered COP. NaN falls through to poor.
func RateCOP(cop float64) Rating {
	switch {
	case cop >= goodCOP:
		return RatingGood
	case cop >= fairCOP:
		return RatingFair
	default:
		return RatingPoor
	}
}
