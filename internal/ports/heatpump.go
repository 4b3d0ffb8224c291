package ports

import "github.com/Agrid-Dev/copcalc/internal/heatpump"

// HeatPumpService is the control-plane port used by controllers (HTTP/MQTT/etc).
type HeatPumpService interface {
	Get() heatpump.Snapshot
	SetParameter(heatpump.Parameter, float64) error
	SetFeature(heatpump.Feature, bool) error
}
