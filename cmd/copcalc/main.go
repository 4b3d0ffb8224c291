package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/copcalc/cmd/app"
	"github.com/Agrid-Dev/copcalc/internal/heatpump"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "copcalc",
		Short: "Realistic COP of an air-to-water heat pump",
		Long: `copcalc estimates the delivered coefficient of performance of an
air-to-water heat pump from outdoor temperature, flow temperature and heat
demand, applying heat exchanger lift, system efficiency, defrost, part-load
and parasitic corrections to the Carnot limit.

Examples:
  copcalc compute --outdoor-temperature -3 --humidity 85
  copcalc sweep --water-temperature 35,45,55 --format csv
  copcalc serve --config config.yaml`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")

	root.AddCommand(computeCmd(&configPath))
	root.AddCommand(sweepCmd(&configPath))
	root.AddCommand(seasonalCmd(&configPath))
	root.AddCommand(serveCmd(&configPath))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// inputFlags binds one flag per calculation input. Only flags the user set
// override the configured operating point.
type inputFlags struct {
	params   map[heatpump.Parameter]*float64
	features map[heatpump.Feature]*bool
}

func flagName(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

func bindInputFlags(cmd *cobra.Command) *inputFlags {
	def := heatpump.DefaultInput()
	f := &inputFlags{
		params:   make(map[heatpump.Parameter]*float64, len(heatpump.Parameters)),
		features: make(map[heatpump.Feature]*bool, len(heatpump.Features)),
	}
	for _, p := range heatpump.Parameters {
		v, _ := def.Value(p)
		f.params[p] = cmd.Flags().Float64(flagName(p.String()), v, parameterUsage[p])
	}
	for _, ft := range heatpump.Features {
		on, _ := def.Enabled(ft)
		f.features[ft] = cmd.Flags().Bool(flagName(ft.String()), on, "apply the "+strings.ReplaceAll(ft.String(), "_", " ")+" correction")
	}
	return f
}

var parameterUsage = map[heatpump.Parameter]string{
	heatpump.ParamOutdoorTemperature: "outdoor air temperature (°C)",
	heatpump.ParamWaterTemperature:   "water flow temperature (°C)",
	heatpump.ParamHeatLoad:           "current heat demand (kW)",
	heatpump.ParamHumidity:           "relative humidity (%)",
	heatpump.ParamSystemEfficiency:   "system efficiency (% of Carnot)",
	heatpump.ParamDeltaTSource:       "evaporator approach below outdoor air (K)",
	heatpump.ParamDeltaTSink:         "condenser approach above flow water (K)",
	heatpump.ParamMaxCapacity:        "rated unit capacity (kW)",
}

func (f *inputFlags) apply(cmd *cobra.Command, base heatpump.Input) heatpump.Input {
	in := base
	for p, v := range f.params {
		if cmd.Flags().Changed(flagName(p.String())) {
			in, _ = in.WithValue(p, *v)
		}
	}
	for ft, on := range f.features {
		if cmd.Flags().Changed(flagName(ft.String())) {
			in, _ = in.WithFeature(ft, *on)
		}
	}
	return in
}

// resolveInput merges config file, env and flags into one calculation input.
func resolveInput(cmd *cobra.Command, configPath string, f *inputFlags) (heatpump.Input, app.Config, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return heatpump.Input{}, cfg, err
	}
	return f.apply(cmd, cfg.HeatPump.Input()), cfg, nil
}
