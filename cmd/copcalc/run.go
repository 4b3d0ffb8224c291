package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/copcalc/internal/heatpump"
	"github.com/Agrid-Dev/copcalc/internal/logger"
)

func computeCmd(configPath *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the COP at one operating point",
		Args:  cobra.NoArgs,
	}
	flags := bindInputFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|yaml|csv")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		in, cfg, err := resolveInput(cmd, *configPath, flags)
		if err != nil {
			return err
		}
		res := heatpump.Compute(in)
		if res.Degenerate() {
			logger.NewTo(cmd.ErrOrStderr(), cfg.LogLevel).Warnw("condenser is not above evaporator; result is not physical",
				"evaporator", res.EvaporatorTemperature, "condenser", res.CondenserTemperature)
		}
		return writeCompute(cmd.OutOrStdout(), format, in, res)
	}
	return cmd
}

func sweepCmd(configPath *string) *cobra.Command {
	var (
		format string
		rng    = heatpump.DefaultSweepRange()
		waters string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep COP over a range of outdoor temperatures",
		Long: `Sweep evaluates the Carnot, ideal, pre-parasitic and real COP over evenly
spaced outdoor temperatures. Pass --waters with a comma separated list to
compute one curve per flow temperature.`,
		Args: cobra.NoArgs,
	}
	flags := bindInputFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|yaml|csv")
	cmd.Flags().Float64Var(&rng.From, "from", rng.From, "first outdoor temperature (°C)")
	cmd.Flags().Float64Var(&rng.To, "to", rng.To, "last outdoor temperature (°C)")
	cmd.Flags().IntVarP(&rng.Points, "points", "n", rng.Points, "number of points")
	cmd.Flags().StringVar(&waters, "waters", "", "comma separated flow temperatures, one curve each")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		in, _, err := resolveInput(cmd, *configPath, flags)
		if err != nil {
			return err
		}
		temps := []float64{in.WaterTemperature}
		if waters != "" {
			if temps, err = parseFloats(waters); err != nil {
				return fmt.Errorf("--waters: %w", err)
			}
		}
		curves, err := heatpump.Curves(cmd.Context(), in, temps, rng)
		if err != nil {
			return err
		}
		return writeCurves(cmd.OutOrStdout(), format, curves)
	}
	return cmd
}

func seasonalCmd(configPath *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "COP at the winter, freezing, mild and spring reference temperatures",
		Args:  cobra.NoArgs,
	}
	flags := bindInputFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|yaml|csv")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		in, _, err := resolveInput(cmd, *configPath, flags)
		if err != nil {
			return err
		}
		return writeSeasonal(cmd.OutOrStdout(), format, heatpump.Seasonal(in))
	}
	return cmd
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
