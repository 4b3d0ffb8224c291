package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/copcalc/internal/controllers/dto"
	"github.com/Agrid-Dev/copcalc/internal/heatpump"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
)

type curveOut struct {
	WaterTemperature float64 `json:"water_temperature"`
	dto.Sweep
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeCompute(w io.Writer, format string, in heatpump.Input, r heatpump.Result) error {
	snap := dto.FromSnapshot("", heatpump.Snapshot{Input: in, Result: r})
	b := heatpump.Explain(in, r)

	switch format {
	case formatJSON:
		return writeJSON(w, snap)
	case formatYAML:
		return writeYAML(w, snap)
	case formatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"quantity", "value"})
		for _, row := range computeRows(r, b) {
			_ = cw.Write(row)
		}
		cw.Flush()
		return cw.Error()
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "QUANTITY\tVALUE")
		for _, row := range computeRows(r, b) {
			fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
		}
		return tw.Flush()
	default:
		return unknownFormat(format)
	}
}

func computeRows(r heatpump.Result, b heatpump.Breakdown) [][]string {
	return [][]string{
		{"cop", fmtFloat(r.COP)},
		{"rating", b.Rating.String()},
		{"carnot_cop", fmtFloat(r.CarnotCOP)},
		{"ideal_cop", fmtFloat(b.IdealCOP)},
		{"raw_cop", fmtFloat(r.RawCOP)},
		{"defrost_penalty", fmtFloat(r.DefrostPenalty)},
		{"inverter_correction", fmtFloat(r.InverterCorrection)},
		{"load_factor", fmtFloat(r.LoadFactor)},
		{"evaporator_temperature_c", fmtFloat(r.EvaporatorTemperature)},
		{"condenser_temperature_c", fmtFloat(r.CondenserTemperature)},
		{"lift_k", fmtFloat(b.Lift)},
		{"compressor_power_kw", fmtFloat(b.CompressorPower)},
		{"parasitic_power_kw", fmtFloat(b.ParasiticPower)},
		{"electrical_power_kw", fmtFloat(b.ElectricalPower)},
		{"efficiency_loss_pct", fmtFloat(b.EfficiencyLoss)},
		{"load_ratio", fmtFloat(b.LoadRatio)},
	}
}

func writeCurves(w io.Writer, format string, curves []heatpump.Curve) error {
	switch format {
	case formatJSON, formatYAML:
		out := make([]curveOut, len(curves))
		for i, c := range curves {
			out[i] = curveOut{WaterTemperature: c.WaterTemperature, Sweep: dto.Sweep{Points: dto.FromSweep(c.Points)}}
		}
		if format == formatJSON {
			return writeJSON(w, out)
		}
		return writeYAML(w, out)
	case formatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"water_temperature", "outdoor_temperature", "carnot_cop", "ideal_cop", "raw_cop", "cop"})
		for _, c := range curves {
			for _, p := range c.Points {
				_ = cw.Write([]string{
					fmtFloat(c.WaterTemperature), fmtFloat(p.OutdoorTemperature),
					fmtFloat(p.CarnotCOP), fmtFloat(p.IdealCOP), fmtFloat(p.RawCOP), fmtFloat(p.COP),
				})
			}
		}
		cw.Flush()
		return cw.Error()
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "WATER\tOUTDOOR\tCARNOT\tIDEAL\tRAW\tCOP\t")
		for _, c := range curves {
			for _, p := range c.Points {
				fmt.Fprintf(tw, "%.1f\t%.2f\t%.3f\t%.3f\t%.3f\t%.3f\t\n",
					c.WaterTemperature, p.OutdoorTemperature, p.CarnotCOP, p.IdealCOP, p.RawCOP, p.COP)
			}
		}
		return tw.Flush()
	default:
		return unknownFormat(format)
	}
}

func writeSeasonal(w io.Writer, format string, points []heatpump.SeasonalPoint) error {
	switch format {
	case formatJSON:
		return writeJSON(w, dto.FromSeasonal(points))
	case formatYAML:
		return writeYAML(w, dto.FromSeasonal(points))
	case formatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"label", "outdoor_temperature", "cop", "rating"})
		for _, p := range points {
			_ = cw.Write([]string{p.Label, fmtFloat(p.OutdoorTemperature), fmtFloat(p.COP), heatpump.RateCOP(p.COP).String()})
		}
		cw.Flush()
		return cw.Error()
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEASON\tOUTDOOR\tCOP\tRATING")
		for _, p := range points {
			fmt.Fprintf(tw, "%s\t%.1f\t%.2f\t%s\n", p.Label, p.OutdoorTemperature, p.COP, heatpump.RateCOP(p.COP))
		}
		return tw.Flush()
	default:
		return unknownFormat(format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through the JSON encoding so field names, key order and the
// null encoding of non-finite values match the HTTP API.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return err
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func unknownFormat(f string) error {
	return fmt.Errorf("unknown format %q (want table, json, yaml or csv)", f)
}
