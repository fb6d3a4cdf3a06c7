/*
Copyright © 2025 the Building Clearance Simulator authors.
This file is part of the Building Clearance Simulator.

The Building Clearance Simulator is free software: you can redistribute it
and/or modify it under the terms of the GNU General Public License as
published by the Free Software Foundation, either version 3 of the License,
or (at your option) any later version.

The Building Clearance Simulator is distributed in the hope that it will be
useful, but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with the Building Clearance Simulator.  If not, see
<http://www.gnu.org/licenses/>.
*/

// Package clearanceutil holds the configuration and command-line interface
// for the building clearance simulator.
package clearanceutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"

	clearance "github.com/horiuchi-bell/building-clearance-simulator"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the simulator.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "EnvelopeFile",
			usage: `
              EnvelopeFile is the path to the envelope table to evaluate
              against (.json, .toml, or .xlsx). If empty, the built-in
              narrow-gauge passenger stock table is used. The path can
              include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.GaugeMM",
			usage: `
              Constants.GaugeMM is the track gauge in millimeters, used when
              converting cant to a rotation angle.`,
			defaultVal: 1067.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.BodyWideningNumerator",
			usage: `
              Constants.BodyWideningNumerator is the numerator of the
              curve widening formula W = numerator / radius, in mm·m,
              applied to the car body region of the envelope.`,
			defaultVal: 23100.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.UpperWideningNumerator",
			usage: `
              Constants.UpperWideningNumerator is the numerator of the
              curve widening formula applied above
              Constants.UpperBodyHeightMM.`,
			defaultVal: 11550.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.UpperBodyHeightMM",
			usage: `
              Constants.UpperBodyHeightMM is the height above which the
              upper-body widening numerator applies instead of the car
              body one.`,
			defaultVal: 5200.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.StraightRadiusM",
			usage: `
              Constants.StraightRadiusM is the radius in meters above which
              track is treated as straight.`,
			defaultVal: 10000.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.MinRadiusM",
			usage: `
              Constants.MinRadiusM is the smallest curve radius in meters
              the formulas are valid for; smaller radii are rejected.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "radius",
			usage: `
              radius is the track curve radius in meters at the measurement
              location, or "straight" for tangent track.`,
			shorthand:  "r",
			defaultVal: "straight",
			flagsets:   []*pflag.FlagSet{evaluateCmd.Flags(), boundaryCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "cant",
			usage: `
              cant is the track cant (superelevation) in millimeters at the
              measurement location.`,
			shorthand:  "c",
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{evaluateCmd.Flags(), boundaryCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "electrification",
			usage: `
              electrification selects the envelope variant: "dc", "ac", or
              "none".`,
			defaultVal: "dc",
			flagsets:   []*pflag.FlagSet{evaluateCmd.Flags(), boundaryCmd.Flags(), batchCmd.Flags(), sweepCmd.Flags()},
		},
		{
			name: "distance",
			usage: `
              distance is the measured lateral distance of the structure
              from track center in millimeters. Positive is the right side
              in the direction of travel, negative the left.`,
			shorthand:  "d",
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{evaluateCmd.Flags()},
		},
		{
			name: "height",
			usage: `
              height is the measured height of the structure above rail top
              in millimeters.`,
			shorthand:  "H",
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{evaluateCmd.Flags(), sweepCmd.Flags()},
		},
		{
			name: "geojson",
			usage: `
              geojson makes the boundary command print a GeoJSON geometry
              instead of a JSON point array.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{boundaryCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path batch results are written to. If empty,
              results go to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Sweep.MinRadiusM",
			usage: `
              Sweep.MinRadiusM is the smallest radius in the sweep, in
              meters.`,
			defaultVal: 160.0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Sweep.MaxRadiusM",
			usage: `
              Sweep.MaxRadiusM is the largest radius in the sweep, in
              meters.`,
			defaultVal: 2000.0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Sweep.Steps",
			usage: `
              Sweep.Steps is the number of radii to evaluate between
              Sweep.MinRadiusM and Sweep.MaxRadiusM, inclusive.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "addr",
			usage: `
              addr is the address for the evaluation server to listen on.`,
			defaultVal: "localhost:8080",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CLEARANCE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(evaluateCmd)
	Root.AddCommand(boundaryCmd)
	Root.AddCommand(batchCmd)
	Root.AddCommand(sweepCmd)
	Root.AddCommand(serveCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("clearance: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "clearance",
	Short: "A railway building clearance calculator.",
	Long: `clearance calculates whether structures beside the track stay clear of
the building limit: the envelope passing rolling stock needs, widened on
curves and rotated by cant. Use the subcommands specified below to access
the calculator functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'CLEARANCE_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of the simulator.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("clearance v%s\n", clearance.Version)
	},
	DisableAutoGenTag: true,
}

// evaluateCmd checks a single measured point against the transformed
// boundary.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one measured point",
	Long: `evaluate checks a single measured point, given as a lateral distance from
track center and a height above rail top, against the building limit for
the configured track geometry, and prints the result as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := evaluator(Cfg)
		if err != nil {
			return err
		}
		g, err := GeometryFromCfg(Cfg)
		if err != nil {
			return err
		}
		m := clearance.Measurement{
			DistanceMM: Cfg.GetFloat64("distance"),
			HeightMM:   Cfg.GetFloat64("height"),
		}
		result, err := ev.Evaluate(g, m)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
	DisableAutoGenTag: true,
}

// boundaryCmd prints the transformed boundary for plotting by other tools.
var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Print the transformed building limit",
	Long: `boundary prints the building limit for the configured track geometry,
after curve widening, slack, and cant rotation, as a JSON array of vertices
ordered counterclockwise, or as GeoJSON with --geojson.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := evaluator(Cfg)
		if err != nil {
			return err
		}
		g, err := GeometryFromCfg(Cfg)
		if err != nil {
			return err
		}
		b, err := ev.TransformedBoundary(g)
		if err != nil {
			return err
		}
		if Cfg.GetBool("geojson") {
			data, err := geojson.Encode(b.Polygon())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(b.Points())
	},
	DisableAutoGenTag: true,
}

// batchCmd evaluates a CSV file of measured points.
var batchCmd = &cobra.Command{
	Use:   "batch measurements.csv",
	Short: "Evaluate a file of measured points",
	Long: `batch reads measured points from a CSV file (two columns: lateral
distance from track center and height above rail top, in mm) and evaluates
each one against the building limit for the configured track geometry.
Results are written as CSV in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := evaluator(Cfg)
		if err != nil {
			return err
		}
		g, err := GeometryFromCfg(Cfg)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("clearance: opening measurements: %v", err)
		}
		defer f.Close()
		ms, err := readMeasurementsCSV(f)
		if err != nil {
			return err
		}
		results := ev.EvaluateBatch(g, ms)
		out := cmd.OutOrStdout()
		if outFile := os.ExpandEnv(Cfg.GetString("OutputFile")); outFile != "" {
			of, err := os.Create(outFile)
			if err != nil {
				return fmt.Errorf("clearance: creating output file: %v", err)
			}
			defer of.Close()
			out = of
		}
		return writeResultsCSV(out, results)
	},
	DisableAutoGenTag: true,
}

// sweepCmd tabulates the required clearance over a range of curve radii.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Tabulate required clearance over curve radii",
	Long: `sweep evaluates the required clearance at a fixed height over a range of
curve radii (cant zero) and prints a CSV table of radius against required
clearance. Useful for seeing how much a curve costs in side clearance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := evaluator(Cfg)
		if err != nil {
			return err
		}
		elec, err := clearance.ParseElectrification(Cfg.GetString("electrification"))
		if err != nil {
			return err
		}
		height := Cfg.GetFloat64("height")
		n := Cfg.GetInt("Sweep.Steps")
		if n < 2 {
			return fmt.Errorf("clearance: sweep needs at least 2 steps, have %d", n)
		}
		radii := floats.Span(make([]float64, n),
			Cfg.GetFloat64("Sweep.MinRadiusM"), Cfg.GetFloat64("Sweep.MaxRadiusM"))

		w := cmd.OutOrStdout()
		if _, err := fmt.Fprintln(w, "radius_m,required_mm"); err != nil {
			return err
		}
		for _, radius := range radii {
			b, err := ev.TransformedBoundary(clearance.Geometry{
				RadiusM: radius, Electrification: elec})
			if err != nil {
				return err
			}
			req, err := b.RequiredAt(height, clearance.Right)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s,%s\n",
				strconv.FormatFloat(radius, 'g', -1, 64),
				strconv.FormatFloat(req, 'g', -1, 64)); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// serveCmd runs the HTTP evaluation server for the graphical interface.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the evaluation server",
	Long: `serve runs an HTTP server exposing the calculator: /evaluate for point
checks, /boundary and /boundary.geojson for the transformed building limit,
and /plot for a rendered cross-section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := evaluator(Cfg)
		if err != nil {
			return err
		}
		addr := Cfg.GetString("addr")
		log := logrus.New()
		s := clearance.NewServer(ev)
		s.Log = log
		log.WithField("addr", addr).Info("serving")
		return http.ListenAndServe(addr, s.Handler())
	},
	DisableAutoGenTag: true,
}
