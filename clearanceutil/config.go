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

package clearanceutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	clearance "github.com/horiuchi-bell/building-clearance-simulator"
)

// ConstantsFromCfg assembles the calculation constants from the
// configuration, starting from the built-in defaults and overriding the
// scalar parameters that are set. The slack and electrification tables are
// not configurable from flags; edit them in a configuration file consumer
// instead.
func ConstantsFromCfg(cfg *viper.Viper) (clearance.Constants, error) {
	c := clearance.DefaultConstants()
	scalars := []struct {
		name string
		dst  *float64
	}{
		{"Constants.GaugeMM", &c.GaugeMM},
		{"Constants.BodyWideningNumerator", &c.BodyWideningNumerator},
		{"Constants.UpperWideningNumerator", &c.UpperWideningNumerator},
		{"Constants.UpperBodyHeightMM", &c.UpperBodyHeightMM},
		{"Constants.StraightRadiusM", &c.StraightRadiusM},
		{"Constants.MinRadiusM", &c.MinRadiusM},
	}
	for _, s := range scalars {
		if !cfg.IsSet(s.name) {
			continue
		}
		v, err := cast.ToFloat64E(cfg.Get(s.name))
		if err != nil {
			return c, fmt.Errorf("clearance: configuration variable %s: %v", s.name, err)
		}
		*s.dst = v
	}
	return c, nil
}

// LoadEnvelope loads the envelope table named by the EnvelopeFile
// configuration variable, or the built-in narrow-gauge table when it is
// unset. The path can contain environment variables.
func LoadEnvelope(cfg *viper.Viper) (*clearance.Envelope, error) {
	file := os.ExpandEnv(cfg.GetString("EnvelopeFile"))
	if file == "" {
		return clearance.DefaultEnvelope(), nil
	}
	return clearance.OpenEnvelopeFile(file)
}

// evaluator builds the evaluator the commands share from the current
// configuration.
func evaluator(cfg *viper.Viper) (*clearance.Evaluator, error) {
	e, err := LoadEnvelope(cfg)
	if err != nil {
		return nil, err
	}
	c, err := ConstantsFromCfg(cfg)
	if err != nil {
		return nil, err
	}
	return clearance.NewEvaluator(e, c), nil
}

// ParseRadius interprets a radius argument: empty or "straight" means
// tangent track, anything else is a radius in meters.
func ParseRadius(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "straight":
		return clearance.Straight, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("clearance: parsing radius %q: %v", s, err)
	}
	return v, nil
}

// GeometryFromCfg reads the track geometry from the configuration.
func GeometryFromCfg(cfg *viper.Viper) (clearance.Geometry, error) {
	var g clearance.Geometry
	r, err := ParseRadius(cfg.GetString("radius"))
	if err != nil {
		return g, err
	}
	g.RadiusM = r
	g.CantMM = cfg.GetFloat64("cant")
	elec, err := clearance.ParseElectrification(cfg.GetString("electrification"))
	if err != nil {
		return g, err
	}
	g.Electrification = elec
	return g, nil
}

// readMeasurementsCSV reads measured points from CSV: two columns, lateral
// distance then height, in mm. A non-numeric first row is treated as a
// header and skipped.
func readMeasurementsCSV(r io.Reader) ([]clearance.Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	var ms []clearance.Measurement
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("clearance: reading measurements: %v", err)
		}
		line++
		d, errD := strconv.ParseFloat(rec[0], 64)
		h, errH := strconv.ParseFloat(rec[1], 64)
		if errD != nil || errH != nil {
			if line == 1 { // header row
				continue
			}
			return nil, fmt.Errorf("clearance: measurements line %d: non-numeric values (%q, %q)",
				line, rec[0], rec[1])
		}
		ms = append(ms, clearance.Measurement{DistanceMM: d, HeightMM: h})
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("clearance: no measurements found")
	}
	return ms, nil
}

// writeResultsCSV writes batch results as CSV, one row per input point in
// input order. Points that failed to evaluate get an error column instead
// of numbers.
func writeResultsCSV(w io.Writer, results []clearance.BatchResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"distance_mm", "height_mm", "required_mm", "margin_mm", "status", "error"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range results {
		row := []string{f(r.Measurement.DistanceMM), f(r.Measurement.HeightMM)}
		if r.Err != nil {
			row = append(row, "", "", "", r.Err.Error())
		} else {
			row = append(row, f(r.Result.RequiredClearanceMM), f(r.Result.MarginMM),
				r.Result.Status.String(), "")
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
