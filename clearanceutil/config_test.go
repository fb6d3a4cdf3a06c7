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
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/lnashier/viper"

	clearance "github.com/horiuchi-bell/building-clearance-simulator"
)

func TestConstantsFromCfg(t *testing.T) {
	cfg := viper.New()
	c, err := ConstantsFromCfg(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := clearance.DefaultConstants()
	if c.GaugeMM != want.GaugeMM || c.MinRadiusM != want.MinRadiusM {
		t.Errorf("unset configuration should yield defaults: %+v", c)
	}

	cfg.Set("Constants.GaugeMM", 1435)
	cfg.Set("Constants.MinRadiusM", "80")
	c, err = ConstantsFromCfg(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.GaugeMM != 1435 {
		t.Errorf("gauge: have %g, want 1435", c.GaugeMM)
	}
	if c.MinRadiusM != 80 {
		t.Errorf("minimum radius: have %g, want 80", c.MinRadiusM)
	}

	cfg.Set("Constants.GaugeMM", "wide")
	if _, err := ConstantsFromCfg(cfg); err == nil {
		t.Error("expected error for non-numeric constant")
	}
}

func TestParseRadius(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"straight", clearance.Straight},
		{"Straight", clearance.Straight},
		{"", clearance.Straight},
		{" 160 ", 160},
		{"600.5", 600.5},
	}
	for _, test := range tests {
		have, err := ParseRadius(test.in)
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if have != test.want && !(math.IsInf(have, 1) && math.IsInf(test.want, 1)) {
			t.Errorf("%q: have %g, want %g", test.in, have, test.want)
		}
	}
	if _, err := ParseRadius("tight"); err == nil {
		t.Error("expected error for non-numeric radius")
	}
}

func TestGeometryFromCfg(t *testing.T) {
	cfg := viper.New()
	cfg.Set("radius", "160")
	cfg.Set("cant", 105)
	cfg.Set("electrification", "ac")
	g, err := GeometryFromCfg(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if g.RadiusM != 160 || g.CantMM != 105 || g.Electrification != clearance.AC {
		t.Errorf("unexpected geometry %+v", g)
	}
}

func TestReadMeasurementsCSV(t *testing.T) {
	in := "distance_mm,height_mm\n2110,3150\n-1500, 920\n"
	ms, err := readMeasurementsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []clearance.Measurement{
		{DistanceMM: 2110, HeightMM: 3150},
		{DistanceMM: -1500, HeightMM: 920},
	}
	if len(ms) != len(want) {
		t.Fatalf("have %d measurements, want %d", len(ms), len(want))
	}
	for i, m := range ms {
		if m != want[i] {
			t.Errorf("measurement %d: have %+v, want %+v", i, m, want[i])
		}
	}

	if _, err := readMeasurementsCSV(strings.NewReader("1000,2000\noops,3000\n")); err == nil {
		t.Error("expected error for non-numeric row past the header")
	}
	if _, err := readMeasurementsCSV(strings.NewReader("a,b\n")); err == nil {
		t.Error("expected error for header-only input")
	}
}

func TestWriteResultsCSV(t *testing.T) {
	ev := clearance.NewEvaluator(clearance.DefaultEnvelope(), clearance.DefaultConstants())
	results := ev.EvaluateBatch(
		clearance.Geometry{RadiusM: 160, CantMM: 105},
		[]clearance.Measurement{
			{DistanceMM: 2110, HeightMM: 3150},
			{DistanceMM: 2000, HeightMM: 9000},
		})
	var buf bytes.Buffer
	if err := writeResultsCSV(&buf, results); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("have %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "SAFE") {
		t.Errorf("first result should be SAFE: %s", lines[1])
	}
	if !strings.Contains(lines[1], "1501") || !strings.Contains(lines[1], "609") {
		t.Errorf("first result should report 1501 and 609: %s", lines[1])
	}
	if !strings.Contains(lines[2], "outside the boundary span") {
		t.Errorf("second result should carry an out-of-range error: %s", lines[2])
	}
}
