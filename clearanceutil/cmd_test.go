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
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	clearance "github.com/horiuchi-bell/building-clearance-simulator"
)

func executeCommand(t *testing.T, args ...string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	Root.SetOut(buf)
	Root.SetArgs(args)
	if err := Root.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return buf.String()
}

func TestVersionCmd(t *testing.T) {
	out := executeCommand(t, "version")
	if !strings.Contains(out, clearance.Version) {
		t.Errorf("version output %q missing %q", out, clearance.Version)
	}
}

func TestEvaluateCmd(t *testing.T) {
	out := executeCommand(t, "evaluate",
		"--radius=160", "--cant=105", "--electrification=dc",
		"--distance=2110", "--height=3150")
	var result clearance.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if result.Status != clearance.Safe {
		t.Errorf("status: have %v, want SAFE", result.Status)
	}
	if result.RequiredClearanceMM != 1501 || result.MarginMM != 609 {
		t.Errorf("have required %g margin %g, want 1501 and 609",
			result.RequiredClearanceMM, result.MarginMM)
	}
}

func TestBoundaryCmd(t *testing.T) {
	out := executeCommand(t, "boundary", "--radius=straight", "--cant=0")
	var points []clearance.Point
	if err := json.Unmarshal([]byte(out), &points); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(points) != 26 {
		t.Errorf("have %d boundary points, want 26", len(points))
	}
}

func TestBatchCmd(t *testing.T) {
	dir, err := ioutil.TempDir("", "clearancebatch")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	csvFile := filepath.Join(dir, "points.csv")
	data := "distance_mm,height_mm\n2110,3150\n1400,3150\n"
	if err := ioutil.WriteFile(csvFile, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out := executeCommand(t, "batch", csvFile,
		"--radius=160", "--cant=105", "--electrification=dc")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("have %d output lines, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "SAFE") {
		t.Errorf("first point should be SAFE: %s", lines[1])
	}
	if !strings.Contains(lines[2], "INTRUSION") {
		t.Errorf("second point should be INTRUSION: %s", lines[2])
	}
}

func TestSweepCmd(t *testing.T) {
	out := executeCommand(t, "sweep",
		"--height=3000", "--electrification=dc",
		"--Sweep.MinRadiusM=200", "--Sweep.MaxRadiusM=1000", "--Sweep.Steps=5")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 { // header plus five radii
		t.Fatalf("have %d output lines, want 6:\n%s", len(lines), out)
	}
	if lines[0] != "radius_m,required_mm" {
		t.Errorf("header %q", lines[0])
	}
	// Required clearance shrinks as the curve eases.
	var prev float64
	for i, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			t.Fatalf("line %q", line)
		}
		req, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && req > prev {
			t.Errorf("required clearance grew from %g to %g as radius eased", prev, req)
		}
		prev = req
	}
}
