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

package clearance

import (
	"errors"
	"strings"
	"testing"
)

func TestOpenEnvelopeFileJSON(t *testing.T) {
	e, err := OpenEnvelopeFile("testdata/envelope.json")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(e.Points()); n != 13 {
		t.Errorf("have %d points, want 13", n)
	}
	lat, err := e.LateralAt(920)
	if err != nil {
		t.Fatal(err)
	}
	if lat != 1575 {
		t.Errorf("lateral at 920 mm: have %g, want 1575", lat)
	}
}

func TestOpenEnvelopeFileTOML(t *testing.T) {
	e, err := OpenEnvelopeFile("testdata/envelope.toml")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(e.Points()); n != 8 {
		t.Errorf("have %d points, want 8", n)
	}
	lat, err := e.LateralAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if lat != 1225 {
		t.Errorf("lateral at 0 mm: have %g, want 1225", lat)
	}
}

func TestOpenEnvelopeFileUnsupported(t *testing.T) {
	if _, err := OpenEnvelopeFile("testdata/envelope.csv"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := OpenEnvelopeFile("testdata/missing.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadEnvelopeMalformed(t *testing.T) {
	if _, err := ReadEnvelope(strings.NewReader("{not json")); err == nil {
		t.Error("expected JSON decode error")
	}

	// Decodes but violates the monotonic-height rule.
	badTable := `[{"lateral_mm": 1225, "height_mm": 500}, {"lateral_mm": 1575, "height_mm": 350}]`
	_, err := ReadEnvelope(strings.NewReader(badTable))
	var dataErr *DataIntegrityError
	if !errors.As(err, &dataErr) {
		t.Errorf("expected DataIntegrityError, got %v", err)
	}
}

func TestReadEnvelopeTOMLMalformed(t *testing.T) {
	if _, err := ReadEnvelopeTOML(strings.NewReader("points = [")); err == nil {
		t.Error("expected TOML decode error")
	}
	one := "[[points]]\nlateral_mm = 1225.0\nheight_mm = 0.0\n"
	var dataErr *DataIntegrityError
	if _, err := ReadEnvelopeTOML(strings.NewReader(one)); !errors.As(err, &dataErr) {
		t.Errorf("expected DataIntegrityError for single-point table, got %v", err)
	}
}
