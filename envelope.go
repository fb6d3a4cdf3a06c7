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
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
)

// Point is one vertex of the clearance boundary, expressed relative to the
// rail-top / track-center datum.
type Point struct {
	LateralMM float64 `json:"lateral_mm" toml:"lateral_mm"`
	HeightMM  float64 `json:"height_mm" toml:"height_mm"`
}

// Side selects which side of the track center a boundary query refers to.
type Side int

const (
	Right Side = iota
	Left
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// sign gives the lateral sign convention for the side.
func (s Side) sign() float64 {
	if s == Left {
		return -1
	}
	return 1
}

// SideOf returns the side a measurement lies on. Zero distance counts as
// the right side.
func SideOf(distanceMM float64) Side {
	if distanceMM < 0 {
		return Left
	}
	return Right
}

// Electrification selects among the operator's clearance envelope variants.
type Electrification int

const (
	// DC is the standard envelope for direct-current electrified track.
	DC Electrification = iota
	// AC track has a raised upper clearance region.
	AC
	// NonElectrified track shares the DC envelope.
	NonElectrified
)

func (e Electrification) String() string {
	switch e {
	case DC:
		return "dc"
	case AC:
		return "ac"
	case NonElectrified:
		return "none"
	}
	return fmt.Sprintf("Electrification(%d)", int(e))
}

// ParseElectrification converts a configuration string to an
// Electrification class.
func ParseElectrification(s string) (Electrification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dc":
		return DC, nil
	case "ac":
		return AC, nil
	case "none", "non-electrified", "":
		return NonElectrified, nil
	}
	return DC, fmt.Errorf("clearance: unknown electrification class %q", s)
}

// Envelope is the nominal (untransformed) clearance boundary: the one-sided
// profile walked from the base of the structure gauge to its top. The
// opposite side is the mirror image and is produced on demand; it is not
// stored. The profile is immutable after construction.
type Envelope struct {
	points []Point
}

// NewEnvelope validates the profile and creates an Envelope. Heights must
// be monotonically non-decreasing along the walk and lateral distances must
// be non-negative; violations surface as DataIntegrityError.
func NewEnvelope(points []Point) (*Envelope, error) {
	if len(points) < 2 {
		return nil, &DataIntegrityError{Index: 0, Reason: "profile needs at least two points"}
	}
	for i, p := range points {
		if math.IsNaN(p.LateralMM) || math.IsNaN(p.HeightMM) {
			return nil, &DataIntegrityError{Index: i, Reason: "coordinate is NaN"}
		}
		if p.LateralMM < 0 {
			return nil, &DataIntegrityError{Index: i,
				Reason: fmt.Sprintf("lateral distance %g mm is negative; the profile is one-sided", p.LateralMM)}
		}
		if i > 0 && p.HeightMM < points[i-1].HeightMM {
			return nil, &DataIntegrityError{Index: i,
				Reason: fmt.Sprintf("height %g mm decreases from %g mm; heights must be non-decreasing",
					p.HeightMM, points[i-1].HeightMM)}
		}
	}
	e := &Envelope{points: make([]Point, len(points))}
	copy(e.points, points)
	return e, nil
}

// DefaultEnvelope returns the operator's standard structure gauge profile
// for direct-current and non-electrified track.
func DefaultEnvelope() *Envelope {
	e, err := NewEnvelope([]Point{
		{1225, 0},
		{1575, 350},
		{1575, 920},
		{1900, 920},
		{1900, 1900},
		{1900, 2150},
		{1366.5, 3156},
		{1366.5, 5190.6},
		{1041.5, 5190.6},
		{691.5, 5190.6},
		{375, 5190.6},
		{25, 5190.6},
		{0, 5190.6},
	})
	if err != nil {
		panic(err) // the built-in table is known-good
	}
	return e
}

// Points returns a copy of the nominal profile.
func (e *Envelope) Points() []Point {
	o := make([]Point, len(e.points))
	copy(o, e.points)
	return o
}

// MinHeightMM returns the lowest height covered by the profile.
func (e *Envelope) MinHeightMM() float64 { return e.points[0].HeightMM }

// MaxHeightMM returns the highest height covered by the profile.
func (e *Envelope) MaxHeightMM() float64 { return e.points[len(e.points)-1].HeightMM }

// LateralAt returns the interpolated lateral boundary distance of the
// nominal profile at the given height. Interpolation is linear between the
// two bracketing profile points; where several segments bracket the height
// the most restrictive (smallest) lateral distance wins. Heights outside
// the profile span return an OutOfRangeError, never an extrapolation.
func (e *Envelope) LateralAt(heightMM float64) (float64, error) {
	if heightMM < e.MinHeightMM() || heightMM > e.MaxHeightMM() {
		return 0, &OutOfRangeError{
			HeightMM:    heightMM,
			MinHeightMM: e.MinHeightMM(),
			MaxHeightMM: e.MaxHeightMM(),
		}
	}
	lateral := math.Inf(1)
	for i := 0; i < len(e.points)-1; i++ {
		p1, p2 := e.points[i], e.points[i+1]
		if p1.HeightMM == p2.HeightMM {
			continue
		}
		if heightMM < p1.HeightMM || heightMM > p2.HeightMM {
			continue
		}
		t := (heightMM - p1.HeightMM) / (p2.HeightMM - p1.HeightMM)
		lateral = math.Min(lateral, p1.LateralMM+t*(p2.LateralMM-p1.LateralMM))
	}
	if math.IsInf(lateral, 1) {
		// Only horizontal segments at exactly this height; the nearest
		// vertex lateral is the boundary.
		for _, p := range e.points {
			if p.HeightMM == heightMM {
				lateral = math.Min(lateral, p.LateralMM)
			}
		}
	}
	return lateral, nil
}

// ForElectrification returns the envelope variant for the given class,
// applying the class's table-driven height adjustment. The receiver is
// not modified.
func (e *Envelope) ForElectrification(class Electrification, c Constants) *Envelope {
	adj, ok := c.ElectrificationAdjustments[class]
	if !ok || adj.RaiseMM == 0 {
		return e
	}
	points := e.Points()
	for i, p := range points {
		if p.HeightMM >= adj.AboveHeightMM {
			points[i].HeightMM = p.HeightMM + adj.RaiseMM
		}
	}
	o, err := NewEnvelope(points)
	if err != nil {
		panic(err) // raising a monotone profile keeps it monotone
	}
	return o
}

// ring mirrors the one-sided profile into the closed two-sided vertex
// sequence: up the left side, across the top toward the right, and back
// down to the base.
func (e *Envelope) ring() []Point {
	var r []Point
	for _, p := range e.points {
		r = append(r, Point{-p.LateralMM, p.HeightMM})
	}
	for i := len(e.points) - 1; i >= 0; i-- {
		if e.points[i].LateralMM == 0 {
			continue
		}
		r = append(r, e.points[i])
	}
	return append(r, Point{0, 0})
}

// Polygon returns the closed two-sided nominal boundary.
func (e *Envelope) Polygon() geom.Polygon {
	return ringPolygon(e.ring())
}

func ringPolygon(ring []Point) geom.Polygon {
	pts := make([]geom.Point, len(ring))
	for i, p := range ring {
		pts[i] = geom.Point{X: p.LateralMM, Y: p.HeightMM}
	}
	return geom.Polygon{pts}
}
