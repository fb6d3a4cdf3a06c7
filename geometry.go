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
	"math"

	"github.com/ctessum/geom"
)

// Straight is the sentinel radius for tangent (straight) track.
var Straight = math.Inf(1)

// SlackBand is one band of the slack-by-radius step table. A radius
// matches the first band whose upper bound it is below (or equal to, for
// inclusive bands); radii beyond the last band take zero slack.
type SlackBand struct {
	UpperRadiusM float64
	Inclusive    bool
	SlackMM      float64
}

// HeightAdjustment raises every profile point at or above AboveHeightMM by
// RaiseMM. It expresses an electrification class's envelope variant.
type HeightAdjustment struct {
	AboveHeightMM float64
	RaiseMM       float64
}

// Constants holds the named formula constants of the operator's technical
// code. They are loaded once at startup; the widening and rotation
// formulas share them so the two cannot drift apart.
type Constants struct {
	// GaugeMM is the track gauge, the lever arm of the cant rotation.
	GaugeMM float64
	// BodyWideningNumerator is the numerator of the general-body curve
	// widening W = numerator / R.
	BodyWideningNumerator float64
	// UpperWideningNumerator is the numerator of the upper-body curve
	// widening W' = numerator / R, applied at and above
	// UpperBodyHeightMM.
	UpperWideningNumerator float64
	// UpperBodyHeightMM separates the general body from the raised upper
	// clearance region. It sits above the standard roof, so the upper
	// widening binds only on envelope variants with a raised top.
	UpperBodyHeightMM float64
	// StraightRadiusM is the radius beyond which track is treated as
	// straight.
	StraightRadiusM float64
	// MinRadiusM is the smallest radius the widening formulas are
	// validated for. Smaller radii are reported, not clamped.
	MinRadiusM float64

	SlackTable                 []SlackBand
	ElectrificationAdjustments map[Electrification]HeightAdjustment
}

// DefaultConstants returns the constants of the operator's standard
// narrow-gauge structure gauge.
func DefaultConstants() Constants {
	return Constants{
		GaugeMM:                1067,
		BodyWideningNumerator:  23100,
		UpperWideningNumerator: 11550,
		UpperBodyHeightMM:      5200,
		StraightRadiusM:        10000,
		MinRadiusM:             100,
		SlackTable: []SlackBand{
			{UpperRadiusM: 200, SlackMM: 20},
			{UpperRadiusM: 240, SlackMM: 15},
			{UpperRadiusM: 320, SlackMM: 10},
			{UpperRadiusM: 440, Inclusive: true, SlackMM: 5},
		},
		ElectrificationAdjustments: map[Electrification]HeightAdjustment{
			AC: {AboveHeightMM: 5000, RaiseMM: 1000},
		},
	}
}

// IsStraight reports whether the radius counts as tangent track.
func (c Constants) IsStraight(radiusM float64) bool {
	return math.IsInf(radiusM, 1) || radiusM > c.StraightRadiusM
}

// Widening returns the general-body curve widening W in mm.
func (c Constants) Widening(radiusM float64) float64 {
	if c.IsStraight(radiusM) {
		return 0
	}
	return c.BodyWideningNumerator / radiusM
}

// UpperWidening returns the upper-body curve widening W' in mm.
func (c Constants) UpperWidening(radiusM float64) float64 {
	if c.IsStraight(radiusM) {
		return 0
	}
	return c.UpperWideningNumerator / radiusM
}

// wideningAt picks the widening for a profile point by its height.
func (c Constants) wideningAt(radiusM, heightMM float64) float64 {
	if heightMM >= c.UpperBodyHeightMM {
		return c.UpperWidening(radiusM)
	}
	return c.Widening(radiusM)
}

// Slack returns the track slack in mm for the radius, from the band table.
func (c Constants) Slack(radiusM float64) float64 {
	if c.IsStraight(radiusM) {
		return 0
	}
	for _, b := range c.SlackTable {
		if radiusM < b.UpperRadiusM || (b.Inclusive && radiusM == b.UpperRadiusM) {
			return b.SlackMM
		}
	}
	return 0
}

// CantAngle returns the rotation angle θ = atan(cant/gauge) in radians.
func (c Constants) CantAngle(cantMM float64) float64 {
	return math.Atan(cantMM / c.GaugeMM)
}

// rotate applies the operator's cant displacement to a boundary point:
//
//	L' = l − (m − m·cosθ)
//	H' = h − (l·cosθ − m·sinθ)
//
// with the moment arm m equal to the point height. Zero cant is the
// identity, exactly; the displacement formula does not reduce to it.
func rotate(p Point, theta float64) Point {
	if theta == 0 {
		return p
	}
	cos, sin := math.Cos(theta), math.Sin(theta)
	return Point{
		LateralMM: p.LateralMM - (p.HeightMM - p.HeightMM*cos),
		HeightMM:  p.HeightMM - (p.LateralMM*cos - p.HeightMM*sin),
	}
}

// unrotate inverts rotate. The displacement is linear but not orthogonal,
// so the inverse is the solved 2x2 system rather than a rotation by −θ.
func unrotate(p Point, theta float64) Point {
	if theta == 0 {
		return p
	}
	cos, sin := math.Cos(theta), math.Sin(theta)
	// rotate is [L';H'] = [[1, −(1−cosθ)], [−cosθ, 1+sinθ]] [l;h].
	a, b := 1.0, -(1 - cos)
	c, d := -cos, 1+sin
	det := a*d - b*c
	return Point{
		LateralMM: (d*p.LateralMM - b*p.HeightMM) / det,
		HeightMM:  (a*p.HeightMM - c*p.LateralMM) / det,
	}
}

// Boundary is an effective (widened, slacked, and cant-rotated) clearance
// boundary: the closed two-sided vertex sequence in evaluation order. It
// is independent of the envelope it was derived from.
type Boundary struct {
	points []Point
}

// TransformBoundary produces the effective boundary for the given curve
// radius and cant. The nominal envelope is never mutated, so one envelope
// can be re-evaluated under many geometries.
//
// Widening moves each side outward (the upper-body numerator applies at
// and above the configured threshold height), slack adds half per side,
// and the cant displacement rotates every widened vertex. Points on the
// track center line take neither widening nor slack.
func TransformBoundary(e *Envelope, c Constants, radiusM, cantMM float64) *Boundary {
	slack := c.Slack(radiusM)
	theta := 0.0
	if cantMM != 0 {
		theta = c.CantAngle(cantMM)
	}

	ring := e.ring()
	out := make([]Point, len(ring))
	for i, p := range ring {
		w := c.wideningAt(radiusM, p.HeightMM)
		widened := p
		switch {
		case p.LateralMM > 0:
			widened.LateralMM += w
		case p.LateralMM < 0:
			widened.LateralMM -= w
		}
		r := rotate(widened, theta)
		switch {
		case p.LateralMM > 0:
			r.LateralMM += slack / 2
		case p.LateralMM < 0:
			r.LateralMM -= slack / 2
		}
		out[i] = r
	}
	return &Boundary{points: out}
}

// Points returns a copy of the boundary vertices.
func (b *Boundary) Points() []Point {
	o := make([]Point, len(b.points))
	copy(o, b.points)
	return o
}

// heightSpan returns the lowest and highest vertex heights.
func (b *Boundary) heightSpan() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range b.points {
		min = math.Min(min, p.HeightMM)
		max = math.Max(max, p.HeightMM)
	}
	return min, max
}

// RequiredAt returns the required lateral clearance at the given height on
// the given side: the smallest absolute lateral distance at which any
// boundary edge crosses the height on that side. A height no edge crosses
// is outside the boundary span and returns an OutOfRangeError.
func (b *Boundary) RequiredAt(heightMM float64, side Side) (float64, error) {
	sign := side.sign()
	required := math.Inf(1)
	n := len(b.points)
	for i := 0; i < n; i++ {
		p1, p2 := b.points[i], b.points[(i+1)%n]
		if p1.HeightMM == p2.HeightMM {
			continue
		}
		if heightMM < math.Min(p1.HeightMM, p2.HeightMM) ||
			heightMM > math.Max(p1.HeightMM, p2.HeightMM) {
			continue
		}
		t := (heightMM - p1.HeightMM) / (p2.HeightMM - p1.HeightMM)
		lateral := p1.LateralMM + t*(p2.LateralMM-p1.LateralMM)
		if sign*lateral > 0 {
			required = math.Min(required, sign*lateral)
		}
	}
	if math.IsInf(required, 1) {
		min, max := b.heightSpan()
		return 0, &OutOfRangeError{HeightMM: heightMM, MinHeightMM: min, MaxHeightMM: max}
	}
	return required, nil
}

// NearestVertex returns the boundary vertex closest to the given position
// and the distance to it in mm.
func (b *Boundary) NearestVertex(lateralMM, heightMM float64) (Point, float64) {
	nearest := b.points[0]
	min := math.Inf(1)
	for _, p := range b.points {
		d := math.Hypot(p.LateralMM-lateralMM, p.HeightMM-heightMM)
		if d < min {
			min = d
			nearest = p
		}
	}
	return nearest, min
}

// Polygon returns the boundary as a closed polygon for containment tests
// and plotting.
func (b *Boundary) Polygon() geom.Polygon {
	return ringPolygon(b.points)
}
