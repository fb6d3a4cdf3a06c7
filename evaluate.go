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
	"runtime"
	"sync"

	"github.com/ctessum/geom"
)

// Status is the outcome of a clearance evaluation.
type Status int

const (
	Safe Status = iota
	Intrusion
)

func (s Status) String() string {
	if s == Intrusion {
		return "INTRUSION"
	}
	return "SAFE"
}

// MarshalText implements encoding.TextMarshaler so results serialize with
// the status name rather than a bare number.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "SAFE":
		*s = Safe
	case "INTRUSION":
		*s = Intrusion
	default:
		return fmt.Errorf("clearance: invalid status %q", text)
	}
	return nil
}

// Geometry describes the track at the measurement location.
type Geometry struct {
	// RadiusM is the curve radius in meters; Straight for tangent track.
	RadiusM float64 `json:"radius_m"`
	// CantMM is the track cant (superelevation) in mm.
	CantMM float64 `json:"cant_mm"`
	// Electrification selects the envelope variant.
	Electrification Electrification `json:"electrification"`
}

// Measurement is a measured point in the original, untransformed input
// frame: signed lateral distance from track center and height above rail
// top. It is immutable input; its reported coordinates never change with
// cant — only its classification is computed against the transformed
// boundary.
type Measurement struct {
	DistanceMM float64 `json:"distance_mm"`
	HeightMM   float64 `json:"height_mm"`
}

// Result is the outcome of one evaluation. It is derived data, recomputed
// on every call; the inputs remain the source of truth.
type Result struct {
	// RequiredClearanceMM is the clearance the boundary demands at the
	// measurement height, rounded per the outcome-directed policy.
	RequiredClearanceMM float64 `json:"required_clearance_mm"`
	// MeasuredClearanceMM is the absolute lateral distance of the
	// measured point from track center.
	MeasuredClearanceMM float64 `json:"measured_clearance_mm"`
	// MarginMM is measured minus required, rounded per the
	// outcome-directed policy. Negative means intrusion.
	MarginMM float64 `json:"margin_mm"`
	Status   Status  `json:"status"`

	// Point echoes the measurement exactly as supplied; display
	// coordinates are never cant-adjusted.
	Point Measurement `json:"measurement_point"`

	// NearestVertex is the transformed boundary vertex closest to the
	// measured point, for display alongside the classification.
	NearestVertex     Point   `json:"nearest_vertex"`
	NearestDistanceMM float64 `json:"nearest_distance_mm"`
}

// Evaluator computes clearance results against one nominal envelope. It is
// stateless across calls and safe for concurrent use.
type Evaluator struct {
	envelope  *Envelope
	constants Constants
}

// NewEvaluator creates an Evaluator for the envelope and constants.
func NewEvaluator(e *Envelope, c Constants) *Evaluator {
	return &Evaluator{envelope: e, constants: c}
}

// Constants returns the formula constants in use.
func (ev *Evaluator) Constants() Constants { return ev.constants }

// Envelope returns the nominal envelope in use.
func (ev *Evaluator) Envelope() *Envelope { return ev.envelope }

// validate fails fast on out-of-domain geometry. Nothing is clamped.
func (ev *Evaluator) validate(g Geometry) error {
	c := ev.constants
	switch {
	case math.IsNaN(g.RadiusM):
		return &ValidationError{Field: "radius", Value: g.RadiusM, Reason: "not a number"}
	case g.RadiusM <= 0:
		return &ValidationError{Field: "radius", Value: g.RadiusM,
			Reason: "radius must be positive or the straight sentinel"}
	case !c.IsStraight(g.RadiusM) && g.RadiusM < c.MinRadiusM:
		return &ValidationError{Field: "radius", Value: g.RadiusM,
			Reason: fmt.Sprintf("below the %g m minimum the widening formulas are validated for", c.MinRadiusM)}
	}
	if math.IsNaN(g.CantMM) || g.CantMM < 0 {
		return &ValidationError{Field: "cant", Value: g.CantMM, Reason: "cant must be non-negative"}
	}
	switch g.Electrification {
	case DC, AC, NonElectrified:
	default:
		return &ValidationError{Field: "electrification", Value: float64(g.Electrification),
			Reason: "unknown electrification class"}
	}
	return nil
}

// TransformedBoundary returns the widened and cant-rotated boundary for
// the geometry, for callers (such as a plotting layer) that draw the
// envelope without re-deriving the transform.
func (ev *Evaluator) TransformedBoundary(g Geometry) (*Boundary, error) {
	if err := ev.validate(g); err != nil {
		return nil, err
	}
	env := ev.envelope.ForElectrification(g.Electrification, ev.constants)
	return TransformBoundary(env, ev.constants, g.RadiusM, g.CantMM), nil
}

// Evaluate computes whether the measured point clears the building
// clearance envelope under the given track geometry.
//
// The evaluation proceeds validate → widen → rotate → interpolate →
// classify. Classification uses the raw margin; rounding of the reported
// values is a separate step branched on the outcome, and always biases
// toward reporting the worse case.
func (ev *Evaluator) Evaluate(g Geometry, m Measurement) (*Result, error) {
	if err := ev.validate(g); err != nil {
		return nil, err
	}
	if math.IsNaN(m.HeightMM) || m.HeightMM < 0 {
		return nil, &ValidationError{Field: "height", Value: m.HeightMM,
			Reason: "measurement height must be non-negative"}
	}
	if math.IsNaN(m.DistanceMM) {
		return nil, &ValidationError{Field: "distance", Value: m.DistanceMM, Reason: "not a number"}
	}

	env := ev.envelope.ForElectrification(g.Electrification, ev.constants)
	b := TransformBoundary(env, ev.constants, g.RadiusM, g.CantMM)

	required, err := b.RequiredAt(m.HeightMM, SideOf(m.DistanceMM))
	if err != nil {
		return nil, err
	}

	measured := math.Abs(m.DistanceMM)
	margin := measured - required

	status := Safe
	if margin < 0 {
		status = Intrusion
	} else if in := (geom.Point{X: m.DistanceMM, Y: m.HeightMM}).Within(b.Polygon()); in == geom.Inside {
		// Containment backstop: a point enclosed by the transformed
		// boundary intrudes even if the single-height interpolation
		// left it a margin.
		status = Intrusion
	}

	nearest, nearestDist := b.NearestVertex(m.DistanceMM, m.HeightMM)

	r := &Result{
		MeasuredClearanceMM: measured,
		Status:              status,
		Point:               m,
		NearestVertex:       nearest,
		NearestDistanceMM:   nearestDist,
	}

	// Rounding is asymmetric by outcome: report the worse case, never
	// round a borderline intrusion into safety. The required clearance
	// is never understated in either outcome.
	r.RequiredClearanceMM = math.Ceil(required)
	if status == Intrusion {
		deficit := math.Ceil(-margin) // intrusion depth, rounded up
		r.MarginMM = -deficit
	} else {
		r.MarginMM = math.Floor(margin)
	}
	return r, nil
}

// BatchResult pairs one batch measurement with its result or error.
type BatchResult struct {
	Measurement Measurement
	Result      *Result
	Err         error
}

// EvaluateBatch evaluates many measurements against one track geometry in
// parallel. Results are returned in input order; a failed measurement
// carries its error and does not disturb the others.
func (ev *Evaluator) EvaluateBatch(g Geometry, measurements []Measurement) []BatchResult {
	out := make([]BatchResult, len(measurements))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for procNum := 0; procNum < nprocs; procNum++ {
		go func(procNum int) {
			defer wg.Done()
			for i := procNum; i < len(measurements); i += nprocs {
				r, err := ev.Evaluate(g, measurements[i])
				out[i] = BatchResult{Measurement: measurements[i], Result: r, Err: err}
			}
		}(procNum)
	}
	wg.Wait()
	return out
}
