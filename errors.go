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

import "fmt"

// ValidationError reports an input that is outside the domain of the
// calculation, such as a non-positive radius or a negative cant.
// Evaluation is aborted; no partial result is returned.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("clearance: invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

// OutOfRangeError reports a query height outside the span covered by the
// clearance boundary. The engine does not extrapolate beyond the table.
type OutOfRangeError struct {
	HeightMM    float64
	MinHeightMM float64
	MaxHeightMM float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("clearance: height %g mm is outside the boundary span [%g, %g] mm",
		e.HeightMM, e.MinHeightMM, e.MaxHeightMM)
}

// DataIntegrityError reports a malformed envelope table. It is a
// data-source problem: the engine detects it but does not repair it.
type DataIntegrityError struct {
	Index  int
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("clearance: envelope table point %d: %s", e.Index, e.Reason)
}
