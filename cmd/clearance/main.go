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

// Command clearance is a command-line interface for the building
// clearance simulator.
package main

import (
	"fmt"
	"os"

	"github.com/horiuchi-bell/building-clearance-simulator/clearanceutil"
)

func main() {
	if err := clearanceutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
