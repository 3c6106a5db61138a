// CASIM: Cancer Treatment Simulation Library
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/casim/blob/master/LICENSE.txt>.

package utils

import (
	"log"
	"math"
)

// Spherical calculations. Tumours are assumed to be spherical per Winer-Muram
// et al 2002, so measured diameters (cm) convert to volumes (cm^3) and back.

// SphereVolume computes the volume of a sphere with the given diameter.
func SphereVolume(diameter float64) float64 {
	if diameter < 0.0 {
		log.Panic("Error: sphere diameter must be non-negative: ", diameter)
	}
	r := diameter / 2.0
	return 4.0 / 3.0 * math.Pi * r * r * r
}

// SphereDiameter converts a sphere volume back to its diameter.
func SphereDiameter(volume float64) float64 {
	if volume < 0.0 {
		log.Panic("Error: sphere volume must be non-negative: ", volume)
	}
	return 2.0 * math.Cbrt(volume/(4.0/3.0*math.Pi))
}

// MinInt returns the smallest of two ints.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MaxInt returns the largest of two ints.
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
