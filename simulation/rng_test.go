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

package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
)

func TestSourceDeterministic(t *testing.T) {
	s1 := NewSource(42)
	s2 := NewSource(42)
	assert.Equal(t, s1.UniformVector(100), s2.UniformVector(100))
	assert.Equal(t, s1.NormalVector(100, 0.0, 1.0), s2.NormalVector(100, 0.0, 1.0))
}

func TestPatientStreamsIndependentOfDrawOrder(t *testing.T) {
	// A patient's sub-stream must not depend on how many draws the cohort
	// stream or other patients consumed before it is created.
	s1 := NewSource(7)
	s1.UniformVector(1000)
	s2 := NewSource(7)
	assert.Equal(t, s1.PatientStream(3).UniformVector(10), s2.PatientStream(3).UniformVector(10))
	assert.NotEqual(t, s2.PatientStream(3).UniformVector(10), s2.PatientStream(4).UniformVector(10))
}

func TestTruncNormalBounds(t *testing.T) {
	s := NewSource(1)
	for i := 0; i < 1000; i++ {
		x := s.TruncNormal(-0.5, 2.0)
		assert.GreaterOrEqual(t, x, -0.5)
		assert.LessOrEqual(t, x, 2.0)
	}
}

func TestBivariateNormal(t *testing.T) {
	s := NewSource(1)
	cov := mat.NewSymDense(2, []float64{1.0, 0.9, 0.9, 1.0})
	draws, err := s.BivariateNormal([]float64{0.0, 0.0}, cov, 5000)
	require.NoError(t, err)
	require.Len(t, draws, 5000)
	// With correlation 0.9, the components rarely disagree in sign.
	agreeing := 0
	for _, d := range draws {
		if (d[0] > 0.0) == (d[1] > 0.0) {
			agreeing++
		}
	}
	assert.Greater(t, agreeing, 4000)
}
