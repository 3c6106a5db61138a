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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScalingStatistics(t *testing.T) {
	d := &Dataset{
		NumTimeSteps:    4,
		CancerVolume:    [][]float64{{1, 2, 3, 9}, {4, 5, 9, 9}},
		ChemoDosage:     [][]float64{{2, 2, 2, 9}, {2, 2, 9, 9}},
		RadioDosage:     [][]float64{{0, 2, 0, 9}, {2, 0, 9, 9}},
		SequenceLengths: []int{3, 2},
		PatientTypes:    []int{1, 3},
	}
	stats, err := ComputeScalingStatistics(d)
	require.NoError(t, err)
	// Padded entries beyond the sequence lengths never contribute.
	assert.InDelta(t, 3.0, stats.Means["cancer_volume"], 1e-12)
	assert.InDelta(t, math.Sqrt(2.0), stats.Stds["cancer_volume"], 1e-12)
	assert.InDelta(t, 2.0, stats.Means["chemo_dosage"], 1e-12)
	assert.InDelta(t, 0.0, stats.Stds["chemo_dosage"], 1e-12)
	assert.InDelta(t, 0.8, stats.Means["radio_dosage"], 1e-12)
	assert.InDelta(t, 2.0, stats.Means["patient_types"], 1e-12)
	assert.InDelta(t, 1.0, stats.Stds["patient_types"], 1e-12)
}

func TestScalingStatisticsOnSimulatedData(t *testing.T) {
	cohort, err := SampleCohort(20, 10.0, 10.0, 15, 13)
	require.NoError(t, err)
	d, err := Simulate(cohort, 15, nil)
	require.NoError(t, err)
	stats, err := ComputeScalingStatistics(d)
	require.NoError(t, err)
	for _, k := range []string{"cancer_volume", "chemo_dosage", "radio_dosage", "patient_types"} {
		assert.False(t, math.IsNaN(stats.Means[k]))
		assert.GreaterOrEqual(t, stats.Stds[k], 0.0)
	}
	assert.Greater(t, stats.Means["cancer_volume"], 0.0)
	assert.GreaterOrEqual(t, stats.Means["patient_types"], 1.0)
	assert.LessOrEqual(t, stats.Means["patient_types"], 3.0)
}
