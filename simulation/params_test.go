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
	"errors"
	"testing"

	"casim/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCohortParameters(t *testing.T) {
	cohort, err := SampleCohort(200, 10.0, 5.0, 15, 42)
	require.NoError(t, err)
	require.Len(t, cohort.Patients, 200)
	dMax := utils.SphereDiameter(TumourDeathThreshold)
	minVolume := utils.SphereVolume(0.3)
	for _, p := range cohort.Patients {
		assert.GreaterOrEqual(t, p.PatientType, 1)
		assert.LessOrEqual(t, p.PatientType, 3)
		assert.GreaterOrEqual(t, p.Stage, StageI)
		assert.LessOrEqual(t, p.Stage, StageIV)
		assert.GreaterOrEqual(t, p.InitialVolume, minVolume)
		assert.LessOrEqual(t, p.InitialVolume, TumourDeathThreshold)
		assert.Greater(t, p.Alpha, 0.0)
		assert.Greater(t, p.Rho, 0.0)
		assert.Greater(t, p.BetaC, 0.0)
		assert.Equal(t, p.Alpha/10.0, p.Beta)
		assert.Equal(t, CarryingCapacity, p.K)
		assert.Equal(t, dMax/2.0, p.ChemoSigmoidIntercept)
		assert.Equal(t, dMax/2.0, p.RadioSigmoidIntercept)
		assert.Equal(t, 10.0/dMax, p.ChemoSigmoidBeta)
		assert.Equal(t, 5.0/dMax, p.RadioSigmoidBeta)
	}
}

func TestSampleCohortStageBounds(t *testing.T) {
	// Stage I diameters are capped at 5 cm, all other stages at the 13 cm
	// death threshold.
	cohort, err := SampleCohort(500, 10.0, 10.0, 15, 7)
	require.NoError(t, err)
	for _, p := range cohort.Patients {
		if p.Stage == StageI {
			assert.LessOrEqual(t, p.InitialVolume, utils.SphereVolume(5.0))
		}
	}
}

func TestSampleCohortDeterministic(t *testing.T) {
	cohort1, err := SampleCohort(100, 10.0, 10.0, 15, 123)
	require.NoError(t, err)
	cohort2, err := SampleCohort(100, 10.0, 10.0, 15, 123)
	require.NoError(t, err)
	require.Equal(t, cohort1, cohort2)
	cohort3, err := SampleCohort(100, 10.0, 10.0, 15, 124)
	require.NoError(t, err)
	assert.NotEqual(t, cohort1.Patients[0].InitialVolume, cohort3.Patients[0].InitialVolume)
}

func TestSampleCohortInvalidConfiguration(t *testing.T) {
	_, err := SampleCohort(0, 10.0, 10.0, 15, 1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = SampleCohort(-5, 10.0, 10.0, 15, 1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = SampleCohort(10, 10.0, 10.0, 0, 1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestSampleStageCounts(t *testing.T) {
	s := NewSource(1)
	counts := sampleStageCounts(s, 1000)
	total := 0
	for _, c := range counts {
		total += c
	}
	require.Equal(t, 1000, total)
	// Stage IV dominates the observation table with over half the mass.
	assert.Greater(t, counts[StageIV], counts[StageI])
	assert.Greater(t, counts[StageIV], counts[StageII])
}

func TestParseStage(t *testing.T) {
	for _, stage := range []Stage{StageI, StageII, StageIIIA, StageIIIB, StageIV} {
		parsed, ok := ParseStage(stage.String())
		assert.True(t, ok)
		assert.Equal(t, stage, parsed)
	}
	_, ok := ParseStage("V")
	assert.False(t, ok)
}

func TestPatientFilters(t *testing.T) {
	cohort, err := SampleCohort(300, 10.0, 10.0, 15, 9)
	require.NoError(t, err)
	filtered := ApplyPatientFilters(cohort, []PatientFilter{StageFilter(StageIV)})
	require.Greater(t, len(filtered.Patients), 0)
	for _, p := range filtered.Patients {
		assert.Equal(t, StageIV, p.Stage)
	}
	assert.Equal(t, cohort.WindowSize, filtered.WindowSize)
	assert.Equal(t, cohort.Seed, filtered.Seed)
	filtered = ApplyPatientFilters(cohort, []PatientFilter{PatientTypeFilter(2)})
	for _, p := range filtered.Patients {
		assert.Equal(t, 2, p.PatientType)
	}
	early := ApplyPatientFilters(cohort, []PatientFilter{EarlyStageFilter()})
	advanced := ApplyPatientFilters(cohort, []PatientFilter{AdvancedStageFilter()})
	assert.Equal(t, len(cohort.Patients), len(early.Patients)+len(advanced.Patients))
	identity := ApplyPatientFilters(cohort, nil)
	assert.Equal(t, len(cohort.Patients), len(identity.Patients))
}
