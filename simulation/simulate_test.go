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
	"math"
	"testing"

	"casim/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// growthPatient returns parameters for an untreated patient with a 2 cm
// initial tumour growing at the mean rate.
func growthPatient() *PatientParameters {
	return &PatientParameters{
		Stage:         StageI,
		PatientType:   1,
		InitialVolume: utils.SphereVolume(2.0),
		Alpha:         0.0398,
		Beta:          0.00398,
		BetaC:         0.028,
		Rho:           7e-5,
		K:             CarryingCapacity,
	}
}

// silentNoise returns noise draws that trigger no treatment, no recovery, and
// no growth variability.
func silentNoise(steps int) *patientNoise {
	noise := &patientNoise{
		growth:   make([]float64, steps),
		recovery: make([]float64, steps),
		chemo:    make([]float64, steps),
		radio:    make([]float64, steps),
	}
	for i := 0; i < steps; i++ {
		noise.recovery[i] = 1.0
		noise.chemo[i] = 1.0
		noise.radio[i] = 1.0
	}
	return noise
}

// neverTreat assigns zero probability to both treatments at every step.
func neverTreat(_ *PatientParameters, _, _ int, _ float64) (float64, float64) {
	return 0.0, 0.0
}

func TestUntreatedGrowth(t *testing.T) {
	// With noise silenced and no treatment, the recurrence reduces to
	// deterministic logistic growth.
	want := []float64{
		4.1887902047863905,
		4.191172330159245,
		4.193555643428087,
		4.195940145090441,
		4.198325835643991,
		4.2007127155865795,
	}
	path := simulatePatient(growthPatient(), 0, len(want), 15, neverTreat, silentNoise(len(want)))
	require.Equal(t, Censored, path.Terminal)
	require.Equal(t, len(want), path.SequenceLength)
	for i, w := range want {
		assert.InDelta(t, w, path.CancerVolume[i], 1e-9)
	}
}

func TestChemoDosageDecay(t *testing.T) {
	// A single chemo administration at step 0, then exponential decay with a
	// one day half life.
	steps := 6
	probabilities := make([][2]float64, steps)
	probabilities[0] = [2]float64{1.0, 0.0}
	actions := ExternallyAssigned([][][2]float64{probabilities})
	noise := silentNoise(steps)
	for i := range noise.chemo {
		noise.chemo[i] = 0.5
	}
	path := simulatePatient(growthPatient(), 0, steps, 15, actions, noise)
	assert.Equal(t, 1.0, path.ChemoApplication[0])
	assert.Equal(t, ChemoDoseAmount, path.ChemoDosage[0])
	for k := 1; k < steps-1; k++ {
		assert.Equal(t, 0.0, path.ChemoApplication[k])
		assert.InDelta(t, ChemoDoseAmount*math.Pow(0.5, float64(k)), path.ChemoDosage[k], 1e-12)
	}
	assert.Equal(t, 0.0, path.RadioDosage[0])
}

func TestRadioDosage(t *testing.T) {
	steps := 4
	probabilities := make([][2]float64, steps)
	probabilities[1] = [2]float64{0.0, 1.0}
	actions := ExternallyAssigned([][][2]float64{probabilities})
	noise := silentNoise(steps)
	for i := range noise.radio {
		noise.radio[i] = 0.5
	}
	path := simulatePatient(growthPatient(), 0, steps, 15, actions, noise)
	assert.Equal(t, 0.0, path.RadioDosage[0])
	assert.Equal(t, RadioDoseAmount, path.RadioDosage[1])
	assert.Equal(t, 1.0, path.RadioApplication[1])
	// Radio dosage does not accumulate across steps.
	assert.Equal(t, 0.0, path.RadioDosage[2])
}

func TestDeathAbsorption(t *testing.T) {
	// A tumour just below the death threshold with strong growth noise
	// crosses the threshold at the first step.
	p := growthPatient()
	p.InitialVolume = TumourDeathThreshold - 1.0
	noise := silentNoise(6)
	noise.growth[0] = 0.5
	path := simulatePatient(p, 0, 6, 15, neverTreat, noise)
	require.Equal(t, Dead, path.Terminal)
	require.Equal(t, 2, path.SequenceLength)
	assert.Equal(t, TumourDeathThreshold, path.CancerVolume[1])
	for i := 2; i < 6; i++ {
		assert.Equal(t, 0.0, path.CancerVolume[i])
		assert.Equal(t, 0.0, path.ChemoDosage[i])
		assert.Equal(t, 0.0, path.ChemoProbabilities[i])
	}
}

func TestRecoveryAbsorption(t *testing.T) {
	// A negative growth shock pushes the volume to zero; the clamped volume
	// passes the recovery test with certainty.
	p := growthPatient()
	noise := silentNoise(6)
	noise.growth[2] = -2.0
	noise.recovery[3] = 0.5
	path := simulatePatient(p, 0, 6, 15, neverTreat, noise)
	require.Equal(t, Recovered, path.Terminal)
	require.Equal(t, 4, path.SequenceLength)
	assert.Equal(t, 0.0, path.CancerVolume[3])
	for i := 4; i < 6; i++ {
		assert.Equal(t, 0.0, path.CancerVolume[i])
	}
}

func TestSimulateDeterministic(t *testing.T) {
	cohort, err := SampleCohort(50, 10.0, 10.0, 15, 11)
	require.NoError(t, err)
	d1, err := Simulate(cohort, 20, nil)
	require.NoError(t, err)
	d2, err := Simulate(cohort, 20, nil)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestSimulateShape(t *testing.T) {
	cohort, err := SampleCohort(30, 10.0, 10.0, 15, 3)
	require.NoError(t, err)
	d, err := Simulate(cohort, 25, nil)
	require.NoError(t, err)
	require.Equal(t, 30, d.NumRows())
	require.Equal(t, 25, d.NumTimeSteps)
	for i := 0; i < d.NumRows(); i++ {
		require.Len(t, d.CancerVolume[i], 25)
		seqLen := d.SequenceLengths[i]
		assert.GreaterOrEqual(t, seqLen, 2)
		assert.LessOrEqual(t, seqLen, 25)
		assert.Equal(t, -1, d.PatientCurrentT[i])
		assert.Equal(t, i, d.PatientIDs[i])
		for s := 0; s < seqLen; s++ {
			v := d.CancerVolume[i][s]
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, TumourDeathThreshold)
		}
		for s := seqLen; s < 25; s++ {
			assert.Equal(t, 0.0, d.CancerVolume[i][s])
			assert.Equal(t, 0.0, d.ChemoDosage[i][s])
			assert.Equal(t, 0.0, d.RadioDosage[i][s])
		}
		if d.Terminals[i] == Censored {
			assert.Equal(t, 25, seqLen)
		}
	}
}

func TestUnconfoundedPolicyIsCoinFlip(t *testing.T) {
	// With zero confounding coefficients, the sigmoid slope vanishes and both
	// treatments are assigned with probability one half at every step.
	cohort, err := SampleCohort(20, 0.0, 0.0, 15, 5)
	require.NoError(t, err)
	d, err := Simulate(cohort, 15, nil)
	require.NoError(t, err)
	for i := 0; i < d.NumRows(); i++ {
		for s := 0; s < d.SequenceLengths[i]-1; s++ {
			assert.Equal(t, 0.5, d.ChemoProbabilities[i][s])
			assert.Equal(t, 0.5, d.RadioProbabilities[i][s])
		}
	}
}

func TestSimulateInvalidConfiguration(t *testing.T) {
	cohort, err := SampleCohort(5, 10.0, 10.0, 15, 1)
	require.NoError(t, err)
	_, err = Simulate(cohort, 0, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = Simulate(nil, 10, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = Simulate(&Cohort{WindowSize: 15}, 10, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestRollingMeanDiameter(t *testing.T) {
	volumes := []float64{
		utils.SphereVolume(2.0),
		utils.SphereVolume(4.0),
		utils.SphereVolume(6.0),
	}
	assert.InDelta(t, 2.0, rollingMeanDiameter(volumes, 0, 15), 1e-12)
	assert.InDelta(t, 3.0, rollingMeanDiameter(volumes, 1, 15), 1e-12)
	assert.InDelta(t, 4.0, rollingMeanDiameter(volumes, 2, 15), 1e-12)
	// A window of one step back averages the current and previous entries.
	assert.InDelta(t, 5.0, rollingMeanDiameter(volumes, 2, 1), 1e-12)
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(1.0, 6.5, 6.5))
	assert.Greater(t, sigmoid(1.0, 10.0, 6.5), 0.5)
	assert.Less(t, sigmoid(1.0, 3.0, 6.5), 0.5)
	assert.Equal(t, 0.5, sigmoid(0.0, 12.0, 6.5))
}
