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
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
)

// Factual trajectory simulation. One patient's state advances one day at a
// time: the assignment policy realizes a treatment decision, the chemo drug
// concentration decays and re-doses, and the tumour volume follows the
// stochastic logistic growth recurrence until death, recovery, or the horizon.

// chemoDecay is the one day exponential decay factor of the chemo drug
// concentration.
var chemoDecay = math.Exp(-math.Ln2 / DrugHalfLife)

// patientNoise holds the random draws for one patient, fixed before any step
// is simulated: growth residuals, recovery draws, and the two uniform action
// draws. Fixing these up front is what makes counterfactual branches
// attributable to actions alone.
type patientNoise struct {
	growth   []float64 //N(0, 0.01) growth residuals
	recovery []float64 //uniform draws for the recovery test
	chemo    []float64 //uniform draws realizing chemo application
	radio    []float64 //uniform draws realizing radio application
}

// drawPatientNoise fixes the noise arrays for one patient. noiseSteps exceeds
// steps when projections run past the factual horizon.
func drawPatientNoise(s *Source, steps, noiseSteps int) *patientNoise {
	return &patientNoise{
		growth:   s.NormalVector(noiseSteps, 0.0, noiseSigma),
		recovery: s.UniformVector(steps),
		chemo:    s.UniformVector(steps),
		radio:    s.UniformVector(steps),
	}
}

// advanceVolume applies the tumour growth recurrence for one step.
func advanceVolume(v, chemoDosage, radioDosage, noise float64, p *PatientParameters) float64 {
	return v * (1.0 +
		p.Rho*math.Log(p.K/v) -
		p.BetaC*chemoDosage -
		(p.Alpha*radioDosage + p.Beta*radioDosage*radioDosage) +
		noise)
}

// clampVolume keeps a volume inside [0, TumourDeathThreshold].
func clampVolume(v float64) float64 {
	return math.Min(math.Max(v, 0.0), TumourDeathThreshold)
}

// classifyVolume derives the terminal state from the last written volume.
func classifyVolume(v float64) Terminal {
	switch {
	case v >= TumourDeathThreshold:
		return Dead
	case v == 0.0:
		return Recovered
	default:
		return Censored
	}
}

// factualStep realizes the treatment decision and dosages for step t of a
// path, writes them into the path buffers, and returns the next tumour
// volume, unclamped. noiseIdx selects the growth residual applied to the
// outcome at t+1.
func factualStep(p *PatientParameters, path *Path, t, patient, window int, actions ActionSource,
	noise *patientNoise, noiseIdx int) float64 {
	previousDose := 0.0
	if t > 0 {
		previousDose = path.ChemoDosage[t-1]
	}
	metric := rollingMeanDiameter(path.CancerVolume, t, window)
	chemoProb, radioProb := actions(p, patient, t, metric)
	path.ChemoProbabilities[t] = chemoProb
	path.RadioProbabilities[t] = radioProb
	currentDose := 0.0
	if noise.chemo[t] < chemoProb {
		path.ChemoApplication[t] = 1.0
		currentDose = ChemoDoseAmount
	}
	if noise.radio[t] < radioProb {
		path.RadioApplication[t] = 1.0
		path.RadioDosage[t] = RadioDoseAmount
	}
	path.ChemoDosage[t] = previousDose*chemoDecay + currentDose
	return advanceVolume(path.CancerVolume[t], path.ChemoDosage[t], path.RadioDosage[t], noise.growth[noiseIdx], p)
}

// simulatePatient produces the factual path for one patient. The path stops
// advancing on death (volume clamped to the death threshold) or recovery
// (volume forced to zero); a path that reaches the horizon is censored.
func simulatePatient(p *PatientParameters, patient, numTimeSteps, window int, actions ActionSource,
	noise *patientNoise) *Path {
	path := newPath(numTimeSteps)
	path.PatientID = patient
	path.PatientType = p.PatientType
	path.CancerVolume[0] = p.InitialVolume
	path.Terminal = Censored
	path.SequenceLength = numTimeSteps
	for t := 0; t < numTimeSteps-1; t++ {
		v := factualStep(p, path, t, patient, window, actions, noise, t)
		if v > TumourDeathThreshold {
			path.CancerVolume[t+1] = TumourDeathThreshold
			path.Terminal = Dead
			path.SequenceLength = t + 2
			break
		}
		path.CancerVolume[t+1] = math.Max(v, 0.0)
		if noise.recovery[t+1] < math.Exp(-path.CancerVolume[t+1]*TumourCellDensity) {
			path.CancerVolume[t+1] = 0.0
			path.Terminal = Recovered
			path.SequenceLength = t + 2
			break
		}
	}
	return path
}

func validateRun(cohort *Cohort, numTimeSteps int) error {
	if cohort == nil || len(cohort.Patients) == 0 {
		return fmt.Errorf("%w: empty cohort", ErrInvalidConfiguration)
	}
	if numTimeSteps <= 0 {
		return fmt.Errorf("%w: numTimeSteps must be positive, got %d", ErrInvalidConfiguration, numTimeSteps)
	}
	if cohort.WindowSize <= 0 {
		return fmt.Errorf("%w: windowSize must be positive, got %d", ErrInvalidConfiguration, cohort.WindowSize)
	}
	return nil
}

// Simulate generates the factual dataset for a cohort under the given action
// source (PolicyDriven when nil). Patients are simulated in parallel; every
// patient consumes only its own random sub-stream, so the output is
// byte-identical across runs and thread counts for a fixed cohort seed.
func Simulate(cohort *Cohort, numTimeSteps int, actions ActionSource) (*Dataset, error) {
	if err := validateRun(cohort, numTimeSteps); err != nil {
		return nil, err
	}
	if actions == nil {
		actions = PolicyDriven()
	}
	fmt.Println("Simulating factual trajectories for ", len(cohort.Patients), " patients...")
	base := NewSource(cohort.Seed)
	paths := make([]*Path, len(cohort.Patients))
	parallel.Range(0, len(cohort.Patients), 0, func(low, high int) {
		for i := low; i < high; i++ {
			s := base.PatientStream(i)
			noise := drawPatientNoise(s, numTimeSteps, numTimeSteps)
			paths[i] = simulatePatient(cohort.Patients[i], i, numTimeSteps, cohort.WindowSize, actions, noise)
		}
	})
	d := newDataset(numTimeSteps)
	for _, p := range paths {
		d.appendPath(p)
	}
	return d, nil
}
