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

// Counterfactual branching. Both branchers replay the factual recurrence and
// derive divergent rows that reuse the factual prefix and the factual noise,
// so that any difference between sibling rows is attributable to actions
// alone, never to independently redrawn randomness. Noise arrays are fixed
// once per patient before the first branch is produced.

// logGuard keeps the growth logarithm defined when a projected volume
// collapses towards zero.
const logGuard = 1e-7

// treatmentPairs enumerates the possible (chemo, radio) action combinations.
var treatmentPairs = [4][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}

// ActionSequence is a fixed length list of (chemo, radio) treatment decisions
// applied over a projection horizon.
type ActionSequence [][2]float64

// SimulateCounterfactuals generates the single decision point counterfactual
// dataset for a cohort. At every factual time step, the factual prefix is
// emitted as a row together with one row per alternative treatment
// combination, each diverging only at that step. Factual actions follow the
// given action source (PolicyDriven when nil).
func SimulateCounterfactuals(cohort *Cohort, numTimeSteps int, actions ActionSource) (*Dataset, error) {
	if err := validateRun(cohort, numTimeSteps); err != nil {
		return nil, err
	}
	if actions == nil {
		actions = PolicyDriven()
	}
	fmt.Println("Simulating single step counterfactuals for ", len(cohort.Patients), " patients...")
	base := NewSource(cohort.Seed)
	result := parallel.RangeReduce(0, len(cohort.Patients), 0, func(low, high int) interface{} {
		rows := []*Path{}
		for i := low; i < high; i++ {
			s := base.PatientStream(i)
			noise := drawPatientNoise(s, numTimeSteps, numTimeSteps)
			rows = append(rows, branchPatient(cohort.Patients[i], i, numTimeSteps, cohort.WindowSize, actions, noise)...)
		}
		return rows
	}, func(result1, result2 interface{}) interface{} {
		return append(result1.([]*Path), result2.([]*Path)...)
	})
	d := newDataset(numTimeSteps)
	for _, p := range result.([]*Path) {
		d.appendPath(p)
	}
	fmt.Println("Collected ", d.NumRows(), " counterfactual rows.")
	return d, nil
}

// branchPatient replays one patient's factual path and, at every decision
// step, emits the factual prefix row plus one row per alternative treatment
// combination. Branching stops once the factual path absorbs.
func branchPatient(p *PatientParameters, patient, numTimeSteps, window int, actions ActionSource,
	noise *patientNoise) []*Path {
	factual := newPath(numTimeSteps)
	factual.CancerVolume[0] = p.InitialVolume
	rows := []*Path{}
	for t := 0; t < numTimeSteps-1; t++ {
		previousDose := 0.0
		if t > 0 {
			previousDose = factual.ChemoDosage[t-1]
		}
		v := factualStep(p, factual, t, patient, window, actions, noise, t+1)
		factual.CancerVolume[t+1] = clampVolume(v)
		rows = append(rows, prefixRow(factual, p, patient, t, numTimeSteps))
		for _, pair := range treatmentPairs {
			if pair[0] == factual.ChemoApplication[t] && pair[1] == factual.RadioApplication[t] {
				continue
			}
			rows = append(rows, branchRow(factual, p, patient, t, numTimeSteps, previousDose, pair, noise.growth[t+1]))
		}
		// The stopping test reuses the recovery draw at t, one index behind
		// the volume it gates.
		if factual.CancerVolume[t+1] >= TumourDeathThreshold ||
			noise.recovery[t] <= math.Exp(-factual.CancerVolume[t+1]*TumourCellDensity) {
			break
		}
	}
	return rows
}

// prefixRow copies the factual path up to and including the outcome at t+1
// into an independent row of the given width.
func prefixRow(factual *Path, p *PatientParameters, patient, t, width int) *Path {
	row := newPath(width)
	copy(row.CancerVolume, factual.CancerVolume[:t+2])
	copy(row.ChemoDosage, factual.ChemoDosage[:t+1])
	copy(row.RadioDosage, factual.RadioDosage[:t+1])
	copy(row.ChemoApplication, factual.ChemoApplication[:t+1])
	copy(row.RadioApplication, factual.RadioApplication[:t+1])
	copy(row.ChemoProbabilities, factual.ChemoProbabilities[:t+1])
	copy(row.RadioProbabilities, factual.RadioProbabilities[:t+1])
	row.SequenceLength = t + 2
	row.Terminal = classifyVolume(factual.CancerVolume[t+1])
	row.PatientID = patient
	row.PatientType = p.PatientType
	row.DecisionStep = t
	return row
}

// branchRow computes a one step divergence from the factual path at decision
// step t under a forced treatment pair, from the same volume and with the
// same growth residual the factual outcome used.
func branchRow(factual *Path, p *PatientParameters, patient, t, width int, previousDose float64,
	pair [2]float64, growthNoise float64) *Path {
	row := prefixRow(factual, p, patient, t, width)
	currentDose := 0.0
	radioDosage := 0.0
	if pair[0] == 1.0 {
		currentDose = ChemoDoseAmount
	}
	if pair[1] == 1.0 {
		radioDosage = RadioDoseAmount
	}
	row.ChemoApplication[t] = pair[0]
	row.RadioApplication[t] = pair[1]
	row.ChemoDosage[t] = previousDose*chemoDecay + currentDose
	row.RadioDosage[t] = radioDosage
	v := advanceVolume(factual.CancerVolume[t], row.ChemoDosage[t], radioDosage, growthNoise, p)
	row.CancerVolume[t+1] = clampVolume(v)
	row.Terminal = classifyVolume(row.CancerVolume[t+1])
	return row
}

// SimulateSequences generates the multi step horizon counterfactual dataset
// for a cohort. At every factual decision step, each action sequence is
// projected over the horizon from the factual prefix. Rows are
// numTimeSteps+horizon wide; projections with a non-finite volume are
// discarded without emitting a row.
func SimulateSequences(cohort *Cohort, numTimeSteps, horizon int, options []ActionSequence,
	actions ActionSource) (*Dataset, error) {
	if err := validateRun(cohort, numTimeSteps); err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: projection horizon must be positive, got %d", ErrInvalidConfiguration, horizon)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no treatment options", ErrInvalidConfiguration)
	}
	for i, option := range options {
		if len(option) != horizon {
			return nil, fmt.Errorf("%w: treatment option %d has length %d, want projection horizon %d",
				ErrInvalidConfiguration, i, len(option), horizon)
		}
	}
	if actions == nil {
		actions = PolicyDriven()
	}
	fmt.Println("Simulating ", len(options), " projected treatment sequences for ", len(cohort.Patients), " patients...")
	width := numTimeSteps + horizon
	base := NewSource(cohort.Seed)
	result := parallel.RangeReduce(0, len(cohort.Patients), 0, func(low, high int) interface{} {
		rows := []*Path{}
		for i := low; i < high; i++ {
			s := base.PatientStream(i)
			noise := drawPatientNoise(s, numTimeSteps, width)
			rows = append(rows, projectPatient(cohort.Patients[i], i, numTimeSteps, cohort.WindowSize, options, actions, noise)...)
		}
		return rows
	}, func(result1, result2 interface{}) interface{} {
		return append(result1.([]*Path), result2.([]*Path)...)
	})
	d := newDataset(width)
	for _, p := range result.([]*Path) {
		d.appendPath(p)
	}
	fmt.Println("Collected ", d.NumRows(), " sequence rows.")
	return d, nil
}

// projectPatient replays one patient's factual path and, at every decision
// step, projects each action sequence over the horizon from the factual
// prefix. Projection stops once the factual path absorbs.
func projectPatient(p *PatientParameters, patient, numTimeSteps, window int, options []ActionSequence,
	actions ActionSource, noise *patientNoise) []*Path {
	width := numTimeSteps + len(options[0])
	factual := newPath(numTimeSteps)
	factual.CancerVolume[0] = p.InitialVolume
	rows := []*Path{}
	for t := 0; t < numTimeSteps-1; t++ {
		v := factualStep(p, factual, t, patient, window, actions, noise, t+1)
		factual.CancerVolume[t+1] = clampVolume(v)
		for _, option := range options {
			if row, ok := projectSequence(factual, p, patient, t, width, option, noise); ok {
				rows = append(rows, row)
			}
		}
		// Same one index lag of the recovery draw as in branchPatient.
		if factual.CancerVolume[t+1] >= TumourDeathThreshold ||
			noise.recovery[t] <= math.Exp(-factual.CancerVolume[t+1]*TumourCellDensity) {
			break
		}
	}
	return rows
}

// projectSequence rolls the recurrence forward over the projection horizon
// from the factual prefix at decision step t, applying the sequence's
// actions and reusing the factual growth residuals beyond the divergence
// step. It reports false when any projected volume is not finite.
func projectSequence(factual *Path, p *PatientParameters, patient, t, width int, option ActionSequence,
	noise *patientNoise) (*Path, bool) {
	row := prefixRow(factual, p, patient, t, width)
	horizon := len(option)
	for pt := 0; pt < horizon; pt++ {
		currentT := t + 1 + pt
		previousDose := row.ChemoDosage[currentT-1]
		currentDose := 0.0
		radioDosage := 0.0
		if option[pt][0] == 1.0 {
			row.ChemoApplication[currentT] = 1.0
			currentDose = ChemoDoseAmount
		}
		if option[pt][1] == 1.0 {
			row.RadioApplication[currentT] = 1.0
			radioDosage = RadioDoseAmount
		}
		row.ChemoDosage[currentT] = previousDose*chemoDecay + currentDose
		row.RadioDosage[currentT] = radioDosage
		vol := row.CancerVolume[currentT]
		row.CancerVolume[currentT+1] = vol * (1.0 +
			p.Rho*math.Log(p.K/(vol+logGuard)+logGuard) -
			p.BetaC*row.ChemoDosage[currentT] -
			(p.Alpha*radioDosage + p.Beta*radioDosage*radioDosage) +
			noise.growth[currentT+1])
	}
	for _, v := range row.CancerVolume[:t+2+horizon] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return row, true
}
