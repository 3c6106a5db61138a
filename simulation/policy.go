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
	"casim/utils"
	"math"
)

// ActionSource yields the chemo and radio assignment probabilities for one
// patient at one time step. metric is the rolling mean tumour diameter the
// policy responds to. The two variants, PolicyDriven and ExternallyAssigned,
// are drop-in substitutable: all simulation routines consume probabilities
// through this type and share the downstream action realization.
type ActionSource func(p *PatientParameters, patient, t int, metric float64) (chemoProb, radioProb float64)

// PolicyDriven returns the confounded state dependent assignment policy. The
// assignment probability follows a sigmoid in the rolling mean tumour
// diameter, with the patient's own intercepts and slopes.
func PolicyDriven() ActionSource {
	return func(p *PatientParameters, _, _ int, metric float64) (float64, float64) {
		chemoProb := sigmoid(p.ChemoSigmoidBeta, metric, p.ChemoSigmoidIntercept)
		radioProb := sigmoid(p.RadioSigmoidBeta, metric, p.RadioSigmoidIntercept)
		return chemoProb, radioProb
	}
}

// ExternallyAssigned returns an open loop action source that ignores the
// tumour state and replays the given per-patient, per-step (chemo, radio)
// probabilities verbatim.
func ExternallyAssigned(probabilities [][][2]float64) ActionSource {
	return func(_ *PatientParameters, patient, t int, _ float64) (float64, float64) {
		a := probabilities[patient][t]
		return a[0], a[1]
	}
}

func sigmoid(beta, metric, intercept float64) float64 {
	return 1.0 / (1.0 + math.Exp(-beta*(metric-intercept)))
}

// rollingMeanDiameter computes the mean tumour diameter over the trailing
// window ending at step t, inclusive of the current step and clipped at the
// start of the series.
func rollingMeanDiameter(volumes []float64, t, window int) float64 {
	lo := utils.MaxInt(t-window, 0)
	sum := 0.0
	for _, v := range volumes[lo : t+1] {
		sum += utils.SphereDiameter(v)
	}
	return sum / float64(t+1-lo)
}
