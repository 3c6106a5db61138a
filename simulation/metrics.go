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

	"github.com/montanaflynn/stats"
)

// Scaling statistics over the valid prefixes of a dataset, for downstream
// normalization of model inputs.

// ScalingStatistics holds the per-variable means and standard deviations
// computed over entries [0, sequence_length) of every row, plus the static
// patient types.
type ScalingStatistics struct {
	Means map[string]float64
	Stds  map[string]float64
}

// scaledVariables lists the continuous series included in the statistics.
var scaledVariables = []string{"cancer_volume", "chemo_dosage", "radio_dosage"}

// ComputeScalingStatistics computes the mean and population standard
// deviation for each continuous variable of a dataset, excluding padded
// entries at steps beyond each row's sequence length.
func ComputeScalingStatistics(d *Dataset) (*ScalingStatistics, error) {
	series := map[string][][]float64{
		"cancer_volume": d.CancerVolume,
		"chemo_dosage":  d.ChemoDosage,
		"radio_dosage":  d.RadioDosage,
	}
	result := &ScalingStatistics{Means: map[string]float64{}, Stds: map[string]float64{}}
	for _, k := range scaledVariables {
		active := []float64{}
		for i, row := range series[k] {
			end := utils.MinInt(d.SequenceLengths[i], len(row))
			active = append(active, row[:end]...)
		}
		mean, err := stats.Mean(active)
		if err != nil {
			return nil, err
		}
		std, err := stats.StandardDeviation(active)
		if err != nil {
			return nil, err
		}
		result.Means[k] = mean
		result.Stds[k] = std
	}
	types := make([]float64, len(d.PatientTypes))
	for i, pt := range d.PatientTypes {
		types[i] = float64(pt)
	}
	mean, err := stats.Mean(types)
	if err != nil {
		return nil, err
	}
	std, err := stats.StandardDeviation(types)
	if err != nil {
		return nil, err
	}
	result.Means["patient_types"] = mean
	result.Stds["patient_types"] = std
	return result, nil
}
