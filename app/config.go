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

package app

import (
	"casim/simulation"
	"fmt"
	"strings"
)

// Benchmark generation configuration. All knobs of a generation run live in
// one Config record so that a run can be validated at entry, echoed to the
// log, and used to derive the cache file name.

// DefaultWindowSize is the default lookback of the treatment assignment
// policy, in days.
const DefaultWindowSize = 15

// DefaultProjectionHorizon is the default number of projected steps in the
// sequence test data.
const DefaultProjectionHorizon = 5

// Config bundles the parameters of a benchmark generation run.
type Config struct {
	NumPatients       int     //training cohort size; validation and test cohorts are a tenth of this
	NumTimeSteps      int     //factual simulation horizon, in days
	ChemoCoeff        float64 //confounding strength of the chemo assignment policy
	RadioCoeff        float64 //confounding strength of the radio assignment policy
	WindowSize        int     //lookback of the treatment assignment policy
	ProjectionHorizon int     //projected steps in the sequence test data
	TreatmentOptions  []simulation.ActionSequence
	Seed              uint64
	Name              string //name of the run, used to generate output file names
	OutputPath        string //where output and cache files are written
}

// ValidateConfig checks a configuration at entry, before any simulation work
// is started.
func ValidateConfig(cfg *Config) error {
	if cfg.NumPatients <= 0 {
		return fmt.Errorf("%w: numPatients must be positive, got %d",
			simulation.ErrInvalidConfiguration, cfg.NumPatients)
	}
	if cfg.NumTimeSteps <= 0 {
		return fmt.Errorf("%w: numTimeSteps must be positive, got %d",
			simulation.ErrInvalidConfiguration, cfg.NumTimeSteps)
	}
	if cfg.WindowSize <= 0 {
		return fmt.Errorf("%w: windowSize must be positive, got %d",
			simulation.ErrInvalidConfiguration, cfg.WindowSize)
	}
	if cfg.ProjectionHorizon <= 0 {
		return fmt.Errorf("%w: projectionHorizon must be positive, got %d",
			simulation.ErrInvalidConfiguration, cfg.ProjectionHorizon)
	}
	for i, option := range cfg.TreatmentOptions {
		if len(option) != cfg.ProjectionHorizon {
			return fmt.Errorf("%w: treatment option %d has length %d, want projection horizon %d",
				simulation.ErrInvalidConfiguration, i, len(option), cfg.ProjectionHorizon)
		}
	}
	return nil
}

// DefaultTreatmentOptions returns the benchmark's standard projected action
// sequences: a single chemo administration at each offset of the horizon,
// then a single radio administration at each offset.
func DefaultTreatmentOptions(horizon int) []simulation.ActionSequence {
	options := []simulation.ActionSequence{}
	for _, treatment := range [][2]float64{{1, 0}, {0, 1}} {
		for offset := 0; offset < horizon; offset++ {
			seq := make(simulation.ActionSequence, horizon)
			seq[offset] = treatment
			options = append(options, seq)
		}
	}
	return options
}

// ParseTreatmentOptions parses a textual list of projected action sequences.
// Sequences are separated by semicolons; within a sequence, steps are
// separated by commas and each step is a two character code: chemo digit then
// radio digit. E.g. "10,00,01,00,00;01,00,00,00,00" describes two sequences
// over a five step horizon.
func ParseTreatmentOptions(s string, horizon int) ([]simulation.ActionSequence, error) {
	if s == "" {
		return DefaultTreatmentOptions(horizon), nil
	}
	options := []simulation.ActionSequence{}
	for i, seqString := range strings.Split(s, ";") {
		steps := strings.Split(seqString, ",")
		if len(steps) != horizon {
			return nil, fmt.Errorf("%w: treatment option %d has %d steps, want projection horizon %d",
				simulation.ErrInvalidConfiguration, i, len(steps), horizon)
		}
		seq := make(simulation.ActionSequence, len(steps))
		for j, step := range steps {
			if len(step) != 2 || !isActionDigit(step[0]) || !isActionDigit(step[1]) {
				return nil, fmt.Errorf("%w: malformed treatment step %q in option %d",
					simulation.ErrInvalidConfiguration, step, i)
			}
			seq[j] = [2]float64{float64(step[0] - '0'), float64(step[1] - '0')}
		}
		options = append(options, seq)
	}
	return options, nil
}

func isActionDigit(c byte) bool {
	return c == '0' || c == '1'
}
