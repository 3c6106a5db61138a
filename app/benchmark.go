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
	"casim/utils"
	"encoding/gob"
	"fmt"
	"os"
	"path"
	"strconv"
)

// Benchmark holds the full output of a generation run: the factual training
// and validation data, the three test datasets, and the scaling statistics
// computed on the training data.
type Benchmark struct {
	Config              Config
	Training            *simulation.Dataset
	Validation          *simulation.Dataset
	TestFactuals        *simulation.Dataset
	TestCounterfactuals *simulation.Dataset
	TestSequences       *simulation.Dataset
	Scaling             *simulation.ScalingStatistics
}

// GenerateBenchmark samples fresh patient cohorts and runs all simulation
// modes. The training, validation, test, and sequence cohorts are sampled
// from consecutive sub-seeds of the configured seed, so regenerating with the
// same configuration reproduces the exact same benchmark. The test cohort is
// shared between the factual and counterfactual test data, so the
// counterfactual branch points can be matched to factual trajectories by
// patient id. Filters, when given, restrict every cohort to the selected
// patient subgroups.
func GenerateBenchmark(cfg *Config, filters []simulation.PatientFilter) (*Benchmark, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	testSize := utils.MaxInt(1, cfg.NumPatients/10)
	fmt.Println("Sampling patient cohorts")
	training, err := sampleFilteredCohort(cfg, cfg.NumPatients, cfg.Seed, filters)
	if err != nil {
		return nil, err
	}
	validation, err := sampleFilteredCohort(cfg, testSize, cfg.Seed+1, filters)
	if err != nil {
		return nil, err
	}
	test, err := sampleFilteredCohort(cfg, testSize, cfg.Seed+2, filters)
	if err != nil {
		return nil, err
	}
	sequence, err := sampleFilteredCohort(cfg, testSize, cfg.Seed+3, filters)
	if err != nil {
		return nil, err
	}
	benchmark := &Benchmark{Config: *cfg}
	fmt.Println("Simulating training trajectories for", len(training.Patients), "patients")
	if benchmark.Training, err = simulation.Simulate(training, cfg.NumTimeSteps, simulation.PolicyDriven()); err != nil {
		return nil, err
	}
	fmt.Println("Simulating validation trajectories for", len(validation.Patients), "patients")
	if benchmark.Validation, err = simulation.Simulate(validation, cfg.NumTimeSteps, simulation.PolicyDriven()); err != nil {
		return nil, err
	}
	fmt.Println("Simulating test trajectories for", len(test.Patients), "patients")
	if benchmark.TestFactuals, err = simulation.Simulate(test, cfg.NumTimeSteps, simulation.PolicyDriven()); err != nil {
		return nil, err
	}
	fmt.Println("Simulating counterfactual branches")
	if benchmark.TestCounterfactuals, err = simulation.SimulateCounterfactuals(test, cfg.NumTimeSteps, simulation.PolicyDriven()); err != nil {
		return nil, err
	}
	fmt.Println("Simulating projected treatment sequences for", len(sequence.Patients), "patients")
	benchmark.TestSequences, err = simulation.SimulateSequences(sequence, cfg.NumTimeSteps,
		cfg.ProjectionHorizon, cfg.TreatmentOptions, simulation.PolicyDriven())
	if err != nil {
		return nil, err
	}
	fmt.Println("Computing scaling statistics")
	if benchmark.Scaling, err = simulation.ComputeScalingStatistics(benchmark.Training); err != nil {
		return nil, err
	}
	return benchmark, nil
}

func sampleFilteredCohort(cfg *Config, numPatients int, seed uint64, filters []simulation.PatientFilter) (*simulation.Cohort, error) {
	cohort, err := simulation.SampleCohort(numPatients, cfg.ChemoCoeff, cfg.RadioCoeff, cfg.WindowSize, seed)
	if err != nil {
		return nil, err
	}
	return simulation.ApplyPatientFilters(cohort, filters), nil
}

// cacheFileName derives the benchmark cache file name from the
// configuration, so that runs with different confounding coefficients or
// policy windows never reuse each other's cached data.
func cacheFileName(cfg *Config) string {
	name := cfg.Name + "_sim_" +
		strconv.FormatFloat(cfg.ChemoCoeff, 'f', -1, 64) + "_" +
		strconv.FormatFloat(cfg.RadioCoeff, 'f', -1, 64)
	if cfg.WindowSize != DefaultWindowSize {
		name = name + "_" + strconv.Itoa(cfg.WindowSize)
	}
	return path.Join(cfg.OutputPath, name+".gob")
}

// SaveBenchmark writes a benchmark to its gob cache file.
func SaveBenchmark(b *Benchmark) {
	fileName := cacheFileName(&b.Config)
	fmt.Println("Saving benchmark to", fileName)
	file, err := os.Create(fileName)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	if err := gob.NewEncoder(file).Encode(b); err != nil {
		panic(err)
	}
}

// LoadBenchmark reads a previously saved benchmark from its gob cache file.
func LoadBenchmark(cfg *Config) (*Benchmark, error) {
	fileName := cacheFileName(cfg)
	fmt.Println("Loading benchmark from", fileName)
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	benchmark := &Benchmark{}
	if err := gob.NewDecoder(file).Decode(benchmark); err != nil {
		return nil, err
	}
	return benchmark, nil
}

// GetBenchmark returns the benchmark for a configuration. With load set, it
// first attempts to read a cached benchmark and falls back to generation when
// no usable cache exists. With save set, a freshly generated benchmark is
// written to the cache.
func GetBenchmark(cfg *Config, filters []simulation.PatientFilter, load, save bool) (*Benchmark, error) {
	if load {
		benchmark, err := LoadBenchmark(cfg)
		if err == nil {
			return benchmark, nil
		}
		fmt.Println("Loading failed, regenerating benchmark:", err)
	}
	benchmark, err := GenerateBenchmark(cfg, filters)
	if err != nil {
		return nil, err
	}
	if save {
		SaveBenchmark(benchmark)
	}
	return benchmark, nil
}
