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

package main

import (
	"bytes"
	"casim/app"
	"casim/simulation"
	"casim/utils"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

/*
Casim is a tool for generating synthetic cancer treatment benchmarks for
causal inference research. It simulates tumour growth trajectories under a
confounded treatment assignment policy, and produces matched counterfactual
outcomes that can be used as ground truth for evaluating treatment effect
estimators.

Usage:
	casim outputPath [flags]

Example:
	casim ./coeff10/ --numPatients 10000 --numTimeSteps 60 --chemoCoeff 10 --radioCoeff 10 --windowSize 15
	--horizon 5 --seed 100 --name coeff10 --pfilters "stageIV" --plot 25 --saveData --nrOfThreads 8

The flags are:

--numPatients nr
	The number of patients in the training cohort. The validation and test cohorts are a tenth of this size, with a
	minimum of one patient.
--numTimeSteps nr
	The number of simulated time steps per patient, in days. Trajectories end earlier when a patient dies or recovers.
--chemoCoeff nr
	The confounding strength of the chemotherapy assignment policy. At 0, chemotherapy is assigned by a fair coin flip at
	every time step. Larger values make the assignment probability depend more strongly on the recent mean tumour
	diameter.
--radioCoeff nr
	The confounding strength of the radiotherapy assignment policy. Works like chemoCoeff.
--windowSize nr
	The number of past days over which the mean tumour diameter is computed for treatment assignment.
--horizon nr
	The number of projected time steps in the sequence test data.
--treatmentOptions string
	The projected action sequences for the sequence test data, e.g. "10,00,01,00,00;01,00,00,00,00" for two sequences
	over a five step horizon. Each step is a two character code: chemo digit then radio digit. When not given, single
	chemo and radio administrations at each offset of the horizon are used.
--seed nr
	The seed of the random number generator. Runs with the same seed and parameters produce identical benchmarks.
--name string
	Sets the name of the run. This name is used to generate names for output files.
--pfilters stageI | stageII | stageIIIA | stageIIIB | stageIV | type1 | type2 | type3 | early | advanced | id
	A list of filters for selecting the patients to simulate, e.g. only patients diagnosed at a specific cancer stage or
	only patients of a specific treatment assignment group.
--plot nr
	Plot at most nr sampled cancer volume trajectories of the training data to a png file.
--saveData
	Save the generated benchmark to a gob file so later runs can reuse it.
--loadData
	Load the benchmark from a gob file saved by a previous run. Falls back to generation when no usable file exists.
--nrOfThreads nr
	The number of threads casim uses.
*/

const (
	programVersion = 0.1
	programName    = "casim"
)

func programMessage() string {
	return fmt.Sprint(programName, " version ", programVersion, " compiled with ", runtime.Version())
}

const casimHelp = "\ncasim parameters:\n" +
	"casim outputPath \n" +
	"[--numPatients nr]\n" +
	"[--numTimeSteps nr]\n" +
	"[--chemoCoeff nr]\n" +
	"[--radioCoeff nr]\n" +
	"[--windowSize nr]\n" +
	"[--horizon nr]\n" +
	"[--treatmentOptions string]\n" +
	"[--seed nr]\n" +
	"[--name string]\n" +
	"[--pfilters stageI | stageII | stageIIIA | stageIIIB | stageIV | type1 | type2 | type3 | early | advanced | id]\n" +
	"[--plot nr]\n" +
	"[--saveData]\n" +
	"[--loadData]\n" +
	"[--nrOfThreads nr]\n"

func parseFlags(flags flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(ioutil.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprint(os.Stderr, err)
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprint(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func getFileName(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	return s
}

func getPatientFilter(s string) simulation.PatientFilter {
	id := func(p *simulation.PatientParameters) bool { return true }
	switch s {
	case "id":
		return id
	case "stageI":
		return simulation.StageFilter(simulation.StageI)
	case "stageII":
		return simulation.StageFilter(simulation.StageII)
	case "stageIIIA":
		return simulation.StageFilter(simulation.StageIIIA)
	case "stageIIIB":
		return simulation.StageFilter(simulation.StageIIIB)
	case "stageIV":
		return simulation.StageFilter(simulation.StageIV)
	case "type1":
		return simulation.PatientTypeFilter(1)
	case "type2":
		return simulation.PatientTypeFilter(2)
	case "type3":
		return simulation.PatientTypeFilter(3)
	case "early":
		return simulation.EarlyStageFilter()
	case "advanced":
		return simulation.AdvancedStageFilter()
	default:
		return id
	}
}

func getPatientFilters(f string) []simulation.PatientFilter {
	fs := strings.Split(f, ",")
	result := []simulation.PatientFilter{}
	for _, f := range fs {
		result = append(result, getPatientFilter(f))
	}
	return result
}

func main() {
	var (
		// required parameters
		outputPath string //The path where output files are written.
		// optional flags
		numPatients      int
		numTimeSteps     int
		chemoCoeff       float64
		radioCoeff       float64
		windowSize       int
		horizon          int
		treatmentOptions string
		seed             uint64
		name             string
		pfilters         string
		plot             int
		saveData         bool
		loadData         bool
		nrOfThreads      int
	)
	var flags flag.FlagSet
	// options for the casim command
	flags.IntVar(&numPatients, "numPatients", 10000, "The number of patients in the training cohort."+
		" The validation and test cohorts are a tenth of this size.")
	flags.IntVar(&numTimeSteps, "numTimeSteps", 60, "The number of simulated time steps per patient,"+
		" in days.")
	flags.Float64Var(&chemoCoeff, "chemoCoeff", 10.0, "The confounding strength of the chemotherapy"+
		" assignment policy.")
	flags.Float64Var(&radioCoeff, "radioCoeff", 10.0, "The confounding strength of the radiotherapy"+
		" assignment policy.")
	flags.IntVar(&windowSize, "windowSize", app.DefaultWindowSize, "The number of past days over "+
		"which the mean tumour diameter is computed for treatment assignment.")
	flags.IntVar(&horizon, "horizon", app.DefaultProjectionHorizon, "The number of projected time "+
		"steps in the sequence test data.")
	flags.StringVar(&treatmentOptions, "treatmentOptions", "", "The projected action sequences for "+
		"the sequence test data.")
	flags.Uint64Var(&seed, "seed", 100, "The seed of the random number generator.")
	flags.StringVar(&name, "name", "exp1", "The name of the run. This is used to generate the "+
		"names of the output files.")
	flags.StringVar(&pfilters, "pfilters", "id", "A list of pfilters to restrict simulation to "+
		"specific patients.")
	flags.IntVar(&plot, "plot", 0, "Plot at most this many sampled cancer volume trajectories of "+
		"the training data.")
	flags.BoolVar(&saveData, "saveData", false, "Save the generated benchmark to a gob file.")
	flags.BoolVar(&loadData, "loadData", false, "Load the benchmark from a gob file saved by a "+
		"previous run.")
	flags.IntVar(&nrOfThreads, "nrOfThreads", 0, "The number of threads casim uses.")
	// parse optional arguments
	parseFlags(flags, 2, casimHelp)
	// parse required arguments
	outputPath, _ = filepath.Abs(getFileName(os.Args[1], casimHelp))
	outputPath = outputPath + string(filepath.Separator)
	fmt.Println("Output path: ", outputPath)
	// create output directory
	err := os.MkdirAll(filepath.Dir(outputPath), 0700)
	if err != nil {
		panic(err)
	}
	// build an output command line
	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " ", outputPath)
	fmt.Fprint(&command, " --numPatients ", numPatients)
	fmt.Fprint(&command, " --numTimeSteps ", numTimeSteps)
	fmt.Fprint(&command, " --chemoCoeff ", chemoCoeff)
	fmt.Fprint(&command, " --radioCoeff ", radioCoeff)
	fmt.Fprint(&command, " --windowSize ", windowSize)
	fmt.Fprint(&command, " --horizon ", horizon)
	if treatmentOptions != "" {
		fmt.Fprint(&command, " --treatmentOptions ", treatmentOptions)
	}
	fmt.Fprint(&command, " --seed ", seed)
	fmt.Fprint(&command, " --name ", name)
	fmt.Fprint(&command, " --pfilters ", pfilters)
	if plot > 0 {
		fmt.Fprint(&command, " --plot ", plot)
	}
	if saveData {
		fmt.Fprint(&command, " --saveData")
	}
	if loadData {
		fmt.Fprint(&command, " --loadData")
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nrOfThreads ", nrOfThreads)
	}
	// start execution
	log.Println(programMessage())
	log.Println("Executing command:\n", command.String())
	//1. Assemble the run configuration
	options, err := app.ParseTreatmentOptions(treatmentOptions, horizon)
	if err != nil {
		log.Panic(err)
	}
	cfg := &app.Config{
		NumPatients:       numPatients,
		NumTimeSteps:      numTimeSteps,
		ChemoCoeff:        chemoCoeff,
		RadioCoeff:        radioCoeff,
		WindowSize:        windowSize,
		ProjectionHorizon: horizon,
		TreatmentOptions:  options,
		Seed:              seed,
		Name:              name,
		OutputPath:        outputPath,
	}
	//2. Generate or load the benchmark
	benchmark, err := app.GetBenchmark(cfg, getPatientFilters(pfilters), loadData, saveData)
	if err != nil {
		log.Panic(err)
	}
	//3. Write the datasets to file
	simulation.WriteDatasetToFiles(benchmark.Training, outputPath, name+"_training")
	simulation.WriteDatasetToFiles(benchmark.Validation, outputPath, name+"_validation")
	simulation.WriteDatasetToFiles(benchmark.TestFactuals, outputPath, name+"_test_factuals")
	simulation.WriteDatasetToFiles(benchmark.TestCounterfactuals, outputPath, name+"_test_counterfactuals")
	simulation.WriteDatasetToFiles(benchmark.TestSequences, outputPath, name+"_test_sequences")
	fmt.Println("Sampled training trajectories: ")
	for i := 0; i < utils.MinInt(benchmark.Training.NumRows(), 10); i++ {
		simulation.PrintPath(benchmark.Training, i)
	}
	fmt.Println("Scaling statistics: ")
	for _, variable := range []string{"cancer_volume", "chemo_dosage", "radio_dosage", "patient_types"} {
		fmt.Println(variable, " mean: ", benchmark.Scaling.Means[variable], " std: ",
			benchmark.Scaling.Stds[variable])
	}
	//4. Plot sampled trajectories to file
	if plot > 0 {
		simulation.PlotCancerVolumes(benchmark.Training, plot, filepath.Join(outputPath, name+"_volumes.png"))
	}
}
