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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/valyala/fastrand"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plotting and printing of simulated datasets.

// PrintPath prints a one line summary of a dataset row to standard output.
func PrintPath(d *Dataset, row int) {
	seqLen := d.SequenceLengths[row]
	fmt.Print("Patient ", d.PatientIDs[row], " (type ", d.PatientTypes[row], ", ", d.Terminals[row],
		", ", seqLen, " steps): ")
	for t := 0; t < utils.MinInt(seqLen, 10); t++ {
		fmt.Printf("%.3f ", d.CancerVolume[row][t])
	}
	if seqLen > 10 {
		fmt.Print("...")
	}
	fmt.Println(" ")
}

// WriteDatasetToFiles writes each array of a dataset to a tab file named
// <name>.<array>.tab under the given path. Per 2D array, it prints one line
// per row with the per-step values separated by tabs.
func WriteDatasetToFiles(d *Dataset, path, name string) {
	arrays2D := map[string][][]float64{
		"cancer_volume":       d.CancerVolume,
		"chemo_dosage":        d.ChemoDosage,
		"radio_dosage":        d.RadioDosage,
		"chemo_application":   d.ChemoApplication,
		"radio_application":   d.RadioApplication,
		"chemo_probabilities": d.ChemoProbabilities,
		"radio_probabilities": d.RadioProbabilities,
	}
	for k, rows := range arrays2D {
		writeTabFile2D(filepath.Join(path, fmt.Sprintf("%s.%s.tab", name, k)), rows)
	}
	arrays1D := map[string][]int{
		"sequence_lengths":             d.SequenceLengths,
		"patient_types":                d.PatientTypes,
		"patient_ids_all_trajectories": d.PatientIDs,
		"patient_current_t":            d.PatientCurrentT,
	}
	for k, vec := range arrays1D {
		writeTabFile1D(filepath.Join(path, fmt.Sprintf("%s.%s.tab", name, k)), vec)
	}
}

func writeTabFile2D(name string, rows [][]float64) {
	file, err := os.Create(name)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(file, "\t")
			}
			fmt.Fprint(file, strconv.FormatFloat(v, 'E', -1, 64))
		}
		fmt.Fprint(file, "\n")
	}
}

func writeTabFile1D(name string, vec []int) {
	file, err := os.Create(name)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	for _, v := range vec {
		fmt.Fprintln(file, v)
	}
}

// PlotCancerVolumes renders the tumour volume series of up to max rows of a
// dataset as a line plot and saves it to a PNG file. When the dataset has
// more rows than max, a random selection is drawn.
func PlotCancerVolumes(d *Dataset, max int, file string) {
	p := plot.New()
	p.Title.Text = "Simulated tumour volume"
	p.X.Label.Text = "Day"
	p.Y.Label.Text = "Volume (cm^3)"
	n := utils.MinInt(max, d.NumRows())
	for i := 0; i < n; i++ {
		row := i
		if d.NumRows() > max {
			row = int(fastrand.Uint32n(uint32(d.NumRows())))
		}
		seqLen := d.SequenceLengths[row]
		points := make(plotter.XYs, seqLen)
		for t := 0; t < seqLen; t++ {
			points[t].X = float64(t)
			points[t].Y = d.CancerVolume[row][t]
		}
		if err := plotutil.AddLinePoints(p, fmt.Sprint("patient ", d.PatientIDs[row]), points); err != nil {
			panic(err)
		}
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, file); err != nil {
		panic(err)
	}
}
