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

// Terminal classifies how a simulation path ended.
type Terminal int

const (
	Censored  Terminal = iota //horizon reached before absorption
	Dead                      //tumour volume crossed the death threshold
	Recovered                 //tumour eradicated
)

var terminalNames = [...]string{"censored", "dead", "recovered"}

func (t Terminal) String() string {
	return terminalNames[t]
}

// Path is one simulated trajectory: the per-step outcome, dosage, action, and
// probability series, the number of valid entries, and the terminal state.
// Entries at steps >= SequenceLength are zero padding and must be excluded
// from any statistic. A Path never shares its series with another Path.
type Path struct {
	CancerVolume       []float64 //tumour volume in cm^3 per step
	ChemoDosage        []float64 //chemo drug concentration per step
	RadioDosage        []float64 //radio dose in Gy per step
	ChemoApplication   []float64 //1 when chemo was administered at a step
	RadioApplication   []float64 //1 when radio was administered at a step
	ChemoProbabilities []float64 //assignment probability for chemo per step
	RadioProbabilities []float64 //assignment probability for radio per step
	SequenceLength     int       //number of valid entries
	Terminal           Terminal
	PatientID          int
	PatientType        int
	DecisionStep       int //divergence time for counterfactual rows, -1 for plain factual paths
}

func newPath(width int) *Path {
	return &Path{
		CancerVolume:       make([]float64, width),
		ChemoDosage:        make([]float64, width),
		RadioDosage:        make([]float64, width),
		ChemoApplication:   make([]float64, width),
		RadioApplication:   make([]float64, width),
		ChemoProbabilities: make([]float64, width),
		RadioProbabilities: make([]float64, width),
		DecisionStep:       -1,
	}
}

// Dataset is the cohort level assembly of simulation paths, one row per path.
// A Dataset is immutable once returned by a simulation routine.
type Dataset struct {
	NumTimeSteps       int //width of every row, including any projection horizon
	CancerVolume       [][]float64
	ChemoDosage        [][]float64
	RadioDosage        [][]float64
	ChemoApplication   [][]float64
	RadioApplication   [][]float64
	ChemoProbabilities [][]float64
	RadioProbabilities [][]float64
	SequenceLengths    []int
	PatientTypes       []int
	Terminals          []Terminal
	PatientIDs         []int
	PatientCurrentT    []int //decision time of divergence, -1 for plain factual rows
}

func newDataset(width int) *Dataset {
	return &Dataset{NumTimeSteps: width}
}

// NumRows returns the number of rows in the dataset.
func (d *Dataset) NumRows() int {
	return len(d.CancerVolume)
}

// appendPath adds one path as a dataset row. The path's series are adopted,
// not copied; paths are never shared between rows.
func (d *Dataset) appendPath(p *Path) {
	d.CancerVolume = append(d.CancerVolume, p.CancerVolume)
	d.ChemoDosage = append(d.ChemoDosage, p.ChemoDosage)
	d.RadioDosage = append(d.RadioDosage, p.RadioDosage)
	d.ChemoApplication = append(d.ChemoApplication, p.ChemoApplication)
	d.RadioApplication = append(d.RadioApplication, p.RadioApplication)
	d.ChemoProbabilities = append(d.ChemoProbabilities, p.ChemoProbabilities)
	d.RadioProbabilities = append(d.RadioProbabilities, p.RadioProbabilities)
	d.SequenceLengths = append(d.SequenceLengths, p.SequenceLength)
	d.PatientTypes = append(d.PatientTypes, p.PatientType)
	d.Terminals = append(d.Terminals, p.Terminal)
	d.PatientIDs = append(d.PatientIDs, p.PatientID)
	d.PatientCurrentT = append(d.PatientCurrentT, p.DecisionStep)
}
