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

// PatientFilter prescribes a function type for implementing filters on
// sampled patients, to be able to simulate specific subpopulations. E.g.
// stage I patients, chemo responder patients, etc.
type PatientFilter func(p *PatientParameters) bool

// ApplyPatientFilters reduces a cohort to the patients accepted by every
// filter. The returned cohort shares the original window size and seed, so
// the kept patients keep their sampled parameters.
func ApplyPatientFilters(cohort *Cohort, filters []PatientFilter) *Cohort {
	kept := []*PatientParameters{}
	for _, p := range cohort.Patients {
		res := true
		for _, filter := range filters {
			res = filter(p) && res
			if !res {
				break
			}
		}
		if res {
			kept = append(kept, p)
		}
	}
	return &Cohort{Patients: kept, WindowSize: cohort.WindowSize, Seed: cohort.Seed}
}

// StageFilter keeps only patients diagnosed at the given stage.
func StageFilter(stage Stage) PatientFilter {
	return func(p *PatientParameters) bool {
		return p.Stage == stage
	}
}

// PatientTypeFilter keeps only patients of the given treatment response
// group.
func PatientTypeFilter(patientType int) PatientFilter {
	return func(p *PatientParameters) bool {
		return p.PatientType == patientType
	}
}

// EarlyStageFilter keeps stage I and II patients.
func EarlyStageFilter() PatientFilter {
	return func(p *PatientParameters) bool {
		return p.Stage == StageI || p.Stage == StageII
	}
}

// AdvancedStageFilter keeps stage III and IV patients.
func AdvancedStageFilter() PatientFilter {
	return func(p *PatientParameters) bool {
		return p.Stage == StageIIIA || p.Stage == StageIIIB || p.Stage == StageIV
	}
}
