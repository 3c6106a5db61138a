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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cohort parameter sampling for the small-cell lung cancer growth model of
// Geng et al 2017. Simulation time is taken to be in days.

var (
	// ErrInvalidConfiguration flags malformed simulation inputs. It is
	// checked at entry of every simulation routine.
	ErrInvalidConfiguration = errors.New("invalid simulation configuration")
	// ErrSamplingExhausted flags a rejection sampling loop that could not
	// reach its quota within the batch budget.
	ErrSamplingExhausted = errors.New("rejection sampling exhausted")
)

const (
	// TumourCellDensity is the number of tumour cells per cm^3 of tumour
	// volume. It drives the spontaneous recovery test.
	TumourCellDensity = 5.8e8
	// ChemoDoseAmount is the chemotherapy drug concentration added per
	// administration.
	ChemoDoseAmount = 5.0
	// RadioDoseAmount is the radiotherapy dose per administration, in Gy.
	RadioDoseAmount = 2.0
	// DrugHalfLife is the chemo drug half life in days.
	DrugHalfLife = 1.0

	noiseSigma          = 0.01 //cell growth variability
	alphaBetaRatio      = 10.0
	alphaRhoCorrelation = 0.87
	maxSamplingBatches  = 100
)

var (
	// TumourDeathThreshold is the tumour volume beyond which a patient is
	// considered deceased, the volume of a 13 cm diameter sphere.
	TumourDeathThreshold = utils.SphereVolume(13.0)
	// CarryingCapacity is the logistic ceiling of the growth law, the volume
	// of a 30 cm diameter sphere.
	CarryingCapacity = utils.SphereVolume(30.0)
)

// Stage represents the cancer stage of a patient at the start of the
// simulation.
type Stage int

const (
	StageI Stage = iota
	StageII
	StageIIIA
	StageIIIB
	StageIV
)

var stageNames = [...]string{"I", "II", "IIIA", "IIIB", "IV"}

func (s Stage) String() string {
	return stageNames[s]
}

// ParseStage maps a stage name ("I".."IV") onto a Stage.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}
	return StageI, false
}

// sizeDistribution describes the lognormal initial tumour size distribution
// for one stage: mu and sigma of the underlying normal, plus diameter bounds
// in cm. The 13.0 cm upper bound is the death condition.
type sizeDistribution struct {
	mu, sigma float64
	lo, hi    float64
}

var tumourSizeDistributions = [...]sizeDistribution{
	StageI:    {1.72, 4.70, 0.3, 5.0},
	StageII:   {1.96, 1.63, 0.3, 13.0},
	StageIIIA: {1.91, 9.40, 0.3, 13.0},
	StageIIIB: {2.76, 6.87, 0.3, 13.0},
	StageIV:   {3.86, 8.82, 0.3, 13.0},
}

// Observations of stage proportions taken from Detterbeck and Gibson 2008.
// The categorical stage distribution is renormalized from these counts.
var cancerStageObservations = [...]int{
	StageI:    1432,
	StageII:   128,
	StageIIIA: 1306,
	StageIIIB: 7248,
	StageIV:   12840,
}

// Normal distribution parameters (mean, standard deviation) for the dynamics
// coefficients.
var (
	rhoParams   = [2]float64{7e-5, 7.23e-3}
	alphaParams = [2]float64{0.0398, 0.168}
	betaCParams = [2]float64{0.028, 0.0007}
)

// PatientParameters holds the disease progression and treatment assignment
// coefficients for one simulated patient. The record is immutable after
// sampling.
type PatientParameters struct {
	Stage                 Stage   //cancer stage at the start of the simulation
	PatientType           int     //treatment response group, 1-3
	InitialVolume         float64 //initial tumour volume in cm^3
	Alpha                 float64 //linear radiotherapy cell kill coefficient
	Beta                  float64 //quadratic radiotherapy cell kill coefficient, Alpha/10
	BetaC                 float64 //chemotherapy cell kill coefficient
	Rho                   float64 //intrinsic tumour growth rate
	K                     float64 //carrying capacity in cm^3
	ChemoSigmoidIntercept float64 //assignment policy intercept for chemo, in cm diameter
	ChemoSigmoidBeta      float64 //assignment policy slope for chemo
	RadioSigmoidIntercept float64 //assignment policy intercept for radio, in cm diameter
	RadioSigmoidBeta      float64 //assignment policy slope for radio
}

// Cohort bundles the sampled parameters of a patient population with the
// policy window size and the seed from which all per-patient random streams
// are derived.
type Cohort struct {
	Patients   []*PatientParameters
	WindowSize int    //lookback of the treatment assignment policy, in steps
	Seed       uint64 //base seed for the cohort's random streams
}

// SampleCohort draws the simulation parameters for a cohort of patients. The
// chemo and radio coefficients control the confounding strength of the
// treatment assignment policy and are broadcast to every patient in the
// cohort. Sampling is deterministic for a fixed seed.
func SampleCohort(numPatients int, chemoCoeff, radioCoeff float64, windowSize int, seed uint64) (*Cohort, error) {
	if numPatients <= 0 {
		return nil, fmt.Errorf("%w: numPatients must be positive, got %d", ErrInvalidConfiguration, numPatients)
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: windowSize must be positive, got %d", ErrInvalidConfiguration, windowSize)
	}
	s := NewSource(seed)
	// Patient types determine the treatment response adjustments below:
	// group 1 responds better to radiotherapy, group 3 to chemotherapy.
	patientTypes := make([]int, numPatients)
	for i := range patientTypes {
		patientTypes[i] = 1 + s.IntN(3)
	}
	stageCounts := sampleStageCounts(s, numPatients)
	// Initial volumes per stage, from a bounded lognormal over diameters. The
	// diameter bounds convert to truncation bounds of the underlying standard
	// normal.
	patients := make([]*PatientParameters, 0, numPatients)
	for stage, count := range stageCounts {
		dist := tumourSizeDistributions[stage]
		lo := (math.Log(dist.lo) - dist.mu) / dist.sigma
		hi := (math.Log(dist.hi) - dist.mu) / dist.sigma
		fmt.Println("Sampling ", count, " initial volumes for stage ", Stage(stage).String(),
			" with norm bounds: lb= ", lo, " ub= ", hi)
		for i := 0; i < count; i++ {
			diameter := math.Exp(s.TruncNormal(lo, hi)*dist.sigma + dist.mu)
			patients = append(patients, &PatientParameters{
				Stage:         Stage(stage),
				InitialVolume: utils.SphereVolume(diameter),
				K:             CarryingCapacity,
			})
		}
	}
	alphaRho, err := sampleAlphaRho(s, numPatients)
	if err != nil {
		return nil, err
	}
	dMax := utils.SphereDiameter(TumourDeathThreshold)
	for i, p := range patients {
		p.PatientType = patientTypes[i]
		alpha := alphaRho[i][0]
		if p.PatientType <= 1 { //radio responder group
			alpha += 0.1 * alphaParams[0]
		}
		p.Alpha = alpha
		p.Rho = alphaRho[i][1]
		p.Beta = alpha / alphaBetaRatio
		// beta_c is bounded below at zero; the upper bound is open.
		betaC := betaCParams[0] + betaCParams[1]*s.TruncNormal((0.0-betaCParams[0])/betaCParams[1], math.Inf(1))
		if p.PatientType == 3 { //chemo responder group
			betaC += 0.1 * betaCParams[0]
		}
		p.BetaC = betaC
		p.ChemoSigmoidIntercept = dMax / 2.0
		p.RadioSigmoidIntercept = dMax / 2.0
		p.ChemoSigmoidBeta = chemoCoeff / dMax
		p.RadioSigmoidBeta = radioCoeff / dMax
	}
	// The record order must not leak the stage grouping used during sampling.
	s.Shuffle(len(patients), func(i, j int) {
		patients[i], patients[j] = patients[j], patients[i]
	})
	return &Cohort{Patients: patients, WindowSize: windowSize, Seed: seed}, nil
}

// sampleStageCounts draws a stage for every patient from the categorical
// distribution renormalized from the published observation counts, and
// returns how many patients fell in each stage.
func sampleStageCounts(s *Source, numPatients int) []int {
	total := 0
	for _, ctr := range cancerStageObservations {
		total += ctr
	}
	stageCounts := make([]int, len(cancerStageObservations))
	for i := 0; i < numPatients; i++ {
		u := s.Float64()
		stage := len(cancerStageObservations) - 1
		acc := 0.0
		for st, ctr := range cancerStageObservations {
			acc += float64(ctr) / float64(total)
			if u < acc {
				stage = st
				break
			}
		}
		stageCounts[stage]++
	}
	return stageCounts
}

// sampleAlphaRho draws correlated (alpha, rho) pairs from the bivariate
// normal, rejecting draws with a non-positive component. Draws are accepted
// in order across batches, so the result does not depend on where batch
// boundaries fall. The number of batches is capped so that an unreachable
// quota fails with ErrSamplingExhausted instead of looping forever.
func sampleAlphaRho(s *Source, numPatients int) ([][2]float64, error) {
	offDiagonal := alphaRhoCorrelation * alphaParams[1] * rhoParams[1]
	cov := mat.NewSymDense(2, []float64{
		alphaParams[1] * alphaParams[1], offDiagonal,
		offDiagonal, rhoParams[1] * rhoParams[1],
	})
	mean := []float64{alphaParams[0], rhoParams[0]}
	accepted := make([][2]float64, 0, numPatients)
	for batch := 0; batch < maxSamplingBatches; batch++ {
		draws, err := s.BivariateNormal(mean, cov, numPatients)
		if err != nil {
			return nil, err
		}
		for _, d := range draws {
			if d[0] > 0.0 && d[1] > 0.0 {
				accepted = append(accepted, d)
			}
		}
		if len(accepted) >= numPatients {
			return accepted[:numPatients], nil
		}
		fmt.Println("Got correlated params for ", len(accepted), " of ", numPatients, " patients, resampling...")
	}
	return nil, fmt.Errorf("%w: %d of %d (alpha, rho) draws accepted after %d batches",
		ErrSamplingExhausted, len(accepted), numPatients, maxSamplingBatches)
}
