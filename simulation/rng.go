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
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// All randomness consumed by the cohort sampler and the simulators flows
// through a Source. A Source is never ambient state: it is created from an
// explicit seed and passed down, and each patient derives its own sub-stream
// so that simulating patients in parallel, or in a different order, produces
// the same draws.

const (
	cohortStream      = 0
	patientStreamBase = 1
)

// Source draws scalars and vectors from the uniform, normal, truncated
// normal, and multivariate normal distributions. A Source is not safe for
// concurrent use; parallel patient simulations must each use their own
// sub-stream obtained with PatientStream.
type Source struct {
	seed      uint64
	src       *rand.PCG
	rng       *rand.Rand
	stdNormal distuv.Normal
}

// NewSource creates a Source from a base seed.
func NewSource(seed uint64) *Source {
	return newStream(seed, cohortStream)
}

func newStream(seed, stream uint64) *Source {
	src := rand.NewPCG(seed, stream)
	return &Source{
		seed:      seed,
		src:       src,
		rng:       rand.New(src),
		stdNormal: distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: src},
	}
}

// PatientStream derives a deterministic sub-stream for one patient. The
// sub-stream depends only on the base seed and the patient index, never on
// how many draws other patients consumed.
func (s *Source) PatientStream(id int) *Source {
	return newStream(s.seed, patientStreamBase+uint64(id))
}

// Float64 returns a uniform draw from [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntN returns a uniform draw from [0, n).
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Normal returns a draw from the normal distribution with the given mean and
// standard deviation.
func (s *Source) Normal(mu, sigma float64) float64 {
	return mu + sigma*s.stdNormal.Rand()
}

// NormalVector returns n independent normal draws.
func (s *Source) NormalVector(n int, mu, sigma float64) []float64 {
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = s.Normal(mu, sigma)
	}
	return vec
}

// UniformVector returns n independent uniform draws from [0, 1).
func (s *Source) UniformVector(n int) []float64 {
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = s.rng.Float64()
	}
	return vec
}

// TruncNormal returns a draw from the standard normal distribution truncated
// to [lo, hi], by inversion of the normal CDF. The bounds may be infinite.
func (s *Source) TruncNormal(lo, hi float64) float64 {
	cdfLo := s.stdNormal.CDF(lo)
	cdfHi := s.stdNormal.CDF(hi)
	u := cdfLo + s.rng.Float64()*(cdfHi-cdfLo)
	return s.stdNormal.Quantile(u)
}

// BivariateNormal returns n draws from the bivariate normal distribution with
// the given mean vector and covariance matrix.
func (s *Source) BivariateNormal(mean []float64, cov *mat.SymDense, n int) ([][2]float64, error) {
	dist, ok := distmv.NewNormal(mean, cov, s.src)
	if !ok {
		return nil, fmt.Errorf("%w: covariance matrix is not positive definite", ErrInvalidConfiguration)
	}
	draws := make([][2]float64, n)
	buf := make([]float64, 2)
	for i := range draws {
		dist.Rand(buf)
		draws[i] = [2]float64{buf[0], buf[1]}
	}
	return draws, nil
}

// Shuffle pseudo-randomizes the order of n elements.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}
