// Package snapshot implements the Snapshot Recorder (spec §4.2): periodic
// statistical and population captures taken from a live Cell Store.
package snapshot

import (
	"cellevox/internal/cellstore"
	"cellevox/internal/model"
)

// TakeStat computes a StatSnapshot by one pass over store, accumulating raw
// (non-standardized) power-sum moments of fitness and per-cell mutation
// count, then converting them to mean/variance/skewness/kurtosis.
//
// An extinct population (n=0) returns a snapshot with every moment at zero
// rather than propagating a 0/0 NaN — SPEC_FULL.md Open Question
// Resolution #4.
func TakeStat(store *cellstore.Store, tau float64) model.StatSnapshot {
	var n int
	var sf1, sf2, sf3, sf4 float64
	var sm1, sm2, sm3, sm4 float64

	store.ForEach(func(c model.Cell) {
		n++
		f := c.Fitness
		sf1 += f
		sf2 += f * f
		sf3 += f * f * f
		sf4 += f * f * f * f

		m := float64(len(c.Mutations))
		sm1 += m
		sm2 += m * m
		sm3 += m * m * m
		sm4 += m * m * m * m
	})

	snap := model.StatSnapshot{Tau: tau, TotalLivingCells: n}
	if n == 0 {
		return snap
	}

	nf := float64(n)
	snap.MeanFitness, snap.VarFitness, snap.SkewFitness, snap.KurtFitness = rawMoments(sf1/nf, sf2/nf, sf3/nf, sf4/nf)
	snap.MeanMutations, snap.VarMutations, snap.SkewMutations, snap.KurtMutations = rawMoments(sm1/nf, sm2/nf, sm3/nf, sm4/nf)
	return snap
}

// TakePopulation returns a deep-copy snapshot of every living cell, tagged
// with the generation it was taken at.
func TakePopulation(store *cellstore.Store, generation int) model.PopulationSnapshot {
	return model.PopulationSnapshot{Generation: generation, Cells: store.Snapshot()}
}

// rawMoments converts raw power-sum moments (each already divided by n)
// into mean/variance/skewness/kurtosis per spec §4.2's formulas:
// var = M2-μ², skew = M3-3μM2+2μ³, kurt = M4-4μM3+6μ²M2-3μ⁴.
func rawMoments(m1, m2, m3, m4 float64) (mean, variance, skew, kurt float64) {
	mu := m1
	variance = m2 - mu*mu
	skew = m3 - 3*mu*m2 + 2*mu*mu*mu
	kurt = m4 - 4*mu*m3 + 6*mu*mu*m2 - 3*mu*mu*mu*mu
	return mu, variance, skew, kurt
}
