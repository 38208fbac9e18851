// Package dynamics holds the pure scalar functions governing salience decay,
// reinforcement, resonance, and spreading activation. None of these
// functions perform I/O.
package dynamics

import (
	"math"

	"github.com/openmemory/openmemory/internal/model"
)

// Fixed coefficients from the specification's constants table.
const (
	Alpha   = 0.15
	Beta    = 0.2
	Gamma   = 0.35
	Theta   = 0.4
	Eta     = 0.18
	LambdaFast = 0.015
	LambdaSlow = 0.002
	Tau     = 0.5

	WaypointEta            = 0.1
	WaypointMaxWeight      = 1.0
	WaypointBoost          = 0.1
	WaypointPruneThreshold = 0.05

	msPerDay = 86_400_000.0
)

// Sigmoid is clamp-safe for |x| > 40 to avoid overflow in exp.
func Sigmoid(x float64) float64 {
	if x > 40 {
		return 1
	}
	if x < -40 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// Recency scores how fresh lastSeenMs is relative to nowMs.
func Recency(lastSeenMs, nowMs int64, tau, maxDays float64) float64 {
	d := float64(nowMs-lastSeenMs) / msPerDay
	if d < 0 {
		d = 0
	}
	v := math.Exp(-d/tau) * (1 - d/maxDays)
	if v < 0 {
		return 0
	}
	return v
}

// DualPhaseDecay applies a fast+slow exponential retention curve to
// salience. It is 1 at deltaDays=0 and monotonically non-increasing after.
func DualPhaseDecay(salience, deltaDays float64) float64 {
	return DualPhaseDecayWithLambdas(salience, deltaDays, LambdaFast, LambdaSlow)
}

// DualPhaseDecayWithLambdas allows overriding the default decay rates (used
// by per-memory decay_lambda overrides).
func DualPhaseDecayWithLambdas(salience, deltaDays, lambdaFast, lambdaSlow float64) float64 {
	if deltaDays < 0 {
		deltaDays = 0
	}
	retention := (1-Theta)*math.Exp(-lambdaFast*deltaDays) + Theta*math.Exp(-lambdaSlow*deltaDays)
	return salience * retention
}

// ResonanceMatrix is a fixed 5x5 matrix (rows = memory sector, cols = query
// sector), indexed by the declaration order in model.Sectors. It is
// symmetric with 1.0 on the diagonal, as printed in the specification.
var ResonanceMatrix = [5][5]float64{
	{1.0, 0.7, 0.3, 0.6, 0.6},
	{0.7, 1.0, 0.4, 0.7, 0.8},
	{0.3, 0.4, 1.0, 0.5, 0.2},
	{0.6, 0.7, 0.5, 1.0, 0.8},
	{0.6, 0.8, 0.2, 0.8, 1.0},
}

func sectorIndex(s model.Sector) int {
	for i, sec := range model.Sectors {
		if sec == s {
			return i
		}
	}
	return 1 // default to semantic
}

// CrossSectorResonance scales base by the resonance matrix entry relating
// memorySector to querySector.
func CrossSectorResonance(memorySector, querySector model.Sector, base float64) float64 {
	return base * ResonanceMatrix[sectorIndex(memorySector)][sectorIndex(querySector)]
}

// RetrievalReinforcement bumps salience toward 1 on retrieval.
func RetrievalReinforcement(salience float64) float64 {
	v := salience + Eta*(1-salience)
	if v > 1 {
		return 1
	}
	return v
}

// Propagate computes the salience increment a neighbor receives from a
// retrieved memory's reinforcement, clamped to [0,1] by the caller.
func Propagate(sourceSalience, waypointWeight float64) float64 {
	return Eta * waypointWeight * sourceSalience
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors, returning 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Boost maps a similarity score through 1-exp(-tau*s), used inside the
// combined hybrid score.
func Boost(sim, tau float64) float64 {
	return 1 - math.Exp(-tau*sim)
}

// TemporalProximity scores how close in time two memories were last seen,
// for waypoint reinforcement: exp(-deltaDays/tau).
func TemporalProximity(deltaDays, tau float64) float64 {
	if deltaDays < 0 {
		deltaDays = -deltaDays
	}
	return math.Exp(-deltaDays / tau)
}
