// Package meter emulates a taximeter running a metered distance tariff.
//
// The flag fall covers the first FirstMileYards of travel. The rest of the
// first mile is charged in FirstMileYards increments, and every yard after the
// first mile in AfterMileYards increments. A partial increment is charged as a
// whole one.
package meter

import (
	"math"

	"github.com/villagetaxi/farequote/internal/model"
)

// MaxIncrements caps the increments charged in one band. Distances large
// enough to exceed it (including +Inf) are charged the capped count, so the
// fare stays non-decreasing instead of overflowing.
const MaxIncrements = math.MaxInt32

// Breakdown itemises how a fare was built.
type Breakdown struct {
	FlagFall            model.Pence `json:"flag_fall"`
	FirstMileIncrements int         `json:"first_mile_increments"`
	AfterMileIncrements int         `json:"after_mile_increments"`
	IncrementRate       model.Pence `json:"increment_rate"`
	Total               model.Pence `json:"total"`
}

// ComputeFare returns the metered fare for distanceMiles under tariff.
//
// Negative and NaN distances are treated as zero. The result is
// non-decreasing in distance and saturates at MaxIncrements per band.
func ComputeFare(distanceMiles float64, tariff model.Tariff) model.Pence {
	return Meter(distanceMiles, tariff).Total
}

// Meter runs the meter and returns the itemised fare.
//
// Steps:
//  1. Convert the distance to yards.
//  2. Start at the flag fall.
//  3. Charge the remainder of the first mile in first-mile increments.
//  4. Charge everything beyond one mile in after-mile increments.
func Meter(distanceMiles float64, tariff model.Tariff) Breakdown {
	b := Breakdown{
		FlagFall:      tariff.FlagFall,
		IncrementRate: tariff.IncrementRate,
		Total:         tariff.FlagFall,
	}
	if distanceMiles <= 0 || math.IsNaN(distanceMiles) {
		return b
	}

	// ── Step 1–2: flag fall covers the first increment ──
	totalYards := distanceMiles * model.YardsPerMile
	remaining := totalYards - tariff.FirstMileYards
	if remaining <= 0 {
		return b
	}

	// ── Step 3: rest of the first mile ──────────────────
	firstMileRemainingYards := model.YardsPerMile - tariff.FirstMileYards
	firstMileRemaining := math.Min(remaining, firstMileRemainingYards)
	b.FirstMileIncrements = increments(firstMileRemaining, tariff.FirstMileYards)
	remaining -= firstMileRemaining

	// ── Step 4: beyond the first mile ───────────────────
	if remaining > 0 {
		b.AfterMileIncrements = increments(remaining, tariff.AfterMileYards)
	}

	charged := int64(b.FirstMileIncrements) + int64(b.AfterMileIncrements)
	b.Total = tariff.FlagFall + model.Pence(charged)*tariff.IncrementRate
	return b
}

// increments returns ceil(yards/step), capped at MaxIncrements.
func increments(yards, step float64) int {
	n := math.Ceil(yards / step)
	if n >= MaxIncrements {
		return MaxIncrements
	}
	return int(n)
}
