package nakarushton

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxContrast is the contrast at which Rmax and the C50 target are taken.
const MaxContrast = 100.0

// C50 grid: c_i = c50GridStart + i·c50GridStep for every c_i < MaxContrast.
const (
	c50GridStart = 0.01
	c50GridStep  = 0.001
)

// c50GridSize is the number of grid points below MaxContrast (99 990).
var c50GridSize = int(math.Ceil((MaxContrast - c50GridStart) / c50GridStep))

// Stats contains the summary statistics derived from a parameter set.
type Stats struct {
	Rmax float64 // Response at 100% contrast minus baseline
	C50  float64 // Contrast halfway between baseline and the 100% response
}

// ComputeStats derives Rmax and C50 from p.
func ComputeStats(p Params) Stats {
	return Stats{
		Rmax: Rmax(p),
		C50:  C50(p),
	}
}

// Rmax returns the dynamic range: the response at MaxContrast minus the baseline.
func Rmax(p Params) float64 {
	return Response(MaxContrast, p) - p.B
}

// C50 returns the contrast at which the response is halfway between the
// baseline and the response at MaxContrast.
//
// The value is found by scanning a linear grid over [0.01, 100) at step
// 0.001 and returning the first grid point whose response is closest to the
// halfway target. Resolution is bounded by the grid step.
//
// Note: C50 equals Gc only when the response at 100% contrast has saturated.
// For Gc=50, n=3 the halfway point sits at ∛100000 ≈ 46.42.
func C50(p Params) float64 {
	target := c50Target(p)

	grid := make([]float64, c50GridSize)
	for i := range grid {
		grid[i] = c50GridStart + float64(i)*c50GridStep
	}

	dev := ResponseCurve(grid, p)
	for i := range dev {
		dev[i] = math.Abs(dev[i] - target)
	}

	// MinIdx skips NaN entries; a degenerate curve has no meaningful C50.
	if floats.HasNaN(dev) {
		return math.NaN()
	}
	return grid[floats.MinIdx(dev)]
}

// C50Analytic returns the exact inverse of the model at the C50 target:
//
//	c = Gc · (f / (1 - f))^(1/n),  f = (target - b) / Gr
//
// It returns NaN when the inverse does not exist (Gr = 0, f outside (0, 1)).
func C50Analytic(p Params) float64 {
	if p.Gr == 0 {
		return math.NaN()
	}
	f := (c50Target(p) - p.B) / p.Gr
	if !(f > 0 && f < 1) {
		return math.NaN()
	}
	return p.Gc * math.Pow(f/(1-f), 1/p.N)
}

func c50Target(p Params) float64 {
	return (p.B + Response(MaxContrast, p)) / 2
}
