package nakarushton

import (
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains tolerances for fit-quality checks.
type AssertionConfig struct {
	// Relative tolerance per parameter (0.1 = within 10%)
	RelTolerance float64

	// Absolute tolerance, used when the true value is near zero
	AbsTolerance float64

	// Contrast grid used for shape checks (default: 0..100 step 1)
	Contrasts []float64
}

// DefaultAssertionConfig returns tolerances suited to noise-free data.
func DefaultAssertionConfig() AssertionConfig {
	grid := make([]float64, 101)
	for i := range grid {
		grid[i] = float64(i)
	}
	return AssertionConfig{
		RelTolerance: 0,
		AbsTolerance: 1e-3,
		Contrasts:    grid,
	}
}

// AssertRecovers verifies each fitted parameter lies within tolerance of the
// generating one. A parameter passes when either the absolute or the
// relative tolerance is met.
func AssertRecovers(t *testing.T, got, want Params, cfg AssertionConfig) {
	t.Helper()

	g, w := got.Vector(), want.Vector()
	var failures []string
	for j, name := range paramNames {
		diff := math.Abs(g[j] - w[j])
		if diff <= cfg.AbsTolerance || diff <= cfg.RelTolerance*math.Abs(w[j]) {
			continue
		}
		failures = append(failures, fmt.Sprintf(
			"  %s: got %.6f, want %.6f (|Δ|=%.3g)", name, g[j], w[j], diff))
	}

	if len(failures) > 0 {
		t.Errorf("Parameters not recovered (abs tol %.3g, rel tol %.3g):\n%v",
			cfg.AbsTolerance, cfg.RelTolerance, failures)
	}
}

// AssertMonotonic verifies the response never decreases along cfg.Contrasts.
//
// Mathematical property:
//
//	∂r/∂c ≥ 0 for c ≥ 0 when Gr ≥ 0, n > 0, Gc > 0
func AssertMonotonic(t *testing.T, p Params, cfg AssertionConfig) {
	t.Helper()

	curve := p.Curve(cfg.Contrasts)
	for i := 1; i < len(curve); i++ {
		if curve[i] < curve[i-1] {
			t.Errorf("Response decreases: r(%.3f)=%.9f > r(%.3f)=%.9f for %+v",
				cfg.Contrasts[i-1], curve[i-1], cfg.Contrasts[i], curve[i], p)
			return
		}
	}
}

// AssertWithinBounds verifies every fitted parameter respects the fit bounds.
func AssertWithinBounds(t *testing.T, got Params, fit FitConfig) {
	t.Helper()

	g, lo, hi := got.Vector(), fit.Lower.Vector(), fit.Upper.Vector()
	for j, name := range paramNames {
		if g[j] < lo[j] || g[j] > hi[j] {
			t.Errorf("%s=%v outside [%v, %v]", name, g[j], lo[j], hi[j])
		}
	}
}

// PrintAnalysis outputs the fitted curve against the data to the test log.
func PrintAnalysis(t *testing.T, contrast, resp []float64, res FitResult) {
	t.Helper()

	t.Logf("\n=== Naka-Rushton Fit ===")
	t.Logf("Parameters:")
	t.Logf("  b  = %.6f (baseline)", res.B)
	t.Logf("  Gr = %.6f (response gain)", res.Gr)
	t.Logf("  Gc = %.6f (contrast gain)", res.Gc)
	t.Logf("  n  = %.6f (slope)", res.N)
	t.Logf("Derived:")
	t.Logf("  Rmax = %.6f", res.Rmax)
	t.Logf("  C50  = %.3f", res.C50)
	t.Logf("Solver: %d iterations, cost %.3g, stopped by %s", res.Iterations, res.Cost, res.Termination)

	t.Logf("\n  Contrast   Measured     Predicted")
	t.Logf("  --------   ----------   ----------")
	step := 1
	if len(contrast) > 12 {
		step = len(contrast) / 12
	}
	for i := 0; i < len(contrast); i += step {
		t.Logf("  %8.2f   %10.4f   %10.4f", contrast[i], resp[i], res.Response(contrast[i]))
	}
}
