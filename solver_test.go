package nakarushton

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// TestJacobian_MatchesFiniteDifference checks the analytic derivatives.
func TestJacobian_MatchesFiniteDifference(t *testing.T) {
	pr := &problem{
		contrast: []float64{0, 0.5, 3, 12, 30, 55, 100},
		resp:     make([]float64, 7),
	}
	m := len(pr.contrast)

	for _, p := range []Params{
		{B: 1, Gr: 5, Gc: 30, N: 2},
		{B: 0, Gr: 3, Gc: 40, N: 4},
		{B: -1, Gr: 0.8, Gc: 7, N: 0.6},
	} {
		x := p.Vector()

		analytic := mat.NewDense(m, numParams, nil)
		pr.jacobian(analytic, x)

		numeric := mat.NewDense(m, numParams, nil)
		fd.Jacobian(numeric, func(y, x []float64) {
			pr.residuals(y, x)
		}, x, &fd.JacobianSettings{Formula: fd.Central})

		for i := 0; i < m; i++ {
			for j := 0; j < numParams; j++ {
				a, n := analytic.At(i, j), numeric.At(i, j)
				if math.Abs(a-n) > 1e-5*math.Max(1, math.Abs(n)) {
					t.Errorf("%+v: J[%d][%s] analytic=%.9g numeric=%.9g",
						p, i, paramNames[j], a, n)
				}
			}
		}
	}
}

// TestFreeSet_PinsOutwardGradient verifies active-set detection at bounds.
func TestFreeSet_PinsOutwardGradient(t *testing.T) {
	pr := &problem{
		lower: []float64{0, 0, 0, 0},
		upper: []float64{1, 1, 1, 0},
	}

	// x0 at lower with g>0 (pinned), x1 at upper with g<0 (pinned),
	// x2 at lower with g<0 (free), x3 fixed by lower == upper.
	x := []float64{0, 1, 0, 0}
	grad := mat.NewVecDense(4, []float64{1, -1, -1, 5})

	free := pr.freeSet(x, grad)
	if len(free) != 1 || free[0] != 2 {
		t.Errorf("free = %v, want [2]", free)
	}
}

// TestSolve_TerminatesAtExactFit verifies an exact starting point stops at once.
func TestSolve_TerminatesAtExactFit(t *testing.T) {
	p := Params{B: 1, Gr: 5, Gc: 30, N: 2}
	pr := &problem{
		contrast: contrastGrid(0, 100, 10),
		lower:    DefaultFitConfig().Lower.Vector(),
		upper:    DefaultFitConfig().Upper.Vector(),
	}
	pr.resp = ResponseCurve(pr.contrast, p)

	sol, err := solve(pr, p.Vector(), solverSettings{maxIterations: 10, ftol: 1e-8, xtol: 1e-8, gtol: 1e-8})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if sol.iterations != 1 || sol.termination != TerminationGTol {
		t.Errorf("iterations=%d termination=%s, want 1 gtol", sol.iterations, sol.termination)
	}
	if sol.cost != 0 {
		t.Errorf("cost = %v, want 0", sol.cost)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ v, lo, hi, want float64 }{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{3, 3, 3, 3},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

// TestShortenStep_StaysInsideBox verifies a step never lands on a bound it
// starts away from, and that components already on their bound are dropped.
func TestShortenStep_StaysInsideBox(t *testing.T) {
	pr := &problem{
		lower: []float64{-10, 0, 0, 0.1},
		upper: []float64{10, 10, 100, 10},
	}
	x := []float64{0, 10, 50, 3}
	free := []int{0, 1, 2, 3}

	// Gc asks for -80 with a gap of 50: the whole step shrinks to 0.995·50/80.
	delta := []float64{1, 2, -80, 0.5}
	pr.shortenStep(delta, x, free)

	alpha := boundaryFraction * 50 / 80
	if math.Abs(delta[2]-(-80*alpha)) > 1e-12 || math.Abs(delta[3]-0.5*alpha) > 1e-12 {
		t.Errorf("delta = %v, want scaled by %.6f", delta, alpha)
	}
	if delta[1] != 0 {
		t.Errorf("Gr sits on its upper bound but moved by %v", delta[1])
	}
	if gc := x[2] + delta[2]; gc <= pr.lower[2] {
		t.Errorf("Gc stepped to %v, on or below its lower bound", gc)
	}

	inside := []float64{0.5, 0, 0, 0}
	pr.shortenStep(inside, x, free)
	if inside[0] != 0.5 {
		t.Errorf("step well inside the box rescaled to %v", inside[0])
	}
}

// TestScaledGradient_VanishesOnActiveBound verifies the stationarity measure
// ignores a gradient pressing a parameter against its bound.
func TestScaledGradient_VanishesOnActiveBound(t *testing.T) {
	pr := &problem{
		lower: []float64{-10, 0, 0, 0.1},
		upper: []float64{10, 3, 100, 10},
	}
	x := []float64{0, 3, 50, 3}

	// Descent on Gr points up, into the bound it sits on.
	grad := mat.NewVecDense(4, []float64{0, -7, 0, 0})
	if sg := pr.scaledGradient(x, grad, []int{0, 1, 2, 3}); sg != 0 {
		t.Errorf("scaled gradient = %v, want 0 on the active bound", sg)
	}

	// Same gradient on an interior Gc is weighted by its distance to 100.
	grad = mat.NewVecDense(4, []float64{0, 0, -2, 0})
	if sg := pr.scaledGradient(x, grad, []int{0, 1, 2, 3}); sg != 100 {
		t.Errorf("scaled gradient = %v, want 100", sg)
	}
}

// TestSolve_KeepsGcPositiveWithoutZeroContrast verifies the solver cannot
// collapse onto the flat Gc = 0 model when the data has no c = 0 point.
func TestSolve_KeepsGcPositiveWithoutZeroContrast(t *testing.T) {
	want := Params{B: 0, Gr: 3, Gc: 40, N: 4}
	cfg := DefaultFitConfig()
	pr := &problem{
		contrast: contrastGrid(1, 100, 0.5),
		lower:    cfg.Lower.Vector(),
		upper:    cfg.Upper.Vector(),
	}
	pr.resp = ResponseCurve(pr.contrast, want)

	sol, err := solve(pr, cfg.Init.Vector(), solverSettings{maxIterations: 200, ftol: 1e-8, xtol: 1e-8, gtol: 1e-8})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	t.Logf("%d iterations, %s, x=%v", sol.iterations, sol.termination, sol.x)
	if sol.x[2] <= 0 {
		t.Fatalf("Gc collapsed to %v", sol.x[2])
	}
	AssertRecovers(t, paramsFromVector(sol.x), want, DefaultAssertionConfig())
}
