package nakarushton

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Damping and step-control constants for the Levenberg-Marquardt loop.
const (
	initialDamping   = 1.0
	minDamping       = 1e-12
	maxDamping       = 1e16
	diagFloor        = 1e-12 // Keeps the damping term positive when a column of J vanishes
	boundaryFraction = 0.995 // Share of the remaining gap to a bound one step may cover
	minGainRatio     = 1e-4  // Actual/predicted reduction below which a step is rejected
	stationaryRatio  = 1e-3  // Scaled gradient, relative to the start, that counts as stationary
)

// Termination reasons reported in FitResult.Termination.
const (
	TerminationGTol      = "gtol"      // Projected gradient below GTol
	TerminationFTol      = "ftol"      // Relative cost reduction below FTol
	TerminationXTol      = "xtol"      // Relative step below XTol
	TerminationStalled   = "stalled"   // Stationary point no damping level improves on
	TerminationAllPinned = "allpinned" // Every parameter is held at a bound
)

// problem is a box-constrained least-squares instance for the Naka-Rushton model.
type problem struct {
	contrast []float64
	resp     []float64
	lower    []float64
	upper    []float64
}

type solverSettings struct {
	maxIterations int
	ftol          float64
	xtol          float64
	gtol          float64
}

type solution struct {
	x           []float64
	cost        float64 // ½·Σ residual²
	iterations  int
	termination string
}

// residuals writes model(c_i; x) - resp_i into dst and returns ½·Σ dst².
func (pr *problem) residuals(dst, x []float64) float64 {
	p := paramsFromVector(x)
	for i, c := range pr.contrast {
		dst[i] = Response(c, p) - pr.resp[i]
	}
	return 0.5 * floats.Dot(dst, dst)
}

// jacobian writes ∂r_i/∂x_j into dst (len(contrast) × 4).
//
//	∂r/∂b  = 1
//	∂r/∂Gr = cⁿ/D
//	∂r/∂Gc = -Gr·n·cⁿ·Gcⁿ / (Gc·D²)
//	∂r/∂n  = Gr·cⁿ·Gcⁿ·(ln c - ln Gc) / D²
//
// where D = cⁿ + Gcⁿ. Terms with cⁿ = 0 or Gcⁿ = 0 are zero.
func (pr *problem) jacobian(dst *mat.Dense, x []float64) {
	p := paramsFromVector(x)
	gn := math.Pow(p.Gc, p.N)
	for i, c := range pr.contrast {
		cn := math.Pow(c, p.N)
		d := cn + gn

		dst.Set(i, 0, 1)
		dst.Set(i, 1, cn/d)

		if cn == 0 || gn == 0 {
			dst.Set(i, 2, 0)
			dst.Set(i, 3, 0)
			continue
		}
		d2 := d * d
		dst.Set(i, 2, -p.Gr*p.N*cn*gn/(p.Gc*d2))
		dst.Set(i, 3, p.Gr*cn*gn*(math.Log(c)-math.Log(p.Gc))/d2)
	}
}

// solve minimises ½‖r(x)‖² over lower ≤ x ≤ upper starting from x0.
//
// Each iteration fixes the parameters held at a bound by a gradient pointing
// outward, solves the damped normal equations
//
//	(JᵀJ + λ·diag(JᵀJ)) δ = -Jᵀr
//
// for the remaining ones and shortens δ so no parameter covers more than
// boundaryFraction of its remaining gap to a bound. Iterates that start inside
// the box stay strictly inside it: at Gc = 0 the model is flat in Gc and n and
// could never leave. λ follows Nielsen's update on the gain ratio.
//
// FTol and XTol only end the fit at a stationary point, where the scaled
// gradient has dropped by stationaryRatio. A stall anywhere else is
// ErrNoConvergence.
func solve(pr *problem, x0 []float64, s solverSettings) (solution, error) {
	m := len(pr.contrast)

	x := append([]float64(nil), x0...)
	r := make([]float64, m)
	cost := pr.residuals(r, x)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return solution{}, fitErrorf(ErrNonFinite, "residuals at initial parameters %v", x)
	}

	var (
		jac     = mat.NewDense(m, numParams, nil)
		grad    = mat.NewVecDense(numParams, nil)
		jtj     = mat.NewDense(numParams, numParams, nil)
		trial   = make([]float64, numParams)
		trialR  = make([]float64, m)
		damping = initialDamping
		growth  = 2.0
		initial = -1.0
	)

	for iter := 1; iter <= s.maxIterations; iter++ {
		pr.jacobian(jac, x)
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))
		jtj.Mul(jac.T(), jac)

		free := pr.freeSet(x, grad)
		if len(free) == 0 {
			return solution{x: x, cost: cost, iterations: iter, termination: TerminationAllPinned}, nil
		}

		sg := pr.scaledGradient(x, grad, free)
		if initial < 0 {
			initial = sg
		}
		if sg <= s.gtol {
			return solution{x: x, cost: cost, iterations: iter, termination: TerminationGTol}, nil
		}
		stationary := sg <= math.Max(s.gtol, stationaryRatio*initial)

		for {
			delta, ok := dampedStep(jtj, grad, free, damping)
			if ok {
				pr.shortenStep(delta, x, free)

				copy(trial, x)
				for k, j := range free {
					trial[j] = clamp(x[j]+delta[k], pr.lower[j], pr.upper[j])
				}
				trialCost := pr.residuals(trialR, trial)
				predicted := predictedReduction(jtj, grad, free, delta)

				if trialCost < cost && predicted > 0 {
					gain := (cost - trialCost) / predicted
					if gain > minGainRatio {
						step := floats.Distance(trial, x, 2)
						reduction := cost - trialCost
						prevCost := cost

						copy(x, trial)
						copy(r, trialR)
						cost = trialCost
						damping = math.Max(damping*math.Max(1.0/3, 1-math.Pow(2*gain-1, 3)), minDamping)
						growth = 2

						if stationary && reduction <= s.ftol*prevCost {
							return solution{x: x, cost: cost, iterations: iter, termination: TerminationFTol}, nil
						}
						if stationary && step <= s.xtol*(s.xtol+floats.Norm(x, 2)) {
							return solution{x: x, cost: cost, iterations: iter, termination: TerminationXTol}, nil
						}
						break
					}
				}
			}

			damping *= growth
			growth *= 2
			if damping > maxDamping {
				if stationary {
					return solution{x: x, cost: cost, iterations: iter, termination: TerminationStalled}, nil
				}
				return solution{}, fitErrorf(ErrNoConvergence,
					"stalled after %d iterations away from a stationary point (cost %.6g, scaled gradient %.3g)",
					iter, cost, sg)
			}
		}
	}

	return solution{}, fitErrorf(ErrNoConvergence, "%d iterations exhausted (cost %.6g)", s.maxIterations, cost)
}

// scaledGradient returns ‖v∘g‖∞ over the free set, where v_j is the distance
// to the bound g_j points away from (1 when that bound is infinite). It goes
// to zero both at interior minima and at minima on a bound.
func (pr *problem) scaledGradient(x []float64, grad *mat.VecDense, free []int) float64 {
	var out float64
	for _, j := range free {
		g := grad.AtVec(j)
		v := 1.0
		switch {
		case g < 0 && !math.IsInf(pr.upper[j], 1):
			v = pr.upper[j] - x[j]
		case g > 0 && !math.IsInf(pr.lower[j], -1):
			v = x[j] - pr.lower[j]
		}
		out = math.Max(out, math.Abs(v*g))
	}
	return out
}

// shortenStep scales delta in place so that no free parameter covers more
// than boundaryFraction of its gap to the bound it moves towards. Components
// already sitting on that bound are zeroed.
func (pr *problem) shortenStep(delta, x []float64, free []int) {
	alpha := 1.0
	for k, j := range free {
		var gap float64
		switch {
		case delta[k] < 0:
			gap = x[j] - pr.lower[j]
		case delta[k] > 0:
			gap = pr.upper[j] - x[j]
		default:
			continue
		}
		if gap <= 0 {
			delta[k] = 0
			continue
		}
		if reach := math.Abs(delta[k]); reach > boundaryFraction*gap {
			alpha = math.Min(alpha, boundaryFraction*gap/reach)
		}
	}
	floats.Scale(alpha, delta)
}

// predictedReduction is the cost decrease the linearised model promises for
// delta: -gᵀδ - ½·δᵀ(JᵀJ)δ over the free set.
func predictedReduction(jtj mat.Matrix, grad *mat.VecDense, free []int, delta []float64) float64 {
	var lin, quad float64
	for p, i := range free {
		lin += grad.AtVec(i) * delta[p]
		for q, j := range free {
			quad += delta[p] * jtj.At(i, j) * delta[q]
		}
	}
	return -lin - 0.5*quad
}

// freeSet returns the indices of parameters the next step may move. A
// parameter is pinned when it sits on a bound and descent would push it out.
func (pr *problem) freeSet(x []float64, grad *mat.VecDense) []int {
	free := make([]int, 0, numParams)
	for j := range x {
		g := grad.AtVec(j)
		switch {
		case pr.lower[j] == pr.upper[j]:
		case x[j] <= pr.lower[j] && g > 0:
		case x[j] >= pr.upper[j] && g < 0:
		default:
			free = append(free, j)
		}
	}
	return free
}

// dampedStep solves the reduced damped normal equations for the free indices.
// It reports false when the system cannot be factorised at this damping.
func dampedStep(jtj mat.Matrix, grad *mat.VecDense, free []int, damping float64) ([]float64, bool) {
	k := len(free)
	a := mat.NewSymDense(k, nil)
	rhs := mat.NewVecDense(k, nil)
	for p, i := range free {
		for q := p; q < k; q++ {
			a.SetSym(p, q, jtj.At(i, free[q]))
		}
		a.SetSym(p, p, a.At(p, p)+damping*math.Max(jtj.At(i, i), diagFloor))
		rhs.SetVec(p, -grad.AtVec(i))
	}

	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, false
	}
	delta := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(delta, rhs); err != nil {
		return nil, false
	}

	out := make([]float64, k)
	for p := range out {
		out[p] = delta.AtVec(p)
	}
	if floats.HasNaN(out) {
		return nil, false
	}
	return out, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
