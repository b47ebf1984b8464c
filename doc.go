// Package nakarushton fits the Naka-Rushton contrast-response function.
//
// # Overview
//
// The Naka-Rushton function describes how a neural or behavioural response
// grows with stimulus contrast:
//
//	r(c) = Gr · cⁿ / (cⁿ + Gcⁿ) + b
//
// Where:
//   - b:  Baseline (response at zero contrast)
//   - Gr: Response gain (amplitude above baseline)
//   - Gc: Contrast gain (semi-saturation constant)
//   - n:  Slope (steepness of the transition)
//   - c:  Stimulus contrast, usually in [0, 100]
//
// The package components:
//
//   - model.go  - Function evaluation (scalar and element-wise)
//   - stats.go  - Derived statistics Rmax and C50
//   - fit.go    - Bounded nonlinear least-squares parameter estimation
//   - config.go - YAML overrides for the fit configuration
//
// # Quick Start
//
// Fit measured responses:
//
//	contrast := []float64{0, 2, 4, 8, 16, 32, 64, 100}
//	resp := []float64{0.1, 0.12, 0.2, 0.5, 1.3, 2.4, 2.9, 3.0}
//
//	res, err := nakarushton.Fit(contrast, resp, nakarushton.DefaultFitConfig())
//	if err != nil {
//	    var fe *nakarushton.FittingError
//	    if errors.As(err, &fe) && errors.Is(fe.Reason, nakarushton.ErrNoConvergence) {
//	        log.Printf("no convergence (%s), retrying from another start", fe.Detail)
//	        // cfg.Init = ...; res, err = nakarushton.Fit(contrast, resp, cfg)
//	    }
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("b=%.3f Gr=%.3f Gc=%.3f n=%.3f\n", res.B, res.Gr, res.Gc, res.N)
//	fmt.Printf("Rmax=%.3f C50=%.3f\n", res.Rmax, res.C50)
//
// # Derived statistics
//
// Rmax is the response at 100% contrast minus the baseline. C50 is the
// contrast at which the response is halfway between the baseline and the
// 100% response. C50 equals Gc only when the curve has saturated by 100%
// contrast; otherwise it sits below Gc.
//
// C50 scans a 0.001-step grid. C50Analytic inverts the model in closed form
// and agrees with the grid to within half a step.
//
// # Degenerate parameters
//
// Evaluation never validates. N ≤ 0 or Gc ≤ 0 yield NaN/Inf wherever IEEE 754
// says so; use Params.WellDefined to check first. Fit keeps parameters inside
// the configured bounds and reports malformed input as *FittingError.
// Iterates stay strictly inside the bounds they start inside, and a solver
// that stalls away from a stationary point reports ErrNoConvergence rather
// than a partial fit.
//
// # Concurrency
//
// Every function is pure; concurrent calls share nothing.
package nakarushton
