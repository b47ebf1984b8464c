package nakarushton

import (
	"log/slog"
	"math"
)

// FitConfig controls parameter estimation.
type FitConfig struct {
	Init  Params `yaml:"init"`  // Starting point of the search
	Lower Params `yaml:"lower"` // Component-wise lower bounds
	Upper Params `yaml:"upper"` // Component-wise upper bounds

	MaxIterations int     `yaml:"max_iterations"` // Solver iteration cap
	FTol          float64 `yaml:"ftol"`           // Relative cost-reduction tolerance
	XTol          float64 `yaml:"xtol"`           // Relative step tolerance
	GTol          float64 `yaml:"gtol"`           // Projected gradient tolerance

	Logger *slog.Logger `yaml:"-"` // nil = discard
}

// DefaultFitConfig returns the conventional starting point and bounds:
//
//	init  = [b=0,   Gr=1,  Gc=50,  n=3]
//	lower = [b=-10, Gr=0,  Gc=0,   n=0.1]
//	upper = [b=10,  Gr=10, Gc=100, n=10]
func DefaultFitConfig() FitConfig {
	return FitConfig{
		Init:          Params{B: 0, Gr: 1, Gc: 50, N: 3},
		Lower:         Params{B: -10, Gr: 0, Gc: 0, N: 0.1},
		Upper:         Params{B: 10, Gr: 10, Gc: 100, N: 10},
		MaxIterations: 1000,
		FTol:          1e-8,
		XTol:          1e-8,
		GTol:          1e-8,
	}
}

// FitResult contains the fitted parameters and their derived statistics.
type FitResult struct {
	Params
	Stats

	Iterations  int     // Solver iterations used
	Cost        float64 // ½·Σ residual² at the solution
	Termination string  // Which criterion stopped the solver
}

// Fit estimates the Naka-Rushton parameters from (contrast, resp) pairs by
// bounded nonlinear least squares, starting from cfg.Init and staying within
// [cfg.Lower, cfg.Upper].
//
// The solution is a local minimum; the model family can have several, so a
// poor starting point may land in the wrong one. All failures are returned
// as *FittingError with no partial result.
func Fit(contrast, resp []float64, cfg FitConfig) (FitResult, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := validateFit(contrast, resp, cfg); err != nil {
		logger.Warn("fit rejected", "err", err)
		return FitResult{}, err
	}

	pr := &problem{
		contrast: contrast,
		resp:     resp,
		lower:    cfg.Lower.Vector(),
		upper:    cfg.Upper.Vector(),
	}
	sol, err := solve(pr, cfg.Init.Vector(), solverSettings{
		maxIterations: cfg.MaxIterations,
		ftol:          cfg.FTol,
		xtol:          cfg.XTol,
		gtol:          cfg.GTol,
	})
	if err != nil {
		logger.Warn("fit failed", "points", len(contrast), "err", err)
		return FitResult{}, err
	}

	params := paramsFromVector(sol.x)
	result := FitResult{
		Params:      params,
		Stats:       ComputeStats(params),
		Iterations:  sol.iterations,
		Cost:        sol.cost,
		Termination: sol.termination,
	}

	logger.Debug("fit converged",
		"points", len(contrast),
		"iterations", sol.iterations,
		"termination", sol.termination,
		"cost", sol.cost,
		"b", params.B, "Gr", params.Gr, "Gc", params.Gc, "n", params.N,
		"Rmax", result.Rmax, "C50", result.C50,
	)

	return result, nil
}

// validateFit checks everything the solver assumes about its input.
func validateFit(contrast, resp []float64, cfg FitConfig) error {
	if len(contrast) != len(resp) {
		return fitErrorf(ErrLengthMismatch, "%d contrasts, %d responses", len(contrast), len(resp))
	}
	if len(contrast) < numParams {
		return fitErrorf(ErrTooFewPoints, "got %d, need at least %d", len(contrast), numParams)
	}
	for i := range contrast {
		if !isFinite(contrast[i]) || !isFinite(resp[i]) {
			return fitErrorf(ErrNonFinite, "data point %d: contrast=%v resp=%v", i, contrast[i], resp[i])
		}
	}
	if cfg.MaxIterations <= 0 {
		return fitErrorf(ErrNoConvergence, "iteration cap %d leaves no budget", cfg.MaxIterations)
	}

	init, lower, upper := cfg.Init.Vector(), cfg.Lower.Vector(), cfg.Upper.Vector()
	for j, name := range paramNames {
		if math.IsNaN(lower[j]) || math.IsNaN(upper[j]) || lower[j] > upper[j] {
			return fitErrorf(ErrInvalidBounds, "%s: lower=%v upper=%v", name, lower[j], upper[j])
		}
	}
	for j, name := range paramNames {
		if !isFinite(init[j]) || init[j] < lower[j] || init[j] > upper[j] {
			return fitErrorf(ErrInitOutOfBounds, "%s=%v not in [%v, %v]", name, init[j], lower[j], upper[j])
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
