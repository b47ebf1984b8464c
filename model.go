package nakarushton

import "math"

// Params contains the four Naka-Rushton parameters.
type Params struct {
	B  float64 `yaml:"b"`  // Baseline response at zero contrast
	Gr float64 `yaml:"gr"` // Response gain
	Gc float64 `yaml:"gc"` // Contrast gain (semi-saturation constant)
	N  float64 `yaml:"n"`  // Slope exponent
}

// Response evaluates the Naka-Rushton function at contrast c:
//
//	r(c) = Gr · cⁿ / (cⁿ + Gcⁿ) + b
//
// No validation is performed. Parameters with N ≤ 0 or Gc ≤ 0, or negative
// contrast with a fractional exponent, produce NaN/Inf per IEEE 754.
func Response(c float64, p Params) float64 {
	cn := math.Pow(c, p.N)
	return p.Gr*(cn/(cn+math.Pow(p.Gc, p.N))) + p.B
}

// ResponseCurve evaluates Response element-wise. The result has the same
// length as contrast.
func ResponseCurve(contrast []float64, p Params) []float64 {
	out := make([]float64, len(contrast))
	gn := math.Pow(p.Gc, p.N)
	for i, c := range contrast {
		cn := math.Pow(c, p.N)
		out[i] = p.Gr*(cn/(cn+gn)) + p.B
	}
	return out
}

// Response evaluates the model at contrast c.
func (p Params) Response(c float64) float64 {
	return Response(c, p)
}

// Curve evaluates the model at every contrast in cs.
func (p Params) Curve(cs []float64) []float64 {
	return ResponseCurve(cs, p)
}

// WellDefined reports whether the model is finite for every c ≥ 0.
// Response itself never checks this.
func (p Params) WellDefined() bool {
	finite := !math.IsNaN(p.B) && !math.IsInf(p.B, 0) &&
		!math.IsNaN(p.Gr) && !math.IsInf(p.Gr, 0) &&
		!math.IsInf(p.Gc, 0) && !math.IsInf(p.N, 0)
	return finite && p.N > 0 && p.Gc > 0
}

// Vector returns the parameters in solver order [b, Gr, Gc, n].
func (p Params) Vector() []float64 {
	return []float64{p.B, p.Gr, p.Gc, p.N}
}

func paramsFromVector(x []float64) Params {
	return Params{B: x[0], Gr: x[1], Gc: x[2], N: x[3]}
}

// paramNames is indexed in Vector order.
var paramNames = [numParams]string{"b", "Gr", "Gc", "n"}

const numParams = 4
