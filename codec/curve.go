package codec

// CurvePredictor extrapolates the next sample of an integer time series
// from up to four prior samples, fit to a polynomial of degree 0-3. It
// is built once per predictor kind (see ZeroPredictor..CubicPredictor
// below) from the sample times involved, then reused across every field
// sharing that time alignment.
//
// The four coefficients and shared denominator come from inverting a
// 4x4 Vandermonde-like matrix built from the sample times via cofactor
// expansion, so evaluation stays exact integer arithmetic: predicting a
// value is (c0*s0+c1*s1+c2*s2+c3*s3)/denom, where s0 is the most recent
// sample and unused coefficients are zero.
type CurvePredictor struct {
	c0, c1, c2, c3 int64
	denom          int64
}

// newCurvePredictor builds a CurvePredictor from the 4x4 matrix m by
// Cramer's-rule cofactor expansion along column 0, exactly as the
// reference coder does. Row i of m encodes the i'th basis equation;
// column 0 is always the "which predictor slot are we solving for"
// column, fixed to the patterns the *Predictor constructors below pass
// in.
func newCurvePredictor(m [4][4]int64) CurvePredictor {
	c0 := m[1][1]*m[2][2]*m[3][3] + m[3][1]*m[1][2]*m[2][3] + m[2][1]*m[3][2]*m[1][3] -
		m[1][1]*m[3][2]*m[2][3] - m[2][1]*m[1][2]*m[3][3] - m[3][1]*m[2][2]*m[1][3]
	c1 := m[0][1]*m[3][2]*m[2][3] + m[2][1]*m[0][2]*m[3][3] + m[3][1]*m[2][2]*m[0][3] -
		m[3][1]*m[0][2]*m[2][3] - m[2][1]*m[3][2]*m[0][3] - m[0][1]*m[2][2]*m[3][3]
	c2 := m[0][1]*m[1][2]*m[3][3] + m[3][1]*m[0][2]*m[1][3] + m[1][1]*m[3][2]*m[0][3] -
		m[0][1]*m[3][2]*m[1][3] - m[1][1]*m[0][2]*m[3][3] - m[3][1]*m[1][2]*m[0][3]
	c3 := m[0][1]*m[2][2]*m[1][3] + m[1][1]*m[0][2]*m[2][3] + m[2][1]*m[1][2]*m[0][3] -
		m[0][1]*m[1][2]*m[2][3] - m[2][1]*m[0][2]*m[1][3] - m[1][1]*m[2][2]*m[0][3]
	denom := m[0][0]*(m[1][1]*m[2][2]*m[3][3]+m[3][1]*m[1][2]*m[2][3]+m[2][1]*m[3][2]*m[1][3]-
		m[1][1]*m[3][2]*m[2][3]-m[2][1]*m[1][2]*m[3][3]-m[3][1]*m[2][2]*m[1][3]) +
		m[0][1]*(m[1][2]*m[3][3]*m[2][0]+m[2][2]*m[1][3]*m[3][0]+m[3][2]*m[2][3]*m[1][0]-
			m[1][2]*m[2][3]*m[3][0]-m[3][2]*m[1][3]*m[2][0]-m[2][2]*m[3][3]*m[1][0]) +
		m[0][2]*(m[1][3]*m[2][0]*m[3][1]+m[3][3]*m[1][0]*m[2][1]+m[2][3]*m[3][0]*m[1][1]-
			m[1][3]*m[3][0]*m[2][1]-m[2][3]*m[1][0]*m[3][1]-m[3][3]*m[2][0]*m[1][1]) +
		m[0][3]*(m[1][0]*m[3][1]*m[2][2]+m[2][0]*m[1][1]*m[3][2]+m[3][0]*m[2][1]*m[1][2]-
			m[1][0]*m[2][1]*m[3][2]-m[3][0]*m[1][1]*m[2][2]-m[2][0]*m[3][1]*m[1][2])
	return CurvePredictor{c0: c0, c1: c1, c2: c2, c3: c3, denom: denom}
}

// ZeroPredictor always predicts zero, used when no baseline sample is
// available at all.
func ZeroPredictor() CurvePredictor {
	return CurvePredictor{denom: 1}
}

// ConstantPredictor predicts the most recent sample unchanged.
func ConstantPredictor() CurvePredictor {
	return newCurvePredictor([4][4]int64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
}

// LinearPredictor fits a degree-1 polynomial through the samples taken
// at frame offsets t0 (most recent) and t1.
func LinearPredictor(t0, t1 int64) CurvePredictor {
	return newCurvePredictor([4][4]int64{
		{1, t0, 0, 0},
		{1, t1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
}

// QuadraticPredictor fits a degree-2 polynomial through samples taken at
// t0, t1, t2.
func QuadraticPredictor(t0, t1, t2 int64) CurvePredictor {
	return newCurvePredictor([4][4]int64{
		{1, t0, t0 * t0, 0},
		{1, t1, t1 * t1, 0},
		{1, t2, t2 * t2, 0},
		{0, 0, 0, 1},
	})
}

// CubicPredictor fits a degree-3 polynomial through samples taken at
// t0, t1, t2, t3.
func CubicPredictor(t0, t1, t2, t3 int64) CurvePredictor {
	return newCurvePredictor([4][4]int64{
		{1, t0, t0 * t0, t0 * t0 * t0},
		{1, t1, t1 * t1, t1 * t1 * t1},
		{1, t2, t2 * t2, t2 * t2 * t2},
		{1, t3, t3 * t3, t3 * t3 * t3},
	})
}

// Predict extrapolates the next sample from up to four prior samples
// (samples[0] most recent). Predictors built from fewer samples (see
// ZeroPredictor..CubicPredictor) carry zero coefficients for the unused
// slots, so passing extra trailing samples beyond what a predictor was
// built from is harmless.
func (p CurvePredictor) Predict(samples [4]int32) int32 {
	v := p.c0*int64(samples[0]) + p.c1*int64(samples[1]) + p.c2*int64(samples[2]) + p.c3*int64(samples[3])
	return int32(v / p.denom)
}
