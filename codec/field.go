package codec

// FieldDistribution adaptively codes one object field's value across
// frames. It holds five IntegerDistributions, one per CurvePredictor
// order (zero, constant, linear, quadratic, cubic): at encode time the
// cheapest of the distributions whose predictor order the available
// sample count supports is used to code the prediction residual, and
// every other candidate distribution is tallied against its own
// (unused) residual anyway, so both sides track every model identically
// regardless of which one got used.
type FieldDistribution struct {
	dists [5]*IntegerDistribution
}

// NewFieldDistribution returns a FieldDistribution with five fresh,
// unbiased IntegerDistributions.
func NewFieldDistribution() *FieldDistribution {
	var f FieldDistribution
	for i := range f.dists {
		f.dists[i] = NewIntegerDistribution()
	}
	return &f
}

// Clone returns an independent copy.
func (f *FieldDistribution) Clone() *FieldDistribution {
	var c FieldDistribution
	for i, d := range f.dists {
		c.dists[i] = d.Clone()
	}
	return &c
}

// GetBestDistribution picks, among dists[0..sampleCount], the one with
// the lowest expected coding cost.
func (f *FieldDistribution) GetBestDistribution(sampleCount int) int {
	best := 0
	bestCost := f.dists[0].ExpectedCost()
	for i := 1; i <= sampleCount; i++ {
		if cost := f.dists[i].ExpectedCost(); cost < bestCost {
			best = i
			bestCost = cost
		}
	}
	return best
}

// EncodeAndTally encodes value's residual against the best of
// dists[0..sampleCount] (by predictors[best](prevValues)), then tallies
// every other candidate distribution's residual so both sides' models
// stay in lockstep.
func (f *FieldDistribution) EncodeAndTally(enc *Encoder, value int32, prevValues [4]int32, predictors [5]CurvePredictor, sampleCount int) {
	best := f.GetBestDistribution(sampleCount)
	f.dists[best].EncodeAndTally(enc, value-predictors[best].Predict(prevValues))
	for i := 0; i <= sampleCount; i++ {
		if i != best {
			f.dists[i].Tally(value - predictors[i].Predict(prevValues))
		}
	}
}

// DecodeAndTally decodes a value encoded by EncodeAndTally, tallies
// every other candidate distribution identically to the encode side,
// and returns the value.
func (f *FieldDistribution) DecodeAndTally(dec *Decoder, prevValues [4]int32, predictors [5]CurvePredictor, sampleCount int) int32 {
	best := f.GetBestDistribution(sampleCount)
	value := f.dists[best].DecodeAndTally(dec) + predictors[best].Predict(prevValues)
	for i := 0; i <= sampleCount; i++ {
		if i != best {
			f.dists[i].Tally(value - predictors[i].Predict(prevValues))
		}
	}
	return value
}
