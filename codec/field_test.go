package codec_test

import (
	"math/rand"
	"testing"

	"github.com/hearthnet/deltasync/codec"
)

func TestFieldDistributionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	predictors := [5]codec.CurvePredictor{
		codec.ZeroPredictor(),
		codec.ConstantPredictor(),
		codec.LinearPredictor(1, 2),
		codec.QuadraticPredictor(1, 2, 3),
		codec.CubicPredictor(1, 2, 3, 4),
	}

	const n = 1000
	values := make([]int32, n)
	prevs := make([][4]int32, n)
	sampleCounts := make([]int, n)

	enc := codec.NewEncoder()
	ef := codec.NewFieldDistribution()
	for i := range values {
		sc := rng.Intn(5)
		var prev [4]int32
		for j := 0; j < sc; j++ {
			prev[j] = int32(rng.Intn(200) - 100)
		}
		v := int32(rng.Intn(200) - 100)

		values[i] = v
		prevs[i] = prev
		sampleCounts[i] = sc
		ef.EncodeAndTally(enc, v, prev, predictors, sc)
	}
	buf := enc.Finish()

	dec := codec.NewDecoder(buf)
	df := codec.NewFieldDistribution()
	for i := range values {
		got := df.DecodeAndTally(dec, prevs[i], predictors, sampleCounts[i])
		if got != values[i] {
			t.Fatalf("value %d: got %d, want %d", i, got, values[i])
		}
	}
}

func TestFieldDistributionBestDistributionRespectsSampleCount(t *testing.T) {
	f := codec.NewFieldDistribution()
	// With sampleCount 0 only dists[0] is eligible.
	if got := f.GetBestDistribution(0); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
