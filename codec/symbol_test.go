package codec_test

import (
	"math/rand"
	"testing"

	"github.com/hearthnet/deltasync/codec"
)

func TestSymbolDistributionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	const symbols = 12
	const n = 3000
	want := make([]int, n)
	enc := codec.NewEncoder()
	ed := codec.NewSymbolDistribution(symbols)
	for i := range want {
		// Skew toward low symbols so the adaptive model actually adapts.
		s := int(rng.ExpFloat64() * 2)
		if s >= symbols {
			s = symbols - 1
		}
		want[i] = s
		ed.EncodeAndTally(enc, s)
	}
	buf := enc.Finish()

	dec := codec.NewDecoder(buf)
	dd := codec.NewSymbolDistribution(symbols)
	for i, w := range want {
		got := dd.DecodeAndTally(dec)
		if got != w {
			t.Fatalf("symbol %d: got %d, want %d", i, got, w)
		}
	}
}

func TestSymbolDistributionProbabilitySumsToOne(t *testing.T) {
	d := codec.NewSymbolDistribution(5)
	d.Tally(2)
	d.Tally(2)
	d.Tally(4)

	var sum float64
	for i := 0; i < 5; i++ {
		sum += d.Probability(i)
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("probabilities sum to %v, want ~1", sum)
	}
}
