package codec_test

import (
	"math/rand"
	"testing"

	"github.com/hearthnet/deltasync/codec"
)

func TestIntegerDistributionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	const n = 3000
	want := make([]int32, n)
	enc := codec.NewEncoder()
	ed := codec.NewIntegerDistribution()
	for i := range want {
		v := int32(rng.Intn(2001) - 1000)
		want[i] = v
		ed.EncodeAndTally(enc, v)
	}
	buf := enc.Finish()

	dec := codec.NewDecoder(buf)
	dd := codec.NewIntegerDistribution()
	for i, w := range want {
		got := dd.DecodeAndTally(dec)
		if got != w {
			t.Fatalf("value %d: got %d, want %d", i, got, w)
		}
	}
}

func TestIntegerDistributionExtremes(t *testing.T) {
	values := []int32{0, -1, 1, -2, 2147483647, -2147483648}

	enc := codec.NewEncoder()
	ed := codec.NewIntegerDistribution()
	for _, v := range values {
		ed.EncodeAndTally(enc, v)
	}
	buf := enc.Finish()

	dec := codec.NewDecoder(buf)
	dd := codec.NewIntegerDistribution()
	for i, want := range values {
		got := dd.DecodeAndTally(dec)
		if got != want {
			t.Fatalf("value %d: got %d, want %d", i, got, want)
		}
	}
}
