package codec_test

import (
	"math/rand"
	"testing"

	"github.com/hearthnet/deltasync/codec"
)

func TestArithmeticUniformRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	const n = 2000
	denoms := make([]uint32, n)
	values := make([]uint32, n)
	enc := codec.NewEncoder()
	for i := 0; i < n; i++ {
		d := uint32(1 + rng.Intn(int(codec.MaxDenom)))
		x := uint32(rng.Intn(int(d)))
		denoms[i] = d
		values[i] = x
		enc.EncodeUniform(x, d)
	}
	buf := enc.Finish()

	dec := codec.NewDecoder(buf)
	for i := 0; i < n; i++ {
		got := dec.DecodeUniform(denoms[i])
		if got != values[i] {
			t.Fatalf("value %d: got %d, want %d", i, got, values[i])
		}
	}
}

func TestArithmeticBitsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	const n = 500
	widths := []int{0, 1, 7, 16, 17, 28, 29, 31, 32}
	var values []uint32
	var bits []int
	enc := codec.NewEncoder()
	for i := 0; i < n; i++ {
		w := widths[rng.Intn(len(widths))]
		var v uint32
		if w > 0 {
			v = rng.Uint32()
			if w < 32 {
				v &= (1 << uint(w)) - 1
			}
		}
		values = append(values, v)
		bits = append(bits, w)
		enc.EncodeBits(v, w)
	}
	buf := enc.Finish()

	dec := codec.NewDecoder(buf)
	for i := range values {
		got := dec.DecodeBits(bits[i])
		if got != values[i] {
			t.Fatalf("value %d (width %d): got %d, want %d", i, bits[i], got, values[i])
		}
	}
}

func TestArithmeticBadRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid range")
		}
	}()
	enc := codec.NewEncoder()
	enc.Encode(2, 1, 10)
}
