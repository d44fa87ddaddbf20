package codec

import "math"

// IntegerDistribution is an adaptive model over signed 32-bit integers.
// It buckets a value by its number of significant bits plus sign (64
// buckets total: 32 magnitudes, doubled for sign), codes the bucket
// through a SymbolDistribution, then emits the value's remaining low
// bits as raw uniformly-distributed bits.
type IntegerDistribution struct {
	dist *SymbolDistribution
}

// NewIntegerDistribution returns a fresh, unbiased IntegerDistribution.
func NewIntegerDistribution() *IntegerDistribution {
	return &IntegerDistribution{dist: NewSymbolDistribution(64)}
}

// Clone returns an independent copy.
func (d *IntegerDistribution) Clone() *IntegerDistribution {
	return &IntegerDistribution{dist: d.dist.Clone()}
}

// significantBits returns the number of bits of value, not counting the
// sign bit, required to represent it: 0 for 0 and -1, 1 for 1 and -2,
// and so on.
func significantBits(value int32) int {
	sign := int32(0)
	if value < 0 {
		sign = -1
	}
	for i := 0; i < 31; i++ {
		if value>>uint(i) == sign {
			return i
		}
	}
	return 31
}

func (d *IntegerDistribution) bucket(value int32) int {
	bits := significantBits(value)
	if value < 0 {
		return bits + 32
	}
	return bits
}

// ExpectedCost estimates the coding cost in nats of the current model,
// approximating the raw low bits' contribution as max(bits-1, 0) nats
// per value (the uniform bits cost 1 nat each under a Laplace-uniform
// assumption and are not separately modeled).
func (d *IntegerDistribution) ExpectedCost() float64 {
	var cost float64
	for bits := 0; bits < 32; bits++ {
		extra := float64(bits - 1)
		if extra < 0 {
			extra = 0
		}
		if p := d.dist.Probability(bits); p > 0 {
			cost += p * (-math.Log(p) + extra)
		}
		if p := d.dist.Probability(bits + 32); p > 0 {
			cost += p * (-math.Log(p) + extra)
		}
	}
	return cost
}

// Tally records an occurrence of value without coding it.
func (d *IntegerDistribution) Tally(value int32) {
	d.dist.Tally(d.bucket(value))
}

// EncodeAndTally encodes value against the current model, then tallies
// it.
func (d *IntegerDistribution) EncodeAndTally(enc *Encoder, value int32) {
	bits := significantBits(value)
	bucket := bits
	if value < 0 {
		bucket += 32
		value = ^value // number is now 0 or 0*1(0|1)*
	}
	d.dist.EncodeAndTally(enc, bucket)
	if bits > 0 {
		enc.EncodeBits(word(value), bits-1)
	}
}

// DecodeAndTally decodes a value encoded by EncodeAndTally, tallies it,
// and returns it.
func (d *IntegerDistribution) DecodeAndTally(dec *Decoder) int32 {
	bucket := d.dist.DecodeAndTally(dec)
	bits := bucket & 0x1F
	var value int32
	if bits > 0 {
		value = int32(dec.DecodeBits(bits-1)) | (1 << uint(bits-1))
	}
	if bucket&0x20 != 0 {
		value = ^value
	}
	return value
}
