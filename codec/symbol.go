package codec

import "math"

// SymbolDistribution is an adaptive model over a fixed alphabet of K
// symbols, backed by per-symbol occurrence counts seeded at 1 (Laplace
// smoothing, so every symbol stays codeable even before it is ever
// observed).
type SymbolDistribution struct {
	counts []uint32
}

// NewSymbolDistribution returns a fresh distribution over `symbols`
// symbols, each initially equally likely.
func NewSymbolDistribution(symbols int) *SymbolDistribution {
	counts := make([]uint32, symbols)
	for i := range counts {
		counts[i] = 1
	}
	return &SymbolDistribution{counts: counts}
}

// Clone returns an independent copy, used when a peer snapshots its
// model state at the end of a frame.
func (d *SymbolDistribution) Clone() *SymbolDistribution {
	counts := make([]uint32, len(d.counts))
	copy(counts, d.counts)
	return &SymbolDistribution{counts: counts}
}

func (d *SymbolDistribution) total() uint32 {
	var sum uint32
	for _, c := range d.counts {
		sum += c
	}
	return sum
}

// Probability returns the model's current belief for `symbol`,
// including the Laplace smoothing prior.
func (d *SymbolDistribution) Probability(symbol int) float64 {
	total := d.total()
	if total == 0 {
		return 0
	}
	return float64(d.counts[symbol]) / float64(total)
}

// TrueProbability returns the model's belief excluding the smoothing
// prior — the fraction of *observed* tallies attributable to `symbol`.
func (d *SymbolDistribution) TrueProbability(symbol int) float64 {
	var total uint32
	for _, c := range d.counts {
		total += c - 1
	}
	if total == 0 {
		return 0
	}
	return float64(d.counts[symbol]-1) / float64(total)
}

// ExpectedCost estimates the entropy of the current model in nats.
// FieldDistribution does not use it: it compares
// IntegerDistribution.ExpectedCost, which adds a raw-bits term.
func (d *SymbolDistribution) ExpectedCost() float64 {
	var cost float64
	for i := range d.counts {
		if p := d.Probability(i); p > 0 {
			cost += p * -math.Log(p)
		}
	}
	return cost
}

// Tally records an occurrence of symbol without coding it.
func (d *SymbolDistribution) Tally(symbol int) {
	d.counts[symbol]++
}

// EncodeAndTally encodes symbol against the current model, then tallies
// it.
func (d *SymbolDistribution) EncodeAndTally(enc *Encoder, symbol int) {
	var a uint32
	for i := 0; i < symbol; i++ {
		a += d.counts[i]
	}
	b := a + d.counts[symbol]
	enc.Encode(a, b, d.total())
	d.Tally(symbol)
}

// DecodeAndTally decodes a symbol encoded by EncodeAndTally, tallies it,
// and returns it.
func (d *SymbolDistribution) DecodeAndTally(dec *Decoder) int {
	x := dec.Decode(d.total())
	var a uint32
	for i, c := range d.counts {
		b := a + c
		if b > x {
			dec.Confirm(a, b)
			d.Tally(i)
			return i
		}
		a = b
	}
	panic("codec: symbol distribution decode fell outside the cumulative range")
}
