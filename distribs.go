package deltasync

import "github.com/hearthnet/deltasync/codec"

// distribs bundles every adaptive probability model a peer needs to
// code one frame's worth of update against: a per-field model for each
// variable integer field in the protocol, a per-field model for each
// constant integer field, and a handful of protocol-wide models for
// event/object counts, class selection, and identifier assignment.
type distribs struct {
	intFieldDists []*codec.FieldDistribution
	intConstDists []*codec.IntegerDistribution

	eventCountDist    *codec.IntegerDistribution
	newObjectCountDist *codec.IntegerDistribution
	delObjectCountDist *codec.IntegerDistribution
	uniqueIDDist      *codec.IntegerDistribution

	objectClassDist *codec.SymbolDistribution
	eventClassDist  *codec.SymbolDistribution
}

// newDistribs returns a fresh, unbiased distribs sized for protocol p.
func newDistribs(p *Protocol) *distribs {
	d := &distribs{
		eventCountDist:     codec.NewIntegerDistribution(),
		newObjectCountDist: codec.NewIntegerDistribution(),
		delObjectCountDist: codec.NewIntegerDistribution(),
		uniqueIDDist:       codec.NewIntegerDistribution(),
		objectClassDist:    codec.NewSymbolDistribution(max1(len(p.objectClasses))),
		eventClassDist:     codec.NewSymbolDistribution(max1(len(p.eventClasses))),
	}
	d.intFieldDists = make([]*codec.FieldDistribution, p.numIntFields)
	for i := range d.intFieldDists {
		d.intFieldDists[i] = codec.NewFieldDistribution()
	}
	d.intConstDists = make([]*codec.IntegerDistribution, p.numIntConstants)
	for i := range d.intConstDists {
		d.intConstDists[i] = codec.NewIntegerDistribution()
	}
	return d
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// clone returns an independent copy, taken whenever a peer snapshots
// its model state at a frame boundary.
func (d *distribs) clone() *distribs {
	c := &distribs{
		eventCountDist:     d.eventCountDist.Clone(),
		newObjectCountDist: d.newObjectCountDist.Clone(),
		delObjectCountDist: d.delObjectCountDist.Clone(),
		uniqueIDDist:       d.uniqueIDDist.Clone(),
		objectClassDist:    d.objectClassDist.Clone(),
		eventClassDist:     d.eventClassDist.Clone(),
	}
	c.intFieldDists = make([]*codec.FieldDistribution, len(d.intFieldDists))
	for i, fd := range d.intFieldDists {
		c.intFieldDists[i] = fd.Clone()
	}
	c.intConstDists = make([]*codec.IntegerDistribution, len(d.intConstDists))
	for i, id := range d.intConstDists {
		c.intConstDists[i] = id.Clone()
	}
	return c
}

// encodeObjectConstants encodes every constant field of cl's state,
// which must be a slice of exactly cl.constSize int32 values.
func (d *distribs) encodeObjectConstants(enc *codec.Encoder, cl *Class, state []int32) {
	for _, f := range cl.constFields {
		d.intConstDists[f.uniqueID].EncodeAndTally(enc, state[f.dataOffset])
	}
}

// decodeObjectConstants decodes a constant-field state buffer encoded
// by encodeObjectConstants.
func (d *distribs) decodeObjectConstants(dec *codec.Decoder, cl *Class) []int32 {
	state := make([]int32, cl.constSize)
	for _, f := range cl.constFields {
		state[f.dataOffset] = d.intConstDists[f.uniqueID].DecodeAndTally(dec)
	}
	return state
}
