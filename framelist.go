package deltasync

import "github.com/hearthnet/deltasync/codec"

// encodeFramelist writes frames (most recent first) as a count followed
// by the first frame number in full and every subsequent frame as a
// delta from its predecessor, uniformly coded against a shrinking
// maxFrameDelta budget so the deltas never need more range than is
// actually left to spend.
func encodeFramelist(enc *codec.Encoder, frames []int32, maxFrames int, maxFrameDelta int32) {
	if len(frames) > maxFrames {
		panic("deltasync: too many frames for framelist")
	}
	enc.EncodeUniform(uint32(len(frames)), uint32(maxFrames+1))
	if len(frames) == 0 {
		return
	}
	enc.EncodeBits(uint32(frames[0]), 32)
	budget := maxFrameDelta
	for i := 1; i < len(frames); i++ {
		delta := frames[i-1] - frames[i]
		enc.EncodeUniform(uint32(delta), uint32(budget+1))
		budget -= delta
	}
}

// decodeFramelist decodes a framelist written by encodeFramelist.
func decodeFramelist(dec *codec.Decoder, maxFrames int, maxFrameDelta int32) []int32 {
	n := dec.DecodeUniform(uint32(maxFrames + 1))
	if n == 0 {
		return nil
	}
	frames := make([]int32, 0, n)
	frames = append(frames, int32(dec.DecodeBits(32)))
	budget := maxFrameDelta
	for i := uint32(1); i < n; i++ {
		delta := int32(dec.DecodeUniform(uint32(budget + 1)))
		frames = append(frames, frames[len(frames)-1]-delta)
		budget -= delta
	}
	return frames
}
