package deltasync

import "github.com/hearthnet/deltasync/codec"

// frameset pairs a current frame with up to four older baseline frames
// (most recent first) and the state snapshots those baselines recorded,
// and derives one CurvePredictor per polynomial order from their frame
// deltas.
type frameset struct {
	frame      int32
	prevFrames [4]int32
	prevStates [4][]int32
	predictors [5]codec.CurvePredictor
}

// newFrameset builds a frameset from frames (current frame first,
// followed by up to four baseline frames, most recent baseline first)
// and the authority's or remote replica's history of per-frame state
// snapshots.
func newFrameset(frames []int32, frameStates map[int32][]int32) frameset {
	var fs frameset
	if len(frames) > 0 {
		fs.frame = frames[0]
	}
	for i := 0; i < 4; i++ {
		if i+1 < len(frames) {
			fs.prevFrames[i] = frames[i+1]
			fs.prevStates[i] = frameStates[frames[i+1]]
		}
	}
	fs.refreshPredictors()
	return fs
}

// refreshPredictors derives predictors[0..4] from the available
// baseline frame deltas. A predictor whose order needs more baseline
// samples than are available falls back to predictors[1] (the constant
// predictor, or predictors[0] if even that lacks a sample) rather than
// to the next lower order — this mirrors the reference coder's
// RefreshPredictors exactly, including its fallback from quadratic and
// cubic straight to the constant predictor rather than to linear.
func (fs *frameset) refreshPredictors() {
	fs.predictors[0] = codec.ZeroPredictor()
	if fs.prevFrames[0] != 0 {
		fs.predictors[1] = codec.ConstantPredictor()
	} else {
		fs.predictors[1] = fs.predictors[0]
	}
	if fs.prevFrames[1] != 0 {
		fs.predictors[2] = codec.LinearPredictor(int64(fs.frame-fs.prevFrames[0]), int64(fs.frame-fs.prevFrames[1]))
	} else {
		fs.predictors[2] = fs.predictors[1]
	}
	if fs.prevFrames[2] != 0 {
		fs.predictors[3] = codec.QuadraticPredictor(int64(fs.frame-fs.prevFrames[0]), int64(fs.frame-fs.prevFrames[1]), int64(fs.frame-fs.prevFrames[2]))
	} else {
		fs.predictors[3] = fs.predictors[1]
	}
	if fs.prevFrames[3] != 0 {
		fs.predictors[4] = codec.CubicPredictor(int64(fs.frame-fs.prevFrames[0]), int64(fs.frame-fs.prevFrames[1]), int64(fs.frame-fs.prevFrames[2]), int64(fs.frame-fs.prevFrames[3]))
	} else {
		fs.predictors[4] = fs.predictors[1]
	}
}

// currentFrame returns the frame this frameset is coding.
func (fs *frameset) currentFrame() int32 { return fs.frame }

// previousFrame returns the most recent baseline frame, or 0 if none.
func (fs *frameset) previousFrame() int32 { return fs.prevFrames[0] }

// earliestFrame returns the oldest baseline frame, or 0 if fewer than
// four baselines are available.
func (fs *frameset) earliestFrame() int32 { return fs.prevFrames[3] }

// getSampleCount returns how many of the baseline frames are new enough
// to have recorded a sample for an object added on frameAdded: an
// object added after a baseline has no sample there.
func (fs *frameset) getSampleCount(frameAdded int32) int {
	for i := 4; i > 0; i-- {
		if frameAdded <= fs.prevFrames[i-1] {
			return i
		}
	}
	return 0
}

// hasRequiredBaselines reports whether every baseline frame this
// frameset's predictors rely on actually has a recorded state snapshot.
// A frame named in an incoming framelist can outrun what the local
// history still holds — the sender may be citing a baseline this end
// already pruned — and that must be caught here, before
// encodeAndTallyObject/decodeAndTallyObject index into fs.prevStates,
// rather than by indexing blindly and panicking on a nil slice.
func (fs *frameset) hasRequiredBaselines() bool {
	for i := 0; i < 4; i++ {
		if fs.prevFrames[i] != 0 && fs.prevStates[i] == nil {
			return false
		}
	}
	return true
}

// encodeAndTallyObject encodes the variable integer fields of an object
// of class cl whose variable state lives at stateOffset within state,
// added on frameAdded.
func (fs *frameset) encodeAndTallyObject(enc *codec.Encoder, d *distribs, cl *Class, stateOffset int32, frameAdded int32, state []int32) {
	sampleCount := fs.getSampleCount(frameAdded)
	for _, field := range cl.varFields {
		offset := stateOffset + field.dataOffset
		var prevValues [4]int32
		for i := 0; i < sampleCount; i++ {
			prevValues[i] = fs.prevStates[i][offset]
		}
		d.intFieldDists[field.uniqueID].EncodeAndTally(enc, state[offset], prevValues, fs.predictors, sampleCount)
	}
}

// decodeAndTallyObject decodes a variable-field state buffer encoded by
// encodeAndTallyObject, writing the decoded values into state.
func (fs *frameset) decodeAndTallyObject(dec *codec.Decoder, d *distribs, cl *Class, stateOffset int32, frameAdded int32, state []int32) {
	sampleCount := fs.getSampleCount(frameAdded)
	for _, field := range cl.varFields {
		offset := stateOffset + field.dataOffset
		var prevValues [4]int32
		for i := 0; i < sampleCount; i++ {
			prevValues[i] = fs.prevStates[i][offset]
		}
		state[offset] = d.intFieldDists[field.uniqueID].DecodeAndTally(dec, prevValues, fs.predictors, sampleCount)
	}
}
