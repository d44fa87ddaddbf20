package deltasync

import (
	"github.com/mewkiz/pkg/dbg"

	"github.com/hearthnet/deltasync/codec"
	"github.com/hearthnet/deltasync/internal/alloc"
)

// remoteFrame is one decoded frame's worth of view objects and the
// adaptive models used to code it, carried forward from the previous
// baseline the way Authority.PublishFrame carries its own state
// forward.
type remoteFrame struct {
	views    []*Object
	distribs *distribs
}

// RemoteSet is the incoming half of a Peer: it mirrors, as read-only
// replica Objects, whatever subset of the remote Authority's objects
// and events that Authority's LocalSet chose to make visible.
type RemoteSet struct {
	protocol *Protocol
	peer     *Peer

	stateAlloc alloc.RangeAllocator
	refAlloc   alloc.RangeAllocator

	frames      map[int32]*remoteFrame
	frameStates map[int32][]int32
	frameRefs   map[int32][]int32
	id2View     map[int32]*Object

	events      []*Object // events decoded by the most recent consumeUpdate
	latestFrame int32
}

func newRemoteSet(peer *Peer) *RemoteSet {
	return &RemoteSet{
		protocol:    peer.auth.protocol,
		peer:        peer,
		frames:      make(map[int32]*remoteFrame),
		frameStates: make(map[int32][]int32),
		frameRefs:   make(map[int32][]int32),
		id2View:     make(map[int32]*Object),
	}
}

// latestState returns the most recently decoded frame's variable
// integer state buffer.
func (r *RemoteSet) latestState() []int32 {
	return r.frameStates[r.latestFrame]
}

// latestRefs returns the most recently decoded frame's reference
// field buffer, each slot holding a signed network ID rather than a
// resolved *Object.
func (r *RemoteSet) latestRefs() []int32 {
	return r.frameRefs[r.latestFrame]
}

// getObjectFromUniqueID returns the replica currently assigned
// uniqueID, or nil if no such replica is part of the latest frame.
func (r *RemoteSet) getObjectFromUniqueID(uniqueID int32) *Object {
	view, ok := r.id2View[uniqueID]
	if !ok {
		return nil
	}
	frame, ok := r.frames[r.latestFrame]
	if !ok {
		return nil
	}
	for _, v := range frame.views {
		if v == view {
			return v
		}
	}
	delete(r.id2View, uniqueID)
	return nil
}

// getUniqueIDFromObject returns the network ID of obj if it is part
// of the latest decoded frame, or 0 otherwise.
func (r *RemoteSet) getUniqueIDFromObject(obj *Object) int32 {
	frame, ok := r.frames[r.latestFrame]
	if !ok {
		return 0
	}
	for _, v := range frame.views {
		if v == obj {
			return v.id
		}
	}
	return 0
}

// consumeUpdate decodes one update message produced by the remote
// end's LocalSet.produceUpdate: the frameset, newly visible events,
// object creation and destruction since the baseline, and every
// currently visible object's field values — including reference
// fields, which the reference coder's RemoteSet::ConsumeUpdate never
// decoded despite LocalSet::ProduceUpdate always encoding them.
func (r *RemoteSet) consumeUpdate(dec *codec.Decoder, peer *Peer) {
	r.events = nil
	frameList := decodeFramelist(dec, 5, r.protocol.maxFrameDelta)
	if len(frameList) == 0 {
		return
	}
	fs := newFrameset(frameList, r.frameStates)
	if len(r.frames) > 0 && r.latestFrame >= fs.currentFrame() {
		return // a stale or duplicate message; nothing was written for this frame
	}
	if !fs.hasRequiredBaselines() {
		dbg.Println("deltasync: dropping update citing a pruned baseline frame:", frameList)
		return // malformed or out-of-window packet; abort silently per the wire contract
	}

	frame := &remoteFrame{}
	if fs.previousFrame() != 0 {
		if prev, ok := r.frames[fs.previousFrame()]; ok {
			frame.views = append([]*Object(nil), prev.views...)
			frame.distribs = prev.distribs.clone()
		}
	}
	if frame.distribs == nil {
		frame.distribs = newDistribs(r.protocol)
	}
	r.frames[fs.currentFrame()] = frame

	mostRecentFrame := r.latestFrame
	for i := fs.previousFrame() + 1; i <= fs.currentFrame(); i++ {
		n := frame.distribs.eventCountDist.DecodeAndTally(dec)
		for j := int32(0); j < n; j++ {
			classIdx := frame.distribs.eventClassDist.DecodeAndTally(dec)
			cl := r.protocol.eventClasses[classIdx]
			constState := frame.distribs.decodeObjectConstants(dec, cl)
			if i > mostRecentFrame {
				r.events = append(r.events, &Object{class: cl, constState: constState, remote: r, peer: peer, published: true})
			}
		}
	}

	delCount := frame.distribs.delObjectCountDist.DecodeAndTally(dec)
	for i := int32(0); i < delCount; i++ {
		idx := dec.DecodeUniform(uint32(len(frame.views)))
		frame.views[idx] = nil
	}
	compacted := frame.views[:0]
	for _, v := range frame.views {
		if v != nil {
			compacted = append(compacted, v)
		}
	}
	frame.views = compacted

	newCount := frame.distribs.newObjectCountDist.DecodeAndTally(dec)
	for i := int32(0); i < newCount; i++ {
		classIdx := frame.distribs.objectClassDist.DecodeAndTally(dec)
		uniqueID := frame.distribs.uniqueIDDist.DecodeAndTally(dec)
		cl := r.protocol.objectClasses[classIdx]
		constState := frame.distribs.decodeObjectConstants(dec, cl)

		view, ok := r.id2View[uniqueID]
		if !ok {
			view = &Object{class: cl, id: uniqueID, frameAdded: fs.currentFrame(), constState: constState, remote: r, peer: peer, published: true}
			view.varOffset = int32(r.stateAlloc.Allocate(uint32(cl.varSize)))
			if cl.refSize > 0 {
				view.refOffset = int32(r.refAlloc.Allocate(uint32(cl.refSize)))
			}
			r.id2View[uniqueID] = view
		}
		frame.views = append(frame.views, view)
	}

	state := make([]int32, max1(int(r.stateAlloc.Capacity())))
	if prev := r.frameStates[fs.previousFrame()]; prev != nil {
		copy(state, prev)
	}
	refs := make([]int32, max1(int(r.refAlloc.Capacity())))
	if prev := r.frameRefs[fs.previousFrame()]; prev != nil {
		copy(refs, prev)
	}

	for _, view := range frame.views {
		fs.decodeAndTallyObject(dec, frame.distribs, view.class, view.varOffset, view.frameAdded, state)

		hadBaseline := fs.getSampleCount(view.frameAdded) > 0
		for _, field := range view.class.varRefs {
			offset := view.refOffset + field.dataOffset
			delta := frame.distribs.uniqueIDDist.DecodeAndTally(dec)
			var prevID int32
			if hadBaseline {
				prevID = refs[offset]
			}
			refs[offset] = prevID + delta
		}
	}
	r.frameStates[fs.currentFrame()] = state
	r.frameRefs[fs.currentFrame()] = refs
	r.latestFrame = fs.currentFrame()

	lastFrameToKeep := fs.currentFrame() - r.protocol.maxFrameDelta
	if fs.earliestFrame() != 0 && fs.earliestFrame() < lastFrameToKeep {
		lastFrameToKeep = fs.earliestFrame()
	}
	for f := range r.frames {
		if f < lastFrameToKeep {
			delete(r.frames, f)
		}
	}
	for f := range r.frameStates {
		if f < lastFrameToKeep {
			delete(r.frameStates, f)
		}
	}
	for f := range r.frameRefs {
		if f < lastFrameToKeep {
			delete(r.frameRefs, f)
		}
	}
	for id, v := range r.id2View {
		found := false
		for _, view := range frame.views {
			if view == v {
				found = true
				break
			}
		}
		if !found {
			delete(r.id2View, id)
		}
	}
}

// produceResponse encodes the framelist of up to four most recently
// decoded frames, acknowledging receipt to the remote end's LocalSet.
func (r *RemoteSet) produceResponse(enc *codec.Encoder) {
	n := len(r.frames)
	if n > 4 {
		n = 4
	}
	ackFrames := make([]int32, 0, n)
	for f := r.latestFrame; len(ackFrames) < n; f-- {
		if _, ok := r.frames[f]; ok {
			ackFrames = append(ackFrames, f)
		}
		if f == 0 {
			break
		}
	}
	encodeFramelist(enc, ackFrames, 4, r.protocol.maxFrameDelta)
}
