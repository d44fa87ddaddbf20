package deltasync

import (
	"github.com/mewkiz/pkg/dbg"

	"github.com/hearthnet/deltasync/codec"
)

const maxFrame = int32(1<<31 - 1)

// localRecord tracks one object's visibility timeline to a single peer:
// the network ID it was assigned the first time it became visible, and
// the half-open frame range [frameAdded, frameRemoved) during which it
// stayed visible.
type localRecord struct {
	object       *Object
	uniqueID     int32
	frameAdded   int32
	frameRemoved int32
}

func (r *localRecord) isLive(frame int32) bool {
	return r.frameAdded <= frame && frame < r.frameRemoved
}

type visibilityChange struct {
	object  *Object
	visible bool
}

// LocalSet is the outgoing half of a Peer: it tracks which of the
// Authority's objects and events are currently visible to the remote
// end, and produces each frame's update message from that view.
type LocalSet struct {
	auth *Authority

	records       []*localRecord
	visibleEvents map[*Object]bool
	visChanges    []visibilityChange
	frameDistribs map[int32]*distribs
	ackFrames     []int32 // most recent first; the frames the remote end has acknowledged
	nextID        int32
}

func newLocalSet(auth *Authority) *LocalSet {
	return &LocalSet{
		auth:          auth,
		visibleEvents: make(map[*Object]bool),
		frameDistribs: make(map[int32]*distribs),
		nextID:        1,
	}
}

// getObjectFromUniqueID returns the object currently assigned
// uniqueID in this peer's outgoing view, or nil.
func (l *LocalSet) getObjectFromUniqueID(id int32) *Object {
	for _, r := range l.records {
		if r.uniqueID == id {
			return r.object
		}
	}
	return nil
}

// getUniqueIDFromObject returns the network ID obj was assigned in
// this peer's view as of frame, or 0 if obj wasn't visible then.
func (l *LocalSet) getUniqueIDFromObject(obj *Object, frame int32) int32 {
	for _, r := range l.records {
		if r.object == obj && r.isLive(frame) {
			return r.uniqueID
		}
	}
	return 0
}

// oldestAckFrame returns the oldest frame the remote end has
// acknowledged, or 0 if nothing has been acknowledged yet.
func (l *LocalSet) oldestAckFrame() int32 {
	if len(l.ackFrames) == 0 {
		return 0
	}
	return l.ackFrames[len(l.ackFrames)-1]
}

// onPublishFrame applies pending visibility changes as of frame and
// retires records and model snapshots that are no longer needed.
func (l *LocalSet) onPublishFrame(frame int32) {
	if l.auth == nil {
		return
	}

	for _, change := range l.visChanges {
		var existing *localRecord
		for _, r := range l.records {
			if r.object == change.object && r.isLive(frame) {
				existing = r
				break
			}
		}
		if (existing != nil) == change.visible {
			continue
		}
		if change.visible {
			l.records = append(l.records, &localRecord{object: change.object, uniqueID: l.nextID, frameAdded: frame, frameRemoved: maxFrame})
			dbg.Println("deltasync: record added, uniqueID", l.nextID, "at frame", frame)
			l.nextID++
		} else {
			existing.frameRemoved = frame
			dbg.Println("deltasync: record", existing.uniqueID, "removed at frame", frame)
		}
	}
	l.visChanges = nil

	oldestAck := l.oldestAckFrame()
	cutoff := l.auth.frame - l.auth.protocol.maxFrameDelta
	keep := l.records[:0]
	for _, r := range l.records {
		if r.frameRemoved < oldestAck || r.frameRemoved < cutoff {
			continue
		}
		keep = append(keep, r)
	}
	l.records = keep

	keepFrom := cutoff
	if oldestAck < keepFrom {
		keepFrom = oldestAck
	}
	for f := range l.frameDistribs {
		if f < keepFrom {
			delete(l.frameDistribs, f)
		}
	}
}

// setVisibility schedules (for an object) or immediately applies (for
// an event, which has no delta-coded visibility timeline) a visibility
// change for obj. A change to an already-published event is ignored.
func (l *LocalSet) setVisibility(obj *Object, visible bool) {
	if l.auth == nil {
		return
	}
	if obj.class.isEvent {
		if obj.published {
			return
		}
		if visible {
			l.visibleEvents[obj] = true
		} else {
			delete(l.visibleEvents, obj)
		}
		return
	}
	l.visChanges = append(l.visChanges, visibilityChange{obj, visible})
}

// produceUpdate encodes this frame's update message: the frameset used
// for delta prediction, newly visible events, object creation and
// destruction since the baseline, and every currently visible object's
// field values.
func (l *LocalSet) produceUpdate(enc *codec.Encoder, peer *Peer) {
	auth := l.auth
	frameList := []int32{auth.frame}
	cutoff := auth.frame - auth.protocol.maxFrameDelta
	for _, f := range l.ackFrames {
		if f >= cutoff {
			frameList = append(frameList, f)
		}
	}
	encodeFramelist(enc, frameList, 5, auth.protocol.maxFrameDelta)
	fs := newFrameset(frameList, auth.frameState)

	var d *distribs
	if fs.previousFrame() != 0 {
		prev, ok := l.frameDistribs[fs.previousFrame()]
		if !ok {
			prev = newDistribs(auth.protocol)
		}
		d = prev.clone()
	} else {
		d = newDistribs(auth.protocol)
	}
	l.frameDistribs[fs.currentFrame()] = d

	for i := fs.previousFrame() + 1; i <= fs.currentFrame(); i++ {
		var sendEvents []*Object
		for _, e := range auth.eventHistory[i] {
			if l.visibleEvents[e] {
				sendEvents = append(sendEvents, e)
			}
		}
		d.eventCountDist.EncodeAndTally(enc, int32(len(sendEvents)))
		for _, e := range sendEvents {
			d.eventClassDist.EncodeAndTally(enc, e.class.uniqueID)
			d.encodeObjectConstants(enc, e.class, e.constState)
		}
	}

	var deletedIndices []int32
	var newObjects []*localRecord
	index := int32(0)
	for _, r := range l.records {
		switch {
		case r.isLive(fs.previousFrame()):
			if !r.isLive(fs.currentFrame()) {
				deletedIndices = append(deletedIndices, index)
			}
			index++
		case r.isLive(fs.currentFrame()):
			newObjects = append(newObjects, r)
		}
	}
	numPrevObjects := index
	d.delObjectCountDist.EncodeAndTally(enc, int32(len(deletedIndices)))
	for _, idx := range deletedIndices {
		enc.EncodeUniform(uint32(idx), uint32(numPrevObjects))
	}

	d.newObjectCountDist.EncodeAndTally(enc, int32(len(newObjects)))
	for _, r := range newObjects {
		d.objectClassDist.EncodeAndTally(enc, r.object.class.uniqueID)
		d.uniqueIDDist.EncodeAndTally(enc, r.uniqueID)
		d.encodeObjectConstants(enc, r.object.class, r.object.constState)
	}

	state := auth.frameState[fs.currentFrame()]
	var prevRefs []*Object
	if fs.previousFrame() != 0 {
		prevRefs = auth.frameRefs[fs.previousFrame()]
	}
	refs := auth.frameRefs[fs.currentFrame()]
	for _, r := range l.records {
		if !r.isLive(fs.currentFrame()) {
			continue
		}
		fs.encodeAndTallyObject(enc, d, r.object.class, r.object.varOffset, r.frameAdded, state)

		for _, field := range r.object.class.varRefs {
			offset := r.object.refOffset + field.dataOffset
			value := refs[offset]
			var prevValue *Object
			if r.isLive(fs.previousFrame()) {
				prevValue = prevRefs[offset]
			}
			id := peer.getNetID(value, fs.currentFrame())
			prevID := peer.getNetID(prevValue, fs.previousFrame())
			d.uniqueIDDist.EncodeAndTally(enc, id-prevID)
		}
	}
}

// consumeResponse applies an incoming acknowledgement framelist,
// keeping only the most recent one received.
func (l *LocalSet) consumeResponse(dec *codec.Decoder) {
	if l.auth == nil {
		return
	}
	newAck := decodeFramelist(dec, 4, l.auth.protocol.maxFrameDelta)
	if len(newAck) == 0 {
		return
	}
	if len(l.ackFrames) == 0 || l.ackFrames[0] < newAck[0] {
		l.ackFrames = newAck
	}
}

// purgeReferences detaches this LocalSet from its Authority, e.g. when
// the Authority is torn down while peers are still connected.
func (l *LocalSet) purgeReferences() {
	l.auth = nil
	l.records = nil
	l.visibleEvents = nil
	l.visChanges = nil
}
