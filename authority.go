package deltasync

import (
	"github.com/mewkiz/pkg/dbg"

	"github.com/hearthnet/deltasync/internal/alloc"
)

// Authority owns the canonical state of every networked object and
// event for one protocol instance, advances it one discrete frame at a
// time, and fans each published frame out to every connected Peer.
type Authority struct {
	protocol *Protocol

	stateAlloc alloc.RangeAllocator
	state      []int32   // shared variable-int buffer for every live object
	refAlloc   alloc.RangeAllocator
	refs       []*Object // shared reference-field buffer for every live object

	objects       map[int32]*Object // live persistent objects, by internal ID
	pendingEvents []*Object         // events created since the last PublishFrame

	eventHistory map[int32][]*Object // frame -> events published that frame
	frameState   map[int32][]int32   // frame -> snapshot of state
	frameRefs    map[int32][]*Object // frame -> snapshot of refs

	frame  int32
	peers  []*Peer
	nextID int32
}

// NewAuthority returns an Authority with no objects, at frame 0.
func NewAuthority(p *Protocol) *Authority {
	return &Authority{
		protocol:     p,
		objects:      make(map[int32]*Object),
		eventHistory: make(map[int32][]*Object),
		frameState:   make(map[int32][]int32),
		frameRefs:    make(map[int32][]*Object),
		nextID:       1,
	}
}

// Frame returns the most recently published frame number.
func (a *Authority) Frame() int32 { return a.frame }

// CreateObject instantiates a new object or event of class cl. The
// object is invisible to every peer until a call to (*Peer).SetVisible
// makes it so.
func (a *Authority) CreateObject(cl *Class) *Object {
	if cl.protocol != a.protocol {
		panic("deltasync: class belongs to a different protocol")
	}

	obj := &Object{
		auth:       a,
		class:      cl,
		id:         a.nextID,
		constState: make([]int32, cl.constSize),
	}
	a.nextID++

	if cl.isEvent {
		a.pendingEvents = append(a.pendingEvents, obj)
		return obj
	}

	obj.varOffset = int32(a.stateAlloc.Allocate(uint32(cl.varSize)))
	if need := int(a.stateAlloc.Capacity()); need > len(a.state) {
		grown := make([]int32, need)
		copy(grown, a.state)
		a.state = grown
	}
	if cl.refSize > 0 {
		obj.refOffset = int32(a.refAlloc.Allocate(uint32(cl.refSize)))
		if need := int(a.refAlloc.Capacity()); need > len(a.refs) {
			grown := make([]*Object, need)
			copy(grown, a.refs)
			a.refs = grown
		}
	}
	a.objects[obj.id] = obj
	return obj
}

// purgeReferencesToObject clears every live object's reference fields
// that point at obj.
func (a *Authority) purgeReferencesToObject(obj *Object) {
	for _, other := range a.objects {
		for _, field := range other.class.varRefs {
			offset := other.refOffset + field.dataOffset
			if a.refs[offset] == obj {
				a.refs[offset] = nil
			}
		}
	}
}

// CreatePeer attaches a new Peer to this Authority, ready to produce
// and consume replication messages.
func (a *Authority) CreatePeer() *Peer {
	p := newPeer(a)
	a.peers = append(a.peers, p)
	return p
}

// PublishFrame advances the Authority to the next frame: every object
// created this frame is marked published, every event created this
// frame is moved into permanent frame history, and every peer's
// visibility bookkeeping is advanced. Frame state and event history
// older than every peer's oldest acknowledged frame (and older than
// maxFrameDelta) is discarded.
func (a *Authority) PublishFrame() {
	a.frame++
	dbg.Println("deltasync: publishing frame", a.frame)
	for _, obj := range a.objects {
		obj.published = true
	}
	snapshot := make([]int32, len(a.state))
	copy(snapshot, a.state)
	a.frameState[a.frame] = snapshot

	refSnapshot := make([]*Object, len(a.refs))
	copy(refSnapshot, a.refs)
	a.frameRefs[a.frame] = refSnapshot

	for _, ev := range a.pendingEvents {
		ev.published = true
	}
	a.eventHistory[a.frame] = a.pendingEvents
	a.pendingEvents = nil

	oldestAck := int32(1<<31 - 1)
	for _, p := range a.peers {
		p.local.onPublishFrame(a.frame)
		if ack := p.local.oldestAckFrame(); ack < oldestAck {
			oldestAck = ack
		}
	}

	lastFrameToKeep := a.frame - a.protocol.maxFrameDelta
	if oldestAck < lastFrameToKeep {
		lastFrameToKeep = oldestAck
	}
	if lastFrameToKeep > 0 {
		dbg.Println("deltasync: retiring frame history older than", lastFrameToKeep)
	}
	for f := range a.frameState {
		if f < lastFrameToKeep {
			delete(a.frameState, f)
		}
	}
	for f := range a.frameRefs {
		if f < lastFrameToKeep {
			delete(a.frameRefs, f)
		}
	}
	for f, evs := range a.eventHistory {
		if f >= lastFrameToKeep {
			continue
		}
		for _, e := range evs {
			for _, p := range a.peers {
				delete(p.local.visibleEvents, e)
			}
		}
		delete(a.eventHistory, f)
	}
}
