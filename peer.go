package deltasync

import (
	"go.uber.org/atomic"

	"github.com/mewkiz/pkg/dbg"

	"github.com/hearthnet/deltasync/codec"
)

// Peer pairs one outgoing LocalSet with one incoming RemoteSet over a
// single arithmetic-coded byte stream: each message sent or received
// through this Peer is one codec.Encoder (or codec.Decoder) stream
// carrying the acknowledgement and the update back to back.
type Peer struct {
	auth   *Authority
	local  *LocalSet
	remote *RemoteSet

	messagesProduced atomic.Uint64
	messagesConsumed atomic.Uint64
	bytesProduced    atomic.Uint64
	bytesConsumed    atomic.Uint64
}

func newPeer(auth *Authority) *Peer {
	p := &Peer{auth: auth}
	p.local = newLocalSet(auth)
	p.remote = newRemoteSet(p)
	return p
}

// SetVisible marks obj as visible or invisible to this peer. Events are
// a one-shot visibility flag; objects are delta-coded visibility
// timelines handled at the next PublishFrame.
func (p *Peer) SetVisible(obj *Object, visible bool) {
	p.local.setVisibility(obj, visible)
}

// GetRemoteObjects returns every replica of the most recently decoded
// frame, plus the events this peer's RemoteSet decoded out of the most
// recently consumed message (none if that message was dropped).
func (p *Peer) GetRemoteObjects() []*Object {
	var objs []*Object
	if frame, ok := p.remote.frames[p.remote.latestFrame]; ok {
		objs = append(objs, frame.views...)
	}
	return append(objs, p.remote.events...)
}

// getNetID resolves obj to the signed wire ID this peer would use to
// refer to it as of frame: positive if obj is visible in this peer's
// own LocalSet, negative if it's one of this peer's RemoteSet replicas
// (naming it back to its owning authority), 0 for nil or unknown.
func (p *Peer) getNetID(obj *Object, frame int32) int32 {
	if obj == nil {
		return 0
	}
	if id := p.local.getUniqueIDFromObject(obj, frame); id != 0 {
		return id
	}
	if id := p.remote.getUniqueIDFromObject(obj); id != 0 {
		return -id
	}
	return 0
}

// ProduceMessage encodes one outgoing message: an acknowledgement of
// the frames this peer's RemoteSet has most recently decoded, followed
// by this peer's LocalSet's update for the Authority's current frame.
func (p *Peer) ProduceMessage() []byte {
	if p.auth == nil {
		return nil
	}
	enc := codec.NewEncoder()
	p.remote.produceResponse(enc)
	p.local.produceUpdate(enc, p)
	data := enc.Finish()
	p.messagesProduced.Inc()
	p.bytesProduced.Add(uint64(len(data)))
	dbg.Println("deltasync: produced message", p.messagesProduced.Load(), "-", len(data), "bytes")
	return data
}

// ConsumeMessage decodes a message produced by the remote end's
// ProduceMessage: first the acknowledgement of this peer's LocalSet's
// frames, then the remote end's update into this peer's RemoteSet.
func (p *Peer) ConsumeMessage(data []byte) {
	dec := codec.NewDecoder(data)
	p.local.consumeResponse(dec)
	p.remote.consumeUpdate(dec, p)
	p.messagesConsumed.Inc()
	p.bytesConsumed.Add(uint64(len(data)))
	dbg.Println("deltasync: consumed message", p.messagesConsumed.Load(), "-", len(data), "bytes")
}

// MessagesProduced reports how many messages ProduceMessage has built.
func (p *Peer) MessagesProduced() uint64 { return p.messagesProduced.Load() }

// MessagesConsumed reports how many messages ConsumeMessage has applied.
func (p *Peer) MessagesConsumed() uint64 { return p.messagesConsumed.Load() }

// BytesProduced reports the total size of every message ProduceMessage
// has built.
func (p *Peer) BytesProduced() uint64 { return p.bytesProduced.Load() }

// BytesConsumed reports the total size of every message ConsumeMessage
// has applied.
func (p *Peer) BytesConsumed() uint64 { return p.bytesConsumed.Load() }

// Close detaches this peer from its Authority; after Close, its
// LocalSet stops accumulating visibility changes.
func (p *Peer) Close() {
	p.local.purgeReferences()
	p.auth = nil
}
