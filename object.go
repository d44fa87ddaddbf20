package deltasync

// Object is a single persistent object or instantaneous event. It is
// owned either by an Authority (the canonical, writable copy) or by a
// Peer's RemoteSet (a read-only replica decoded from the wire) — never
// both; exactly one of auth or remote is non-nil.
type Object struct {
	class      *Class
	id         int32
	constState []int32
	varOffset  int32
	refOffset  int32
	published  bool
	destroyed  bool

	// frameAdded is the frame on which a replica was first decoded; it
	// is unused (and left zero) on an Authority-owned object, which
	// instead tracks visibility per peer via LocalSet's localRecord.
	frameAdded int32

	auth   *Authority
	remote *RemoteSet
	peer   *Peer // owning peer, set only when remote != nil
}

// Class returns o's class.
func (o *Object) Class() *Class { return o.class }

// IsReplica reports whether o is a read-only replica decoded from a
// peer's incoming updates, as opposed to an Authority-owned original.
func (o *Object) IsReplica() bool { return o.auth == nil }

func (o *Object) varState() []int32 {
	if o.auth != nil {
		return o.auth.state
	}
	return o.remote.latestState()
}

// GetInt returns the current value of field f on o. Querying a field
// that does not belong to o's class returns 0, matching the reference
// coder's silent-ignore semantics for a schema mismatch.
func (o *Object) GetInt(f *Field) int32 {
	if f.class != o.class {
		return 0
	}
	if f.kind == constFieldKind {
		return o.constState[f.dataOffset]
	}
	return o.varState()[o.varOffset+f.dataOffset]
}

// GetRef returns the object currently referenced by field f on o, or
// nil if the field holds no reference. A mismatched field returns nil.
//
// An Authority-owned object stores the reference as a direct *Object
// pointer. A replica stores it as the signed network ID the value had
// on the wire: positive IDs name one of the owning peer's own remote
// replicas, negative IDs name one of the owning peer's local objects,
// and zero means nil.
func (o *Object) GetRef(f *Field) *Object {
	if f.class != o.class || f.kind != refFieldKind {
		return nil
	}
	if o.auth != nil {
		return o.auth.refs[o.refOffset+f.dataOffset]
	}
	id := o.remote.latestRefs()[o.refOffset+f.dataOffset]
	switch {
	case id > 0:
		return o.peer.remote.getObjectFromUniqueID(id)
	case id < 0:
		return o.peer.local.getObjectFromUniqueID(-id)
	default:
		return nil
	}
}

// SetInt sets field f on o to value. A constant field can only be set
// before o's first PublishFrame; a mismatched field is silently
// ignored. SetInt panics on a replicated (read-only) object.
func (o *Object) SetInt(f *Field, value int32) {
	o.requireWritable()
	if f.class != o.class {
		return
	}
	switch f.kind {
	case constFieldKind:
		if !o.published {
			o.constState[f.dataOffset] = value
		}
	case varFieldKind:
		o.auth.state[o.varOffset+f.dataOffset] = value
	default:
		panic("deltasync: SetInt called with a reference field")
	}
}

// SetRef sets reference field f on o to point at value (nil clears
// it). SetRef panics on a replicated (read-only) object.
func (o *Object) SetRef(f *Field, value *Object) {
	o.requireWritable()
	if f.class != o.class || f.kind != refFieldKind {
		return
	}
	o.auth.refs[o.refOffset+f.dataOffset] = value
}

func (o *Object) requireWritable() {
	if o.auth == nil {
		panic("deltasync: cannot modify a replicated object")
	}
}

// Destroy removes o from its Authority: any peer currently showing o
// as visible is notified, any reference field elsewhere pointing at o
// is cleared, and o's variable-state slots are returned to the
// allocator. Destroy panics on a replicated object; a RemoteSet
// retires its own replicas automatically as frames expire.
func (o *Object) Destroy() {
	o.requireWritable()
	if o.destroyed {
		return
	}
	auth := o.auth
	o.destroyed = true

	auth.purgeReferencesToObject(o)
	for _, p := range auth.peers {
		p.local.setVisibility(o, false)
	}

	if o.class.isEvent {
		if !o.published {
			for i, e := range auth.pendingEvents {
				if e == o {
					auth.pendingEvents = append(auth.pendingEvents[:i], auth.pendingEvents[i+1:]...)
					break
				}
			}
		}
		return
	}

	delete(auth.objects, o.id)
	auth.stateAlloc.Free(uint32(o.varOffset), uint32(o.class.varSize))
	if o.class.refSize > 0 {
		auth.refAlloc.Free(uint32(o.refOffset), uint32(o.class.refSize))
	}
}
