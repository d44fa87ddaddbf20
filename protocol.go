// Package deltasync implements a delta-compressed state replication
// protocol: an authority owns a set of networked objects and events,
// and each connected peer maintains a compact per-peer view of that
// state, exchanged as small binary messages coded with an adaptive
// arithmetic coder (see the codec package).
package deltasync

// fieldKind distinguishes the three ways an int-typed field can behave.
type fieldKind int

const (
	constFieldKind fieldKind = iota
	varFieldKind
	refFieldKind
)

// Field is one integer or reference field of a Class. Constant fields
// can be set until the object's first PublishFrame and never change
// after it; variable fields are
// delta-coded every frame they're sent; reference fields are variable
// fields whose value names another object (or nil) instead of a raw
// integer.
type Field struct {
	class      *Class
	kind       fieldKind
	uniqueID   int   // dense index into the protocol-wide const/var int distribution table; unused (-1) for ref fields
	dataOffset int32 // slot offset into the class's const or var state buffer
}

// Class describes one kind of object or event: its constant fields
// (frozen at the object's first PublishFrame), variable integer fields (delta-coded per frame),
// and variable reference fields (delta-coded by object identity).
//
// Reference fields are kept in a separate slot space from integer
// fields (refSize, addressed independently of varSize) rather than
// aliased into the same byte buffer: a Go *Object and an int32 are
// different representations, and giving each its own typed buffer
// avoids the reinterpret-cast trick the reference coder uses to pack
// both into one array of bytes.
type Class struct {
	protocol    *Protocol
	isEvent     bool
	uniqueID    int
	constSize   int32
	varSize     int32
	refSize     int32
	constFields []*Field
	varFields   []*Field
	varRefs     []*Field
}

// Protocol returns the Protocol c was registered against.
func (c *Class) Protocol() *Protocol { return c.protocol }

// NewConstField registers a new constant integer field on c.
func (c *Class) NewConstField() *Field {
	f := &Field{class: c, kind: constFieldKind, uniqueID: c.protocol.numIntConstants, dataOffset: c.constSize}
	c.protocol.numIntConstants++
	c.constSize++
	c.constFields = append(c.constFields, f)
	return f
}

// NewVarField registers a new variable integer field on c, delta-coded
// every frame against up to four baseline samples.
func (c *Class) NewVarField() *Field {
	f := &Field{class: c, kind: varFieldKind, uniqueID: c.protocol.numIntFields, dataOffset: c.varSize}
	c.protocol.numIntFields++
	c.varSize++
	c.varFields = append(c.varFields, f)
	return f
}

// NewRefField registers a new variable reference field on c: a
// nullable, cross-object link delta-coded against the network ID it
// held in the previous baseline frame.
func (c *Class) NewRefField() *Field {
	f := &Field{class: c, kind: refFieldKind, uniqueID: -1, dataOffset: c.refSize}
	c.refSize++
	c.varRefs = append(c.varRefs, f)
	return f
}

// Protocol is the complete, static schema shared by an Authority and
// all of its Peers: the set of object and event classes, and the
// bound on how far back in frame history a baseline may be drawn from.
type Protocol struct {
	maxFrameDelta   int32
	numIntFields    int
	numIntConstants int
	objectClasses   []*Class
	eventClasses    []*Class
}

// NewProtocol returns an empty Protocol. maxFrameDelta bounds how many
// frames back a Frameset's baselines, and a peer's outstanding
// acknowledgements, may reach; it must be positive.
func NewProtocol(maxFrameDelta int32) *Protocol {
	if maxFrameDelta <= 0 {
		panic("deltasync: maxFrameDelta must be positive")
	}
	return &Protocol{maxFrameDelta: maxFrameDelta}
}

// NewObjectClass registers a new persistent-object class.
func (p *Protocol) NewObjectClass() *Class {
	c := &Class{protocol: p, isEvent: false, uniqueID: len(p.objectClasses)}
	p.objectClasses = append(p.objectClasses, c)
	return c
}

// NewEventClass registers a new instantaneous-event class.
func (p *Protocol) NewEventClass() *Class {
	c := &Class{protocol: p, isEvent: true, uniqueID: len(p.eventClasses)}
	p.eventClasses = append(p.eventClasses, c)
	return c
}
