// Package codec implements the binary arithmetic coder and adaptive
// probability models that back the delta-replication wire format: a
// 32-bit range coder with underflow handling (Encoder/Decoder), and the
// symbol, integer, and curve-predicted field distributions that feed it.
package codec

import (
	"bytes"
	"errors"

	"github.com/icza/bitio"
)

// word is the coder's fixed-point code register. A 64-bit codeT would
// give a deeper coding window; 32 bits matches the reference coder.
type word = uint32

const (
	numBits = 32

	bound0 word = 0
	bound1 word = 1 << (numBits - 3) // 2^29
	bound2 word = 1 << (numBits - 2) // 2^30
	bound3 word = bound1 | bound2    // 3*2^29
	bound4 word = 1 << (numBits - 1) // 2^31

	// MaxDenom is the largest denominator Encode/Decode/EncodeUniform will
	// accept without risking the (max-min)/denom step underflowing to zero.
	MaxDenom word = bound1 - 1
)

// ErrBadRange reports a violated Encode/Decode precondition. Every caller
// in this module constructs ranges that satisfy the precondition by
// construction, so hitting this is a programming error, not a runtime
// condition to handle — callers are expected to let it propagate as a
// panic rather than check for it on every call.
var ErrBadRange = errors.New("codec: invalid arithmetic coding range")

// Encoder is a binary arithmetic coder writing into an in-memory buffer.
type Encoder struct {
	buf       bytes.Buffer
	bw        *bitio.Writer
	min, max  word
	underflow int
}

// NewEncoder returns an Encoder ready to accept Encode/EncodeUniform/
// EncodeBits calls.
func NewEncoder() *Encoder {
	e := &Encoder{min: bound0, max: bound4}
	e.bw = bitio.NewWriter(&e.buf)
	return e
}

func (e *Encoder) writeBit(bit int) {
	if err := e.bw.WriteBool(bit != 0); err != nil {
		// buf is an in-memory bytes.Buffer; Write never fails.
		panic(err)
	}
}

func (e *Encoder) rescale(window word) {
	e.min = (e.min - window) << 1
	e.max = (e.max - window) << 1
}

// Encode narrows the coder's interval to [a/denom, b/denom) of its
// current range. Requires 0 <= a < b <= denom <= MaxDenom.
func (e *Encoder) Encode(a, b, denom word) {
	if !(a < b && b <= denom && denom <= MaxDenom) {
		panic(ErrBadRange)
	}
	step := (e.max - e.min) / denom
	e.max = e.min + step*b
	e.min = e.min + step*a

rescale:
	for {
		switch {
		case e.max <= bound2:
			e.writeBit(0)
			for ; e.underflow > 0; e.underflow-- {
				e.writeBit(1)
			}
			e.rescale(bound0)
		case bound2 <= e.min:
			e.writeBit(1)
			for ; e.underflow > 0; e.underflow-- {
				e.writeBit(0)
			}
			e.rescale(bound2)
		default:
			break rescale
		}
	}

	for bound1 <= e.min && e.max <= bound3 {
		e.rescale(bound1)
		e.underflow++
	}
}

// EncodeUniform encodes x as a single value uniformly distributed over
// [0, d).
func (e *Encoder) EncodeUniform(x, d word) {
	if !(x < d && d <= MaxDenom) {
		panic(ErrBadRange)
	}
	e.Encode(x, x+1, d)
}

// EncodeBits emits the low n bits of value as a sequence of uniformly
// distributed ranges, splitting at 28 bits so that every EncodeUniform
// call keeps denom <= MaxDenom.
func (e *Encoder) EncodeBits(value word, n int) {
	if n > 28 {
		e.EncodeBits(value, 16)
		e.EncodeBits(value>>16, n-16)
		return
	}
	mask := word(1)<<uint(n) - 1
	e.EncodeUniform(value&mask, word(1)<<uint(n))
}

// Finish flushes the coder's terminating bit and any pending partial
// byte, and returns the encoded buffer.
func (e *Encoder) Finish() []byte {
	e.writeBit(1)
	if err := e.bw.Close(); err != nil {
		panic(err)
	}
	return e.buf.Bytes()
}

// Decoder is the receiving half of Encoder; it must observe exactly the
// same sequence of Decode/Confirm (or helper) calls that the encoder
// made of Encode calls, in the same order, for both sides to agree.
type Decoder struct {
	br       *bitio.Reader
	min, max word
	code     word
	step     word
}

// NewDecoder returns a Decoder reading from data. Reads past the end of
// data yield zero bits rather than an error — a truncated or malformed
// buffer degrades gracefully instead of panicking, since packets that
// never arrived in full are a normal occurrence on an unreliable
// transport.
func NewDecoder(data []byte) *Decoder {
	d := &Decoder{min: bound0, max: bound4}
	d.br = bitio.NewReader(bytes.NewReader(data))
	for i := 0; i < numBits-1; i++ {
		d.code = (d.code << 1) | d.readBit()
	}
	return d
}

func (d *Decoder) readBit() word {
	bit, err := d.br.ReadBool()
	if err != nil {
		return 0
	}
	if bit {
		return 1
	}
	return 0
}

func (d *Decoder) rescale(window word) {
	d.min = (d.min - window) << 1
	d.max = (d.max - window) << 1
	d.code = ((d.code - window) << 1) | d.readBit()
}

// Decode returns x such that x/denom lies in the interval encoded by the
// matching Encode(a, b, denom) call; the caller must follow up with
// Confirm(a, b) to advance the coder identically to the encoder.
func (d *Decoder) Decode(denom word) word {
	if denom == 0 || denom > MaxDenom {
		panic(ErrBadRange)
	}
	d.step = (d.max - d.min) / denom
	return (d.code - d.min) / d.step
}

// Confirm narrows the coder's interval to [a, b) of the denom passed to
// the preceding Decode call, mirroring the encoder's Encode(a, b, denom).
func (d *Decoder) Confirm(a, b word) {
	if a >= b {
		panic(ErrBadRange)
	}
	d.max = d.min + d.step*b
	d.min = d.min + d.step*a

rescale:
	for {
		switch {
		case d.max <= bound2:
			d.rescale(bound0)
		case bound2 <= d.min:
			d.rescale(bound2)
		default:
			break rescale
		}
	}

	for bound1 <= d.min && d.max <= bound3 {
		d.rescale(bound1)
	}
}

// DecodeUniform decodes a value encoded by EncodeUniform(x, d).
func (d *Decoder) DecodeUniform(dn word) word {
	x := d.Decode(dn)
	d.Confirm(x, x+1)
	return x
}

// DecodeBits decodes n bits encoded by EncodeBits(value, n).
func (d *Decoder) DecodeBits(n int) word {
	if n > 28 {
		lo := d.DecodeBits(16)
		hi := d.DecodeBits(n - 16)
		return hi<<16 | lo
	}
	return d.DecodeUniform(word(1) << uint(n))
}
