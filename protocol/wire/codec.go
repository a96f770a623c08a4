// Package wire implements the binary encoding shared by keylink clients
// and nodes: length-prefixed strings and byte arrays, big-endian 4-byte
// counts and single-byte booleans.
//
// Every length read from the wire is checked against the maximum of its
// field and against the bytes actually remaining before anything is
// allocated or copied. Violations fail with protocol.ErrMalformedResponse.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/keylink-sys/keylink-go/protocol"
)

// intSize is the size of a count or length prefix on the wire.
const intSize = 4

// A Writer accumulates an encoded payload.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return new(Writer)
}

// WriteInt writes n as a 4-byte big-endian integer.
func (w *Writer) WriteInt(n int) error {
	if n < 0 || n > math.MaxInt32 {
		return fmt.Errorf("int %d out of range", n)
	}
	var b [intSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	w.buf.Write(b[:])
	return nil
}

// WriteBool writes b as a single byte.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteBytes writes data prefixed with its length.
func (w *Writer) WriteBytes(data []byte) error {
	if err := w.WriteInt(len(data)); err != nil {
		return err
	}
	w.buf.Write(data)
	return nil
}

// WriteString writes the UTF-8 bytes of s prefixed with their length.
func (w *Writer) WriteString(s string) error {
	return w.WriteBytes([]byte(s))
}

// Bytes returns the encoded payload.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// A Reader decodes a payload produced by a Writer.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) next(n int) ([]byte, error) {
	if n > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes, %d left",
			protocol.ErrMalformedResponse, n, r.Remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadInt reads a 4-byte big-endian integer. Negative values are
// rejected.
func (r *Reader) ReadInt() (int, error) {
	b, err := r.next(intSize)
	if err != nil {
		return 0, err
	}
	n := int32(binary.BigEndian.Uint32(b))
	if n < 0 {
		return 0, fmt.Errorf("%w: negative int %d", protocol.ErrMalformedResponse, n)
	}
	return int(n), nil
}

// ReadBool reads a single-byte boolean; any non-zero byte is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.next(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadBytes reads a length-prefixed byte array of at most max bytes.
// The returned slice is a copy.
func (r *Reader) ReadBytes(max int) ([]byte, error) {
	n, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	if n > max {
		return nil, fmt.Errorf("%w: field of %d bytes exceeds maximum %d",
			protocol.ErrMalformedResponse, n, max)
	}
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReadString reads a length-prefixed string of at most max bytes.
func (r *Reader) ReadString(max int) (string, error) {
	b, err := r.ReadBytes(max)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCount reads an element count and checks that at least
// minElemSize bytes per element remain, so that a hostile count cannot
// drive a large allocation.
func (r *Reader) ReadCount(minElemSize int) (int, error) {
	n, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if minElemSize > 0 && n > r.Remaining()/minElemSize {
		return 0, fmt.Errorf("%w: count %d exceeds payload",
			protocol.ErrMalformedResponse, n)
	}
	return n, nil
}

// Done fails if unread bytes remain.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", protocol.ErrMalformedResponse, r.Remaining())
	}
	return nil
}

// EncodeByteArrays writes a count followed by each element
// length-prefixed.
func EncodeByteArrays(w *Writer, elems [][]byte) error {
	if err := w.WriteInt(len(elems)); err != nil {
		return err
	}
	for _, e := range elems {
		if err := w.WriteBytes(e); err != nil {
			return err
		}
	}
	return nil
}

// DecodeByteArrays reads a count followed by that many length-prefixed
// elements of at most max bytes each.
func DecodeByteArrays(r *Reader, max int) ([][]byte, error) {
	n, err := r.ReadCount(intSize)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		e, err := r.ReadBytes(max)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// EncodeChain writes a chain as a count followed by each serialized
// link.
func EncodeChain(w *Writer, chain protocol.Chain) error {
	links, err := chain.Serialize()
	if err != nil {
		return err
	}
	return EncodeByteArrays(w, links)
}

// DecodeChain reads a chain encoded by EncodeChain. Each link is bounded
// by protocol.MaxLinkSize.
func DecodeChain(r *Reader) (protocol.Chain, error) {
	raws, err := DecodeByteArrays(r, protocol.MaxLinkSize)
	if err != nil {
		return nil, err
	}
	chain := make(protocol.Chain, 0, len(raws))
	for i, raw := range raws {
		link, err := protocol.LinkFromCBOR(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: link %d: %v", protocol.ErrMalformedResponse, i, err)
		}
		chain = append(chain, link)
	}
	return chain, nil
}
