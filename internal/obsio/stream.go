// Package obsio implements the sequential binary stream layer used by the
// observation codecs. All multi-byte values are normalized to little-endian
// on the wire regardless of host order, so archives written on one machine
// decode identically on any other.
//
// The stream is a plain byte channel: writers and readers never seek or
// peek, which keeps the layer usable over files, network connections and
// in-memory buffers alike.
package obsio

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer encodes fixed-size scalars, arrays and length-prefixed strings
// onto an io.Writer in little-endian order.
type Writer struct {
	w   io.Writer
	buf [8]byte
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(n int) error {
	_, err := w.w.Write(w.buf[:n])
	return err
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) error {
	w.buf[0] = v
	return w.write(1)
}

// WriteBool writes a boolean as one byte (0 or 1).
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

// WriteUint32 writes a 32-bit unsigned integer.
func (w *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.write(4)
}

// WriteUint64 writes a 64-bit unsigned integer.
func (w *Writer) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.write(8)
}

// WriteInt64 writes a 64-bit signed integer.
func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

// WriteFloat32 writes an IEEE-754 single-precision value.
func (w *Writer) WriteFloat32(v float32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], math.Float32bits(v))
	return w.write(4)
}

// WriteFloat64 writes an IEEE-754 double-precision value.
func (w *Writer) WriteFloat64(v float64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	return w.write(8)
}

// WriteFloat32Slice writes the elements of vec back to back with endianness
// normalization. No length prefix is written; the caller owns the count.
func (w *Writer) WriteFloat32Slice(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	out := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	_, err := w.w.Write(out)
	return err
}

// WriteBoolSlice writes one byte per flag. No length prefix is written.
func (w *Writer) WriteBoolSlice(flags []bool) error {
	if len(flags) == 0 {
		return nil
	}
	out := make([]byte, len(flags))
	for i, f := range flags {
		if f {
			out[i] = 1
		}
	}
	_, err := w.w.Write(out)
	return err
}

// WriteBytes writes a raw byte buffer verbatim.
func (w *Writer) WriteBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	_, err := w.w.Write(p)
	return err
}

// WriteString writes a uint32 length prefix followed by the raw bytes.
func (w *Writer) WriteString(s string) error {
	if err := w.WriteUint32(uint32(len(s))); err != nil {
		return err
	}
	return w.WriteBytes([]byte(s))
}

// Reader decodes the values produced by Writer from an io.Reader.
// Short reads surface as io.ErrUnexpectedEOF.
type Reader struct {
	r   io.Reader
	buf [8]byte
}

// NewReader returns a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) read(n int) error {
	_, err := io.ReadFull(r.r, r.buf[:n])
	return err
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.read(1); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadBool reads a one-byte boolean; any non-zero byte is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	return b != 0, err
}

// ReadUint32 reads a 32-bit unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.read(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// ReadUint64 reads a 64-bit unsigned integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.read(8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.buf[:8]), nil
}

// ReadInt64 reads a 64-bit signed integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads an IEEE-754 single-precision value.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE-754 double-precision value.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadFloat32Slice reads count endianness-normalized float32 values.
func (r *Reader) ReadFloat32Slice(count int) ([]float32, error) {
	if count == 0 {
		return nil, nil
	}
	raw := make([]byte, 4*count)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		return nil, err
	}
	vec := make([]float32, count)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

// ReadBoolSlice reads count one-byte flags.
func (r *Reader) ReadBoolSlice(count int) ([]bool, error) {
	if count == 0 {
		return nil, nil
	}
	raw := make([]byte, count)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		return nil, err
	}
	flags := make([]bool, count)
	for i, b := range raw {
		flags[i] = b != 0
	}
	return flags, nil
}

// ReadString reads a uint32 length prefix followed by that many bytes.
// maxLen bounds the allocation; a larger prefix is treated as corruption.
func (r *Reader) ReadString(maxLen int) (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if int(n) > maxLen {
		return "", &LengthError{Got: int(n), Max: maxLen}
	}
	if n == 0 {
		return "", nil
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// Discard consumes and throws away exactly n bytes. It is the primitive
// behind parsed-but-discarded historical fields: positional layouts cannot
// skip a dead field without knowing its exact size.
func (r *Reader) Discard(n int64) error {
	if n == 0 {
		return nil
	}
	m, err := io.CopyN(io.Discard, r.r, n)
	if err == io.EOF && m < n {
		return io.ErrUnexpectedEOF
	}
	return err
}
