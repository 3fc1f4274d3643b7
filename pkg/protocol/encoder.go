package protocol

// Encoder appends binary values to a growing buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with room for a typical mutation batch.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Reset empties the encoder, keeping its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Bytes returns the encoded bytes. The slice is valid until the next write
// or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of encoded bytes.
func (e *Encoder) Len() int { return len(e.buf) }

// WriteByte appends b. Appending to a slice cannot fail, so unlike
// io.ByteWriter it returns nothing.
func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

// WriteUvarint appends v as a varint.
func (e *Encoder) WriteUvarint(v uint64) { e.buf = AppendUvarint(e.buf, v) }

// WriteSvarint appends v as a zigzag varint.
func (e *Encoder) WriteSvarint(v int64) { e.WriteUvarint(zigzag(v)) }

// WriteString appends a varint length followed by the bytes of s.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteBool appends 0x01 or 0x00.
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.WriteByte(1)
		return
	}
	e.WriteByte(0)
}

// WriteUint16 appends v big-endian.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// WriteUint64 appends v big-endian.
func (e *Encoder) WriteUint64(v uint64) {
	for shift := 56; shift >= 0; shift -= 8 {
		e.buf = append(e.buf, byte(v>>shift))
	}
}
