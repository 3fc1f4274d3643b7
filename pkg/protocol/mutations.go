package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/livetree/pkg/dom"
)

// ErrInvalidOp is returned when a mutation carries an unknown op code.
var ErrInvalidOp = errors.New("protocol: invalid mutation op")

// MutationsFrame is the payload of a FrameMutations frame: the mutations one
// render pass applied to a document.
//
// Payload format:
//
//	[Seq: uvarint][Replay: bool][Count: uvarint][Mutation]*
//
// Each mutation starts with its op byte and target id, followed by the
// fields the op uses:
//
//	CreateElement          tag
//	CreateText, SetText    text
//	SetAttr                name, value
//	RemoveAttr             name
//	Add/RemoveListener     event
//	Append/RemoveChild     child id
//	ReplaceChild           new child id, old child id
type MutationsFrame struct {
	Seq       uint64
	Replay    bool // The batch rebuilds the container from empty
	Mutations []dom.Mutation
}

// EncodeMutations encodes mf as a frame payload.
func EncodeMutations(mf *MutationsFrame) []byte {
	e := NewEncoder()
	EncodeMutationsTo(e, mf)
	return e.Bytes()
}

// EncodeMutationsTo encodes mf using e.
func EncodeMutationsTo(e *Encoder, mf *MutationsFrame) {
	e.WriteUvarint(mf.Seq)
	e.WriteBool(mf.Replay)
	e.WriteUvarint(uint64(len(mf.Mutations)))
	for i := range mf.Mutations {
		encodeMutation(e, &mf.Mutations[i])
	}
}

func encodeMutation(e *Encoder, m *dom.Mutation) {
	e.WriteByte(byte(m.Op))
	e.WriteUvarint(m.Target)

	switch m.Op {
	case dom.OpCreateElement, dom.OpRemoveAttr, dom.OpAddListener, dom.OpRemoveListener:
		e.WriteString(m.Key)
	case dom.OpCreateText, dom.OpSetText:
		e.WriteString(m.Value)
	case dom.OpSetAttr:
		e.WriteString(m.Key)
		e.WriteString(m.Value)
	case dom.OpAppendChild, dom.OpRemoveChild:
		e.WriteUvarint(m.Child)
	case dom.OpReplaceChild:
		e.WriteUvarint(m.Child)
		e.WriteUvarint(m.Old)
	}
}

// DecodeMutations decodes a FrameMutations payload.
func DecodeMutations(data []byte) (*MutationsFrame, error) {
	d := NewDecoder(data)
	mf, err := DecodeMutationsFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.Done(); err != nil {
		return nil, err
	}
	return mf, nil
}

// DecodeMutationsFrom decodes a FrameMutations payload from d.
func DecodeMutationsFrom(d *Decoder) (*MutationsFrame, error) {
	var mf MutationsFrame
	var err error

	if mf.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if mf.Replay, err = d.ReadBool(); err != nil {
		return nil, err
	}
	count, err := d.ReadCount(MaxMutations)
	if err != nil {
		return nil, err
	}

	mf.Mutations = make([]dom.Mutation, count)
	for i := range mf.Mutations {
		if err := decodeMutation(d, &mf.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return &mf, nil
}

func decodeMutation(d *Decoder, m *dom.Mutation) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	m.Op = dom.Op(op)
	if !m.Op.Valid() {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidOp, op)
	}
	if m.Target, err = d.ReadUvarint(); err != nil {
		return err
	}

	switch m.Op {
	case dom.OpCreateElement, dom.OpRemoveAttr, dom.OpAddListener, dom.OpRemoveListener:
		m.Key, err = d.ReadString()
	case dom.OpCreateText, dom.OpSetText:
		m.Value, err = d.ReadString()
	case dom.OpSetAttr:
		if m.Key, err = d.ReadString(); err == nil {
			m.Value, err = d.ReadString()
		}
	case dom.OpAppendChild, dom.OpRemoveChild:
		m.Child, err = d.ReadUvarint()
	case dom.OpReplaceChild:
		if m.Child, err = d.ReadUvarint(); err == nil {
			m.Old, err = d.ReadUvarint()
		}
	}
	return err
}

// MutationsMessage returns a complete FrameMutations frame for mf.
func MutationsMessage(mf *MutationsFrame) ([]byte, error) {
	f := Frame{Type: FrameMutations, Payload: EncodeMutations(mf)}
	return f.Encode()
}
