package protocol

import "fmt"

// ControlType identifies a control message.
type ControlType uint8

const (
	ControlPing   ControlType = 0x01 // Heartbeat request
	ControlPong   ControlType = 0x02 // Heartbeat response
	ControlReload ControlType = 0x03 // Client should reload the page
	ControlClose  ControlType = 0x04 // Server is closing the stream
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlReload:
		return "Reload"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// Control is the payload of a FrameControl frame.
//
// Payload format:
//
//	Ping, Pong   [Type][Timestamp: uint64, unix milliseconds]
//	Reload       [Type]
//	Close        [Type][Reason: string]
type Control struct {
	Type      ControlType
	Timestamp uint64
	Reason    string
}

// EncodeControl encodes c as a frame payload.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	switch c.Type {
	case ControlPing, ControlPong:
		e.WriteUint64(c.Timestamp)
	case ControlClose:
		e.WriteString(c.Reason)
	}
	return e.Bytes()
}

// DecodeControl decodes a FrameControl payload.
func DecodeControl(data []byte) (*Control, error) {
	d := NewDecoder(data)
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	c := &Control{Type: ControlType(b)}
	switch c.Type {
	case ControlPing, ControlPong:
		c.Timestamp, err = d.ReadUint64()
	case ControlClose:
		c.Reason, err = d.ReadString()
	case ControlReload:
	default:
		return nil, fmt.Errorf("protocol: unknown control type 0x%02x", b)
	}
	if err != nil {
		return nil, err
	}
	return c, d.Done()
}

// ControlMessage returns a complete FrameControl frame for c.
func ControlMessage(c *Control) []byte {
	f := Frame{Type: FrameControl, Payload: EncodeControl(c)}
	data, _ := f.Encode() // control payloads are a few bytes
	return data
}
