package protocol

import (
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the largest payload a 24-bit length can describe.
	MaxPayloadSize = 1<<24 - 1
)

// FrameType identifies the payload of a frame.
type FrameType uint8

const (
	FrameMutations FrameType = 0x01 // Server → client mutation batch
	FrameControl   FrameType = 0x02 // Ping, pong, reload, close
	FrameError     FrameType = 0x03 // Error report
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameMutations:
		return "Mutations"
	case FrameControl:
		return "Control"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a typed, length-prefixed payload.
//
// Wire format:
//
//	┌────────────┬──────────────────────────────┬─────────────────┐
//	│ Frame Type │ Payload Length               │ Payload         │
//	│ (1 byte)   │ (3 bytes, big-endian)        │ (variable)      │
//	└────────────┴──────────────────────────────┴─────────────────┘
type Frame struct {
	Type    FrameType
	Payload []byte
}

// Encode returns the frame with its header.
func (f *Frame) Encode() ([]byte, error) {
	n := len(f.Payload)
	if n > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, FrameHeaderSize, FrameHeaderSize+n)
	buf[0] = byte(f.Type)
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	return append(buf, f.Payload...), nil
}

// DecodeFrame decodes one complete frame. The payload is copied.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, n, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < FrameHeaderSize+n {
		return nil, io.ErrUnexpectedEOF
	}
	if len(data) > FrameHeaderSize+n {
		return nil, ErrTrailingBytes
	}
	payload := make([]byte, n)
	copy(payload, data[FrameHeaderSize:])
	return &Frame{Type: ft, Payload: payload}, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	ft, n, err := decodeHeader(header[:])
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &Frame{Type: ft, Payload: payload}, nil
}

// WriteFrame writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func decodeHeader(data []byte) (FrameType, int, error) {
	if len(data) < FrameHeaderSize {
		return 0, 0, io.ErrUnexpectedEOF
	}
	ft := FrameType(data[0])
	switch ft {
	case FrameMutations, FrameControl, FrameError:
	default:
		return 0, 0, ErrInvalidFrameType
	}
	n := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	return ft, n, nil
}
