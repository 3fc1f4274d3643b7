package protocol

// ErrorCode identifies the kind of error reported in a FrameError frame.
type ErrorCode uint16

const (
	ErrUnknown      ErrorCode = 0x0000 // Unknown error
	ErrInvalidFrame ErrorCode = 0x0001 // Malformed frame from the client
	ErrUnknownNode  ErrorCode = 0x0002 // Event addressed a node that no longer exists
	ErrRenderFailed ErrorCode = 0x0003 // A render pass failed; the root will rebuild
	ErrOverloaded   ErrorCode = 0x0004 // Subscriber fell behind and was dropped
	ErrServerError  ErrorCode = 0x0100 // Internal server error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrUnknownNode:
		return "UnknownNode"
	case ErrRenderFailed:
		return "RenderFailed"
	case ErrOverloaded:
		return "Overloaded"
	case ErrServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// ErrorMessage is the payload of a FrameError frame.
//
// Payload format:
//
//	[Code: uint16][Message: string][Fatal: bool]
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool // The server closes the stream after sending it
}

// EncodeErrorMessage encodes em as a frame payload.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes a FrameError payload.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: ErrorCode(code), Message: msg, Fatal: fatal}, d.Done()
}

// ErrorFrame returns a complete FrameError frame.
func ErrorFrame(code ErrorCode, message string, fatal bool) []byte {
	em := &ErrorMessage{Code: code, Message: message, Fatal: fatal}
	f := Frame{Type: FrameError, Payload: EncodeErrorMessage(em)}
	data, err := f.Encode()
	if err != nil {
		// Message too long for one frame; send the code alone.
		em.Message = ""
		f.Payload = EncodeErrorMessage(em)
		data, _ = f.Encode()
	}
	return data
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}
