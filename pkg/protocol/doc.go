// Package protocol implements the binary wire format livetree uses to stream
// document mutations to remote viewers.
//
// # Wire Format
//
// Every message is one frame: a 4-byte header (type byte, 24-bit big-endian
// payload length) followed by the payload.
//
//   - FrameMutations (0x01): a MutationsFrame, the mutations of one pass
//   - FrameControl (0x02): ping, pong, reload and close
//   - FrameError (0x03): an ErrorMessage
//
// # Encoding
//
//   - Varint: unsigned integers, 7 bits per byte (protobuf-style)
//   - ZigZag: signed integers as unsigned varints
//   - Length-prefixed: strings carry a varint byte length
//   - Big-endian: fixed-width integers (uint16, uint64)
//
// Node ids in mutations are the ids of the dom.Document the server renders
// into, so a client mirrors that document by keeping an id → node map.
//
// # Limits
//
// Decoders check every length prefix and count against MaxStringLen,
// MaxMutations and the unread input before allocating.
//
// # Usage Example
//
//	data, err := protocol.MutationsMessage(&protocol.MutationsFrame{
//	    Seq:       pass.Seq,
//	    Mutations: doc.Flush(),
//	})
//
//	f, err := protocol.DecodeFrame(data)
//	mf, err := protocol.DecodeMutations(f.Payload)
package protocol
