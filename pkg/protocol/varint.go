package protocol

// MaxVarintLen is the longest varint encoding of a uint64.
const MaxVarintLen = 10

// AppendUvarint appends v to buf using 7 bits per byte, low group first,
// with the high bit marking continuation.
func AppendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// Uvarint decodes a varint from the start of buf and returns it with the
// number of bytes consumed.
func Uvarint(buf []byte) (uint64, int, error) {
	var v uint64
	for i, b := range buf {
		if i == MaxVarintLen {
			return 0, 0, ErrVarintOverflow
		}
		// The tenth byte carries only the top bit of a uint64.
		if i == MaxVarintLen-1 && b > 1 {
			return 0, 0, ErrVarintOverflow
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrBufferTooShort
}

// zigzag maps signed integers onto unsigned ones so small magnitudes stay
// short: 0, -1, 1, -2 become 0, 1, 2, 3.
func zigzag(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }

func unzigzag(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }

// UvarintLen returns the encoded size of v.
func UvarintLen(v uint64) int {
	n := 1
	for ; v >= 0x80; v >>= 7 {
		n++
	}
	return n
}
