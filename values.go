/*
	This file handles reading and writing the fixed-width unsigned integer
	sections of a stream.  Labels, locations, and window words are widened to
	uint64 internally and only repacked at the wire boundary.
*/

package compresso

import "encoding/binary"

// readUints decodes count little-endian unsigned integers of the given byte
// width.  The caller guarantees buf holds at least count*width bytes.
func readUints(buf []byte, width, count int) []uint64 {
	out := make([]uint64, count)
	switch width {
	case 1:
		for i := range out {
			out[i] = uint64(buf[i])
		}
	case 2:
		for i := range out {
			out[i] = uint64(binary.LittleEndian.Uint16(buf[2*i:]))
		}
	case 4:
		for i := range out {
			out[i] = uint64(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case 8:
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(buf[8*i:])
		}
	}
	return out
}

// writeUints packs values as little-endian unsigned integers of the given
// byte width into dst, which must hold at least len(values)*width bytes.
// Values wider than the target width are silently truncated, so callers
// check ranges first.
func writeUints(dst []byte, values []uint64, width int) {
	switch width {
	case 1:
		for i, v := range values {
			dst[i] = byte(v)
		}
	case 2:
		for i, v := range values {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
		}
	case 4:
		for i, v := range values {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(v))
		}
	case 8:
		for i, v := range values {
			binary.LittleEndian.PutUint64(dst[8*i:], v)
		}
	}
}

// maxLabelValue returns the largest label representable at the given byte
// width.
func maxLabelValue(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * uint(width))) - 1
}
