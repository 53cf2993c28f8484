package compresso

import (
	"encoding/binary"
	"math"
)

// HeaderSize is the fixed byte length of the stream header.
const HeaderSize = 36

// MagicString begins every compresso stream.
const MagicString = "cpso"

// Header is the fixed 36-byte metadata record at the start of every stream.
//
// The byte layout, little-endian throughout:
//
//	offset  0   "cpso" magic (4 bytes)
//	offset  4   format version (1 byte): 0, or 1 with trailing z indexes
//	offset  5   data width (1 byte): label width in bytes, one of 1/2/4/8
//	offset  6   sx, sy, sz (2 bytes each)
//	offset 12   xstep, ystep, zstep (1 byte each): grid block shape
//	offset 15   id count (8 bytes): one label per connected component
//	offset 23   window value count (4 bytes): boundary window table entries
//	offset 27   location count (8 bytes): indeterminate voxel instructions
//	offset 35   connectivity (1 byte): 4 or 6
type Header struct {
	FormatVersion uint8
	DataWidth     uint8
	Sx, Sy, Sz    uint16
	XStep         uint8
	YStep         uint8
	ZStep         uint8
	IDSize        uint64
	ValueSize     uint32
	LocationSize  uint64
	Connectivity  uint8
}

// ParseHeader validates and decodes the fixed header at the front of buf.
// Downstream decoding trusts the returned Header unconditionally, so every
// structural check happens here.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTooShort
	}
	if !validHeader(buf) {
		return Header{}, ErrBadHeader
	}
	h := Header{
		FormatVersion: buf[4],
		DataWidth:     buf[5],
		Sx:            binary.LittleEndian.Uint16(buf[6:8]),
		Sy:            binary.LittleEndian.Uint16(buf[8:10]),
		Sz:            binary.LittleEndian.Uint16(buf[10:12]),
		XStep:         buf[12],
		YStep:         buf[13],
		ZStep:         buf[14],
		IDSize:        binary.LittleEndian.Uint64(buf[15:23]),
		ValueSize:     binary.LittleEndian.Uint32(buf[23:27]),
		LocationSize:  binary.LittleEndian.Uint64(buf[27:35]),
		Connectivity:  buf[35],
	}
	return h, nil
}

// validHeader checks magic, version, data width, connectivity, and that a
// grid block's boundary bits fit a 64-bit window word.
func validHeader(buf []byte) bool {
	if string(buf[0:4]) != MagicString {
		return false
	}
	version := buf[4]
	if version > 1 {
		return false
	}
	switch buf[5] {
	case 1, 2, 4, 8:
	default:
		return false
	}
	connectivity := buf[35]
	if connectivity != 4 && !(version == 0 && connectivity == 6) {
		return false
	}
	windowBits := int(buf[12]) * int(buf[13]) * int(buf[14])
	return windowBits > 0 && windowBits <= 64
}

// MarshalBinary serializes the header into its 36-byte wire form.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], MagicString)
	buf[4] = h.FormatVersion
	buf[5] = h.DataWidth
	binary.LittleEndian.PutUint16(buf[6:8], h.Sx)
	binary.LittleEndian.PutUint16(buf[8:10], h.Sy)
	binary.LittleEndian.PutUint16(buf[10:12], h.Sz)
	buf[12] = h.XStep
	buf[13] = h.YStep
	buf[14] = h.ZStep
	binary.LittleEndian.PutUint64(buf[15:23], h.IDSize)
	binary.LittleEndian.PutUint32(buf[23:27], h.ValueSize)
	binary.LittleEndian.PutUint64(buf[27:35], h.LocationSize)
	buf[35] = h.Connectivity
	return buf, nil
}

// Voxels returns the number of voxels in the volume.
func (h Header) Voxels() int {
	return int(h.Sx) * int(h.Sy) * int(h.Sz)
}

// GridSize returns the number of grid blocks along each dimension.
func (h Header) GridSize() (nx, ny, nz int) {
	nx = (int(h.Sx) + int(h.XStep) - 1) / int(h.XStep)
	ny = (int(h.Sy) + int(h.YStep) - 1) / int(h.YStep)
	nz = (int(h.Sz) + int(h.ZStep) - 1) / int(h.ZStep)
	return
}

// Blocks returns the total number of grid blocks covering the volume.
func (h Header) Blocks() int {
	nx, ny, nz := h.GridSize()
	return nx * ny * nz
}

// WindowBits returns the number of boundary bits per grid block.
func (h Header) WindowBits() int {
	return int(h.XStep) * int(h.YStep) * int(h.ZStep)
}

// WindowBytes returns the byte width of a window word, the smallest unsigned
// integer that holds WindowBits bits.
func (h Header) WindowBytes() int {
	bits := h.WindowBits()
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

// indexByteWidth returns the element width of the version 1 random-access
// z indexes, sized for the worst case of two entries per slice voxel.
func (h Header) indexByteWidth() int {
	worstCase := 2 * int(h.Sx) * int(h.Sy)
	switch {
	case worstCase < math.MaxUint8:
		return 1
	case worstCase < math.MaxUint16:
		return 2
	case worstCase < math.MaxUint32:
		return 4
	default:
		return 8
	}
}
