package compresso

import "fmt"

// Error is a decode failure code.  The numeric values are part of the
// external contract: callers and bindings in other languages match on the
// exact integer, so existing codes are never renumbered.  New failure modes
// get new numbers.
type Error int

const (
	// ErrLocationsExhausted means an indeterminate boundary voxel needed an
	// entry from the locations stream but none remained.
	ErrLocationsExhausted Error = 1

	// ErrOutOfBoundsNegX through ErrOutOfBoundsPosZ mean a direction-copy
	// entry in the locations stream named a neighbor outside the volume.
	ErrOutOfBoundsNegX Error = 2
	ErrOutOfBoundsPosX Error = 3
	ErrOutOfBoundsNegY Error = 4
	ErrOutOfBoundsPosY Error = 5
	ErrOutOfBoundsNegZ Error = 6
	ErrOutOfBoundsPosZ Error = 7

	// ErrBadOutput means the output buffer is nil or smaller than
	// sx * sy * sz * dataWidth bytes.
	ErrBadOutput Error = 8

	// ErrTooShort means the buffer is smaller than the fixed header or the
	// section lengths computed from the header exceed the remaining bytes.
	ErrTooShort Error = 9

	// ErrBadHeader means the header failed validation: bad magic, version,
	// data width, connectivity, or a window too large for 64 bits.
	ErrBadHeader Error = 10

	// ErrZeroVolume means one or more dimensions are zero.
	ErrZeroVolume Error = 11

	// ErrBadDataWidth means the header requested a label width other than
	// 1, 2, 4, or 8 bytes.  Header validation normally catches this first.
	ErrBadDataWidth Error = 13

	// ErrBadIDCount means connected-component labeling found more components
	// than the ids table has entries.
	ErrBadIDCount Error = 14

	// ErrBadWindowIndex means a block referenced a window value beyond the
	// window value table.
	ErrBadWindowIndex Error = 15

	// ErrWindowOverflow means the run-length coded block index list tried to
	// write past the number of grid blocks.
	ErrWindowOverflow Error = 16
)

func (e Error) Error() string {
	switch e {
	case ErrLocationsExhausted:
		return "compresso: locations stream exhausted"
	case ErrOutOfBoundsNegX:
		return "compresso: location copy from -x neighbor outside volume"
	case ErrOutOfBoundsPosX:
		return "compresso: location copy from +x neighbor outside volume"
	case ErrOutOfBoundsNegY:
		return "compresso: location copy from -y neighbor outside volume"
	case ErrOutOfBoundsPosY:
		return "compresso: location copy from +y neighbor outside volume"
	case ErrOutOfBoundsNegZ:
		return "compresso: location copy from -z neighbor outside volume"
	case ErrOutOfBoundsPosZ:
		return "compresso: location copy from +z neighbor outside volume"
	case ErrBadOutput:
		return "compresso: nil or undersized output buffer"
	case ErrTooShort:
		return "compresso: buffer too short for header and sections"
	case ErrBadHeader:
		return "compresso: invalid header"
	case ErrZeroVolume:
		return "compresso: volume has a zero dimension"
	case ErrBadDataWidth:
		return "compresso: unsupported data width"
	case ErrBadIDCount:
		return "compresso: more components than ids table entries"
	case ErrBadWindowIndex:
		return "compresso: window table index out of range"
	case ErrWindowOverflow:
		return "compresso: run-length coded windows exceed block count"
	}
	return fmt.Sprintf("compresso: error code %d", int(e))
}

// Code returns the numeric error code for callers that persist or transmit
// decode failures.
func (e Error) Code() int {
	return int(e)
}
