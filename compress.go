/*
	This file implements the encoder.  Compression derives a one-sided
	forward-difference boundary bitmap, runs the same connected-component
	labeling the decoder will run to order the ids table, packs the boundary
	windows, and simulates the decoder's indeterminate pass to emit exactly
	the locations entries it will consume.
*/

package compresso

import "fmt"

// DefaultXStep, DefaultYStep, and DefaultZStep give the 4x4x1 grid block
// used when CompressOptions leaves the steps zero; 16-bit windows are a good
// tradeoff for typical connectomics segmentation.
const (
	DefaultXStep = 4
	DefaultYStep = 4
	DefaultZStep = 1

	// DefaultConnectivity is per-slice 4-connected labeling.
	DefaultConnectivity = 4
)

// CompressOptions control the grid block shape and the labeling
// connectivity.  The zero value selects the defaults above.
type CompressOptions struct {
	XStep, YStep, ZStep uint8
	Connectivity        uint8
}

func (opt *CompressOptions) withDefaults() CompressOptions {
	var o CompressOptions
	if opt != nil {
		o = *opt
	}
	if o.XStep == 0 {
		o.XStep = DefaultXStep
	}
	if o.YStep == 0 {
		o.YStep = DefaultYStep
	}
	if o.ZStep == 0 {
		o.ZStep = DefaultZStep
	}
	if o.Connectivity == 0 {
		o.Connectivity = DefaultConnectivity
	}
	return o
}

// Compress encodes a packed little-endian label array of dataWidth-byte
// labels into a compresso stream that Decompress reconstructs exactly.
func Compress(data []byte, sx, sy, sz, dataWidth int, opt *CompressOptions) ([]byte, error) {
	o := opt.withDefaults()

	switch dataWidth {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("unsupported data width %d, must be 1, 2, 4, or 8 bytes", dataWidth)
	}
	if sx < 1 || sy < 1 || sz < 1 {
		return nil, fmt.Errorf("volume %d x %d x %d has a zero dimension", sx, sy, sz)
	}
	if sx > 0xffff || sy > 0xffff || sz > 0xffff {
		return nil, fmt.Errorf("volume %d x %d x %d exceeds the uint16 dimension limit", sx, sy, sz)
	}
	if o.Connectivity != 4 && o.Connectivity != 6 {
		return nil, fmt.Errorf("connectivity must be 4 or 6, got %d", o.Connectivity)
	}
	windowBits := int(o.XStep) * int(o.YStep) * int(o.ZStep)
	if windowBits > 64 {
		return nil, fmt.Errorf("steps %d x %d x %d need %d boundary bits per block, max is 64",
			o.XStep, o.YStep, o.ZStep, windowBits)
	}
	voxels := sx * sy * sz
	if len(data) != voxels*dataWidth {
		return nil, fmt.Errorf("expected %d bytes of label data, got %d", voxels*dataWidth, len(data))
	}

	labels := readUints(data, dataWidth, voxels)
	boundaries := boundaryBitmap(labels, sx, sy, sz, o.Connectivity)
	components, n := connectedComponents(boundaries, sx, sy, sz, o.Connectivity)

	// One label per final component, in final component order, so the
	// decoder's bulk pass is a straight table lookup.
	ids := make([]uint64, n+1)
	seen := make([]bool, n+1)
	for i, c := range components {
		if c != 0 && !seen[c] {
			seen[c] = true
			ids[c] = labels[i]
		}
	}

	values, windows := packWindows(boundaries, sx, sy, sz, int(o.XStep), int(o.YStep), int(o.ZStep))

	header := Header{
		FormatVersion: 0,
		DataWidth:     uint8(dataWidth),
		Sx:            uint16(sx),
		Sy:            uint16(sy),
		Sz:            uint16(sz),
		XStep:         o.XStep,
		YStep:         o.YStep,
		ZStep:         o.ZStep,
		IDSize:        uint64(n),
		Connectivity:  o.Connectivity,
	}
	windowWidth := header.WindowBytes()

	// A literal window index is stored shifted left one bit, so the table
	// may not outgrow the payload bits of a window word.
	maxIndex := uint64(1)<<(uint(windowWidth)*8-1) - 1
	if uint64(len(values)-1) > maxIndex {
		return nil, fmt.Errorf("%d distinct boundary windows exceed the %d-bit window index space",
			len(values), windowWidth*8-1)
	}
	if uint64(len(values)) > 0xffffffff {
		return nil, fmt.Errorf("%d window values exceed the uint32 header field", len(values))
	}
	header.ValueSize = uint32(len(values))

	rleWindows := encodeWindows(windows, windowWidth*8)
	locations := encodeLocations(labels, boundaries, sx, sy, sz, o.Connectivity, dataWidth)
	header.LocationSize = uint64(len(locations))

	streamBytes := HeaderSize +
		n*dataWidth +
		len(values)*windowWidth +
		len(locations)*dataWidth +
		len(rleWindows)*windowWidth
	stream := make([]byte, streamBytes)

	hbuf, err := header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	off := copy(stream, hbuf)
	writeUints(stream[off:], ids[1:], dataWidth)
	off += n * dataWidth
	writeUints(stream[off:], values, windowWidth)
	off += len(values) * windowWidth
	writeUints(stream[off:], locations, dataWidth)
	off += len(locations) * dataWidth
	writeUints(stream[off:], rleWindows, windowWidth)

	return stream, nil
}

// encodeLocations walks the volume in the decoder's raster order and emits
// one instruction per indeterminate boundary voxel.  Backward copies are
// always safe because the decoder has already finalized those voxels;
// forward copies are only valid against non-boundary neighbors, whose labels
// the bulk pass has written.
func encodeLocations(labels []uint64, boundaries []bool, sx, sy, sz int, connectivity uint8, dataWidth int) []uint64 {
	sxy := sx * sy
	maxLiteral := maxLabelValue(dataWidth) - 7
	var locations []uint64

	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			for x := 0; x < sx; x++ {
				loc := x + sx*y + sxy*z

				if !boundaries[loc] {
					continue
				}
				// The decoder resolves these without an instruction.
				if x > 0 && !boundaries[loc-1] {
					continue
				}
				if y > 0 && !boundaries[loc-sx] {
					continue
				}
				if connectivity == 6 && z > 0 && !boundaries[loc-sxy] {
					continue
				}

				label := labels[loc]
				switch {
				case x > 0 && labels[loc-1] == label:
					locations = append(locations, 0)
				case y > 0 && labels[loc-sx] == label:
					locations = append(locations, 2)
				case z > 0 && labels[loc-sxy] == label:
					locations = append(locations, 4)
				case x < sx-1 && !boundaries[loc+1] && labels[loc+1] == label:
					locations = append(locations, 1)
				case y < sy-1 && !boundaries[loc+sx] && labels[loc+sx] == label:
					locations = append(locations, 3)
				case z < sz-1 && !boundaries[loc+sxy] && labels[loc+sxy] == label:
					locations = append(locations, 5)
				case label <= maxLiteral:
					locations = append(locations, label+7)
				default:
					locations = append(locations, 6, label)
				}
			}
		}
	}
	return locations
}
