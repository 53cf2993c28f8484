// Package compresso implements the Compresso codec for compressed 3-d label
// (segmentation) volumes.  Instead of storing a label per voxel, a stream
// stores bit-packed boundary windows plus a small side-channel of
// disambiguating instructions; decoding reconstructs every voxel exactly by
// running connected-component labeling over the boundary bitmap.
//
// A stream is the 36-byte Header followed by four sections with no padding,
// in this fixed order:
//
//	ids[]        id count * data width bytes: the label for each connected
//	                 component, in final component order.
//	values[]     window value count * window width bytes: deduplicated
//	                 bit-packed boundary windows, index 0 always all-clear.
//	locations[]  location count * data width bytes: instructions for
//	                 boundary voxels no neighbor can resolve.  0-5 copy from
//	                 the -x,+x,-y,+y,-z,+z neighbor, 6 means the next entry
//	                 is the literal label, and any larger value v means the
//	                 label is v-7.
//	windows[]    the remaining bytes: run-length coded per-block indices
//	                 into values[] (see rle.go).
//
// Version 1 streams append two per-slice random-access indexes after the
// windows section; a full decode does not need them and only accounts for
// their length.
package compresso

// Decompress decodes a complete compresso stream into output, which the
// caller allocates with sx*sy*sz*dataWidth bytes.  A nil return means
// success; any non-nil return is an Error code and leaves output undefined.
func Decompress(buffer, output []byte) error {
	if output == nil {
		return ErrBadOutput
	}
	if len(buffer) < HeaderSize {
		return ErrTooShort
	}
	header, err := ParseHeader(buffer)
	if err != nil {
		return err
	}

	sx, sy, sz := int(header.Sx), int(header.Sy), int(header.Sz)
	voxels := sx * sy * sz
	if voxels == 0 {
		return ErrZeroVolume
	}

	width := int(header.DataWidth)
	switch width {
	case 1, 2, 4, 8:
	default:
		return ErrBadDataWidth
	}
	if len(output) < voxels*width {
		return ErrBadOutput
	}
	windowWidth := header.WindowBytes()

	// Section accounting.  Every length derives from the header, so a
	// mismatch against the actual buffer is a truncated or corrupt stream.
	remaining := uint64(len(buffer) - HeaderSize)
	if header.IDSize > remaining/uint64(width) {
		return ErrTooShort
	}
	idsBytes := header.IDSize * uint64(width)
	remaining -= idsBytes
	valueBytes := uint64(header.ValueSize) * uint64(windowWidth)
	if valueBytes > remaining {
		return ErrTooShort
	}
	remaining -= valueBytes
	if header.LocationSize > remaining/uint64(width) {
		return ErrTooShort
	}
	locationBytes := header.LocationSize * uint64(width)
	remaining -= locationBytes

	// Version 1 appends random-access z indexes for components and
	// locations after the windows; exclude them from the window bytes.
	if header.FormatVersion == 1 {
		zIndexBytes := 2 * uint64(sz) * uint64(header.indexByteWidth())
		if zIndexBytes > remaining {
			return ErrTooShort
		}
		remaining -= zIndexBytes
	}
	numCondensed := int(remaining) / windowWidth

	off := HeaderSize
	ids := make([]uint64, header.IDSize+1) // slot 0 is the boundary sentinel
	copy(ids[1:], readUints(buffer[off:], width, int(header.IDSize)))
	off += int(idsBytes)
	windowValues := readUints(buffer[off:], windowWidth, int(header.ValueSize))
	off += int(valueBytes)
	locations := readUints(buffer[off:], width, int(header.LocationSize))
	off += int(locationBytes)
	rleWindows := readUints(buffer[off:], windowWidth, numCondensed)

	windows, err := expandWindows(rleWindows, header.Blocks())
	if err != nil {
		return err
	}
	if len(windowValues) > 0 {
		for _, w := range windows {
			if w >= uint64(len(windowValues)) {
				return ErrBadWindowIndex
			}
		}
	}

	boundaries := decodeBoundaries(windows, windowValues,
		sx, sy, sz,
		int(header.XStep), int(header.YStep), int(header.ZStep))

	components, n := connectedComponents(boundaries, sx, sy, sz, header.Connectivity)
	if uint64(n) > header.IDSize {
		return ErrBadIDCount
	}

	// Bulk non-boundary pass: boundary voxels map through the unused
	// sentinel slot and are overwritten by the indeterminate pass below.
	labels := make([]uint64, voxels)
	for i, c := range components {
		labels[i] = ids[c]
	}

	if err := resolveIndeterminate(boundaries, labels, locations, sx, sy, sz, header.Connectivity); err != nil {
		return err
	}

	writeUints(output, labels, width)
	return nil
}

// resolveIndeterminate patches every boundary voxel in strict raster order.
// Labels written earlier (the bulk pass and earlier boundary voxels) feed
// later copies, so neither the phase ordering nor the scan order here is
// optional.
func resolveIndeterminate(boundaries []bool, labels, locations []uint64, sx, sy, sz int, connectivity uint8) error {
	sxy := sx * sy
	index := 0

	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			for x := 0; x < sx; x++ {
				loc := x + sx*y + sxy*z

				if !boundaries[loc] {
					continue
				}
				if x > 0 && !boundaries[loc-1] {
					labels[loc] = labels[loc-1]
					continue
				}
				if y > 0 && !boundaries[loc-sx] {
					labels[loc] = labels[loc-sx]
					continue
				}
				if connectivity == 6 && z > 0 && !boundaries[loc-sxy] {
					labels[loc] = labels[loc-sxy]
					continue
				}

				if index >= len(locations) {
					return ErrLocationsExhausted
				}
				offset := locations[index]

				switch {
				case offset == 0:
					if x == 0 {
						return ErrOutOfBoundsNegX
					}
					labels[loc] = labels[loc-1]
				case offset == 1:
					if x >= sx-1 {
						return ErrOutOfBoundsPosX
					}
					labels[loc] = labels[loc+1]
				case offset == 2:
					if y == 0 {
						return ErrOutOfBoundsNegY
					}
					labels[loc] = labels[loc-sx]
				case offset == 3:
					if y >= sy-1 {
						return ErrOutOfBoundsPosY
					}
					labels[loc] = labels[loc+sx]
				case offset == 4:
					if z == 0 {
						return ErrOutOfBoundsNegZ
					}
					labels[loc] = labels[loc-sxy]
				case offset == 5:
					if z >= sz-1 {
						return ErrOutOfBoundsPosZ
					}
					labels[loc] = labels[loc+sxy]
				case offset == 6:
					index++
					if index >= len(locations) {
						return ErrLocationsExhausted
					}
					labels[loc] = locations[index]
				default:
					labels[loc] = offset - 7
				}
				index++
			}
		}
	}
	return nil
}
