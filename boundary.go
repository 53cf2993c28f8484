/*
	This file converts between the dense per-voxel boundary bitmap and the
	bit-packed per-block windows.  Within a block, bit offsets run
	x + xstep*(y + ystep*z); blocks are linearized xblock + nx*(yblock +
	ny*zblock).
*/

package compresso

// decodeBoundaries expands (per-block window index, window value table) into
// a dense boolean boundary volume.  An empty window value table means no
// boundaries anywhere.  A power-of-two xstep takes a shift/mask fast path
// with identical output.
func decodeBoundaries(windows, windowValues []uint64, sx, sy, sz, xstep, ystep, zstep int) []bool {
	sxy := sx * sy
	boundaries := make([]bool, sxy*sz)
	if len(windowValues) == 0 {
		return boundaries
	}

	nx := (sx + xstep - 1) / xstep
	ny := (sy + ystep - 1) / ystep

	xstepPOT := xstep&(xstep-1) == 0
	xshift := uint(0)
	for 1<<xshift < xstep {
		xshift++
	}

	for z := 0; z < sz; z++ {
		zblock := nx * ny * (z / zstep)
		zoffset := xstep * ystep * (z % zstep)
		for y := 0; y < sy; y++ {
			yblock := nx * (y / ystep)
			yoffset := xstep * (y % ystep)
			row := sx*y + sxy*z

			if xstepPOT {
				for x := 0; x < sx; x++ {
					block := (x >> xshift) + yblock + zblock
					offset := (x & (xstep - 1)) + yoffset + zoffset
					value := windowValues[windows[block]]
					boundaries[row+x] = (value>>uint(offset))&1 == 1
				}
			} else {
				for x := 0; x < sx; x++ {
					block := x/xstep + yblock + zblock
					offset := x%xstep + yoffset + zoffset
					value := windowValues[windows[block]]
					boundaries[row+x] = (value>>uint(offset))&1 == 1
				}
			}
		}
	}
	return boundaries
}

// boundaryBitmap marks voxels whose label differs from their +x or +y
// neighbor within a slice, plus the +z neighbor for 6-connectivity.  The
// one-sided forward difference is what lets the decoder copy labels from
// non-boundary -x/-y/-z neighbors without consulting the locations stream.
func boundaryBitmap(labels []uint64, sx, sy, sz int, connectivity uint8) []bool {
	sxy := sx * sy
	boundaries := make([]bool, sxy*sz)
	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			loc := sx*y + sxy*z
			for x := 0; x < sx; x, loc = x+1, loc+1 {
				switch {
				case x < sx-1 && labels[loc] != labels[loc+1]:
					boundaries[loc] = true
				case y < sy-1 && labels[loc] != labels[loc+sx]:
					boundaries[loc] = true
				case connectivity == 6 && z < sz-1 && labels[loc] != labels[loc+sxy]:
					boundaries[loc] = true
				}
			}
		}
	}
	return boundaries
}

// packWindows bit-packs the boundary bitmap into per-block window words and
// deduplicates them through a value table.  Table index 0 is always the
// all-clear window so runs of it run-length code to nothing.
func packWindows(boundaries []bool, sx, sy, sz, xstep, ystep, zstep int) (values []uint64, windows []uint64) {
	nx := (sx + xstep - 1) / xstep
	ny := (sy + ystep - 1) / ystep
	nz := (sz + zstep - 1) / zstep
	nblocks := nx * ny * nz

	blockWords := make([]uint64, nblocks)
	sxy := sx * sy
	for z := 0; z < sz; z++ {
		zblock := nx * ny * (z / zstep)
		zoffset := xstep * ystep * (z % zstep)
		for y := 0; y < sy; y++ {
			yblock := nx * (y / ystep)
			yoffset := xstep * (y % ystep)
			row := sx*y + sxy*z
			for x := 0; x < sx; x++ {
				if !boundaries[row+x] {
					continue
				}
				block := x/xstep + yblock + zblock
				offset := x%xstep + yoffset + zoffset
				blockWords[block] |= uint64(1) << uint(offset)
			}
		}
	}

	values = []uint64{0}
	table := map[uint64]uint64{0: 0}
	windows = make([]uint64, nblocks)
	for i, word := range blockWords {
		idx, found := table[word]
		if !found {
			idx = uint64(len(values))
			table[word] = idx
			values = append(values, word)
		}
		windows[i] = idx
	}
	return values, windows
}
