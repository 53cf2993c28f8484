/*
	This file handles the run-length coding of the per-block window table
	indices.  The coding is asymmetric: literal indices are stored one per
	word with the low bit clear, while only runs of the default index 0 are
	compressed, as skips with the low bit set.  Index 0 is reserved for the
	all-clear window so that large non-boundary regions cost nothing.
*/

package compresso

// expandWindows decodes the run-length coded list into exactly nblocks
// window table indices.  Slots never written keep the default index 0.
// A literal that would land past nblocks is a malformed stream.
func expandWindows(rle []uint64, nblocks int) ([]uint64, error) {
	windows := make([]uint64, nblocks)
	index := 0
	for _, word := range rle {
		if word&1 == 1 {
			skip := word >> 1
			if skip > uint64(nblocks-index) {
				index = nblocks
			} else {
				index += int(skip)
			}
		} else {
			if index >= nblocks {
				return nil, ErrWindowOverflow
			}
			windows[index] = word >> 1
			index++
		}
	}
	return windows, nil
}

// encodeWindows is the inverse of expandWindows.  Runs of index 0 become
// skip words, split as needed to fit the payload bits of a window word;
// a trailing run of index 0 is dropped entirely since expansion pre-fills
// the default.  Literal indices must fit wordBits-1 bits; the encoder
// checks the window table size before calling.
func encodeWindows(indices []uint64, wordBits int) []uint64 {
	maxPayload := uint64(1)<<(uint(wordBits)-1) - 1
	rle := make([]uint64, 0, len(indices)/4+1)
	var run uint64
	for _, idx := range indices {
		if idx == 0 {
			run++
			continue
		}
		for run > 0 {
			n := run
			if n > maxPayload {
				n = maxPayload
			}
			rle = append(rle, n<<1|1)
			run -= n
		}
		rle = append(rle, idx<<1)
	}
	return rle
}
