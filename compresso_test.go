package compresso

import (
	"bytes"
	"math/rand"
	"testing"
)

// buildStream assembles a stream from explicit sections, filling the header
// counts from the section lengths.
func buildStream(t *testing.T, h Header, ids, values, locations, rleWindows []uint64) []byte {
	t.Helper()
	h.IDSize = uint64(len(ids))
	h.ValueSize = uint32(len(values))
	h.LocationSize = uint64(len(locations))

	width := int(h.DataWidth)
	windowWidth := h.WindowBytes()

	hbuf, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("unable to marshal header: %v", err)
	}
	stream := make([]byte, HeaderSize+len(ids)*width+len(values)*windowWidth+
		len(locations)*width+len(rleWindows)*windowWidth)
	off := copy(stream, hbuf)
	writeUints(stream[off:], ids, width)
	off += len(ids) * width
	writeUints(stream[off:], values, windowWidth)
	off += len(values) * windowWidth
	writeUints(stream[off:], locations, width)
	off += len(locations) * width
	writeUints(stream[off:], rleWindows, windowWidth)
	return stream
}

func testHeader(sx, sy, sz uint16) Header {
	return Header{
		DataWidth:    1,
		Sx:           sx,
		Sy:           sy,
		Sz:           sz,
		XStep:        4,
		YStep:        4,
		ZStep:        1,
		Connectivity: 4,
	}
}

// A solid stream is just the header and a one-entry ids table.
func TestDecompressSolid(t *testing.T) {
	stream := buildStream(t, testHeader(2, 2, 1), []uint64{5}, nil, nil, nil)
	output := make([]byte, 4)
	if err := Decompress(stream, output); err != nil {
		t.Fatalf("unable to decompress solid stream: %v", err)
	}
	for i, b := range output {
		if b != 5 {
			t.Errorf("voxel %d: expected label 5, got %d", i, b)
		}
	}
}

// Pins the wire format: window bit layout, section framing, CCL order, and
// boundary resolution from non-boundary west neighbors.
func TestDecompressTwoRegions(t *testing.T) {
	// 3x3x1 volume, labels 1 for x <= 1 and 2 for x == 2.  The boundary
	// column x == 1 sets window bits 1, 5, 9 of the single 4x4 block.
	h := testHeader(3, 3, 1)
	window := uint64(1<<1 | 1<<5 | 1<<9)
	stream := buildStream(t, h, []uint64{1, 2}, []uint64{window}, nil, nil)

	output := make([]byte, 9)
	if err := Decompress(stream, output); err != nil {
		t.Fatalf("unable to decompress two-region stream: %v", err)
	}
	want := []byte{1, 1, 2, 1, 1, 2, 1, 1, 2}
	if !bytes.Equal(output, want) {
		t.Fatalf("expected %v, got %v", want, output)
	}
}

// A single all-boundary voxel has no neighbors, so every resolution path
// runs through the locations stream.
func TestIndeterminateLocations(t *testing.T) {
	h := testHeader(1, 1, 1)
	h.XStep, h.YStep, h.ZStep = 1, 1, 1

	tests := []struct {
		name      string
		locations []uint64
		wantErr   error
		wantLabel byte
	}{
		{"no locations left", nil, ErrLocationsExhausted, 0},
		{"copy -x at x=0", []uint64{0}, ErrOutOfBoundsNegX, 0},
		{"copy +x at x=sx-1", []uint64{1}, ErrOutOfBoundsPosX, 0},
		{"copy -y at y=0", []uint64{2}, ErrOutOfBoundsNegY, 0},
		{"copy +y at y=sy-1", []uint64{3}, ErrOutOfBoundsPosY, 0},
		{"copy -z at z=0", []uint64{4}, ErrOutOfBoundsNegZ, 0},
		{"copy +z at z=sz-1", []uint64{5}, ErrOutOfBoundsPosZ, 0},
		{"literal marker with nothing following", []uint64{6}, ErrLocationsExhausted, 0},
		{"literal follows", []uint64{6, 42}, nil, 42},
		{"small literal", []uint64{9}, nil, 2},
	}
	for _, tc := range tests {
		stream := buildStream(t, h, nil, []uint64{1}, tc.locations, nil)
		output := make([]byte, 1)
		err := Decompress(stream, output)
		if err != tc.wantErr {
			t.Errorf("%s: expected error %v, got %v", tc.name, tc.wantErr, err)
			continue
		}
		if err == nil && output[0] != tc.wantLabel {
			t.Errorf("%s: expected label %d, got %d", tc.name, tc.wantLabel, output[0])
		}
	}
}

func TestDecompressErrors(t *testing.T) {
	valid := buildStream(t, testHeader(2, 2, 1), []uint64{5}, nil, nil, nil)

	if err := Decompress(valid, nil); err != ErrBadOutput {
		t.Errorf("nil output: expected ErrBadOutput, got %v", err)
	}
	if err := Decompress(valid, make([]byte, 3)); err != ErrBadOutput {
		t.Errorf("undersized output: expected ErrBadOutput, got %v", err)
	}
	if err := Decompress(valid[:HeaderSize-1], make([]byte, 4)); err != ErrTooShort {
		t.Errorf("short buffer: expected ErrTooShort, got %v", err)
	}

	// Sections that cannot fit the remaining bytes.
	if err := Decompress(valid[:len(valid)-1], make([]byte, 4)); err != ErrTooShort {
		t.Errorf("truncated sections: expected ErrTooShort, got %v", err)
	}

	bad := bytes.Clone(valid)
	bad[0] = 'x'
	if err := Decompress(bad, make([]byte, 4)); err != ErrBadHeader {
		t.Errorf("bad magic: expected ErrBadHeader, got %v", err)
	}

	zero := buildStream(t, testHeader(0, 2, 1), nil, nil, nil, nil)
	if err := Decompress(zero, make([]byte, 4)); err != ErrZeroVolume {
		t.Errorf("zero dimension: expected ErrZeroVolume, got %v", err)
	}

	// More components than ids table entries.
	noIDs := buildStream(t, testHeader(2, 2, 1), nil, nil, nil, nil)
	if err := Decompress(noIDs, make([]byte, 4)); err != ErrBadIDCount {
		t.Errorf("empty ids table: expected ErrBadIDCount, got %v", err)
	}

	// A block referencing a window value past the table.
	h := testHeader(1, 1, 1)
	h.XStep, h.YStep, h.ZStep = 1, 1, 1
	badIndex := buildStream(t, h, []uint64{5}, []uint64{0}, nil, []uint64{3 << 1})
	if err := Decompress(badIndex, make([]byte, 1)); err != ErrBadWindowIndex {
		t.Errorf("window index out of range: expected ErrBadWindowIndex, got %v", err)
	}

	// Run-length coded windows writing past the block count.
	overflow := buildStream(t, h, []uint64{5}, []uint64{0}, nil, []uint64{0 << 1, 0 << 1})
	if err := Decompress(overflow, make([]byte, 1)); err != ErrWindowOverflow {
		t.Errorf("rle overflow: expected ErrWindowOverflow, got %v", err)
	}
}

type roundTripCase struct {
	name       string
	sx, sy, sz int
	width      int
	opt        CompressOptions
	labels     []uint64
}

func checkRoundTrip(t *testing.T, tc roundTripCase) []byte {
	t.Helper()
	data := make([]byte, len(tc.labels)*tc.width)
	writeUints(data, tc.labels, tc.width)

	stream, err := Compress(data, tc.sx, tc.sy, tc.sz, tc.width, &tc.opt)
	if err != nil {
		t.Fatalf("%s: unable to compress: %v", tc.name, err)
	}
	output := make([]byte, len(data))
	if err := Decompress(stream, output); err != nil {
		t.Fatalf("%s: unable to decompress: %v", tc.name, err)
	}
	if !bytes.Equal(data, output) {
		got := readUints(output, tc.width, len(tc.labels))
		for i := range tc.labels {
			if got[i] != tc.labels[i] {
				t.Fatalf("%s: voxel %d: expected label %d, got %d",
					tc.name, i, tc.labels[i], got[i])
			}
		}
		t.Fatalf("%s: output bytes differ from input", tc.name)
	}
	return stream
}

func solidLabels(n int, label uint64) []uint64 {
	labels := make([]uint64, n)
	for i := range labels {
		labels[i] = label
	}
	return labels
}

func TestSolidRoundTrip(t *testing.T) {
	// A solid 2x2x2 cube in a single 2x2x2 block: one all-clear window
	// value, no run-length words, no locations.
	tc := roundTripCase{
		name: "solid 2x2x2",
		sx:   2, sy: 2, sz: 2,
		width:  8,
		opt:    CompressOptions{XStep: 2, YStep: 2, ZStep: 2},
		labels: solidLabels(8, 999),
	}
	stream := checkRoundTrip(t, tc)

	header, err := ParseHeader(stream)
	if err != nil {
		t.Fatalf("unable to parse round-trip header: %v", err)
	}
	if header.Blocks() != 1 {
		t.Errorf("expected 1 block, got %d", header.Blocks())
	}
	if header.ValueSize != 1 {
		t.Errorf("expected 1 window value, got %d", header.ValueSize)
	}
	if header.LocationSize != 0 {
		t.Errorf("expected no locations, got %d", header.LocationSize)
	}
}

func TestSolidRoundTripAllWidths(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		tc := roundTripCase{
			name: "solid",
			sx:   8, sy: 8, sz: 4,
			width:  width,
			labels: solidLabels(8*8*4, 200),
		}
		checkRoundTrip(t, tc)
	}
}

// A straight boundary plane resolves every voxel from the bulk pass and
// backward copies; the locations stream stays empty.
func TestTwoRegionRoundTrip(t *testing.T) {
	sx, sy, sz := 8, 8, 2
	labels := make([]uint64, sx*sy*sz)
	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			for x := 0; x < sx; x++ {
				if x < 4 {
					labels[x+sx*y+sx*sy*z] = 100
				} else {
					labels[x+sx*y+sx*sy*z] = 200
				}
			}
		}
	}
	stream := checkRoundTrip(t, roundTripCase{
		name: "two regions",
		sx:   sx, sy: sy, sz: sz,
		width:  2,
		labels: labels,
	})
	header, err := ParseHeader(stream)
	if err != nil {
		t.Fatalf("unable to parse round-trip header: %v", err)
	}
	if header.LocationSize != 0 {
		t.Errorf("expected straight boundary to need no locations, got %d", header.LocationSize)
	}
}

// Labels too large for the value-7 form force the "literal follows" form.
func TestLargeLiteralRoundTrip(t *testing.T) {
	stream := checkRoundTrip(t, roundTripCase{
		name: "literal escape",
		sx:   3, sy: 1, sz: 1,
		width:  1,
		labels: []uint64{250, 251, 250},
	})
	header, err := ParseHeader(stream)
	if err != nil {
		t.Fatalf("unable to parse round-trip header: %v", err)
	}
	if header.LocationSize != 4 {
		t.Errorf("expected two literal-escape pairs, got %d location entries", header.LocationSize)
	}
}

func TestRandomRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	configs := []CompressOptions{
		{XStep: 4, YStep: 4, ZStep: 1, Connectivity: 4},
		{XStep: 4, YStep: 4, ZStep: 1, Connectivity: 6},
		{XStep: 3, YStep: 5, ZStep: 2, Connectivity: 4}, // non-power-of-two xstep
		{XStep: 8, YStep: 8, ZStep: 1, Connectivity: 6},
	}
	for _, opt := range configs {
		for _, width := range []int{2, 8} {
			sx, sy, sz := 13, 11, 5
			labels := make([]uint64, sx*sy*sz)
			for i := range labels {
				labels[i] = uint64(r.Intn(5) + 1)
			}
			checkRoundTrip(t, roundTripCase{
				name: "random",
				sx:   sx, sy: sy, sz: sz,
				width:  width,
				opt:    opt,
				labels: labels,
			})
		}
	}
}

// Worst case for the indeterminate resolver: every voxel a different label.
func TestUniqueLabelsRoundTrip(t *testing.T) {
	for _, connectivity := range []uint8{4, 6} {
		sx, sy, sz := 6, 5, 3
		labels := make([]uint64, sx*sy*sz)
		for i := range labels {
			labels[i] = uint64(i + 1)
		}
		checkRoundTrip(t, roundTripCase{
			name: "unique labels",
			sx:   sx, sy: sy, sz: sz,
			width:  4,
			opt:    CompressOptions{Connectivity: connectivity},
			labels: labels,
		})
	}
}

func TestCompressValidation(t *testing.T) {
	data := make([]byte, 8)
	if _, err := Compress(data, 2, 2, 2, 3, nil); err == nil {
		t.Errorf("expected error for unsupported data width")
	}
	if _, err := Compress(data, 0, 2, 2, 1, nil); err == nil {
		t.Errorf("expected error for zero dimension")
	}
	if _, err := Compress(data, 2, 2, 2, 1, &CompressOptions{Connectivity: 8}); err == nil {
		t.Errorf("expected error for bad connectivity")
	}
	if _, err := Compress(data, 2, 2, 2, 1, &CompressOptions{XStep: 8, YStep: 8, ZStep: 2}); err == nil {
		t.Errorf("expected error for oversized window")
	}
	if _, err := Compress(data, 2, 2, 2, 8, nil); err == nil {
		t.Errorf("expected error for short label data")
	}
}
