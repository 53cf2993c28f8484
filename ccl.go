/*
	This file implements connected-component labeling over the boundary
	bitmap: a disjoint-set forest, a single forward raster pass per
	connectivity, and a relabeling pass that compacts provisional ids into a
	dense consecutive range.
*/

package compresso

import "math"

// disjointSet is a union-find forest over dense integer ids backed by a flat
// parent array.  Id 0 is reserved as a null sentinel: ids[i] == 0 means "not
// yet created" and ids[i] == i marks a root.
type disjointSet struct {
	ids []uint32
}

func newDisjointSet(n int) *disjointSet {
	return &disjointSet{ids: make([]uint32, n)}
}

// root walks parent pointers with halving compression.  Each call shortens
// the path; repeated calls converge on a fully compressed tree.
func (ds *disjointSet) root(n uint32) uint32 {
	i := ds.ids[n]
	for i != ds.ids[i] {
		ds.ids[i] = ds.ids[ds.ids[i]]
		i = ds.ids[i]
	}
	return i
}

func (ds *disjointSet) find(p, q uint32) bool {
	return ds.root(p) == ds.root(q)
}

// add lazily initializes p as its own root.
func (ds *disjointSet) add(p uint32) {
	if ds.ids[p] == 0 {
		ds.ids[p] = p
	}
}

// unify parents root(p) under root(q), creating either side if absent.
func (ds *disjointSet) unify(p, q uint32) {
	if p == q {
		return
	}
	i := ds.root(p)
	j := ds.root(q)
	if i == 0 {
		ds.add(p)
		i = p
	}
	if j == 0 {
		ds.add(q)
		j = q
	}
	ds.ids[i] = j
}

// relabel is the second pass of the two-pass algorithm family: provisional
// labels 1..numLabels in out are resolved through the equivalence forest to
// final labels numbered consecutively from startLabel.  Returns the number
// of distinct final labels.  When the provisional labels are already final
// (no merges and startLabel 1) the rewrite of out is skipped.
func relabel(out []uint32, numLabels int, equivalences *disjointSet, startLabel uint32) int {
	renumber := make([]uint32, numLabels+1)
	next := startLabel
	for i := 1; i <= numLabels; i++ {
		label := equivalences.root(uint32(i))
		if renumber[label] == 0 {
			renumber[label] = next
			renumber[i] = next
			next++
		} else {
			renumber[i] = renumber[label]
		}
	}

	n := int(next - startLabel)
	if n < numLabels || startLabel != 1 {
		for loc := range out {
			out[loc] = renumber[out[loc]]
		}
	}
	return n
}

// connectedComponents2d4 labels the non-boundary voxels of one z slice with
// 4-connectivity in a single forward raster pass.
//
// Forward pass mask, A is the current location:
//
//	D C
//	B A
//
// Inheriting from B while C is open and D closed is the one extra union that
// makes a single pass sufficient.
func connectedComponents2d4(in []bool, sx, sy int, out []uint32, startLabel uint32) int {
	maxLabels := (sx*sy+2)/2 + 1
	if v := sx*sy + 1; maxLabels > v {
		maxLabels = v
	}
	equivalences := newDisjointSet(maxLabels)

	b := -1
	c := -sx
	d := -1 - sx

	var nextLabel uint32
	for y := 0; y < sy; y++ {
		for x := 0; x < sx; x++ {
			loc := x + sx*y
			if in[loc] {
				continue
			}

			if x > 0 && !in[loc+b] {
				out[loc] = out[loc+b]
				if y > 0 && in[loc+d] && !in[loc+c] {
					equivalences.unify(out[loc], out[loc+c])
				}
			} else if y > 0 && !in[loc+c] {
				out[loc] = out[loc+c]
			} else {
				nextLabel++
				out[loc] = nextLabel
				equivalences.add(nextLabel)
			}
		}
	}

	return relabel(out, int(nextLabel), equivalences, startLabel)
}

// connectedComponents3d6 labels the non-boundary voxels of the whole volume
// with 6-connectivity in a single forward raster pass.
//
// Forward pass mask (facing backwards), N is the current location:
//
//	z = -1     z = 0
//	A B C      J K L   y = -1
//	D E F      M N     y =  0
//	G H I              y = +1
//
// The diagonal-gated unions against E (the -z neighbor) are what keep a
// single pass correct in 3-D.
func connectedComponents3d6(in []bool, sx, sy, sz int, out []uint32) int {
	sxy := sx * sy

	maxLabels := (sx+1)*(sy+1)*(sz+1)/2 + 1
	if v := sxy*sz + 1; maxLabels > v {
		maxLabels = v
	}
	if maxLabels > math.MaxUint32 {
		maxLabels = math.MaxUint32
	}
	equivalences := newDisjointSet(maxLabels)

	// z - 1
	nB := -sx - sxy
	nE := -sxy
	nD := -1 - sxy

	// current z
	nK := -sx
	nM := -1
	nJ := -1 - sx

	var nextLabel uint32
	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			for x := 0; x < sx; x++ {
				loc := x + sx*(y+sy*z)
				if in[loc] {
					continue
				}

				if x > 0 && !in[loc+nM] {
					out[loc] = out[loc+nM]
					if y > 0 && !in[loc+nK] && in[loc+nJ] {
						equivalences.unify(out[loc], out[loc+nK])
						if z > 0 && !in[loc+nE] && in[loc+nD] && in[loc+nB] {
							equivalences.unify(out[loc], out[loc+nE])
						}
					} else if z > 0 && !in[loc+nE] && in[loc+nD] {
						equivalences.unify(out[loc], out[loc+nE])
					}
				} else if y > 0 && !in[loc+nK] {
					out[loc] = out[loc+nK]
					if z > 0 && !in[loc+nE] && in[loc+nB] {
						equivalences.unify(out[loc], out[loc+nE])
					}
				} else if z > 0 && !in[loc+nE] {
					out[loc] = out[loc+nE]
				} else {
					nextLabel++
					out[loc] = nextLabel
					equivalences.add(nextLabel)
				}
			}
		}
	}

	if nextLabel <= 1 {
		return int(nextLabel)
	}
	return relabel(out, int(nextLabel), equivalences, 1)
}

// connectedComponents labels the non-boundary voxels of the bitmap and
// returns the component buffer (0 marks boundary voxels) plus the number of
// components.  For 4-connectivity each z slice is labeled independently and
// slices never share label ranges or merge; stream producers rely on this,
// so it is preserved exactly.
func connectedComponents(boundaries []bool, sx, sy, sz int, connectivity uint8) ([]uint32, int) {
	sxy := sx * sy
	out := make([]uint32, sxy*sz)

	if connectivity == 6 {
		n := connectedComponents3d6(boundaries, sx, sy, sz, out)
		return out, n
	}

	var n int
	for z := 0; z < sz; z++ {
		slice := boundaries[sxy*z : sxy*(z+1)]
		n += connectedComponents2d4(slice, sx, sy, out[sxy*z:sxy*(z+1)], uint32(n)+1)
	}
	return out, n
}
