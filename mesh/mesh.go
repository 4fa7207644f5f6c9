// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh implements the simplicial-complex data model (spec §3.1, §4.1):
// a dense vertex position table plus, per grade, a sparse incidence matrix
// C(0,g) relating vertices to elements. Derived connectivities C(g1,g2) are
// computed from the simplex facet structure and cached; a special C(0,0)
// relation encodes the image-vertex symmetry identification used by functionals
// with SYMMETRY_ADD behaviour.
package mesh

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/morpho/sparse"
)

// MaxGradeSupported is the highest element grade the core understands: 0
// (vertex), 1 (line), 2 (face), 3 (volume). Higher-order elements are an
// explicit non-goal (spec §1).
const MaxGradeSupported = 3

// Mesh is a simplicial complex with graded elements and cached connectivity.
type Mesh struct {
	dim   int         // number of coordinate rows (embedding dimension)
	x     [][]float64 // dim x N dense vertex coordinates
	elems [4][][]int  // elems[g][id] = the (g+1) vertex ids in the order given to AddGrade, for g=1,2,3
	maxg  int

	// symmetry identification C(0,0): i -> sorted list of vertices that are
	// images of i (skipped in summation, sharing force contributions).
	image2root map[int]int   // image vertex -> its root (canonical, non-image) vertex
	root2image map[int][]int // root vertex -> sorted list of its images

	connCache map[[2]int]*sparse.CCS
}

// New creates a mesh from a dim x N dense vertex-coordinate matrix. Vertices
// are grade 0 and are always present; higher grades are added with AddGrade.
func New(x [][]float64) *Mesh {
	dim := len(x)
	n := 0
	if dim > 0 {
		n = len(x[0])
	}
	o := &Mesh{dim: dim, x: x}
	o.elems[0] = make([][]int, n)
	for i := range o.elems[0] {
		o.elems[0][i] = []int{i}
	}
	o.maxg = 0
	o.image2root = make(map[int]int)
	o.root2image = make(map[int][]int)
	o.connCache = make(map[[2]int]*sparse.CCS)
	return o
}

// VertexMatrix returns the dense dim x N vertex coordinate view. Callers that
// mutate it directly (e.g. the optimizer stepping vertex positions) must call
// ResetConnectivity only if the mutation changes topology; coordinate-only
// changes never invalidate connectivity.
func (o *Mesh) VertexMatrix() [][]float64 { return o.x }

// Dim returns the embedding dimension (number of coordinate rows).
func (o *Mesh) Dim() int { return o.dim }

// NumVertices returns the number of grade-0 elements.
func (o *Mesh) NumVertices() int { return len(o.x[0]) }

// Count returns the number of elements of the given grade.
func (o *Mesh) Count(g int) int {
	if g == 0 {
		return o.NumVertices()
	}
	return len(o.elems[g])
}

// MaxGrade returns the highest grade with at least one element.
func (o *Mesh) MaxGrade() int { return o.maxg }

// Vertex returns a copy of the coordinates of vertex id.
func (o *Mesh) Vertex(id int) []float64 {
	v := make([]float64, o.dim)
	for d := 0; d < o.dim; d++ {
		v[d] = o.x[d][id]
	}
	return v
}

// SetVertex overwrites the coordinates of vertex id in place.
func (o *Mesh) SetVertex(id int, v []float64) {
	for d := 0; d < o.dim; d++ {
		o.x[d][id] = v[d]
	}
}

// ElementVertices returns the (g+1) vertex ids of element id of grade g, in
// the order they were given to AddGrade (preserves winding/orientation).
func (o *Mesh) ElementVertices(g, id int) []int {
	if g == 0 {
		return []int{id}
	}
	return o.elems[g][id]
}

// AddGrade registers elements of grade g, each given as a list of (g+1) vertex
// ids (kept in the given order). Passing a nil elements
// slice for g==1 derives edges from existing grade-2 faces (spec §4.1 edge
// case); passing nil for g==2 with only volumes present derives faces from
// grade-3 volumes the same way.
func (o *Mesh) AddGrade(g int, elements [][]int) error {
	if g <= 0 || g > MaxGradeSupported {
		return chk.Err("mesh: AddGrade: grade %d is out of range [1,%d]", g, MaxGradeSupported)
	}
	if elements == nil {
		derived, err := o.deriveFacets(g)
		if err != nil {
			return err
		}
		elements = derived
	}
	// vertex order within an element is preserved as given (not sorted): the
	// winding of a face/volume carries orientation information that functionals
	// like Area/GaussCurvature rely on for a consistent normal direction.
	canon := make([][]int, len(elements))
	for i, e := range elements {
		if len(e) != g+1 {
			return chk.Err("mesh: AddGrade: element %d of grade %d has %d vertices, want %d", i, g, len(e), g+1)
		}
		canon[i] = append([]int(nil), e...)
	}
	o.elems[g] = canon
	if g > o.maxg {
		o.maxg = g
	}
	o.ResetConnectivity()
	return nil
}

// deriveFacets builds grade-g elements as the deduplicated (g)-facets (vertex
// subsets omitting one vertex) of the elements one grade above, the standard
// simplicial boundary operator: a grade-h simplex with h+1 vertices has h+1
// facets of grade h-1, each with h vertices.
func (o *Mesh) deriveFacets(g int) ([][]int, error) {
	parent := g + 1
	if parent > MaxGradeSupported || len(o.elems[parent]) == 0 {
		return nil, chk.Err("mesh: cannot derive grade %d: no grade-%d elements present", g, parent)
	}
	seen := make(map[string]bool)
	var out [][]int
	for _, verts := range o.elems[parent] {
		for omit := range verts {
			facet := make([]int, 0, parent)
			for k, v := range verts {
				if k != omit {
					facet = append(facet, v)
				}
			}
			key := facetKey(facet)
			if !seen[key] {
				seen[key] = true
				out = append(out, facet)
			}
		}
	}
	return out, nil
}

// facetKey builds a canonical (order-independent) map key for a vertex set.
func facetKey(verts []int) string {
	c := append([]int(nil), verts...)
	sort.Ints(c)
	var b strings.Builder
	for _, v := range c {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	return b.String()
}

// ResetConnectivity invalidates all cached derived connectivities. Called
// automatically by AddGrade and SetSymmetry.
func (o *Mesh) ResetConnectivity() {
	o.connCache = make(map[[2]int]*sparse.CCS)
}

// Connectivity returns the sparse incidence matrix C(g1,g2): columns are
// grade-g2 elements, rows are grade-g1 elements, 1 marks incidence (a grade-g1
// element that is a facet-chain ancestor, or vertex member, of the grade-g2
// element). Derived matrices are cached until ResetConnectivity is called.
func (o *Mesh) Connectivity(g1, g2 int) (*sparse.CCS, error) {
	if g1 > g2 {
		ct, err := o.Connectivity(g2, g1)
		if err != nil {
			return nil, err
		}
		return ct.Transpose(), nil
	}
	key := [2]int{g1, g2}
	if c, ok := o.connCache[key]; ok {
		return c, nil
	}
	if g2 > o.maxg || (g2 > 0 && len(o.elems[g2]) == 0) {
		return nil, chk.Err("mesh: missing element grade %d", g2)
	}
	n1, n2 := o.Count(g1), o.Count(g2)
	dok := sparse.NewDOK(n1, n2, n2*(g2+1))
	if g1 == 0 {
		for id2 := 0; id2 < n2; id2++ {
			for _, v := range o.ElementVertices(g2, id2) {
				dok.Set(v, id2, 1)
			}
		}
	} else {
		// build a lookup from the canonical vertex-set key of a grade-g1
		// element to its id, then mark incidence for every sub-facet of a
		// grade-g2 element that matches a known grade-g1 element.
		lookup := make(map[string]int, n1)
		for id1 := 0; id1 < n1; id1++ {
			lookup[facetKey(o.ElementVertices(g1, id1))] = id1
		}
		for id2 := 0; id2 < n2; id2++ {
			for _, sub := range subfacets(o.ElementVertices(g2, id2), g1+1) {
				if id1, ok := lookup[facetKey(sub)]; ok {
					dok.Set(id1, id2, 1)
				}
			}
		}
	}
	c := dok.CCS()
	o.connCache[key] = c
	return c, nil
}

// subfacets returns all size-k vertex subsets of verts, each keeping the
// relative order of verts (callers compare them through the order-independent
// facetKey). k is always <= len(verts) for the
// grades this core supports (at most 4 vertices per volume element).
func subfacets(verts []int, k int) [][]int {
	n := len(verts)
	if k > n {
		return nil
	}
	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		sub := make([]int, k)
		for i, j := range idx {
			sub[i] = verts[j]
		}
		out = append(out, sub)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}

// FindNeighbors returns the grade-gr elements incident on element id of grade g.
func (o *Mesh) FindNeighbors(g, id, gr int) ([]int, error) {
	c, err := o.Connectivity(gr, g)
	if err != nil {
		return nil, err
	}
	return c.RowsForCol(id), nil
}

// SetSymmetry installs the C(0,0) image-vertex relation from (root,image)
// pairs: image is the image of root and is skipped during summation but
// receives combined force contributions (spec §3.1).
func (o *Mesh) SetSymmetry(pairs [][2]int) {
	o.image2root = make(map[int]int, len(pairs))
	o.root2image = make(map[int][]int, len(pairs))
	for _, p := range pairs {
		root, image := p[0], p[1]
		o.image2root[image] = root
		o.root2image[root] = append(o.root2image[root], image)
	}
	for r := range o.root2image {
		sort.Ints(o.root2image[r])
	}
	o.ResetConnectivity()
}

// SymmetryPairs returns the (root,image) pairs installed by SetSymmetry, root
// ascending then image ascending.
func (o *Mesh) SymmetryPairs() [][2]int {
	roots := make([]int, 0, len(o.root2image))
	for r := range o.root2image {
		roots = append(roots, r)
	}
	sort.Ints(roots)
	var out [][2]int
	for _, r := range roots {
		for _, im := range o.root2image[r] {
			out = append(out, [2]int{r, im})
		}
	}
	return out
}

// IsImage reports whether vertex id is an image vertex (i.e. should be
// skipped during element-summation traversal).
func (o *Mesh) IsImage(id int) bool {
	_, ok := o.image2root[id]
	return ok
}

// GetSynonyms returns the vertices identified with vertex id via the C(0,0)
// symmetry relation (its root and sibling images if id is an image, or its
// images if id is a root), excluding id itself. Only meaningful for g==0;
// for g!=0 it returns nil, since symmetry is defined on vertices.
func (o *Mesh) GetSynonyms(g, id int) []int {
	if g != 0 {
		return nil
	}
	root := id
	if r, ok := o.image2root[id]; ok {
		root = r
	}
	var out []int
	for _, im := range o.root2image[root] {
		if im != id {
			out = append(out, im)
		}
	}
	if root != id {
		out = append(out, root)
	}
	sort.Ints(out)
	return out
}

// ImageVertices returns all image vertex ids, sorted ascending (spec §4.5
// step 2: the image-id list used to skip symmetry-identified duplicates).
func (o *Mesh) ImageVertices() []int {
	out := make([]int, 0, len(o.image2root))
	for im := range o.image2root {
		out = append(out, im)
	}
	sort.Ints(out)
	return out
}
