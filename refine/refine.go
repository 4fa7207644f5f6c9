// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package refine implements MeshRefiner (spec §4.9): edge-midpoint
// refinement with coincidence detection, producing a refinement map that
// carries fields and selections forward onto the new mesh.
package refine

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mesh"
	"github.com/cpmech/morpho/selection"
)

// Map relates every element of the refined mesh back to its parent(s) in the
// pre-refinement mesh (spec §3.6, §4.9 step 4): index by new element id,
// value is its parent old ids. A preserved vertex has itself as its sole
// parent; a midpoint vertex has its two endpoint parents. Every edge and
// face has exactly one parent, except for a wholly new internal edge
// introduced by re-triangulation, which has none.
type Map struct {
	VertexParents [][]int
	EdgeParents   [][]int
	FaceParents   [][]int
}

func (rm *Map) parentsForGrade(g int) [][]int {
	switch g {
	case 0:
		return rm.VertexParents
	case 1:
		return rm.EdgeParents
	case 2:
		return rm.FaceParents
	default:
		return nil
	}
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Refine splits every grade-1 edge named by edgeSel (or every edge, if
// edgeSel is nil or empty) and re-triangulates each grade-2 face according
// to how many of its edges were split, per the canonical patterns of spec
// §4.9.1. old must already carry an explicit or derived grade-1 edge list.
//
// Coincidence detection for shared midpoints is done by keying on the
// (sorted) parent vertex-id pair rather than through a k-d tree over
// coordinates: a k-d tree is explicitly out of scope (spec §1 non-goals),
// and since every internal edge of a conforming simplicial mesh is shared by
// exactly the two faces that reference the same pair of vertex ids, an
// exact id-pair key is both sufficient and exact, with no coordinate
// tolerance needed.
//
// Grade-3 (volume) refinement is not implemented: §4.9.1 specifies only the
// triangle patterns, and no scenario in §8 exercises volumes. A mesh with
// grade-3 elements present is rejected.
func Refine(old *mesh.Mesh, edgeSel *selection.Selection) (*mesh.Mesh, *Map, error) {
	if old.Count(1) == 0 {
		return nil, nil, chk.Err("refine: mesh has no grade-1 edges to refine")
	}
	if old.Count(3) > 0 {
		return nil, nil, chk.Err("refine: grade-3 (volume) refinement is not implemented")
	}

	refined := make(map[[2]int]bool)
	var edgeIDs []int
	if edgeSel != nil && edgeSel.Count(1) > 0 {
		edgeIDs = edgeSel.IDs(1)
	} else {
		n := old.Count(1)
		edgeIDs = make([]int, n)
		for i := range edgeIDs {
			edgeIDs[i] = i
		}
	}
	for _, e := range edgeIDs {
		v := old.ElementVertices(1, e)
		refined[pairKey(v[0], v[1])] = true
	}

	oldX := old.VertexMatrix()
	dim := old.Dim()
	nOld := old.NumVertices()
	newX := make([][]float64, dim)
	for d := range newX {
		newX[d] = append([]float64(nil), oldX[d]...)
	}

	rm := &Map{VertexParents: make([][]int, nOld)}
	for v := 0; v < nOld; v++ {
		rm.VertexParents[v] = []int{v}
	}

	midID := make(map[[2]int]int)
	for pair := range refined {
		a, b := pair[0], pair[1]
		mid := len(newX[0])
		for d := 0; d < dim; d++ {
			newX[d] = append(newX[d], 0.5*(oldX[d][a]+oldX[d][b]))
		}
		midID[pair] = mid
		rm.VertexParents = append(rm.VertexParents, []int{a, b})
	}

	var newEdges [][]int
	for e := 0; e < old.Count(1); e++ {
		v := old.ElementVertices(1, e)
		a, b := v[0], v[1]
		if mid, ok := midID[pairKey(a, b)]; ok {
			newEdges = append(newEdges, []int{a, mid}, []int{mid, b})
			rm.EdgeParents = append(rm.EdgeParents, []int{e}, []int{e})
		} else {
			newEdges = append(newEdges, []int{a, b})
			rm.EdgeParents = append(rm.EdgeParents, []int{e})
		}
	}

	seenInternal := make(map[[2]int]bool)
	addInternalEdge := func(a, b int) {
		k := pairKey(a, b)
		if seenInternal[k] {
			return
		}
		seenInternal[k] = true
		newEdges = append(newEdges, []int{a, b})
		rm.EdgeParents = append(rm.EdgeParents, nil)
	}

	var newFaces [][]int
	for t := 0; t < old.Count(2); t++ {
		v := old.ElementVertices(2, t)
		v0, v1, v2 := v[0], v[1], v[2]
		m01, r01 := midID[pairKey(v0, v1)]
		m12, r12 := midID[pairKey(v1, v2)]
		m20, r20 := midID[pairKey(v2, v0)]
		nref := 0
		for _, r := range []bool{r01, r12, r20} {
			if r {
				nref++
			}
		}
		push := func(tri []int) {
			newFaces = append(newFaces, tri)
			rm.FaceParents = append(rm.FaceParents, []int{t})
		}
		switch nref {
		case 0:
			push([]int{v0, v1, v2})
		case 1:
			switch {
			case r01:
				push([]int{v0, m01, v2})
				push([]int{m01, v1, v2})
				addInternalEdge(m01, v2)
			case r12:
				push([]int{v1, m12, v0})
				push([]int{m12, v2, v0})
				addInternalEdge(m12, v0)
			default: // r20
				push([]int{v2, m20, v1})
				push([]int{m20, v0, v1})
				addInternalEdge(m20, v1)
			}
		case 2:
			switch {
			case !r01: // edges 12,20 refined, sharing v2
				push([]int{v2, m12, m20})
				push([]int{v0, v1, m12})
				push([]int{v0, m12, m20})
				addInternalEdge(m12, m20)
				addInternalEdge(v0, m12)
			case !r12: // edges 20,01 refined, sharing v0
				push([]int{v0, m20, m01})
				push([]int{v1, v2, m20})
				push([]int{v1, m20, m01})
				addInternalEdge(m20, m01)
				addInternalEdge(v1, m20)
			default: // !r20, edges 01,12 refined, sharing v1
				push([]int{v1, m01, m12})
				push([]int{v2, v0, m01})
				push([]int{v2, m01, m12})
				addInternalEdge(m01, m12)
				addInternalEdge(v2, m01)
			}
		case 3:
			push([]int{v0, m01, m20})
			push([]int{m01, v1, m12})
			push([]int{m20, m12, v2})
			push([]int{m01, m12, m20})
			addInternalEdge(m01, m12)
			addInternalEdge(m12, m20)
			addInternalEdge(m20, m01)
		}
	}

	newMesh := mesh.New(newX)
	if err := newMesh.AddGrade(1, newEdges); err != nil {
		return nil, nil, err
	}
	if len(newFaces) > 0 {
		if err := newMesh.AddGrade(2, newFaces); err != nil {
			return nil, nil, err
		}
	}
	newMesh.SetSymmetry(old.SymmetryPairs())
	return newMesh, rm, nil
}

// Field returns a new field over newMesh whose value at each new element is
// the mean of old's values at the element's mapped parents (spec §4.9 step
// 5 "refinefield"): identity for a preserved vertex/edge/face (one parent),
// a true average for a midpoint vertex (two parents).
func Field(rm *Map, old *field.Field, newMesh *mesh.Mesh) *field.Field {
	out := field.New(newMesh, old.Dof, old.PSize)
	for g := 0; g < 4; g++ {
		if old.Dof[g] == 0 {
			continue
		}
		parents := rm.parentsForGrade(g)
		psize := old.PSize[g]
		for newID, ps := range parents {
			if len(ps) == 0 {
				continue
			}
			for item := 0; item < old.Dof[g]; item++ {
				acc := make([]float64, psize)
				for _, p := range ps {
					v := old.GetItem(g, p, item)
					for k := range acc {
						acc[k] += v[k]
					}
				}
				for k := range acc {
					acc[k] /= float64(len(ps))
				}
				out.SetItem(g, newID, item, acc)
			}
		}
	}
	return out
}

// Selection returns a new selection over newMesh in which an element is
// selected iff every one of its mapped parents was selected in old (spec
// §4.9 step 6 "refineselection"). A wholly new internal edge, which has no
// parent, is never selected.
func Selection(rm *Map, old *selection.Selection, newMesh *mesh.Mesh) *selection.Selection {
	out := selection.New(newMesh)
	for g := 0; g < 4; g++ {
		parents := rm.parentsForGrade(g)
		for newID, ps := range parents {
			if len(ps) == 0 {
				continue
			}
			all := true
			for _, p := range ps {
				if !old.Has(g, p) {
					all = false
					break
				}
			}
			if all {
				out.Add(g, newID)
			}
		}
	}
	return out
}
