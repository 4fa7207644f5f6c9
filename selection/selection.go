// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package selection implements per-grade boolean element subsets (spec §3.3):
// membership test, id-list extraction, set algebra, grade-crossing
// add/remove with partial-incidence semantics, and a topological-boundary
// constructor.
package selection

import (
	"sort"

	"github.com/cpmech/morpho/mesh"
)

// Selection is a per-grade boolean membership set over a Mesh.
type Selection struct {
	Msh  *mesh.Mesh
	sets [4]map[int]bool
}

// New returns an empty selection over m.
func New(m *mesh.Mesh) *Selection {
	o := &Selection{Msh: m}
	for g := range o.sets {
		o.sets[g] = make(map[int]bool)
	}
	return o
}

// Add marks element id of grade g as selected.
func (o *Selection) Add(g, id int) { o.sets[g][id] = true }

// Remove clears the selection flag for element id of grade g.
func (o *Selection) Remove(g, id int) { delete(o.sets[g], id) }

// Has reports whether element id of grade g is selected.
func (o *Selection) Has(g, id int) bool { return o.sets[g][id] }

// IDs returns the selected element ids of grade g, sorted ascending.
func (o *Selection) IDs(g int) []int {
	out := make([]int, 0, len(o.sets[g]))
	for id := range o.sets[g] {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Count returns the number of selected elements of grade g.
func (o *Selection) Count(g int) int { return len(o.sets[g]) }

// clone performs a deep copy.
func (o *Selection) clone() *Selection {
	n := New(o.Msh)
	for g := 0; g < 4; g++ {
		for id := range o.sets[g] {
			n.sets[g][id] = true
		}
	}
	return n
}

// Union returns a new selection containing elements in o or b, per grade.
func (o *Selection) Union(b *Selection) *Selection {
	n := o.clone()
	for g := 0; g < 4; g++ {
		for id := range b.sets[g] {
			n.sets[g][id] = true
		}
	}
	return n
}

// Intersection returns a new selection containing elements in both o and b.
func (o *Selection) Intersection(b *Selection) *Selection {
	n := New(o.Msh)
	for g := 0; g < 4; g++ {
		for id := range o.sets[g] {
			if b.sets[g][id] {
				n.sets[g][id] = true
			}
		}
	}
	return n
}

// Difference returns a new selection containing elements in o but not in b.
func (o *Selection) Difference(b *Selection) *Selection {
	n := New(o.Msh)
	for g := 0; g < 4; g++ {
		for id := range o.sets[g] {
			if !b.sets[g][id] {
				n.sets[g][id] = true
			}
		}
	}
	return n
}

// Complement returns a new selection containing, for each grade, every
// element of the mesh not in o.
func (o *Selection) Complement() *Selection {
	n := New(o.Msh)
	for g := 0; g < 4; g++ {
		for id := 0; id < o.Msh.Count(g); id++ {
			if !o.sets[g][id] {
				n.sets[g][id] = true
			}
		}
	}
	return n
}

// AddGradeOptions configures AddGrade's partial-incidence behaviour.
type AddGradeOptions struct {
	// Partials, when selecting a grade-to element from a selection currently
	// expressed on a lower grade `from`, accepts a grade-to element as long
	// as at least one (rather than all) of its incident grade-from elements
	// is selected (spec §3.3).
	Partials bool
}

// AddGrade extends the selection at grade `to`, deriving membership from the
// (lower or higher) grade `from` already selected: a grade-to element is
// added if all (or, with Partials, any) of its incident grade-from elements
// are selected.
func (o *Selection) AddGrade(from, to int, opts AddGradeOptions) error {
	c, err := o.Msh.Connectivity(from, to)
	if err != nil {
		return err
	}
	n := o.Msh.Count(to)
	for id := 0; id < n; id++ {
		rows := c.RowsForCol(id)
		if len(rows) == 0 {
			continue
		}
		any, all := false, true
		for _, r := range rows {
			if o.sets[from][r] {
				any = true
			} else {
				all = false
			}
		}
		if (opts.Partials && any) || (!opts.Partials && all) {
			o.sets[to][id] = true
		}
	}
	return nil
}

// RemoveGrade clears membership at grade `to` for elements whose incidence
// with the selected grade-from elements matches the same all/any rule
// AddGrade uses (i.e. undoes what AddGrade would have added).
func (o *Selection) RemoveGrade(from, to int, opts AddGradeOptions) error {
	c, err := o.Msh.Connectivity(from, to)
	if err != nil {
		return err
	}
	n := o.Msh.Count(to)
	for id := 0; id < n; id++ {
		rows := c.RowsForCol(id)
		if len(rows) == 0 {
			continue
		}
		any, all := false, true
		for _, r := range rows {
			if o.sets[from][r] {
				any = true
			} else {
				all = false
			}
		}
		if (opts.Partials && any) || (!opts.Partials && all) {
			delete(o.sets[to], id)
		}
	}
	return nil
}

// Boundary returns a new grade-(g-1) selection of the topological boundary:
// grade-(g-1) elements incident on exactly one grade-g element of the mesh
// (spec §3.3). g must be >= 1.
func Boundary(m *mesh.Mesh, g int) (*Selection, error) {
	c, err := m.Connectivity(g, g-1)
	if err != nil {
		return nil, err
	}
	n1 := m.Count(g - 1)
	out := New(m)
	for id := 0; id < n1; id++ {
		if len(c.RowsForCol(id)) == 1 {
			out.Add(g-1, id)
		}
	}
	return out, nil
}
