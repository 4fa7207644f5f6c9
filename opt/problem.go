// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/cpmech/morpho/eval"
	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/mesh"
	"github.com/cpmech/morpho/selection"
)

// EnergyTerm is one addend of the total energy (spec §4.6 addenergy).
type EnergyTerm struct {
	F         mdl.Functional
	Sel       *selection.Selection
	Prefactor float64
}

// ConstraintTerm is one global equality constraint (spec §4.6 addconstraint).
type ConstraintTerm struct {
	F      mdl.Functional
	Sel    *selection.Selection
	Fld    *field.Field
	Target float64
}

// LocalConstraintTerm is one per-vertex equality constraint (spec §4.6
// addlocalconstraint).
type LocalConstraintTerm struct {
	F        mdl.Functional
	Sel      *selection.Selection
	Fld      *field.Field
	OneSided bool
	Target   float64
}

// Problem is an OptimizationProblem: a mesh plus the energies, global and
// local constraints, and fields being optimized (spec §4.6).
type Problem struct {
	Mesh             *mesh.Mesh
	Energies         []EnergyTerm
	Constraints      []ConstraintTerm
	LocalConstraints []LocalConstraintTerm
	Fields           []*field.Field
}

// NewProblem returns an empty optimization problem over m.
func NewProblem(m *mesh.Mesh) *Problem { return &Problem{Mesh: m} }

// AddEnergy adds a term to the total energy. prefactor of 0 is treated as 1.
func (p *Problem) AddEnergy(f mdl.Functional, sel *selection.Selection, prefactor float64) {
	if prefactor == 0 {
		prefactor = 1
	}
	p.Energies = append(p.Energies, EnergyTerm{F: f, Sel: sel, Prefactor: prefactor})
}

// AddConstraint adds a global equality constraint. If target is nil, the
// constraint's current total is captured as its target (spec §4.6).
func (p *Problem) AddConstraint(f mdl.Functional, sel *selection.Selection, fld *field.Field, target *float64) error {
	t, err := p.resolveTarget(f, sel, fld, target)
	if err != nil {
		return err
	}
	p.Constraints = append(p.Constraints, ConstraintTerm{F: f, Sel: sel, Fld: fld, Target: t})
	return nil
}

// AddLocalConstraint adds a per-vertex equality constraint.
func (p *Problem) AddLocalConstraint(f mdl.Functional, sel *selection.Selection, fld *field.Field, onesided bool, target *float64) error {
	t, err := p.resolveTarget(f, sel, fld, target)
	if err != nil {
		return err
	}
	p.LocalConstraints = append(p.LocalConstraints, LocalConstraintTerm{F: f, Sel: sel, Fld: fld, OneSided: onesided, Target: t})
	return nil
}

func (p *Problem) resolveTarget(f mdl.Functional, sel *selection.Selection, fld *field.Field, target *float64) (float64, error) {
	if target != nil {
		return *target, nil
	}
	return eval.Total(f, &mdl.Context{Mesh: p.Mesh, Sel: sel, Fld: fld})
}

// AddField registers a field as one of the problem's optimization targets
// (spec §4.6 addfield), so a FieldOptimizer built over it can find the
// constraints and local constraints bound to it.
func (p *Problem) AddField(f *field.Field) {
	p.Fields = append(p.Fields, f)
}

// Rebind repoints every term's mesh/selection/field references after a
// structural change such as refinement, which produces an entirely new Mesh
// and associated Field/Selection values (spec §4.6 update, §5 "predecessors
// must remain live until the rebind completes"). selMap/fldMap translate old
// pointers to their new counterparts; entries absent from the maps are left
// as-is (e.g. a selection not touched by refinement).
func (p *Problem) Rebind(m *mesh.Mesh, selMap map[*selection.Selection]*selection.Selection, fldMap map[*field.Field]*field.Field) {
	p.Mesh = m
	for i := range p.Energies {
		if ns, ok := selMap[p.Energies[i].Sel]; ok {
			p.Energies[i].Sel = ns
		}
	}
	for i := range p.Constraints {
		if ns, ok := selMap[p.Constraints[i].Sel]; ok {
			p.Constraints[i].Sel = ns
		}
		if nf, ok := fldMap[p.Constraints[i].Fld]; ok {
			p.Constraints[i].Fld = nf
		}
	}
	for i := range p.LocalConstraints {
		if ns, ok := selMap[p.LocalConstraints[i].Sel]; ok {
			p.LocalConstraints[i].Sel = ns
		}
		if nf, ok := fldMap[p.LocalConstraints[i].Fld]; ok {
			p.LocalConstraints[i].Fld = nf
		}
	}
	for i, f := range p.Fields {
		if nf, ok := fldMap[f]; ok {
			p.Fields[i] = nf
		}
	}
}

// TotalEnergy sums every energy term's prefactor-weighted total, evaluated
// against fld (the field under a FieldOptimizer's descent; nil for a
// ShapeOptimizer, whose energies read only vertex positions).
func (p *Problem) TotalEnergy(fld *field.Field) (float64, error) {
	sum := 0.0
	for _, e := range p.Energies {
		t, err := eval.Total(e.F, &mdl.Context{Mesh: p.Mesh, Sel: e.Sel, Fld: fld})
		if err != nil {
			return 0, err
		}
		sum += e.Prefactor * t
	}
	return sum, nil
}
