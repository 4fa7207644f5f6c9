// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import "github.com/cpmech/morpho/field"

// base holds the fields every concrete functional shares, mirroring the way
// gofem's SmallElasticity is embedded by each concrete solid model
// (mdl/solid/elasticity.go) instead of being reimplemented per model.
type base struct {
	grade int
	sym   SymmetryBehavior
	fld   *field.Field
}

func (b *base) Grade() int                  { return b.grade }
func (b *base) Symmetry() SymmetryBehavior   { return b.sym }
func (b *base) Field() *field.Field          { return b.fld }
