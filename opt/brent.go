// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import "math"

const (
	cgold = 0.3819660
	zeps  = 1e-10
)

// brent performs classical golden-section-with-parabolic-interpolation 1-D
// minimization of fn over the bracket [a,b] containing an interior point x
// where fn is presumed lower than at the endpoints (spec §4.8). It returns
// the minimizing abscissa and fn's value there.
func brent(fn func(float64) float64, a, x, b, tol float64, maxIter int) (xmin, fmin float64) {
	if a > b {
		a, b = b, a
	}
	w, v := x, x
	fw := fn(w)
	fx, fv := fw, fw
	var d, e float64
	for iter := 0; iter < maxIter; iter++ {
		xm := 0.5 * (a + b)
		tol1 := tol*math.Abs(x) + zeps
		tol2 := 2 * tol1
		if math.Abs(x-xm) <= tol2-0.5*(b-a) {
			return x, fx
		}
		useGolden := true
		if math.Abs(e) > tol1 {
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			etemp := e
			e = d
			if math.Abs(p) < math.Abs(0.5*q*etemp) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				u := x + d
				if u-a < tol2 || b-u < tol2 {
					d = sign(xm-x) * tol1
				}
				useGolden = false
			}
		}
		if useGolden {
			if x >= xm {
				e = a - x
			} else {
				e = b - x
			}
			d = cgold * e
		}
		var u float64
		if math.Abs(d) >= tol1 {
			u = x + d
		} else {
			u = x + sign(d)*tol1
		}
		fu := fn(u)
		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return x, fx
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// bracket expands/contracts a triple (s0,s1,s2) until fn(s1) is below both
// fn(s0) and fn(s2), trying at most 10 times (spec §4.7.3, §7 "bracketing
// failure"). Returns the bracket and ok=false if no descending bracket was
// found.
func bracket(fn func(float64) float64, s0, s1, s2 float64) (a, x, b float64, ok bool) {
	f0, f1, f2 := fn(s0), fn(s1), fn(s2)
	for i := 0; i < 10; i++ {
		if f1 < f0 && f1 < f2 {
			return s0, s1, s2, true
		}
		if f2 < f1 {
			s1, s2 = s2, s2+(s2-s0)
			f1, f2 = f2, fn(s2)
		} else {
			s2 = 0.5 * (s1 + s2)
			f2 = fn(s2)
		}
	}
	return s0, s1, s2, false
}
