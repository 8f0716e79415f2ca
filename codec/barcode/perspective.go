/*
DESCRIPTION
  perspective.go builds and applies general quadrilateral-to-quadrilateral
  projective transforms. A transform is composed from the closed-form
  square-to-quadrilateral mapping and its adjoint, and is applied in place
  to interleaved point buffers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package barcode

// Transform holds the nine coefficients of a 3×3 projective matrix applied
// to row vectors: a point (x,y) maps to
//
//	((a11·x + a21·y + a31)/d, (a12·x + a22·y + a32)/d), d = a13·x + a23·y + a33.
type Transform struct {
	a11, a21, a31 float64
	a12, a22, a32 float64
	a13, a23, a33 float64
}

// QuadToQuad returns the transform taking the source quadrilateral
// (x0,y0)…(x3,y3) to the destination quadrilateral (x0p,y0p)…(x3p,y3p).
// Corners are given in scan order: top-left, top-right, bottom-right,
// bottom-left.
func QuadToQuad(x0, y0, x1, y1, x2, y2, x3, y3,
	x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p float64) *Transform {
	qToS := quadToSquare(x0, y0, x1, y1, x2, y2, x3, y3)
	sToQ := squareToQuad(x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p)
	return sToQ.times(qToS)
}

// TransformPoints projects the interleaved buffer [x0,y0,x1,y1,…] in place.
func (t *Transform) TransformPoints(points []float64) {
	for i := 0; i+1 < len(points); i += 2 {
		x := points[i]
		y := points[i+1]
		d := t.a13*x + t.a23*y + t.a33
		points[i] = (t.a11*x + t.a21*y + t.a31) / d
		points[i+1] = (t.a12*x + t.a22*y + t.a32) / d
	}
}

// Coefficients returns the eight free coefficients
// (a11,a12,a13,a21,a22,a23,a31,a32) with the matrix scaled so a33 = 1.
func (t *Transform) Coefficients() [8]float64 {
	s := 1 / t.a33
	return [8]float64{
		t.a11 * s, t.a12 * s, t.a13 * s,
		t.a21 * s, t.a22 * s, t.a23 * s,
		t.a31 * s, t.a32 * s,
	}
}

// squareToQuad maps the unit square (0,0),(1,0),(1,1),(0,1) onto the given
// quadrilateral.
func squareToQuad(x0, y0, x1, y1, x2, y2, x3, y3 float64) *Transform {
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// Affine case.
		return &Transform{
			a11: x1 - x0, a21: x2 - x1, a31: x0,
			a12: y1 - y0, a22: y2 - y1, a32: y0,
			a13: 0, a23: 0, a33: 1,
		}
	}
	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2
	den := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / den
	a23 := (dx1*dy3 - dx3*dy1) / den
	return &Transform{
		a11: x1 - x0 + a13*x1, a21: x3 - x0 + a23*x3, a31: x0,
		a12: y1 - y0 + a13*y1, a22: y3 - y0 + a23*y3, a32: y0,
		a13: a13, a23: a23, a33: 1,
	}
}

// quadToSquare is the inverse of squareToQuad, computed as the adjoint.
func quadToSquare(x0, y0, x1, y1, x2, y2, x3, y3 float64) *Transform {
	return squareToQuad(x0, y0, x1, y1, x2, y2, x3, y3).adjoint()
}

// adjoint returns the adjugate matrix, which inverts a projective transform
// up to scale.
func (t *Transform) adjoint() *Transform {
	return &Transform{
		a11: t.a22*t.a33 - t.a23*t.a32,
		a21: t.a23*t.a31 - t.a21*t.a33,
		a31: t.a21*t.a32 - t.a22*t.a31,
		a12: t.a13*t.a32 - t.a12*t.a33,
		a22: t.a11*t.a33 - t.a13*t.a31,
		a32: t.a12*t.a31 - t.a11*t.a32,
		a13: t.a12*t.a23 - t.a13*t.a22,
		a23: t.a13*t.a21 - t.a11*t.a23,
		a33: t.a11*t.a22 - t.a12*t.a21,
	}
}

// times composes two transforms: applying the result equals applying o first
// and then t.
func (t *Transform) times(o *Transform) *Transform {
	return &Transform{
		a11: t.a11*o.a11 + t.a21*o.a12 + t.a31*o.a13,
		a21: t.a11*o.a21 + t.a21*o.a22 + t.a31*o.a23,
		a31: t.a11*o.a31 + t.a21*o.a32 + t.a31*o.a33,
		a12: t.a12*o.a11 + t.a22*o.a12 + t.a32*o.a13,
		a22: t.a12*o.a21 + t.a22*o.a22 + t.a32*o.a23,
		a32: t.a12*o.a31 + t.a22*o.a32 + t.a32*o.a33,
		a13: t.a13*o.a11 + t.a23*o.a12 + t.a33*o.a13,
		a23: t.a13*o.a21 + t.a23*o.a22 + t.a33*o.a23,
		a33: t.a13*o.a31 + t.a23*o.a32 + t.a33*o.a33,
	}
}
