/*
DESCRIPTION
  border.go locates the outer quadrilateral of the barcode in a binarized
  frame. Scan lines march inward from each image edge looking for the
  transition from background to the black border ring; each edge line is
  fitted by least squares and adjacent lines are intersected to give the
  four corners.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Russell Stanley <russell@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package barcode

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrBorderNotFound is returned when fewer than four barcode corners can be
// isolated in the frame.
var ErrBorderNotFound = errors.New("barcode border not found")

// Border scanning parameters.
const (
	borderScanLines = 8   // Scan lines per edge.
	borderQuietRun  = 2   // Lit pixels required before a transition counts.
	borderDarkRun   = 3   // Dark pixels required to accept a transition.
	borderMinPoints = 4   // Minimum fitted points per edge line.
	borderMargin    = 0.1 // Corners may fall this fraction outside the frame.
)

// edgeLine is a fitted border line. Horizontal lines are y = alpha + beta·x,
// vertical lines are x = alpha + beta·y.
type edgeLine struct {
	alpha, beta float64
	vertical    bool
}

// findBorders returns the corner coordinates of the outer black ring in the
// order TL.x, TL.y, TR.x, TR.y, BR.x, BR.y, BL.x, BL.y.
func findBorders(m *Matrix) ([8]int, error) {
	var c [8]int

	top, err := fitEdge(m, false, false)
	if err != nil {
		return c, err
	}
	bottom, err := fitEdge(m, false, true)
	if err != nil {
		return c, err
	}
	left, err := fitEdge(m, true, false)
	if err != nil {
		return c, err
	}
	right, err := fitEdge(m, true, true)
	if err != nil {
		return c, err
	}

	corners := [4][2]float64{}
	for i, pair := range [4][2]edgeLine{{top, left}, {top, right}, {bottom, right}, {bottom, left}} {
		x, y, err := intersect(pair[0], pair[1])
		if err != nil {
			return c, err
		}
		corners[i] = [2]float64{x, y}
	}

	// Corners far outside the frame mean at least one line fit ran along
	// noise rather than the border ring.
	mx := float64(m.w) * borderMargin
	my := float64(m.h) * borderMargin
	for _, p := range corners {
		if p[0] < -mx || p[0] > float64(m.w)+mx || p[1] < -my || p[1] > float64(m.h)+my {
			return c, errors.Wrap(ErrBorderNotFound, "corner outside frame")
		}
	}
	if !convex(corners) {
		return c, errors.Wrap(ErrBorderNotFound, "corners not convex")
	}

	for i, p := range corners {
		c[2*i] = int(math.Round(p[0]))
		c[2*i+1] = int(math.Round(p[1]))
	}
	return c, nil
}

// fitEdge scans inward from one image edge and fits a line through the first
// background-to-ring transitions. For the top and bottom edges scanning runs
// down columns; for left and right it runs along rows.
func fitEdge(m *Matrix, vertical, fromFar bool) (edgeLine, error) {
	span := m.w
	depth := m.h
	if vertical {
		span = m.h
		depth = m.w
	}

	// Scan lines cover the central region only; the barcode fills the middle
	// of the frame.
	lo := int(float64(span) * (1 - histCentralShare) / 2)
	hi := span - lo

	var fixed, found []float64
	for i := 0; i < borderScanLines; i++ {
		s := lo + (hi-lo)*(2*i+1)/(2*borderScanLines)
		d, ok := scanTransition(m, s, depth, vertical, fromFar)
		if !ok {
			continue
		}
		fixed = append(fixed, float64(s))
		found = append(found, float64(d))
	}
	if len(fixed) < borderMinPoints {
		return edgeLine{}, errors.Wrapf(ErrBorderNotFound, "%d transition points", len(fixed))
	}

	alpha, beta := stat.LinearRegression(fixed, found, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return edgeLine{}, errors.Wrap(ErrBorderNotFound, "degenerate edge fit")
	}
	return edgeLine{alpha: alpha, beta: beta, vertical: vertical}, nil
}

// scanTransition walks one scan line inward and returns the depth of the
// first sustained lit-to-dark transition.
func scanTransition(m *Matrix, line, depth int, vertical, fromFar bool) (int, bool) {
	lit := 0
	dark := 0
	for i := 0; i < depth/2; i++ {
		d := i
		if fromFar {
			d = depth - 1 - i
		}
		x, y := d, line
		if !vertical {
			x, y = line, d
		}
		if m.Get(x, y) {
			lit++
			dark = 0
			continue
		}
		if lit < borderQuietRun {
			continue
		}
		dark++
		if dark == borderDarkRun {
			if fromFar {
				return d + borderDarkRun - 1, true
			}
			return d - borderDarkRun + 1, true
		}
	}
	return 0, false
}

// intersect returns the crossing point of a horizontal-form and a
// vertical-form edge line.
func intersect(h, v edgeLine) (x, y float64, err error) {
	if h.vertical == v.vertical {
		return 0, 0, errors.Wrap(ErrBorderNotFound, "parallel edge forms")
	}
	if h.vertical {
		h, v = v, h
	}
	// y = h.alpha + h.beta·x and x = v.alpha + v.beta·y.
	den := 1 - h.beta*v.beta
	if math.Abs(den) < 1e-9 {
		return 0, 0, errors.Wrap(ErrBorderNotFound, "edges nearly parallel")
	}
	x = (v.alpha + v.beta*h.alpha) / den
	y = h.alpha + h.beta*x
	return x, y, nil
}

// convex reports whether the corner sequence TL, TR, BR, BL winds one way
// only.
func convex(p [4][2]float64) bool {
	sign := 0.0
	for i := 0; i < 4; i++ {
		a, b, c := p[i], p[(i+1)%4], p[(i+2)%4]
		cross := (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
		if cross == 0 {
			return false
		}
		if sign == 0 {
			sign = cross
		} else if sign*cross < 0 {
			return false
		}
	}
	return true
}
