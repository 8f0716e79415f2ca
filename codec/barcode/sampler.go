/*
DESCRIPTION
  sampler.go reads logical barcode cells through a perspective transform.
  Sample points sit at cell centres; a whole row is transformed as one batch
  and each projected point is floored to a pixel address before lookup.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

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
)

// ErrBadZone is returned when a requested zone does not pack into whole
// bytes.
var ErrBadZone = errors.New("zone does not pack into whole bytes")

// Zone is a rectangular cell region in logical barcode coordinates.
type Zone struct {
	X, Y int // Top-left cell.
	W, H int // Extent in cells.
}

// Strategy converts a sampled zone into bytes. The basic receiver carries a
// single black/white implementation; colour-modulated layouts plug in here.
type Strategy interface {
	// SampleZone reads every cell of the zone and packs the result.
	SampleZone(z Zone) ([]byte, error)

	// BitsPerCell returns the number of payload bits one cell carries.
	BitsPerCell() int
}

// Sampler projects logical cell coordinates of one barcode onto a binarized
// frame. The transform must map logical symbol coordinates (cells, origin at
// the outer top-left corner) to pixels.
type Sampler struct {
	m *Matrix
	t *Transform
}

// NewSampler returns a sampler reading m through t.
func NewSampler(m *Matrix, t *Transform) *Sampler {
	return &Sampler{m: m, t: t}
}

// SamplerFor builds the symbol-to-pixel transform from the matrix borders
// and returns a sampler over it. The logical space is the full barcode
// square of g.BarcodeWidth() cells.
func SamplerFor(m *Matrix, g Geometry) *Sampler {
	b := m.Borders()
	w := float64(g.BarcodeWidth())
	t := QuadToQuad(
		0, 0, w, 0, w, w, 0, w,
		float64(b[0]), float64(b[1]), float64(b[2]), float64(b[3]),
		float64(b[4]), float64(b[5]), float64(b[6]), float64(b[7]),
	)
	return NewSampler(m, t)
}

// SampleRow samples dimX cells of one logical row starting at (x0,row) and
// returns one byte per cell holding 0 or 1. All points of the row pass
// through the transform as a single batch.
func (s *Sampler) SampleRow(x0, row, dimX int) []byte {
	pts := make([]float64, 2*dimX)
	for i := 0; i < dimX; i++ {
		pts[2*i] = float64(x0+i) + 0.5
		pts[2*i+1] = float64(row) + 0.5
	}
	s.t.TransformPoints(pts)

	bits := make([]byte, dimX)
	for i := 0; i < dimX; i++ {
		x := int(math.Floor(pts[2*i]))
		y := int(math.Floor(pts[2*i+1]))
		if s.m.Get(x, y) {
			bits[i] = 1
		}
	}
	return bits
}

// SampleGrid samples a dimX×dimY cell region with its top-left cell at
// (x0,y0), returning rows of single-bit cells.
func (s *Sampler) SampleGrid(x0, y0, dimX, dimY int) [][]byte {
	grid := make([][]byte, dimY)
	for y := range grid {
		grid[y] = s.SampleRow(x0, y0+y, dimX)
	}
	return grid
}

// Mono is the black/white sampling strategy: one bit per cell, packed
// MSB-first in row-major order.
type Mono struct {
	s *Sampler
}

// NewMono returns the single-bit strategy over s.
func NewMono(s *Sampler) *Mono { return &Mono{s: s} }

// BitsPerCell implements Strategy.
func (m *Mono) BitsPerCell() int { return 1 }

// SampleZone implements Strategy.
func (m *Mono) SampleZone(z Zone) ([]byte, error) {
	if z.W*z.H%8 != 0 {
		return nil, errors.Wrapf(ErrBadZone, "%dx%d cells", z.W, z.H)
	}
	out := make([]byte, z.W*z.H/8)
	i := 0
	for y := 0; y < z.H; y++ {
		row := m.s.SampleRow(z.X, z.Y+y, z.W)
		for _, b := range row {
			out[i>>3] |= b << uint(7-i&7)
			i++
		}
	}
	return out, nil
}
