/*
DESCRIPTION
  matrix.go provides Matrix, a binarized wrapper of a single luminance frame.
  Construction computes a global binarization threshold from the central
  region of the frame and locates the four corners of the barcode border.

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

// Package barcode provides binarization, border location, perspective
// correction and cell sampling for 2-D barcodes captured by a camera
// pointed at a screen.
package barcode

import (
	"github.com/pkg/errors"
)

// Binarization errors.
var (
	ErrBadFrameSize          = errors.New("luminance buffer size does not match dimensions")
	ErrThresholdUnresolvable = errors.New("luminance histogram is unimodal, cannot threshold")
)

// Histogram sampling parameters. The barcode fills the central region of the
// frame, so only the central 60% of four evenly spaced rows contribute to the
// histogram; ambient pixels at the frame edges would otherwise pollute the
// two-peak model.
const (
	histScanRows     = 4
	histCentralShare = 0.6
	minPeakGap       = 16
)

// Matrix wraps one frame of 8-bit luminance and carries the global threshold
// and the four detected border corners. A Matrix is created per frame and
// never mutated after construction.
type Matrix struct {
	pix       []byte
	w, h      int
	threshold uint8
	borders   [8]int
}

// NewMatrix binarizes the given row-major luminance buffer. It computes the
// central-region histogram threshold and locates the barcode border corners,
// returning ErrThresholdUnresolvable or ErrBorderNotFound respectively if
// either step fails.
func NewMatrix(pix []byte, w, h int) (*Matrix, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h {
		return nil, ErrBadFrameSize
	}
	m := &Matrix{pix: pix, w: w, h: h}

	t, err := threshold(pix, w, h)
	if err != nil {
		return nil, err
	}
	m.threshold = t

	b, err := findBorders(m)
	if err != nil {
		return nil, err
	}
	m.borders = b
	return m, nil
}

// Width returns the frame width in pixels.
func (m *Matrix) Width() int { return m.w }

// Height returns the frame height in pixels.
func (m *Matrix) Height() int { return m.h }

// Threshold returns the computed binarization threshold.
func (m *Matrix) Threshold() uint8 { return m.threshold }

// Borders returns the detected corner coordinates in the order
// TL.x, TL.y, TR.x, TR.y, BR.x, BR.y, BL.x, BL.y.
func (m *Matrix) Borders() [8]int { return m.borders }

// Gray returns the raw luminance at (x,y). Out-of-bounds coordinates read as
// black.
func (m *Matrix) Gray(x, y int) uint8 {
	if x < 0 || x >= m.w || y < 0 || y >= m.h {
		return 0
	}
	return m.pix[y*m.w+x]
}

// Get returns the binarized pixel at (x,y): true when the luminance exceeds
// the threshold, i.e. the pixel is lit.
func (m *Matrix) Get(x, y int) bool {
	return m.Gray(x, y) > m.threshold
}

// PixelEquals reports whether the binarized pixel at (x,y) has the value v.
func (m *Matrix) PixelEquals(x, y int, v bool) bool {
	return m.Get(x, y) == v
}

// threshold derives the global binarization cutoff from a histogram of the
// central region. The histogram is expected to be bimodal: one peak for lit
// cells and one for dark cells. The returned value is the valley between the
// two peaks, biased toward the darker peak.
func threshold(pix []byte, w, h int) (uint8, error) {
	var hist [256]int
	x0 := int(float64(w) * (1 - histCentralShare) / 2)
	x1 := w - x0
	for i := 1; i <= histScanRows; i++ {
		y := h * i / (histScanRows + 1)
		row := pix[y*w : (y+1)*w]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
		}
	}

	// firstPeak is the most populated bin.
	firstPeak := 0
	for x, c := range hist {
		if c > hist[firstPeak] {
			firstPeak = x
		}
	}

	// secondPeak is the bin maximizing count·distance², preferring a far,
	// tall second mode. A positive score needs both population and distance,
	// so an empty search means the histogram has a single mode.
	secondPeak := -1
	best := 0
	for x, c := range hist {
		d := x - firstPeak
		if score := c * d * d; score > best {
			best = score
			secondPeak = x
		}
	}
	if secondPeak < 0 {
		return 0, errors.Wrapf(ErrThresholdUnresolvable, "single mode at %d", firstPeak)
	}

	if abs(secondPeak-firstPeak) <= minPeakGap {
		return 0, errors.Wrapf(ErrThresholdUnresolvable, "peaks %d and %d", firstPeak, secondPeak)
	}
	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}

	// The valley maximizes distance from the first peak, squared distance
	// from the second, and depth below the first peak's count.
	firstCount := hist[firstPeak]
	valley := firstPeak + 1
	best = -1
	for x := firstPeak + 1; x < secondPeak; x++ {
		d2 := secondPeak - x
		if score := (x - firstPeak) * d2 * d2 * (firstCount - hist[x]); score > best {
			best = score
			valley = x
		}
	}
	return uint8(valley), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
