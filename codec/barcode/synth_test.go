/*
DESCRIPTION
  synth_test.go renders synthetic barcode frames for the package tests: a
  lit margin, the dark outer ring, lit timing rings and a content region
  painted from caller-supplied bytes.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package barcode

// Rendering parameters for synthetic frames.
const (
	testScale  = 8  // Pixels per cell.
	testMargin = 16 // Quiet zone around the symbol in pixels.
)

// testGeometry returns the layout used by the synthetic frames.
func testGeometry() Geometry {
	return Geometry{
		FrameBlackLength:   2,
		FrameVaryLength:    1,
		FrameVaryTwoLength: 1,
		ContentLength:      48,
		ECNum:              4,
		ECByteNum:          8,
		ECLength:           64,
	}
}

// renderTestFrame paints a frame holding one barcode with the given content
// region bytes, packed MSB-first in row-major cell order. Lit cells render
// as 255, dark cells as 0, and the quiet zone is lit.
func renderTestFrame(g Geometry, content []byte) (pix []byte, w, h int) {
	wb := g.BarcodeWidth()
	ring := g.RingWidth()
	side := wb*testScale + 2*testMargin
	pix = make([]byte, side*side)

	cell := func(cx, cy int) byte {
		if cx < g.FrameBlackLength || cy < g.FrameBlackLength ||
			cx >= wb-g.FrameBlackLength || cy >= wb-g.FrameBlackLength {
			return 0
		}
		if cx < ring || cy < ring || cx >= wb-ring || cy >= wb-ring {
			return 255
		}
		i := (cy-ring)*g.ContentLength + (cx - ring)
		if content[i>>3]&(1<<uint(7-i&7)) != 0 {
			return 255
		}
		return 0
	}

	for py := 0; py < side; py++ {
		for px := 0; px < side; px++ {
			v := byte(255)
			cx := (px - testMargin) / testScale
			cy := (py - testMargin) / testScale
			if px >= testMargin && py >= testMargin && cx < wb && cy < wb {
				v = cell(cx, cy)
			}
			pix[py*side+px] = v
		}
	}
	return pix, side, side
}
