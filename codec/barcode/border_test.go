/*
DESCRIPTION
  border_test.go contains tests for barcode border location.

AUTHORS
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
	"testing"

	"github.com/pkg/errors"
)

// TestFindBorders checks corner location on a rendered axis-aligned symbol.
func TestFindBorders(t *testing.T) {
	g := testGeometry()
	content := make([]byte, g.ContentBytes())
	for i := range content {
		content[i] = byte(i * 17)
	}
	pix, w, h := renderTestFrame(g, content)

	m, err := NewMatrix(pix, w, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := testMargin + g.BarcodeWidth()*testScale - 1
	want := [8]int{
		testMargin, testMargin,
		last, testMargin,
		last, last,
		testMargin, last,
	}
	got := m.Borders()
	for i := range want {
		if diff := abs(got[i] - want[i]); diff > 1 {
			t.Errorf("border coordinate %d = %d, want %d±1", i, got[i], want[i])
		}
	}
}

// TestFindBordersAbsent checks that a bimodal frame with no symbol fails
// with ErrBorderNotFound.
func TestFindBordersAbsent(t *testing.T) {
	const w, h = 200, 200
	pix := make([]byte, w*h)
	// Bimodal noise in alternating full columns; no sustained dark run
	// follows a lit run on any scan line.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x%2 == 0 {
				pix[y*w+x] = 220
			} else {
				pix[y*w+x] = 40
			}
		}
	}
	_, err := NewMatrix(pix, w, h)
	if !errors.Is(err, ErrBorderNotFound) {
		t.Errorf("expected ErrBorderNotFound, got %v", err)
	}
}
