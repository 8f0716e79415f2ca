/*
DESCRIPTION
  geometry.go defines the cell-level layout of the displayed barcode: the
  widths of the border rings, the side of the content region and the
  Reed-Solomon parameters, along with derived sizes used by the sampler and
  the symbol codecs.

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
	"strconv"

	"github.com/pkg/errors"

	"github.com/ausocean/optic/rx/config"
)

// ErrBadGeometry is returned when configured barcode dimensions or codec
// parameters cannot describe a decodable symbol.
var ErrBadGeometry = errors.New("invalid barcode geometry")

// Default Reed-Solomon parameters applied when the configuration hints leave
// them unset.
const (
	defaultECNum     = 4
	defaultECByteNum = 8
)

// Per-frame byte overhead ahead of the fountain symbol payload: a 4-byte
// file length, its CRC-8, a source block number and a 16-bit encoding
// symbol ID.
const (
	HeaderBytes   = 5
	PacketIDBytes = 3
)

// Geometry describes the displayed barcode layout in cells. Immutable after
// construction; shared by the sampler, the frame codec and the test
// synthesizer.
type Geometry struct {
	FrameBlackLength   int // Outer black ring width.
	FrameVaryLength    int // First timing ring width.
	FrameVaryTwoLength int // Second timing ring width.
	ContentLength      int // Content region side.
	ECNum              int // Reed-Solomon codewords per frame.
	ECByteNum          int // Parity bytes per codeword.
	ECLength           int // Parity bits per codeword.
}

// NewGeometry derives the barcode geometry from a receiver configuration.
// Ring widths and the content side come from the layout fields; the
// Reed-Solomon parameters and their overrides come from the hints map.
func NewGeometry(c config.Config) (Geometry, error) {
	g := Geometry{
		FrameBlackLength:   int(c.BorderLength),
		FrameVaryLength:    int(c.PaddingLength),
		FrameVaryTwoLength: int(c.MetaLength),
		ContentLength:      int(c.MainWidth),
		ECNum:              defaultECNum,
		ECByteNum:          defaultECByteNum,
	}
	if c.MainWidth != c.MainHeight {
		return g, errors.Wrapf(ErrBadGeometry, "main region %dx%d not square", c.MainWidth, c.MainHeight)
	}

	for key, dst := range map[string]*int{
		config.HintECNum:     &g.ECNum,
		config.HintECByteNum: &g.ECByteNum,
	} {
		v, ok := c.Hints[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return g, errors.Wrapf(ErrBadGeometry, "hint %s=%q", key, v)
		}
		*dst = n
	}
	g.ECLength = 8 * g.ECByteNum
	if v, ok := c.Hints[config.HintECLength]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n != g.ECLength {
			return g, errors.Wrapf(ErrBadGeometry, "hint %s=%q conflicts with %d parity bytes", config.HintECLength, v, g.ECByteNum)
		}
	}

	return g, g.validate()
}

// BarcodeWidth returns the full symbol side in cells: the three rings on
// both sides plus the content region.
func (g Geometry) BarcodeWidth() int {
	return 2*(g.FrameBlackLength+g.FrameVaryLength+g.FrameVaryTwoLength) + g.ContentLength
}

// RingWidth returns the combined width of the three border rings, which is
// the cell offset of the content region from the symbol edge.
func (g Geometry) RingWidth() int {
	return g.FrameBlackLength + g.FrameVaryLength + g.FrameVaryTwoLength
}

// ContentBytes returns the capacity of the content region in bytes.
func (g Geometry) ContentBytes() int {
	return g.ContentLength * g.ContentLength / 8
}

// ParityBytes returns the total Reed-Solomon parity bytes per frame.
func (g Geometry) ParityBytes() int {
	return g.ECNum * g.ECByteNum
}

// SymbolSize returns the fountain symbol payload bytes carried per reading:
// the content capacity less parity, frame header and packet identification.
func (g Geometry) SymbolSize() int {
	return g.ContentBytes() - g.ParityBytes() - HeaderBytes - PacketIDBytes
}

// DataBytes returns the Reed-Solomon protected byte count per reading: the
// packet identification plus the symbol payload.
func (g Geometry) DataBytes() int {
	return PacketIDBytes + g.SymbolSize()
}

func (g Geometry) validate() error {
	switch {
	case g.FrameBlackLength < 1:
		return errors.Wrap(ErrBadGeometry, "black ring missing")
	case g.FrameVaryLength < 0 || g.FrameVaryTwoLength < 0:
		return errors.Wrap(ErrBadGeometry, "negative ring width")
	case g.ContentLength <= 0 || g.ContentLength*g.ContentLength%8 != 0:
		return errors.Wrapf(ErrBadGeometry, "content region %d cells not byte aligned", g.ContentLength)
	case g.ECNum < 1 || g.ECByteNum < 1:
		return errors.Wrap(ErrBadGeometry, "Reed-Solomon parameters unset")
	case g.SymbolSize() < 1:
		return errors.Wrapf(ErrBadGeometry, "no payload capacity at content %d, parity %d", g.ContentBytes(), g.ParityBytes())
	case (g.DataBytes()+g.ECNum-1)/g.ECNum+g.ECByteNum > 255:
		return errors.Wrap(ErrBadGeometry, "Reed-Solomon codeword exceeds 255 symbols")
	}
	return nil
}
