/*
DESCRIPTION
  synth_test.go builds synthetic barcode frames for receiver tests: payload
  bytes are fountain encoded, wrapped in the frame wire format with header
  and Reed-Solomon parity, and painted as luminance frames.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rx

import (
	"bytes"
	"encoding/binary"
	"testing"

	gofountain "github.com/google/gofountain"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/optic/codec/barcode"
	"github.com/ausocean/optic/codec/rs"
	"github.com/ausocean/optic/fountain"
	"github.com/ausocean/optic/rx/config"
)

// Rendering parameters for synthetic frames.
const (
	testScale  = 8  // Pixels per cell.
	testMargin = 16 // Quiet zone around the symbol in pixels.
)

// testPayloadLength matches a small single-block transfer.
const testPayloadLength = 300

// testConfig returns a receiver configuration matching the synthetic
// frames.
func testConfig(t *testing.T) config.Config {
	c := config.Config{
		Logger:        logging.New(logging.Debug, &bytes.Buffer{}, true),
		Input:         config.InputManual,
		BorderLength:  2,
		PaddingLength: 1,
		MetaLength:    1,
		MainWidth:     48,
		MainHeight:    48,
		QueueCapacity: 64,
		Hints: map[string]string{
			config.HintECNum:     "4",
			config.HintECByteNum: "8",
		},
	}

	g, err := barcode.NewGeometry(c)
	if err != nil {
		t.Fatalf("could not build test geometry: %v", err)
	}
	side := uint(g.BarcodeWidth()*testScale + 2*testMargin)
	c.Width = side
	c.Height = side
	return c
}

// testPayload returns deterministic transfer bytes.
func testPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*131 + 29)
	}
	return p
}

// packetContents encodes the payload into per-frame content regions, one
// encoding packet per frame, including header and parity. overhead extra
// repair packets are appended after the source packets.
func packetContents(t *testing.T, c config.Config, payload []byte, overhead int) [][]byte {
	g, err := barcode.NewGeometry(c)
	if err != nil {
		t.Fatalf("could not build geometry: %v", err)
	}

	fd, err := fountain.NewDecoder(len(payload), g.SymbolSize(), 1)
	if err != nil {
		t.Fatalf("could not shape transfer: %v", err)
	}
	k := fd.SourceSymbols()
	symbolLen := fd.SymbolLength(0)

	ids := make([]int64, k+overhead)
	for i := range ids {
		ids[i] = int64(i)
	}
	blocks := gofountain.EncodeLTBlocks(append([]byte{}, payload...), ids, gofountain.NewRaptorCodec(k, 4))

	rsc := rs.NewCodec(g.ECByteNum)
	var contents [][]byte
	for _, blk := range blocks {
		content := make([]byte, g.ContentBytes())
		barcode.PutHeader(content, uint32(len(payload)))

		data := make([]byte, g.DataBytes())
		data[0] = 0
		binary.BigEndian.PutUint16(data[1:3], uint16(blk.BlockCode))
		if len(blk.Data) > symbolLen {
			t.Fatalf("encoder symbol %d bytes exceeds shaped length %d", len(blk.Data), symbolLen)
		}
		copy(data[3:], blk.Data)

		area := content[barcode.HeaderBytes:]
		copy(area, data)
		fillParity(t, rsc, g, data, area)

		contents = append(contents, content)
	}
	return contents
}

// fillParity splits data into the interleaved codewords and writes each
// codeword's parity into the parity region of area.
func fillParity(t *testing.T, rsc *rs.Codec, g barcode.Geometry, data, area []byte) {
	cws := make([][]byte, g.ECNum)
	for i, b := range data {
		cws[i%g.ECNum] = append(cws[i%g.ECNum], b)
	}
	parity := area[len(data):]
	for i, cw := range cws {
		full, err := rsc.Encode(cw)
		if err != nil {
			t.Fatalf("could not encode codeword: %v", err)
		}
		copy(parity[i*g.ECByteNum:(i+1)*g.ECByteNum], full[len(cw):])
	}
}

// renderFrame paints one luminance frame holding the barcode with the given
// content region bytes. Lit cells render as 255, dark as 0; the quiet zone
// is lit.
func renderFrame(g barcode.Geometry, content []byte) []byte {
	wb := g.BarcodeWidth()
	ring := g.RingWidth()
	side := wb*testScale + 2*testMargin
	pix := make([]byte, side*side)

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
	return pix
}

// synthFrames returns rendered frames for the payload, one packet per
// frame.
func synthFrames(t *testing.T, c config.Config, payload []byte, overhead int) [][]byte {
	g, err := barcode.NewGeometry(c)
	if err != nil {
		t.Fatalf("could not build geometry: %v", err)
	}
	var frames [][]byte
	for _, content := range packetContents(t, c, payload, overhead) {
		frames = append(frames, renderFrame(g, content))
	}
	return frames
}
