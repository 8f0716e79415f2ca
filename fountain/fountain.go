/*
DESCRIPTION
  fountain.go adapts the raptor fountain code to the per-frame encoding
  packets recovered from barcode readings. Each source block of the
  transfer has its own decoder; packets are routed by source block number
  and accumulated until every block is determined, at which point the full
  byte array is materialized.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fountain accumulates encoding packets recovered from barcode
// frames and reconstructs the transmitted byte array with a raptor fountain
// code.
package fountain

import (
	"encoding/binary"

	gofountain "github.com/google/gofountain"
	"github.com/pkg/errors"
)

// Adapter errors.
var (
	ErrPacketMalformed = errors.New("fountain: malformed encoding packet")
	ErrBadParameters   = errors.New("fountain: invalid transfer parameters")
	ErrNotComplete     = errors.New("fountain: transfer not complete")
)

// Symbol alignment in bytes; the XOR granularity of the underlying code.
const alignment = 4

// The code needs a minimum equation system even for tiny transfers.
const minSourceSymbols = 4

// Packet is one encoding symbol with its identification, parsed from a
// successfully decoded barcode reading.
type Packet struct {
	Block    uint8  // Source block number.
	SymbolID uint32 // Encoding symbol ID. The wire carries 16 bits.
	Data     []byte // Symbol payload.
}

// ParsePacket splits a decoded reading into its packet identification and
// symbol payload. The reading must hold the block number, the big-endian
// symbol ID and at least one payload byte, and the block number must fall
// inside the negotiated source block count.
func ParsePacket(b []byte, numBlocks int) (Packet, error) {
	if len(b) < 4 {
		return Packet{}, errors.Wrapf(ErrPacketMalformed, "%d bytes", len(b))
	}
	p := Packet{
		Block:    b[0],
		SymbolID: uint32(binary.BigEndian.Uint16(b[1:3])),
		Data:     b[3:],
	}
	if int(p.Block) >= numBlocks {
		return Packet{}, errors.Wrapf(ErrPacketMalformed, "source block %d of %d", p.Block, numBlocks)
	}
	return p, nil
}

// blockDecoder holds the decoding state of one source block.
type blockDecoder struct {
	dec       gofountain.Decoder
	length    int // Block bytes within the transfer.
	symbols   int // Source symbol count K.
	symbolLen int // Symbol length in bytes after alignment padding.
	seen      map[uint32]bool
	done      bool
}

// Decoder accumulates encoding packets for a whole transfer. It is owned by
// a single goroutine for the duration of one file reception.
type Decoder struct {
	transferLength int
	blocks         []*blockDecoder
	data           []byte
}

// NewDecoder returns a decoder for a transfer of transferLength bytes split
// over numBlocks source blocks, with at most symbolSize payload bytes
// carried per packet.
func NewDecoder(transferLength, symbolSize, numBlocks int) (*Decoder, error) {
	if transferLength <= 0 || symbolSize <= 0 || numBlocks < 1 || numBlocks > 256 || numBlocks > transferLength {
		return nil, errors.Wrapf(ErrBadParameters, "length %d, symbol size %d, blocks %d", transferLength, symbolSize, numBlocks)
	}

	d := &Decoder{transferLength: transferLength}
	for _, length := range partition(transferLength, numBlocks) {
		k, symbolLen, err := blockShape(length, symbolSize)
		if err != nil {
			return nil, err
		}
		d.blocks = append(d.blocks, &blockDecoder{
			dec:       gofountain.NewRaptorCodec(k, alignment).NewDecoder(length),
			length:    length,
			symbols:   k,
			symbolLen: symbolLen,
			seen:      make(map[uint32]bool),
		})
	}
	return d, nil
}

// SourceSymbols returns the total source symbol count over all blocks: the
// minimum number of distinct packets that can complete the transfer.
func (d *Decoder) SourceSymbols() int {
	var n int
	for _, b := range d.blocks {
		n += b.symbols
	}
	return n
}

// Received returns the number of distinct packets accepted so far.
func (d *Decoder) Received() int {
	var n int
	for _, b := range d.blocks {
		n += len(b.seen)
	}
	return n
}

// SymbolLength returns the on-wire payload length for the given source
// block. Readings carry SymbolSize bytes; only the first SymbolLength are
// part of the code.
func (d *Decoder) SymbolLength(block int) int {
	return d.blocks[block].symbolLen
}

// Put adds one packet to its source block's equation system and reports
// whether the whole transfer is now decodable.
func (d *Decoder) Put(p Packet) (bool, error) {
	if int(p.Block) >= len(d.blocks) {
		return false, errors.Wrapf(ErrPacketMalformed, "source block %d of %d", p.Block, len(d.blocks))
	}
	b := d.blocks[int(p.Block)]
	if b.done || b.seen[p.SymbolID] {
		return d.Complete(), nil
	}
	if len(p.Data) < b.symbolLen {
		return false, errors.Wrapf(ErrPacketMalformed, "symbol %d bytes, want %d", len(p.Data), b.symbolLen)
	}

	// The decoder keeps a reference to the payload, and readings reuse the
	// frame buffer.
	data := make([]byte, b.symbolLen)
	copy(data, p.Data)
	b.seen[p.SymbolID] = true
	b.done = b.dec.AddBlocks([]gofountain.LTBlock{{BlockCode: int64(p.SymbolID), Data: data}})

	return d.Complete(), nil
}

// Complete reports whether every source block is decodable.
func (d *Decoder) Complete() bool {
	for _, b := range d.blocks {
		if !b.done {
			return false
		}
	}
	return true
}

// BlockStates returns the per-block decodability flags, in block order.
func (d *Decoder) BlockStates() []bool {
	states := make([]bool, len(d.blocks))
	for i, b := range d.blocks {
		states[i] = b.done
	}
	return states
}

// Data materializes and returns the reconstructed transfer. It may only be
// called once Complete reports true.
func (d *Decoder) Data() ([]byte, error) {
	if d.data != nil {
		return d.data, nil
	}
	if !d.Complete() {
		return nil, ErrNotComplete
	}
	out := make([]byte, 0, d.transferLength)
	for i, b := range d.blocks {
		dec := b.dec.Decode()
		if dec == nil {
			return nil, errors.Wrapf(ErrNotComplete, "source block %d", i)
		}
		out = append(out, dec...)
	}
	d.data = out
	return out, nil
}

// blockShape derives the source symbol count and aligned symbol length for
// a block of the given byte length.
func blockShape(length, symbolSize int) (k, symbolLen int, err error) {
	k = (length + symbolSize - 1) / symbolSize
	if k < minSourceSymbols {
		k = minSourceSymbols
	}
	for {
		units := (length + alignment - 1) / alignment
		symbolLen = (units + k - 1) / k * alignment
		if symbolLen <= symbolSize {
			break
		}
		k++
	}
	if k > 8192 {
		return 0, 0, errors.Wrapf(ErrBadParameters, "%d source symbols", k)
	}
	return k, symbolLen, nil
}

// partition splits a transfer of length bytes into numBlocks contiguous
// block lengths, longer blocks first.
func partition(length, numBlocks int) []int {
	il := (length + numBlocks - 1) / numBlocks
	is := length / numBlocks
	jl := length - is*numBlocks
	if il == is {
		jl = 0
	}
	out := make([]int, 0, numBlocks)
	for i := 0; i < jl; i++ {
		out = append(out, il)
	}
	for i := jl; i < numBlocks; i++ {
		out = append(out, is)
	}
	return out
}
