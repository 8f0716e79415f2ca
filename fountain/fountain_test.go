/*
DESCRIPTION
  fountain_test.go contains tests for encoding packet parsing and fountain
  decoding liveness.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fountain

import (
	"bytes"
	"math/rand"
	"testing"

	gofountain "github.com/google/gofountain"
	"github.com/pkg/errors"
)

// TestParsePacket checks packet field extraction.
func TestParsePacket(t *testing.T) {
	b := []byte{2, 0x01, 0x02, 0xAA, 0xBB, 0xCC}
	p, err := ParsePacket(b, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Block != 2 {
		t.Errorf("block = %d, want 2", p.Block)
	}
	if p.SymbolID != 0x0102 {
		t.Errorf("symbol ID = %#x, want 0x0102", p.SymbolID)
	}
	if !bytes.Equal(p.Data, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("payload = % x, want aa bb cc", p.Data)
	}
}

// TestParsePacketMalformed checks short buffers and out-of-range blocks.
func TestParsePacketMalformed(t *testing.T) {
	_, err := ParsePacket([]byte{0, 1, 2}, 1)
	if !errors.Is(err, ErrPacketMalformed) {
		t.Errorf("short packet: expected ErrPacketMalformed, got %v", err)
	}
	_, err = ParsePacket([]byte{3, 0, 1, 0xFF}, 2)
	if !errors.Is(err, ErrPacketMalformed) {
		t.Errorf("bad block: expected ErrPacketMalformed, got %v", err)
	}
}

// TestDecoderParamChecks checks transfer parameter validation.
func TestDecoderParamChecks(t *testing.T) {
	for _, p := range [][3]int{{0, 10, 1}, {10, 0, 1}, {10, 10, 0}, {10, 10, 300}, {5, 10, 6}} {
		_, err := NewDecoder(p[0], p[1], p[2])
		if !errors.Is(err, ErrBadParameters) {
			t.Errorf("params %v: expected ErrBadParameters, got %v", p, err)
		}
	}
}

// TestDecoderLiveness encodes a message with the raptor codec, delivers the
// packets in random order with a small overhead margin, and checks the
// message is reconstructed.
func TestDecoderLiveness(t *testing.T) {
	const (
		transferLength = 300
		symbolSize     = 248
	)

	message := make([]byte, transferLength)
	rng := rand.New(rand.NewSource(42))
	rng.Read(message)

	d, err := NewDecoder(transferLength, symbolSize, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k := d.SourceSymbols()
	symbolLen := d.SymbolLength(0)

	// Encode k source symbols plus a small repair overhead.
	ids := make([]int64, k+2)
	for i := range ids {
		ids[i] = int64(i)
	}
	blocks := gofountain.EncodeLTBlocks(append([]byte{}, message...), ids, gofountain.NewRaptorCodec(k, 4))

	rng.Shuffle(len(blocks), func(i, j int) { blocks[i], blocks[j] = blocks[j], blocks[i] })

	complete := false
	for _, blk := range blocks {
		data := make([]byte, symbolLen)
		copy(data, blk.Data)
		complete, err = d.Put(Packet{Block: 0, SymbolID: uint32(blk.BlockCode), Data: data})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if complete {
			break
		}
	}
	if !complete {
		t.Fatal("decoder did not complete with full symbol set")
	}

	got, err := d.Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, message) {
		t.Error("reconstructed message does not match original")
	}
}

// TestDecoderMultiBlock checks routing and completion over several source
// blocks.
func TestDecoderMultiBlock(t *testing.T) {
	const (
		transferLength = 1000
		symbolSize     = 64
		numBlocks      = 2
	)

	message := make([]byte, transferLength)
	rng := rand.New(rand.NewSource(7))
	rng.Read(message)

	d, err := NewDecoder(transferLength, symbolSize, numBlocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	offset := 0
	for b := 0; b < numBlocks; b++ {
		blockLen := transferLength / numBlocks
		part := message[offset : offset+blockLen]
		offset += blockLen

		symbolLen := d.SymbolLength(b)
		k := (blockLen + symbolSize - 1) / symbolSize
		if k < 4 {
			k = 4
		}
		ids := make([]int64, k+2)
		for i := range ids {
			ids[i] = int64(i)
		}
		blocks := gofountain.EncodeLTBlocks(append([]byte{}, part...), ids, gofountain.NewRaptorCodec(k, 4))

		states := d.BlockStates()
		if states[b] {
			t.Fatalf("block %d complete before any packet", b)
		}
		for _, blk := range blocks {
			data := make([]byte, symbolLen)
			copy(data, blk.Data)
			_, err = d.Put(Packet{Block: uint8(b), SymbolID: uint32(blk.BlockCode), Data: data})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if !d.BlockStates()[b] {
			t.Fatalf("block %d not complete after full symbol set", b)
		}
	}

	if !d.Complete() {
		t.Fatal("decoder did not complete")
	}
	got, err := d.Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, message) {
		t.Error("reconstructed message does not match original")
	}
}

// TestDataBeforeComplete checks the not-complete guard.
func TestDataBeforeComplete(t *testing.T) {
	d, err := NewDecoder(100, 32, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = d.Data()
	if !errors.Is(err, ErrNotComplete) {
		t.Errorf("expected ErrNotComplete, got %v", err)
	}
}
