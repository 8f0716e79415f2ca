/*
DESCRIPTION
  pipeline_test.go contains tests for the per-frame decode pipeline and the
  transfer state machine, driven with synthetic barcode frames.

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

package rx

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/ausocean/utils/bitrate"

	"github.com/ausocean/optic/codec/barcode"
)

// newTestDecoder builds a decoder with the given capturing callbacks.
func newTestDecoder(t *testing.T, c *testCallbacks) *decoder {
	cfg := testConfig(t)
	var br bitrate.Calculator
	d, err := newDecoder(cfg, c.callbacks(), &br)
	if err != nil {
		t.Fatalf("could not create decoder: %v", err)
	}
	return d
}

// testCallbacks captures callback invocations for assertions.
type testCallbacks struct {
	sunk      []byte
	name      string
	status    []string
	progress  int
	processed int
}

func (c *testCallbacks) callbacks() Callbacks {
	return Callbacks{
		Progress: func(current, lastSuccess, total, processed int) {
			c.progress++
			c.processed = processed
		},
		Status: func(msg string) { c.status = append(c.status, msg) },
		Sink: func(data []byte, name string) error {
			c.sunk = append([]byte{}, data...)
			c.name = name
			return nil
		},
	}
}

// TestPipelineEndToEnd feeds shuffled synthetic frames through the decode
// pipeline and checks the reconstructed artifact and its digest.
func TestPipelineEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	payload := testPayload(testPayloadLength)

	// 4 source symbols plus repair packets for a 40 packet transmission.
	frames := synthFrames(t, cfg, payload, 36)

	rng := rand.New(rand.NewSource(99))
	rng.Shuffle(len(frames), func(i, j int) { frames[i], frames[j] = frames[j], frames[i] })

	var cb testCallbacks
	d := newTestDecoder(t, &cb)

	complete := false
	for _, f := range frames {
		if d.frame(f, int(cfg.Width), int(cfg.Height)) {
			complete = true
			break
		}
	}
	if !complete {
		t.Fatal("transfer did not complete with full frame set")
	}

	err := d.finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(cb.sunk, payload) {
		t.Error("reconstructed payload does not match original")
	}

	sum := sha1.Sum(payload)
	digest := hex.EncodeToString(sum[:])
	if cb.name != digest {
		t.Errorf("artifact name = %q, want SHA-1 %q", cb.name, digest)
	}
	found := false
	for _, s := range cb.status {
		if s == "SHA-1 "+digest {
			found = true
		}
	}
	if !found {
		t.Error("digest was not reported to the status callback")
	}
	if cb.progress == 0 {
		t.Error("progress callback never fired")
	}
	if cb.processed == 0 {
		t.Error("processed symbol count never reported")
	}
}

// TestPipelineReversedReadings complements the payload area of every frame
// so only the reverse-polarity reading yields packets.
func TestPipelineReversedReadings(t *testing.T) {
	cfg := testConfig(t)
	payload := testPayload(testPayloadLength)

	g, err := barcode.NewGeometry(cfg)
	if err != nil {
		t.Fatalf("could not build geometry: %v", err)
	}

	var cb testCallbacks
	d := newTestDecoder(t, &cb)

	complete := false
	for _, content := range packetContents(t, cfg, payload, 2) {
		for i := barcode.HeaderBytes; i < len(content); i++ {
			content[i] = ^content[i]
		}
		if d.frame(renderFrame(g, content), int(cfg.Width), int(cfg.Height)) {
			complete = true
			break
		}
	}
	if !complete {
		t.Fatal("transfer did not complete from reversed readings")
	}

	err = d.finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(cb.sunk, payload) {
		t.Error("reconstructed payload does not match original")
	}
}

// TestPipelineDropsBadFrames interleaves undecodable frames with good ones
// and checks they are skipped without affecting completion.
func TestPipelineDropsBadFrames(t *testing.T) {
	cfg := testConfig(t)
	payload := testPayload(testPayloadLength)
	frames := synthFrames(t, cfg, payload, 2)

	flat := make([]byte, cfg.Width*cfg.Height)
	for i := range flat {
		flat[i] = 128
	}

	var cb testCallbacks
	d := newTestDecoder(t, &cb)

	complete := false
	for _, f := range frames {
		if d.frame(flat, int(cfg.Width), int(cfg.Height)) {
			t.Fatal("flat frame advanced the transfer")
		}
		if d.frame(f, int(cfg.Width), int(cfg.Height)) {
			complete = true
			break
		}
	}
	if !complete {
		t.Fatal("transfer did not complete")
	}
}

// TestPipelineAwaitsHeader checks that a zero-length header keeps the state
// machine waiting.
func TestPipelineAwaitsHeader(t *testing.T) {
	cfg := testConfig(t)

	g, err := barcode.NewGeometry(cfg)
	if err != nil {
		t.Fatalf("could not build geometry: %v", err)
	}

	var cb testCallbacks
	d := newTestDecoder(t, &cb)

	// An idle frame: zero length header over a patterned payload area so the
	// frame itself binarizes cleanly.
	content := make([]byte, g.ContentBytes())
	for i := barcode.HeaderBytes; i < len(content); i++ {
		content[i] = 0xAA
	}
	barcode.PutHeader(content, 0)
	if d.frame(renderFrame(g, content), int(cfg.Width), int(cfg.Height)) {
		t.Fatal("idle frame completed the transfer")
	}
	if d.state != stateAwaitingHeader {
		t.Errorf("state = %d, want awaiting header", d.state)
	}
}
