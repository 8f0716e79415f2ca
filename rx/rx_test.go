/*
DESCRIPTION
  rx_test.go contains tests for the receiver: the full frame queue and
  decode loop fed through a manual frame source, and control methods.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

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
	"sync"
	"testing"
	"time"

	"github.com/ausocean/optic/rx/config"
)

const receiveTimeout = 30 * time.Second

// TestReceiverEndToEnd runs the whole receiver against a manual source:
// frames in, artifact out.
func TestReceiverEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	payload := testPayload(testPayloadLength)
	frames := synthFrames(t, cfg, payload, 2)

	var (
		mu   sync.Mutex
		sunk []byte
	)
	rv, err := New(cfg, Callbacks{
		Sink: func(data []byte, name string) error {
			mu.Lock()
			defer mu.Unlock()
			sunk = append([]byte{}, data...)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("could not create receiver: %v", err)
	}

	err = rv.Start()
	if err != nil {
		t.Fatalf("could not start receiver: %v", err)
	}

	// Feed frames until the receiver reports completion, looping the set to
	// mimic a transmitter cycling its packets.
	go func() {
		for {
			for _, f := range frames {
				select {
				case <-rv.Done():
					return
				default:
				}
				_, err := rv.Write(f)
				if err != nil {
					return
				}
			}
		}
	}()

	select {
	case <-rv.Done():
	case <-time.After(receiveTimeout):
		t.Fatal("timed out waiting for receive to complete")
	}
	rv.Stop()

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(sunk, payload) {
		t.Error("received artifact does not match transmitted payload")
	}
}

// TestReceiverStartStop checks idempotent start and clean stop without
// input.
func TestReceiverStartStop(t *testing.T) {
	cfg := testConfig(t)
	rv, err := New(cfg, Callbacks{})
	if err != nil {
		t.Fatalf("could not create receiver: %v", err)
	}

	err = rv.Start()
	if err != nil {
		t.Fatalf("could not start receiver: %v", err)
	}
	if !rv.Running() {
		t.Error("receiver not running after start")
	}

	err = rv.Start()
	if err != nil {
		t.Errorf("second start errored: %v", err)
	}

	rv.Stop()
	if rv.Running() {
		t.Error("receiver still running after stop")
	}
}

// TestReceiverUpdate checks runtime reconfiguration through the variable
// map.
func TestReceiverUpdate(t *testing.T) {
	cfg := testConfig(t)
	rv, err := New(cfg, Callbacks{})
	if err != nil {
		t.Fatalf("could not create receiver: %v", err)
	}

	err = rv.Update(map[string]string{
		config.KeyMainWidth:  "64",
		config.KeyMainHeight: "64",
		config.KeyLoop:       "true",
	})
	if err != nil {
		t.Fatalf("could not update receiver: %v", err)
	}

	got := rv.Config()
	if got.MainWidth != 64 || got.MainHeight != 64 {
		t.Errorf("main region = %dx%d, want 64x64", got.MainWidth, got.MainHeight)
	}
	if !got.Loop {
		t.Error("loop not applied")
	}
}
