/*
NAME
  rx.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rx provides an API for receiving files transmitted as a stream of
// on-screen 2-D barcodes captured by a camera.
package rx

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/pool"

	"github.com/ausocean/optic/codec/codecutil"
	"github.com/ausocean/optic/device"
	"github.com/ausocean/optic/device/camera"
	"github.com/ausocean/optic/device/file"
	"github.com/ausocean/optic/rx/config"
)

// Frame queue tuning.
const (
	queueReadTimeout  = 500 * time.Millisecond
	queueWriteTimeout = 1 * time.Second
)

// Callbacks carries the receiver's collaborators: per-frame progress
// reporting, human-readable status, and the sink the reconstructed file is
// handed to. Any nil callback is skipped.
type Callbacks struct {
	// Progress is fired once per frame with the current frame index, the
	// index of the last frame that contributed a packet, the estimated
	// frame total and the number of distinct symbols received.
	Progress func(current, lastSuccess, total, processed int)

	// Status receives milestone messages, including the hex SHA-1 of the
	// received bytes on completion.
	Status func(msg string)

	// Sink receives the reconstructed file exactly once.
	Sink func(data []byte, name string) error
}

// Receiver provides methods to control a receive session; providing methods
// to start, stop and change the state of an instance using the Config
// struct.
type Receiver struct {
	// cfg holds the receiver configuration.
	cfg config.Config

	// input will capture frames from which we can read data.
	input device.FrameSource

	// lexTo slices the input byte stream into whole frames.
	lexTo func(dst io.Writer, src io.Reader, d time.Duration) error

	// queue is the only producer/consumer boundary: the lexer writes whole
	// frames, the decode loop takes them out one at a time.
	queue *pool.Buffer

	// dec holds the per-transfer decode state machine.
	dec *decoder

	cb Callbacks

	// running is used to keep track of the receiver's running state between
	// methods.
	running bool

	// wg will be used to wait for any processing routines to finish.
	wg sync.WaitGroup

	// err will channel errors from receiver routines to the handle errors
	// routine.
	err chan error

	// bitrate is used for goodput calculations over recovered symbols.
	bitrate bitrate.Calculator

	// stop is used to signal stopping of the processing routines, and done
	// is closed when a transfer completes.
	stop chan struct{}
	done chan struct{}
}

// New returns a pointer to a new Receiver with the desired configuration,
// and/or an error if construction of the new instance was not successful.
func New(c config.Config, cb Callbacks) (*Receiver, error) {
	r := &Receiver{cb: cb, err: make(chan error)}
	err := r.setConfig(c)
	if err != nil {
		return nil, fmt.Errorf("could not set config, failed with error: %w", err)
	}
	go r.handleErrors()
	return r, nil
}

// Config returns a copy of the receiver's current config.
func (r *Receiver) Config() config.Config {
	return r.cfg
}

// Bitrate returns the result of the most recent goodput check.
func (r *Receiver) Bitrate() int {
	return r.bitrate.Bitrate()
}

// Done returns a channel that is closed once a transfer has completed and
// the artifact has been handed to the sink.
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

// Write writes a frame to a manual input source.
func (r *Receiver) Write(p []byte) (int, error) {
	mi, ok := r.input.(*device.ManualSource)
	if !ok {
		return 0, errors.New("cannot write to anything but ManualSource")
	}
	return mi.Write(p)
}

// setConfig takes a config, checks its validity and then replaces the
// current receiver config.
func (r *Receiver) setConfig(c config.Config) error {
	r.cfg.Logger = c.Logger
	r.cfg.Logger.Debug("validating config")
	err := c.Validate()
	if err != nil {
		return errors.New("config struct is bad: " + err.Error())
	}
	r.cfg.Logger.Info("config validated")
	r.cfg = c
	r.cfg.Logger.SetLevel(r.cfg.LogLevel)
	return nil
}

// setupPipeline builds the decode state machine, the frame queue and the
// input device for the current configuration.
func (r *Receiver) setupPipeline() error {
	var err error
	r.dec, err = newDecoder(r.cfg, r.cb, &r.bitrate)
	if err != nil {
		return fmt.Errorf("could not create frame decoder: %w", err)
	}

	frameSize := int(r.cfg.Width * r.cfg.Height)
	r.queue = pool.NewBuffer(int(r.cfg.QueueCapacity), frameSize, queueWriteTimeout)

	l, err := codecutil.NewByteLexer(frameSize)
	if err != nil {
		return fmt.Errorf("could not create frame lexer: %w", err)
	}
	r.lexTo = l.Lex

	switch r.cfg.Input {
	case config.InputFile:
		r.cfg.Logger.Debug("using file input")
		r.input = file.New(r.cfg.Logger)
	case config.InputCamera:
		r.cfg.Logger.Debug("using camera input")
		r.input = camera.New(r.cfg.Logger)
	case config.InputManual:
		r.cfg.Logger.Debug("using manual input")
		r.input = device.NewManualSource()
	default:
		return fmt.Errorf("unrecognised input type: %v", r.cfg.Input)
	}

	// Configure the input device. We know that defaults are set, so no need
	// to return error, but we should log.
	r.cfg.Logger.Debug("configuring input device")
	err = r.input.Set(r.cfg)
	if err != nil {
		r.cfg.Logger.Warning("errors from configuring input device", "errors", err)
	}
	r.cfg.Logger.Info("input device configured")

	return nil
}

// Start invokes a Receiver to start processing frames from the defined
// input and decoding toward a completed file.
func (r *Receiver) Start() error {
	if r.running {
		r.cfg.Logger.Warning("start called, but receiver already running")
		return nil
	}

	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	r.cfg.Logger.Debug("setting up receive pipeline")
	err := r.setupPipeline()
	if err != nil {
		return err
	}
	r.cfg.Logger.Info("finished setting up pipeline")

	err = r.input.Start()
	if err != nil {
		return fmt.Errorf("could not start input device: %w", err)
	}

	// Calculate delay between frames if FPS is set for a file input;
	// otherwise consume as fast as the source produces.
	d := time.Duration(0)
	if r.cfg.Input == config.InputFile && r.cfg.FPS != 0 {
		d = time.Duration(1000/r.cfg.FPS) * time.Millisecond
	}

	r.cfg.Logger.Debug("starting processing routines")
	r.wg.Add(2)
	go r.processFrom(d)
	go r.consume()

	r.running = true
	return nil
}

// Stop closes down the pipeline: the input device, the frame producer and
// the decode loop. A partially decoded transfer is discarded.
func (r *Receiver) Stop() {
	if !r.running {
		r.cfg.Logger.Warning("stop called but receiver isn't running")
		return
	}

	close(r.stop)

	r.cfg.Logger.Debug("stopping input")
	err := r.input.Stop()
	if err != nil {
		r.cfg.Logger.Error("could not stop input", "error", err.Error())
	} else {
		r.cfg.Logger.Info("input stopped")
	}

	r.cfg.Logger.Debug("waiting for routines to finish")
	r.wg.Wait()
	r.cfg.Logger.Info("routines finished")

	r.running = false
}

// Running returns whether the receiver is running.
func (r *Receiver) Running() bool {
	return r.running
}

// Update takes a map of variables and their values and edits the current
// config if the variables are recognised as valid parameters.
func (r *Receiver) Update(vars map[string]string) error {
	if r.running {
		r.cfg.Logger.Debug("receiver running; stopping for re-config")
		r.Stop()
		r.cfg.Logger.Info("receiver was running; stopped for re-config")
	}

	r.cfg.Logger.Debug("checking new vars", "vars", vars)
	r.cfg.Update(vars)
	err := r.cfg.Validate()
	if err != nil {
		return errors.New("config struct is bad: " + err.Error())
	}
	r.cfg.Logger.Info("finished reconfig")
	r.cfg.Logger.Debug("config changed", "config", r.cfg)
	return nil
}

// TODO(saxon): put more thought into error severity and how to handle these.
func (r *Receiver) handleErrors() {
	for {
		err := <-r.err
		if err != nil {
			r.cfg.Logger.Error("async error", "error", err.Error())
		}
	}
}

// processFrom is run as a routine to read frames from the input device into
// the frame queue until the input is exhausted or the receiver is stopped.
func (r *Receiver) processFrom(delay time.Duration) {
	defer r.wg.Done()

	r.cfg.Logger.Debug("lexing")
	err := r.lexTo(&queueWriter{r}, r.input, delay)
	switch err {
	case nil, io.EOF:
		r.cfg.Logger.Info("end of input")
	case io.ErrUnexpectedEOF:
		r.cfg.Logger.Info("unexpected EOF from input")
	case io.ErrClosedPipe:
		r.cfg.Logger.Info("input queue closed")
	default:
		r.err <- err
	}
	r.cfg.Logger.Info("finished reading input")
}

// queueWriter adapts the frame queue for the lexer. A frame that cannot be
// queued in time is dropped rather than stalling the producer; the fountain
// code recovers from dropped frames by design of the transmission.
type queueWriter struct {
	r *Receiver
}

// Write implements io.Writer.
func (q *queueWriter) Write(p []byte) (int, error) {
	select {
	case <-q.r.stop:
		return 0, io.ErrClosedPipe
	default:
	}
	_, err := q.r.queue.Write(p)
	if err != nil {
		q.r.cfg.Logger.Debug("full queue, dropping frame", "error", err.Error())
	}
	return len(p), nil
}

// consume is run as a routine to take frames off the queue one at a time
// and pass them through the decode pipeline. It exits when the transfer
// completes or the receiver is stopped.
func (r *Receiver) consume() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stop:
			r.cfg.Logger.Info("decode loop interrupted")
			return
		default:
		}

		chunk, err := r.queue.Next(queueReadTimeout)
		switch err {
		case nil:
		case pool.ErrTimeout:
			continue
		case io.EOF:
			continue
		default:
			r.cfg.Logger.Error("unexpected frame queue error", "error", err.Error())
			continue
		}

		complete := r.dec.frame(chunk.Bytes(), int(r.cfg.Width), int(r.cfg.Height))
		chunk.Close()

		if complete {
			err := r.dec.finish()
			if err != nil {
				r.err <- fmt.Errorf("could not deliver completed transfer: %w", err)
			}
			close(r.done)
			r.cfg.Logger.Info("transfer complete, decode loop finished")
			return
		}
	}
}
