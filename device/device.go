/*
DESCRIPTION
  device.go provides FrameSource, an interface that describes a configurable
  video frame source that can be started and stopped from which luminance
  data may be obtained.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for input devices
// that can be started and stopped from which frame data can be obtained.
package device

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/optic/rx/config"
)

// FrameSource describes a configurable device from which raw 8-bit luminance
// frames can be obtained. FrameSource is an io.Reader; each frame occupies
// width·height consecutive bytes in row-major order.
type FrameSource interface {
	io.Reader

	// Name returns the name of the FrameSource.
	Name() string

	// Set allows for configuration of the FrameSource using a Config struct.
	// All, some or none of the fields of the Config struct may be used for
	// configuration by an implementation.
	Set(c config.Config) error

	// Start will start the FrameSource capturing frames; after which the
	// Read method may be called to obtain the data.
	Start() error

	// Stop will stop the FrameSource from capturing frames. From this point
	// Reads will no longer be successful.
	Stop() error

	// IsRunning is used to determine if the source is running.
	IsRunning() bool
}

// MultiError collects errors during validation of configuration parameters
// for FrameSources.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// ManualSource is an implementation of FrameSource for frames written
// manually through software; it also implements io.Writer. ManualSource
// employs an io.Pipe, so every write must be accompanied by a full read of
// the bytes, which makes one whole write represent a distinct frame.
type ManualSource struct {
	isRunning bool
	reader    *io.PipeReader
	writer    *io.PipeWriter
}

// NewManualSource provides a new ManualSource.
func NewManualSource() *ManualSource {
	return &ManualSource{}
}

// Read reads from the manual source and puts the bytes into p.
func (m *ManualSource) Read(p []byte) (int, error) {
	if !m.isRunning {
		return 0, errors.New("manual source has not been started, can't read")
	}
	return m.reader.Read(p)
}

// Name returns the name of ManualSource i.e. "ManualSource".
func (m *ManualSource) Name() string { return "ManualSource" }

// Set is a stub to satisfy the FrameSource interface; no configuration
// fields are required by ManualSource.
func (m *ManualSource) Set(c config.Config) error { return nil }

// Start sets the ManualSource isRunning flag to true and opens the pipe.
func (m *ManualSource) Start() error {
	m.isRunning = true
	m.reader, m.writer = io.Pipe()
	return nil
}

// Stop closes the pipe and sets the isRunning flag to false.
func (m *ManualSource) Stop() error {
	if m.reader != nil {
		m.reader.Close()
	}
	m.isRunning = false
	return nil
}

// IsRunning returns the value of the isRunning flag to indicate if Start has
// been called (and Stop has not been called after).
func (m *ManualSource) IsRunning() bool { return m.isRunning }

// Write writes p to the ManualSource's writer side of its pipe.
func (m *ManualSource) Write(p []byte) (int, error) {
	if !m.isRunning {
		return 0, errors.New("manual source has not been started, can't write")
	}
	return m.writer.Write(p)
}
