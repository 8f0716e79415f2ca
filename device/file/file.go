/*
DESCRIPTION
  file.go provides an implementation of the FrameSource interface for files
  of raw 8-bit luminance frames, as captured by a camera or produced by a
  demuxer.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of FrameSource for files.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/optic/rx/config"
)

// Frames is an implementation of the FrameSource interface for a file
// containing concatenated raw luminance frames.
type Frames struct {
	f         *os.File
	path      string
	loop      bool
	isRunning bool
	log       logging.Logger
	set       bool
	mu        sync.Mutex
}

// New returns a new Frames source.
func New(l logging.Logger) *Frames { return &Frames{log: l} }

// NewWith returns a new Frames source with required params provided i.e. the
// Set method does not need to be called.
func NewWith(l logging.Logger, path string, loop bool) *Frames {
	return &Frames{log: l, path: path, loop: loop, set: true}
}

// Name returns the name of the device.
func (m *Frames) Name() string {
	return "File"
}

// Set simply sets the Frames source's config to the passed config.
func (m *Frames) Set(c config.Config) error {
	m.path = c.InputPath
	m.loop = c.Loop
	m.set = true
	return nil
}

// Start will open the file at the location of the InputPath field of the
// config struct.
func (m *Frames) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	if !m.set {
		return errors.New("frame file source has not been set with config")
	}
	m.f, err = os.Open(m.path)
	if err != nil {
		return fmt.Errorf("could not open frame file: %w", err)
	}
	m.isRunning = true
	return nil
}

// Stop will close the file such that any further reads will fail.
func (m *Frames) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.f.Close()
	if err == nil {
		m.isRunning = false
		return nil
	}
	return err
}

// Read implements io.Reader, filling p with exactly one frame's worth of
// bytes when p is sized to a frame. If Start has not been called, or Start
// has been called and Stop has since been called, an error is returned.
func (m *Frames) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return 0, errors.New("frame file is closed, source not started")
	}

	n, err := io.ReadFull(m.f, p)
	if err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, err
	}

	if !m.loop {
		return n, io.EOF
	}

	// We've hit end of file but loop is true, so seek to start and read the
	// frame from there.
	m.log.Info("looping input file")
	_, err = m.f.Seek(0, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("could not seek to start of file for input loop: %w", err)
	}
	n, err = io.ReadFull(m.f, p)
	if err != nil {
		return n, fmt.Errorf("could not read after start seek: %w", err)
	}
	return n, nil
}

// IsRunning is used to determine if the Frames source is running.
func (m *Frames) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f != nil && m.isRunning
}
