//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the camera frame source when optic is built without OpenCV. This
  is needed because build and CI hosts do not have a copy of OpenCV
  installed.

AUTHORS
  Russell Stanley <russell@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package camera provides an implementation of FrameSource for cameras
// accessed through OpenCV.
package camera

import (
	"errors"

	"github.com/ausocean/optic/rx/config"
	"github.com/ausocean/utils/logging"
)

var errNoCV = errors.New("camera input requires a build with the withcv tag")

// Camera is a stub standing in for the OpenCV capture device on builds
// without cv support. Start always fails.
type Camera struct {
	log logging.Logger
}

// New returns a new stub Camera.
func New(l logging.Logger) *Camera { return &Camera{log: l} }

// Name returns the name of the device.
func (c *Camera) Name() string { return "Camera" }

// Set is a stub to satisfy the FrameSource interface.
func (c *Camera) Set(cfg config.Config) error { return nil }

// Start always returns an error on builds without cv support.
func (c *Camera) Start() error { return errNoCV }

// Stop is a stub to satisfy the FrameSource interface.
func (c *Camera) Stop() error { return nil }

// IsRunning always returns false on builds without cv support.
func (c *Camera) IsRunning() bool { return false }

// Read always returns an error on builds without cv support.
func (c *Camera) Read(p []byte) (int, error) { return 0, errNoCV }
