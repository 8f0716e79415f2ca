//go:build withcv
// +build withcv

/*
DESCRIPTION
  camera.go provides an implementation of the FrameSource interface for
  cameras accessed through OpenCV. Captured frames are converted to 8-bit
  grayscale and resized to the configured dimensions before being read out
  as raw luminance.

AUTHORS
  Russell Stanley <russell@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

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
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"

	"github.com/ausocean/optic/device"
	"github.com/ausocean/optic/rx/config"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "camera: "

// Configuration defaults.
const (
	defaultInputPath = "0"
	defaultWidth     = 1280
	defaultHeight    = 720
)

// Configuration field errors.
var (
	errBadWidth     = errors.New("width bad or unset, defaulting")
	errBadHeight    = errors.New("height bad or unset, defaulting")
	errBadInputPath = errors.New("input path bad or unset, defaulting")
)

// Camera is an implementation of the FrameSource interface for a camera
// opened through OpenCV's capture API.
type Camera struct {
	vc        *gocv.VideoCapture
	log       logging.Logger
	cfg       config.Config
	buf       []byte
	off       int
	isRunning bool
}

// New returns a new Camera.
func New(l logging.Logger) *Camera {
	return &Camera{log: l}
}

// Name returns the name of the device.
func (c *Camera) Name() string {
	return "Camera"
}

// Set will validate the relevant fields of the given Config struct and
// assign the struct to the Camera's Config. If fields are not valid, an
// error is added to the MultiError and a default value is used.
func (c *Camera) Set(cfg config.Config) error {
	var errs device.MultiError
	if cfg.InputPath == "" {
		errs = append(errs, errBadInputPath)
		cfg.InputPath = defaultInputPath
	}
	if cfg.Width == 0 {
		errs = append(errs, errBadWidth)
		cfg.Width = defaultWidth
	}
	if cfg.Height == 0 {
		errs = append(errs, errBadHeight)
		cfg.Height = defaultHeight
	}
	c.cfg = cfg
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// Start opens the capture device and prepares the conversion buffers.
func (c *Camera) Start() error {
	vc, err := gocv.OpenVideoCapture(c.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("could not open capture device %s: %w", c.cfg.InputPath, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	c.vc = vc
	c.isRunning = true
	c.log.Info(pkg+"capture started", "path", c.cfg.InputPath)
	return nil
}

// Stop closes the capture device.
func (c *Camera) Stop() error {
	c.isRunning = false
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

// IsRunning is used to determine if the camera is running.
func (c *Camera) IsRunning() bool { return c.isRunning }

// Read implements io.Reader, handing out the current frame's luminance
// bytes and capturing the next frame once exhausted.
func (c *Camera) Read(p []byte) (int, error) {
	if !c.isRunning {
		return 0, errors.New("camera has not been started, can't read")
	}
	if c.off >= len(c.buf) {
		err := c.capture()
		if err != nil {
			return 0, err
		}
	}
	n := copy(p, c.buf[c.off:])
	c.off += n
	return n, nil
}

// capture grabs one frame, converts it to grayscale at the configured
// dimensions and stores the raw bytes for Read.
func (c *Camera) capture() error {
	img := gocv.NewMat()
	defer img.Close()
	if !c.vc.Read(&img) || img.Empty() {
		return io.EOF
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	w, h := int(c.cfg.Width), int(c.cfg.Height)
	if gray.Cols() != w || gray.Rows() != h {
		gocv.Resize(gray, &gray, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	}

	c.buf = gray.ToBytes()
	c.off = 0
	if len(c.buf) != w*h {
		return fmt.Errorf("capture produced %d bytes, want %d", len(c.buf), w*h)
	}
	return nil
}
