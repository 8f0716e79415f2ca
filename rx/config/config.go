/*
DESCRIPTION
  Config.go provides the configuration settings for an optic receiver
  session: the frame source, the displayed barcode layout, and runtime
  behaviour. The JSON field tags correspond to the keys of the receiver
  configuration document.

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

// Package config contains the configuration settings for the optic receiver.
package config

import (
	"errors"

	"github.com/ausocean/utils/logging"
)

// Enums to define frame inputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Inputs.
	InputFile
	InputCamera
	InputManual
)

// Hint keys recognised in the Hints map. Hints carry codec-specific
// parameters that are passed through to the symbol and fountain codecs.
const (
	HintECNum        = "ecNum"
	HintECByteNum    = "ecByteNum"
	HintECLength     = "ecLength"
	HintSourceBlocks = "sourceBlocks"
)

// ErrInvalid is returned by Validate for configurations the receiver cannot
// run with. Unlike per-frame decode errors this is fatal and surfaced to the
// caller.
var ErrInvalid = errors.New("config: invalid configuration")

// Config provides parameters relevant to a receiver instance. A new config
// must be passed to the constructor. Default values for these fields are
// defined as consts in variables.go.
type Config struct {
	// Input defines the frame source.
	//
	// Valid values are defined by enums:
	// InputFile:
	//		Read raw luminance frames from a file.
	//		Location must be specified in InputPath field.
	// InputCamera:
	//		Capture frames from a camera (requires a build with cv support).
	// InputManual:
	//		Frames are written to the receiver through software.
	Input uint8 `json:"-"`

	// InputPath defines the input file location for file input, or the
	// capture device for camera input.
	InputPath string `json:"-"`

	// OutputPath is the directory the reconstructed file is written to.
	OutputPath string `json:"-"`

	// OutputName overrides the artifact file name. When empty the hex SHA-1
	// digest of the received bytes is used.
	OutputName string `json:"-"`

	Width  uint `json:"-"` // Captured frame width in pixels.
	Height uint `json:"-"` // Captured frame height in pixels.

	// FPS is the transmitter's display rate, used with Distance to estimate
	// the total frame count for progress reporting.
	FPS uint `json:"fps"`

	// Distance is the nominal transmission duration in seconds.
	Distance float64 `json:"distance"`

	BorderLength  uint `json:"borderLength"`  // Outer black ring width in cells.
	PaddingLength uint `json:"paddingLength"` // First timing ring width in cells.
	MetaLength    uint `json:"metaLength"`    // Second timing ring width in cells.
	MainWidth     uint `json:"mainWidth"`     // Content region width in cells.
	MainHeight    uint `json:"mainHeight"`    // Content region height in cells.

	// Hints holds codec-specific parameters passed through to the symbol
	// and fountain codecs, e.g. Reed-Solomon shape and source block count.
	Hints map[string]string `json:"hints"`

	// Loop, when true, restarts reading of a file input after io.EOF. Useful
	// for soak testing against a short capture.
	Loop bool `json:"-"`

	// QueueCapacity is the number of frames the input queue holds before the
	// producer starts dropping.
	QueueCapacity uint `json:"-"`

	// Logger holds an implementation of the logging.Logger interface. This
	// must be set for the receiver to work correctly.
	Logger logging.Logger `json:"-"`

	// LogLevel is the receiver logging verbosity level. Valid values are
	// defined by enums from the logging package.
	LogLevel int8 `json:"-"`

	Suppress bool `json:"-"` // Holds logger suppression state.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	if c.MainWidth != c.MainHeight {
		return errors.Join(ErrInvalid, errors.New("main region is not square"))
	}
	if c.MainWidth*c.MainWidth%8 != 0 {
		return errors.Join(ErrInvalid, errors.New("content region is not byte aligned"))
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values into the correct type, and then sets the
// config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// LogInvalidField logs the defaulting of a bad or unset config field.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
