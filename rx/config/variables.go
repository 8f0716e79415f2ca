/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type
  in a string format, a function for updating the variable in the Config
  struct from a string, and finally, a validation function to check the
  validity of the corresponding field value in the Config.

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

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map keys.
const (
	KeyBorderLength  = "borderLength"
	KeyDistance      = "distance"
	KeyFPS           = "fps"
	KeyHints         = "hints"
	KeyHeight        = "Height"
	KeyInput         = "Input"
	KeyInputPath     = "InputPath"
	KeyLoop          = "Loop"
	KeyMainHeight    = "mainHeight"
	KeyMainWidth     = "mainWidth"
	KeyMetaLength    = "metaLength"
	KeyOutputName    = "OutputName"
	KeyOutputPath    = "OutputPath"
	KeyPaddingLength = "paddingLength"
	KeyQueueCapacity = "QueueCapacity"
	KeySuppress      = "Suppress"
	KeyWidth         = "Width"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	defaultInput         = InputFile
	defaultVerbosity     = logging.Error
	defaultWidth         = 1280
	defaultHeight        = 720
	defaultFPS           = 15
	defaultBorderLength  = 2
	defaultPaddingLength = 1
	defaultMetaLength    = 1
	defaultMainLength    = 64
	defaultQueueCapacity = 64
	defaultOutputPath    = "."
)

// Variables describes the updatable receiver parameters.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name: KeyInput,
		Type: "enum:File,Camera,Manual",
		Update: func(c *Config, v string) {
			switch strings.ToLower(v) {
			case "file":
				c.Input = InputFile
			case "camera":
				c.Input = InputCamera
			case "manual":
				c.Input = InputManual
			default:
				c.Logger.Warning("invalid Input param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFile, InputCamera, InputManual:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
		Validate: func(c *Config) {
			if c.OutputPath == "" {
				c.LogInvalidField(KeyOutputPath, defaultOutputPath)
				c.OutputPath = defaultOutputPath
			}
		},
	},
	{
		Name:   KeyOutputName,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputName = v },
	},
	{
		Name:   KeyWidth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Width = parseUint(KeyWidth, v, c) },
		Validate: func(c *Config) {
			if c.Width == 0 {
				c.LogInvalidField(KeyWidth, defaultWidth)
				c.Width = defaultWidth
			}
		},
	},
	{
		Name:   KeyHeight,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Height = parseUint(KeyHeight, v, c) },
		Validate: func(c *Config) {
			if c.Height == 0 {
				c.LogInvalidField(KeyHeight, defaultHeight)
				c.Height = defaultHeight
			}
		},
	},
	{
		Name:   KeyFPS,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FPS = parseUint(KeyFPS, v, c) },
		Validate: func(c *Config) {
			if c.FPS == 0 {
				c.LogInvalidField(KeyFPS, defaultFPS)
				c.FPS = defaultFPS
			}
		},
	},
	{
		Name:   KeyDistance,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.Distance = parseFloat(KeyDistance, v, c) },
	},
	{
		Name:   KeyBorderLength,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BorderLength = parseUint(KeyBorderLength, v, c) },
		Validate: func(c *Config) {
			if c.BorderLength == 0 {
				c.LogInvalidField(KeyBorderLength, defaultBorderLength)
				c.BorderLength = defaultBorderLength
			}
		},
	},
	{
		Name:   KeyPaddingLength,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PaddingLength = parseUint(KeyPaddingLength, v, c) },
		Validate: func(c *Config) {
			if c.PaddingLength == 0 {
				c.LogInvalidField(KeyPaddingLength, defaultPaddingLength)
				c.PaddingLength = defaultPaddingLength
			}
		},
	},
	{
		Name:   KeyMetaLength,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MetaLength = parseUint(KeyMetaLength, v, c) },
		Validate: func(c *Config) {
			if c.MetaLength == 0 {
				c.LogInvalidField(KeyMetaLength, defaultMetaLength)
				c.MetaLength = defaultMetaLength
			}
		},
	},
	{
		Name:   KeyMainWidth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MainWidth = parseUint(KeyMainWidth, v, c) },
		Validate: func(c *Config) {
			if c.MainWidth == 0 {
				c.LogInvalidField(KeyMainWidth, defaultMainLength)
				c.MainWidth = defaultMainLength
			}
		},
	},
	{
		Name:   KeyMainHeight,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MainHeight = parseUint(KeyMainHeight, v, c) },
		Validate: func(c *Config) {
			if c.MainHeight == 0 {
				c.LogInvalidField(KeyMainHeight, defaultMainLength)
				c.MainHeight = defaultMainLength
			}
		},
	},
	{
		Name: KeyHints,
		Type: typeString,
		Update: func(c *Config, v string) {
			// Hints arrive as comma separated key=value pairs.
			hints := make(map[string]string)
			for _, kv := range strings.Split(v, ",") {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					c.Logger.Warning("invalid hint, expect key=value", "hint", kv)
					continue
				}
				hints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
			c.Hints = hints
		},
		Validate: func(c *Config) {
			if c.Hints == nil {
				c.Hints = map[string]string{}
			}
		},
	},
	{
		Name:   KeyLoop,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Loop = parseBool(KeyLoop, v, c) },
	},
	{
		Name:   KeyQueueCapacity,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.QueueCapacity = parseUint(KeyQueueCapacity, v, c) },
		Validate: func(c *Config) {
			if c.QueueCapacity == 0 {
				c.LogInvalidField(KeyQueueCapacity, defaultQueueCapacity)
				c.QueueCapacity = defaultQueueCapacity
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name: "logging",
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("logging", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}
