/*
DESCRIPTION
  orx is a command for receiving files transmitted as on-screen 2-D barcodes,
  using the rx package to capture and decode frames from a camera or a raw
  capture file. Behaviour is controlled through a JSON configuration document
  which is re-applied whenever it changes on disk.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>
  Russell Stanley <russell@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the optic receiver command.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/optic/rx"
	"github.com/ausocean/optic/rx/config"
)

// Current software version.
const version = "v1.0.2"

// Logging configuration.
const (
	logPath      = "/var/log/optic/orx.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Misc constants.
const pkg = "orx: "

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		configPath  = flag.String("config", "", "JSON configuration document")
		input       = flag.String("input", "file", "frame input: file or camera")
		inputPath   = flag.String("in", "", "input file, or capture device for camera input")
		outputPath  = flag.String("out", ".", "directory the received file is written to")
		outputName  = flag.String("name", "", "artifact file name; SHA-1 digest when empty")
		width       = flag.Uint("width", 0, "captured frame width")
		height      = flag.Uint("height", 0, "captured frame height")
		verbosity   = flag.String("verbosity", "Info", "logging verbosity: Debug, Info, Warning, Error")
		service     = flag.Bool("service", false, "notify systemd once running")
		tee         = flag.Bool("tee", false, "also copy the received file to stdout")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	log := logging.New(logging.Info, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting orx", "version", version)

	cfg := config.Config{Logger: log}
	if *configPath != "" {
		vars, err := loadConfigVars(*configPath)
		if err != nil {
			log.Fatal(pkg+"could not load config document", "error", err.Error())
		}
		cfg.Update(vars)
	}
	cfg.Update(map[string]string{
		config.KeyInput:      *input,
		config.KeyInputPath:  *inputPath,
		config.KeyOutputPath: *outputPath,
		config.KeyOutputName: *outputName,
		"logging":            *verbosity,
	})
	if *width != 0 {
		cfg.Width = *width
	}
	if *height != 0 {
		cfg.Height = *height
	}

	rv, err := rx.New(cfg, rx.Callbacks{
		Progress: func(current, lastSuccess, total, processed int) {
			log.Debug("progress", "frame", current, "lastSuccess", lastSuccess, "frameTotal", total, "symbols", processed)
		},
		Status: func(msg string) { log.Info(pkg + msg) },
		Sink:   sink(*outputPath, *tee, log),
	})
	if err != nil {
		log.Fatal(pkg+"could not initialise receiver", "error", err.Error())
	}

	if *configPath != "" {
		go watchConfig(*configPath, rv, log)
	}

	err = rv.Start()
	if err != nil {
		log.Fatal(pkg+"could not start receiver", "error", err.Error())
	}

	if *service {
		_, err = daemon.SdNotify(false, daemon.SdNotifyReady)
		if err != nil {
			log.Warning(pkg+"could not notify systemd", "error", err.Error())
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-rv.Done():
		log.Info("receive complete")
	case s := <-sig:
		log.Info("signalled, shutting down", "signal", s.String())
	}
	rv.Stop()
}

// sink returns the file sink callback, writing the artifact into dir and
// optionally teeing it to stdout.
func sink(dir string, tee bool, log logging.Logger) func(data []byte, name string) error {
	return func(data []byte, name string) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create artifact file: %w", err)
		}
		defer f.Close()

		var w io.Writer = f
		if tee {
			w = io.MultiWriter(f, os.Stdout)
		}
		_, err = w.Write(data)
		if err != nil {
			return fmt.Errorf("could not write artifact: %w", err)
		}
		log.Info("artifact written", "path", path, "bytes", len(data))
		return nil
	}
}

// loadConfigVars reads the JSON configuration document into a flat variable
// map of the form consumed by config.Update.
func loadConfigVars(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config document: %w", err)
	}

	var doc map[string]interface{}
	err = json.Unmarshal(b, &doc)
	if err != nil {
		return nil, fmt.Errorf("could not parse config document: %w", err)
	}

	vars := make(map[string]string)
	for k, v := range doc {
		switch t := v.(type) {
		case map[string]interface{}:
			// The hints object flattens to comma separated key=value pairs.
			pairs := make([]string, 0, len(t))
			for hk, hv := range t {
				pairs = append(pairs, fmt.Sprintf("%s=%v", hk, hv))
			}
			sort.Strings(pairs)
			vars[k] = strings.Join(pairs, ",")
		case float64:
			vars[k] = trimFloat(t)
		default:
			vars[k] = fmt.Sprintf("%v", v)
		}
	}
	return vars, nil
}

// trimFloat renders JSON numbers without a trailing fraction when whole, so
// integer fields parse cleanly.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", f)
}

// watchConfig re-applies the configuration document whenever it is written,
// restarting the receiver with the new settings.
func watchConfig(path string, rv *rx.Receiver, log logging.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error(pkg+"could not create config watcher", "error", err.Error())
		return
	}
	defer watcher.Close()

	err = watcher.Add(path)
	if err != nil {
		log.Error(pkg+"could not watch config document", "path", path, "error", err.Error())
		return
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			log.Info("config document changed, re-applying", "path", path)
			vars, err := loadConfigVars(path)
			if err != nil {
				log.Warning(pkg+"could not reload config document", "error", err.Error())
				continue
			}
			err = rv.Update(vars)
			if err != nil {
				log.Warning(pkg+"could not update receiver", "error", err.Error())
				continue
			}
			err = rv.Start()
			if err != nil {
				log.Error(pkg+"could not restart receiver", "error", err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warning(pkg+"config watcher error", "error", err.Error())
		}
	}
}
