// gf2-morse
// Copyright (c) 2025 The gf2-morse Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of gf2-morse.
//
// gf2-morse is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// gf2-morse is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gf2-morse; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command gf2-morse keys a message in Morse code on a GF2 waveform
// generator by switching its DAC on and off.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	gf2 "github.com/bloguetronica/gf2-morse"
	"github.com/bloguetronica/gf2-morse/morse"
	"github.com/bloguetronica/gf2-morse/transport/usb"
)

// Exit status values
const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

const usageLine = "Usage: gf2-morse MESSAGE [SERIAL]"

// app bundles the collaborators of a run so tests can replace the
// hardware and the clock.
type app struct {
	stdout io.Writer
	stderr io.Writer
	open   func(serial string) (gf2.Transport, error)
	list   func() ([]usb.DeviceInfo, error)
	sleep  func(time.Duration)
}

func openUSB(serial string) (gf2.Transport, error) {
	t, err := usb.Open(serial)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by the caller
	}
	return t, nil
}

func main() {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		open:   openUSB,
		list:   usb.List,
		sleep:  time.Sleep,
	}
	os.Exit(a.run(os.Args[1:]))
}

func (a *app) errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stderr, "Error: "+format+"\n", args...)
}

func (a *app) run(args []string) int {
	flags := pflag.NewFlagSet("gf2-morse", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	configPath := flags.StringP("config", "c", "", "YAML configuration file")
	debug := flags.BoolP("debug", "d", false, "Enable debug output")
	sessionLog := flags.BoolP("log", "l", false, "Write a session log file")
	list := flags.Bool("list", false, "List the serial numbers of attached devices and exit")
	flags.Usage = func() {
		_, _ = fmt.Fprintln(a.stderr, usageLine)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitSuccess
		}
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		a.errorf("%v", err)
		return exitFailure
	}
	if flags.Changed("debug") {
		cfg.Debug = *debug
	}
	if flags.Changed("log") {
		cfg.SessionLog = *sessionLog
	}
	if cfg.Debug {
		gf2.SetDebugEnabled(true)
	}

	if *list {
		return a.runList()
	}

	if flags.NArg() < 1 {
		a.errorf("Missing argument.\n%s", usageLine)
		return exitUsage
	}
	if flags.NArg() > 1 {
		cfg.Serial = flags.Arg(1)
	}

	if cfg.SessionLog {
		path, logErr := gf2.InitSessionLog(cfg.LogDir)
		if logErr != nil {
			a.errorf("%v", logErr)
			return exitFailure
		}
		defer func() { _ = gf2.CloseSessionLog() }()
		_, _ = fmt.Fprintf(a.stderr, "Session log: %s\n", path)
	}

	return a.signal(flags.Arg(0), cfg.Serial)
}

func (a *app) runList() int {
	devices, err := a.list()
	if err != nil {
		a.reportOpenError(err)
		return exitFailure
	}
	for _, d := range devices {
		_, _ = fmt.Fprintln(a.stdout, d.Serial)
	}
	return exitSuccess
}

// signal opens the board, checks it is ready and keys message. The device
// is closed on every path out of this function.
func (a *app) signal(message, serial string) int {
	transport, err := a.open(serial)
	if err != nil {
		a.reportOpenError(err)
		return exitFailure
	}

	errs := gf2.NewErrors()
	device, err := gf2.New(transport, gf2.WithErrors(errs))
	if err != nil {
		_ = transport.Close()
		a.errorf("%v", err)
		return exitFailure
	}
	defer func() {
		if closeErr := device.Close(); closeErr != nil {
			gf2.Debugf("close: %v", closeErr)
		}
	}()

	switch err := device.CheckSignalingReady(); {
	case errors.Is(err, gf2.ErrWaveGenStopped):
		a.errorf("Waveform generator is stopped and should be running.\nPlease invoke gf2-start and try again.")
		return exitFailure
	case errors.Is(err, gf2.ErrDACEnabled):
		a.errorf("Waveform generator DAC is enabled and should be disabled.\nPlease invoke gf2-dacoff and try again.")
		return exitFailure
	case err != nil:
		a.reportRunErrors(device)
		return exitFailure
	}

	_, _ = fmt.Fprintln(a.stdout, "Signaling message...")
	engine := morse.NewEngine(device, morse.WithEcho(a.stdout), morse.WithSleep(a.sleep))
	if err := engine.Signal(message); err != nil || errs.Count() > 0 {
		gf2.Debugf("signaling stopped: %v", err)
		a.reportRunErrors(device)
		return exitFailure
	}
	_, _ = fmt.Fprintln(a.stdout, "\nMessage signaled.")
	return exitSuccess
}

// reportRunErrors prints the accumulated failures once the run is over
func (a *app) reportRunErrors(device *gf2.Device) {
	if device.Disconnected() {
		a.errorf("Device disconnected.")
		return
	}
	for _, msg := range device.Errors().Messages() {
		a.errorf("%s", msg)
	}
}

func (a *app) reportOpenError(err error) {
	switch {
	case errors.Is(err, gf2.ErrInit):
		a.errorf("Could not initialize libusb.")
	case errors.Is(err, gf2.ErrDeviceNotFound):
		a.errorf("Could not find device.")
	case errors.Is(err, gf2.ErrDeviceBusy):
		a.errorf("Device is currently unavailable.")
	default:
		a.errorf("%v", err)
	}
	gf2.Debugf("open: %v", err)
}
